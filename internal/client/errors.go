package client

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/go-resty/resty/v2"

	"appointment-planner/internal/api"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrUnauthorized = errors.New("unauthorized")
)

// APIError is a non-2xx answer from the planner API.
type APIError struct {
	Status  int
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("planner api: %d %s", e.Status, e.Message)
}

// Is lets callers use errors.Is with ErrNotFound and ErrUnauthorized.
func (e *APIError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	}
	return false
}

func apiError(resp *resty.Response) error {
	e := &APIError{Status: resp.StatusCode()}
	if body, ok := resp.Error().(*api.ErrorResponse); ok && body.Error != "" {
		e.Message = body.Error
	} else if text := strings.TrimSpace(resp.String()); text != "" && len(text) < 200 {
		e.Message = text
	} else {
		e.Message = http.StatusText(e.Status)
	}
	return e
}
