package handler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"appointment-planner/internal/api"
	"appointment-planner/internal/metrics"
	"appointment-planner/internal/middleware"
	"appointment-planner/internal/model"
	"appointment-planner/internal/store"
	"appointment-planner/internal/tzconv"
)

// LocalLayout renders start_local and end_local.
const LocalLayout = "2006-01-02 15:04:05"

var errUnknownParticipant = errors.New("unknown participant")

// caller loads the authenticated user.
func (h *Handler) caller(w http.ResponseWriter, r *http.Request) (*model.User, bool) {
	u, err := h.store.GetUser(r.Context(), middleware.UserID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusUnauthorized, "user not found")
		return nil, false
	}
	if err != nil {
		internal(w, r, err, "load caller")
		return nil, false
	}
	return u, true
}

// when reads a request time. RFC3339 values are absolute; naive local values
// are wall-clock times in zone. Both come back as the instant plus the wall
// clock in zone.
func (h *Handler) when(s, zone string) (time.Time, tzconv.WallClock, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		at := tzconv.InstantOf(t)
		wc, err := h.engine.InstantToLocal(at, zone)
		return at.Time(), wc, err
	}
	wc, err := tzconv.ParseLocal(s)
	if err != nil {
		return time.Time{}, tzconv.WallClock{}, err
	}
	at, err := h.engine.LocalToInstant(wc, zone)
	return at.Time(), wc, err
}

// participants resolves ids to users in request order, dropping blanks,
// duplicates and the creator.
func (h *Handler) participants(ctx context.Context, creatorID string, ids []string) ([]model.User, error) {
	seen := map[string]bool{creatorID: true}
	var want []string
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		want = append(want, id)
	}
	if len(want) == 0 {
		return nil, nil
	}

	found, err := h.store.UsersByIDs(ctx, want)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.User, len(found))
	for _, u := range found {
		byID[u.ID] = u
	}
	out := make([]model.User, 0, len(want))
	for _, id := range want {
		u, ok := byID[id]
		if !ok {
			return nil, fmt.Errorf("%w: %s", errUnknownParticipant, id)
		}
		out = append(out, u)
	}
	return out, nil
}

func (h *Handler) previews(creator *model.User, others []model.User, start, end tzconv.WallClock) []tzconv.Preview {
	ps := make([]tzconv.Participant, len(others))
	for i, u := range others {
		ps[i] = tzconv.Participant{Zone: u.PreferredTimezone, Label: u.Name}
	}
	rows := h.engine.BuildPreviews(tzconv.Participant{Zone: creator.PreferredTimezone, Label: creator.Name}, start, end, ps)
	for _, p := range rows {
		switch {
		case p.Err != nil:
			metrics.PreviewRowsTotal.WithLabelValues("error").Inc()
		case p.WithinWorkingHours:
			metrics.PreviewRowsTotal.WithLabelValues("valid").Inc()
		default:
			metrics.PreviewRowsTotal.WithLabelValues("outside_hours").Inc()
		}
	}
	return rows
}

func (h *Handler) rejection(bad []tzconv.Preview) string {
	parts := make([]string, len(bad))
	for i, p := range bad {
		if p.Err != nil {
			parts[i] = fmt.Sprintf("%s (%v)", p.Zone, p.Err)
			continue
		}
		parts[i] = fmt.Sprintf("%s (start=%s, end=%s)", p.Zone, p.DisplayStart(), p.DisplayEnd())
	}
	msg := fmt.Sprintf("appointment time is outside working hours (%s) for timezone(s): %s",
		h.engine.Window(), strings.Join(parts, "; "))
	if len(bad) > 1 {
		msg += ". Please choose a time that works for all participants' timezones"
	}
	return msg
}

func (h *Handler) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var req api.CreateAppointmentRequest
	if !decode(w, r, &req) {
		return
	}
	req.Title = strings.TrimSpace(req.Title)
	if req.Title == "" {
		writeError(w, http.StatusBadRequest, "title required")
		return
	}
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		writeError(w, http.StatusBadRequest, "start and end required")
		return
	}

	creator, ok := h.caller(w, r)
	if !ok {
		return
	}

	start, startWC, err := h.when(req.Start, creator.PreferredTimezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time: use RFC3339 or 2024-01-15T09:00:00")
		return
	}
	end, endWC, err := h.when(req.End, creator.PreferredTimezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time: use RFC3339 or 2024-01-15T17:00:00")
		return
	}
	if !end.After(start) {
		writeError(w, http.StatusBadRequest, "end time must be after start time")
		return
	}

	others, err := h.participants(r.Context(), creator.ID, req.ParticipantIDs)
	if errors.Is(err, errUnknownParticipant) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		internal(w, r, err, "load participants")
		return
	}

	rows := h.previews(creator, others, startWC, endWC)
	if bad := h.policy.Rejected(rows); len(bad) > 0 {
		metrics.AppointmentsRejectedTotal.Inc()
		writeError(w, http.StatusBadRequest, h.rejection(bad))
		return
	}

	apt := &model.Appointment{
		ID:             uuid.New().String(),
		Title:          req.Title,
		CreatorID:      creator.ID,
		Start:          start,
		End:            end,
		Status:         model.StatusConfirmed,
		ParticipantIDs: []string{creator.ID},
	}
	users := map[string]model.User{creator.ID: *creator}
	for _, u := range others {
		apt.ParticipantIDs = append(apt.ParticipantIDs, u.ID)
		users[u.ID] = u
	}

	if err := h.store.CreateAppointment(r.Context(), apt); err != nil {
		internal(w, r, err, "create appointment")
		return
	}
	writeData(w, http.StatusCreated, h.view(apt, creator.PreferredTimezone, users))
}

// PreviewAppointment computes the preview rows for the caller as creator
// without storing anything.
func (h *Handler) PreviewAppointment(w http.ResponseWriter, r *http.Request) {
	var req api.PreviewRequest
	if !decode(w, r, &req) {
		return
	}
	creator, ok := h.caller(w, r)
	if !ok {
		return
	}
	// an unfinished form previews as nothing
	if strings.TrimSpace(req.Start) == "" || strings.TrimSpace(req.End) == "" {
		writeData(w, http.StatusOK, api.PreviewResponse{
			Window:   h.engine.Window().String(),
			Previews: []tzconv.Preview{},
		})
		return
	}

	start, startWC, err := h.when(req.Start, creator.PreferredTimezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start time")
		return
	}
	end, endWC, err := h.when(req.End, creator.PreferredTimezone)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end time")
		return
	}

	others, err := h.participants(r.Context(), creator.ID, req.ParticipantIDs)
	if errors.Is(err, errUnknownParticipant) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if err != nil {
		internal(w, r, err, "load participants")
		return
	}

	writeData(w, http.StatusOK, api.PreviewResponse{
		Start:    start,
		End:      end,
		Window:   h.engine.Window().String(),
		Previews: h.previews(creator, others, startWC, endWC),
	})
}

func (h *Handler) ListAppointments(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.caller(w, r)
	if !ok {
		return
	}

	now := h.now()
	from := now.AddDate(0, 0, -30)
	to := now.AddDate(0, 2, 0)
	q := r.URL.Query()
	if v := q.Get("from"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid from: use RFC3339")
			return
		}
		from = t
	}
	if v := q.Get("to"); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid to: use RFC3339")
			return
		}
		to = t
	}

	apts, err := h.store.ListAppointmentsFor(r.Context(), viewer.ID, from, to)
	if err != nil {
		internal(w, r, err, "list appointments")
		return
	}
	users, err := h.usersFor(r.Context(), apts...)
	if err != nil {
		internal(w, r, err, "load participants")
		return
	}

	out := make([]api.Appointment, len(apts))
	for i := range apts {
		out[i] = h.view(&apts[i], viewer.PreferredTimezone, users)
	}
	writeData(w, http.StatusOK, out)
}

func (h *Handler) GetAppointment(w http.ResponseWriter, r *http.Request) {
	viewer, ok := h.caller(w, r)
	if !ok {
		return
	}

	apt, err := h.store.GetAppointment(r.Context(), mux.Vars(r)["id"])
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		internal(w, r, err, "get appointment")
		return
	}
	// 404 not 403 to hide existence
	if !apt.HasParticipant(viewer.ID) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}

	users, err := h.usersFor(r.Context(), *apt)
	if err != nil {
		internal(w, r, err, "load participants")
		return
	}
	writeData(w, http.StatusOK, h.view(apt, viewer.PreferredTimezone, users))
}

// CancelAppointment marks the appointment cancelled. Only its creator may;
// anyone else gets 404.
func (h *Handler) CancelAppointment(w http.ResponseWriter, r *http.Request) {
	err := h.store.CancelAppointment(r.Context(), mux.Vars(r)["id"], middleware.UserID(r.Context()))
	if errors.Is(err, store.ErrNotFound) {
		writeError(w, http.StatusNotFound, "not found")
		return
	}
	if err != nil {
		internal(w, r, err, "cancel appointment")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) usersFor(ctx context.Context, apts ...model.Appointment) (map[string]model.User, error) {
	seen := map[string]bool{}
	var ids []string
	for _, a := range apts {
		for _, id := range append([]string{a.CreatorID}, a.ParticipantIDs...) {
			if !seen[id] {
				seen[id] = true
				ids = append(ids, id)
			}
		}
	}
	users, err := h.store.UsersByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make(map[string]model.User, len(users))
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

// view renders a for a viewer in zone. Deleted users are left out of the
// participant list; a deleted creator keeps only its id.
func (h *Handler) view(a *model.Appointment, zone string, users map[string]model.User) api.Appointment {
	out := api.Appointment{
		ID:           a.ID,
		Title:        a.Title,
		CreatorID:    a.CreatorID,
		Status:       a.Status,
		Start:        a.Start.UTC(),
		End:          a.End.UTC(),
		StartLocal:   h.local(a.Start, zone),
		EndLocal:     h.local(a.End, zone),
		Creator:      api.User{ID: a.CreatorID},
		Participants: []api.User{},
		CreatedAt:    a.CreatedAt,
	}
	if u, ok := users[a.CreatorID]; ok {
		out.Creator = userView(&u)
	}
	for _, id := range a.ParticipantIDs {
		if u, ok := users[id]; ok {
			out.Participants = append(out.Participants, userView(&u))
		}
	}
	return out
}

func (h *Handler) local(t time.Time, zone string) string {
	wc, err := h.engine.InstantToLocal(tzconv.InstantOf(t), zone)
	if err != nil {
		return t.UTC().Format(LocalLayout)
	}
	return wc.Date() + " " + fmt.Sprintf("%02d:%02d:%02d", wc.Hour, wc.Minute, wc.Second)
}
