package tzconv

import (
	"errors"
	"fmt"
	"sync"
	"time"

	// zone rules for hosts without /usr/share/zoneinfo
	_ "time/tzdata"
)

var ErrUnknownZone = errors.New("unknown time zone")

// Zones reports the calendar fields of an instant as observed in a zone.
type Zones interface {
	Fields(i Instant, zone string) (WallClock, error)
}

// TZDB implements Zones with the IANA database shipped with the Go runtime.
// Loaded locations are cached; safe for concurrent use.
type TZDB struct {
	cache sync.Map // zone name -> *time.Location
}

// Location resolves an IANA zone name. Empty and "Local" are rejected so a
// missing zone never silently becomes UTC or the host zone.
func (db *TZDB) Location(zone string) (*time.Location, error) {
	if zone == "" || zone == "Local" {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	if loc, ok := db.cache.Load(zone); ok {
		return loc.(*time.Location), nil
	}
	loc, err := time.LoadLocation(zone)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownZone, zone)
	}
	db.cache.Store(zone, loc)
	return loc, nil
}

func (db *TZDB) Fields(i Instant, zone string) (WallClock, error) {
	loc, err := db.Location(zone)
	if err != nil {
		return WallClock{}, err
	}
	return WallClockOf(i.Time().In(loc)), nil
}

// DefaultZones is the process-wide TZDB.
var DefaultZones = &TZDB{}

// ValidZone reports whether zone names a zone in the default database.
func ValidZone(zone string) bool {
	_, err := DefaultZones.Location(zone)
	return err == nil
}
