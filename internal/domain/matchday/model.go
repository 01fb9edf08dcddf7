package matchday

import "time"

type Status string

const (
	StatusOpen     Status = "OPEN"
	StatusLocked   Status = "LOCKED"
	StatusLive     Status = "LIVE"
	StatusFinished Status = "FINISHED"
)

// Matchday is one round of the season. IDs are ordered chronologically.
type Matchday struct {
	ID        int64
	Name      string
	Status    Status
	StartDate time.Time
}

// IsOpen reports whether transfers and league entry are still allowed.
func (m Matchday) IsOpen() bool {
	return m.Status == StatusOpen
}
