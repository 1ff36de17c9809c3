package domain

import "github.com/google/uuid"

// Stop represents one station visit by a train.
// DepartureTime is nil for the terminus — meaningfully absent, as opposed
// to malformed. Times are stored as the operator typed them (e.g. "08:00");
// interpretation is the duration package's job.
type Stop struct {
	ID            uuid.UUID
	TrainID       uuid.UUID
	StationName   string
	DepartureTime *string
	StopDuration  int // dwell minutes at this station, >= 0
	StationOrder  int // 1-based position along the route
}
