package domain

// TrainLeg is one row of a station-pair search: a train that calls at the
// origin before the destination. Departure and Arrival are the stored
// departure_time strings of the two stops; either may be nil.
//
// Rows are ordered by origin departure time ascending, textually — callers
// needing true chronological order must normalize time formats first.
type TrainLeg struct {
	TrainNo   string
	TrainType string
	Departure *string
	Arrival   *string
}

// DirectoryRow is a flat, denormalized view of the whole directory: one row
// per stop, with train fields repeated for every stop on that train.
// Rows are ordered by train_no, then station_order.
type DirectoryRow struct {
	TrainNo       string
	TrainType     string
	StationName   string
	DepartureTime *string
	StopDuration  int
	StationOrder  int
}
