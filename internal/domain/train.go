// Package domain contains the core data types for the train directory.
// This package has zero external dependencies beyond uuid and is imported
// by every other internal package (repo, service, cli).
package domain

import "github.com/google/uuid"

// Train represents a scheduled service identified by a unique train number.
// A train is the top-level aggregate; stops belong to a train and are
// removed with it. Trains are created whole and never mutated afterwards.
type Train struct {
	ID        uuid.UUID
	TrainNo   string
	TrainType string
}

// TrainInput is the structured input for creating a train.
// The shell is responsible for prompting, trimming, and type coercion
// before handing it to the service layer.
type TrainInput struct {
	TrainNo   string
	TrainType string
	Stops     []StopInput
}

// StopInput is one stop as supplied by the caller, in route order.
// DepartureTime may be empty only for the terminal stop.
type StopInput struct {
	StationName   string
	DepartureTime string
	StopDuration  int
}
