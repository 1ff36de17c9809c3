// Package service contains the business logic for the train directory.
// Services validate inputs, enforce business rules, and orchestrate repo
// calls. No SQL lives here — services depend on repo interfaces, not
// implementations.
package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/tkoster/traindir/internal/domain"
	"github.com/tkoster/traindir/internal/repo"
)

// ScheduleService implements the mutating operations on the directory.
type ScheduleService struct {
	repo repo.TrainRepo
}

// NewScheduleService constructs a ScheduleService backed by the provided repo.
func NewScheduleService(r repo.TrainRepo) *ScheduleService {
	return &ScheduleService{repo: r}
}

// Create validates and persists a new train with its ordered stops.
// Stops are assigned station_order 1..N in input order; an empty departure
// time on the final stop marks it as the terminus and is stored as NULL.
// Returns domain.ErrValidation for rule violations and domain.ErrDuplicate
// when the train number is already taken.
func (s *ScheduleService) Create(ctx context.Context, input domain.TrainInput) (domain.Train, error) {
	if err := validateTrainInput(input); err != nil {
		return domain.Train{}, err
	}

	train := domain.Train{
		TrainNo:   strings.TrimSpace(input.TrainNo),
		TrainType: strings.TrimSpace(input.TrainType),
	}

	stops := make([]domain.Stop, 0, len(input.Stops))
	for _, in := range input.Stops {
		stop := domain.Stop{
			StationName:  strings.TrimSpace(in.StationName),
			StopDuration: in.StopDuration,
		}
		if t := strings.TrimSpace(in.DepartureTime); t != "" {
			stop.DepartureTime = &t
		}
		stops = append(stops, stop)
	}

	created, err := s.repo.Create(ctx, train, stops)
	if err != nil {
		return domain.Train{}, fmt.Errorf("service.ScheduleService.Create: %w", err)
	}
	return created, nil
}

// Delete removes a train and all its stops, returning the number of stops
// removed. Operator confirmation is the caller's concern — by the time this
// runs, the decision has been made.
// Returns domain.ErrNotFound if no train with that number exists.
func (s *ScheduleService) Delete(ctx context.Context, trainNo string) (int, error) {
	removed, err := s.repo.Delete(ctx, strings.TrimSpace(trainNo))
	if err != nil {
		return 0, fmt.Errorf("service.ScheduleService.Delete: %w", err)
	}
	return removed, nil
}

// StopCount returns how many stops a train has, for use in the deletion
// confirmation prompt. Returns domain.ErrNotFound for unknown trains.
func (s *ScheduleService) StopCount(ctx context.Context, trainNo string) (int, error) {
	train, err := s.repo.GetByTrainNo(ctx, strings.TrimSpace(trainNo))
	if err != nil {
		return 0, fmt.Errorf("service.ScheduleService.StopCount: %w", err)
	}
	n, err := s.repo.StopCount(ctx, train.ID)
	if err != nil {
		return 0, fmt.Errorf("service.ScheduleService.StopCount: %w", err)
	}
	return n, nil
}

// validateTrainInput enforces the creation rules:
//   - train_no must be non-empty.
//   - every station name must be non-empty and unique within the train.
//   - stop_duration must not be negative.
//   - departure time may be empty only on the final stop (the terminus).
func validateTrainInput(input domain.TrainInput) error {
	if strings.TrimSpace(input.TrainNo) == "" {
		return fmt.Errorf("%w: train number is required", domain.ErrValidation)
	}

	seen := make(map[string]bool, len(input.Stops))
	for i, stop := range input.Stops {
		name := strings.TrimSpace(stop.StationName)
		if name == "" {
			return fmt.Errorf("%w: stop %d: station name is required", domain.ErrValidation, i+1)
		}
		if seen[name] {
			return fmt.Errorf("%w: stop %d: station %q appears more than once", domain.ErrValidation, i+1, name)
		}
		seen[name] = true

		if stop.StopDuration < 0 {
			return fmt.Errorf("%w: stop %d: stop duration must not be negative", domain.ErrValidation, i+1)
		}
		if strings.TrimSpace(stop.DepartureTime) == "" && i != len(input.Stops)-1 {
			return fmt.Errorf("%w: stop %d: departure time may be empty only for the terminus", domain.ErrValidation, i+1)
		}
	}
	return nil
}
