package service

import (
	"context"
	"fmt"

	"github.com/tkoster/traindir/internal/domain"
	"github.com/tkoster/traindir/internal/duration"
	"github.com/tkoster/traindir/internal/repo"
)

// Connection is one row of a station-pair search result: a matching train
// plus the computed travel time between the two stations. A missing
// departure or arrival time degrades Duration to its incomplete status
// rather than failing the whole query.
type Connection struct {
	domain.TrainLeg
	Duration duration.Result
}

// StopRole labels a stop's position within the route report.
type StopRole int

const (
	// RoleIntermediate is any stop that is neither origin nor terminus.
	RoleIntermediate StopRole = iota
	// RoleOrigin is the first stop; it has no inbound leg.
	RoleOrigin
	// RoleTerminus is the final stop when it carries no departure time.
	RoleTerminus
)

// StopDetail is one stop in a train detail report.
// Leg is the elapsed time from the previous timed stop's departure; it is
// nil for the origin, for a terminus, and whenever either side of the leg
// lacks a time.
type StopDetail struct {
	domain.Stop
	Role StopRole
	Leg  *duration.Result
}

// TrainDetail is the assembled single-train report.
type TrainDetail struct {
	Train domain.Train
	Stops []StopDetail

	// Overall is the first stop's time to the last stop's time; nil unless
	// both ends carry a departure time.
	Overall *duration.Result

	// TotalDwell is the sum of stop_duration across all stops, in minutes.
	TotalDwell int

	// AvgInteriorDwell is the mean dwell across interior stops only
	// (excluding first and last). HasAvgInteriorDwell is false when the
	// train has no interior stops, so no division ever happens on an
	// empty set.
	AvgInteriorDwell    float64
	HasAvgInteriorDwell bool
}

// DirectoryGroup is one train's block in the full-directory report.
type DirectoryGroup struct {
	TrainNo   string
	TrainType string
	Stops     []domain.DirectoryRow

	// Overall is the first→last travel time, present only for groups with
	// at least two stops whose end stops both carry times.
	Overall *duration.Result
}

// QueryService implements the read side of the directory: station-pair
// search, single-train detail assembly, and full-directory listing.
// All derived timings come from the duration package; a failed computation
// is carried in the result row, never returned as an error.
type QueryService struct {
	repo repo.TrainRepo
}

// NewQueryService constructs a QueryService backed by the provided repo.
func NewQueryService(r repo.TrainRepo) *QueryService {
	return &QueryService{repo: r}
}

// Search returns every train calling at origin strictly before dest, with
// the travel time between the two stations computed per row.
// Always returns a non-nil slice so callers can safely range over it.
func (q *QueryService) Search(ctx context.Context, origin, dest string) ([]Connection, error) {
	legs, err := q.repo.FindBetween(ctx, origin, dest)
	if err != nil {
		return nil, fmt.Errorf("service.QueryService.Search: %w", err)
	}

	conns := make([]Connection, 0, len(legs))
	for _, leg := range legs {
		conns = append(conns, Connection{
			TrainLeg: leg,
			Duration: computeBetween(leg.Departure, leg.Arrival),
		})
	}
	return conns, nil
}

// Detail loads a train with its ordered stops and derives the report
// timings: overall journey time, per-leg times, dwell totals, and the
// interior dwell average.
// Returns domain.ErrNotFound for unknown train numbers.
func (q *QueryService) Detail(ctx context.Context, trainNo string) (TrainDetail, error) {
	train, err := q.repo.GetByTrainNo(ctx, trainNo)
	if err != nil {
		return TrainDetail{}, fmt.Errorf("service.QueryService.Detail: %w", err)
	}
	stops, err := q.repo.ListStops(ctx, train.ID)
	if err != nil {
		return TrainDetail{}, fmt.Errorf("service.QueryService.Detail: %w", err)
	}

	detail := TrainDetail{Train: train}

	var prevTime *string
	for i, stop := range stops {
		sd := StopDetail{Stop: stop}

		switch {
		case i == 0:
			sd.Role = RoleOrigin
		case i == len(stops)-1 && stop.DepartureTime == nil:
			sd.Role = RoleTerminus
		}

		// Leg time is measured from the previous timed stop. The origin has
		// no leg; a stop without a time cannot end one.
		if i > 0 && prevTime != nil && stop.DepartureTime != nil {
			leg := duration.Compute(*prevTime, *stop.DepartureTime)
			sd.Leg = &leg
		}

		if stop.DepartureTime != nil {
			prevTime = stop.DepartureTime
		}
		detail.TotalDwell += stop.StopDuration
		detail.Stops = append(detail.Stops, sd)
	}

	if len(stops) > 0 {
		first, last := stops[0], stops[len(stops)-1]
		if first.DepartureTime != nil && last.DepartureTime != nil {
			overall := duration.Compute(*first.DepartureTime, *last.DepartureTime)
			detail.Overall = &overall
		}
	}

	if len(stops) > 2 {
		interior := stops[1 : len(stops)-1]
		total := 0
		for _, stop := range interior {
			total += stop.StopDuration
		}
		detail.AvgInteriorDwell = float64(total) / float64(len(interior))
		detail.HasAvgInteriorDwell = true
	}

	return detail, nil
}

// Directory returns the whole directory grouped by train, each group with
// its stops in route order and, where both end stops carry times, the
// overall journey time.
// Always returns a non-nil slice so callers can safely range over it.
func (q *QueryService) Directory(ctx context.Context) ([]DirectoryGroup, error) {
	rows, err := q.repo.ListAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("service.QueryService.Directory: %w", err)
	}

	groups := make([]DirectoryGroup, 0)
	for _, row := range rows {
		if len(groups) == 0 || groups[len(groups)-1].TrainNo != row.TrainNo {
			groups = append(groups, DirectoryGroup{
				TrainNo:   row.TrainNo,
				TrainType: row.TrainType,
			})
		}
		g := &groups[len(groups)-1]
		g.Stops = append(g.Stops, row)
	}

	for i := range groups {
		stops := groups[i].Stops
		if len(stops) < 2 {
			continue
		}
		first, last := stops[0], stops[len(stops)-1]
		if first.DepartureTime != nil && last.DepartureTime != nil {
			overall := duration.Compute(*first.DepartureTime, *last.DepartureTime)
			groups[i].Overall = &overall
		}
	}

	return groups, nil
}

// computeBetween computes the travel time between two optional times,
// degrading to the incomplete status when either is missing.
func computeBetween(start, end *string) duration.Result {
	if start == nil || end == nil {
		return duration.Result{Status: duration.StatusIncomplete}
	}
	return duration.Compute(*start, *end)
}
