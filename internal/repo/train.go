// Package repo contains all database access logic for the train directory.
// No business logic lives here — only SQL and type mapping.
package repo

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"

	"github.com/tkoster/traindir/internal/domain"
)

// db is the minimal interface satisfied by *pgxpool.Pool and pgx.Tx.
// Accepting this interface instead of *pgxpool.Pool directly allows
// integration tests to pass a transaction that is rolled back after each
// test, giving free per-test isolation without any manual cleanup.
// Begin on a pgx.Tx opens a savepoint, so the multi-statement operations
// below stay atomic in both configurations.
type db interface {
	Begin(ctx context.Context) (pgx.Tx, error)
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// TrainRepo defines the persistence operations for trains and their stops.
// The service layer depends on this interface, not the concrete Postgres
// implementation, which allows the service to be unit-tested with a mock.
type TrainRepo interface {
	// Create inserts a train and its stops in one transaction.
	// Stops receive station_order 1..N from their slice position.
	// Returns domain.ErrDuplicate if train_no is already taken or a station
	// appears twice; on any error nothing is persisted.
	Create(ctx context.Context, train domain.Train, stops []domain.Stop) (domain.Train, error)

	// GetByTrainNo retrieves a single train by its train number.
	// Returns domain.ErrNotFound if no such train exists.
	GetByTrainNo(ctx context.Context, trainNo string) (domain.Train, error)

	// ListStops returns all stops of a train ordered by station_order.
	ListStops(ctx context.Context, trainID uuid.UUID) ([]domain.Stop, error)

	// StopCount returns the number of stops recorded for a train.
	StopCount(ctx context.Context, trainID uuid.UUID) (int, error)

	// Delete removes a train and all its stops in one transaction and
	// returns the number of stops removed.
	// Returns domain.ErrNotFound if no such train exists.
	Delete(ctx context.Context, trainNo string) (int, error)

	// ListAll returns one row per stop across all trains, ordered by
	// train_no then station_order.
	ListAll(ctx context.Context) ([]domain.DirectoryRow, error)

	// FindBetween returns every train that calls at origin strictly before
	// dest, ordered by origin departure_time ascending (textual ordering;
	// NULL departure times sort last).
	FindBetween(ctx context.Context, origin, dest string) ([]domain.TrainLeg, error)
}

// pgTrainRepo is the Postgres implementation of TrainRepo.
type pgTrainRepo struct {
	db db
}

// NewTrainRepo constructs a TrainRepo backed by the provided db connection.
// In production pass *pgxpool.Pool; in tests pass a pgx.Tx for rollback isolation.
func NewTrainRepo(db db) TrainRepo {
	return &pgTrainRepo{db: db}
}

// Create inserts the train row and its stop rows atomically.
func (r *pgTrainRepo) Create(ctx context.Context, train domain.Train, stops []domain.Stop) (domain.Train, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return domain.Train{}, fmt.Errorf("repo.TrainRepo.Create: begin: %w", classify(err))
	}
	// Rollback is a no-op once the transaction has committed.
	defer tx.Rollback(ctx)

	const insertTrain = `
		INSERT INTO trains (train_no, train_type)
		VALUES (@train_no, @train_type)
		RETURNING id, train_no, train_type`

	row := tx.QueryRow(ctx, insertTrain, pgx.NamedArgs{
		"train_no":   train.TrainNo,
		"train_type": train.TrainType,
	})
	created, err := scanTrain(row)
	if err != nil {
		return domain.Train{}, fmt.Errorf("repo.TrainRepo.Create: %w", err)
	}

	const insertStop = `
		INSERT INTO stops (train_id, station_name, departure_time, stop_duration, station_order)
		VALUES (@train_id, @station_name, @departure_time, @stop_duration, @station_order)`

	for i, stop := range stops {
		_, err := tx.Exec(ctx, insertStop, pgx.NamedArgs{
			"train_id":       created.ID,
			"station_name":   stop.StationName,
			"departure_time": stop.DepartureTime, // nil becomes NULL (terminus)
			"stop_duration":  stop.StopDuration,
			"station_order":  i + 1,
		})
		if err != nil {
			return domain.Train{}, fmt.Errorf("repo.TrainRepo.Create: stop %d: %w", i+1, classify(err))
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return domain.Train{}, fmt.Errorf("repo.TrainRepo.Create: commit: %w", classify(err))
	}
	return created, nil
}

// GetByTrainNo retrieves a train by its external train number.
func (r *pgTrainRepo) GetByTrainNo(ctx context.Context, trainNo string) (domain.Train, error) {
	const q = `
		SELECT id, train_no, train_type
		FROM trains
		WHERE train_no = @train_no`

	row := r.db.QueryRow(ctx, q, pgx.NamedArgs{"train_no": trainNo})
	train, err := scanTrain(row)
	if err != nil {
		return domain.Train{}, fmt.Errorf("repo.TrainRepo.GetByTrainNo: %w", err)
	}
	return train, nil
}

// ListStops returns a train's stops in route order.
func (r *pgTrainRepo) ListStops(ctx context.Context, trainID uuid.UUID) ([]domain.Stop, error) {
	const q = `
		SELECT id, train_id, station_name, departure_time, stop_duration, station_order
		FROM stops
		WHERE train_id = @train_id
		ORDER BY station_order`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"train_id": trainID})
	if err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.ListStops: %w", classify(err))
	}
	defer rows.Close()

	var stops []domain.Stop
	for rows.Next() {
		s, err := scanStop(rows)
		if err != nil {
			return nil, fmt.Errorf("repo.TrainRepo.ListStops: scan: %w", err)
		}
		stops = append(stops, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.ListStops: rows: %w", classify(err))
	}

	return stops, nil
}

// StopCount returns the number of stops belonging to a train.
func (r *pgTrainRepo) StopCount(ctx context.Context, trainID uuid.UUID) (int, error) {
	const q = `SELECT count(*) FROM stops WHERE train_id = @train_id`

	var n int
	if err := r.db.QueryRow(ctx, q, pgx.NamedArgs{"train_id": trainID}).Scan(&n); err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.StopCount: %w", classify(err))
	}
	return n, nil
}

// Delete removes the stops and then the train in one transaction.
// The stops are deleted explicitly rather than relying on the FK cascade so
// the count of removed stops can be reported back to the caller.
func (r *pgTrainRepo) Delete(ctx context.Context, trainNo string) (int, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.Delete: begin: %w", classify(err))
	}
	defer tx.Rollback(ctx)

	var id pgtype.UUID
	err = tx.QueryRow(ctx, `SELECT id FROM trains WHERE train_no = @train_no`,
		pgx.NamedArgs{"train_no": trainNo}).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.Delete: %w", classify(err))
	}

	tag, err := tx.Exec(ctx, `DELETE FROM stops WHERE train_id = @train_id`,
		pgx.NamedArgs{"train_id": uuid.UUID(id.Bytes)})
	if err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.Delete: stops: %w", classify(err))
	}
	removed := int(tag.RowsAffected())

	if _, err := tx.Exec(ctx, `DELETE FROM trains WHERE id = @id`,
		pgx.NamedArgs{"id": uuid.UUID(id.Bytes)}); err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.Delete: train: %w", classify(err))
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("repo.TrainRepo.Delete: commit: %w", classify(err))
	}
	return removed, nil
}

// ListAll returns the full directory as flat train⋈stop rows.
func (r *pgTrainRepo) ListAll(ctx context.Context) ([]domain.DirectoryRow, error) {
	const q = `
		SELECT t.train_no, t.train_type, s.station_name, s.departure_time, s.stop_duration, s.station_order
		FROM trains t
		JOIN stops s ON t.id = s.train_id
		ORDER BY t.train_no, s.station_order`

	rows, err := r.db.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.ListAll: %w", classify(err))
	}
	defer rows.Close()

	var out []domain.DirectoryRow
	for rows.Next() {
		var (
			row domain.DirectoryRow
			dep pgtype.Text
		)
		if err := rows.Scan(&row.TrainNo, &row.TrainType, &row.StationName, &dep, &row.StopDuration, &row.StationOrder); err != nil {
			return nil, fmt.Errorf("repo.TrainRepo.ListAll: scan: %w", err)
		}
		row.DepartureTime = textPtr(dep)
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.ListAll: rows: %w", classify(err))
	}

	return out, nil
}

// FindBetween self-joins stops to find trains calling at origin before dest.
func (r *pgTrainRepo) FindBetween(ctx context.Context, origin, dest string) ([]domain.TrainLeg, error) {
	const q = `
		SELECT t.train_no, t.train_type, s1.departure_time, s2.departure_time
		FROM trains t
		JOIN stops s1 ON t.id = s1.train_id
		JOIN stops s2 ON t.id = s2.train_id
		WHERE s1.station_name = @origin
		  AND s2.station_name = @dest
		  AND s1.station_order < s2.station_order
		ORDER BY s1.departure_time`

	rows, err := r.db.Query(ctx, q, pgx.NamedArgs{"origin": origin, "dest": dest})
	if err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.FindBetween: %w", classify(err))
	}
	defer rows.Close()

	var legs []domain.TrainLeg
	for rows.Next() {
		var (
			leg      domain.TrainLeg
			dep, arr pgtype.Text
		)
		if err := rows.Scan(&leg.TrainNo, &leg.TrainType, &dep, &arr); err != nil {
			return nil, fmt.Errorf("repo.TrainRepo.FindBetween: scan: %w", err)
		}
		leg.Departure = textPtr(dep)
		leg.Arrival = textPtr(arr)
		legs = append(legs, leg)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("repo.TrainRepo.FindBetween: rows: %w", classify(err))
	}

	return legs, nil
}

// scanner is satisfied by both pgx.Row and pgx.Rows, allowing the scan
// helpers to be reused for both QueryRow and Query calls.
type scanner interface {
	Scan(dest ...any) error
}

// scanTrain maps a single database row into a domain.Train.
func scanTrain(s scanner) (domain.Train, error) {
	var (
		t  domain.Train
		id pgtype.UUID
	)
	if err := s.Scan(&id, &t.TrainNo, &t.TrainType); err != nil {
		return domain.Train{}, classify(err)
	}
	t.ID = uuid.UUID(id.Bytes)
	return t, nil
}

// scanStop maps a single database row into a domain.Stop.
// It handles the UUID and nullable departure_time conversions.
func scanStop(s scanner) (domain.Stop, error) {
	var (
		stop    domain.Stop
		id, tid pgtype.UUID
		dep     pgtype.Text
	)
	err := s.Scan(&id, &tid, &stop.StationName, &dep, &stop.StopDuration, &stop.StationOrder)
	if err != nil {
		return domain.Stop{}, classify(err)
	}
	stop.ID = uuid.UUID(id.Bytes)
	stop.TrainID = uuid.UUID(tid.Bytes)
	stop.DepartureTime = textPtr(dep)
	return stop, nil
}

// textPtr converts a nullable text column into *string.
func textPtr(t pgtype.Text) *string {
	if !t.Valid {
		return nil
	}
	v := t.String
	return &v
}

// uniqueViolation is the Postgres error code for a unique constraint breach.
const uniqueViolation = "23505"

// classify maps low-level pgx errors onto the domain error taxonomy:
// no rows → ErrNotFound, unique violation → ErrDuplicate, anything else is
// wrapped as ErrStorage so callers can treat it as an opaque failure.
func classify(err error) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicate
	}
	return fmt.Errorf("%w: %v", domain.ErrStorage, err)
}
