package cli

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tkoster/traindir/internal/domain"
	"github.com/tkoster/traindir/internal/duration"
	"github.com/tkoster/traindir/internal/service"
)

// fakeSchedule is a scripted stand-in for the schedule service.
type fakeSchedule struct {
	createInput  domain.TrainInput
	createErr    error
	stopCount    int
	stopCountErr error
	deleted      int
	deleteCalled bool
}

func (f *fakeSchedule) Create(_ context.Context, input domain.TrainInput) (domain.Train, error) {
	f.createInput = input
	if f.createErr != nil {
		return domain.Train{}, f.createErr
	}
	return domain.Train{TrainNo: strings.TrimSpace(input.TrainNo)}, nil
}

func (f *fakeSchedule) Delete(_ context.Context, trainNo string) (int, error) {
	f.deleteCalled = true
	return f.deleted, nil
}

func (f *fakeSchedule) StopCount(_ context.Context, trainNo string) (int, error) {
	if f.stopCountErr != nil {
		return 0, f.stopCountErr
	}
	return f.stopCount, nil
}

// fakeQuery is a scripted stand-in for the query service.
type fakeQuery struct {
	conns     []service.Connection
	detail    service.TrainDetail
	detailErr error
	groups    []service.DirectoryGroup
}

func (f *fakeQuery) Search(_ context.Context, origin, dest string) ([]service.Connection, error) {
	return f.conns, nil
}

func (f *fakeQuery) Detail(_ context.Context, trainNo string) (service.TrainDetail, error) {
	return f.detail, f.detailErr
}

func (f *fakeQuery) Directory(_ context.Context) ([]service.DirectoryGroup, error) {
	return f.groups, nil
}

// runShell feeds the scripted input lines through a Shell and returns its output.
func runShell(t *testing.T, schedule scheduleOps, query queryOps, lines ...string) string {
	t.Helper()

	in := strings.NewReader(strings.Join(lines, "\n") + "\n")
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(io.Discard, nil))

	sh := New(in, &out, log, schedule, query)
	require.NoError(t, sh.Run(context.Background()))
	return out.String()
}

func strPtr(s string) *string { return &s }

func TestShell_quit(t *testing.T) {
	out := runShell(t, &fakeSchedule{}, &fakeQuery{}, "6")

	assert.Contains(t, out, "Train Schedule Directory")
	assert.Contains(t, out, "Bye.")
}

func TestShell_eofEndsLoop(t *testing.T) {
	// Closed stdin must end the loop cleanly, not spin or panic.
	out := runShell(t, &fakeSchedule{}, &fakeQuery{})
	assert.Contains(t, out, "Select an option:")
}

func TestShell_invalidChoice(t *testing.T) {
	out := runShell(t, &fakeSchedule{}, &fakeQuery{}, "9", "6")
	assert.Contains(t, out, "Invalid choice")
}

func TestShell_addTrain(t *testing.T) {
	schedule := &fakeSchedule{}
	out := runShell(t, schedule, &fakeQuery{},
		"1",
		"G101", "CRH380A",
		"Beijing South", "08:00", "0",
		"Nanjing South", "11:40", "abc", // non-numeric dwell falls back to 0
		"Shanghai Hongqiao", "", "0",
		"", // blank station ends stop entry
		"6",
	)

	assert.Contains(t, out, "Train G101 recorded with 3 stops.")
	require.Len(t, schedule.createInput.Stops, 3)
	assert.Equal(t, 0, schedule.createInput.Stops[1].StopDuration)
	assert.Equal(t, "", schedule.createInput.Stops[2].DepartureTime)
}

func TestShell_addTrain_duplicate(t *testing.T) {
	schedule := &fakeSchedule{createErr: domain.ErrDuplicate}
	out := runShell(t, schedule, &fakeQuery{},
		"1", "G101", "CRH380A", "",
		"6",
	)
	assert.Contains(t, out, `Train "G101" already exists.`)
}

func TestShell_search(t *testing.T) {
	query := &fakeQuery{conns: []service.Connection{
		{
			TrainLeg: domain.TrainLeg{TrainNo: "G101", TrainType: "CRH", Departure: strPtr("08:00"), Arrival: strPtr("10:30")},
			Duration: duration.Result{Status: duration.StatusOK, Minutes: 150},
		},
		{
			TrainLeg: domain.TrainLeg{TrainNo: "K202", TrainType: "25G", Departure: strPtr("23:00")},
			Duration: duration.Result{Status: duration.StatusIncomplete},
		},
	}}
	out := runShell(t, &fakeSchedule{}, query, "2", "Beijing South", "Shanghai Hongqiao", "6")

	assert.Contains(t, out, "2 hours 30 minutes")
	assert.Contains(t, out, "incomplete time information")
	assert.Contains(t, out, "unknown", "missing arrival time renders as unknown")
}

func TestShell_search_noMatches(t *testing.T) {
	out := runShell(t, &fakeSchedule{}, &fakeQuery{}, "2", "A", "B", "6")
	assert.Contains(t, out, "No matching trains.")
}

func TestShell_trainDetail(t *testing.T) {
	overall := duration.Result{Status: duration.StatusOK, Minutes: 60}
	leg := duration.Result{Status: duration.StatusOK, Minutes: 60}
	query := &fakeQuery{detail: service.TrainDetail{
		Train: domain.Train{TrainNo: "G101", TrainType: "CRH380A"},
		Stops: []service.StopDetail{
			{Stop: domain.Stop{StationName: "X", DepartureTime: strPtr("08:00")}, Role: service.RoleOrigin},
			{Stop: domain.Stop{StationName: "Y", DepartureTime: strPtr("09:00"), StopDuration: 5}, Leg: &leg},
			{Stop: domain.Stop{StationName: "Z"}, Role: service.RoleTerminus},
		},
		Overall:    &overall,
		TotalDwell: 5,
	}}
	out := runShell(t, &fakeSchedule{}, query, "3", "G101", "6")

	assert.Contains(t, out, "Overall journey: 1 hours 0 minutes")
	assert.Contains(t, out, "origin")
	assert.Contains(t, out, "terminus")
	assert.Contains(t, out, "Total dwell time: 5 minutes")
	assert.NotContains(t, out, "Average dwell", "no interior average without the flag set")
}

func TestShell_trainDetail_notFound(t *testing.T) {
	query := &fakeQuery{detailErr: domain.ErrNotFound}
	out := runShell(t, &fakeSchedule{}, query, "3", "Z999", "6")
	assert.Contains(t, out, `No train numbered "Z999".`)
}

func TestShell_listDirectory(t *testing.T) {
	overall := duration.Result{Status: duration.StatusOK, Minutes: 220}
	query := &fakeQuery{groups: []service.DirectoryGroup{
		{
			TrainNo:   "G101",
			TrainType: "CRH380A",
			Stops: []domain.DirectoryRow{
				{StationName: "Beijing South", DepartureTime: strPtr("08:00"), StationOrder: 1},
				{StationName: "Shanghai Hongqiao", StationOrder: 2},
			},
			Overall: &overall,
		},
	}}
	out := runShell(t, &fakeSchedule{}, query, "4", "6")

	assert.Contains(t, out, "Train G101 | Type CRH380A")
	assert.Contains(t, out, "departs terminus")
	assert.Contains(t, out, "overall journey: 3 hours 40 minutes")
}

func TestShell_listDirectory_empty(t *testing.T) {
	out := runShell(t, &fakeSchedule{}, &fakeQuery{}, "4", "6")
	assert.Contains(t, out, "No trains recorded.")
}

func TestShell_deleteTrain_confirmed(t *testing.T) {
	schedule := &fakeSchedule{stopCount: 3, deleted: 3}
	out := runShell(t, schedule, &fakeQuery{}, "5", "G101", "y", "6")

	assert.True(t, schedule.deleteCalled)
	assert.Contains(t, out, `Delete train "G101" and its 3 stops? (y/n):`)
	assert.Contains(t, out, `Train "G101" deleted (3 stops removed).`)
}

func TestShell_deleteTrain_declined(t *testing.T) {
	schedule := &fakeSchedule{stopCount: 3}
	out := runShell(t, schedule, &fakeQuery{}, "5", "G101", "n", "6")

	assert.False(t, schedule.deleteCalled, "declined confirmation must not delete")
	assert.Contains(t, out, "Delete cancelled.")
}

func TestShell_deleteTrain_notFound(t *testing.T) {
	schedule := &fakeSchedule{stopCountErr: domain.ErrNotFound}
	out := runShell(t, schedule, &fakeQuery{}, "5", "Z999", "6")

	assert.False(t, schedule.deleteCalled)
	assert.Contains(t, out, `No train numbered "Z999".`)
}

func TestUserMessage(t *testing.T) {
	err := fmt.Errorf("service.ScheduleService.Create: %w: train number is required", domain.ErrValidation)
	assert.Equal(t, "train number is required", userMessage(err))
}
