// Package cli implements the interactive operator shell: the menu loop,
// input prompting, and result formatting. All state lives behind the
// service layer — the shell only collects arguments, invokes operations,
// and renders the structured records they return.
package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/tkoster/traindir/internal/domain"
	"github.com/tkoster/traindir/internal/service"
)

// scheduleOps is the mutating surface the shell needs from the service layer.
type scheduleOps interface {
	Create(ctx context.Context, input domain.TrainInput) (domain.Train, error)
	Delete(ctx context.Context, trainNo string) (int, error)
	StopCount(ctx context.Context, trainNo string) (int, error)
}

// queryOps is the read surface the shell needs from the service layer.
type queryOps interface {
	Search(ctx context.Context, origin, dest string) ([]service.Connection, error)
	Detail(ctx context.Context, trainNo string) (service.TrainDetail, error)
	Directory(ctx context.Context) ([]service.DirectoryGroup, error)
}

// compile-time checks: the concrete services must satisfy the shell's views.
var (
	_ scheduleOps = (*service.ScheduleService)(nil)
	_ queryOps    = (*service.QueryService)(nil)
)

// Shell is the interactive menu over the directory services.
type Shell struct {
	in       *bufio.Scanner
	out      io.Writer
	log      *slog.Logger
	schedule scheduleOps
	query    queryOps
}

// New constructs a Shell reading prompts from in and writing to out.
func New(in io.Reader, out io.Writer, log *slog.Logger, schedule scheduleOps, query queryOps) *Shell {
	return &Shell{
		in:       bufio.NewScanner(in),
		out:      out,
		log:      log,
		schedule: schedule,
		query:    query,
	}
}

// Run drives the menu loop until the operator quits or input ends.
func (s *Shell) Run(ctx context.Context) error {
	for {
		fmt.Fprintln(s.out, "========== Train Schedule Directory ==========")
		fmt.Fprintln(s.out, "1. Add a train")
		fmt.Fprintln(s.out, "2. Search trains by station pair")
		fmt.Fprintln(s.out, "3. Show train details by number")
		fmt.Fprintln(s.out, "4. List all trains")
		fmt.Fprintln(s.out, "5. Delete a train")
		fmt.Fprintln(s.out, "6. Quit")

		choice, ok := s.prompt("Select an option: ")
		if !ok {
			return nil // input closed
		}

		switch choice {
		case "1":
			s.addTrain(ctx)
		case "2":
			s.searchConnections(ctx)
		case "3":
			s.trainDetail(ctx)
		case "4":
			s.listDirectory(ctx)
		case "5":
			s.deleteTrain(ctx)
		case "6":
			fmt.Fprintln(s.out, "Bye.")
			return nil
		default:
			fmt.Fprintln(s.out, "Invalid choice, try again.")
		}
		fmt.Fprintln(s.out)
	}
}

// prompt writes label and returns the next input line, trimmed.
// The second return value is false when input is exhausted.
func (s *Shell) prompt(label string) (string, bool) {
	fmt.Fprint(s.out, label)
	if !s.in.Scan() {
		return "", false
	}
	return strings.TrimSpace(s.in.Text()), true
}

// addTrain collects a train and its stops in route order, then persists
// them in one operation. Stop entry ends on a blank station name.
func (s *Shell) addTrain(ctx context.Context) {
	trainNo, ok := s.prompt("Train number: ")
	if !ok {
		return
	}
	trainType, ok := s.prompt("Train type: ")
	if !ok {
		return
	}

	var stops []domain.StopInput
	for order := 1; ; order++ {
		station, ok := s.prompt(fmt.Sprintf("Station %d name (blank to finish): ", order))
		if !ok || station == "" {
			break
		}
		departure, ok := s.prompt("Departure time (HH:MM, blank for terminus): ")
		if !ok {
			return
		}
		dwellStr, ok := s.prompt("Dwell minutes: ")
		if !ok {
			return
		}
		// Non-numeric or negative dwell input falls back to 0.
		dwell, err := strconv.Atoi(dwellStr)
		if err != nil || dwell < 0 {
			dwell = 0
		}

		stops = append(stops, domain.StopInput{
			StationName:   station,
			DepartureTime: departure,
			StopDuration:  dwell,
		})
	}

	train, err := s.schedule.Create(ctx, domain.TrainInput{
		TrainNo:   trainNo,
		TrainType: trainType,
		Stops:     stops,
	})
	switch {
	case errors.Is(err, domain.ErrDuplicate):
		fmt.Fprintf(s.out, "Train %q already exists.\n", trainNo)
	case errors.Is(err, domain.ErrValidation):
		fmt.Fprintf(s.out, "Invalid input: %s\n", userMessage(err))
	case err != nil:
		s.fail("add train", err)
	default:
		fmt.Fprintf(s.out, "Train %s recorded with %d stops.\n", train.TrainNo, len(stops))
	}
}

// searchConnections runs a station-pair search and renders the result table.
func (s *Shell) searchConnections(ctx context.Context) {
	origin, ok := s.prompt("Origin station: ")
	if !ok {
		return
	}
	dest, ok := s.prompt("Destination station: ")
	if !ok {
		return
	}

	conns, err := s.query.Search(ctx, origin, dest)
	if err != nil {
		s.fail("search", err)
		return
	}
	if len(conns) == 0 {
		fmt.Fprintln(s.out, "No matching trains.")
		return
	}

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "TRAIN\tTYPE\tDEPARTS\tARRIVES\tDURATION")
	for _, c := range conns {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			c.TrainNo, c.TrainType,
			timeOr(c.Departure, "unknown"), timeOr(c.Arrival, "unknown"),
			c.Duration)
	}
	w.Flush()
}

// trainDetail renders the full report for one train.
func (s *Shell) trainDetail(ctx context.Context) {
	trainNo, ok := s.prompt("Train number: ")
	if !ok {
		return
	}

	detail, err := s.query.Detail(ctx, trainNo)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(s.out, "No train numbered %q.\n", trainNo)
		return
	}
	if err != nil {
		s.fail("train detail", err)
		return
	}

	fmt.Fprintf(s.out, "Train:  %s\n", detail.Train.TrainNo)
	fmt.Fprintf(s.out, "Type:   %s\n", detail.Train.TrainType)
	fmt.Fprintf(s.out, "Stops:  %d\n", len(detail.Stops))
	if detail.Overall != nil {
		fmt.Fprintf(s.out, "Overall journey: %s\n", detail.Overall)
	}
	if len(detail.Stops) == 0 {
		fmt.Fprintln(s.out, "No stops recorded for this train.")
		return
	}

	first := detail.Stops[0]
	last := detail.Stops[len(detail.Stops)-1]
	fmt.Fprintf(s.out, "From:   %s (%s)\n", first.StationName, timeOr(first.DepartureTime, "no departure time"))
	fmt.Fprintf(s.out, "To:     %s (%s)\n", last.StationName, timeOr(last.DepartureTime, "no departure time"))
	fmt.Fprintln(s.out)

	w := tabwriter.NewWriter(s.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tSTATION\tDEPARTS\tDWELL\tLEG")
	for i, stop := range detail.Stops {
		departs := timeOr(stop.DepartureTime, "---")
		dwell := "---"
		if stop.StopDuration > 0 {
			dwell = fmt.Sprintf("%d min", stop.StopDuration)
		}

		leg := "---"
		switch {
		case stop.Role == service.RoleOrigin:
			leg = "origin"
		case stop.Role == service.RoleTerminus:
			leg = "terminus"
			departs = "terminus"
		case stop.Leg != nil:
			leg = stop.Leg.String()
		}

		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n", i+1, stop.StationName, departs, dwell, leg)
	}
	w.Flush()

	fmt.Fprintf(s.out, "\nTotal dwell time: %d minutes\n", detail.TotalDwell)
	if detail.HasAvgInteriorDwell {
		fmt.Fprintf(s.out, "Average dwell: %.1f minutes (interior stops only)\n", detail.AvgInteriorDwell)
	}
}

// listDirectory renders every train with its stops and overall journey time.
func (s *Shell) listDirectory(ctx context.Context) {
	groups, err := s.query.Directory(ctx)
	if err != nil {
		s.fail("list trains", err)
		return
	}
	if len(groups) == 0 {
		fmt.Fprintln(s.out, "No trains recorded.")
		return
	}

	for _, g := range groups {
		fmt.Fprintf(s.out, "Train %s | Type %s\n", g.TrainNo, g.TrainType)
		for _, stop := range g.Stops {
			fmt.Fprintf(s.out, "  %d. %s | departs %s | dwell %d min\n",
				stop.StationOrder, stop.StationName,
				timeOr(stop.DepartureTime, "terminus"), stop.StopDuration)
		}
		if g.Overall != nil {
			fmt.Fprintf(s.out, "  [overall journey: %s]\n", g.Overall)
		}
	}
}

// deleteTrain looks the train up, shows its stop count, and asks for
// confirmation before invoking the cascading delete.
func (s *Shell) deleteTrain(ctx context.Context) {
	trainNo, ok := s.prompt("Train number to delete: ")
	if !ok {
		return
	}

	count, err := s.schedule.StopCount(ctx, trainNo)
	if errors.Is(err, domain.ErrNotFound) {
		fmt.Fprintf(s.out, "No train numbered %q.\n", trainNo)
		return
	}
	if err != nil {
		s.fail("delete train", err)
		return
	}

	confirm, ok := s.prompt(fmt.Sprintf("Delete train %q and its %d stops? (y/n): ", trainNo, count))
	if !ok || strings.ToLower(confirm) != "y" {
		fmt.Fprintln(s.out, "Delete cancelled.")
		return
	}

	removed, err := s.schedule.Delete(ctx, trainNo)
	if err != nil {
		s.fail("delete train", err)
		return
	}
	fmt.Fprintf(s.out, "Train %q deleted (%d stops removed).\n", trainNo, removed)
}

// fail reports an unexpected operation failure to the operator and the log.
// Expected conditions (not found, duplicates, validation) are handled at
// the call sites; anything reaching here is a storage-level problem.
func (s *Shell) fail(op string, err error) {
	s.log.Error(op+" failed", "error", err)
	fmt.Fprintf(s.out, "%s failed: %v\n", op, err)
}

// timeOr renders an optional departure time, substituting fallback for nil.
func timeOr(t *string, fallback string) string {
	if t == nil {
		return fallback
	}
	return *t
}

// userMessage extracts the human-readable part from a wrapped sentinel
// error, e.g. "service.ScheduleService.Create: validation error: train
// number is required" → "train number is required".
func userMessage(err error) string {
	msg := err.Error()
	if i := strings.LastIndex(msg, domain.ErrValidation.Error()+": "); i >= 0 {
		return msg[i+len(domain.ErrValidation.Error())+2:]
	}
	return msg
}
