// Package duration computes the elapsed time between two time-of-day
// strings as entered by the operator (e.g. "08:00", "23:50").
//
// Computation never fails with an error: every outcome, including
// malformed input, is a Result value the caller can render directly.
package duration

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Status classifies the outcome of Compute.
type Status int

const (
	// StatusOK means both times parsed and Minutes is valid.
	StatusOK Status = iota
	// StatusIncomplete means start or end was empty after trimming.
	StatusIncomplete
	// StatusFormatError means an input matched none of the accepted formats.
	StatusFormatError
	// StatusUnable means an input split into integer tokens that are not a
	// valid clock reading (e.g. "25:00").
	StatusUnable
)

// Result is the outcome of an elapsed-time computation.
type Result struct {
	Status  Status
	Minutes int // elapsed minutes; meaningful only when Status is StatusOK
}

// String renders the result for display.
// Successful results read "2 hours 30 minutes", or "45 minutes" when under
// an hour. Failure statuses render as fixed placeholder strings.
func (r Result) String() string {
	switch r.Status {
	case StatusIncomplete:
		return "incomplete time information"
	case StatusFormatError:
		return "format error"
	case StatusUnable:
		return "unable to compute"
	}
	h, m := r.Minutes/60, r.Minutes%60
	if h > 0 {
		return fmt.Sprintf("%d hours %d minutes", h, m)
	}
	return fmt.Sprintf("%d minutes", m)
}

// errOutOfRange marks input that tokenized into integers outside clock range.
var errOutOfRange = errors.New("time out of range")

// errNoMatch marks input no parser could read.
var errNoMatch = errors.New("unrecognized time format")

// A parserFunc reads a time-of-day string and returns minutes since
// midnight. Parsers are tried in order, first match wins; add new formats
// by appending to parsers.
type parserFunc func(s string) (int, error)

var parsers = []parserFunc{
	layoutParser("15:04"),
	layoutParser("15:04:05"),
	layoutParser("15.04"),
	colonSplitParser,
}

// layoutParser adapts a time.Parse layout into a parserFunc.
func layoutParser(layout string) parserFunc {
	return func(s string) (int, error) {
		t, err := time.Parse(layout, s)
		if err != nil {
			return 0, err
		}
		return t.Hour()*60 + t.Minute(), nil
	}
}

// colonSplitParser is the lenient fallback: split on ":" and read hour and
// minute as plain integers. It accepts sloppy values like "8:5" that the
// strict layouts reject, but still insists on a real clock reading.
func colonSplitParser(s string) (int, error) {
	parts := strings.Split(s, ":")
	if len(parts) < 2 {
		return 0, errNoMatch
	}
	hour, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return 0, errNoMatch
	}
	minute, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return 0, errNoMatch
	}
	if hour < 0 || hour > 23 || minute < 0 || minute > 59 {
		return 0, errOutOfRange
	}
	return hour*60 + minute, nil
}

// parse runs the parser chain over s.
// A range failure is only reported if no later parser succeeds.
func parse(s string) (int, error) {
	outOfRange := false
	for _, p := range parsers {
		minutes, err := p(s)
		if err == nil {
			return minutes, nil
		}
		if errors.Is(err, errOutOfRange) {
			outOfRange = true
		}
	}
	if outOfRange {
		return 0, errOutOfRange
	}
	return 0, errNoMatch
}

// Compute returns the elapsed time from start to end.
//
// Both times are assumed to fall on the same calendar day; when end reads
// earlier than start the end is taken to be on the following day, which
// models overnight services ("23:50" → "00:10" is 20 minutes).
func Compute(start, end string) Result {
	start = strings.TrimSpace(start)
	end = strings.TrimSpace(end)
	if start == "" || end == "" {
		return Result{Status: StatusIncomplete}
	}

	s, errS := parse(start)
	e, errE := parse(end)
	if errS != nil || errE != nil {
		if errors.Is(errS, errOutOfRange) || errors.Is(errE, errOutOfRange) {
			return Result{Status: StatusUnable}
		}
		return Result{Status: StatusFormatError}
	}

	if e < s {
		e += 24 * 60 // end is on the next day
	}
	return Result{Status: StatusOK, Minutes: e - s}
}
