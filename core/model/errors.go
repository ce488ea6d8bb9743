package model

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInsufficientData is returned when fewer profiles than scenarios are available.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrDegenerateCluster is returned when clustering leaves a cluster without members.
	ErrDegenerateCluster = errors.New("degenerate cluster")
	// ErrMissingPrice is returned when a member day has no price profile.
	ErrMissingPrice = errors.New("missing price profile")
	// ErrInvalidProfile is returned for malformed profiles (wrong weekday, NaN, duplicates).
	ErrInvalidProfile = errors.New("invalid profile")
	// ErrBoundAnomaly is returned when a reserve bandwidth is negative and the
	// bound policy rejects it.
	ErrBoundAnomaly = errors.New("negative reserve bandwidth")
	// ErrInfeasible indicates the bid model has no feasible assignment.
	ErrInfeasible = errors.New("model infeasible")
	// ErrUnbounded indicates the bid model objective is unbounded.
	ErrUnbounded = errors.New("model unbounded")
	// ErrSolverTimeout indicates the solver did not terminate within its limits.
	ErrSolverTimeout = errors.New("solver timeout")
	// ErrSolverUnavailable indicates the solver failed for reasons unrelated to the model.
	ErrSolverUnavailable = errors.New("solver unavailable")
)

// ErrorKind classifies weekday failures.
type ErrorKind int

const (
	KindData ErrorKind = iota
	KindBoundAnomaly
	KindModel
	KindSolver
)

func (k ErrorKind) String() string {
	switch k {
	case KindData:
		return "data"
	case KindBoundAnomaly:
		return "bound_anomaly"
	case KindModel:
		return "model"
	case KindSolver:
		return "solver"
	default:
		return "unknown"
	}
}

// DayError is a failure scoped to one weekday. Scenario and Hour are -1
// when they do not apply.
type DayError struct {
	Kind     ErrorKind
	Weekday  Weekday
	Scenario int
	Hour     int
	// Family names the constraint family involved in a model error.
	Family string
	Err    error
}

// NewDayError returns a DayError without scenario or hour context.
func NewDayError(kind ErrorKind, wd Weekday, err error) *DayError {
	return &DayError{Kind: kind, Weekday: wd, Scenario: -1, Hour: -1, Err: err}
}

// At returns a copy of e located at the given scenario and hour.
func (e *DayError) At(scenario, hour int) *DayError {
	cp := *e
	cp.Scenario = scenario
	cp.Hour = hour
	return &cp
}

func (e *DayError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s error on %s", e.Kind, e.Weekday)
	if e.Scenario >= 0 {
		fmt.Fprintf(&b, " scenario %d", e.Scenario)
	}
	if e.Hour >= 0 {
		fmt.Fprintf(&b, " hour %d", e.Hour)
	}
	if e.Family != "" {
		fmt.Fprintf(&b, " (%s)", e.Family)
	}
	if e.Err != nil {
		fmt.Fprintf(&b, ": %v", e.Err)
	}
	return b.String()
}

func (e *DayError) Unwrap() error { return e.Err }

// Tags returns the error context as string tags for error monitoring.
func (e *DayError) Tags() map[string]string {
	tags := map[string]string{"kind": e.Kind.String(), "weekday": e.Weekday.String()}
	if e.Scenario >= 0 {
		tags["scenario"] = fmt.Sprint(e.Scenario)
	}
	if e.Hour >= 0 {
		tags["hour"] = fmt.Sprint(e.Hour)
	}
	if e.Family != "" {
		tags["family"] = e.Family
	}
	return tags
}

// KindOf returns the kind of err if it wraps a DayError.
func KindOf(err error) (ErrorKind, bool) {
	var de *DayError
	if errors.As(err, &de) {
		return de.Kind, true
	}
	return 0, false
}
