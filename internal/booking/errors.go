package booking

import "fmt"

// ConflictError reports that a requested interval overlaps an existing
// blocking booking. It carries the conflicting interval so the caller
// can offer the next free slot instead of a bare failure.
type ConflictError struct {
	MachineID int64  `json:"machineId"`
	Date      string `json:"date"`
	StartTime string `json:"startTime"`
	EndTime   string `json:"endTime"`
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("booking conflict on machine %d: %s %s-%s is taken", e.MachineID, e.Date, e.StartTime, e.EndTime)
}

// NotFoundError reports an operation on an unknown id.
type NotFoundError struct {
	Kind string
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// ValidationError reports malformed or out-of-policy input: a duration
// outside the catalog, a date in the past, an unparseable time, a
// start off the slot grid.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func validationf(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}
