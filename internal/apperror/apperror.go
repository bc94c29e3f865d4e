package apperror

import (
	"errors"
	"fmt"
)

// Kind classifies an error for transport mapping.
type Kind string

const (
	KindValidation  Kind = "validation"
	KindNotFound    Kind = "not_found"
	KindForbidden   Kind = "forbidden"
	KindConflict    Kind = "conflict"
	KindUnavailable Kind = "unavailable"
	KindInternal    Kind = "internal"
)

// Conflict sub-codes
const (
	CodeScheduleConflict = "schedule_conflict"
	CodeCapacityConflict = "capacity_conflict"
	CodeSessionInactive  = "session_inactive"
)

// Error is the structured error surfaced to callers as {code, message, details}.
type Error struct {
	Kind      Kind
	Code      string
	Message   string
	Details   any
	Retryable bool
	err       error
}

func (e *Error) Error() string {
	if e.err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.err
}

func Validation(message string) error {
	return &Error{Kind: KindValidation, Code: string(KindValidation), Message: message}
}

func Validationf(format string, args ...any) error {
	return Validation(fmt.Sprintf(format, args...))
}

func NotFound(entity string) error {
	return &Error{Kind: KindNotFound, Code: string(KindNotFound), Message: entity + " not found"}
}

func Forbidden(entity string) error {
	return &Error{Kind: KindForbidden, Code: string(KindForbidden), Message: entity + " belongs to another user"}
}

// ScheduleConflictDetails lists the tasks already occupying the requested day.
type ScheduleConflictDetails struct {
	MilestoneID        string   `json:"milestoneId"`
	Date               string   `json:"date"`
	ConflictingTaskIDs []string `json:"conflictingTaskIds"`
}

func ScheduleConflict(milestoneID, date string, taskIDs []string) error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeScheduleConflict,
		Message: "a task already exists on " + date + " for this milestone",
		Details: ScheduleConflictDetails{MilestoneID: milestoneID, Date: date, ConflictingTaskIDs: taskIDs},
	}
}

// GoalHours is one entry of the capacity diagnostic.
type GoalHours struct {
	GoalID      string  `json:"goalId"`
	Title       string  `json:"title"`
	WeeklyHours float64 `json:"weeklyHours"`
}

// CapacityConflictDetails describes an exceeded weekly-hour budget.
type CapacityConflictDetails struct {
	AvailableHoursPerWeek float64     `json:"availableHoursPerWeek"`
	RequiredHoursPerWeek  float64     `json:"requiredHoursPerWeek"`
	ConflictingGoals      []GoalHours `json:"conflictingGoals"`
}

func CapacityConflict(details CapacityConflictDetails) error {
	return &Error{
		Kind: KindConflict,
		Code: CodeCapacityConflict,
		Message: fmt.Sprintf("weekly hours exceeded: %g required, %g available",
			details.RequiredHoursPerWeek, details.AvailableHoursPerWeek),
		Details: details,
	}
}

func SessionInactive(sessionID string) error {
	return &Error{
		Kind:    KindConflict,
		Code:    CodeSessionInactive,
		Message: "session " + sessionID + " is no longer active",
		Details: map[string]string{"sessionId": sessionID},
	}
}

// Unavailable wraps an upstream failure. Retryable marks failures that may succeed later.
func Unavailable(message string, retryable bool, err error) error {
	return &Error{
		Kind:      KindUnavailable,
		Code:      string(KindUnavailable),
		Message:   message,
		Retryable: retryable,
		err:       err,
	}
}

func Internal(message string, err error) error {
	return &Error{Kind: KindInternal, Code: string(KindInternal), Message: message, err: err}
}

// As returns the *Error in err's chain, if any.
func As(err error) (*Error, bool) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// KindOf returns the kind of err, KindInternal for unclassified errors.
func KindOf(err error) Kind {
	if appErr, ok := As(err); ok {
		return appErr.Kind
	}
	return KindInternal
}

// HasCode reports whether err carries the given code.
func HasCode(err error, code string) bool {
	appErr, ok := As(err)
	return ok && appErr.Code == code
}
