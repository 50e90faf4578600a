package kpi

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound            = errors.New("not found")
	ErrInvalidInput        = errors.New("invalid input")
	ErrDuplicateAssignment = errors.New("duplicate assignment")
	ErrAlreadyFinalized    = errors.New("already finalized")
	ErrForeignKeyViolation = errors.New("referenced entity missing or inactive")
)

// DuplicateAssignmentError names the conflicting assignee and KPI so batch
// assignment reports are actionable for the operator.
type DuplicateAssignmentError struct {
	KpiName      string
	AssigneeName string
	Period       string
}

func (e *DuplicateAssignmentError) Error() string {
	return fmt.Sprintf("%s is already assigned %q for %s", e.AssigneeName, e.KpiName, e.Period)
}

func (e *DuplicateAssignmentError) Unwrap() error { return ErrDuplicateAssignment }
