package core

import (
	"errors"
	"fmt"
)

const (
	InvalidAmount      ValidationKind = "invalid_amount"
	MissingCategory    ValidationKind = "missing_category"
	MissingDescription ValidationKind = "missing_description"
	FutureDate         ValidationKind = "future_date"
)

// ValidationKind identifies which boundary rule a bad input violated.
type ValidationKind string

// ValidationError reports bad input to Add or Update. The ledger guarantees
// no state changed when one is returned.
type ValidationError struct {
	Kind    ValidationKind
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed (%s): %s", e.Kind, e.Message)
}

// NotFoundError reports an operation against a transaction id the ledger
// does not hold.
type NotFoundError struct {
	ID string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("transaction %s not found", e.ID)
}

// PersistenceError wraps a storage backend failure. The ledger keeps serving
// from its in-memory copy when one occurs.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persistence %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}

// IsNotFound reports whether err is a NotFoundError.
func IsNotFound(err error) bool {
	var nfe *NotFoundError
	return errors.As(err, &nfe)
}
