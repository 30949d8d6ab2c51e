package errors

import (
	"fmt"

	"github.com/pkg/errors"
)

var (
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrDomainNotFound       = errors.New("domain not found")
	ErrSummaryNotFound      = errors.New("summary not found")
	ErrInvalidStartDate     = errors.New("invalid start date")
	ErrRunInProgress        = errors.New("reconciliation already running")
)

type Kind uint8

const (
	KindUnknown Kind = iota
	KindNotFound
	KindValidation
	KindDatastore
)

func (k Kind) String() string {
	switch k {
	case KindNotFound:
		return "not found"
	case KindValidation:
		return "validation"
	case KindDatastore:
		return "datastore failure"
	default:
		return "unknown"
	}
}

// Error carries the failing operation and its kind around the underlying cause.
type Error struct {
	Kind Kind
	Op   string
	Err  error
}

func (e *Error) Error() string {
	if e.Op == "" {
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %s: %v", e.Op, e.Kind, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

func NotFound(op string, err error) error {
	return &Error{Kind: KindNotFound, Op: op, Err: err}
}

func Validation(op string, err error) error {
	return &Error{Kind: KindValidation, Op: op, Err: err}
}

// Datastore wraps a query or transaction failure. A nil err stays nil.
func Datastore(op string, err error) error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return err
	}
	return &Error{Kind: KindDatastore, Op: op, Err: errors.WithStack(err)}
}

func KindOf(err error) Kind {
	var typed *Error
	if errors.As(err, &typed) {
		return typed.Kind
	}
	return KindUnknown
}

func IsNotFound(err error) bool {
	return KindOf(err) == KindNotFound
}

func IsValidation(err error) bool {
	return KindOf(err) == KindValidation
}

func IsDatastore(err error) bool {
	return KindOf(err) == KindDatastore
}
