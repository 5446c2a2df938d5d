// Package collaberrors defines the error taxonomy shared by the
// folder, database, and document engines (SPEC_FULL.md §7), so callers
// can use errors.Is/errors.As instead of matching on message text the
// way ad-hoc fmt.Errorf chains would require.
package collaberrors

import (
	"errors"
	"fmt"
)

// Kind enumerates the taxonomy. Each Kind has a sentinel Err value
// below for errors.Is checks, and New/Wrap build a *Error carrying
// extra context for logging.
type Kind int

const (
	KindInvalidIdentifier Kind = iota
	KindNotFound
	KindAlreadyExists
	KindMissingRequiredData
	KindCodecError
	KindPersistenceUnavailable
	KindCorruption
	KindTxnConflict
)

func (k Kind) String() string {
	switch k {
	case KindInvalidIdentifier:
		return "invalid_identifier"
	case KindNotFound:
		return "not_found"
	case KindAlreadyExists:
		return "already_exists"
	case KindMissingRequiredData:
		return "missing_required_data"
	case KindCodecError:
		return "codec_error"
	case KindPersistenceUnavailable:
		return "persistence_unavailable"
	case KindCorruption:
		return "corruption"
	case KindTxnConflict:
		return "txn_conflict"
	default:
		return "unknown"
	}
}

// Sentinel errors for errors.Is checks against a Kind regardless of
// the wrapped detail message.
var (
	ErrInvalidIdentifier      = errors.New("invalid identifier")
	ErrNotFound               = errors.New("not found")
	ErrAlreadyExists          = errors.New("already exists")
	ErrMissingRequiredData    = errors.New("missing required data")
	ErrCodecError             = errors.New("codec error")
	ErrPersistenceUnavailable = errors.New("persistence unavailable")
	ErrCorruption             = errors.New("corruption")
	ErrTxnConflict            = errors.New("transaction conflict")
)

func sentinelFor(k Kind) error {
	switch k {
	case KindInvalidIdentifier:
		return ErrInvalidIdentifier
	case KindNotFound:
		return ErrNotFound
	case KindAlreadyExists:
		return ErrAlreadyExists
	case KindMissingRequiredData:
		return ErrMissingRequiredData
	case KindCodecError:
		return ErrCodecError
	case KindPersistenceUnavailable:
		return ErrPersistenceUnavailable
	case KindCorruption:
		return ErrCorruption
	case KindTxnConflict:
		return ErrTxnConflict
	default:
		return errors.New("unknown error")
	}
}

// Error is a taxonomy-classified error with a subject (the identifier
// or operation it concerns, for logging) and an optional wrapped cause.
type Error struct {
	Kind    Kind
	Subject string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Subject, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Subject)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// New builds an *Error for kind concerning subject.
func New(kind Kind, subject string) *Error {
	return &Error{Kind: kind, Subject: subject}
}

// Wrap builds an *Error for kind concerning subject, wrapping cause so
// errors.Is(err, cause) still succeeds alongside errors.Is(err, sentinel).
func Wrap(kind Kind, subject string, cause error) *Error {
	return &Error{Kind: kind, Subject: subject, Cause: cause}
}

// Is lets errors.Is(err, collaberrors.ErrNotFound) match an *Error
// whose Kind's sentinel is ErrNotFound, and also lets
// errors.Is(err, otherErr) fall through to the wrapped Cause.
func (e *Error) Is(target error) bool {
	return target == sentinelFor(e.Kind)
}
