package engine

import (
	"errors"
	"fmt"

	"github.com/lib/pq"
)

// Kind classifies an integrity or configuration error raised by the engine
// or a stream interpreter. Unlike the HTTP-facing Category used elsewhere
// in this codebase, Kind carries no status-code mapping: the core has no
// HTTP surface of its own.
type Kind int

const (
	// KindNotConfigured is raised when catch-up runs against an instance
	// with no stream cursor.
	KindNotConfigured Kind = iota
	// KindAlreadyConfigured is raised by ConfigureInstance when the
	// (stream, chain_id, contract_address) already exists with a different
	// genesis tip.
	KindAlreadyConfigured
	// KindTipMismatch is raised when a canonical event's prev_tip does not
	// match the cursor's current tip.
	KindTipMismatch
	// KindCompletedWithoutStarted is raised when ForwardCompleted is applied
	// for a forward_id with no current row.
	KindCompletedWithoutStarted
	// KindMissingCurrent is raised when an update/close targets a row with
	// no current version.
	KindMissingCurrent
	// KindMissingArg is raised when an event's args map lacks a required key
	// or the value has the wrong shape.
	KindMissingArg
	// KindInvalidIntentType is raised when an IntentCreated event carries an
	// intent_type outside {0,1,2,3}.
	KindInvalidIntentType
)

func (k Kind) String() string {
	switch k {
	case KindNotConfigured:
		return "NotConfigured"
	case KindAlreadyConfigured:
		return "AlreadyConfigured"
	case KindTipMismatch:
		return "TipMismatch"
	case KindCompletedWithoutStarted:
		return "CompletedWithoutStarted"
	case KindMissingCurrent:
		return "MissingCurrent"
	case KindMissingArg:
		return "MissingArg"
	case KindInvalidIntentType:
		return "InvalidIntentType"
	default:
		return "Unknown"
	}
}

// Error is the engine's integrity/configuration error type. It wraps an
// optional underlying cause and carries the instance and event_seq it was
// raised against for log correlation.
type Error struct {
	Kind     Kind
	Instance InstanceKey
	EventSeq uint64
	Message  string
	Err      error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s [%s seq=%d]: %v", e.Kind, e.Message, e.Instance, e.EventSeq, e.Err)
	}
	return fmt.Sprintf("%s: %s [%s seq=%d]", e.Kind, e.Message, e.Instance, e.EventSeq)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Is reports whether target is an *Error of the same Kind.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return other.Kind == e.Kind
	}
	return false
}

// IsKind reports whether err is an *Error of the given Kind.
func IsKind(err error, kind Kind) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind == kind
	}
	return false
}

func newError(kind Kind, instance InstanceKey, seq uint64, message string, cause error) error {
	return &Error{Kind: kind, Instance: instance, EventSeq: seq, Message: message, Err: cause}
}

// NotConfiguredError returns a KindNotConfigured error for instance.
func NotConfiguredError(instance InstanceKey) error {
	return newError(KindNotConfigured, instance, 0, "no stream cursor configured for instance", nil)
}

// AlreadyConfiguredError returns a KindAlreadyConfigured error for instance.
func AlreadyConfiguredError(instance InstanceKey) error {
	return newError(KindAlreadyConfigured, instance, 0, "instance is already configured", nil)
}

// TipMismatchError returns a KindTipMismatch error describing the expected
// and actual tip values at the given event_seq.
func TipMismatchError(instance InstanceKey, seq uint64, cursorTip, eventPrevTip fmt.Stringer) error {
	return newError(KindTipMismatch, instance, seq,
		fmt.Sprintf("cursor tip %s does not match event prev_tip %s", cursorTip, eventPrevTip), nil)
}

// CompletedWithoutStartedError returns a KindCompletedWithoutStarted error.
func CompletedWithoutStartedError(instance InstanceKey, seq uint64, forwardID string) error {
	return newError(KindCompletedWithoutStarted, instance, seq,
		fmt.Sprintf("ForwardCompleted for forward_id %s with no ForwardStarted row", forwardID), nil)
}

// MissingCurrentError returns a KindMissingCurrent error.
func MissingCurrentError(instance InstanceKey, seq uint64, what string) error {
	return newError(KindMissingCurrent, instance, seq, fmt.Sprintf("no current row for %s", what), nil)
}

// MissingArgError returns a KindMissingArg error.
func MissingArgError(instance InstanceKey, seq uint64, name string) error {
	return newError(KindMissingArg, instance, seq, fmt.Sprintf("missing or malformed arg %q", name), nil)
}

// InvalidIntentTypeError returns a KindInvalidIntentType error.
func InvalidIntentTypeError(instance InstanceKey, seq uint64, value int) error {
	return newError(KindInvalidIntentType, instance, seq, fmt.Sprintf("intent_type %d outside {0,1,2,3}", value), nil)
}

// transientSQLStates are the Postgres SQLSTATE codes that mean the
// transaction failed for reasons unrelated to the data it wrote and is
// safe to retry whole: serialization_failure and deadlock_detected.
var transientSQLStates = map[string]bool{
	"40001": true,
	"40P01": true,
}

// IsTransient reports whether err is a Postgres error the caller should
// retry the whole transaction for, rather than treat as an integrity or
// configuration failure.
func IsTransient(err error) bool {
	var pqErr *pq.Error
	if !errors.As(err, &pqErr) {
		return false
	}
	return transientSQLStates[string(pqErr.Code)]
}
