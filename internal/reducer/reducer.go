// Package reducer defines the transition contract shared by every state domain.
//
// A transition function computes the next state from the current state and an
// action. Recoverable precondition failures come back as a Rejected outcome carrying
// the unchanged state and a reason code. An action kind the domain does not handle
// is a wiring mistake and comes back as an *UnknownActionError with no state.
package reducer

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"reflect"
)

// ErrUnknownAction marks dispatches of an action kind a domain does not handle.
var ErrUnknownAction = errors.New("unknown action")

// Action is a request to change domain state. Each domain declares one concrete
// type per kind.
type Action interface {
	Kind() string
}

// Callbacks carries the optional caller feedback hooks of an action. Embed it in
// concrete action types.
type Callbacks struct {
	OnSuccess func()
	OnError   func()
}

func (c Callbacks) callbacks() Callbacks {
	return c
}

type notifiable interface {
	callbacks() Callbacks
}

// Status is the result class of a transition.
type Status string

const (
	StatusAccepted  Status = "accepted"
	StatusUnchanged Status = "unchanged"
	StatusRejected  Status = "rejected"
)

// Reason is a machine-readable rejection code.
type Reason string

const (
	ReasonInvalidRequest   Reason = "InvalidRequest"
	ReasonNotFound         Reason = "NotFound"
	ReasonAlreadyExists    Reason = "AlreadyExists"
	ReasonValidationFailed Reason = "ValidationFailed"
	ReasonUnavailable      Reason = "Unavailable"
)

// FieldError describes one field-level validation failure.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// Outcome is the result of a transition.
type Outcome[S any] struct {
	State  S
	Status Status
	Reason Reason
	Detail string
	Fields []FieldError
}

// Func computes the next state of a domain.
type Func[S any] func(ctx context.Context, current S, action Action) (Outcome[S], error)

// UnknownActionError reports an action kind with no handler in a domain.
type UnknownActionError struct {
	Domain string
	Kind   string
}

func (e *UnknownActionError) Error() string {
	return fmt.Sprintf("%s: unknown action kind %q", e.Domain, e.Kind)
}

func (e *UnknownActionError) Unwrap() error {
	return ErrUnknownAction
}

// Unknown returns the error for an unhandled action.
func Unknown(domain string, action Action) error {
	kind := "<nil>"
	if !IsNil(action) {
		kind = action.Kind()
	}
	return &UnknownActionError{Domain: domain, Kind: kind}
}

// IsNil reports whether action is nil or a typed nil pointer.
func IsNil(action Action) bool {
	if action == nil {
		return true
	}
	v := reflect.ValueOf(action)
	switch v.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan, reflect.Interface:
		return v.IsNil()
	}
	return false
}

// Deref returns the value a non-nil action pointer points to, so domains can
// match concrete value types whether callers pass &T{} or T{}.
func Deref(action Action) Action {
	if IsNil(action) {
		return action
	}
	v := reflect.ValueOf(action)
	if v.Kind() != reflect.Pointer {
		return action
	}
	if elem, ok := v.Elem().Interface().(Action); ok {
		return elem
	}
	return action
}

// Accept settles a candidate state against the current one. Candidates that encode
// to the same JSON text as current are Unchanged and keep the current value.
func Accept[S any](current, candidate S) (Outcome[S], error) {
	same, err := equal(current, candidate)
	if err != nil {
		return Outcome[S]{}, fmt.Errorf("compare states: %w", err)
	}
	if same {
		return Outcome[S]{State: current, Status: StatusUnchanged}, nil
	}
	return Outcome[S]{State: candidate, Status: StatusAccepted}, nil
}

// Reject returns current with a rejection reason.
func Reject[S any](current S, reason Reason, detail string, fields ...FieldError) Outcome[S] {
	return Outcome[S]{
		State:  current,
		Status: StatusRejected,
		Reason: reason,
		Detail: detail,
		Fields: fields,
	}
}

// Notify fires the action's callbacks for an outcome: OnSuccess for Accepted,
// OnError for Rejected, neither for Unchanged.
func Notify[S any](action Action, outcome Outcome[S]) {
	if IsNil(action) {
		return
	}
	n, ok := Deref(action).(notifiable)
	if !ok {
		return
	}
	cb := n.callbacks()
	switch outcome.Status {
	case StatusAccepted:
		if cb.OnSuccess != nil {
			cb.OnSuccess()
		}
	case StatusRejected:
		if cb.OnError != nil {
			cb.OnError()
		}
	}
}

// Equal reports whether a and b encode to identical JSON text. List order is
// significant. Map keys are encoded sorted, so map insertion order is not.
func Equal(a, b any) bool {
	same, err := equal(a, b)
	return err == nil && same
}

func equal(a, b any) (bool, error) {
	left, err := json.Marshal(a)
	if err != nil {
		return false, err
	}
	right, err := json.Marshal(b)
	if err != nil {
		return false, err
	}
	return bytes.Equal(left, right), nil
}
