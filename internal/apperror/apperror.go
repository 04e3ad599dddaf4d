package apperror

import (
	"errors"
	"fmt"
)

// Kind is the stable, machine-readable error category returned to clients.
type Kind string

const (
	KindNotFound             Kind = "NotFound"
	KindEmptyCart            Kind = "EmptyCart"
	KindInsufficientStock    Kind = "InsufficientStock"
	KindInvalidStatus        Kind = "InvalidStatus"
	KindDuplicateOrderNumber Kind = "DuplicateOrderNumber"
	KindValidation           Kind = "ValidationError"
	KindUnauthorized         Kind = "Unauthorized"
	KindForbidden            Kind = "Forbidden"
	KindConflict             Kind = "Conflict"
	KindInternal             Kind = "Internal"
)

// Error is the error type shared by every service in the module.
type Error struct {
	Kind     Kind              `json:"kind"`
	Message  string            `json:"message"`
	ItemID   string            `json:"itemId,omitempty"`
	ItemName string            `json:"itemName,omitempty"`
	Fields   map[string]string `json:"fields,omitempty"`
	cause    error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.cause }

// Is matches on Kind so sentinel-style comparisons work:
// errors.Is(err, apperror.EmptyCart("")).
func (e *Error) Is(target error) bool {
	var t *Error
	if !errors.As(target, &t) {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(resource, id string) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf("%s not found: %s", resource, id)}
}

func EmptyCart(msg string) *Error {
	if msg == "" {
		msg = "cart is empty"
	}
	return &Error{Kind: KindEmptyCart, Message: msg}
}

// InsufficientStock names the item whose live stock cannot cover the request.
func InsufficientStock(itemID, itemName string) *Error {
	name := itemName
	if name == "" {
		name = itemID
	}
	return &Error{
		Kind:     KindInsufficientStock,
		Message:  fmt.Sprintf("insufficient stock for %s", name),
		ItemID:   itemID,
		ItemName: itemName,
	}
}

func InvalidStatus(msg string) *Error {
	return &Error{Kind: KindInvalidStatus, Message: msg}
}

func DuplicateOrderNumber(number string, cause error) *Error {
	return &Error{Kind: KindDuplicateOrderNumber, Message: fmt.Sprintf("order number %s already exists", number), cause: cause}
}

func Validation(msg string, fields map[string]string) *Error {
	if msg == "" {
		msg = "validation failed"
	}
	return &Error{Kind: KindValidation, Message: msg, Fields: fields}
}

func Unauthorized(msg string) *Error {
	if msg == "" {
		msg = "unauthorized"
	}
	return &Error{Kind: KindUnauthorized, Message: msg}
}

func Forbidden(msg string) *Error {
	if msg == "" {
		msg = "forbidden"
	}
	return &Error{Kind: KindForbidden, Message: msg}
}

func Conflict(msg string) *Error {
	return &Error{Kind: KindConflict, Message: msg}
}

// Internal wraps an unexpected failure. The cause is logged, never sent to clients.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "internal server error", cause: cause}
}

// KindOf returns the Kind of err, or KindInternal for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// IsKind reports whether err carries the given kind anywhere in its chain.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
