// Package errors provides error types and utilities shared across stathub.
package errors

import (
	"errors"
	"fmt"
)

// Sentinel errors for common conditions
var (
	ErrNotConnected    = errors.New("not connected")
	ErrUnknownChannel  = errors.New("unknown channel")
	ErrEmptyChannel    = errors.New("channel name cannot be empty")
	ErrHandlerNotFound = errors.New("handler not found")
	ErrEmptyRequest    = errors.New("request name cannot be empty")
	ErrNilHandler      = errors.New("handler function cannot be nil")
	ErrShutdown        = errors.New("shutting down")
	ErrInvalidConfig   = errors.New("invalid configuration")
	ErrNotFound        = errors.New("not found")
)

// DecodeError represents a malformed inbound frame. It is never fatal to
// the connection that produced it.
type DecodeError struct {
	Err error // underlying error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode frame: %v", e.Err)
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}

// HandlerError represents a job handler execution failure.
type HandlerError struct {
	Kind    string // job kind
	Request string // operation name
	Err     error  // underlying error
}

func (e *HandlerError) Error() string {
	return fmt.Sprintf("handler %s/%s: %v", e.Kind, e.Request, e.Err)
}

func (e *HandlerError) Unwrap() error {
	return e.Err
}

// StoreError represents a backend store failure.
type StoreError struct {
	Op  string // operation being performed
	Err error  // underlying error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// ConnectionError represents connection-related errors
type ConnectionError struct {
	URI string // connection URI (may be redacted)
	Err error  // underlying error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connection to %s: %v", e.URI, e.Err)
}

func (e *ConnectionError) Unwrap() error {
	return e.Err
}

func (e *ConnectionError) Temporary() bool {
	if t, ok := e.Err.(interface{ Temporary() bool }); ok {
		return t.Temporary()
	}
	return false
}

func (e *ConnectionError) Timeout() bool {
	if t, ok := e.Err.(interface{ Timeout() bool }); ok {
		return t.Timeout()
	}
	return false
}

// Helper functions for creating errors

// NewDecodeError creates a new decode error
func NewDecodeError(err error) error {
	return &DecodeError{Err: err}
}

// NewHandlerError creates a new handler error
func NewHandlerError(kind, request string, err error) error {
	return &HandlerError{Kind: kind, Request: request, Err: err}
}

// NewStoreError creates a new store error
func NewStoreError(op string, err error) error {
	return &StoreError{Op: op, Err: err}
}

// NewConnectionError creates a new connection error
func NewConnectionError(uri string, err error) error {
	return &ConnectionError{URI: uri, Err: err}
}

// IsDecode reports whether err is a frame decode failure.
func IsDecode(err error) bool {
	var de *DecodeError
	return errors.As(err, &de)
}
