// Package vlerr defines the typed, coded error hierarchy shared by the
// lexer, reducer, registry, store, and scheduler, in the shape of the
// teacher's ParseError/DevCmdError: a coded kind, an optional source
// position, an optional node id, and a wrapped cause.
package vlerr

import (
	"fmt"
	"strings"

	"github.com/voxlogica-project/voxlogica-core/internal/ast"
)

// Code identifies the kind of error, per the error kinds listed in spec §7.
type Code string

const (
	ParseError          Code = "PARSE_ERROR"
	UnboundIdentifier    Code = "UNBOUND_IDENTIFIER"
	ArityMismatch        Code = "ARITY_MISMATCH"
	DuplicateDeclaration Code = "DUPLICATE_DECLARATION"
	UnknownOperator      Code = "UNKNOWN_OPERATOR"
	ImportError          Code = "IMPORT_ERROR"
	PrimitiveFailure     Code = "PRIMITIVE_FAILURE"
	SerializationError   Code = "SERIALIZATION_ERROR"
	StoreError           Code = "STORE_ERROR"
	Cancelled            Code = "CANCELLED"
	DependencyFailed     Code = "DEPENDENCY_FAILED"
)

// EngineError is the error type returned across package boundaries, except
// for syntax errors from internal/parser, which are *parser.ParseError.
// Position is set for errors derived from user source; NodeID is set for
// errors derived from execution (spec §7).
type EngineError struct {
	Code     Code
	Message  string
	Position *ast.Position
	NodeID   string
	Cause    error
}

func (e *EngineError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	b.WriteString(": ")
	b.WriteString(e.Message)
	if e.Position != nil {
		fmt.Fprintf(&b, " (at %s)", e.Position.String())
	}
	if e.NodeID != "" {
		fmt.Fprintf(&b, " [node %s]", e.NodeID)
	}
	if e.Cause != nil {
		fmt.Fprintf(&b, ": %v", e.Cause)
	}
	return b.String()
}

func (e *EngineError) Unwrap() error { return e.Cause }

// New builds an EngineError with no position or node id attached.
func New(code Code, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// At builds an EngineError carrying a source position.
func At(code Code, pos ast.Position, format string, args ...interface{}) *EngineError {
	p := pos
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...), Position: &p}
}

// ForNode builds an EngineError carrying an execution-time node id.
func ForNode(code Code, nodeID string, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...), NodeID: nodeID}
}

// Wrap builds a new EngineError with code and message that wraps cause.
func Wrap(code Code, cause error, format string, args ...interface{}) *EngineError {
	return &EngineError{Code: code, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// CodeOf extracts the Code from err if it (or something it wraps) is an
// *EngineError, and ok=false otherwise.
func CodeOf(err error) (Code, bool) {
	var ee *EngineError
	if asEngineError(err, &ee) {
		return ee.Code, true
	}
	return "", false
}

func asEngineError(err error, target **EngineError) bool {
	for err != nil {
		if ee, ok := err.(*EngineError); ok {
			*target = ee
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
