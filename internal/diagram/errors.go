package diagram

import (
	"errors"
	"fmt"
)

// ErrorKind classifies a rejected Store operation.
type ErrorKind int

const (
	// KindInvalidName means an identifier violated the naming rule.
	KindInvalidName ErrorKind = iota + 1
	// KindDuplicateName means a class name is already taken.
	KindDuplicateName
	// KindDuplicateAttribute means a field name or method signature collides.
	KindDuplicateAttribute
	// KindNotFound means a class, parameter or relationship is absent.
	KindNotFound
	// KindAttributeNotFound means the attribute handle is not owned by the class.
	KindAttributeNotFound
	// KindInvalidType means a relationship type code is outside 0-3.
	KindInvalidType
	// KindSelfRelationshipForbidden means a self generalization or realization.
	KindSelfRelationshipForbidden
	// KindCompositionConflict means the destination already has a composition.
	KindCompositionConflict
	// KindDuplicateRelationship means the ordered class pair already has an edge.
	KindDuplicateRelationship
)

var kindNames = map[ErrorKind]string{
	KindInvalidName:               "InvalidName",
	KindDuplicateName:             "DuplicateName",
	KindDuplicateAttribute:        "DuplicateAttribute",
	KindNotFound:                  "NotFound",
	KindAttributeNotFound:         "AttributeNotFound",
	KindInvalidType:               "InvalidType",
	KindSelfRelationshipForbidden: "SelfRelationshipForbidden",
	KindCompositionConflict:       "CompositionConflict",
	KindDuplicateRelationship:     "DuplicateRelationship",
}

// String returns the kind's name.
func (k ErrorKind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("ErrorKind(%d)", int(k))
}

// Error is the single error type returned by Store operations.
//
// Kind identifies the violated rule, Op names the operation that was
// rejected and Message is a human-readable explanation. The message format
// is stable:
//
//	"diagram: {Op}: {Message}"
type Error struct {
	Kind    ErrorKind
	Op      string
	Message string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Op == "" {
		return "diagram: " + e.Message
	}
	return "diagram: " + e.Op + ": " + e.Message
}

// Is matches another *Error with the same Kind, so the sentinels below can
// be used with errors.Is. ErrNotFound also matches attribute lookups.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	if t.Kind == e.Kind {
		return true
	}
	return t.Kind == KindNotFound && e.Kind == KindAttributeNotFound
}

// Sentinels for errors.Is.
var (
	ErrInvalidName               = &Error{Kind: KindInvalidName, Message: "invalid name"}
	ErrDuplicateName             = &Error{Kind: KindDuplicateName, Message: "duplicate name"}
	ErrDuplicateAttribute        = &Error{Kind: KindDuplicateAttribute, Message: "duplicate attribute"}
	ErrNotFound                  = &Error{Kind: KindNotFound, Message: "not found"}
	ErrAttributeNotFound         = &Error{Kind: KindAttributeNotFound, Message: "attribute not found"}
	ErrInvalidType               = &Error{Kind: KindInvalidType, Message: "invalid relationship type"}
	ErrSelfRelationshipForbidden = &Error{Kind: KindSelfRelationshipForbidden, Message: "self relationship forbidden"}
	ErrCompositionConflict       = &Error{Kind: KindCompositionConflict, Message: "composition conflict"}
	ErrDuplicateRelationship     = &Error{Kind: KindDuplicateRelationship, Message: "duplicate relationship"}
)

// KindOf returns the ErrorKind carried by err, or 0 when err is not a
// diagram error.
func KindOf(err error) ErrorKind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}

func newError(kind ErrorKind, op, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Message: fmt.Sprintf(format, args...)}
}
