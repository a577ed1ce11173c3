package flat

import (
	"errors"
	"fmt"
)

// Kind classifies a structural violation. Every violation aborts
// elaboration; the kinds exist so callers and tests can tell them apart.
type Kind int

const (
	// AlreadyReduced: an identifier was bound to a target after it had
	// already been reduced or bound.
	AlreadyReduced Kind = iota + 1
	// UnknownUse: Update was called with a value the event does not use.
	UnknownUse
	// RepeatedUse: Update was called twice for the same value.
	RepeatedUse
	// NotInitialized: Update was called before Initialize.
	NotInitialized
	// Unsupported: the operation (or one of its attributes) is outside what
	// elaboration handles, e.g. priority select or register reset.
	Unsupported
	// DuplicatePort: more than one input or output port op in a region.
	DuplicatePort
	// BadTop: the requested top module is missing or not marked top.
	BadTop
	// PortMismatch: port aliasing disagrees in arity or data type.
	PortMismatch
	// Recursive: a module instantiates itself, directly or indirectly.
	Recursive
	// MissingOperand: a required operand or entity record is absent.
	MissingOperand
	// UnknownOp: an id does not resolve to an operation.
	UnknownOp
)

var kindNames = map[Kind]string{
	AlreadyReduced: "already reduced",
	UnknownUse:     "unknown use",
	RepeatedUse:    "repeated use",
	NotInitialized: "not initialized",
	Unsupported:    "unsupported operation",
	DuplicatePort:  "duplicate port operation",
	BadTop:         "bad top module",
	PortMismatch:   "port mismatch",
	Recursive:      "recursive instantiation",
	MissingOperand: "missing operand",
	UnknownOp:      "unknown operation",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Violation reports malformed or unverified input. Op holds the printed
// operation the violation was found in, when there is one.
type Violation struct {
	Kind   Kind
	Detail string
	Op     string
}

func (v *Violation) Error() string {
	if v.Op == "" {
		return fmt.Sprintf("structural violation (%s): %s", v.Kind, v.Detail)
	}
	return fmt.Sprintf("structural violation (%s): %s\n\tin: %s", v.Kind, v.Detail, v.Op)
}

// Violationf builds a violation without operation context.
func Violationf(kind Kind, format string, args ...any) *Violation {
	return &Violation{Kind: kind, Detail: fmt.Sprintf(format, args...)}
}

// InOp attaches printed operation context unless some is already present.
func (v *Violation) InOp(printed string) *Violation {
	if v.Op == "" {
		v.Op = printed
	}
	return v
}

// IsKind reports whether err wraps a violation of the given kind.
func IsKind(err error, kind Kind) bool {
	var v *Violation
	return errors.As(err, &v) && v.Kind == kind
}
