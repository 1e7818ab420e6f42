// Package diagram provides the UML class diagram data model for uml-go.
//
// It defines classes, their attributes (fields and methods with parameter
// lists) and the typed relationships between classes, together with the
// Store that enforces every structural invariant on mutation.
package diagram

import (
	"fmt"
	"strings"
)

// AttributeKind discriminates the Attribute variant.
type AttributeKind int

const (
	// FieldAttribute is a named, typed data member.
	FieldAttribute AttributeKind = iota
	// MethodAttribute is a named operation with a return type and parameters.
	MethodAttribute
)

// String returns the lowercase name of the kind.
func (k AttributeKind) String() string {
	switch k {
	case FieldAttribute:
		return "field"
	case MethodAttribute:
		return "method"
	default:
		return fmt.Sprintf("AttributeKind(%d)", int(k))
	}
}

// AttributeID is an opaque handle to one attribute inside a Store.
//
// Handles are needed because overloaded methods share a name. They are
// assigned by the Store and are not preserved across snapshots or codecs.
type AttributeID uint64

// Parameter is a name/type pair owned by a Method.
type Parameter struct {
	Name string
	Type string
}

// Attribute is a class member: either a Field or a Method.
type Attribute struct {
	// ID is the handle assigned by the owning Store. Zero until added.
	ID AttributeID

	// Kind selects the variant.
	Kind AttributeKind

	// Name is the member identifier.
	Name string

	// Type is the field type, or the return type for methods.
	Type string

	// Params is the ordered parameter list. Always empty for fields.
	Params []Parameter
}

// NewField creates a Field attribute.
func NewField(name, typ string) Attribute {
	return Attribute{Kind: FieldAttribute, Name: name, Type: typ}
}

// NewMethod creates a Method attribute with the given parameters.
func NewMethod(name, returnType string, params ...Parameter) Attribute {
	a := Attribute{Kind: MethodAttribute, Name: name, Type: returnType}
	if len(params) > 0 {
		a.Params = append([]Parameter(nil), params...)
	}
	return a
}

// IsMethod reports whether the attribute is a Method.
func (a Attribute) IsMethod() bool {
	return a.Kind == MethodAttribute
}

// Signature returns the ordered parameter types of a method.
func (a Attribute) Signature() []string {
	types := make([]string, len(a.Params))
	for i, p := range a.Params {
		types[i] = p.Type
	}
	return types
}

// String renders the attribute the way the text front end displays it.
func (a Attribute) String() string {
	switch a.Kind {
	case MethodAttribute:
		params := make([]string, len(a.Params))
		for i, p := range a.Params {
			params[i] = p.Type + " " + p.Name
		}
		return fmt.Sprintf("%s %s(%s)", a.Type, a.Name, strings.Join(params, ", "))
	default:
		return a.Type + " " + a.Name
	}
}

func (a Attribute) clone() Attribute {
	if a.Params != nil {
		a.Params = append([]Parameter(nil), a.Params...)
	}
	return a
}

func (a Attribute) paramIndex(name string) int {
	for i, p := range a.Params {
		if p.Name == name {
			return i
		}
	}
	return -1
}

// Position is the display location of a class. It carries no invariants.
type Position struct {
	X int
	Y int
}

// Class is a named class with an ordered list of attributes. Fields come
// before methods.
type Class struct {
	Name       string
	Attributes []Attribute
	Position   Position
}

// Fields returns the class's fields in insertion order.
func (c Class) Fields() []Attribute {
	return c.filter(FieldAttribute)
}

// Methods returns the class's methods in insertion order.
func (c Class) Methods() []Attribute {
	return c.filter(MethodAttribute)
}

// firstMethod returns the index of the first method, or len(Attributes)
// when the class has none.
func (c *Class) firstMethod() int {
	for i, a := range c.Attributes {
		if a.Kind == MethodAttribute {
			return i
		}
	}
	return len(c.Attributes)
}

func (c Class) filter(kind AttributeKind) []Attribute {
	var out []Attribute
	for _, a := range c.Attributes {
		if a.Kind == kind {
			out = append(out, a)
		}
	}
	return out
}

func (c *Class) clone() Class {
	out := Class{Name: c.Name, Position: c.Position}
	if len(c.Attributes) > 0 {
		out.Attributes = make([]Attribute, len(c.Attributes))
		for i, a := range c.Attributes {
			out.Attributes[i] = a.clone()
		}
	}
	return out
}

func (c *Class) attributeIndex(id AttributeID) int {
	for i, a := range c.Attributes {
		if a.ID == id {
			return i
		}
	}
	return -1
}

// IsValidName reports whether name satisfies the identifier rule: a
// non-empty string starting with an ASCII letter followed by ASCII
// letters, digits or underscores.
func IsValidName(name string) bool {
	if name == "" || !isLetter(name[0]) {
		return false
	}
	for i := 1; i < len(name); i++ {
		c := name[i]
		if !isLetter(c) && !isDigit(c) && c != '_' {
			return false
		}
	}
	return true
}

func isLetter(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}
