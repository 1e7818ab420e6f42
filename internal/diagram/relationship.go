package diagram

import (
	"fmt"
	"strconv"
	"strings"
)

// RelationshipType is the kind of a directed edge between two classes.
// The integer codes 0-3 are the values accepted at the boundary.
type RelationshipType int

const (
	// Aggregation is a weak "has-a" relationship.
	Aggregation RelationshipType = iota
	// Composition is a strong "has-a" relationship. A class may be the
	// destination of at most one composition.
	Composition
	// Generalization is inheritance. Self-relationships are forbidden.
	Generalization
	// Realization is interface implementation. Self-relationships are forbidden.
	Realization
)

var relationshipTypeNames = [...]string{
	Aggregation:    "aggregation",
	Composition:    "composition",
	Generalization: "generalization",
	Realization:    "realization",
}

// Valid reports whether t is one of the four known relationship types.
func (t RelationshipType) Valid() bool {
	return t >= Aggregation && t <= Realization
}

// String returns the canonical lowercase name, or "none" for invalid values.
func (t RelationshipType) String() string {
	if !t.Valid() {
		return "none"
	}
	return relationshipTypeNames[t]
}

// forbidsSelf reports whether source == destination is disallowed.
func (t RelationshipType) forbidsSelf() bool {
	return t == Generalization || t == Realization
}

// ParseRelationshipType converts a canonical name (case-insensitive) or an
// integer code into a RelationshipType.
func ParseRelationshipType(s string) (RelationshipType, error) {
	s = strings.TrimSpace(s)
	for i, name := range relationshipTypeNames {
		if strings.EqualFold(s, name) {
			return RelationshipType(i), nil
		}
	}
	if code, err := strconv.Atoi(s); err == nil {
		if t := RelationshipType(code); t.Valid() {
			return t, nil
		}
	}
	return 0, newError(KindInvalidType, "parse relationship type", "unknown relationship type %q", s)
}

// Relationship is a typed, directed edge between two classes. The
// endpoints are class-name keys resolved through the Store.
type Relationship struct {
	Source      string
	Destination string
	Type        RelationshipType
}

// String renders the relationship as "src -> dst (type)".
func (r Relationship) String() string {
	return fmt.Sprintf("%s -> %s (%s)", r.Source, r.Destination, r.Type)
}

// touches reports whether the relationship references the class.
func (r Relationship) touches(class string) bool {
	return r.Source == class || r.Destination == class
}
