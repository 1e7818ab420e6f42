package diagram

import "slices"

// AddRelationship creates a typed edge from source to destination.
func (s *Store) AddRelationship(source, destination string, typ RelationshipType) error {
	const op = "add relationship"
	if !typ.Valid() {
		return newError(KindInvalidType, op, "relationship type %d is out of range", int(typ))
	}
	if err := s.requireClasses(op, source, destination); err != nil {
		return err
	}
	if s.relationshipIndex(source, destination) >= 0 {
		return newError(KindDuplicateRelationship, op, "relationship %s -> %s already exists", source, destination)
	}
	if err := s.checkRelationshipRules(op, source, destination, typ); err != nil {
		return err
	}

	s.relationships = append(s.relationships, Relationship{
		Source:      source,
		Destination: destination,
		Type:        typ,
	})
	return nil
}

// DeleteRelationship removes the edge from source to destination.
func (s *Store) DeleteRelationship(source, destination string) error {
	const op = "delete relationship"
	if err := s.requireClasses(op, source, destination); err != nil {
		return err
	}
	idx := s.relationshipIndex(source, destination)
	if idx < 0 {
		return newError(KindNotFound, op, "relationship %s -> %s not found", source, destination)
	}
	s.relationships = slices.Delete(s.relationships, idx, idx+1)
	return nil
}

// ChangeRelationshipType changes the type of an existing edge, enforcing
// the same self and composition rules as AddRelationship.
func (s *Store) ChangeRelationshipType(source, destination string, newType RelationshipType) error {
	const op = "change relationship type"
	if err := s.requireClasses(op, source, destination); err != nil {
		return err
	}
	idx := s.relationshipIndex(source, destination)
	if idx < 0 {
		return newError(KindNotFound, op, "relationship %s -> %s not found", source, destination)
	}
	if !newType.Valid() {
		return newError(KindInvalidType, op, "relationship type %d is out of range", int(newType))
	}
	if err := s.checkRelationshipRules(op, source, destination, newType); err != nil {
		return err
	}
	s.relationships[idx].Type = newType
	return nil
}

// Relationships returns a copy of every relationship in insertion order.
func (s *Store) Relationships() []Relationship {
	return slices.Clone(s.relationships)
}

// RelationshipsByClass returns the relationships that have the class as
// source or destination.
func (s *Store) RelationshipsByClass(name string) ([]Relationship, error) {
	if !s.HasClass(name) {
		return nil, newError(KindNotFound, "get relationships", "class %q not found", name)
	}
	var out []Relationship
	for _, r := range s.relationships {
		if r.touches(name) {
			out = append(out, r)
		}
	}
	return out, nil
}

// Relationship returns the edge from source to destination.
func (s *Store) Relationship(source, destination string) (Relationship, error) {
	const op = "get relationship"
	if err := s.requireClasses(op, source, destination); err != nil {
		return Relationship{}, err
	}
	idx := s.relationshipIndex(source, destination)
	if idx < 0 {
		return Relationship{}, newError(KindNotFound, op, "relationship %s -> %s not found", source, destination)
	}
	return s.relationships[idx], nil
}

// RelationshipType returns the type of the edge from source to destination.
func (s *Store) RelationshipType(source, destination string) (RelationshipType, error) {
	r, err := s.Relationship(source, destination)
	if err != nil {
		return 0, err
	}
	return r.Type, nil
}

// HasRelationship reports whether an edge from source to destination exists.
func (s *Store) HasRelationship(source, destination string) bool {
	return s.relationshipIndex(source, destination) >= 0
}

func (s *Store) checkRelationshipRules(op, source, destination string, typ RelationshipType) error {
	if typ.forbidsSelf() && source == destination {
		return newError(KindSelfRelationshipForbidden, op, "class %q cannot have a %s to itself", source, typ)
	}
	if typ == Composition {
		for _, r := range s.relationships {
			if r.Type != Composition || r.Destination != destination {
				continue
			}
			// A type change may re-assert the composition it already is.
			if r.Source == source {
				continue
			}
			return newError(KindCompositionConflict, op, "class %q is already the destination of a composition from %q",
				destination, r.Source)
		}
	}
	return nil
}

func (s *Store) requireClasses(op string, names ...string) error {
	for _, n := range names {
		if !s.HasClass(n) {
			return newError(KindNotFound, op, "class %q not found", n)
		}
	}
	return nil
}

func (s *Store) relationshipIndex(source, destination string) int {
	for i, r := range s.relationships {
		if r.Source == source && r.Destination == destination {
			return i
		}
	}
	return -1
}
