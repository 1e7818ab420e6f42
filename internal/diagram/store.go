package diagram

import "slices"

// Store is the aggregate root of a diagram: an ordered collection of
// classes plus the relationships between them.
//
// Every mutating method validates before it mutates; when an error is
// returned the Store is unchanged. Read accessors return deep copies so
// callers can never alias internal state across undo boundaries.
//
// A Store is owned by one editing session and is not safe for concurrent
// use.
type Store struct {
	classes       []*Class
	byName        map[string]*Class
	relationships []Relationship
	lastID        AttributeID
}

// NewStore creates an empty diagram.
func NewStore() *Store {
	return &Store{
		byName: make(map[string]*Class),
	}
}

// Stats returns a summary of diagram size.
func (s *Store) Stats() map[string]int {
	attrs := 0
	for _, c := range s.classes {
		attrs += len(c.Attributes)
	}
	return map[string]int{
		"classes":       len(s.classes),
		"attributes":    attrs,
		"relationships": len(s.relationships),
	}
}

// ClassCount returns the number of classes.
func (s *Store) ClassCount() int {
	return len(s.classes)
}

// HasClass reports whether a class with the given name exists.
func (s *Store) HasClass(name string) bool {
	_, ok := s.byName[name]
	return ok
}

// AddClass creates an empty class.
func (s *Store) AddClass(name string) error {
	const op = "add class"
	if s.HasClass(name) {
		return newError(KindDuplicateName, op, "class %q already exists", name)
	}
	if !IsValidName(name) {
		return newError(KindInvalidName, op, "class name %q is not valid", name)
	}
	s.insertClass(&Class{Name: name})
	return nil
}

// DeleteClass removes a class and every relationship that references it.
func (s *Store) DeleteClass(name string) error {
	if !s.HasClass(name) {
		return newError(KindNotFound, "delete class", "class %q not found", name)
	}

	s.relationships = slices.DeleteFunc(s.relationships, func(r Relationship) bool {
		return r.touches(name)
	})
	s.classes = slices.DeleteFunc(s.classes, func(c *Class) bool {
		return c.Name == name
	})
	delete(s.byName, name)
	return nil
}

// RenameClass changes a class name and re-keys the relationships that
// reference it.
func (s *Store) RenameClass(oldName, newName string) error {
	const op = "rename class"
	c, ok := s.byName[oldName]
	if !ok {
		return newError(KindNotFound, op, "class %q not found", oldName)
	}
	if s.HasClass(newName) {
		return newError(KindDuplicateName, op, "class %q already exists", newName)
	}
	if !IsValidName(newName) {
		return newError(KindInvalidName, op, "class name %q is not valid", newName)
	}

	for i := range s.relationships {
		if s.relationships[i].Source == oldName {
			s.relationships[i].Source = newName
		}
		if s.relationships[i].Destination == oldName {
			s.relationships[i].Destination = newName
		}
	}
	delete(s.byName, oldName)
	c.Name = newName
	s.byName[newName] = c
	return nil
}

// SetPosition records the display position of a class.
func (s *Store) SetPosition(name string, x, y int) error {
	c, ok := s.byName[name]
	if !ok {
		return newError(KindNotFound, "set position", "class %q not found", name)
	}
	c.Position = Position{X: x, Y: y}
	return nil
}

// Classes returns copies of all classes in insertion order.
func (s *Store) Classes() []Class {
	out := make([]Class, len(s.classes))
	for i, c := range s.classes {
		out[i] = c.clone()
	}
	return out
}

// Class returns a copy of the named class.
func (s *Store) Class(name string) (Class, error) {
	c, ok := s.byName[name]
	if !ok {
		return Class{}, newError(KindNotFound, "get class", "class %q not found", name)
	}
	return c.clone(), nil
}

// Equal reports whether two stores hold the same diagram: the same
// classes in the same order with the same attributes (ignoring handles)
// and the same relationship set.
func (s *Store) Equal(other *Store) bool {
	if len(s.classes) != len(other.classes) || len(s.relationships) != len(other.relationships) {
		return false
	}
	for i, c := range s.classes {
		if !classEqual(c, other.classes[i]) {
			return false
		}
	}
	for _, r := range s.relationships {
		if !slices.Contains(other.relationships, r) {
			return false
		}
	}
	return true
}

func classEqual(a, b *Class) bool {
	if a.Name != b.Name || a.Position != b.Position {
		return false
	}
	return attributesEqual(a.Attributes, b.Attributes)
}

func attributesEqual(a, b []Attribute) bool {
	return slices.EqualFunc(a, b, func(x, y Attribute) bool {
		return x.Kind == y.Kind && x.Name == y.Name && x.Type == y.Type && slices.Equal(x.Params, y.Params)
	})
}

func (s *Store) insertClass(c *Class) {
	s.classes = append(s.classes, c)
	s.byName[c.Name] = c
}

func (s *Store) nextID() AttributeID {
	s.lastID++
	return s.lastID
}
