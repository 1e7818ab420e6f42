package diagram

import "slices"

// AddField adds a field after the class's existing fields and returns its
// handle.
func (s *Store) AddField(className, name, typ string) (AttributeID, error) {
	return s.AddAttribute(className, NewField(name, typ))
}

// AddMethod appends a method to a class and returns its handle.
func (s *Store) AddMethod(className, name, returnType string, params ...Parameter) (AttributeID, error) {
	return s.AddAttribute(className, NewMethod(name, returnType, params...))
}

// AddAttribute adds attr to the class. Fields always precede methods, the
// same order the canonical document uses, and each kind keeps insertion
// order. Any ID already set on attr is ignored; the returned handle
// identifies the stored attribute.
func (s *Store) AddAttribute(className string, attr Attribute) (AttributeID, error) {
	const op = "add attribute"
	c, ok := s.byName[className]
	if !ok {
		return 0, newError(KindNotFound, op, "class %q not found", className)
	}
	if !IsValidName(attr.Name) {
		return 0, newError(KindInvalidName, op, "attribute name %q is not valid", attr.Name)
	}

	candidate := attr.clone()
	candidate.ID = 0
	switch candidate.Kind {
	case FieldAttribute:
		candidate.Params = nil
	case MethodAttribute:
		seen := make(map[string]bool, len(candidate.Params))
		for _, p := range candidate.Params {
			if !IsValidName(p.Name) {
				return 0, newError(KindInvalidName, op, "parameter name %q is not valid", p.Name)
			}
			if seen[p.Name] {
				return 0, newError(KindDuplicateName, op, "parameter %q is declared twice", p.Name)
			}
			seen[p.Name] = true
		}
	default:
		return 0, newError(KindInvalidType, op, "unknown attribute kind %s", candidate.Kind)
	}

	if Conflicts(c.Attributes, candidate) {
		return 0, newError(KindDuplicateAttribute, op, "%s %q conflicts with an existing attribute of class %q",
			candidate.Kind, candidate.Name, className)
	}

	candidate.ID = s.nextID()
	at := len(c.Attributes)
	if candidate.Kind == FieldAttribute {
		at = c.firstMethod()
	}
	c.Attributes = slices.Insert(c.Attributes, at, candidate)
	return candidate.ID, nil
}

// RemoveAttribute deletes the attribute identified by id from the class.
func (s *Store) RemoveAttribute(className string, id AttributeID) error {
	const op = "remove attribute"
	c, idx, err := s.ownedAttribute(op, className, id)
	if err != nil {
		return err
	}
	c.Attributes = append(c.Attributes[:idx], c.Attributes[idx+1:]...)
	return nil
}

// RenameAttribute renames the attribute, re-running the overload check as
// if newName replaced the old name.
func (s *Store) RenameAttribute(className string, id AttributeID, newName string) error {
	const op = "rename attribute"
	c, idx, err := s.ownedAttribute(op, className, id)
	if err != nil {
		return err
	}
	if !IsValidName(newName) {
		return newError(KindInvalidName, op, "attribute name %q is not valid", newName)
	}

	candidate := c.Attributes[idx].clone()
	candidate.Name = newName
	if Conflicts(c.Attributes, candidate) {
		return newError(KindDuplicateAttribute, op, "%s %q conflicts with an existing attribute of class %q",
			candidate.Kind, newName, className)
	}
	c.Attributes[idx].Name = newName
	return nil
}

// ChangeAttributeType sets the field type or method return type. The type
// is not part of any uniqueness key, so only the handle is checked.
func (s *Store) ChangeAttributeType(id AttributeID, newType string) error {
	c, idx := s.findAttribute(id)
	if c == nil {
		return newError(KindAttributeNotFound, "change attribute type", "attribute %d not found", id)
	}
	c.Attributes[idx].Type = newType
	return nil
}

// Attribute returns a copy of the attribute identified by id.
func (s *Store) Attribute(id AttributeID) (Attribute, error) {
	c, idx := s.findAttribute(id)
	if c == nil {
		return Attribute{}, newError(KindAttributeNotFound, "get attribute", "attribute %d not found", id)
	}
	return c.Attributes[idx].clone(), nil
}

// AttributeAt returns a copy of the attribute at the 0-based position in
// the class's attribute list. Front ends that address attributes by index
// use the returned ID for subsequent operations.
func (s *Store) AttributeAt(className string, index int) (Attribute, error) {
	const op = "get attribute"
	c, ok := s.byName[className]
	if !ok {
		return Attribute{}, newError(KindNotFound, op, "class %q not found", className)
	}
	if index < 0 || index >= len(c.Attributes) {
		return Attribute{}, newError(KindAttributeNotFound, op, "class %q has no attribute at index %d", className, index)
	}
	return c.Attributes[index].clone(), nil
}

// AddParameter appends a parameter to a method.
func (s *Store) AddParameter(methodID AttributeID, name, typ string) error {
	const op = "add parameter"
	c, idx, err := s.method(op, methodID)
	if err != nil {
		return err
	}
	if !IsValidName(name) {
		return newError(KindInvalidName, op, "parameter name %q is not valid", name)
	}
	m := c.Attributes[idx]
	if m.paramIndex(name) >= 0 {
		return newError(KindDuplicateName, op, "parameter %q already exists on method %q", name, m.Name)
	}

	candidate := m.clone()
	candidate.Params = append(candidate.Params, Parameter{Name: name, Type: typ})
	if err := s.checkOverload(op, c, candidate); err != nil {
		return err
	}
	c.Attributes[idx] = candidate
	return nil
}

// DeleteParameter removes a parameter from a method.
func (s *Store) DeleteParameter(methodID AttributeID, name string) error {
	const op = "delete parameter"
	c, idx, err := s.method(op, methodID)
	if err != nil {
		return err
	}
	m := c.Attributes[idx]
	pi := m.paramIndex(name)
	if pi < 0 {
		return newError(KindNotFound, op, "parameter %q not found on method %q", name, m.Name)
	}

	candidate := m.clone()
	candidate.Params = append(candidate.Params[:pi], candidate.Params[pi+1:]...)
	if err := s.checkOverload(op, c, candidate); err != nil {
		return err
	}
	c.Attributes[idx] = candidate
	return nil
}

// RenameParameter renames a parameter. Parameter names do not take part in
// overload resolution, so only uniqueness within the method is checked.
func (s *Store) RenameParameter(methodID AttributeID, oldName, newName string) error {
	const op = "rename parameter"
	c, idx, err := s.method(op, methodID)
	if err != nil {
		return err
	}
	m := &c.Attributes[idx]
	pi := m.paramIndex(oldName)
	if pi < 0 {
		return newError(KindNotFound, op, "parameter %q not found on method %q", oldName, m.Name)
	}
	if !IsValidName(newName) {
		return newError(KindInvalidName, op, "parameter name %q is not valid", newName)
	}
	if m.paramIndex(newName) >= 0 {
		return newError(KindDuplicateName, op, "parameter %q already exists on method %q", newName, m.Name)
	}
	m.Params[pi].Name = newName
	return nil
}

// ChangeParameterType sets a parameter's type, rejecting the change when
// it would make the method identical to another overload.
func (s *Store) ChangeParameterType(methodID AttributeID, name, newType string) error {
	const op = "change parameter type"
	c, idx, err := s.method(op, methodID)
	if err != nil {
		return err
	}
	m := c.Attributes[idx]
	pi := m.paramIndex(name)
	if pi < 0 {
		return newError(KindNotFound, op, "parameter %q not found on method %q", name, m.Name)
	}

	candidate := m.clone()
	candidate.Params[pi].Type = newType
	if err := s.checkOverload(op, c, candidate); err != nil {
		return err
	}
	c.Attributes[idx] = candidate
	return nil
}

func (s *Store) checkOverload(op string, c *Class, candidate Attribute) error {
	if Conflicts(c.Attributes, candidate) {
		return newError(KindDuplicateAttribute, op, "method %q would duplicate an existing overload in class %q",
			candidate.Name, c.Name)
	}
	return nil
}

// ownedAttribute resolves a handle that must belong to className.
func (s *Store) ownedAttribute(op, className string, id AttributeID) (*Class, int, error) {
	c, ok := s.byName[className]
	if !ok {
		return nil, -1, newError(KindNotFound, op, "class %q not found", className)
	}
	idx := c.attributeIndex(id)
	if idx < 0 {
		return nil, -1, newError(KindAttributeNotFound, op, "attribute %d is not owned by class %q", id, className)
	}
	return c, idx, nil
}

// method resolves a handle that must name a Method.
func (s *Store) method(op string, id AttributeID) (*Class, int, error) {
	c, idx := s.findAttribute(id)
	if c == nil {
		return nil, -1, newError(KindAttributeNotFound, op, "attribute %d not found", id)
	}
	if !c.Attributes[idx].IsMethod() {
		return nil, -1, newError(KindAttributeNotFound, op, "attribute %q is not a method", c.Attributes[idx].Name)
	}
	return c, idx, nil
}

func (s *Store) findAttribute(id AttributeID) (*Class, int) {
	if id == 0 {
		return nil, -1
	}
	for _, c := range s.classes {
		if idx := c.attributeIndex(id); idx >= 0 {
			return c, idx
		}
	}
	return nil, -1
}
