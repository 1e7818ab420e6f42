package diagram

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Document is the canonical serialized shape of a diagram. It is used both
// for persistence and for history snapshots.
type Document struct {
	Classes       []ClassDocument        `json:"classes" yaml:"classes"`
	Relationships []RelationshipDocument `json:"relationships" yaml:"relationships"`
}

// ClassDocument is one entry of Document.Classes.
type ClassDocument struct {
	Name      string           `json:"name" yaml:"name"`
	PositionX int              `json:"position_x" yaml:"position_x"`
	PositionY int              `json:"position_y" yaml:"position_y"`
	Fields    []FieldDocument  `json:"fields" yaml:"fields"`
	Methods   []MethodDocument `json:"methods" yaml:"methods"`
}

// FieldDocument is a serialized field.
type FieldDocument struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// MethodDocument is a serialized method.
type MethodDocument struct {
	Name       string              `json:"name" yaml:"name"`
	ReturnType string              `json:"return_type" yaml:"return_type"`
	Params     []ParameterDocument `json:"params" yaml:"params"`
}

// ParameterDocument is a serialized method parameter.
type ParameterDocument struct {
	Name string `json:"name" yaml:"name"`
	Type string `json:"type" yaml:"type"`
}

// RelationshipDocument is a serialized relationship. Type holds the
// lowercase name ("aggregation", "composition", ...).
type RelationshipDocument struct {
	Source      string `json:"source" yaml:"source"`
	Destination string `json:"destination" yaml:"destination"`
	Type        string `json:"type" yaml:"type"`
}

// Document returns the canonical form of the diagram. Array order follows
// insertion order; fields and methods are listed separately.
func (s *Store) Document() Document {
	doc := Document{
		Classes:       make([]ClassDocument, 0, len(s.classes)),
		Relationships: make([]RelationshipDocument, 0, len(s.relationships)),
	}

	for _, c := range s.classes {
		cd := ClassDocument{
			Name:      c.Name,
			PositionX: c.Position.X,
			PositionY: c.Position.Y,
			Fields:    make([]FieldDocument, 0),
			Methods:   make([]MethodDocument, 0),
		}
		for _, a := range c.Attributes {
			switch a.Kind {
			case FieldAttribute:
				cd.Fields = append(cd.Fields, FieldDocument{Name: a.Name, Type: a.Type})
			case MethodAttribute:
				md := MethodDocument{
					Name:       a.Name,
					ReturnType: a.Type,
					Params:     make([]ParameterDocument, 0, len(a.Params)),
				}
				for _, p := range a.Params {
					md.Params = append(md.Params, ParameterDocument{Name: p.Name, Type: p.Type})
				}
				cd.Methods = append(cd.Methods, md)
			}
		}
		doc.Classes = append(doc.Classes, cd)
	}

	for _, r := range s.relationships {
		doc.Relationships = append(doc.Relationships, RelationshipDocument{
			Source:      r.Source,
			Destination: r.Destination,
			Type:        r.Type.String(),
		})
	}
	return doc
}

// FromDocument builds a Store by replaying every element of doc through
// the validated Store operations. A document that breaks any invariant is
// rejected.
func FromDocument(doc Document) (*Store, error) {
	return fromDocument(doc, 0)
}

func fromDocument(doc Document, firstID AttributeID) (*Store, error) {
	s := NewStore()
	s.lastID = firstID

	for _, cd := range doc.Classes {
		if err := s.AddClass(cd.Name); err != nil {
			return nil, err
		}
		if err := s.SetPosition(cd.Name, cd.PositionX, cd.PositionY); err != nil {
			return nil, err
		}
		for _, fd := range cd.Fields {
			if _, err := s.AddField(cd.Name, fd.Name, fd.Type); err != nil {
				return nil, fmt.Errorf("class %q: %w", cd.Name, err)
			}
		}
		for _, md := range cd.Methods {
			params := make([]Parameter, len(md.Params))
			for i, p := range md.Params {
				params[i] = Parameter{Name: p.Name, Type: p.Type}
			}
			if _, err := s.AddMethod(cd.Name, md.Name, md.ReturnType, params...); err != nil {
				return nil, fmt.Errorf("class %q: %w", cd.Name, err)
			}
		}
	}

	for _, rd := range doc.Relationships {
		typ, ok := relationshipTypeByName(rd.Type)
		if !ok {
			return nil, newError(KindInvalidType, "add relationship", "unknown relationship type %q for %s -> %s",
				rd.Type, rd.Source, rd.Destination)
		}
		if err := s.AddRelationship(rd.Source, rd.Destination, typ); err != nil {
			return nil, err
		}
	}
	return s, nil
}

func relationshipTypeByName(name string) (RelationshipType, bool) {
	for i, n := range relationshipTypeNames {
		if n == name {
			return RelationshipType(i), true
		}
	}
	return 0, false
}

// Snapshot is an immutable capture of a Store's complete state in its
// canonical JSON form.
type Snapshot struct {
	data []byte
}

// Snapshot captures the current state.
func (s *Store) Snapshot() (Snapshot, error) {
	data, err := json.Marshal(s.Document())
	if err != nil {
		return Snapshot{}, fmt.Errorf("marshaling snapshot: %w", err)
	}
	return Snapshot{data: data}, nil
}

// Restore replaces the Store's state with the snapshot. Attribute handles
// issued before the restore are invalidated; new handles never reuse old
// values.
func (s *Store) Restore(snap Snapshot) error {
	if snap.IsZero() {
		return fmt.Errorf("restoring snapshot: empty snapshot")
	}
	var doc Document
	if err := json.Unmarshal(snap.data, &doc); err != nil {
		return fmt.Errorf("unmarshaling snapshot: %w", err)
	}
	restored, err := fromDocument(doc, s.lastID)
	if err != nil {
		return fmt.Errorf("restoring snapshot: %w", err)
	}
	*s = *restored
	return nil
}

// IsZero reports whether the snapshot holds no state.
func (sn Snapshot) IsZero() bool {
	return len(sn.data) == 0
}

// Equal reports whether two snapshots capture the same state.
func (sn Snapshot) Equal(other Snapshot) bool {
	return bytes.Equal(sn.data, other.data)
}

// Bytes returns a copy of the snapshot's canonical JSON.
func (sn Snapshot) Bytes() []byte {
	return bytes.Clone(sn.data)
}

// Len returns the size of the snapshot in bytes.
func (sn Snapshot) Len() int {
	return len(sn.data)
}
