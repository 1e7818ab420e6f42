package codec

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/Benny93/uml-go/internal/diagram"
)

// JSONCodec handles the canonical JSON document.
type JSONCodec struct{}

// NewJSONCodec creates a new JSON codec
func NewJSONCodec() *JSONCodec {
	return &JSONCodec{}
}

// Format returns the codec format identifier
func (c *JSONCodec) Format() string {
	return "json"
}

// Parse decodes and validates a diagram.
func (c *JSONCodec) Parse(r io.Reader) (*diagram.Store, error) {
	var doc diagram.Document
	if err := json.NewDecoder(r).Decode(&doc); err != nil {
		return nil, fmt.Errorf("failed to parse JSON: %w", err)
	}
	return diagram.FromDocument(doc)
}

// Export writes the diagram as indented JSON.
func (c *JSONCodec) Export(s *diagram.Store, w io.Writer) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")

	if err := encoder.Encode(s.Document()); err != nil {
		return fmt.Errorf("failed to encode JSON: %w", err)
	}
	return nil
}
