package types

import (
	"bytes"
	"encoding/json"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Categories maps a category label to its summary while remembering the
// order in which labels were first added. It encodes to a JSON object (and a
// YAML mapping) whose keys appear in that order, and decoding keeps the
// document's key order.
//
// The zero value is an empty, usable mapping.
type Categories struct {
	keys  []string
	items map[string]*Category
}

// NewCategories creates an empty ordered category mapping.
func NewCategories() Categories {
	return Categories{items: make(map[string]*Category)}
}

// Len returns the number of category labels.
func (c *Categories) Len() int {
	return len(c.keys)
}

// Keys returns the category labels in insertion order.
func (c *Categories) Keys() []string {
	keys := make([]string, len(c.keys))
	copy(keys, c.keys)
	return keys
}

// Get returns a copy of the summary stored under label.
func (c *Categories) Get(label string) (Category, bool) {
	cat, ok := c.items[label]
	if !ok {
		return Category{}, false
	}
	return cloneCategory(cat), true
}

// Set stores the summary under label. A new label is appended to the key
// order; an existing label keeps its position.
func (c *Categories) Set(label string, cat Category) {
	if c.items == nil {
		c.items = make(map[string]*Category)
	}
	if _, exists := c.items[label]; !exists {
		c.keys = append(c.keys, label)
	}
	stored := cloneCategory(&cat)
	c.items[label] = &stored
}

// Each calls fn for every category in insertion order until fn returns false.
func (c *Categories) Each(fn func(label string, cat Category) bool) {
	for _, key := range c.keys {
		if !fn(key, cloneCategory(c.items[key])) {
			return
		}
	}
}

// Map returns the categories as a plain map. Iteration order of the result
// is unspecified; use Keys or Each when order matters.
func (c *Categories) Map() map[string]Category {
	out := make(map[string]Category, len(c.keys))
	for _, key := range c.keys {
		out[key] = cloneCategory(c.items[key])
	}
	return out
}

// Clone returns a deep copy.
func (c Categories) Clone() Categories {
	out := NewCategories()
	for _, key := range c.keys {
		out.Set(key, *c.items[key])
	}
	return out
}

// MarshalJSON implements json.Marshaler, writing keys in insertion order.
func (c Categories) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, key := range c.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(key)
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(c.items[key])
		if err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping the document's key order.
func (c *Categories) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*c = NewCategories()
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("categories: expected object, got %v", tok)
	}

	out := NewCategories()
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("categories: expected string key, got %v", tok)
		}
		var cat Category
		if err := dec.Decode(&cat); err != nil {
			return fmt.Errorf("category %q: %w", key, err)
		}
		out.Set(key, cat)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}

	*c = out
	return nil
}

// MarshalYAML implements yaml.Marshaler, emitting an ordered mapping.
func (c Categories) MarshalYAML() (interface{}, error) {
	node := &yaml.Node{Kind: yaml.MappingNode}
	for _, key := range c.keys {
		var value yaml.Node
		if err := value.Encode(c.items[key]); err != nil {
			return nil, fmt.Errorf("category %q: %w", key, err)
		}
		node.Content = append(node.Content,
			&yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: key},
			&value,
		)
	}
	return node, nil
}

func cloneCategory(cat *Category) Category {
	out := *cat
	if cat.Templates != nil {
		out.Templates = make([]string, len(cat.Templates))
		copy(out.Templates, cat.Templates)
	}
	return out
}
