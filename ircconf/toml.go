package ircconf

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// LoadTOML decodes a TOML document into a root Section. Top-level tables
// become named child sections (nested tables become grandchildren, and so
// on); top-level scalar keys live directly on the returned root.
func LoadTOML(path string) (*Section, error) {
	var doc map[string]interface{}
	if _, err := toml.DecodeFile(path, &doc); err != nil {
		return nil, fmt.Errorf("ircconf: decode %s: %w", path, err)
	}

	root := NewSection("")
	populate(root, doc)
	return root, nil
}

func populate(s *Section, doc map[string]interface{}) {
	for key, val := range doc {
		switch v := val.(type) {
		case map[string]interface{}:
			populate(s.ChildOrCreate(key), v)
		default:
			s.Set(key, toString(v))
		}
	}
}

func toString(v interface{}) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		if t {
			return "true"
		}
		return "false"
	default:
		return fmt.Sprintf("%v", t)
	}
}
