package metadata

import (
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// yamlFile is the on-disk YAML layout:
//
//	entities:
//	  - name: User
//	    table: users          # optional
//	    primary_key: Id       # optional
//	    properties:
//	      - Id                # shorthand for {name: Id}
//	      - name: IsActive
//	        column: active
//	functions:
//	  - name: LEN
//	    dialects: {sqlserver: LEN, postgres: LENGTH}
type yamlFile struct {
	Entities  []Entity      `yaml:"entities"`
	Functions []FunctionDef `yaml:"functions"`
}

// UnmarshalYAML accepts either a bare property name or a mapping.
func (p *Property) UnmarshalYAML(node *yaml.Node) error {
	if node.Kind == yaml.ScalarNode {
		p.Name = node.Value
		p.Column = ""
		return nil
	}
	type plain Property
	var v plain
	if err := node.Decode(&v); err != nil {
		return err
	}
	*p = Property(v)
	return nil
}

// LoadYAML reads and builds a schema from a YAML file.
func LoadYAML(path string) (*Schema, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, &LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("schema not found: %s", path)}
		}
		return nil, &LoadError{Code: ErrCodeLoadGeneric, Message: err.Error(), File: path}
	}
	s, err := ParseYAML(data)
	if err != nil {
		var le *LoadError
		if errors.As(err, &le) && le.File == "" {
			le.File = path
		}
		return nil, err
	}
	return s, nil
}

// ParseYAML builds a schema from YAML bytes.
func ParseYAML(data []byte) (*Schema, error) {
	var f yamlFile
	if err := yaml.Unmarshal(data, &f); err != nil {
		return nil, &LoadError{Code: ErrCodeDecodeFailed, Message: err.Error()}
	}
	if len(f.Entities) == 0 {
		return nil, &LoadError{Code: ErrCodeNoFiles, Message: "no entities declared"}
	}
	return build(f.Entities, f.Functions)
}
