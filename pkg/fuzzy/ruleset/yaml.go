package ruleset

import (
	"gopkg.in/yaml.v3"
)

// yamlRuleSet is the intermediate structure decoded from YAML before the
// engine is built.
type yamlRuleSet struct {
	Name        string         `yaml:"name"`
	Version     string         `yaml:"version"`
	Description string         `yaml:"description"`
	Inputs      []yamlVariable `yaml:"inputs"`
	Output      *yamlVariable  `yaml:"output"`
	Rules       []yamlRule     `yaml:"rules"`
}

type yamlUniverse struct {
	Min  *float64 `yaml:"min"`
	Max  *float64 `yaml:"max"`
	Step *float64 `yaml:"step"`
}

type yamlVariable struct {
	Name     string        `yaml:"name"`
	Universe *yamlUniverse `yaml:"universe"`
	Terms    []yamlTerm    `yaml:"terms"`

	line int
}

// UnmarshalYAML records the source line.
func (v *yamlVariable) UnmarshalYAML(node *yaml.Node) error {
	type plain yamlVariable
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = yamlVariable(p)
	v.line = node.Line
	return nil
}

type yamlTerm struct {
	Name   string    `yaml:"name"`
	Shape  string    `yaml:"shape"`
	Points []float64 `yaml:"points"`

	line int
}

// UnmarshalYAML records the source line.
func (t *yamlTerm) UnmarshalYAML(node *yaml.Node) error {
	type plain yamlTerm
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*t = yamlTerm(p)
	t.line = node.Line
	return nil
}

type yamlRule struct {
	Name string      `yaml:"name"`
	When interface{} `yaml:"when"`
	Then string      `yaml:"then"`

	line int
}

// UnmarshalYAML records the source line.
func (r *yamlRule) UnmarshalYAML(node *yaml.Node) error {
	type plain yamlRule
	var p plain
	if err := node.Decode(&p); err != nil {
		return err
	}
	*r = yamlRule(p)
	r.line = node.Line
	return nil
}

// decode parses YAML bytes into the intermediate structure.
func decode(data []byte) (*yamlRuleSet, error) {
	var rs yamlRuleSet
	if err := yaml.Unmarshal(data, &rs); err != nil {
		return nil, err
	}
	return &rs, nil
}
