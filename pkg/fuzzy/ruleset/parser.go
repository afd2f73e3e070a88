package ruleset

import (
	"crypto/sha256"
	_ "embed"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"

	"mercator-hq/perfscore/pkg/fuzzy"
)

//go:embed performance.yaml
var defaultRuleSet []byte

// DefaultSource is the source name reported for the embedded rule set.
const DefaultSource = "embedded:performance.yaml"

// RuleSet is a parsed rule set with its ready-to-use engine.
type RuleSet struct {
	Name        string
	Version     string
	Description string

	// Source is the file path (or DefaultSource).
	Source string

	// Checksum is the hex SHA-256 of the source bytes.
	Checksum string

	Engine *fuzzy.Engine
}

// Option configures parsing.
type Option func(*options)

type options struct {
	logger *slog.Logger
}

// WithLogger sets the logger handed to the engine for construction warnings.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Default returns the embedded operator-performance rule set.
func Default(opts ...Option) (*RuleSet, error) {
	return ParseBytes(defaultRuleSet, DefaultSource, opts...)
}

// DefaultYAML returns a copy of the embedded rule-set source.
func DefaultYAML() []byte {
	out := make([]byte, len(defaultRuleSet))
	copy(out, defaultRuleSet)
	return out
}

// Parse reads and builds a rule set from a YAML file.
func Parse(path string, opts ...Option) (*RuleSet, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ParseError{Type: ErrorTypeIO, Message: "cannot read rule set", File: path, Err: err}
	}
	return ParseBytes(data, path, opts...)
}

// ParseBytes builds a rule set from YAML bytes. source is used in errors.
func ParseBytes(data []byte, source string, opts ...Option) (*RuleSet, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}

	yrs, err := decode(data)
	if err != nil {
		return nil, &ParseError{Type: ErrorTypeSyntax, Message: "invalid YAML", File: source, Err: err}
	}

	b := newBuilder(source)
	if yrs.Name == "" {
		b.addError(1, nil, "rule set name is required")
	}
	if len(yrs.Inputs) == 0 {
		b.addError(1, nil, "at least one input variable is required")
	}
	if yrs.Output == nil {
		b.addError(1, nil, "output variable is required")
	}
	if len(yrs.Rules) == 0 {
		b.addError(1, nil, "at least one rule is required")
	}

	var cfgErrs fuzzy.ErrorList

	inputs := make([]*fuzzy.Variable, 0, len(yrs.Inputs))
	for i := range yrs.Inputs {
		v, err := b.buildVariable(&yrs.Inputs[i], "input")
		cfgErrs.Merge(err)
		if v != nil {
			inputs = append(inputs, v)
		}
	}

	var output *fuzzy.Variable
	if yrs.Output != nil {
		output, err = b.buildVariable(yrs.Output, "output")
		cfgErrs.Merge(err)
	}

	rules := make([]fuzzy.Rule, 0, len(yrs.Rules))
	for i := range yrs.Rules {
		if r, ok := b.buildRule(&yrs.Rules[i], i); ok {
			rules = append(rules, r)
		}
	}

	if len(b.errors) > 0 {
		return nil, b.errors
	}
	if err := cfgErrs.ToError(); err != nil {
		return nil, fmt.Errorf("rule set %s: %w", source, err)
	}

	var engineOpts []fuzzy.Option
	if o.logger != nil {
		engineOpts = append(engineOpts, fuzzy.WithLogger(o.logger.With("ruleset", yrs.Name)))
	}
	engine, err := fuzzy.New(inputs, output, rules, engineOpts...)
	if err != nil {
		return nil, fmt.Errorf("rule set %s: %w", source, err)
	}

	sum := sha256.Sum256(data)
	return &RuleSet{
		Name:        yrs.Name,
		Version:     yrs.Version,
		Description: yrs.Description,
		Source:      source,
		Checksum:    hex.EncodeToString(sum[:]),
		Engine:      engine,
	}, nil
}
