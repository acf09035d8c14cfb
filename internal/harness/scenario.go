package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Scenario defines one compilation check.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Definitions is the definition file or CUE package directory, relative
	// to the scenario file once loaded.
	Definitions string `yaml:"definitions"`

	// Query names the query in Definitions to compile.
	Query string `yaml:"query"`

	// Dialect selects the rendering checked by golden files: "datalog"
	// (default) or "mangle".
	Dialect string `yaml:"dialect,omitempty"`

	// Expect holds whole-program expectations.
	Expect *ExpectClause `yaml:"expect,omitempty"`

	// Assertions validate individual predicates.
	Assertions []Assertion `yaml:"assertions"`
}

// ExpectClause specifies whole-program expectations. Zero counts are not
// checked.
type ExpectClause struct {
	// Error is the translator error code the query must fail with.
	Error string `yaml:"error,omitempty"`

	Predicates int `yaml:"predicates,omitempty"`
	Rules      int `yaml:"rules,omitempty"`
}

// Assertion validates one property of the compiled program.
type Assertion struct {
	// Type is one of the Assert* constants.
	Type string `yaml:"type"`

	// Predicate is the predicate under test (all types but extensional
	// and deterministic).
	Predicate string `yaml:"predicate,omitempty"`

	// Rule is the exact rendered rule (rule_contains).
	Rule string `yaml:"rule,omitempty"`

	// Count is the expected number of rules (rule_count).
	Count int `yaml:"count,omitempty"`

	// Arity is the expected head width (arity).
	Arity int `yaml:"arity,omitempty"`

	// Names lists the expected input relations, sorted (extensional).
	Names []string `yaml:"names,omitempty"`
}

// Assertion type constants.
const (
	AssertRuleContains  = "rule_contains"
	AssertRuleCount     = "rule_count"
	AssertArity         = "arity"
	AssertRecursive     = "recursive"
	AssertExtensional   = "extensional"
	AssertDeterministic = "deterministic"
)

// LoadScenario reads and parses a scenario YAML file. The definitions
// path is resolved against the scenario file's directory.
// Returns an error if the file doesn't exist, is malformed, contains
// unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true) // Reject unknown fields
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if scenario.Definitions != "" && !filepath.IsAbs(scenario.Definitions) {
		scenario.Definitions = filepath.Join(filepath.Dir(path), scenario.Definitions)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}
	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Definitions == "" {
		return fmt.Errorf("definitions is required")
	}
	if _, err := os.Stat(s.Definitions); os.IsNotExist(err) {
		return fmt.Errorf("definitions not found: %s", s.Definitions)
	}
	if s.Query == "" {
		return fmt.Errorf("query is required")
	}
	switch s.Dialect {
	case "", DialectDatalog, DialectMangle:
	default:
		return fmt.Errorf("unknown dialect %q", s.Dialect)
	}

	expectsError := s.Expect != nil && s.Expect.Error != ""
	if !expectsError && len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required unless expect.error is set")
	}
	if expectsError && len(s.Assertions) > 0 {
		return fmt.Errorf("assertions cannot be checked when expect.error is set")
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(i, &assertion); err != nil {
			return err
		}
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(index int, a *Assertion) error {
	needPredicate := func() error {
		if a.Predicate == "" {
			return fmt.Errorf("assertions[%d]: predicate is required for %s", index, a.Type)
		}
		return nil
	}

	switch a.Type {
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	case AssertRuleContains:
		if a.Rule == "" {
			return fmt.Errorf("assertions[%d]: rule is required for rule_contains", index)
		}
		return needPredicate()
	case AssertRuleCount:
		if a.Count < 1 {
			return fmt.Errorf("assertions[%d]: count must be positive for rule_count", index)
		}
		return needPredicate()
	case AssertArity:
		if a.Arity < 0 {
			return fmt.Errorf("assertions[%d]: arity must be non-negative", index)
		}
		return needPredicate()
	case AssertRecursive:
		return needPredicate()
	case AssertExtensional, AssertDeterministic:
		return nil
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
}
