package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/marqant/internal/format"
)

// Scenario is one codec test case.
type Scenario struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Kind        string      `yaml:"kind"`
	Input       string      `yaml:"input"`
	Flags       string      `yaml:"flags,omitempty"`
	Dictionary  string      `yaml:"dictionary,omitempty"`
	Timestamp   int64       `yaml:"timestamp,omitempty"`
	Assertions  []Assertion `yaml:"assertions"`
}

// Assertion is a single check against a scenario's result.
type Assertion struct {
	Type   string   `yaml:"type"`
	Value  string   `yaml:"value,omitempty"`
	Field  string   `yaml:"field,omitempty"`
	Expect string   `yaml:"expect,omitempty"`
	Titles []string `yaml:"titles,omitempty"`
}

// Scenario kinds.
const (
	KindMQ2    = "mq2"
	KindNative = "native"
	KindDemo   = "demo"
)

// Dictionary selectors for mq2 scenarios.
const (
	DictionaryDemo    = "demo"
	DictionaryDerived = "derived"
)

// Assertion types.
const (
	AssertRoundTrip   = "round_trip"
	AssertContains    = "contains"
	AssertNotContains = "not_contains"
	AssertMetadata    = "metadata"
	AssertSmaller     = "smaller"
	AssertSections    = "sections"
)

// LoadScenario reads and parses a scenario YAML file.
// Unknown fields are rejected so typos fail loudly.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses and validates scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}
	return &scenario, nil
}

func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	switch s.Kind {
	case KindNative:
		if _, err := format.ParseFlags(s.Flags); err != nil {
			return fmt.Errorf("flags: %w", err)
		}
	case KindMQ2, KindDemo:
		if s.Flags != "" {
			return fmt.Errorf("flags only apply to kind %q", KindNative)
		}
	default:
		return fmt.Errorf("kind must be one of %q, %q, %q; got %q", KindMQ2, KindNative, KindDemo, s.Kind)
	}
	if s.Dictionary != "" && s.Kind != KindMQ2 {
		return fmt.Errorf("dictionary only applies to kind %q", KindMQ2)
	}

	for i, a := range s.Assertions {
		if err := validateAssertion(i, s.Kind, &a); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, kind string, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertRoundTrip, AssertSmaller:
	case AssertContains, AssertNotContains:
		if a.Value == "" {
			return fmt.Errorf("assertions[%d]: value is required for %s", index, a.Type)
		}
	case AssertMetadata:
		if a.Field == "" {
			return fmt.Errorf("assertions[%d]: field is required for metadata", index)
		}
		if kind == KindDemo {
			return fmt.Errorf("assertions[%d]: demo output carries no metadata", index)
		}
	case AssertSections:
		if kind != KindNative {
			return fmt.Errorf("assertions[%d]: sections requires kind %q", index, KindNative)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
