package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hoc/internal/compose"
)

// StrategyAll runs a scenario once per registered strategy.
const StrategyAll = "all"

// Scenario defines one harness run: which class to compose, how, and what
// to call on the resulting instance.
type Scenario struct {
	Name        string `yaml:"name"`
	Description string `yaml:"description"`

	// Specs lists CUE files declaring the class and its ancestors.
	Specs []string `yaml:"specs"`

	// Class is the base class to compose.
	Class string `yaml:"class"`

	// Strategy is a compose.Strategy name or "all". Empty means "all".
	Strategy string `yaml:"strategy,omitempty"`

	// Construct holds the constructor arguments of the instance under test.
	Construct []any `yaml:"construct,omitempty"`

	// FlowToken fixes the recorded flow token. Empty means
	// testutil.DefaultFlowToken.
	FlowToken string `yaml:"flow_token,omitempty"`

	Flow       []FlowStep  `yaml:"flow"`
	Assertions []Assertion `yaml:"assertions"`
}

// FlowStep calls one method on the instance under test.
type FlowStep struct {
	Call string `yaml:"call"`
	Args []any  `yaml:"args"`

	// Expect checks the call outcome. Nil means the call must succeed.
	Expect *ExpectClause `yaml:"expect,omitempty"`
}

// ExpectClause names the expected value or error message of a call. At most
// one may be set; neither means success with any value.
type ExpectClause struct {
	Value any    `yaml:"value,omitempty"`
	Error string `yaml:"error,omitempty"`
}

// Assertion validates the trace or the instance after the flow.
type Assertion struct {
	Type string `yaml:"type"`

	// Method is a bare method name or a Class.method ref (call_count,
	// trace_contains, independent_instances).
	Method string `yaml:"method,omitempty"`

	// Methods is the expected first-call order (trace_order).
	Methods []string `yaml:"methods,omitempty"`

	// Args are exact call args (trace_contains, independent_instances).
	Args []any `yaml:"args,omitempty"`

	// Count is the expected number of recorded calls (call_count).
	Count int `yaml:"count,omitempty"`

	// Class names a class from the specs (instance_of).
	Class string `yaml:"class,omitempty"`

	// Name and Value describe an accessor and its expected result.
	Name  string `yaml:"name,omitempty"`
	Value any    `yaml:"value,omitempty"`
}

// Assertion type constants.
const (
	AssertCallCount            = "call_count"
	AssertTraceContains        = "trace_contains"
	AssertTraceOrder           = "trace_order"
	AssertInstanceOf           = "instance_of"
	AssertAccessor             = "accessor"
	AssertIndependentInstances = "independent_instances"
)

// Strategies resolves the scenario's strategy field.
func (s *Scenario) Strategies() ([]compose.Strategy, error) {
	if s.Strategy == "" || s.Strategy == StrategyAll {
		return compose.Strategies(), nil
	}
	st, err := compose.ParseStrategy(s.Strategy)
	if err != nil {
		return nil, err
	}
	return []compose.Strategy{st}, nil
}

// LoadScenario reads a scenario file, resolving spec paths relative to the
// file's directory. Unknown fields are rejected.
func LoadScenario(path string) (*Scenario, error) {
	return LoadScenarioWithBasePath(path, filepath.Dir(path))
}

// LoadScenarioWithBasePath reads a scenario file, resolving relative spec
// paths against basePath.
func LoadScenarioWithBasePath(path, basePath string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	for i, specPath := range scenario.Specs {
		if !filepath.IsAbs(specPath) && basePath != "" {
			scenario.Specs[i] = filepath.Join(basePath, specPath)
		}
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
	if len(s.Specs) == 0 {
		return fmt.Errorf("specs list is required and must be non-empty")
	}
	if s.Class == "" {
		return fmt.Errorf("class is required")
	}
	if len(s.Flow) == 0 {
		return fmt.Errorf("flow list is required and must be non-empty")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}
	if _, err := s.Strategies(); err != nil {
		return err
	}

	for _, specPath := range s.Specs {
		if _, err := os.Stat(specPath); os.IsNotExist(err) {
			return fmt.Errorf("spec file not found: %s", specPath)
		}
	}

	for i, step := range s.Flow {
		if step.Call == "" {
			return fmt.Errorf("flow[%d]: call is required", i)
		}
		if step.Expect != nil && step.Expect.Value != nil && step.Expect.Error != "" {
			return fmt.Errorf("flow[%d].expect: value and error are mutually exclusive", i)
		}
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("assertions[%d]: type is required", index)
	}

	switch a.Type {
	case AssertCallCount:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for call_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative for call_count", index)
		}
	case AssertTraceContains, AssertIndependentInstances:
		if a.Method == "" {
			return fmt.Errorf("assertions[%d]: method is required for %s", index, a.Type)
		}
	case AssertTraceOrder:
		if len(a.Methods) == 0 {
			return fmt.Errorf("assertions[%d]: methods list is required for trace_order", index)
		}
	case AssertInstanceOf:
		if a.Class == "" {
			return fmt.Errorf("assertions[%d]: class is required for instance_of", index)
		}
	case AssertAccessor:
		if a.Name == "" {
			return fmt.Errorf("assertions[%d]: name is required for accessor", index)
		}
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}
