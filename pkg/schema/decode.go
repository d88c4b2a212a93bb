package schema

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
	"gopkg.in/yaml.v3"
)

// DecodeProblem parses a problem document from YAML. Unknown keys are
// validation errors so typos surface instead of silently dropping fields.
func DecodeProblem(data []byte) (*ProblemDoc, error) {
	var doc ProblemDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// DecodePlan parses a plan document from YAML.
func DecodePlan(data []byte) (*PlanDoc, error) {
	var doc PlanDoc
	if err := decodeStrict(data, &doc); err != nil {
		return nil, err
	}
	return &doc, nil
}

// EncodeProblem renders the document back to YAML.
func EncodeProblem(doc *ProblemDoc) ([]byte, error) {
	return yaml.Marshal(doc)
}

// EncodePlan renders the plan document back to YAML.
func EncodePlan(doc *PlanDoc) ([]byte, error) {
	return yaml.Marshal(doc)
}

// decodeStrict goes through a raw map so mapstructure can report unused
// keys with their paths; yaml.Unmarshal alone would ignore them.
func decodeStrict(data []byte, out any) error {
	var raw map[string]any
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("invalid YAML: %w", err)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:      out,
		ErrorUnused: true,
		TagName:     "mapstructure",
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return &AggregateError{Errors: []error{
			&ValidationError{Key: "document", Reason: err.Error()},
		}}
	}
	return nil
}
