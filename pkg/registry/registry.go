// pkg/registry/registry.go
package registry

import (
	"encoding/json"
	"fmt"
	"os"

	apperrors "shopping-assistant/internal/common/errors"
	"shopping-assistant/internal/common/validation"
)

// LoadRegistry reads a registry file, e.g. one exported for a BPMN modeler.
func LoadRegistry(path string) (*ActivityRegistry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var reg ActivityRegistry
	err = json.Unmarshal(data, &reg)
	return &reg, err
}

// Find returns the activity registered for taskType.
func (r *ActivityRegistry) Find(taskType string) (Activity, bool) {
	for _, a := range r.Activities {
		if a.TaskType == taskType {
			return a, true
		}
	}
	return Activity{}, false
}

// InputValidator compiles every activity's input schema under its task type.
func (r *ActivityRegistry) InputValidator() (*validation.Validator, error) {
	v := validation.NewValidator()
	for _, a := range r.Activities {
		if len(a.InputSchema) == 0 {
			continue
		}
		raw, err := json.Marshal(a.InputSchema)
		if err != nil {
			return nil, fmt.Errorf("encode input schema for %s: %w", a.TaskType, err)
		}
		if err := v.Register(a.TaskType, string(raw)); err != nil {
			return nil, err
		}
	}
	return v, nil
}

// VariableChecker returns a check of raw job variables against the input schemas.
// Task types without a schema pass.
func (r *ActivityRegistry) VariableChecker() (func(taskType, variables string) error, error) {
	v, err := r.InputValidator()
	if err != nil {
		return nil, err
	}
	withSchema := map[string]bool{}
	for _, a := range r.Activities {
		withSchema[a.TaskType] = len(a.InputSchema) > 0
	}

	return func(taskType, variables string) error {
		if !withSchema[taskType] {
			return nil
		}
		var doc interface{}
		if err := json.Unmarshal([]byte(variables), &doc); err != nil {
			return apperrors.NewInvalidInputError(fmt.Sprintf("variables are not JSON: %v", err))
		}
		result, err := v.Validate(taskType, doc)
		if err != nil {
			return apperrors.NewInvalidInputError(err.Error())
		}
		if !result.Valid {
			return apperrors.NewInvalidInputError(result.Summary())
		}
		return nil
	}, nil
}
