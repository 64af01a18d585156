package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/cpql/internal/ir"
)

// marshalParams stores params as canonical JSON.
func marshalParams(params []ir.Param) (string, error) {
	arr := make(ir.Array, len(params))
	for i, p := range params {
		arr[i] = ir.Object{"name": ir.String(p.Name), "placeholder": ir.String(p.Placeholder)}
	}
	data, err := ir.MarshalCanonical(arr)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return string(data), nil
}

// marshalBindings stores binding names as canonical JSON.
func marshalBindings(bindings []string) (string, error) {
	data, err := ir.MarshalCanonical(ir.Strings(bindings))
	if err != nil {
		return "", fmt.Errorf("marshal bindings: %w", err)
	}
	return string(data), nil
}

func unmarshalParams(data string) ([]ir.Param, error) {
	params := []ir.Param{}
	if err := json.Unmarshal([]byte(data), &params); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return params, nil
}

func unmarshalBindings(data string) ([]string, error) {
	bindings := []string{}
	if err := json.Unmarshal([]byte(data), &bindings); err != nil {
		return nil, fmt.Errorf("unmarshal bindings: %w", err)
	}
	return bindings, nil
}
