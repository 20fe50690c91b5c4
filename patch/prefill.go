package patch

import (
	"fmt"
	"reflect"
	"sort"

	"github.com/bytedance/sonic"
)

// GeneratePatchesFromInitial returns the operations that write every
// non-zero value of update onto current. Zero values in update are ignored,
// so it can only set or replace, never clear.
func GeneratePatchesFromInitial[T any](current, update T) ([]Operation, error) {
	currentMap, err := toMap(current)
	if err != nil {
		return nil, fmt.Errorf("failed to convert current state: %w", err)
	}
	updateMap, err := toMap(update)
	if err != nil {
		return nil, fmt.Errorf("failed to convert update: %w", err)
	}

	patches := make([]Operation, 0)
	generatePatchesFromMap("", currentMap, updateMap, &patches)
	return patches, nil
}

func toMap(v any) (map[string]any, error) {
	raw, err := sonic.Marshal(v)
	if err != nil {
		return nil, err
	}
	out := map[string]any{}
	if err := sonic.Unmarshal(raw, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func generatePatchesFromMap(prefix string, current, update map[string]any, patches *[]Operation) {
	keys := make([]string, 0, len(update))
	for k := range update {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		value := update[key]
		if isZeroValue(value) {
			continue
		}
		path := prefix + "/" + escapeJSONPointer(key)
		currentValue, exists := current[key]

		if nested, ok := value.(map[string]any); ok {
			if currentNested, ok := currentValue.(map[string]any); ok {
				generatePatchesFromMap(path, currentNested, nested, patches)
			} else {
				*patches = append(*patches, Operation{Op: OperationAdd, Path: path, Value: value})
			}
			continue
		}

		switch {
		case !exists:
			*patches = append(*patches, Operation{Op: OperationAdd, Path: path, Value: value})
		case !reflect.DeepEqual(currentValue, value):
			*patches = append(*patches, Operation{Op: OperationReplace, Path: path, Value: value})
		}
	}
}

func isZeroValue(v any) bool {
	switch val := v.(type) {
	case nil:
		return true
	case string:
		return val == ""
	case float64:
		return val == 0
	case bool:
		return !val
	case []any:
		return len(val) == 0
	case map[string]any:
		return len(val) == 0
	default:
		return false
	}
}
