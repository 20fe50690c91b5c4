package patch

import (
	"fmt"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
)

// MergeByPresence merges the given keys of fragment into current as a JSON
// merge patch. Keys that are absent from fragment or null in it leave the
// current value untouched. It reports whether anything was merged.
func MergeByPresence[T any](current T, fragment []byte, keys []string) (T, bool, error) {
	var zero T
	var doc map[string]any
	if err := sonic.Unmarshal(fragment, &doc); err != nil {
		return zero, false, fmt.Errorf("failed to decode fragment: %w", err)
	}

	present := make(map[string]any, len(keys))
	for _, k := range keys {
		if v, ok := doc[k]; ok && v != nil {
			present[k] = stripNulls(v)
		}
	}
	if len(present) == 0 {
		return current, false, nil
	}

	currentJSON, err := sonic.Marshal(current)
	if err != nil {
		return zero, false, fmt.Errorf("failed to marshal current state: %w", err)
	}
	patchJSON, err := sonic.Marshal(present)
	if err != nil {
		return zero, false, fmt.Errorf("failed to marshal merge patch: %w", err)
	}
	merged, err := jsonpatch.MergePatch(currentJSON, patchJSON)
	if err != nil {
		return zero, false, fmt.Errorf("failed to merge: %w", err)
	}

	var out T
	if err := sonic.Unmarshal(merged, &out); err != nil {
		return zero, false, fmt.Errorf("type mismatch: merged document is not a valid %T: %w", zero, err)
	}
	return out, true, nil
}

// stripNulls removes null members so a merge patch never deletes nested keys.
func stripNulls(v any) any {
	switch node := v.(type) {
	case map[string]any:
		for k, child := range node {
			if child == nil {
				delete(node, k)
				continue
			}
			node[k] = stripNulls(child)
		}
		return node
	case []any:
		for i, child := range node {
			node[i] = stripNulls(child)
		}
		return node
	default:
		return v
	}
}
