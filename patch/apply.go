package patch

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	jsonpatch "github.com/evanphx/json-patch/v5"
	"github.com/tbxark/travelpilot/slot"
	"github.com/tbxark/travelpilot/types"
)

// ApplyRFC6902 applies ops to a copy of current through its JSON form.
// Edits may target omitted members: a replace of an object member acts as
// an add, missing parents are created and removing an absent member is a
// no-op.
func ApplyRFC6902[T any](current T, ops []Operation) (T, error) {
	var zero T
	if len(ops) == 0 {
		return current, nil
	}

	doc, err := sonic.Marshal(current)
	if err != nil {
		return zero, fmt.Errorf("failed to marshal current state: %w", err)
	}
	raw, err := sonic.Marshal(lenientOps(ops))
	if err != nil {
		return zero, fmt.Errorf("failed to marshal patch operations: %w", err)
	}
	p, err := jsonpatch.DecodePatch(raw)
	if err != nil {
		return zero, fmt.Errorf("failed to decode patch: %w", err)
	}

	opts := jsonpatch.NewApplyOptions()
	opts.AllowMissingPathOnRemove = true
	opts.EnsurePathExistsOnAdd = true
	out, err := p.ApplyWithOptions(doc, opts)
	if err != nil {
		return zero, fmt.Errorf("failed to apply patch: %w", err)
	}

	var result T
	if err := sonic.Unmarshal(out, &result); err != nil {
		return zero, fmt.Errorf("type mismatch: patch would result in invalid type %T: %w", zero, err)
	}
	return result, nil
}

// lenientOps rewrites replace into add wherever the target is an object
// member, since add on a member overwrites it. Array slots keep replace.
func lenientOps(ops []Operation) []Operation {
	out := make([]Operation, len(ops))
	for i, op := range ops {
		if op.Op == OperationReplace && !isIndexToken(lastToken(op.Path)) {
			op.Op = OperationAdd
		}
		out[i] = op
	}
	return out
}

func lastToken(path string) string {
	return path[strings.LastIndexByte(path, '/')+1:]
}

func isIndexToken(token string) bool {
	if token == "-" {
		return true
	}
	_, err := strconv.Atoi(token)
	return err == nil
}

// ApplySlotEdits validates ops against allowed, applies them and restores
// the slot invariants: num_people follows the party, the currency resets
// with the budget, date_range is derived, and every value stays in range.
// current is never modified.
func ApplySlotEdits(current types.TravelSlots, ops []Operation, allowed PathSet) (types.TravelSlots, error) {
	if len(ops) == 0 {
		return current, nil
	}
	if err := ValidatePatchOperations(ops, allowed); err != nil {
		return current, err
	}
	next, err := ApplyRFC6902(current, ops)
	if err != nil {
		return current, err
	}
	if next.Party != nil {
		next.NumPeople = types.Ptr(next.Party.Total())
	}
	if next.Budget == nil || next.Currency == "" {
		next.Currency = types.DefaultCurrency
	}
	if err := slot.CheckBounds(next); err != nil {
		return current, err
	}
	next.DateRange = types.FormatDateRange(next.StartDate, next.EndDate)
	return next, nil
}
