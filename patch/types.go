// Package patch applies explicit slot edits as RFC 6902 operations and
// merges backend itinerary fragments by key presence.
package patch

import (
	"context"

	"github.com/tbxark/travelpilot/types"
)

const (
	OperationAdd     = "add"
	OperationRemove  = "remove"
	OperationReplace = "replace"
)

type Operation struct {
	Op    string `json:"op" jsonschema:"enum=add,enum=remove,enum=replace"`
	Path  string `json:"path" jsonschema:"description=JSON pointer of the slot to change"`
	Value any    `json:"value,omitempty"`
}

type UpdateSlotsArgs struct {
	Ops []Operation `json:"ops"`
}

type Request struct {
	Instruction  string
	CurrentState types.TravelSlots
	StateSchema  string
	AllowedPaths []string

	FieldGuidance map[string]string
}

type Generator interface {
	GeneratePatch(ctx context.Context, req *Request) (*UpdateSlotsArgs, error)
}
