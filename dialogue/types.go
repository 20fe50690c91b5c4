// Package dialogue writes the assistant's side of the slot-filling
// conversation: what to ask for next, and the fixed phrases around a
// generation request.
package dialogue

import (
	"context"

	"github.com/tbxark/travelpilot/types"
)

type NextTurnPlan struct {
	Message string `json:"message" jsonschema:"required,description=Natural conversational response to the user"`
}

type Request struct {
	Slots types.TravelSlots
	Phase types.Phase

	// MissingFields holds validator labels in validator order.
	MissingFields []string
	Missing       []types.FieldInfo

	LastUserInput string
}

type Generator interface {
	GenerateDialogue(ctx context.Context, req *Request) (*NextTurnPlan, error)
}
