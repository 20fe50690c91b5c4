// Package command recognises conversation-level commands such as starting
// over, as opposed to trip details.
package command

import (
	"context"

	"github.com/tbxark/travelpilot/types"
)

type Command string

const (
	Reset Command = "reset"
	Save  Command = "save"
	None  Command = "none"
)

type Request struct {
	Input string
	// LastPrompt is the latest assistant or system message the user answers.
	LastPrompt string
	Slots      types.TravelSlots
	Locale     string
}

type Parser interface {
	ParseCommand(ctx context.Context, req *Request) (Command, error)
}
