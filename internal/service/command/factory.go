package command

import (
	"github.com/sandevgo/emilia/internal/core"
)

func NewCommands(sessions Sessions) []core.Command {
	return []core.Command{
		NewCloseCommand(sessions),
		NewStateCommand(sessions),
	}
}
