package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the hexboltmq client.
// It registers the queue and dlq command groups.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "hexboltmq",
		Short: "hexboltmq client commands",
	}
	root.AddCommand(NewQueueCommand(baseURL))
	root.AddCommand(NewDLQCommand(baseURL))
	return root
}
