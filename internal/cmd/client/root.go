package client

import (
	"github.com/spf13/cobra"
)

// NewRoot constructs a root Cobra command for the tally client.
// It registers the greeter commands and the offline log command group.
func NewRoot(baseURL BaseURLFunc) *cobra.Command {
	root := &cobra.Command{
		Use:   "tally",
		Short: "Tally client commands",
	}
	Register(root, baseURL)
	return root
}

// Register adds the client commands to root.
func Register(root *cobra.Command, baseURL BaseURLFunc) {
	root.AddCommand(
		NewGreetCommand(baseURL),
		NewCountCommand(baseURL),
		NewTotalCommand(baseURL),
		NewLogCommand(),
	)
}
