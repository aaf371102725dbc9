package client

import (
	"fmt"

	"github.com/spf13/cobra"
)

// NewGreetCommand constructs the `greet` command.
func NewGreetCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "greet NAME",
		Short: "Greet a name and record the event",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("transport")
			t, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			msg, err := t.Greet(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), msg)
			return nil
		},
	}
	addTransportFlag(cmd)
	return cmd
}

// NewCountCommand constructs the `count` command.
func NewCountCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count NAME",
		Short: "Show how many times a name was greeted",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, _ := cmd.Flags().GetString("transport")
			t, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			n, err := t.GreetedCount(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s: %d\n", args[0], n)
			return nil
		},
	}
	addTransportFlag(cmd)
	return cmd
}

// NewTotalCommand constructs the `total` command.
func NewTotalCommand(baseURL BaseURLFunc) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "total",
		Short: "Show the number of distinct greeted names, or recorded events with --events",
		RunE: func(cmd *cobra.Command, _ []string) error {
			kind, _ := cmd.Flags().GetString("transport")
			events, _ := cmd.Flags().GetBool("events")
			t, err := getTransport(kind, baseURL)
			if err != nil {
				return err
			}
			var n uint64
			if events {
				n, err = t.TotalEvents(cmd.Context())
			} else {
				n, err = t.TotalGreetedNames(cmd.Context())
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), n)
			return nil
		},
	}
	addTransportFlag(cmd)
	cmd.Flags().Bool("events", false, "Count recorded events instead of distinct names")
	return cmd
}

func addTransportFlag(cmd *cobra.Command) {
	cmd.Flags().String("transport", "grpc", "Transport: grpc|http")
}
