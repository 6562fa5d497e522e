package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leaseiq/leaseiq/internal/tui"
)

// NewChatCommand creates the chat command.
func NewChatCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Chat about the active lease contract",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if app.ctrl.User() == nil {
				return fmt.Errorf("not signed in; run `leaseiq login` first")
			}
			app.ctrl.SetView("chat")
			return tui.RunChat(app.ctrl, app.backend)
		},
	}
}

// NewSimulateCommand creates the simulate command.
func NewSimulateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "simulate",
		Short: "Practice negotiating against simulated dealers",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}
			if app.ctrl.User() == nil {
				return fmt.Errorf("not signed in; run `leaseiq login` first")
			}
			app.ctrl.SetView("simulator")
			return tui.RunSimulator(app.ctrl, app.api)
		},
	}
}
