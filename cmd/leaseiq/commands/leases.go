package commands

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
)

// NewLeasesCommand creates the leases command group.
func NewLeasesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "leases",
		Short: "List saved lease conversations",
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newApp(cmd.Context())
			if err != nil {
				return err
			}

			leases := app.ctrl.Leases()
			if len(leases) == 0 {
				fmt.Println("No saved leases.")
				return nil
			}

			active := app.ctrl.Active()
			for _, lease := range leases {
				marker := "  "
				if active != nil && active.ID == lease.ID {
					marker = "* "
				}
				fmt.Printf("%s%d  %-30s %s  (%d messages)\n",
					marker, lease.ID, lease.CarName, lease.Date, len(lease.ChatHistory))
			}
			return nil
		},
	}

	cmd.AddCommand(
		&cobra.Command{
			Use:   "use <id>",
			Short: "Make a lease the active conversation",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApp(cmd.Context())
				if err != nil {
					return err
				}
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid lease id %q", args[0])
				}
				app.ctrl.SetActive(id)
				if active := app.ctrl.Active(); active != nil && active.ID == id {
					fmt.Printf("Active lease: %s\n", active.CarName)
					return nil
				}
				return fmt.Errorf("no lease with id %d", id)
			},
		},
		&cobra.Command{
			Use:   "rm <id>",
			Short: "Delete a lease",
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				app, err := newApp(cmd.Context())
				if err != nil {
					return err
				}
				id, err := strconv.ParseInt(args[0], 10, 64)
				if err != nil {
					return fmt.Errorf("invalid lease id %q", args[0])
				}
				app.ctrl.Delete(cmd.Context(), id)
				fmt.Println("Lease deleted.")
				return nil
			},
		},
	)
	return cmd
}
