package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"keywatch/internal/logging"
	"keywatch/internal/service"
)

func newServiceCommand(ctx *commandContext) *cobra.Command {
	serviceCmd := &cobra.Command{
		Use:   "service",
		Short: "Manage the systemd user service for the watcher",
	}

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "add",
		Short: "Install and start the watcher as a systemd user service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager(logging.NewNop())
			if err != nil {
				return err
			}
			if err := mgr.Install(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Installed and started %s (%s)\n", service.UnitName, mgr.UnitPath())
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "remove",
		Short: "Stop and remove the systemd user service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager(logging.NewNop())
			if err != nil {
				return err
			}
			if err := mgr.Uninstall(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %s\n", service.UnitName)
			return nil
		},
	})

	serviceCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show the systemd user service state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			mgr, err := service.NewManager(logging.NewNop())
			if err != nil {
				return err
			}
			status, err := mgr.Query(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Unit:      %s\n", status.UnitPath)
			fmt.Fprintf(out, "Installed: %s\n", yesNo(status.Installed))
			fmt.Fprintf(out, "Active:    %s\n", status.Active)
			return nil
		},
	})

	return serviceCmd
}
