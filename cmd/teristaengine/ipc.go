//go:build linux

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newHookIPCCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "hook-ipc",
		Short: "Resolve ioctl/write/read in the system C library and attach the IPC interceptor",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newCoordinator(cmd)
			if err != nil {
				return err
			}
			defer c.Teardown()

			return c.HookIPC()
		},
	}
	return cmd
}

func newFilterCmd() *cobra.Command {
	var allow bool
	var clear bool
	cmd := &cobra.Command{
		Use:   "filter [service]",
		Short: "Set or clear the IPC service allow/block policy",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newCoordinator(cmd)
			if err != nil {
				return err
			}
			defer c.Teardown()

			if clear {
				return c.ClearIPCFilters()
			}
			if len(args) != 1 {
				return fmt.Errorf("filter requires a service name unless --clear is given")
			}
			return c.SetIPCFilter(args[0], allow)
		},
	}
	cmd.Flags().BoolVar(&allow, "allow", true, "allow bit to set for the named service")
	cmd.Flags().BoolVar(&clear, "clear", false, "restore the default allow/block seed")
	return cmd
}
