//go:build linux

package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func parseAddress(s string) (uintptr, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("parse address %q: %w", s, err)
	}
	return uintptr(v), nil
}

func newInstallCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "install <symbol> <replacement-address>",
		Short: "Resolve symbol across open libraries and install an inline hook redirecting it",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			replacement, err := parseAddress(args[1])
			if err != nil {
				return err
			}

			c, logger, err := newCoordinator(cmd)
			if err != nil {
				return err
			}
			defer c.Teardown()

			backup, err := c.InstallHook(args[0], replacement)
			if err != nil {
				return err
			}
			logger.Info("hook installed", zap.String("symbol", args[0]), zap.Uintptr("backup", backup))
			fmt.Printf("backup=0x%x\n", backup)
			return nil
		},
	}
	return cmd
}

func newUninstallCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <symbol>",
		Short: "Uninstall a previously installed hook by symbol name",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, _, err := newCoordinator(cmd)
			if err != nil {
				return err
			}
			defer c.Teardown()
			return c.UninstallHook(args[0])
		},
	}
}

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List every library currently opened by the resolver",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, _, err := newCoordinator(cmd)
			if err != nil {
				return err
			}
			defer c.Teardown()
			for _, path := range c.Resolver.ListLoaded() {
				fmt.Println(path)
			}
			return nil
		},
	}
}
