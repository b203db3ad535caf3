//go:build linux

// Command teristaengine is a harness binary that links the hook engine and
// drives its operations from the shell, for manual exercise and smoke
// testing of a build.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/teristalegan6-debug/TeristaSpaceV1/engine"
	"github.com/teristalegan6-debug/TeristaSpaceV1/logging"
)

var versionTemplate = `{{with .Version}}{{printf "teristaengine %s" .}}{{end}}{{"\n"}}`

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "teristaengine",
		Short:         "Drive the inline-hook and IPC-interception engine from the shell",
		Version:       "0.1.0",
		SilenceUsage:  true,
		SilenceErrors: false,
	}
	root.SetVersionTemplate(versionTemplate)

	root.PersistentFlags().Bool("debug", false, "enable development-mode logging")
	root.PersistentFlags().String("config", "", "path to a teristaengine.yaml config file")
	root.PersistentFlags().String("libc", engine.DefaultConfig().LibcPath, "path to the C library opened at initialize")
	root.PersistentFlags().String("linker", engine.DefaultConfig().LinkerPath, "path to the dynamic linker opened at initialize")
	root.PersistentFlags().String("ipc-lib", engine.DefaultConfig().IPCClientLibPath, "path to the IPC client library opened at initialize")
	if err := viper.BindPFlags(root.PersistentFlags()); err != nil {
		panic(err)
	}

	root.AddCommand(
		newInstallCmd(),
		newUninstallCmd(),
		newListCmd(),
		newHookIPCCmd(),
		newFilterCmd(),
	)
	return root
}

func loadConfig(cmd *cobra.Command) (engine.Config, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		viper.SetConfigFile(path)
		if err := viper.ReadInConfig(); err != nil {
			return engine.Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	cfg := engine.DefaultConfig()
	if err := viper.Unmarshal(&cfg); err != nil {
		return engine.Config{}, fmt.Errorf("unmarshal config: %w", err)
	}
	cfg.Debug = viper.GetBool("debug")
	if v := viper.GetString("libc"); v != "" {
		cfg.LibcPath = v
	}
	if v := viper.GetString("linker"); v != "" {
		cfg.LinkerPath = v
	}
	if v := viper.GetString("ipc-lib"); v != "" {
		cfg.IPCClientLibPath = v
	}
	return cfg, nil
}

func newCoordinator(cmd *cobra.Command) (*engine.Coordinator, *zap.Logger, error) {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return nil, nil, err
	}
	logger, err := logging.New(cfg.Debug)
	if err != nil {
		return nil, nil, fmt.Errorf("build logger: %w", err)
	}
	c := engine.New(logger, cfg)
	if err := c.Initialize(); err != nil {
		return nil, nil, err
	}
	return c, logger, nil
}
