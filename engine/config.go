package engine

// Config configures a Coordinator at construction time. Field names use
// mapstructure tags so the CLI harness can bind them from a YAML file and
// flags through viper.
type Config struct {
	// Debug selects a development-mode zap logger (colorized level,
	// caller, stacktraces on warn) over a production JSON logger.
	Debug bool `mapstructure:"debug"`

	// LibcPath, LinkerPath, and IPCClientLibPath are the libraries opened
	// during Initialize, in addition to any the caller opens later via
	// LoadLibrary.
	LibcPath         string `mapstructure:"libc_path"`
	LinkerPath       string `mapstructure:"linker_path"`
	IPCClientLibPath string `mapstructure:"ipc_client_lib_path"`
}

// DefaultConfig returns the paths a typical Android/Linux ARM target uses.
func DefaultConfig() Config {
	return Config{
		Debug:            false,
		LibcPath:         "/system/lib64/libc.so",
		LinkerPath:       "/system/bin/linker64",
		IPCClientLibPath: "/system/lib64/libbinder.so",
	}
}
