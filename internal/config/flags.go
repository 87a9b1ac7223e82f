package config

import "flag"

// Flags are the command-line overrides shared by every subcommand.
type Flags struct {
	Config  string
	Debug   bool
	LogFile string
	Workers int
}

// BindFlags registers the shared flags on fs.
func BindFlags(fs *flag.FlagSet) *Flags {
	f := &Flags{}
	fs.StringVar(&f.Config, "config", "", "Path to config file")
	fs.BoolVar(&f.Debug, "debug", false, "Enable debug logging")
	fs.StringVar(&f.LogFile, "log", "", "Also write logs to this file")
	fs.IntVar(&f.Workers, "workers", 0, "Shots rendered at once (0 = config)")
	return f
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config, f *Flags) {
	if f == nil {
		return
	}
	if f.Debug {
		cfg.Logging.Level = "debug"
	}
	if f.LogFile != "" {
		cfg.Logging.LogFile = f.LogFile
	}
	if f.Workers > 0 {
		cfg.Render.Workers = f.Workers
	}
}
