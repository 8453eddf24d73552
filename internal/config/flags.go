package config

import "flag"

var (
	flagConfig  = flag.String("config", "", "Path to config file")
	flagScene   = flag.String("scene", "", "Scene file to sample (.obj, .bk3d, .bk3d.gz)")
	flagSamples = flag.Int("samples", 0, "Total sample budget (0 = one floor of samples per triangle)")
	flagMinPer  = flag.Int("min-per-triangle", 0, "Minimum samples per triangle")
	flagWorkers = flag.Int("workers", 0, "Sampling goroutines (0 = all CPUs)")
	flagOut     = flag.String("out", "", "Write the sampled points to this file")
	flagPrint   = flag.Bool("print", false, "Print every sample to stdout")
	flagDebug   = flag.Bool("debug", false, "Enable debug logging")
)

// ParseFlags parses command-line flags. Call this early in main().
func ParseFlags() {
	flag.Parse()
}

// ConfigPath returns the explicit config path if provided via --config flag.
func ConfigPath() string {
	return *flagConfig
}

// ScenePath returns the scene file to sample, from --scene or the first
// positional argument.
func ScenePath() string {
	if *flagScene != "" {
		return *flagScene
	}
	return flag.Arg(0)
}

// applyFlags applies CLI flag overrides to the config.
func applyFlags(cfg *Config) {
	if *flagDebug {
		cfg.Logging.Level = "debug"
	}
	if *flagSamples > 0 {
		cfg.Sampling.NumSamples = *flagSamples
	}
	if *flagMinPer > 0 {
		cfg.Sampling.MinSamplesPerTriangle = *flagMinPer
	}
	if *flagWorkers > 0 {
		cfg.Sampling.Workers = *flagWorkers
	}
	if *flagOut != "" {
		cfg.Output.Path = *flagOut
	}
	if *flagPrint {
		cfg.Output.PrintSamples = true
	}
}
