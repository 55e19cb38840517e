package config

const (
	defaultStateDir       = "~/.local/state/bpmaster"
	defaultLogDir         = "~/.local/state/bpmaster/logs"
	defaultErrorLog       = "errors.log"
	defaultDetectorBinary = "bpm-detect"
	defaultStretchBinary  = "rubberband"
	defaultToolTimeout    = 600
	defaultWorkers        = 1
	defaultBPMTolerance   = 0.001
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

func defaultExtensions() []string {
	return []string{"mp3", "wav", "flac"}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir: defaultStateDir,
			LogDir:   defaultLogDir,
			ErrorLog: defaultErrorLog,
		},
		Tools: Tools{
			Detector:       defaultDetectorBinary,
			Stretcher:      defaultStretchBinary,
			TimeoutSeconds: defaultToolTimeout,
		},
		Processing: Processing{
			Workers:      defaultWorkers,
			BPMTolerance: defaultBPMTolerance,
			Extensions:   defaultExtensions(),
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
