package config

const (
	defaultConfigPath  = "~/.config/spatialphoto/config.toml"
	projectConfigName  = "spatialphoto.toml"
	defaultExtension   = ".heic"
	defaultJPEGQuality = 95
	defaultLogFormat   = "console"
	defaultLogLevel    = "info"

	defaultMPOHFOV      = 48.0
	defaultMPOBaseline  = 75.0
	defaultSBSHFOV      = 66.0
	defaultSBSBaseline  = 65.0
	defaultPairHFOV     = 54.12
	defaultPairBaseline = 65.0
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Modes: Modes{
			MPO:  Mode{HFOVDegrees: defaultMPOHFOV, BaselineMM: defaultMPOBaseline},
			SBS:  Mode{HFOVDegrees: defaultSBSHFOV, BaselineMM: defaultSBSBaseline},
			Pair: Mode{HFOVDegrees: defaultPairHFOV, BaselineMM: defaultPairBaseline},
		},
		Output: Output{
			Extension:   defaultExtension,
			JPEGQuality: defaultJPEGQuality,
			Overwrite:   true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
		Repair: Repair{
			Enabled: true,
		},
	}
}
