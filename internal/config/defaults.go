package config

const (
	defaultProcessName       = "keepassxc"
	defaultKeyringService    = "keywatch"
	defaultPollInterval      = 5
	defaultSubscribeAttempts = 5
	defaultSubscribeDelay    = 5
	defaultUnlockTimeout     = 10
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
	defaultLogDir            = "~/.local/share/keywatch/logs"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Keywatch: Keywatch{
			ProcessName:    defaultProcessName,
			KeyringService: defaultKeyringService,
		},
		Watch: Watch{
			PollInterval:      defaultPollInterval,
			SubscribeAttempts: defaultSubscribeAttempts,
			SubscribeDelay:    defaultSubscribeDelay,
			UnlockTimeout:     defaultUnlockTimeout,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
			Dir:    defaultLogDir,
		},
	}
}
