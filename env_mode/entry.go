// Package env_mode selects the development, production or test profile used
// when picking configuration files.
package env_mode

import (
	"os"
	"strings"
	"sync"
)

// ENV_MODE_KEY is the environment variable holding the mode.
const ENV_MODE_KEY = "HOSTBRIDGE_ENV"

type ENV_MODE string

const (
	DevMode  ENV_MODE = "development"
	ProMode  ENV_MODE = "production"
	TestMode ENV_MODE = "test"
)

var (
	currentEnv ENV_MODE
	modeMu     sync.RWMutex
)

// ParseEnv normalizes a mode name; anything unknown is development.
func ParseEnv(env string) ENV_MODE {
	switch strings.ToLower(strings.TrimSpace(env)) {
	case "production", "prod", "pro":
		return ProMode
	case "test", "testing":
		return TestMode
	default:
		return DevMode
	}
}

// Mode returns the active mode, read from ENV_MODE_KEY on first use.
func Mode() ENV_MODE {
	modeMu.RLock()
	env := currentEnv
	modeMu.RUnlock()
	if env != "" {
		return env
	}

	modeMu.Lock()
	defer modeMu.Unlock()
	if currentEnv == "" {
		currentEnv = ParseEnv(os.Getenv(ENV_MODE_KEY))
	}
	return currentEnv
}

// SetMode overrides the active mode for this process.
func SetMode(mode ENV_MODE) {
	modeMu.Lock()
	defer modeMu.Unlock()
	currentEnv = mode
}

// Aliases returns the file-name suffixes that select mode, most specific last.
func (m ENV_MODE) Aliases() []string {
	switch m {
	case ProMode:
		return []string{"pro", "prod", "production"}
	case TestMode:
		return []string{"test"}
	default:
		return []string{"dev", "development"}
	}
}
