package envutil

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/yungbote/trailmark-backend/internal/platform/logger"
)

func String(key, def string, log *logger.Logger) string {
	val, ok := os.LookupEnv(key)
	val = strings.TrimSpace(val)
	if !ok || val == "" {
		if log != nil {
			log.Debug("Environment variable not found, using default", "env_var", key, "default", def)
		}
		return def
	}
	return val
}

func Int(key string, def int, log *logger.Logger) int {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	i, err := strconv.Atoi(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as int, using default", "env_var", key, "provided", raw, "default", def)
		}
		return def
	}
	return i
}

func Bool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "on":
		return true
	case "0", "false", "no", "off":
		return false
	default:
		return def
	}
}

// Duration accepts Go duration strings ("90s") or a bare integer of seconds.
func Duration(key string, def time.Duration, log *logger.Logger) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	if secs, err := strconv.Atoi(raw); err == nil {
		return time.Duration(secs) * time.Second
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		if log != nil {
			log.Warn("Environment variable could not be parsed as duration, using default", "env_var", key, "provided", raw, "default", def.String())
		}
		return def
	}
	return d
}
