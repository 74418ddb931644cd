package utils

import (
	"fmt"
	"os"
	"strings"

	logging "github.com/op/go-logging"
)

var (
	log                = logging.MustGetLogger("regskin")
	loggingInitialized bool
)

// Components that get their own logger. Keep in sync with the
// logging.MustGetLogger calls in each package.
var components = []string{"regskin", "rsapi", "rscatalog", "rsconfig", "rsregistry"}

// SplitPath splits a slash-delimited repository path into its segments.
// Empty segments are dropped so leading, trailing and doubled slashes have
// no effect.
func SplitPath(path string) []string {
	raw := strings.Split(path, "/")
	segments := make([]string, 0, len(raw))
	for _, s := range raw {
		if s != "" {
			segments = append(segments, s)
		}
	}

	return segments
}

// DirPath returns the directory form of a path, which always ends in a slash
// unless it is the root, plus the same path with any trailing slash removed.
func DirPath(path string) (full string, stripped string) {
	if path == "" {
		return "", ""
	}

	if strings.HasSuffix(path, "/") {
		return path, strings.TrimSuffix(path, "/")
	}

	return path + "/", path
}

// GetEnvOrDefault returns an env var or the default value if it doesn't exist.
func GetEnvOrDefault(name string, defaultValue string) string {
	v := os.Getenv(name)
	if v == "" {
		v = defaultValue
	}

	return v
}

// InitLogging configures the logging settings.
func InitLogging() {
	if loggingInitialized {
		log.Infof("Logging already initialized")
		return
	}

	// REGSKIN_LOG_DEBUG controls which components log at DEBUG level.
	// By default the log level is INFO for all components.
	// REGSKIN_LOG_DEBUG="all" - turn on DEBUG for all components
	// REGSKIN_LOG_DEBUG="rsregistry,detail" - DEBUG for the registry client, with pid and file / line number
	basicLogFormat := logging.MustStringFormatter(`%{color}%{level:.4s} %{time:15:04:05.000}: %{color:reset} %{message}`)
	detailLogFormat := logging.MustStringFormatter(`%{color}%{level:.4s} %{time:15:04:05.000} %{pid} %{shortfile}: %{color:reset} %{message}`)

	logComponents := GetEnvOrDefault("REGSKIN_LOG_DEBUG", "none")
	if strings.Contains(logComponents, "detail") {
		logging.SetFormatter(detailLogFormat)
	} else {
		logging.SetFormatter(basicLogFormat)
	}

	fmt.Fprintln(os.Stderr, "Init Logging")
	logBackend := logging.NewLogBackend(os.Stderr, "", 0)
	logging.SetBackend(logBackend)

	for _, component := range components {
		if strings.Contains(logComponents, component) || strings.Contains(logComponents, "all") {
			logging.SetLevel(logging.DEBUG, component)
		} else {
			logging.SetLevel(logging.INFO, component)
		}
	}

	loggingInitialized = true
}
