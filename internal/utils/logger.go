package utils

import (
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

var Logger = logrus.New()

// appNameHook tags every entry with the binary that wrote it. Text output
// gets a message prefix, JSON output an "app" field CloudWatch can filter on.
type appNameHook struct {
	appName string
	asField bool
}

// Levels implements logrus.Hook interface.
func (h *appNameHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

// Fire implements logrus.Hook interface.
func (h *appNameHook) Fire(entry *logrus.Entry) error {
	if h.asField {
		entry.Data["app"] = h.appName
		return nil
	}
	entry.Message = "[" + h.appName + "] " + entry.Message
	return nil
}

// InitLogger points the shared logger at stdout and applies LOG_LEVEL and
// LOG_FORMAT. Lambda invocations call it too, so hooks are replaced.
func InitLogger(appName string) {
	initLogger(appName, os.Getenv)
}

func initLogger(appName string, getenv func(string) string) {
	Logger.SetOutput(os.Stdout)

	logLevelStr := strings.ToLower(getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := logrus.ParseLevel(logLevelStr)
	if err != nil {
		Logger.Warnf("Invalid LOG_LEVEL '%s', defaulting to INFO", logLevelStr)
		level = logrus.InfoLevel
	}
	Logger.SetLevel(level)

	asJSON := jsonLogs(getenv)
	if asJSON {
		Logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339Nano,
			FieldMap:        logrus.FieldMap{logrus.FieldKeyMsg: "message"},
		})
	} else {
		Logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
	}

	Logger.ReplaceHooks(make(logrus.LevelHooks))
	Logger.AddHook(&appNameHook{appName: appName, asField: asJSON})
}

// jsonLogs is true when LOG_FORMAT asks for it, or inside Lambda unless
// LOG_FORMAT=text.
func jsonLogs(getenv func(string) string) bool {
	switch strings.ToLower(getenv("LOG_FORMAT")) {
	case "json":
		return true
	case "text":
		return false
	}
	return getenv("AWS_LAMBDA_FUNCTION_NAME") != ""
}
