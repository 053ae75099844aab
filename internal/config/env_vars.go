package config

import (
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	appNameVar         = "TABNEWS_APP_NAME"
	envVar             = "TABNEWS_ENV"
	logLevelVar        = "TABNEWS_LOG_LEVEL"
	logFileVar         = "TABNEWS_LOG_FILE"
	credentialsFileVar = "TABNEWS_CREDENTIALS_FILE"
)

type EnvVars struct {
	file *File
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetAppName() string {
	return lookup(appNameVar, e.fileValue(func(f *File) string { return f.AppName }), "Tab News")
}

func (e EnvVars) GetEnv() string {
	return strings.ToUpper(lookup(envVar, e.fileValue(func(f *File) string { return f.Env }), "DEV"))
}

func (e EnvVars) GetLogLevel() string {
	return strings.ToLower(lookup(logLevelVar, e.fileValue(func(f *File) string { return f.LogLevel }), "info"))
}

// GetLogFile is where logs go while the popup owns the terminal.
func (e EnvVars) GetLogFile() string {
	return lookup(logFileVar, e.fileValue(func(f *File) string { return f.LogFile }), defaultLogFile())
}

// GetCredentialsFile returns the session document path. Falls back to
// $XDG_CONFIG_HOME/tabnews/credentials.json, then ~/.config.
func (e EnvVars) GetCredentialsFile() string {
	return lookup(credentialsFileVar, e.fileValue(func(f *File) string { return f.CredentialsFile }), defaultCredentialsFile())
}

func (e EnvVars) fileValue(get func(*File) string) string {
	if e.file == nil {
		return ""
	}
	return get(e.file)
}

func defaultCredentialsFile() string {
	configDirectory := os.Getenv("XDG_CONFIG_HOME")
	if configDirectory == "" {
		homeDirectory, err := os.UserHomeDir()
		if err != nil {
			return filepath.Join(os.TempDir(), "tabnews-credentials.json")
		}
		configDirectory = filepath.Join(homeDirectory, ".config")
	}
	return filepath.Join(configDirectory, "tabnews", "credentials.json")
}

func defaultLogFile() string {
	homeDirectory, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "tabnews.log")
	}
	return filepath.Join(homeDirectory, ".tabnews", "logs", "tabnews.log")
}

// GetEnv returns the environment variable or defaultValue when unset.
func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}

func lookup(envVar, fileValue, defaultValue string) string {
	if fileValue != "" {
		defaultValue = fileValue
	}
	return GetEnv(envVar, defaultValue)
}

func lookupBool(envVar string, fileValue *bool, defaultValue bool) bool {
	if fileValue != nil {
		defaultValue = *fileValue
	}
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return defaultValue
	}
	return parsed
}

func lookupDuration(envVar, fileValue string, defaultValue time.Duration) time.Duration {
	value := lookup(envVar, fileValue, "")
	if value == "" {
		return defaultValue
	}
	if value == "0" {
		return 0
	}
	parsed, err := time.ParseDuration(value)
	if err != nil || parsed < 0 {
		return defaultValue
	}
	return parsed
}
