package main

import (
	"os"
	"path/filepath"
	"strconv"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/ayusman/winklock/internal/logging"
)

// Environment variables that provide flag defaults.
const (
	envConfig  = "WINKLOCK_CONFIG"
	envLogFile = "WINKLOCK_LOG_FILE"
	envCamera  = "WINKLOCK_CAMERA"
	envFPS     = "WINKLOCK_FPS"
	envAddr    = "WINKLOCK_ADDR"
	envPlugins = "WINKLOCK_PLUGINS"
	envDB      = "WINKLOCK_DB"
)

var (
	configPath string
	logFile    string
	logJSON    bool
	debug      bool
)

var rootCmd = &cobra.Command{
	Use:           "winklock",
	Short:         "Unlock commands with wink codes",
	Long:          `winklock watches the camera for a thumbs-up, then reads a binary code from left and right eye winks and runs the command bound to it.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", envOr(envConfig, "config.json"), "configuration file (.json, .yaml or .toml)")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", envOr(envLogFile, ""), "rotated JSON log file")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "write console logs as JSON")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}

func newLogger() *zap.Logger {
	return logging.New(logging.Options{FilePath: logFile, JSON: logJSON, Debug: debug})
}

func envOr(key, def string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return def
}

func envIntOr(key string, def int) int {
	n, err := strconv.Atoi(os.Getenv(key))
	if err != nil {
		return def
	}
	return n
}

// dataDir returns ~/.winklock, or the working directory when there is no home.
func dataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".winklock")
}
