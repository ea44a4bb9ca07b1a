package main

import (
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
)

var (
	configPath string
	debug      bool
	logJSON    bool
)

var rootCmd = &cobra.Command{
	Use:          "gstplay",
	Short:        "gstplay plays media through a GStreamer pipeline",
	Long:         "gstplay plays media through a GStreamer playbin pipeline, optionally controlled over MQTT",
	SilenceUsage: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		slog.SetDefault(newLogger(os.Stderr, debug, logJSON))
	},
	Run: func(cmd *cobra.Command, args []string) {
		_ = cmd.Help()
		os.Exit(1)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to YAML configuration file")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&logJSON, "log-json", false, "log in JSON format")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// newLogger builds the process logger
func newLogger(w io.Writer, debug, json bool) *slog.Logger {
	logLevel := slog.LevelInfo
	if debug {
		logLevel = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: logLevel}

	if json {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
