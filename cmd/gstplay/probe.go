package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/gstengine"
	"github.com/e7canasta/gstplay/internal/launch"
)

var probeCmd = &cobra.Command{
	Use:   "probe <uri|path>",
	Short: "print the video dimensions of a media file or URI as WIDTHxHEIGHT",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := slog.Default()

		cfg, err := loadConfig(configPath)
		if err != nil {
			return err
		}
		uri, err := launch.URI(args[0])
		if err != nil {
			return err
		}

		engine, err := gstengine.New(logger)
		if err != nil {
			return err
		}
		player, err := gstplay.New(gstplay.Config{
			Engine: engine,
			Host:   newCLIHost(cfg, uri, 0, nil, cmd.ErrOrStderr(), logger),
			Loop:   engine.NewLoop(),
			Logger: logger,
		})
		if err != nil {
			return err
		}

		width, height, err := player.DetermineVideoDimensions(uri)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%dx%d\n", width, height)
		return nil
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "print the runtime and compiled GStreamer versions",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		engine, err := gstengine.New(slog.Default())
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "GStreamer runtime:  %s\n", engine.RuntimeVersion())
		fmt.Fprintf(out, "GStreamer compiled: %s\n", engine.CompiledVersion())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(probeCmd)
	rootCmd.AddCommand(versionCmd)
}
