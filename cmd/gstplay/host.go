package main

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/config"
	"github.com/e7canasta/gstplay/internal/launch"
)

// cliHost is the Host of a command line session. Configuration is swapped on
// the run loop when the config file changes.
type cliHost struct {
	cfg      *config.Config
	uri      string
	title    string
	windowID uintptr
	stderr   io.Writer
	logger   *slog.Logger
	// quit stops the run loop; a headless session ends on the first error
	quit func()

	// lastError is the last error shown, nil when playback never failed
	lastError error
}

var _ gstplay.Host = (*cliHost)(nil)

func newCLIHost(cfg *config.Config, uri string, windowID uintptr, quit func(), stderr io.Writer, logger *slog.Logger) *cliHost {
	return &cliHost{
		cfg:      cfg,
		uri:      uri,
		title:    uri,
		windowID: windowID,
		quit:     quit,
		stderr:   stderr,
		logger:   logger,
	}
}

// setConfig replaces the configuration; called on the run loop
func (h *cliHost) setConfig(cfg *config.Config) {
	h.cfg = cfg
}

func (h *cliHost) HaveGUI() bool {
	return h.windowID != 0
}

func (h *cliHost) QuitOnStreamEnd() bool {
	return h.cfg.QuitOnStreamEnd
}

func (h *cliHost) SoftwareColorBalance() bool {
	return h.cfg.SoftwareColorBalance
}

func (h *cliHost) ColorBalanceDefault(ch gstplay.Channel) float64 {
	return h.cfg.ColorBalanceDefault(ch)
}

func (h *cliHost) CurrentURI() (string, string) {
	return h.uri, h.title
}

func (h *cliHost) CreatePipeline(uri, _ string) string {
	return launch.Playbin(uri, launch.Options{
		VideoSink: h.cfg.VideoSink,
		AudioSink: h.cfg.AudioSink,
	})
}

// UsesPlaybin is always true: every description comes from launch.Playbin
func (h *cliHost) UsesPlaybin() bool {
	return true
}

// VideoWindowHandle is called from the video sink's streaming thread;
// windowID never changes after construction.
func (h *cliHost) VideoWindowHandle() uintptr {
	return h.windowID
}

func (h *cliHost) ShowError(title, detail string) {
	h.lastError = fmt.Errorf("%s %s", title, detail)
	h.logger.Error("gstplay: playback error", "title", title, "detail", detail)
	fmt.Fprintf(h.stderr, "%s\n%s\n", title, detail)

	// The pipeline is already gone; without a window nothing is left to drive
	if !h.HaveGUI() && h.quit != nil {
		h.quit()
	}
}
