// Package launch builds gst-launch style pipeline descriptions.
package launch

import (
	"fmt"
	"net/url"
	"path/filepath"
	"strings"
)

// Options selects the sinks playbin renders into. Empty fields leave the
// choice to playbin (autovideosink / autoaudiosink).
type Options struct {
	VideoSink string
	AudioSink string
}

// Playbin returns the description of a playbin pipeline for uri
func Playbin(uri string, opts Options) string {
	var b strings.Builder
	b.WriteString("playbin uri=")
	b.WriteString(quote(uri))
	if opts.VideoSink != "" {
		b.WriteString(" video-sink=")
		b.WriteString(quote(opts.VideoSink))
	}
	if opts.AudioSink != "" {
		b.WriteString(" audio-sink=")
		b.WriteString(quote(opts.AudioSink))
	}
	return b.String()
}

// IsPlaybin reports whether description is built around playbin
func IsPlaybin(description string) bool {
	fields := strings.Fields(description)
	return len(fields) > 0 && fields[0] == "playbin"
}

// quote wraps values the launch parser would otherwise split
func quote(value string) string {
	if !strings.ContainsAny(value, " \t!\"'") {
		return value
	}
	return `"` + strings.ReplaceAll(value, `"`, `\"`) + `"`
}

// URI turns a local path into a file URI; values with a scheme pass through
func URI(location string) (string, error) {
	if location == "" {
		return "", fmt.Errorf("launch: empty location")
	}
	if u, err := url.Parse(location); err == nil && len(u.Scheme) > 1 {
		return location, nil
	}

	abs, err := filepath.Abs(location)
	if err != nil {
		return "", fmt.Errorf("launch: resolve %q: %w", location, err)
	}
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
	return u.String(), nil
}
