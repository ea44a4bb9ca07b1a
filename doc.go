// Package gstplay is a thin control layer over a GStreamer pipeline for media players.
//
// It builds a pipeline from a textual description, drives its state machine,
// dispatches the messages the pipeline posts on its bus, binds the video sink
// to a host window and forwards simple property queries (volume, position,
// video caps, color balance). Demuxing, decoding, rendering and buffering are
// GStreamer's job.
//
// # Quick Start
//
//	engine, err := gstengine.New(slog.Default())
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	player, err := gstplay.New(gstplay.Config{
//	    Engine: engine,
//	    Host:   host,
//	    Loop:   engine.NewLoop(),
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	uri, title := host.CurrentURI()
//	if err := player.Run(host.CreatePipeline(uri, title), gstplay.StartupPlaying); err != nil {
//	    log.Fatal(err)
//	}
//	player.Loop().Run()
//
// # Threading
//
// A Player is confined to one run loop. Bus messages, timers and the one
// second restore after Restart are dispatched on that loop, so the player
// holds no locks around its pipeline state. The only callback that runs
// elsewhere is the window-handle request of the video sink, which must be
// answered synchronously before the first frame is rendered. Other goroutines
// reach the player through Loop.Invoke or Interrupt.
//
// # Lifecycle
//
//	NULL → READY → PAUSED ⇄ PLAYING
//	  ↑                         │
//	  └── Destroy / error / Suspend
//
// Suspend captures position, state and volume and destroys the pipeline;
// Restart rebuilds it from the host's current URI and restores the capture.
//
// # Errors
//
//   - *ParseError: malformed description, no pipeline is created
//   - *EngineError: posted by the engine; the pipeline is destroyed and the
//     host is told, nothing is retried
//   - ErrQueryFailed: position or duration unavailable
//   - ErrUnsupported: volume on a pipeline without playbin (logged, skipped)
package gstplay
