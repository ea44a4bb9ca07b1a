package control

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync/atomic"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/config"
)

const eventQueueSize = 32

// Event is a player lifecycle notification published on the events topic
type Event struct {
	Event     string `json:"event"`
	RunID     string `json:"run_id,omitempty"`
	OldState  string `json:"old_state,omitempty"`
	State     string `json:"state,omitempty"`
	Percent   *int   `json:"percent,omitempty"`
	Kind      string `json:"kind,omitempty"`
	Error     string `json:"error,omitempty"`
	Timestamp string `json:"timestamp"`
}

// EventStats counts events handed to the publisher
type EventStats struct {
	Sent    uint64
	Dropped uint64
}

// EventPublisher forwards player notifications to MQTT.
//
// Notifications arrive on the run loop and are queued without blocking; when
// the queue is full the new event is dropped and counted.
type EventPublisher struct {
	client mqtt.Client
	topic  string
	qos    byte
	logger *slog.Logger
	events chan Event

	sent    atomic.Uint64
	dropped atomic.Uint64
}

var _ gstplay.Observer = (*EventPublisher)(nil)

// EventsTopic returns the topic events are published on
func EventsTopic(cfg config.MQTTConfig) string {
	return cfg.Topics.Status + "/events"
}

// NewEventPublisher creates a publisher for the configured status topic
func NewEventPublisher(cfg config.MQTTConfig, client mqtt.Client, logger *slog.Logger) *EventPublisher {
	if logger == nil {
		logger = slog.Default()
	}
	return &EventPublisher{
		client: client,
		topic:  EventsTopic(cfg),
		qos:    cfg.QoS["status"],
		logger: logger,
		events: make(chan Event, eventQueueSize),
	}
}

// Stats returns a snapshot of the queue counters
func (p *EventPublisher) Stats() EventStats {
	return EventStats{
		Sent:    p.sent.Load(),
		Dropped: p.dropped.Load(),
	}
}

func (p *EventPublisher) PipelineStarted(runID, _ string) {
	p.enqueue(Event{Event: "pipeline_started", RunID: runID})
}

func (p *EventPublisher) PipelineDestroyed(runID string) {
	p.enqueue(Event{Event: "pipeline_destroyed", RunID: runID})
}

func (p *EventPublisher) StateChanged(oldState, newState gstplay.State) {
	p.enqueue(Event{
		Event:    "state_changed",
		OldState: oldState.String(),
		State:    newState.String(),
	})
}

func (p *EventPublisher) Buffering(percent int) {
	p.enqueue(Event{Event: "buffering", Percent: &percent})
}

func (p *EventPublisher) Error(err error) {
	ev := Event{Event: "error", Error: err.Error()}

	var perr *gstplay.ParseError
	var eerr *gstplay.EngineError
	switch {
	case errors.As(err, &perr):
		ev.Kind = "parse"
	case errors.As(err, &eerr):
		ev.Kind = eerr.Kind.String()
	default:
		ev.Kind = gstplay.KindUnknown.String()
	}
	p.enqueue(ev)
}

func (p *EventPublisher) enqueue(ev Event) {
	ev.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)
	select {
	case p.events <- ev:
		p.sent.Add(1)
	default:
		p.dropped.Add(1)
	}
}

// Run publishes queued events until ctx is done
func (p *EventPublisher) Run(ctx context.Context) error {
	p.logger.Info("control: publishing player events", "topic", p.topic)
	for {
		select {
		case <-ctx.Done():
			if dropped := p.dropped.Load(); dropped > 0 {
				p.logger.Warn("control: player events dropped", "dropped", dropped)
			}
			return nil
		case ev := <-p.events:
			p.publish(ev)
		}
	}
}

func (p *EventPublisher) publish(ev Event) {
	payload, err := json.Marshal(ev)
	if err != nil {
		p.logger.Error("control: failed to marshal event", "error", err)
		return
	}

	token := p.client.Publish(p.topic, p.qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		p.logger.Error("control: event publish timeout", "event", ev.Event)
		return
	}
	if err := token.Error(); err != nil {
		p.logger.Error("control: failed to publish event", "event", ev.Event, "error", err)
	}
}
