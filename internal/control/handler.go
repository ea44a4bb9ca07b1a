// Package control is the MQTT control plane of the player.
//
// Commands arrive as JSON on the control topic, are executed on the
// player's run loop and answered on the status topic.
package control

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/config"
)

const (
	subscribeTimeout = 5 * time.Second
	publishTimeout   = 2 * time.Second
)

// commandTimeout bounds how long a command waits for the run loop
var commandTimeout = 5 * time.Second

// Command represents a control plane command
type Command struct {
	Command string                 `json:"command"`
	Params  map[string]interface{} `json:"params,omitempty"`
}

// Response represents a command response
type Response struct {
	CommandAck string                 `json:"command_ack"`
	Status     string                 `json:"status"`
	Data       map[string]interface{} `json:"data,omitempty"`
	Error      string                 `json:"error,omitempty"`
	Timestamp  string                 `json:"timestamp"`
}

// Player is the part of the player the control plane drives. Every method
// except Interrupt is called on the run loop.
type Player interface {
	HasPipeline() bool
	Description() string
	RunID() string
	State() gstplay.State
	Position() (int64, error)
	Duration() int64
	Volume() float64
	IsEndOfStream() bool
	Play()
	Pause()
	Seek(position int64)
	SetVolume(volume float64)
	PrepareColorBalance() gstplay.ChannelMask
	SetColorBalance(ch gstplay.Channel, value float64)
	ColorBalance(ch gstplay.Channel) float64
	Suspend()
	Restart() error
	Interrupt()
}

// Invoker schedules work on the player's run loop
type Invoker interface {
	Invoke(fn func())
}

// Handler handles control plane commands
type Handler struct {
	cfg      config.MQTTConfig
	client   mqtt.Client
	player   Player
	loop     Invoker
	logger   *slog.Logger
	commands chan Command
}

// NewHandler creates a new control plane handler
func NewHandler(cfg config.MQTTConfig, client mqtt.Client, player Player, loop Invoker, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		cfg:      cfg,
		client:   client,
		player:   player,
		loop:     loop,
		logger:   logger,
		commands: make(chan Command, 10),
	}
}

// Connect opens an auto-reconnecting MQTT client
func Connect(broker, clientID string, logger *slog.Logger) (mqtt.Client, error) {
	opts := mqtt.NewClientOptions().
		AddBroker(broker).
		SetClientID(clientID).
		SetAutoReconnect(true).
		SetConnectionLostHandler(func(_ mqtt.Client, err error) {
			logger.Warn("control: mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(mqtt.Client) {
			logger.Info("control: mqtt connected", "broker", broker)
		})

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(subscribeTimeout) {
		return nil, fmt.Errorf("control: connect to %s: timeout", broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("control: connect to %s: %w", broker, err)
	}
	return client, nil
}

// Run subscribes to the control topic and processes commands until ctx is
// done, then unsubscribes
func (h *Handler) Run(ctx context.Context) error {
	topic := h.cfg.Topics.Control
	qos := h.cfg.QoS["control"]

	h.logger.Info("control: subscribing to control plane", "topic", topic, "qos", qos)

	token := h.client.Subscribe(topic, qos, h.messageHandler)
	if !token.WaitTimeout(subscribeTimeout) {
		return fmt.Errorf("control: subscription timeout")
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("control: subscription failed: %w", err)
	}

	h.logger.Info("control: handler started")
	h.processCommands(ctx)

	if h.client.IsConnected() {
		h.client.Unsubscribe(topic).WaitTimeout(publishTimeout)
	}
	h.logger.Info("control: handler stopped")
	return nil
}

// messageHandler is called by the MQTT client when a control message is received
func (h *Handler) messageHandler(_ mqtt.Client, msg mqtt.Message) {
	var cmd Command
	if err := json.Unmarshal(msg.Payload(), &cmd); err != nil {
		h.logger.Error("control: failed to parse command", "error", err)
		h.sendResponse(Response{
			CommandAck: "unknown",
			Status:     "error",
			Error:      "invalid JSON",
		})
		return
	}

	h.logger.Info("control: command received", "command", cmd.Command)

	select {
	case h.commands <- cmd:
	default:
		h.logger.Warn("control: command queue full, dropping command", "command", cmd.Command)
	}
}

func (h *Handler) processCommands(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		case cmd := <-h.commands:
			h.sendResponse(h.handleCommand(cmd))
		}
	}
}

// handleCommand executes a command and builds its response
func (h *Handler) handleCommand(cmd Command) Response {
	resp := Response{CommandAck: cmd.Command}

	if cmd.Command == "stop" {
		// Interrupt is safe off the loop and ends it
		h.player.Interrupt()
		resp.Status = "success"
		return resp
	}

	data, err := h.onLoop(func() (map[string]interface{}, error) {
		return h.execute(cmd)
	})
	if err != nil {
		resp.Status = "error"
		resp.Error = err.Error()
		return resp
	}
	resp.Status = "success"
	resp.Data = data
	return resp
}

type result struct {
	data map[string]interface{}
	err  error
}

var errLoopBusy = errors.New("player loop did not run the command in time")

// onLoop runs fn on the player's run loop and waits for its result
func (h *Handler) onLoop(fn func() (map[string]interface{}, error)) (map[string]interface{}, error) {
	done := make(chan result, 1)
	h.loop.Invoke(func() {
		data, err := fn()
		done <- result{data: data, err: err}
	})

	timer := time.NewTimer(commandTimeout)
	defer timer.Stop()
	select {
	case r := <-done:
		return r.data, r.err
	case <-timer.C:
		return nil, errLoopBusy
	}
}

// execute runs on the loop
func (h *Handler) execute(cmd Command) (map[string]interface{}, error) {
	p := h.player

	switch cmd.Command {
	case "get_status":
		return h.status(), nil

	case "play":
		if !p.HasPipeline() {
			return nil, gstplay.ErrNoPipeline
		}
		p.Play()
		return map[string]interface{}{"state": p.State().String()}, nil

	case "pause":
		if !p.HasPipeline() {
			return nil, gstplay.ErrNoPipeline
		}
		p.Pause()
		return map[string]interface{}{"state": p.State().String()}, nil

	case "seek":
		pos, ok := cmd.Params["position_ns"].(float64)
		if !ok || pos < 0 {
			return nil, fmt.Errorf("missing or invalid 'position_ns' parameter (expected non-negative number)")
		}
		if !p.HasPipeline() {
			return nil, gstplay.ErrNoPipeline
		}
		p.Seek(int64(pos))
		return map[string]interface{}{"position_ns": int64(pos)}, nil

	case "set_volume":
		volume, ok := cmd.Params["volume"].(float64)
		if !ok {
			return nil, fmt.Errorf("missing or invalid 'volume' parameter (expected float)")
		}
		p.SetVolume(volume)
		return map[string]interface{}{"volume": p.Volume()}, nil

	case "set_color_balance":
		name, ok := cmd.Params["channel"].(string)
		if !ok {
			return nil, fmt.Errorf("missing or invalid 'channel' parameter (expected brightness/contrast/hue/saturation)")
		}
		ch, err := gstplay.ParseChannel(name)
		if err != nil {
			return nil, err
		}
		value, ok := cmd.Params["value"].(float64)
		if !ok || value < 0 || value > 100 {
			return nil, fmt.Errorf("missing or invalid 'value' parameter (expected number in [0,100])")
		}
		if !p.PrepareColorBalance().Has(ch) {
			return nil, fmt.Errorf("color balance channel %s: %w", ch, gstplay.ErrUnsupported)
		}
		p.SetColorBalance(ch, value)
		return map[string]interface{}{
			"channel": ch.String(),
			"value":   p.ColorBalance(ch),
		}, nil

	case "suspend":
		p.Suspend()
		return map[string]interface{}{"has_pipeline": p.HasPipeline()}, nil

	case "restart":
		if err := p.Restart(); err != nil {
			return nil, err
		}
		return map[string]interface{}{
			"has_pipeline": p.HasPipeline(),
			"run_id":       p.RunID(),
		}, nil

	default:
		return nil, fmt.Errorf("unknown command %q", cmd.Command)
	}
}

func (h *Handler) status() map[string]interface{} {
	p := h.player
	data := map[string]interface{}{
		"has_pipeline":  p.HasPipeline(),
		"state":         p.State().String(),
		"end_of_stream": p.IsEndOfStream(),
	}
	if !p.HasPipeline() {
		return data
	}

	data["description"] = p.Description()
	data["run_id"] = p.RunID()
	data["duration_ns"] = p.Duration()
	data["volume"] = p.Volume()
	if pos, err := p.Position(); err == nil {
		data["position_ns"] = pos
	}
	return data
}

// sendResponse publishes a response on the status topic
func (h *Handler) sendResponse(resp Response) {
	resp.Timestamp = time.Now().UTC().Format(time.RFC3339Nano)

	payload, err := json.Marshal(resp)
	if err != nil {
		h.logger.Error("control: failed to marshal response", "error", err)
		return
	}

	topic := h.cfg.Topics.Status
	qos := h.cfg.QoS["status"]

	token := h.client.Publish(topic, qos, false, payload)
	if !token.WaitTimeout(publishTimeout) {
		h.logger.Error("control: response publish timeout")
		return
	}
	if err := token.Error(); err != nil {
		h.logger.Error("control: failed to publish response", "error", err)
		return
	}

	h.logger.Debug("control: response sent", "command_ack", resp.CommandAck, "status", resp.Status)
}
