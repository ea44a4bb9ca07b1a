package control

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/e7canasta/gstplay"
	"github.com/e7canasta/gstplay/internal/config"
)

// fakeToken is an already completed token
type fakeToken struct{ err error }

func (t fakeToken) Wait() bool                     { return true }
func (t fakeToken) WaitTimeout(time.Duration) bool { return true }
func (t fakeToken) Error() error                   { return t.err }
func (t fakeToken) Done() <-chan struct{} {
	ch := make(chan struct{})
	close(ch)
	return ch
}

type published struct {
	topic   string
	qos     byte
	payload []byte
}

type fakeClient struct {
	mu           sync.Mutex
	subscribeErr error
	handler      mqtt.MessageHandler
	subscribed   string
	unsubscribed []string
	published    chan published
}

func newFakeClient() *fakeClient {
	return &fakeClient{published: make(chan published, 16)}
}

func (c *fakeClient) IsConnected() bool      { return true }
func (c *fakeClient) IsConnectionOpen() bool { return true }
func (c *fakeClient) Connect() mqtt.Token    { return fakeToken{} }
func (c *fakeClient) Disconnect(uint)        {}

func (c *fakeClient) Publish(topic string, qos byte, _ bool, payload interface{}) mqtt.Token {
	c.published <- published{topic: topic, qos: qos, payload: payload.([]byte)}
	return fakeToken{}
}

func (c *fakeClient) Subscribe(topic string, _ byte, callback mqtt.MessageHandler) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.subscribeErr != nil {
		return fakeToken{err: c.subscribeErr}
	}
	c.subscribed = topic
	c.handler = callback
	return fakeToken{}
}

func (c *fakeClient) SubscribeMultiple(map[string]byte, mqtt.MessageHandler) mqtt.Token {
	return fakeToken{}
}

func (c *fakeClient) Unsubscribe(topics ...string) mqtt.Token {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.unsubscribed = append(c.unsubscribed, topics...)
	return fakeToken{}
}

func (c *fakeClient) AddRoute(string, mqtt.MessageHandler) {}

func (c *fakeClient) OptionsReader() mqtt.ClientOptionsReader {
	return mqtt.ClientOptionsReader{}
}

// deliver feeds a payload to the subscribed handler
func (c *fakeClient) deliver(payload string) {
	c.mu.Lock()
	handler := c.handler
	c.mu.Unlock()
	handler(c, fakeMessage{topic: c.subscribed, payload: []byte(payload)})
}

func (c *fakeClient) nextResponse(t *testing.T) (published, Response) {
	t.Helper()
	select {
	case p := <-c.published:
		var resp Response
		require.NoError(t, json.Unmarshal(p.payload, &resp))
		return p, resp
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for response")
		return published{}, Response{}
	}
}

type fakeMessage struct {
	topic   string
	payload []byte
}

func (m fakeMessage) Duplicate() bool   { return false }
func (m fakeMessage) Qos() byte         { return 1 }
func (m fakeMessage) Retained() bool    { return false }
func (m fakeMessage) Topic() string     { return m.topic }
func (m fakeMessage) MessageID() uint16 { return 1 }
func (m fakeMessage) Payload() []byte   { return m.payload }
func (m fakeMessage) Ack()              {}

type fakePlayer struct {
	mu         sync.Mutex
	calls      []string
	pipeline   bool
	state      gstplay.State
	position   int64
	positionOK bool
	volume     float64
	seekedTo   int64
	mask       gstplay.ChannelMask
	balance    map[gstplay.Channel]float64
	restartErr error
}

func newFakePlayer() *fakePlayer {
	return &fakePlayer{
		pipeline:   true,
		state:      gstplay.StatePaused,
		position:   2 * int64(time.Second),
		positionOK: true,
		volume:     0.5,
		mask:       0xF,
		balance:    map[gstplay.Channel]float64{},
	}
}

func (p *fakePlayer) record(call string) {
	p.mu.Lock()
	p.calls = append(p.calls, call)
	p.mu.Unlock()
}

func (p *fakePlayer) recorded() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.calls...)
}

func (p *fakePlayer) HasPipeline() bool    { return p.pipeline }
func (p *fakePlayer) Description() string  { return "playbin uri=file:///a.mp4" }
func (p *fakePlayer) RunID() string        { return "run-1" }
func (p *fakePlayer) State() gstplay.State { return p.state }
func (p *fakePlayer) Duration() int64      { return 10 * int64(time.Second) }
func (p *fakePlayer) Volume() float64      { return p.volume }
func (p *fakePlayer) IsEndOfStream() bool  { return false }

func (p *fakePlayer) Position() (int64, error) {
	if !p.positionOK {
		return 0, gstplay.ErrQueryFailed
	}
	return p.position, nil
}

func (p *fakePlayer) Play() {
	p.record("play")
	p.state = gstplay.StatePlaying
}

func (p *fakePlayer) Pause() {
	p.record("pause")
	p.state = gstplay.StatePaused
}

func (p *fakePlayer) Seek(position int64) {
	p.record("seek")
	p.seekedTo = position
}

func (p *fakePlayer) SetVolume(volume float64) {
	p.record("set_volume")
	p.volume = volume
}

func (p *fakePlayer) PrepareColorBalance() gstplay.ChannelMask {
	p.record("prepare_color_balance")
	return p.mask
}

func (p *fakePlayer) SetColorBalance(ch gstplay.Channel, value float64) {
	p.record("set_color_balance")
	p.balance[ch] = value
}

func (p *fakePlayer) ColorBalance(ch gstplay.Channel) float64 {
	if v, ok := p.balance[ch]; ok {
		return v
	}
	return -1
}

func (p *fakePlayer) Suspend() {
	p.record("suspend")
	p.pipeline = false
}

func (p *fakePlayer) Restart() error {
	p.record("restart")
	if p.restartErr != nil {
		return p.restartErr
	}
	p.pipeline = true
	return nil
}

func (p *fakePlayer) Interrupt() { p.record("interrupt") }

// inlineLoop runs invoked functions immediately
type inlineLoop struct{}

func (inlineLoop) Invoke(fn func()) { fn() }

// stalledLoop never runs invoked functions
type stalledLoop struct{}

func (stalledLoop) Invoke(func()) {}

func testConfig() config.MQTTConfig {
	return config.Default().MQTT
}

func newTestHandler(player Player, loop Invoker) (*Handler, *fakeClient) {
	client := newFakeClient()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewHandler(testConfig(), client, player, loop, logger), client
}

func TestHandleCommand(t *testing.T) {
	tests := []struct {
		name   string
		cmd    Command
		setup  func(p *fakePlayer)
		status string
		errMsg string
		calls  []string
		check  func(t *testing.T, p *fakePlayer, resp Response)
	}{
		{
			name:   "play",
			cmd:    Command{Command: "play"},
			status: "success",
			calls:  []string{"play"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, "PLAYING", resp.Data["state"])
			},
		},
		{
			name:   "pause",
			cmd:    Command{Command: "pause"},
			setup:  func(p *fakePlayer) { p.state = gstplay.StatePlaying },
			status: "success",
			calls:  []string{"pause"},
		},
		{
			name:   "play without pipeline",
			cmd:    Command{Command: "play"},
			setup:  func(p *fakePlayer) { p.pipeline = false },
			status: "error",
			errMsg: gstplay.ErrNoPipeline.Error(),
		},
		{
			name:   "seek",
			cmd:    Command{Command: "seek", Params: map[string]interface{}{"position_ns": 3e9}},
			status: "success",
			calls:  []string{"seek"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, int64(3e9), p.seekedTo)
			},
		},
		{
			name:   "seek missing position",
			cmd:    Command{Command: "seek"},
			status: "error",
			errMsg: "position_ns",
		},
		{
			name:   "seek negative position",
			cmd:    Command{Command: "seek", Params: map[string]interface{}{"position_ns": -1.0}},
			status: "error",
			errMsg: "position_ns",
		},
		{
			name:   "set volume",
			cmd:    Command{Command: "set_volume", Params: map[string]interface{}{"volume": 0.8}},
			status: "success",
			calls:  []string{"set_volume"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, 0.8, resp.Data["volume"])
			},
		},
		{
			name:   "set volume wrong type",
			cmd:    Command{Command: "set_volume", Params: map[string]interface{}{"volume": "loud"}},
			status: "error",
			errMsg: "volume",
		},
		{
			name: "set color balance",
			cmd: Command{Command: "set_color_balance", Params: map[string]interface{}{
				"channel": "hue", "value": 70.0,
			}},
			status: "success",
			calls:  []string{"prepare_color_balance", "set_color_balance"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, 70.0, p.balance[gstplay.ChannelHue])
				assert.Equal(t, "hue", resp.Data["channel"])
			},
		},
		{
			name: "color balance channel unavailable",
			cmd: Command{Command: "set_color_balance", Params: map[string]interface{}{
				"channel": "saturation", "value": 10.0,
			}},
			setup:  func(p *fakePlayer) { p.mask = 0x1 },
			status: "error",
			errMsg: "saturation",
			calls:  []string{"prepare_color_balance"},
		},
		{
			name: "color balance unknown channel",
			cmd: Command{Command: "set_color_balance", Params: map[string]interface{}{
				"channel": "gamma", "value": 10.0,
			}},
			status: "error",
			errMsg: "gamma",
		},
		{
			name: "color balance out of range",
			cmd: Command{Command: "set_color_balance", Params: map[string]interface{}{
				"channel": "hue", "value": 101.0,
			}},
			status: "error",
			errMsg: "value",
		},
		{
			name:   "suspend",
			cmd:    Command{Command: "suspend"},
			status: "success",
			calls:  []string{"suspend"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, false, resp.Data["has_pipeline"])
			},
		},
		{
			name:   "restart",
			cmd:    Command{Command: "restart"},
			setup:  func(p *fakePlayer) { p.pipeline = false },
			status: "success",
			calls:  []string{"restart"},
			check: func(t *testing.T, p *fakePlayer, resp Response) {
				assert.Equal(t, "run-1", resp.Data["run_id"])
			},
		},
		{
			name:   "restart parse failure",
			cmd:    Command{Command: "restart"},
			setup:  func(p *fakePlayer) { p.restartErr = &gstplay.ParseError{Description: "bogus", Message: "no element"} },
			status: "error",
			errMsg: "no element",
			calls:  []string{"restart"},
		},
		{
			name:   "stop",
			cmd:    Command{Command: "stop"},
			status: "success",
			calls:  []string{"interrupt"},
		},
		{
			name:   "unknown command",
			cmd:    Command{Command: "rewind"},
			status: "error",
			errMsg: `unknown command "rewind"`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			player := newFakePlayer()
			if tt.setup != nil {
				tt.setup(player)
			}
			h, _ := newTestHandler(player, inlineLoop{})

			resp := h.handleCommand(tt.cmd)

			assert.Equal(t, tt.cmd.Command, resp.CommandAck)
			assert.Equal(t, tt.status, resp.Status)
			if tt.errMsg != "" {
				assert.Contains(t, resp.Error, tt.errMsg)
			} else {
				assert.Empty(t, resp.Error)
			}
			assert.Equal(t, tt.calls, player.recorded())
			if tt.check != nil {
				tt.check(t, player, resp)
			}
		})
	}
}

func TestHandleCommand_Status(t *testing.T) {
	player := newFakePlayer()
	h, _ := newTestHandler(player, inlineLoop{})

	resp := h.handleCommand(Command{Command: "get_status"})
	require.Equal(t, "success", resp.Status)
	assert.Equal(t, true, resp.Data["has_pipeline"])
	assert.Equal(t, "PAUSED", resp.Data["state"])
	assert.Equal(t, "run-1", resp.Data["run_id"])
	assert.Equal(t, int64(2*time.Second), resp.Data["position_ns"])
	assert.Equal(t, int64(10*time.Second), resp.Data["duration_ns"])

	player.positionOK = false
	resp = h.handleCommand(Command{Command: "get_status"})
	assert.NotContains(t, resp.Data, "position_ns")

	player.pipeline = false
	resp = h.handleCommand(Command{Command: "get_status"})
	assert.Equal(t, false, resp.Data["has_pipeline"])
	assert.NotContains(t, resp.Data, "description")
}

func TestHandleCommand_LoopTimeout(t *testing.T) {
	old := commandTimeout
	commandTimeout = 20 * time.Millisecond
	t.Cleanup(func() { commandTimeout = old })

	player := newFakePlayer()
	h, _ := newTestHandler(player, stalledLoop{})

	resp := h.handleCommand(Command{Command: "play"})
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, errLoopBusy.Error(), resp.Error)
	assert.Empty(t, player.recorded())
}

func TestRun_CommandRoundTrip(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	player := newFakePlayer()
	h, client := newTestHandler(player, inlineLoop{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- h.Run(ctx) }()

	require.Eventually(t, func() bool {
		client.mu.Lock()
		defer client.mu.Unlock()
		return client.handler != nil
	}, 5*time.Second, 5*time.Millisecond)
	assert.Equal(t, "gstplay/control/gstplay", client.subscribed)

	client.deliver(`{"command":"seek","params":{"position_ns":1500000000}}`)
	pub, resp := client.nextResponse(t)
	assert.Equal(t, "gstplay/status/gstplay", pub.topic)
	assert.Equal(t, byte(0), pub.qos)
	assert.Equal(t, "seek", resp.CommandAck)
	assert.Equal(t, "success", resp.Status)
	assert.NotEmpty(t, resp.Timestamp)
	_, err := time.Parse(time.RFC3339Nano, resp.Timestamp)
	assert.NoError(t, err)
	assert.Equal(t, int64(1500000000), player.seekedTo)

	client.deliver(`{not json`)
	_, resp = client.nextResponse(t)
	assert.Equal(t, "unknown", resp.CommandAck)
	assert.Equal(t, "error", resp.Status)
	assert.Equal(t, "invalid JSON", resp.Error)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("handler did not stop")
	}
	assert.Equal(t, []string{"gstplay/control/gstplay"}, client.unsubscribed)
}

func TestRun_SubscribeFailure(t *testing.T) {
	h, client := newTestHandler(newFakePlayer(), inlineLoop{})
	client.subscribeErr = errors.New("not authorized")

	err := h.Run(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not authorized")
}
