package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/tycoon/sched"
	"github.com/rs/zerolog"
)

const reconnectDelay = 5 * time.Second

type ClientOptions struct {
	URL       string
	Scheduler *sched.Scheduler
	Logger    zerolog.Logger
	Now       func() time.Time
}

// Client is the game's connection to the event server. Run owns the socket;
// everything it receives is posted to the scheduler, so the event state and
// the hooks are only touched on the game goroutine.
type Client struct {
	url    string
	sched  *sched.Scheduler
	log    zerolog.Logger
	now    func() time.Time
	dialer *websocket.Dialer

	mu   sync.Mutex
	conn *websocket.Conn

	clientID string
	active   map[string]Event
	consumed map[string]bool
	expiry   map[string]*sched.Timer

	OnEvent      func(Event)
	OnEventEnded func(Event)
	OnVoteResult func(VoteResult)
	OnCoins      func(CoinsGranted)
}

func NewClient(opts ClientOptions) *Client {
	if opts.Scheduler == nil {
		opts.Scheduler = sched.New()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Client{
		url:      opts.URL,
		sched:    opts.Scheduler,
		log:      opts.Logger,
		now:      opts.Now,
		dialer:   websocket.DefaultDialer,
		active:   make(map[string]Event),
		consumed: make(map[string]bool),
		expiry:   make(map[string]*sched.Timer),
	}
}

// Run keeps a connection open until ctx is cancelled, reconnecting after
// failures.
func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.log.Warn().Err(err).Str("url", c.url).Dur("retry", reconnectDelay).Msg("event server connection lost")
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	ws, _, err := c.dialer.DialContext(ctx, c.url, nil)
	if err != nil {
		return fmt.Errorf("eventbus: dial %s: %w", c.url, err)
	}
	ws.SetReadLimit(readLimit)
	c.mu.Lock()
	c.conn = ws
	c.mu.Unlock()
	c.log.Info().Str("url", c.url).Msg("connected to event server")

	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = ws.Close()
	}()

	for {
		_, msg, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("eventbus: read: %w", err)
		}
		env, err := DecodeEnvelope(msg)
		if err != nil {
			c.log.Debug().Err(err).Msg("bad message from event server")
			continue
		}
		c.sched.Post(func() { c.handle(env) })
	}
}

func (c *Client) handle(env Envelope) {
	switch env.Type {
	case MsgWelcome:
		if w, err := DecodeData[Welcome](env); err == nil {
			c.clientID = w.ClientID
		}
	case MsgActiveEvents:
		evs, err := DecodeData[[]Event](env)
		if err != nil {
			return
		}
		for _, ev := range evs {
			c.add(ev)
		}
	case MsgEvent:
		if ev, err := DecodeData[Event](env); err == nil {
			c.add(ev)
		}
	case MsgEventEnded:
		if e, err := DecodeData[EventEnded](env); err == nil {
			c.remove(e.ID)
		}
	case MsgVoteResult:
		if r, err := DecodeData[VoteResult](env); err == nil && c.OnVoteResult != nil {
			c.OnVoteResult(r)
		}
	case MsgCoinsGranted:
		if g, err := DecodeData[CoinsGranted](env); err == nil && c.OnCoins != nil {
			c.OnCoins(g)
		}
	}
}

func (c *Client) add(ev Event) {
	if _, ok := c.active[ev.ID]; ok {
		return
	}
	remaining := ev.Duration()
	if !ev.EndsAt.IsZero() {
		remaining = min(remaining, ev.EndsAt.Sub(c.now()))
	}
	if remaining <= 0 {
		return
	}
	c.active[ev.ID] = ev
	id := ev.ID
	c.expiry[id] = c.sched.After(remaining, func() { c.remove(id) })
	c.log.Info().Str("event", ev.ID).Str("type", ev.Type).Msg("live event started")
	if c.OnEvent != nil {
		c.OnEvent(ev)
	}
}

func (c *Client) remove(id string) {
	ev, ok := c.active[id]
	if !ok {
		return
	}
	delete(c.active, id)
	delete(c.consumed, id)
	if t := c.expiry[id]; t != nil {
		t.Cancel()
	}
	delete(c.expiry, id)
	if c.OnEventEnded != nil {
		c.OnEventEnded(ev)
	}
}

func (c *Client) ClientID() string { return c.clientID }

// Active returns the live events.
func (c *Client) Active() []Event {
	out := make([]Event, 0, len(c.active))
	for _, ev := range c.active {
		out = append(out, ev)
	}
	return out
}

// ConsumeCriticalMadness hands out the id of a live critical madness event
// that has not been used yet. Each event can be consumed once.
func (c *Client) ConsumeCriticalMadness() (string, bool) {
	if c == nil {
		return "", false
	}
	var pick *Event
	for id, ev := range c.active {
		if ev.Type != CriticalMadness || c.consumed[id] {
			continue
		}
		if pick == nil || ev.StartedAt.Before(pick.StartedAt) {
			e := ev
			pick = &e
		}
	}
	if pick == nil {
		return "", false
	}
	c.consumed[pick.ID] = true
	return pick.ID, true
}

// CoinRain returns a live coin rain event.
func (c *Client) CoinRain() (Event, bool) {
	if c == nil {
		return Event{}, false
	}
	for _, ev := range c.active {
		if ev.Type == CoinRain {
			return ev, true
		}
	}
	return Event{}, false
}

func (c *Client) CoinRainActive() bool {
	_, ok := c.CoinRain()
	return ok
}

// SpeedMultiplier is the strongest live speed boost, or 1.
func (c *Client) SpeedMultiplier() float64 {
	m := 1.0
	if c == nil {
		return m
	}
	for _, ev := range c.active {
		if ev.Type != SpeedBoost {
			continue
		}
		d := SpeedData{Multiplier: 1.5}
		if len(ev.Data) > 0 {
			_ = json.Unmarshal(ev.Data, &d)
		}
		if d.Multiplier > m {
			m = d.Multiplier
		}
	}
	return m
}

// Emit sends a player action to the server.
func (c *Client) Emit(action string, payload any) error {
	b, err := Encode(action, payload)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return ErrClosed
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, b); err != nil {
		return fmt.Errorf("eventbus: emit %s: %w", action, err)
	}
	return nil
}

func (c *Client) ClaimCoins(eventID string) error {
	return c.Emit(MsgClaimCoins, ClaimCoins{EventID: eventID})
}

func (c *Client) Vote(eventID, option string) error {
	return c.Emit(MsgVote, Vote{EventID: eventID, Option: option})
}

func (c *Client) ReportSpeed(eventID string, score float64) error {
	return c.Emit(MsgSpeedResult, SpeedResult{EventID: eventID, Score: score})
}
