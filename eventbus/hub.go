package eventbus

import (
	"encoding/json"
	"math/rand/v2"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Conn is one connected game client.
type Conn interface {
	Send([]byte) error
	Close() error
}

// Hub commands, sent on Inbox.
type (
	Join struct {
		Conn  Conn
		Reply chan<- string
	}
	Leave struct {
		ClientID string
	}
	Trigger struct {
		Request TriggerRequest
		Reply   chan<- Event
	}
	ClientMessage struct {
		ClientID string
		Envelope Envelope
	}
	ListEvents struct {
		Reply chan<- []Event
	}
	// Sweep ends every event whose time is up.
	Sweep struct{}
)

type HubOptions struct {
	SweepInterval     time.Duration
	AutoEventInterval time.Duration
	CoinRainCoins     int
	Now               func() time.Time
	NewID             func() string
	Logger            zerolog.Logger
}

// Hub owns the connected clients and the live events. Everything happens on
// the Run goroutine.
type Hub struct {
	Inbox chan any

	opts    HubOptions
	clients map[string]Conn
	events  map[string]*Event
	votes   map[string]map[string]string
	claims  map[string]map[string]bool
	quit    chan struct{}
	log     zerolog.Logger
}

func NewHub(opts HubOptions) *Hub {
	if opts.SweepInterval <= 0 {
		opts.SweepInterval = time.Second
	}
	if opts.CoinRainCoins <= 0 {
		opts.CoinRainCoins = 50
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = func() string { return uuid.NewString() }
	}
	return &Hub{
		Inbox:   make(chan any, 256),
		opts:    opts,
		clients: make(map[string]Conn),
		events:  make(map[string]*Event),
		votes:   make(map[string]map[string]string),
		claims:  make(map[string]map[string]bool),
		quit:    make(chan struct{}),
		log:     opts.Logger,
	}
}

func (h *Hub) Stop() {
	close(h.quit)
}

func (h *Hub) Run() {
	sweep := time.NewTicker(h.opts.SweepInterval)
	defer sweep.Stop()

	var auto <-chan time.Time
	if h.opts.AutoEventInterval > 0 {
		t := time.NewTicker(h.opts.AutoEventInterval)
		defer t.Stop()
		auto = t.C
	}

	for {
		select {
		case <-h.quit:
			for id, c := range h.clients {
				_ = c.Close()
				delete(h.clients, id)
			}
			return
		case cmd := <-h.Inbox:
			h.handleCommand(cmd)
		case <-sweep.C:
			h.sweep()
		case <-auto:
			h.autoEvent()
		}
	}
}

func (h *Hub) handleCommand(cmd any) {
	switch c := cmd.(type) {
	case Join:
		id := h.opts.NewID()
		h.clients[id] = c.Conn
		h.sendTo(id, MsgWelcome, Welcome{ClientID: id})
		h.sendTo(id, MsgActiveEvents, h.activeEvents())
		h.log.Info().Str("client", id).Int("clients", len(h.clients)).Msg("client joined")
		if c.Reply != nil {
			c.Reply <- id
		}
	case Leave:
		h.removeClient(c.ClientID)
	case Trigger:
		ev := h.start(c.Request)
		if c.Reply != nil {
			c.Reply <- ev
		}
	case ClientMessage:
		h.handleClient(c.ClientID, c.Envelope)
	case ListEvents:
		c.Reply <- h.activeEvents()
	case Sweep:
		h.sweep()
	}
}

func (h *Hub) removeClient(id string) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	_ = c.Close()
	delete(h.clients, id)
	h.log.Info().Str("client", id).Int("clients", len(h.clients)).Msg("client left")
}

func (h *Hub) start(req TriggerRequest) Event {
	d := time.Duration(req.DurationMS) * time.Millisecond
	if d <= 0 {
		d = DefaultDurations[req.Type]
	}
	data := req.Data
	if len(data) == 0 {
		data = h.defaultData(req.Type)
	}
	now := h.opts.Now()
	ev := &Event{
		ID:         h.opts.NewID(),
		Type:       req.Type,
		Data:       data,
		DurationMS: d.Milliseconds(),
		StartedAt:  now,
		EndsAt:     now.Add(d),
	}
	h.events[ev.ID] = ev
	if ev.Type == ServerVote {
		h.votes[ev.ID] = make(map[string]string)
	}
	if ev.Type == CoinRain {
		h.claims[ev.ID] = make(map[string]bool)
	}
	h.broadcast(MsgEvent, ev)
	h.log.Info().Str("event", ev.ID).Str("type", ev.Type).Dur("duration", d).Msg("event started")
	return *ev
}

func (h *Hub) defaultData(t string) json.RawMessage {
	var v any
	switch t {
	case SpeedBoost:
		v = SpeedData{Multiplier: 1.5}
	case CoinRain:
		v = CoinRainData{Coins: h.opts.CoinRainCoins}
	case ServerVote:
		v = VoteData{Question: "Next arena modifier?", Options: []string{"double_coins", "tough_enemies"}}
	default:
		return nil
	}
	b, _ := json.Marshal(v)
	return b
}

func (h *Hub) handleClient(id string, env Envelope) {
	if _, ok := h.clients[id]; !ok {
		return
	}
	switch env.Type {
	case MsgVote:
		v, err := DecodeData[Vote](env)
		if err != nil {
			h.log.Debug().Err(err).Str("client", id).Msg("bad vote")
			return
		}
		ballots, ok := h.votes[v.EventID]
		if !ok || !h.validOption(v.EventID, v.Option) {
			return
		}
		ballots[id] = v.Option
	case MsgClaimCoins:
		cl, err := DecodeData[ClaimCoins](env)
		if err != nil {
			return
		}
		claimed, ok := h.claims[cl.EventID]
		if !ok || claimed[id] {
			return
		}
		claimed[id] = true
		coins := h.opts.CoinRainCoins
		if ev := h.events[cl.EventID]; ev != nil {
			var d CoinRainData
			if json.Unmarshal(ev.Data, &d) == nil && d.Coins > 0 {
				coins = d.Coins
			}
		}
		h.sendTo(id, MsgCoinsGranted, CoinsGranted{EventID: cl.EventID, Coins: coins})
	case MsgSpeedResult:
		r, err := DecodeData[SpeedResult](env)
		if err != nil {
			return
		}
		h.log.Info().Str("client", id).Str("event", r.EventID).Float64("score", r.Score).Msg("speed result")
	default:
		h.log.Debug().Str("client", id).Str("type", env.Type).Msg("unknown client message")
	}
}

func (h *Hub) validOption(eventID, option string) bool {
	ev := h.events[eventID]
	if ev == nil {
		return false
	}
	var d VoteData
	if err := json.Unmarshal(ev.Data, &d); err != nil {
		return false
	}
	return slices.Contains(d.Options, option)
}

func (h *Hub) sweep() {
	now := h.opts.Now()
	for id, ev := range h.events {
		if now.Before(ev.EndsAt) {
			continue
		}
		h.end(id)
	}
}

func (h *Hub) end(id string) {
	ev := h.events[id]
	if ev == nil {
		return
	}
	delete(h.events, id)
	delete(h.claims, id)
	if ballots, ok := h.votes[id]; ok {
		delete(h.votes, id)
		h.broadcast(MsgVoteResult, Tally(id, ballots))
	}
	h.broadcast(MsgEventEnded, EventEnded{ID: id})
	h.log.Info().Str("event", id).Str("type", ev.Type).Msg("event ended")
}

// Tally counts ballots. Ties go to the alphabetically first option.
func Tally(eventID string, ballots map[string]string) VoteResult {
	res := VoteResult{EventID: eventID, Counts: make(map[string]int)}
	for _, opt := range ballots {
		res.Counts[opt]++
	}
	best := -1
	for opt, n := range res.Counts {
		if n > best || (n == best && opt < res.Winner) {
			best = n
			res.Winner = opt
		}
	}
	return res
}

func (h *Hub) autoEvent() {
	types := make([]string, 0, len(DefaultDurations))
	for t := range DefaultDurations {
		types = append(types, t)
	}
	slices.Sort(types)
	h.start(TriggerRequest{Type: types[rand.IntN(len(types))]})
}

func (h *Hub) activeEvents() []Event {
	out := make([]Event, 0, len(h.events))
	for _, ev := range h.events {
		out = append(out, *ev)
	}
	slices.SortFunc(out, func(a, b Event) int { return a.StartedAt.Compare(b.StartedAt) })
	return out
}

func (h *Hub) sendTo(id, t string, payload any) {
	c, ok := h.clients[id]
	if !ok {
		return
	}
	b, err := Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("encode failed")
		return
	}
	if err := c.Send(b); err != nil {
		h.removeClient(id)
	}
}

func (h *Hub) broadcast(t string, payload any) {
	b, err := Encode(t, payload)
	if err != nil {
		h.log.Error().Err(err).Msg("encode failed")
		return
	}
	var failed []string
	for id, c := range h.clients {
		if err := c.Send(b); err != nil {
			failed = append(failed, id)
		}
	}
	for _, id := range failed {
		h.removeClient(id)
	}
}
