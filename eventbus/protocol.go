package eventbus

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrClosed is returned when writing to a connection that is gone.
var ErrClosed = errors.New("eventbus: connection closed")

// Event types broadcast by the server.
const (
	CriticalMadness = "critical_madness"
	CoinRain        = "coin_rain"
	SpeedBoost      = "speed_boost"
	ServerVote      = "server_vote"
)

// Envelope types on the wire.
const (
	MsgWelcome      = "welcome"
	MsgActiveEvents = "active_events"
	MsgEvent        = "event"
	MsgEventEnded   = "event_ended"
	MsgVoteResult   = "vote_result"
	MsgCoinsGranted = "coins_granted"

	// client to server
	MsgClaimCoins  = "claim_coins"
	MsgVote        = "vote"
	MsgSpeedResult = "speed_result"
)

// DefaultDurations is how long each event type stays active when a trigger
// does not say.
var DefaultDurations = map[string]time.Duration{
	CriticalMadness: 30 * time.Second,
	CoinRain:        20 * time.Second,
	SpeedBoost:      30 * time.Second,
	ServerVote:      30 * time.Second,
}

// KnownType reports whether t is an event type the server can run.
func KnownType(t string) bool {
	_, ok := DefaultDurations[t]
	return ok
}

type Envelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// Event is one live event.
type Event struct {
	ID         string          `json:"eventId"`
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	DurationMS int64           `json:"durationMs"`
	StartedAt  time.Time       `json:"startedAt"`
	EndsAt     time.Time       `json:"endsAt"`
}

func (e Event) Duration() time.Duration {
	return time.Duration(e.DurationMS) * time.Millisecond
}

type Welcome struct {
	ClientID string `json:"clientId"`
}

type EventEnded struct {
	ID string `json:"eventId"`
}

// VoteData is the payload of a server_vote event.
type VoteData struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type Vote struct {
	EventID string `json:"eventId"`
	Option  string `json:"option"`
}

type VoteResult struct {
	EventID string         `json:"eventId"`
	Winner  string         `json:"winner"`
	Counts  map[string]int `json:"counts"`
}

// SpeedData is the payload of a speed_boost event.
type SpeedData struct {
	Multiplier float64 `json:"multiplier"`
}

// CoinRainData is the payload of a coin_rain event.
type CoinRainData struct {
	Coins int `json:"coins"`
}

type ClaimCoins struct {
	EventID string `json:"eventId"`
}

type CoinsGranted struct {
	EventID string `json:"eventId"`
	Coins   int    `json:"coins"`
}

type SpeedResult struct {
	EventID string  `json:"eventId"`
	Score   float64 `json:"score"`
}

// TriggerRequest is the body of POST /trigger.
type TriggerRequest struct {
	Type       string          `json:"type"`
	Data       json.RawMessage `json:"data,omitempty"`
	DurationMS int64           `json:"durationMs,omitempty"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("eventbus: encode: empty envelope type")
	}
	var data json.RawMessage
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("eventbus: encode %s: %w", t, err)
		}
		data = b
	}
	return json.Marshal(Envelope{Type: t, Data: data})
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("eventbus: decode: empty message")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, fmt.Errorf("eventbus: decode: %w", err)
	}
	if e.Type == "" {
		return Envelope{}, fmt.Errorf("eventbus: decode: missing type")
	}
	return e, nil
}

func DecodeData[T any](env Envelope) (T, error) {
	var out T
	if len(env.Data) == 0 {
		return out, fmt.Errorf("eventbus: empty data for %q", env.Type)
	}
	if err := json.Unmarshal(env.Data, &out); err != nil {
		return out, fmt.Errorf("eventbus: data for %q: %w", env.Type, err)
	}
	return out, nil
}
