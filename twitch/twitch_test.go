package twitch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/tycoon/sched"
	"github.com/rs/zerolog"
)

func TestParseLine(t *testing.T) {
	tests := []struct {
		name     string
		line     string
		ok       bool
		command  string
		nick     string
		channel  string
		trailing string
	}{
		{name: "ping", line: "PING :tmi.twitch.tv\r\n", ok: true, command: "PING", trailing: "tmi.twitch.tv"},
		{
			name:    "privmsg",
			line:    ":alice!alice@alice.tmi.twitch.tv PRIVMSG #arena :hello there",
			ok:      true,
			command: "PRIVMSG", nick: "alice", channel: "arena", trailing: "hello there",
		},
		{
			name:    "tagged",
			line:    "@badge-info=;display-name=Bob;color=#FF0000 :bob!bob@bob.tmi.twitch.tv PRIVMSG #arena :!hype :D",
			ok:      true,
			command: "PRIVMSG", nick: "bob", channel: "arena", trailing: "!hype :D",
		},
		{name: "numeric", line: ":tmi.twitch.tv 001 justinfan1 :Welcome, GLHF!", ok: true, command: "001", trailing: "Welcome, GLHF!"},
		{name: "empty", line: "\r\n", ok: false},
		{name: "prefix only", line: ":tmi.twitch.tv", ok: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, ok := ParseLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("ok=%v want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if m.Command != tt.command || m.Trailing != tt.trailing {
				t.Fatalf("got command %q trailing %q", m.Command, m.Trailing)
			}
			if tt.nick != "" && m.Nick() != tt.nick {
				t.Fatalf("got nick %q want %q", m.Nick(), tt.nick)
			}
			if tt.channel != "" && m.Channel() != tt.channel {
				t.Fatalf("got channel %q want %q", m.Channel(), tt.channel)
			}
		})
	}
}

func TestTagUnescape(t *testing.T) {
	m, ok := ParseLine(`@system-msg=two\sword\:s :tmi.twitch.tv USERNOTICE #arena`)
	if !ok || m.Tags["system-msg"] != "two word;s" {
		t.Fatalf("unexpected tags %+v", m.Tags)
	}
}

func TestRewarderCooldown(t *testing.T) {
	r := NewRewarder(RewardConfig{CoinsPerMessage: 2, HypeBonus: 10, Cooldown: 30 * time.Second})
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	if got := r.Award("Alice", "hi", t0); got != 2 {
		t.Fatalf("expected 2 coins, got %d", got)
	}
	if got := r.Award("alice", "!hype", t0.Add(10*time.Second)); got != 0 {
		t.Fatalf("cooldown should block, got %d", got)
	}
	if got := r.Award("alice", "!HYPE let's go", t0.Add(30*time.Second)); got != 12 {
		t.Fatalf("expected hype bonus after cooldown, got %d", got)
	}
	if got := r.Award("bob", "hi", t0); got != 2 {
		t.Fatalf("cooldown is per chatter, got %d", got)
	}
	if got := r.Award("  ", "hi", t0); got != 0 {
		t.Fatalf("anonymous messages earn nothing")
	}
}

func TestClientJoinsAndRewards(t *testing.T) {
	lines := make(chan string, 16)
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ws, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer ws.Close()
		for i := 0; i < 4; i++ {
			_, b, err := ws.ReadMessage()
			if err != nil {
				return
			}
			lines <- strings.TrimSpace(string(b))
		}
		_ = ws.WriteMessage(websocket.TextMessage, []byte("PING :tmi.twitch.tv\r\n:carol!carol@carol.tmi.twitch.tv PRIVMSG #arena :!hype\r\n"))
		_, b, err := ws.ReadMessage()
		if err == nil {
			lines <- strings.TrimSpace(string(b))
		}
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}))
	defer srv.Close()

	s := sched.New()
	granted := map[string]int{}
	c := NewClient(Options{
		URL:       "ws" + strings.TrimPrefix(srv.URL, "http"),
		Channel:   "#Arena",
		Scheduler: s,
		Grant:     func(nick string, coins int) { granted[nick] += coins },
		Logger:    zerolog.Nop(),
	})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = c.Run(ctx) }()

	var got []string
	timeout := time.After(2 * time.Second)
	for len(got) < 5 {
		select {
		case l := <-lines:
			got = append(got, l)
		case <-timeout:
			t.Fatalf("timed out, got %v", got)
		}
	}
	if got[3] != "JOIN #arena" || !strings.HasPrefix(got[2], "NICK justinfan") {
		t.Fatalf("unexpected handshake %v", got)
	}
	if got[4] != "PONG :tmi.twitch.tv" {
		t.Fatalf("expected pong, got %q", got[4])
	}

	deadline := time.Now().Add(2 * time.Second)
	for granted["carol"] == 0 {
		if time.Now().After(deadline) {
			t.Fatalf("reward never granted")
		}
		s.Advance(time.Millisecond)
		time.Sleep(2 * time.Millisecond)
	}
	if granted["carol"] != 6 {
		t.Fatalf("expected 1+5 coins, got %d", granted["carol"])
	}
}
