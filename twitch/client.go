package twitch

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/tycoon/sched"
	"github.com/rs/zerolog"
)

const (
	DefaultURL     = "wss://irc-ws.chat.twitch.tv:443"
	reconnectDelay = 10 * time.Second
	writeWait      = 10 * time.Second
)

type Options struct {
	URL       string
	Channel   string
	Rewards   RewardConfig
	Scheduler *sched.Scheduler
	// Grant runs on the scheduler goroutine for every rewarded message.
	Grant  func(nick string, coins int)
	Logger zerolog.Logger
	Now    func() time.Time
}

// Client reads a channel's chat anonymously and pays out chat rewards.
type Client struct {
	opts     Options
	nick     string
	rewarder *Rewarder

	mu   sync.Mutex
	conn *websocket.Conn
}

func NewClient(opts Options) *Client {
	if opts.URL == "" {
		opts.URL = DefaultURL
	}
	if opts.Rewards == (RewardConfig{}) {
		opts.Rewards = DefaultRewardConfig()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Channel = strings.ToLower(strings.TrimPrefix(opts.Channel, "#"))
	return &Client{
		opts:     opts,
		nick:     fmt.Sprintf("justinfan%d", 10000+rand.IntN(89999)),
		rewarder: NewRewarder(opts.Rewards),
	}
}

func (c *Client) Run(ctx context.Context) error {
	for {
		err := c.session(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		c.opts.Logger.Warn().Err(err).Str("channel", c.opts.Channel).Msg("twitch chat disconnected")
		select {
		case <-time.After(reconnectDelay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func (c *Client) session(ctx context.Context) error {
	ws, _, err := websocket.DefaultDialer.DialContext(ctx, c.opts.URL, nil)
	if err != nil {
		return fmt.Errorf("twitch: dial: %w", err)
	}
	c.mu.Lock()
	c.conn = ws
	c.mu.Unlock()
	stop := context.AfterFunc(ctx, func() { _ = ws.Close() })
	defer stop()
	defer func() {
		c.mu.Lock()
		c.conn = nil
		c.mu.Unlock()
		_ = ws.Close()
	}()

	for _, line := range []string{
		"CAP REQ :twitch.tv/tags",
		"PASS SCHMOOPIIE",
		"NICK " + c.nick,
		"JOIN #" + c.opts.Channel,
	} {
		if err := c.send(line); err != nil {
			return err
		}
	}
	c.opts.Logger.Info().Str("channel", c.opts.Channel).Str("nick", c.nick).Msg("joined twitch chat")

	for {
		_, data, err := ws.ReadMessage()
		if err != nil {
			return fmt.Errorf("twitch: read: %w", err)
		}
		for _, line := range strings.Split(string(data), "\r\n") {
			msg, ok := ParseLine(line)
			if !ok {
				continue
			}
			if err := c.handle(msg); err != nil {
				return err
			}
		}
	}
}

func (c *Client) handle(msg Message) error {
	switch msg.Command {
	case "PING":
		return c.send("PONG :" + msg.Trailing)
	case "RECONNECT":
		return fmt.Errorf("twitch: server requested reconnect")
	case "PRIVMSG":
		if msg.Channel() != c.opts.Channel {
			return nil
		}
		nick := msg.Nick()
		coins := c.rewarder.Award(nick, msg.Trailing, c.opts.Now())
		if coins > 0 && c.opts.Grant != nil && c.opts.Scheduler != nil {
			c.opts.Scheduler.Post(func() { c.opts.Grant(nick, coins) })
		}
	}
	return nil
}

func (c *Client) send(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.conn == nil {
		return fmt.Errorf("twitch: not connected")
	}
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := c.conn.WriteMessage(websocket.TextMessage, []byte(line+"\r\n")); err != nil {
		return fmt.Errorf("twitch: write: %w", err)
	}
	return nil
}
