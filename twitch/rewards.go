package twitch

import (
	"strings"
	"time"
)

// HypeCommand earns the hype bonus on top of the message reward.
const HypeCommand = "!hype"

type RewardConfig struct {
	CoinsPerMessage int           `yaml:"coins_per_message"`
	HypeBonus       int           `yaml:"hype_bonus"`
	Cooldown        time.Duration `yaml:"cooldown"`
}

func DefaultRewardConfig() RewardConfig {
	return RewardConfig{CoinsPerMessage: 1, HypeBonus: 5, Cooldown: 30 * time.Second}
}

// Rewarder turns chat activity into coins. Each chatter earns at most once
// per cooldown.
type Rewarder struct {
	cfg  RewardConfig
	last map[string]time.Time
}

func NewRewarder(cfg RewardConfig) *Rewarder {
	if cfg.CoinsPerMessage < 0 {
		cfg.CoinsPerMessage = 0
	}
	if cfg.HypeBonus < 0 {
		cfg.HypeBonus = 0
	}
	return &Rewarder{cfg: cfg, last: make(map[string]time.Time)}
}

// Award returns the coins earned by a chat message sent at the given time.
func (r *Rewarder) Award(nick, text string, at time.Time) int {
	nick = strings.ToLower(strings.TrimSpace(nick))
	if nick == "" {
		return 0
	}
	if prev, ok := r.last[nick]; ok && at.Sub(prev) < r.cfg.Cooldown {
		return 0
	}
	coins := r.cfg.CoinsPerMessage
	if strings.HasPrefix(strings.ToLower(strings.TrimSpace(text)), HypeCommand) {
		coins += r.cfg.HypeBonus
	}
	if coins <= 0 {
		return 0
	}
	r.last[nick] = at
	return coins
}
