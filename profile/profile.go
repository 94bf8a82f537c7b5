package profile

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Mode selects the arena variant a run belongs to.
type Mode string

const (
	ModeWave  Mode = "wave"
	ModeFloor Mode = "floor"
)

func ParseMode(s string) (Mode, error) {
	switch Mode(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWave:
		return ModeWave, nil
	case ModeFloor:
		return ModeFloor, nil
	default:
		return "", fmt.Errorf("profile: unknown arena mode %q", s)
	}
}

// Stats are the upgradeable player attributes.
type Stats struct {
	Damage    int     `json:"damage"`
	Armor     int     `json:"armor"`
	MoveSpeed float64 `json:"moveSpeed"`
	MaxHealth int     `json:"maxHealth"`
	SwordTier int     `json:"swordTier"`
}

// Checkpoint is an unfinished arena run.
type Checkpoint struct {
	Mode    Mode      `json:"mode"`
	Level   int       `json:"level"`
	Health  int       `json:"health"`
	Coins   int       `json:"coins"`
	SavedAt time.Time `json:"savedAt"`
}

// Profile is the persisted player record.
type Profile struct {
	ID            string      `json:"id,omitempty"`
	Money         int         `json:"money"`
	Stats         Stats       `json:"stats"`
	HealthPotions int         `json:"healthPotions"`
	BestArenaWave int         `json:"bestArenaWave"`
	BestFloor     int         `json:"bestFloor"`
	ArenaWins     int         `json:"arenaWins"`
	Achievements  []string    `json:"achievements,omitempty"`
	Checkpoint    *Checkpoint `json:"arenaCheckpoint,omitempty"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// Default is a fresh profile.
func Default() Profile {
	return Profile{
		Stats: Stats{
			Damage:    20,
			Armor:     2,
			MoveSpeed: 120,
			MaxHealth: 100,
			SwordTier: 0,
		},
		HealthPotions: 1,
	}
}

// Clone deep-copies the profile.
func (p Profile) Clone() Profile {
	out := p
	out.Achievements = slices.Clone(p.Achievements)
	if p.Checkpoint != nil {
		cp := *p.Checkpoint
		out.Checkpoint = &cp
	}
	return out
}

func (p Profile) HasAchievement(id string) bool {
	return slices.Contains(p.Achievements, id)
}

// Best returns the best level reached in a mode.
func (p Profile) Best(m Mode) int {
	if m == ModeFloor {
		return p.BestFloor
	}
	return p.BestArenaWave
}

// normalize repairs values a hand-edited or older save may carry.
func (p *Profile) normalize() {
	def := Default()
	if p.Stats.MaxHealth <= 0 {
		p.Stats.MaxHealth = def.Stats.MaxHealth
	}
	if p.Stats.Damage <= 0 {
		p.Stats.Damage = def.Stats.Damage
	}
	if p.Stats.MoveSpeed <= 0 {
		p.Stats.MoveSpeed = def.Stats.MoveSpeed
	}
	p.Stats.Armor = max(p.Stats.Armor, 0)
	p.Stats.SwordTier = max(p.Stats.SwordTier, 0)
	p.Money = max(p.Money, 0)
	p.HealthPotions = max(p.HealthPotions, 0)
	if c := p.Checkpoint; c != nil && (c.Level < 1 || (c.Mode != ModeWave && c.Mode != ModeFloor)) {
		p.Checkpoint = nil
	}
}

// Decode parses a JSON profile record.
func Decode(data []byte) (Profile, error) {
	p := Default()
	if err := json.Unmarshal(data, &p); err != nil {
		return Profile{}, fmt.Errorf("profile: decode: %w", err)
	}
	p.normalize()
	return p, nil
}

func Encode(p Profile) ([]byte, error) {
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("profile: encode: %w", err)
	}
	return data, nil
}

// ExportCode returns a copy-pasteable save code.
func ExportCode(p Profile) (string, error) {
	data, err := Encode(p)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(data), nil
}

// ImportCode parses a save code produced by ExportCode.
func ImportCode(code string) (Profile, error) {
	data, err := base64.StdEncoding.DecodeString(strings.TrimSpace(code))
	if err != nil {
		return Profile{}, fmt.Errorf("profile: import: %w", err)
	}
	return Decode(data)
}
