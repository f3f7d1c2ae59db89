package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"

	"companion-world/internal/sim"
)

// SimConfig overrides the simulation tuning. Unset knobs keep the engine defaults.
type SimConfig struct {
	TickInterval time.Duration `env:"TICK_INTERVAL" envDefault:"1s"`
	Seed         int64         `env:"SIM_SEED" envDefault:"0"`

	MapSize       float64 `env:"MAP_SIZE" envDefault:"800"`
	MoveSpeed     float64 `env:"MOVE_SPEED" envDefault:"40"`
	Wander        bool    `env:"WANDER" envDefault:"true"`
	NodeMargin    float64 `env:"NODE_MARGIN" envDefault:"40"`
	NodeSpacing   float64 `env:"NODE_MIN_SPACING" envDefault:"48"`
	EnergyDecay   float64 `env:"ENERGY_DECAY_PER_SEC" envDefault:"0.2"`
	HappyDecay    float64 `env:"HAPPINESS_DECAY_PER_SEC" envDefault:"0.1"`
	ThoughtChance float64 `env:"THOUGHT_CHANCE" envDefault:"0.08"`
	MaxThoughts   int     `env:"MAX_THOUGHTS" envDefault:"20"`
	LogHistory    int     `env:"LOG_HISTORY" envDefault:"50"`

	FeedCost        int     `env:"FEED_COST" envDefault:"50"`
	TeachCost       int     `env:"TEACH_COST" envDefault:"20"`
	EnergyNodeBoost float64 `env:"ENERGY_NODE_BOOST" envDefault:"10"`
	AutoFeedBelow   float64 `env:"AUTO_FEED_BELOW" envDefault:"30"`
	AutoPlayBelow   float64 `env:"AUTO_PLAY_BELOW" envDefault:"25"`
	AutoMinBalance  int     `env:"AUTO_MIN_BALANCE" envDefault:"0"`

	AmbientNodeCap   int           `env:"AMBIENT_NODE_CAP" envDefault:"3"`
	NodeRespawnEvery time.Duration `env:"NODE_RESPAWN_EVERY" envDefault:"20s"`
	StartingCurrency int           `env:"STARTING_CURRENCY" envDefault:"1000"`

	ChatRange    float64       `env:"CHAT_RANGE" envDefault:"40"`
	ChatDuration time.Duration `env:"CHAT_DURATION" envDefault:"3s"`
}

func LoadSim() (SimConfig, error) {
	var cfg SimConfig
	if err := env.Parse(&cfg); err != nil {
		return cfg, err
	}
	if cfg.TickInterval <= 0 {
		return cfg, fmt.Errorf("config: TICK_INTERVAL must be positive")
	}
	if cfg.MapSize <= 0 {
		return cfg, fmt.Errorf("config: MAP_SIZE must be positive")
	}
	if cfg.ThoughtChance < 0 || cfg.ThoughtChance > 1 {
		return cfg, fmt.Errorf("config: THOUGHT_CHANCE must be within [0,1]")
	}
	return cfg, nil
}

func (c SimConfig) Tuning() sim.Tuning {
	t := sim.DefaultTuning()
	t.MapSize = c.MapSize
	t.MoveSpeed = c.MoveSpeed
	t.Wander = c.Wander
	t.NodeMargin = c.NodeMargin
	t.NodeMinSpacing = c.NodeSpacing
	t.EnergyDecayPerSec = c.EnergyDecay
	t.HappinessDecayPerSec = c.HappyDecay
	t.ThoughtChance = c.ThoughtChance
	t.MaxThoughts = c.MaxThoughts
	t.LogHistory = c.LogHistory
	t.FeedCost = c.FeedCost
	t.TeachCost = c.TeachCost
	t.EnergyNodeBoost = c.EnergyNodeBoost
	t.AutoFeedBelow = c.AutoFeedBelow
	t.AutoPlayBelow = c.AutoPlayBelow
	t.AutoMinBalance = c.AutoMinBalance
	t.AmbientNodeCap = c.AmbientNodeCap
	t.NodeRespawnEvery = c.NodeRespawnEvery
	t.StartingCurrency = c.StartingCurrency
	t.ChatRange = c.ChatRange
	t.ChatDuration = c.ChatDuration
	return t
}
