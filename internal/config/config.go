package config

import (
	"os"
	"time"

	"github.com/kiryu-dev/five-in-a-row/internal/domain"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

var (
	ErrInvalidBoardSize = errors.New("invalid default board size")
	ErrInvalidThreshold = errors.New("invalid match win threshold")
	ErrInvalidDelay     = errors.New("invalid thinking delay")
)

const (
	defaultAddr        = ":8080"
	defaultRedisTTL    = 24 * time.Hour
	defaultSyncPeriod  = 5 * time.Second
	defaultRedisPrefix = "gomoku:session:"
)

var defaultDelays = map[string]time.Duration{
	domain.Beginner.String():     300 * time.Millisecond,
	domain.Intermediate.String(): 500 * time.Millisecond,
	domain.Expert.String():       700 * time.Millisecond,
	domain.Master.String():       900 * time.Millisecond,
}

type ServerConfig struct {
	Addr string `yaml:"addr"`
}

type EngineConfig struct {
	BoardSize    int   `yaml:"board_size"`
	WinThreshold int   `yaml:"win_threshold"`
	Seed         int64 `yaml:"seed"`
}

type RedisConfig struct {
	Addr      string        `yaml:"addr"`
	Password  string        `yaml:"password"`
	DB        int           `yaml:"db"`
	KeyPrefix string        `yaml:"key_prefix"`
	TTL       time.Duration `yaml:"ttl"`
}

type SyncConfig struct {
	Period time.Duration `yaml:"period"`
}

type Config struct {
	Server         ServerConfig             `yaml:"server"`
	Engine         EngineConfig             `yaml:"engine"`
	ThinkingDelays map[string]time.Duration `yaml:"thinking_delays"`
	Redis          RedisConfig              `yaml:"redis"`
	Sync           SyncConfig               `yaml:"sync"`
}

func New(cfgPath string) (Config, error) {
	file, err := os.Open(cfgPath)
	if err != nil {
		return Config{}, err
	}
	defer func() {
		_ = file.Close()
	}()
	cfg := Config{}
	if err := yaml.NewDecoder(file).Decode(&cfg); err != nil {
		return Config{}, errors.WithMessage(err, "decode yaml config")
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Default is the configuration used when no file is given.
func Default() Config {
	cfg := Config{}
	_ = cfg.validate()
	return cfg
}

// Delays resolves the per-difficulty thinking delays.
func (c Config) Delays() map[domain.Difficulty]time.Duration {
	delays := make(map[domain.Difficulty]time.Duration, len(c.ThinkingDelays))
	for name, d := range c.ThinkingDelays {
		if difficulty, ok := domain.ParseDifficulty(name); ok {
			delays[difficulty] = d
		}
	}
	return delays
}

func (c *Config) validate() error {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultAddr
	}
	if c.Engine.BoardSize == 0 {
		c.Engine.BoardSize = domain.DefaultBoardSize
	}
	if c.Engine.BoardSize < domain.MinBoardSize || c.Engine.BoardSize > domain.MaxBoardSize {
		return errors.WithMessagef(ErrInvalidBoardSize, "%d", c.Engine.BoardSize)
	}
	if c.Engine.WinThreshold == 0 {
		c.Engine.WinThreshold = domain.DefaultWinThreshold
	}
	if c.Engine.WinThreshold < 0 {
		return errors.WithMessagef(ErrInvalidThreshold, "%d", c.Engine.WinThreshold)
	}
	if c.ThinkingDelays == nil {
		c.ThinkingDelays = make(map[string]time.Duration, len(defaultDelays))
	}
	for name, d := range c.ThinkingDelays {
		if _, ok := domain.ParseDifficulty(name); !ok {
			return errors.WithMessagef(ErrInvalidDelay, "unknown difficulty '%s'", name)
		}
		if d < 0 {
			return errors.WithMessagef(ErrInvalidDelay, "%s: %v", name, d)
		}
	}
	for name, d := range defaultDelays {
		if _, ok := c.ThinkingDelays[name]; !ok {
			c.ThinkingDelays[name] = d
		}
	}
	if c.Redis.KeyPrefix == "" {
		c.Redis.KeyPrefix = defaultRedisPrefix
	}
	if c.Redis.TTL == 0 {
		c.Redis.TTL = defaultRedisTTL
	}
	if c.Sync.Period == 0 {
		c.Sync.Period = defaultSyncPeriod
	}
	return nil
}
