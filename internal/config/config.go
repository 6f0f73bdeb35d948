package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Defaults mirror the game's tuning: a 25 second turn before the AI takes
// over, and a game reap threshold past the worst-case full game duration
// ((turn+1) * (56 slots + 5)).
const (
	DefaultAddr                   = ":1237"
	DefaultDatabasePath           = "./four_line_dropper.db"
	DefaultPlayerCountLimit       = 1000
	DefaultTurnSeconds            = 25
	DefaultPlayerCleanupSeconds   = 300
	DefaultCleanupIntervalSeconds = 120
	DefaultRequestQueueSize       = 128

	// PhraseMaxLength bounds the opaque rendezvous token.
	PhraseMaxLength = 128
)

type Config struct {
	Addr         string
	DatabasePath string

	PlayerCountLimit     int
	TurnSeconds          int64
	GameCleanupTimeout   int64
	PlayerCleanupTimeout int64
	CleanupInterval      time.Duration
	RequestQueueSize     int

	AppEnv                string
	WSAllowedOrigins      []string
	DevWebSocketsAllowAll bool
}

func LoadFromEnv() (Config, error) {
	cfg := Config{
		Addr:                 os.Getenv("BACKEND_ADDR"),
		DatabasePath:         os.Getenv("DATABASE_PATH"),
		PlayerCountLimit:     DefaultPlayerCountLimit,
		TurnSeconds:          DefaultTurnSeconds,
		PlayerCleanupTimeout: DefaultPlayerCleanupSeconds,
		CleanupInterval:      DefaultCleanupIntervalSeconds * time.Second,
		RequestQueueSize:     DefaultRequestQueueSize,
		AppEnv:               strings.TrimSpace(os.Getenv("APP_ENV")),
	}
	if cfg.AppEnv == "" {
		cfg.AppEnv = "development"
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = DefaultDatabasePath
	}

	if v, ok, err := intEnv("PLAYER_COUNT_LIMIT"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.PlayerCountLimit = int(v)
	}
	if v, ok, err := intEnv("TURN_SECONDS"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.TurnSeconds = v
	}
	if v, ok, err := intEnv("PLAYER_CLEANUP_TIMEOUT"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.PlayerCleanupTimeout = v
	}
	if v, ok, err := intEnv("BACKEND_CLEANUP_INTERVAL_SECONDS"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.CleanupInterval = time.Duration(v) * time.Second
	}
	if v, ok, err := intEnv("REQUEST_QUEUE_SIZE"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.RequestQueueSize = int(v)
	}

	// Game cleanup defaults to longer than any game the turn timeout allows.
	cfg.GameCleanupTimeout = (cfg.TurnSeconds + 1) * (7*8 + 5)
	if v, ok, err := intEnv("GAME_CLEANUP_TIMEOUT"); err != nil {
		return Config{}, err
	} else if ok {
		cfg.GameCleanupTimeout = v
	}

	if v := os.Getenv("WS_ALLOWED_ORIGINS"); v != "" {
		for _, p := range strings.Split(v, ",") {
			p = strings.TrimSpace(p)
			if p != "" {
				cfg.WSAllowedOrigins = append(cfg.WSAllowedOrigins, p)
			}
		}
	}
	if v := strings.TrimSpace(os.Getenv("DEV_WEBSOCKETS_ALLOW_ALL")); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.DevWebSocketsAllowAll = b
		}
	}

	// BACKEND_ADDR is optional if PORT is set by the hosting environment.
	if cfg.Addr == "" {
		if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
			if strings.Contains(port, ":") {
				cfg.Addr = port
			} else {
				cfg.Addr = ":" + port
			}
		}
	}
	if cfg.Addr == "" {
		cfg.Addr = DefaultAddr
	}

	return cfg, nil
}

func intEnv(key string) (int64, bool, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return 0, false, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil || n < 0 {
		return 0, false, fmt.Errorf("invalid %s=%q", key, v)
	}
	return n, true, nil
}
