// Package config loads server configuration from a .env-style file, with
// a command-line flag to pick the file and sane defaults for anything
// left unset.
package config

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
)

// Config holds everything the server needs to boot.
type Config struct {
	ServerName string
	UDPPort    int
	WSPort     int
	StatusPort int

	DBPath           string
	DBMaxConnections int

	TickMillis       int
	MaxClients       int
	IdleTimeoutSecs  int
	RateLimitPerSec  float64
	RateLimitBurst   int

	FrameSizeLimit   int
	HeroFlushSecs    int
	TileFlushSecs    int
	TowerFlushSecs   int

	LogLevel string
}

var defaultConfig = Config{
	ServerName:       "Heroworld",
	UDPPort:          11004,
	WSPort:           11005,
	StatusPort:       9979,
	DBPath:           "data/heroworld.db",
	DBMaxConnections: 10,
	TickMillis:       100,
	MaxClients:       2000,
	IdleTimeoutSecs:  10,
	RateLimitPerSec:  30,
	RateLimitBurst:   60,
	FrameSizeLimit:   5000,
	HeroFlushSecs:    100,
	TileFlushSecs:    300,
	TowerFlushSecs:   100,
	LogLevel:         "info",
}

// Load parses the -env flag and reads that file over the defaults,
// creating it with defaults if it doesn't yet exist.
func Load() (*Config, error) {
	envFile := flag.String("env", ".env", "path to environment configuration file")
	flag.Parse()

	log.Printf("config: loading from %s", *envFile)
	cfg := defaultConfig

	if err := loadEnvFile(*envFile, &cfg); err != nil {
		if os.IsNotExist(err) {
			log.Printf("config: %s not found, writing defaults", *envFile)
			if werr := writeDefaultEnvFile(*envFile); werr != nil {
				return nil, fmt.Errorf("config: create default file: %w", werr)
			}
		} else {
			return nil, fmt.Errorf("config: load %s: %w", *envFile, err)
		}
	}

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("config: invalid configuration: %w", err)
	}
	return &cfg, nil
}

func loadEnvFile(filename string, cfg *Config) error {
	f, err := os.Open(filename)
	if err != nil {
		return err
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	lineNum := 0
	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			log.Printf("config: %s:%d: malformed line %q", filename, lineNum, line)
			continue
		}
		key := strings.TrimSpace(parts[0])
		value := strings.Trim(strings.TrimSpace(parts[1]), "\"'")
		if err := setValue(cfg, key, value); err != nil {
			log.Printf("config: %s:%d: %s: %v", filename, lineNum, key, err)
		}
	}
	return scanner.Err()
}

func setValue(cfg *Config, key, value string) error {
	switch key {
	case "SERVER_NAME":
		cfg.ServerName = value
	case "UDP_PORT":
		return setInt(&cfg.UDPPort, value)
	case "WS_PORT":
		return setInt(&cfg.WSPort, value)
	case "STATUS_PORT":
		return setInt(&cfg.StatusPort, value)
	case "DB_PATH":
		cfg.DBPath = value
	case "DB_MAX_CONNECTIONS":
		return setInt(&cfg.DBMaxConnections, value)
	case "TICK_MILLIS":
		return setInt(&cfg.TickMillis, value)
	case "MAX_CLIENTS":
		return setInt(&cfg.MaxClients, value)
	case "IDLE_TIMEOUT_SECS":
		return setInt(&cfg.IdleTimeoutSecs, value)
	case "RATE_LIMIT_PER_SEC":
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		cfg.RateLimitPerSec = f
	case "RATE_LIMIT_BURST":
		return setInt(&cfg.RateLimitBurst, value)
	case "FRAME_SIZE_LIMIT":
		return setInt(&cfg.FrameSizeLimit, value)
	case "HERO_FLUSH_SECS":
		return setInt(&cfg.HeroFlushSecs, value)
	case "TILE_FLUSH_SECS":
		return setInt(&cfg.TileFlushSecs, value)
	case "TOWER_FLUSH_SECS":
		return setInt(&cfg.TowerFlushSecs, value)
	case "LOG_LEVEL":
		cfg.LogLevel = value
	default:
		log.Printf("config: unknown key %s", key)
	}
	return nil
}

func setInt(dst *int, value string) error {
	n, err := strconv.Atoi(value)
	if err != nil {
		return err
	}
	*dst = n
	return nil
}

func validate(cfg *Config) error {
	if cfg.TickMillis <= 0 {
		return fmt.Errorf("TICK_MILLIS must be positive, got %d", cfg.TickMillis)
	}
	if cfg.FrameSizeLimit <= 0 {
		return fmt.Errorf("FRAME_SIZE_LIMIT must be positive, got %d", cfg.FrameSizeLimit)
	}
	if cfg.UDPPort == cfg.WSPort {
		return fmt.Errorf("UDP_PORT and WS_PORT must differ, both %d", cfg.UDPPort)
	}
	return nil
}

func writeDefaultEnvFile(filename string) error {
	content := `# Heroworld server configuration.
# Recreated with defaults whenever missing; edit and restart to apply.

SERVER_NAME=Heroworld

UDP_PORT=11004
WS_PORT=11005
STATUS_PORT=9979

DB_PATH=data/heroworld.db
DB_MAX_CONNECTIONS=10

TICK_MILLIS=100
MAX_CLIENTS=2000
IDLE_TIMEOUT_SECS=10
RATE_LIMIT_PER_SEC=30
RATE_LIMIT_BURST=60

FRAME_SIZE_LIMIT=5000
HERO_FLUSH_SECS=100
TILE_FLUSH_SECS=300
TOWER_FLUSH_SECS=100

LOG_LEVEL=info
`
	return os.WriteFile(filename, []byte(content), 0o644)
}

// LogSummary prints the effective configuration at startup.
func (c *Config) LogSummary() {
	log.Printf("config: %s udp=%d ws=%d status=%d tick=%dms maxClients=%d db=%s",
		c.ServerName, c.UDPPort, c.WSPort, c.StatusPort, c.TickMillis, c.MaxClients, c.DBPath)
}
