package config

import (
	"os"
	"strconv"

	"github.com/markaggar/water-monitor-go/internal/occupancy"
)

// Config holds the server configuration
type Config struct {
	Port      string
	DBPath    string
	JWTSecret string

	Monitor MonitorConfig
}

// Load reads configuration from the environment with defaults
func Load() *Config {
	port := os.Getenv("PORT")
	if port == "" {
		port = ":8080"
	}

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/water/water.db"
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		jwtSecret = "your-secret-key-change-in-production"
	}

	return &Config{
		Port:      port,
		DBPath:    dbPath,
		JWTSecret: jwtSecret,
		Monitor:   loadMonitor(),
	}
}

// loadMonitor applies environment overrides on top of the stock
// detector configuration
func loadMonitor() MonitorConfig {
	cfg := DefaultMonitorConfig()

	cfg.LowFlow.Enabled = envBool("LOW_FLOW_ENABLED", cfg.LowFlow.Enabled)
	cfg.LowFlow.MaxLowFlow = envFloat("LOW_FLOW_MAX_RATE", cfg.LowFlow.MaxLowFlow)
	cfg.LowFlow.SeedS = envInt("LOW_FLOW_SEED_S", cfg.LowFlow.SeedS)
	cfg.LowFlow.MinS = envInt("LOW_FLOW_MIN_S", cfg.LowFlow.MinS)

	cfg.TankRefill.Enabled = envBool("TANK_REFILL_ENABLED", cfg.TankRefill.Enabled)
	cfg.TankRefill.MinVolume = envFloat("TANK_REFILL_MIN_VOLUME", cfg.TankRefill.MinVolume)
	cfg.TankRefill.RepeatCount = envInt("TANK_REFILL_REPEAT_COUNT", cfg.TankRefill.RepeatCount)

	cfg.Intelligent.Enabled = envBool("INTELLIGENT_ENABLED", cfg.Intelligent.Enabled)
	cfg.Intelligent.Learning = envBool("INTELLIGENT_LEARNING", cfg.Intelligent.Learning)
	cfg.Intelligent.Sensitivity = envFloat("INTELLIGENT_SENSITIVITY", cfg.Intelligent.Sensitivity)
	if raw := os.Getenv("OCCUPANCY_AWAY_STATES"); raw != "" {
		cfg.Intelligent.AwayStates = occupancy.ParseStateList(raw)
	}
	if raw := os.Getenv("OCCUPANCY_VACATION_STATES"); raw != "" {
		cfg.Intelligent.VacationStates = occupancy.ParseStateList(raw)
	}

	return cfg
}

func envBool(key string, def bool) bool {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return def
	}
	return v
}

func envInt(key string, def int) int {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

func envFloat(key string, def float64) float64 {
	raw := os.Getenv(key)
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def
	}
	return v
}
