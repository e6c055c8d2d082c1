package config

import (
	"os"
	"strconv"
	"strings"
)

// ============================================================
// Configuration
// ============================================================

type Config struct {
	Port         string
	Environment  string
	ReadTimeout  int
	WriteTimeout int

	DBPath         string
	MigrationsPath string
	ExportDir      string
	CORSOrigins    []string

	SnapDistance float64
	HistoryLimit int
	WallWidth    float64
	EraseRadius  float64
}

// Load загружает конфигурацию из переменных окружения
func Load() *Config {
	return &Config{
		Port:         getEnv("PORT", "3003"),
		Environment:  getEnv("ENV", "development"),
		ReadTimeout:  getEnvAsInt("READ_TIMEOUT", 10),
		WriteTimeout: getEnvAsInt("WRITE_TIMEOUT", 10),

		DBPath:         getEnv("PLANNER_DB_PATH", "data/db/planner.db"),
		MigrationsPath: getEnv("PLANNER_MIGRATIONS", "migrations/001_init_planner.sql"),
		ExportDir:      getEnv("PLANNER_EXPORT_DIR", "exports"),
		CORSOrigins:    getEnvAsList("CORS_ORIGINS"),

		SnapDistance: getEnvAsFloat("SNAP_DISTANCE", 20),
		HistoryLimit: getEnvAsInt("HISTORY_LIMIT", 500),
		WallWidth:    getEnvAsFloat("WALL_WIDTH", 10),
		EraseRadius:  getEnvAsFloat("ERASE_RADIUS", 10),
	}
}

func getEnv(key, defaultVal string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultVal
}

func getEnvAsInt(key string, defaultVal int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultVal
}

func getEnvAsFloat(key string, defaultVal float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultVal
}

// getEnvAsList разбирает список через запятую; пустые элементы отбрасываются.
func getEnvAsList(key string) []string {
	var out []string
	for _, part := range strings.Split(os.Getenv(key), ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
