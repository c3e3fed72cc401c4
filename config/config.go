package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// Config хранит все конфигурационные параметры приложения.
type Config struct {
	DatabaseURL string
	ServerPort  int

	// EloSchedule выбирает кривую K-фактора: "submission" или "replay".
	EloSchedule string
	// ProvisionalMatches — калибровочное окно нового профиля.
	ProvisionalMatches int
	// FinalTargetPoints — сколько очков нужно для победы в суперфинале.
	FinalTargetPoints int

	CORSAllowedOrigins []string
}

const (
	EloScheduleSubmission = "submission"
	EloScheduleReplay     = "replay"
)

// Load загружает конфигурацию из переменных окружения.
// Опционально подгружает .env файл (полезно для локальной разработки).
func Load() (*Config, error) {
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL environment variable is not set")
	}

	port, err := intEnv("SERVER_PORT", 8080)
	if err != nil {
		return nil, err
	}
	if port <= 0 || port > 65535 {
		return nil, fmt.Errorf("SERVER_PORT must be between 1 and 65535, got %d", port)
	}

	schedule := os.Getenv("ELO_SCHEDULE")
	if schedule == "" {
		schedule = EloScheduleReplay
	}
	if schedule != EloScheduleSubmission && schedule != EloScheduleReplay {
		return nil, fmt.Errorf("ELO_SCHEDULE must be %q or %q, got %q", EloScheduleSubmission, EloScheduleReplay, schedule)
	}

	provisional, err := intEnv("PROVISIONAL_MATCHES", 10)
	if err != nil {
		return nil, err
	}
	if provisional < 0 {
		return nil, fmt.Errorf("PROVISIONAL_MATCHES must not be negative, got %d", provisional)
	}

	target, err := intEnv("FINAL_TARGET_POINTS", 4)
	if err != nil {
		return nil, err
	}
	if target < 1 {
		return nil, fmt.Errorf("FINAL_TARGET_POINTS must be positive, got %d", target)
	}

	origins := []string{"*"}
	if raw := os.Getenv("CORS_ALLOWED_ORIGINS"); raw != "" {
		origins = origins[:0]
		for _, origin := range strings.Split(raw, ",") {
			if origin = strings.TrimSpace(origin); origin != "" {
				origins = append(origins, origin)
			}
		}
	}

	return &Config{
		DatabaseURL:        dbURL,
		ServerPort:         port,
		EloSchedule:        schedule,
		ProvisionalMatches: provisional,
		FinalTargetPoints:  target,
		CORSAllowedOrigins: origins,
	}, nil
}

func intEnv(name string, fallback int) (int, error) {
	raw := os.Getenv(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", name, err)
	}
	return value, nil
}
