package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/flipperliga/league-system/config"
	"github.com/flipperliga/league-system/db"
	"github.com/flipperliga/league-system/elo"
	"github.com/flipperliga/league-system/handlers"
	"github.com/flipperliga/league-system/live"
	"github.com/flipperliga/league-system/pairing"
	"github.com/flipperliga/league-system/repositories"
	"github.com/flipperliga/league-system/routes"
	"github.com/flipperliga/league-system/services"
)

func main() {
	// Настройка логгера
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		logger.Error("failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("configuration loaded", slog.Int("port", cfg.ServerPort), slog.String("elo_schedule", cfg.EloSchedule))

	// Подключение к базе данных
	dbConn, err := db.Connect(cfg.DatabaseURL, 5*time.Second)
	if err != nil {
		logger.Error("failed to connect to database", slog.Any("error", err))
		os.Exit(1)
	}
	defer func() {
		if err := dbConn.Close(); err != nil {
			logger.Error("failed to close database connection", slog.Any("error", err))
		}
	}()
	logger.Info("database connection established")

	// Инициализация WebSocket Hub
	wsHub := live.NewHub()
	go wsHub.Run()
	logger.Info("WebSocket hub started")

	// Инициализация репозиториев
	tournamentRepo := repositories.NewPostgresTournamentRepository(dbConn)
	roundRepo := repositories.NewPostgresRoundRepository(dbConn)
	matchRepo := repositories.NewPostgresMatchRepository(dbConn)
	matchPlayerRepo := repositories.NewPostgresMatchPlayerRepository(dbConn)
	playerRepo := repositories.NewPostgresPlayerRepository(dbConn)
	machineRepo := repositories.NewPostgresMachineRepository(dbConn)
	profileRepo := repositories.NewPostgresProfileRepository(dbConn)
	ratingRepo := repositories.NewPostgresTournamentRatingRepository(dbConn)
	resultRepo := repositories.NewPostgresTournamentResultRepository(dbConn)
	finalRepo := repositories.NewPostgresFinalRepository(dbConn)
	logger.Info("repositories initialized")

	// Инициализация сервисов
	var schedule elo.Schedule = elo.ReplaySchedule{}
	if cfg.EloSchedule == config.EloScheduleSubmission {
		schedule = elo.SubmissionSchedule{}
	}

	ratingService := services.NewRatingService(
		dbConn, tournamentRepo, roundRepo, matchRepo, matchPlayerRepo,
		playerRepo, profileRepo, ratingRepo, finalRepo,
		schedule, logger,
	)
	generator := pairing.New(rand.New(rand.NewSource(time.Now().UnixNano())))
	roundService := services.NewRoundService(
		dbConn, tournamentRepo, roundRepo, matchRepo, matchPlayerRepo,
		playerRepo, machineRepo, generator, wsHub, logger,
	)
	matchService := services.NewMatchService(
		dbConn, tournamentRepo, roundRepo, matchRepo, matchPlayerRepo,
		ratingService, wsHub, logger,
	)
	standingsService := services.NewStandingsService(
		tournamentRepo, playerRepo, matchRepo, matchPlayerRepo, resultRepo,
	)
	tournamentService := services.NewTournamentService(
		dbConn, tournamentRepo, roundRepo, matchRepo, matchPlayerRepo,
		playerRepo, machineRepo, resultRepo, finalRepo,
		ratingService, wsHub, logger,
	)
	finalService := services.NewFinalService(
		dbConn, tournamentRepo, playerRepo, finalRepo,
		standingsService, tournamentService, ratingService,
		wsHub, cfg.FinalTargetPoints, logger,
	)
	profileService := services.NewProfileService(profileRepo)
	logger.Info("services initialized")

	// Инициализация обработчиков HTTP
	tournamentHandler := handlers.NewTournamentHandler(tournamentService)
	roundHandler := handlers.NewRoundHandler(roundService)
	matchHandler := handlers.NewMatchHandler(matchService)
	standingsHandler := handlers.NewStandingsHandler(standingsService)
	finalHandler := handlers.NewFinalHandler(finalService)
	ratingHandler := handlers.NewRatingHandler(ratingService, profileService, cfg.ProvisionalMatches)
	webSocketHandler := handlers.NewWebSocketHandler(wsHub)

	// Настройка маршрутизатора
	router := chi.NewRouter()
	routes.SetupRoutes(
		router,
		cfg.CORSAllowedOrigins,
		tournamentHandler,
		roundHandler,
		matchHandler,
		standingsHandler,
		finalHandler,
		ratingHandler,
		webSocketHandler,
	)
	logger.Info("routes configured")

	// Настройка и запуск HTTP-сервера
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(logger.Handler(), slog.LevelError),
	}

	serverErrors := make(chan error, 1)
	go func() {
		logger.Info("starting server", slog.String("address", server.Addr))
		serverErrors <- server.ListenAndServe()
	}()

	// Ожидание сигнала завершения
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-serverErrors:
		if !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", slog.Any("error", err))
			os.Exit(1)
		}
		logger.Info("server stopped gracefully")
	case sig := <-quit:
		logger.Info("shutdown signal received", slog.String("signal", sig.String()))
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancelShutdown()

		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Error("graceful shutdown failed", slog.Any("error", err))
			if closeErr := server.Close(); closeErr != nil {
				logger.Error("failed to force close server", slog.Any("error", closeErr))
			}
		}
	}
}
