package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден
	ErrNotFound           = errors.New("requested resource not found")
	ErrTournamentNotFound = errors.New("tournament not found")
	ErrRoundNotFound      = errors.New("round not found")
	ErrMatchNotFound      = errors.New("match not found")
	ErrPlayerNotFound     = errors.New("player not found")
	ErrProfileNotFound    = errors.New("profile not found")
	ErrFinalNotFound      = errors.New("final not found")

	// Ошибки валидации
	ErrValidationFailed       = errors.New("validation failed")
	ErrTournamentCodeRequired = errors.New("tournament code is required")
	ErrInvalidFormat          = errors.New("invalid tournament format")
	ErrInvalidMatchSize       = errors.New("match size must be between 2 and 4 (2 or more for rotation)")
	ErrInvalidPosition        = errors.New("position is out of range for this match")
	ErrInvalidScore           = errors.New("score must not be negative")
	ErrInvalidTime            = errors.New("time must not be negative")
	ErrInvalidSeasonMode      = errors.New("invalid season standings mode")
	ErrPlayerNotInMatch       = errors.New("player does not belong to this match")
	ErrPlayerNotInFinal       = errors.New("player does not belong to this final")

	// Конфликты состояния
	ErrTournamentFinished     = errors.New("tournament is already finished")
	ErrNotEnoughActivePlayers = errors.New("at least two active players are required")
	ErrNoActiveMachines       = errors.New("at least one active machine is required")
	ErrStartOrderLocked       = errors.New("start order is locked once any result exists")
	ErrFinalAlreadyOpen       = errors.New("an open final already exists for this tournament")
	ErrFinalAlreadyFinished   = errors.New("final is already finished")
	ErrFinalNotEnoughPlayers  = errors.New("at least two standings players are required for a final")

	// Конфликты данных
	ErrTournamentCodeConflict = errors.New("tournament code already exists")
)
