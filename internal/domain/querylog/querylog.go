// Package querylog records the outcome of every resolved query.
package querylog

import (
	"context"
	"log/slog"
	"time"
)

// Entry is one recorded query outcome.
type Entry struct {
	ID             string    `json:"id"`
	Query          string    `json:"query"`
	Status         string    `json:"status"`
	Kind           string    `json:"kind,omitempty"`
	StationCode    string    `json:"station_code,omitempty"`
	Message        string    `json:"message,omitempty"`
	DurationMillis int64     `json:"duration_ms"`
	CreatedAt      time.Time `json:"created_at"`
}

// Repository persists entries.
type Repository interface {
	Insert(ctx context.Context, entry Entry) error
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

const (
	defaultLimit = 20
	maxLimit     = 100
)

// Service exposes recent entries to the interface layer.
type Service interface {
	Recent(ctx context.Context, limit int) ([]Entry, error)
}

type service struct {
	repo   Repository
	logger *slog.Logger
}

// NewService constructs the query log service.
func NewService(repo Repository, logger *slog.Logger) Service {
	return &service{repo: repo, logger: logger.With("component", "querylog.service")}
}

func (s *service) Recent(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = defaultLimit
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	entries, err := s.repo.Recent(ctx, limit)
	if err != nil {
		s.logger.Error("list recent queries failed", "error", err)
		return nil, err
	}
	return entries, nil
}
