package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

// Service issues and validates HS256 bearer tokens for API and tool clients.
type Service interface {
	IssueToken(ctx context.Context, subject string) (IssuedToken, error)
	ValidateToken(ctx context.Context, token string) (Claims, error)
}

type service struct {
	cfg    Config
	now    func() time.Time
	logger *slog.Logger
}

// NewService constructs a Service instance.
func NewService(cfg Config, logger *slog.Logger) Service {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = 24 * time.Hour
	}
	return &service{
		cfg:    cfg,
		now:    time.Now,
		logger: logger.With("component", "auth.service"),
	}
}

func (s *service) IssueToken(_ context.Context, subject string) (IssuedToken, error) {
	subject = strings.TrimSpace(subject)
	if subject == "" {
		return IssuedToken{}, apperrors.Wrap("invalid_input", "subject cannot be empty", nil)
	}
	if s.cfg.Secret == "" {
		return IssuedToken{}, apperrors.Wrap("auth_error", "signing secret is not configured", nil)
	}
	now := s.now()
	expires := now.Add(s.cfg.TokenTTL)
	claims := jwt.RegisteredClaims{
		Issuer:    s.cfg.Issuer,
		Subject:   subject,
		ID:        uuid.NewString(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expires),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.Secret))
	if err != nil {
		return IssuedToken{}, apperrors.Wrap("auth_error", "failed to sign token", err)
	}
	s.logger.Info("token issued", "subject", subject, "token_id", claims.ID, "expires_at", expires)
	return IssuedToken{Token: signed, ExpiresAt: expires.Truncate(time.Second)}, nil
}

func (s *service) ValidateToken(_ context.Context, token string) (Claims, error) {
	if strings.TrimSpace(token) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing", nil)
	}
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	}
	if s.cfg.Issuer != "" {
		opts = append(opts, jwt.WithIssuer(s.cfg.Issuer))
	}
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %s", t.Method.Alg())
		}
		return []byte(s.cfg.Secret), nil
	}, opts...)
	if err != nil {
		return Claims{}, apperrors.Wrap("invalid_token", "token validation failed", err)
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || !parsed.Valid {
		return Claims{}, apperrors.Wrap("invalid_token", "token invalid", nil)
	}
	if strings.TrimSpace(claims.Subject) == "" {
		return Claims{}, apperrors.Wrap("invalid_token", "token missing subject", nil)
	}
	out := Claims{
		Subject:   claims.Subject,
		TokenID:   claims.ID,
		ExpiresAt: claims.ExpiresAt.Time,
	}
	if claims.IssuedAt != nil {
		out.IssuedAt = claims.IssuedAt.Time
	}
	return out, nil
}
