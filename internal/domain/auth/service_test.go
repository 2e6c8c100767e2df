package auth

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	apperrors "github.com/yanqian/hydro-agent/pkg/errors"
)

func TestService_IssueAndValidate(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "hydro-agent", TokenTTL: time.Hour}, newTestLogger())

	issued, err := svc.IssueToken(context.Background(), "dashboard")
	require.NoError(t, err)
	require.NotEmpty(t, issued.Token)

	claims, err := svc.ValidateToken(context.Background(), issued.Token)
	require.NoError(t, err)
	require.Equal(t, "dashboard", claims.Subject)
	require.NotEmpty(t, claims.TokenID)
	require.WithinDuration(t, time.Now().Add(time.Hour), claims.ExpiresAt, time.Minute)
}

func TestService_RejectsForeignTokens(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", Issuer: "hydro-agent", TokenTTL: time.Hour}, newTestLogger())
	other := NewService(Config{Secret: "other-secret", Issuer: "hydro-agent", TokenTTL: time.Hour}, newTestLogger())

	issued, err := other.IssueToken(context.Background(), "intruder")
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), issued.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	_, err = svc.ValidateToken(context.Background(), "")
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_RejectsExpiredAndUnsigned(t *testing.T) {
	svc := NewService(Config{Secret: "test-secret", TokenTTL: time.Hour}, newTestLogger()).(*service)
	svc.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	issued, err := svc.IssueToken(context.Background(), "stale")
	require.NoError(t, err)
	svc.now = time.Now
	_, err = svc.ValidateToken(context.Background(), issued.Token)
	require.True(t, apperrors.IsCode(err, "invalid_token"))

	unsigned, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.RegisteredClaims{
		Subject:   "none",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)
	_, err = svc.ValidateToken(context.Background(), unsigned)
	require.True(t, apperrors.IsCode(err, "invalid_token"))
}

func TestService_IssueRequiresSubjectAndSecret(t *testing.T) {
	_, err := NewService(Config{Secret: "s"}, newTestLogger()).IssueToken(context.Background(), " ")
	require.True(t, apperrors.IsCode(err, "invalid_input"))

	_, err = NewService(Config{}, newTestLogger()).IssueToken(context.Background(), "svc")
	require.True(t, apperrors.IsCode(err, "auth_error"))
}

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(io.Discard, nil)
	return slog.New(handler)
}
