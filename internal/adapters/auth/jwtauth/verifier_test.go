package jwtauth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vet-clinic-api/internal/ports/auth"
)

func TestIssueAndVerify(t *testing.T) {
	v := New(Options{Secret: "s3cret", Issuer: "vet-clinic-api"})

	tok, err := v.Issue(auth.Claims{UserID: "u-1", Email: "vet@clinic.com", Role: "VETERINARIO"})
	require.NoError(t, err)

	got, err := v.Verify(context.Background(), tok)
	require.NoError(t, err)
	assert.Equal(t, auth.Claims{UserID: "u-1", Email: "vet@clinic.com", Role: "VETERINARIO"}, got)
}

func TestVerify_Rejects(t *testing.T) {
	issuedAt := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	signer := New(Options{Secret: "s3cret", TTL: time.Hour, Now: func() time.Time { return issuedAt }})
	tok, err := signer.Issue(auth.Claims{UserID: "u-1"})
	require.NoError(t, err)

	t.Run("wrong secret", func(t *testing.T) {
		_, err := New(Options{Secret: "other", Now: signer.now}).Verify(context.Background(), tok)
		assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
	})

	t.Run("expired", func(t *testing.T) {
		later := New(Options{Secret: "s3cret", Now: func() time.Time { return issuedAt.Add(2 * time.Hour) }})
		_, err := later.Verify(context.Background(), tok)
		assert.ErrorIs(t, err, jwt.ErrTokenExpired)
	})

	t.Run("empty", func(t *testing.T) {
		_, err := signer.Verify(context.Background(), "  ")
		assert.ErrorIs(t, err, ErrTokenEmpty)
	})

	t.Run("not configured", func(t *testing.T) {
		_, err := New(Options{}).Verify(context.Background(), tok)
		assert.ErrorIs(t, err, ErrNotConfigured)
	})
}
