package auth_test

import (
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"heartscore/internal/auth"
	"heartscore/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var logger = slog.New(slog.NewTextHandler(io.Discard, nil))

func keyFiles(t *testing.T) (priv, pub string) {
	t.Helper()
	dir := t.TempDir()
	priv, pub = filepath.Join(dir, "jwt.key"), filepath.Join(dir, "jwt.pub")
	require.NoError(t, auth.WriteKeyPair(priv, pub))
	return priv, pub
}

func TestIssueAndValidate(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour, logger)
	require.NoError(t, err)

	tests := []struct {
		name string
		in   domain.Principal
	}{
		{"scheduler", domain.Principal{Role: domain.RoleScheduler}},
		{"user", domain.Principal{UserID: 42, Role: domain.RoleUser}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			token, exp, err := mgr.IssueToken(tt.in)
			require.NoError(t, err)
			assert.True(t, exp.After(time.Now()))

			got, err := mgr.ValidateToken(token)
			require.NoError(t, err)
			assert.Equal(t, tt.in, got)
		})
	}
}

func TestIssueRejectsBadPrincipal(t *testing.T) {
	mgr, err := auth.NewJWTManager("", "", time.Hour, logger)
	require.NoError(t, err)

	_, _, err = mgr.IssueToken(domain.Principal{Role: domain.RoleUser})
	assert.Error(t, err)
	_, _, err = mgr.IssueToken(domain.Principal{UserID: 1, Role: "admin"})
	assert.Error(t, err)
}

func TestKeyFiles(t *testing.T) {
	priv, pub := keyFiles(t)

	signer, err := auth.NewJWTManager(priv, "", time.Hour, logger)
	require.NoError(t, err)
	verifier, err := auth.NewJWTManager("", pub, time.Hour, logger)
	require.NoError(t, err)

	token, _, err := signer.IssueToken(domain.Principal{Role: domain.RoleScheduler})
	require.NoError(t, err)
	got, err := verifier.ValidateToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.RoleScheduler, got.Role)

	_, _, err = verifier.IssueToken(domain.Principal{Role: domain.RoleScheduler})
	assert.Error(t, err, "public key alone cannot sign")
}

func TestMismatchedKeyFiles(t *testing.T) {
	priv, _ := keyFiles(t)
	_, otherPub := keyFiles(t)

	_, err := auth.NewJWTManager(priv, otherPub, time.Hour, logger)
	assert.ErrorContains(t, err, "does not match")
}

func TestValidateRejects(t *testing.T) {
	privPath, pubPath := keyFiles(t)
	mgr, err := auth.NewJWTManager(privPath, pubPath, time.Hour, logger)
	require.NoError(t, err)
	trusted := loadPrivateKey(t, privPath)
	_, foreign, err := ed25519.GenerateKey(rand.Reader)
	require.NoError(t, err)

	now := time.Now()
	valid := jwt.RegisteredClaims{
		Subject:   "7",
		Issuer:    "heartscore",
		Audience:  jwt.ClaimStrings{"heartscore-api"},
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(time.Hour)),
	}
	sign := func(rc jwt.RegisteredClaims, role domain.Role, key ed25519.PrivateKey) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, &auth.Claims{RegisteredClaims: rc, Role: role}).SignedString(key)
		require.NoError(t, err)
		return s
	}

	got, err := mgr.ValidateToken(sign(valid, domain.RoleUser, trusted))
	require.NoError(t, err)
	assert.Equal(t, domain.Principal{UserID: 7, Role: domain.RoleUser}, got)

	expired := valid
	expired.ExpiresAt = jwt.NewNumericDate(now.Add(-time.Minute))
	noExpiry := valid
	noExpiry.ExpiresAt = nil
	wrongIssuer := valid
	wrongIssuer.Issuer = "someone-else"
	wrongAudience := valid
	wrongAudience.Audience = jwt.ClaimStrings{"other"}

	tests := map[string]string{
		"foreign key":    sign(valid, domain.RoleUser, foreign),
		"expired":        sign(expired, domain.RoleUser, trusted),
		"no expiry":      sign(noExpiry, domain.RoleUser, trusted),
		"wrong issuer":   sign(wrongIssuer, domain.RoleUser, trusted),
		"wrong audience": sign(wrongAudience, domain.RoleUser, trusted),
		"unknown role":   sign(valid, "admin", trusted),
		"garbage":        "not.a.token",
	}
	for name, token := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := mgr.ValidateToken(token)
			assert.Error(t, err)
		})
	}
}

func loadPrivateKey(t *testing.T, path string) ed25519.PrivateKey {
	t.Helper()
	raw, err := os.ReadFile(path)
	require.NoError(t, err)
	block, _ := pem.Decode(raw)
	require.NotNil(t, block)
	key, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	require.NoError(t, err)
	return key.(ed25519.PrivateKey)
}

func TestClaimsPrincipal(t *testing.T) {
	c := auth.Claims{RegisteredClaims: jwt.RegisteredClaims{Subject: "abc"}, Role: domain.RoleUser}
	_, err := c.Principal()
	assert.Error(t, err)

	c.Role = "admin"
	_, err = c.Principal()
	assert.Error(t, err)
}
