// Package auth issues and validates the Ed25519 JWTs used by the scheduler
// and other service callers.
package auth

import (
	"bytes"
	"crypto/ed25519"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"heartscore/internal/domain"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	issuer   = "heartscore"
	audience = "heartscore-api"
)

// Claims are the registered claims plus the caller's role.
type Claims struct {
	jwt.RegisteredClaims
	Role domain.Role `json:"role"`
}

// Principal converts validated claims into the caller identity.
func (c *Claims) Principal() (domain.Principal, error) {
	switch c.Role {
	case domain.RoleScheduler:
		return domain.Principal{Role: domain.RoleScheduler}, nil
	case domain.RoleUser:
		id, err := strconv.ParseInt(c.Subject, 10, 64)
		if err != nil || id <= 0 {
			return domain.Principal{}, fmt.Errorf("auth: invalid user subject %q", c.Subject)
		}
		return domain.Principal{UserID: id, Role: domain.RoleUser}, nil
	default:
		return domain.Principal{}, fmt.Errorf("auth: unknown role %q", c.Role)
	}
}

// JWTManager signs and verifies tokens.
type JWTManager struct {
	privateKey ed25519.PrivateKey
	publicKey  ed25519.PublicKey
	expiration time.Duration
}

// NewJWTManager loads a PEM key pair. With no paths it generates an
// ephemeral pair, so tokens do not survive a restart.
func NewJWTManager(privateKeyPath, publicKeyPath string, expiration time.Duration, logger *slog.Logger) (*JWTManager, error) {
	if privateKeyPath == "" && publicKeyPath == "" {
		logger.Warn("no JWT key files configured, generating an ephemeral key pair")
		pub, priv, err := ed25519.GenerateKey(rand.Reader)
		if err != nil {
			return nil, fmt.Errorf("auth: generate key pair: %w", err)
		}
		return &JWTManager{privateKey: priv, publicKey: pub, expiration: expiration}, nil
	}

	var m JWTManager
	m.expiration = expiration
	if privateKeyPath != "" {
		priv, err := readPrivateKey(privateKeyPath)
		if err != nil {
			return nil, err
		}
		m.privateKey = priv
	}
	if publicKeyPath != "" {
		pub, err := readPublicKey(publicKeyPath)
		if err != nil {
			return nil, err
		}
		m.publicKey = pub
	}

	switch {
	case m.publicKey == nil:
		m.publicKey = m.privateKey.Public().(ed25519.PublicKey)
	case m.privateKey != nil && !bytes.Equal(m.privateKey.Public().(ed25519.PublicKey), m.publicKey):
		return nil, errors.New("auth: public key does not match private key")
	}
	return &m, nil
}

func readPEM(path string) ([]byte, error) {
	raw, err := os.ReadFile(path) //nolint:gosec // path comes from config
	if err != nil {
		return nil, fmt.Errorf("auth: read key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, fmt.Errorf("auth: %s is not PEM", path)
	}
	return block.Bytes, nil
}

func readPrivateKey(path string) (ed25519.PrivateKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKCS8PrivateKey(der)
	if err != nil {
		return nil, fmt.Errorf("auth: parse private key: %w", err)
	}
	priv, ok := key.(ed25519.PrivateKey)
	if !ok {
		return nil, errors.New("auth: private key is not Ed25519")
	}
	return priv, nil
}

func readPublicKey(path string) (ed25519.PublicKey, error) {
	der, err := readPEM(path)
	if err != nil {
		return nil, err
	}
	key, err := x509.ParsePKIXPublicKey(der)
	if err != nil {
		return nil, fmt.Errorf("auth: parse public key: %w", err)
	}
	pub, ok := key.(ed25519.PublicKey)
	if !ok {
		return nil, errors.New("auth: public key is not Ed25519")
	}
	return pub, nil
}

// WriteKeyPair generates a new Ed25519 pair and writes it as PEM files.
func WriteKeyPair(privateKeyPath, publicKeyPath string) error {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return fmt.Errorf("auth: generate key pair: %w", err)
	}
	privDER, err := x509.MarshalPKCS8PrivateKey(priv)
	if err != nil {
		return fmt.Errorf("auth: marshal private key: %w", err)
	}
	pubDER, err := x509.MarshalPKIXPublicKey(pub)
	if err != nil {
		return fmt.Errorf("auth: marshal public key: %w", err)
	}
	if err := os.WriteFile(privateKeyPath, pem.EncodeToMemory(&pem.Block{Type: "PRIVATE KEY", Bytes: privDER}), 0o600); err != nil {
		return fmt.Errorf("auth: write private key: %w", err)
	}
	if err := os.WriteFile(publicKeyPath, pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}), 0o644); err != nil { //nolint:gosec // public key
		return fmt.Errorf("auth: write public key: %w", err)
	}
	return nil
}

// IssueToken signs a token for p.
func (m *JWTManager) IssueToken(p domain.Principal) (string, time.Time, error) {
	if m.privateKey == nil {
		return "", time.Time{}, errors.New("auth: no private key configured")
	}
	subject := "scheduler"
	switch p.Role {
	case domain.RoleScheduler:
	case domain.RoleUser:
		if p.UserID <= 0 {
			return "", time.Time{}, errors.New("auth: user token needs a user id")
		}
		subject = strconv.FormatInt(p.UserID, 10)
	default:
		return "", time.Time{}, fmt.Errorf("auth: unknown role %q", p.Role)
	}

	now := time.Now().UTC()
	exp := now.Add(m.expiration)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			Issuer:    issuer,
			Audience:  jwt.ClaimStrings{audience},
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(exp),
			ID:        uuid.NewString(),
		},
		Role: p.Role,
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodEdDSA, claims).SignedString(m.privateKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign token: %w", err)
	}
	return signed, exp, nil
}

// ValidateToken verifies a token and returns its principal.
func (m *JWTManager) ValidateToken(tokenStr string) (domain.Principal, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodEd25519); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return m.publicKey, nil
		},
		jwt.WithAudience(audience),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		return domain.Principal{}, fmt.Errorf("auth: validate token: %w", err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return domain.Principal{}, errors.New("auth: invalid token claims")
	}
	return claims.Principal()
}
