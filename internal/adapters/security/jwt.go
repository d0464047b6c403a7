package security

import (
	"crypto/rand"
	"crypto/rsa"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

const (
	tokenIssuer = "m60-stream-access"

	typeWatch      = "watch"
	typeCapability = "admin_capability"
)

var errWrongTokenType = errors.New("token type mismatch")

// JWTSigner signs watch tokens and admin capabilities with RS256. Both kinds
// share a key but carry a typ claim, so one can never be replayed as the other.
type JWTSigner struct {
	kid        string
	privateKey *rsa.PrivateKey
	publicKey  *rsa.PublicKey
	leeway     time.Duration
}

func NewJWTSigner(kid, privateKeyPEM, publicKeyPEM string) (*JWTSigner, error) {
	if kid == "" {
		return nil, errors.New("jwt key id (kid) is required")
	}
	if privateKeyPEM == "" || publicKeyPEM == "" {
		return nil, errors.New("jwt private/public keys are required")
	}
	priv, err := parseRSAPrivate(privateKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	pub, err := parseRSAPublic(publicKeyPEM)
	if err != nil {
		return nil, fmt.Errorf("parse public key: %w", err)
	}
	if priv.PublicKey.N.Cmp(pub.N) != 0 {
		return nil, errors.New("jwt private and public keys do not match")
	}
	return &JWTSigner{kid: kid, privateKey: priv, publicKey: pub, leeway: 5 * time.Second}, nil
}

// NewEphemeralJWTSigner generates an in-memory keypair. Tokens it signs do
// not survive a restart.
func NewEphemeralJWTSigner(kid string) (*JWTSigner, error) {
	if kid == "" {
		kid = "ephemeral-key-1"
	}
	privateKey, err := rsa.GenerateKey(rand.Reader, 2048)
	if err != nil {
		return nil, err
	}
	return &JWTSigner{kid: kid, privateKey: privateKey, publicKey: &privateKey.PublicKey, leeway: 5 * time.Second}, nil
}

type watchJWTClaims struct {
	Type        string `json:"typ"`
	OfferingID  string `json:"offering_id"`
	AttemptID   string `json:"attempt_id,omitempty"`
	ViewerEmail string `json:"viewer_email,omitempty"`
	jwt.RegisteredClaims
}

type capabilityJWTClaims struct {
	Type string `json:"typ"`
	jwt.RegisteredClaims
}

func (s *JWTSigner) SignWatchToken(claims ports.WatchClaims) (string, error) {
	c := watchJWTClaims{
		Type:        typeWatch,
		OfferingID:  claims.OfferingID,
		ViewerEmail: claims.ViewerEmail,
	}
	c.RegisteredClaims = s.registered(claims.TokenID, claims.OfferingID, claims.IssuedAt, claims.ExpiresAt)
	if claims.AttemptID != uuid.Nil {
		c.AttemptID = claims.AttemptID.String()
	}
	return s.sign(c)
}

func (s *JWTSigner) ParseWatchToken(raw string) (ports.WatchClaims, error) {
	claims := &watchJWTClaims{}
	if err := s.parse(raw, claims); err != nil {
		return ports.WatchClaims{}, err
	}
	if claims.Type != typeWatch {
		return ports.WatchClaims{}, errWrongTokenType
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return ports.WatchClaims{}, fmt.Errorf("parse jti: %w", err)
	}
	attemptID := uuid.Nil
	if claims.AttemptID != "" {
		if attemptID, err = uuid.Parse(claims.AttemptID); err != nil {
			return ports.WatchClaims{}, fmt.Errorf("parse attempt_id: %w", err)
		}
	}
	return ports.WatchClaims{
		TokenID:     tokenID,
		OfferingID:  claims.OfferingID,
		AttemptID:   attemptID,
		ViewerEmail: claims.ViewerEmail,
		IssuedAt:    claims.IssuedAt.Time.UTC(),
		ExpiresAt:   claims.ExpiresAt.Time.UTC(),
	}, nil
}

func (s *JWTSigner) SignAdminCapability(claims ports.AdminClaims) (string, error) {
	return s.sign(capabilityJWTClaims{
		Type:             typeCapability,
		RegisteredClaims: s.registered(claims.TokenID, claims.Subject, claims.IssuedAt, claims.ExpiresAt),
	})
}

func (s *JWTSigner) ParseAdminCapability(raw string) (ports.AdminClaims, error) {
	claims := &capabilityJWTClaims{}
	if err := s.parse(raw, claims); err != nil {
		return ports.AdminClaims{}, err
	}
	if claims.Type != typeCapability {
		return ports.AdminClaims{}, errWrongTokenType
	}
	tokenID, err := uuid.Parse(claims.ID)
	if err != nil {
		return ports.AdminClaims{}, fmt.Errorf("parse jti: %w", err)
	}
	return ports.AdminClaims{
		TokenID:   tokenID,
		Subject:   claims.Subject,
		IssuedAt:  claims.IssuedAt.Time.UTC(),
		ExpiresAt: claims.ExpiresAt.Time.UTC(),
	}, nil
}

func (s *JWTSigner) registered(id uuid.UUID, subject string, issuedAt, expiresAt time.Time) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		ID:        id.String(),
		Issuer:    tokenIssuer,
		Subject:   subject,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}
}

func (s *JWTSigner) sign(claims jwt.Claims) (string, error) {
	token := jwt.NewWithClaims(jwt.SigningMethodRS256, claims)
	token.Header["kid"] = s.kid
	return token.SignedString(s.privateKey)
}

func (s *JWTSigner) parse(raw string, claims jwt.Claims) error {
	parsed, err := jwt.ParseWithClaims(raw, claims, func(token *jwt.Token) (any, error) {
		if kid, _ := token.Header["kid"].(string); kid != s.kid {
			return nil, fmt.Errorf("unknown key id %q", kid)
		}
		return s.publicKey, nil
	},
		jwt.WithValidMethods([]string{jwt.SigningMethodRS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithLeeway(s.leeway),
	)
	if err != nil {
		return err
	}
	if !parsed.Valid {
		return errors.New("invalid token claims")
	}
	return nil
}

func parseRSAPrivate(raw string) (*rsa.PrivateKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid private PEM")
	}
	if key, err := x509.ParsePKCS1PrivateKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKCS8PrivateKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PrivateKey)
	if !ok {
		return nil, errors.New("private key is not RSA")
	}
	return key, nil
}

func parseRSAPublic(raw string) (*rsa.PublicKey, error) {
	block, _ := pem.Decode([]byte(raw))
	if block == nil {
		return nil, errors.New("invalid public PEM")
	}
	if key, err := x509.ParsePKCS1PublicKey(block.Bytes); err == nil {
		return key, nil
	}
	keyAny, err := x509.ParsePKIXPublicKey(block.Bytes)
	if err != nil {
		return nil, err
	}
	key, ok := keyAny.(*rsa.PublicKey)
	if !ok {
		return nil, errors.New("public key is not RSA")
	}
	return key, nil
}
