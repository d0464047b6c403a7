package security

import (
	"crypto/x509"
	"encoding/pem"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/ports"
)

func newTestSigner(t *testing.T) *JWTSigner {
	t.Helper()
	signer, err := NewEphemeralJWTSigner("test-kid")
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	return signer
}

func TestWatchTokenRoundTrip(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	now := time.Now().UTC().Truncate(time.Second)
	in := ports.WatchClaims{
		TokenID:     uuid.New(),
		OfferingID:  "o-1",
		AttemptID:   uuid.New(),
		ViewerEmail: "viewer@example.com",
		IssuedAt:    now,
		ExpiresAt:   now.Add(time.Hour),
	}
	raw, err := signer.SignWatchToken(in)
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	out, err := signer.ParseWatchToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.TokenID != in.TokenID || out.AttemptID != in.AttemptID || out.OfferingID != "o-1" {
		t.Fatalf("unexpected claims: %+v", out)
	}
	if !out.ExpiresAt.Equal(in.ExpiresAt) {
		t.Fatalf("unexpected expiry: %s", out.ExpiresAt)
	}
}

func TestFreeWatchTokenHasNilAttempt(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	now := time.Now().UTC()
	raw, err := signer.SignWatchToken(ports.WatchClaims{TokenID: uuid.New(), OfferingID: "free", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	out, err := signer.ParseWatchToken(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.AttemptID != uuid.Nil {
		t.Fatalf("expected nil attempt id, got %s", out.AttemptID)
	}
}

func TestTokenTypesAreNotInterchangeable(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	now := time.Now().UTC()
	capability, err := signer.SignAdminCapability(ports.AdminClaims{TokenID: uuid.New(), Subject: "admin", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("sign capability: %v", err)
	}
	if _, err := signer.ParseWatchToken(capability); !errors.Is(err, errWrongTokenType) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	watch, err := signer.SignWatchToken(ports.WatchClaims{TokenID: uuid.New(), OfferingID: "o-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("sign watch: %v", err)
	}
	if _, err := signer.ParseAdminCapability(watch); !errors.Is(err, errWrongTokenType) {
		t.Fatalf("expected type mismatch, got %v", err)
	}
	claims, err := signer.ParseAdminCapability(capability)
	if err != nil {
		t.Fatalf("parse capability: %v", err)
	}
	if claims.Subject != "admin" {
		t.Fatalf("unexpected subject %q", claims.Subject)
	}
}

func TestExpiredAndForeignTokensAreRejected(t *testing.T) {
	t.Parallel()

	signer := newTestSigner(t)
	past := time.Now().UTC().Add(-2 * time.Hour)
	expired, err := signer.SignWatchToken(ports.WatchClaims{TokenID: uuid.New(), OfferingID: "o-1", IssuedAt: past, ExpiresAt: past.Add(time.Hour)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseWatchToken(expired); err == nil {
		t.Fatalf("expected expired token to be rejected")
	}

	other := newTestSigner(t)
	now := time.Now().UTC()
	foreign, err := other.SignWatchToken(ports.WatchClaims{TokenID: uuid.New(), OfferingID: "o-1", IssuedAt: now, ExpiresAt: now.Add(time.Hour)})
	if err != nil {
		t.Fatalf("sign: %v", err)
	}
	if _, err := signer.ParseWatchToken(foreign); err == nil {
		t.Fatalf("expected token from another key to be rejected")
	}
}

func TestNewJWTSignerFromPEM(t *testing.T) {
	t.Parallel()

	eph := newTestSigner(t)
	privPEM := string(pem.EncodeToMemory(&pem.Block{Type: "RSA PRIVATE KEY", Bytes: x509.MarshalPKCS1PrivateKey(eph.privateKey)}))
	pubDER, err := x509.MarshalPKIXPublicKey(eph.publicKey)
	if err != nil {
		t.Fatalf("marshal public key: %v", err)
	}
	pubPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: pubDER}))

	if _, err := NewJWTSigner("kid", privPEM, pubPEM); err != nil {
		t.Fatalf("expected matching pair to load: %v", err)
	}

	other := newTestSigner(t)
	otherDER, err := x509.MarshalPKIXPublicKey(&other.privateKey.PublicKey)
	if err != nil {
		t.Fatalf("marshal other key: %v", err)
	}
	otherPEM := string(pem.EncodeToMemory(&pem.Block{Type: "PUBLIC KEY", Bytes: otherDER}))
	if _, err := NewJWTSigner("kid", privPEM, otherPEM); err == nil {
		t.Fatalf("expected mismatched pair to fail")
	}
	if _, err := NewJWTSigner("", privPEM, pubPEM); err == nil {
		t.Fatalf("expected missing kid to fail")
	}
}
