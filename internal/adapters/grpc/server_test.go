package grpc

import (
	"context"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/memory"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/application"
	"github.com/viralforge/mesh/services/monetization/M60-stream-access-service/internal/domain"
)

func newTestServer(t *testing.T) (*StreamAccessInternalServer, *application.Service) {
	t.Helper()
	signer, err := security.NewEphemeralJWTSigner("grpc-test")
	if err != nil {
		t.Fatalf("signer: %v", err)
	}
	now := time.Now().UTC()
	window := func(id string, price float64) domain.Offering {
		o := domain.Offering{
			OfferingID:    id,
			Title:         id,
			Price:         price,
			StreamLocator: "https://stream.example.com/" + id,
			StartAt:       now.Add(-time.Hour),
			ExpiresAt:     now.Add(time.Hour),
			Active:        true,
		}
		if price > 0 {
			o.PaymentKey = "pix-" + id
		}
		return o
	}
	scheduled := window("later", 0)
	scheduled.StartAt = now.Add(time.Hour)
	scheduled.ExpiresAt = now.Add(2 * time.Hour)

	catalog := memory.NewCatalog(window("free", 0), window("paid", 15), scheduled)
	svc := application.NewService(application.Dependencies{
		Catalog:     catalog,
		Views:       catalog,
		Settlements: memory.NewSettlementLedger(),
		Tokens:      signer,
		Passwords:   security.NewBcryptPassphrase(4),
		Flags:       memory.NewElevationFlags(),
		Revocations: memory.NewRevocations(time.Now),
	})
	return NewStreamAccessInternalServer(svc), svc
}

func request(t *testing.T, fields map[string]any) *structpb.Struct {
	t.Helper()
	req, err := structpb.NewStruct(fields)
	if err != nil {
		t.Fatalf("build request: %v", err)
	}
	return req
}

func TestClassifyOffering(t *testing.T) {
	t.Parallel()

	server, _ := newTestServer(t)
	resp, err := server.ClassifyOffering(context.Background(), request(t, map[string]any{"offering_id": "later"}))
	if err != nil {
		t.Fatalf("classify: %v", err)
	}
	if got := resp.GetFields()["status"].GetStringValue(); got != string(domain.StatusScheduled) {
		t.Fatalf("expected scheduled, got %s", got)
	}
	if !resp.GetFields()["free"].GetBoolValue() {
		t.Fatalf("expected free flag")
	}

	_, err = server.ClassifyOffering(context.Background(), request(t, map[string]any{"offering_id": "ghost"}))
	if status.Code(err) != codes.NotFound {
		t.Fatalf("expected NotFound, got %v", err)
	}
	_, err = server.ClassifyOffering(context.Background(), request(t, map[string]any{}))
	if status.Code(err) != codes.InvalidArgument {
		t.Fatalf("expected InvalidArgument, got %v", err)
	}
}

func TestVerifyWatchToken(t *testing.T) {
	t.Parallel()

	server, svc := newTestServer(t)
	ctx := context.Background()

	denied, err := server.VerifyWatchToken(ctx, request(t, map[string]any{"offering_id": "paid"}))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if denied.GetFields()["granted"].GetBoolValue() || denied.GetFields()["reason"].GetStringValue() != "payment_required" {
		t.Fatalf("expected payment_required refusal, got %v", denied.AsMap())
	}

	grant, err := svc.RequestAccess(ctx, "paid", "viewer@example.com")
	if err != nil {
		t.Fatalf("request access: %v", err)
	}
	confirmed, err := svc.ConfirmAttempt(ctx, grant.Attempt.AttemptID)
	if err != nil {
		t.Fatalf("confirm: %v", err)
	}
	ok, err := server.VerifyWatchToken(ctx, request(t, map[string]any{"offering_id": "paid", "token": confirmed.WatchToken}))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if !ok.GetFields()["granted"].GetBoolValue() || ok.GetFields()["stream_locator"].GetStringValue() != "https://stream.example.com/paid" {
		t.Fatalf("expected grant, got %v", ok.AsMap())
	}

	free, err := server.VerifyWatchToken(ctx, request(t, map[string]any{"offering_id": "free", "token": confirmed.WatchToken}))
	if err != nil || !free.GetFields()["granted"].GetBoolValue() {
		t.Fatalf("free offerings need no token: %v %v", free.AsMap(), err)
	}

	notYet, err := server.VerifyWatchToken(ctx, request(t, map[string]any{"offering_id": "later"}))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if notYet.GetFields()["reason"].GetStringValue() != "not_available" {
		t.Fatalf("expected not_available, got %v", notYet.AsMap())
	}
}
