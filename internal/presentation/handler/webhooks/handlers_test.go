package webhooks

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/livekit/protocol/auth"
	"github.com/livekit/protocol/livekit"
	"github.com/livekit/protocol/webhook"
	"google.golang.org/protobuf/encoding/protojson"

	"github.com/lingopods/roomsync/internal/domain"
	"github.com/lingopods/roomsync/internal/infrastructure/logging"
)

const (
	testAPIKey    = "APIabcdef1234567"
	testAPISecret = "secretsecretsecretsecretsecret12"
)

type upsertCall struct {
	id    string
	patch domain.RoomPatch
}

// fakeRoomRepository records writes so tests can assert which store
// operation an event was mapped to.
type fakeRoomRepository struct {
	upserts []upsertCall
	merges  []upsertCall
	err     error
}

func (f *fakeRoomRepository) GetByID(ctx context.Context, id string) (*domain.Room, error) {
	return nil, domain.ErrRoomNotFound
}

func (f *fakeRoomRepository) ListActive(ctx context.Context, limit int64) ([]domain.Room, error) {
	return nil, nil
}

func (f *fakeRoomRepository) UpsertSnapshot(ctx context.Context, id string, patch domain.RoomPatch) error {
	if f.err != nil {
		return f.err
	}
	f.upserts = append(f.upserts, upsertCall{id: id, patch: patch})
	return nil
}

func (f *fakeRoomRepository) Merge(ctx context.Context, id string, patch domain.RoomPatch) error {
	if f.err != nil {
		return f.err
	}
	f.merges = append(f.merges, upsertCall{id: id, patch: patch})
	return nil
}

func (f *fakeRoomRepository) FindReapable(ctx context.Context, q domain.ReapQuery) ([]domain.Room, error) {
	return nil, nil
}

func (f *fakeRoomRepository) Delete(ctx context.Context, id string) error { return nil }

func (f *fakeRoomRepository) EnsureIndexes(ctx context.Context) error { return nil }

func newTestHandler(repo *fakeRoomRepository) *Handler {
	keys := auth.NewSimpleKeyProvider(testAPIKey, testAPISecret)
	return NewHandler(repo, keys, logging.NopLogger{})
}

// signedRequest builds a webhook delivery the way LiveKit does: protojson
// body plus an Authorization JWT whose sha256 claim covers the raw bytes.
func signedRequest(t *testing.T, event *livekit.WebhookEvent, secret string) *http.Request {
	t.Helper()

	body, err := protojson.Marshal(event)
	if err != nil {
		t.Fatal(err)
	}

	sum := sha256.Sum256(body)
	token, err := auth.NewAccessToken(testAPIKey, secret).
		SetValidFor(5 * time.Minute).
		SetSha256(base64.StdEncoding.EncodeToString(sum[:])).
		ToJWT()
	if err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/webhooks/livekit", bytes.NewReader(body))
	req.Header.Set("Authorization", token)
	req.Header.Set("Content-Type", "application/webhook+json")
	return req
}

func participantJoined(room string, count uint32) *livekit.WebhookEvent {
	return &livekit.WebhookEvent{
		Event:     webhook.EventParticipantJoined,
		Id:        "evt-1",
		CreatedAt: time.Now().Unix(),
		Room: &livekit.Room{
			Name:            room,
			NumParticipants: count,
		},
	}
}

func TestWebhookRejectsUnsignedRequest(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	req := httptest.NewRequest(http.MethodPost, "/webhooks/livekit", strings.NewReader(`{}`))
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(repo.upserts)+len(repo.merges) != 0 {
		t.Fatal("unauthenticated request must not reach the store")
	}
}

func TestWebhookRejectsBadSignature(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	req := signedRequest(t, participantJoined("lesson-1", 2), "wrongsecretwrongsecretwrongsec12")
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
	if len(repo.upserts)+len(repo.merges) != 0 {
		t.Fatal("forged request must not reach the store")
	}
}

func TestWebhookRejectsTamperedBody(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	req := signedRequest(t, participantJoined("lesson-1", 2), testAPISecret)
	req.Body = http.NoBody // signature no longer matches the payload
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestWebhookParticipantJoinedUpserts(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	req := signedRequest(t, participantJoined("lesson-1", 3), testAPISecret)
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if len(repo.upserts) != 1 {
		t.Fatalf("upserts = %d, want 1", len(repo.upserts))
	}
	call := repo.upserts[0]
	if call.id != "lesson-1" {
		t.Errorf("room id = %q, want lesson-1", call.id)
	}
	if call.patch.MemberCount == nil || *call.patch.MemberCount != 3 {
		t.Errorf("member count = %v, want 3", call.patch.MemberCount)
	}
	if call.patch.IsActive == nil || !*call.patch.IsActive {
		t.Error("join must mark the room active")
	}
}

func TestWebhookRoomFinishedMerges(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	event := &livekit.WebhookEvent{
		Event:     webhook.EventRoomFinished,
		Id:        "evt-2",
		CreatedAt: time.Now().Unix(),
		Room:      &livekit.Room{Name: "lesson-1", NumParticipants: 2},
	}
	req := signedRequest(t, event, testAPISecret)
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200 (body: %s)", rec.Code, rec.Body.String())
	}
	if len(repo.upserts) != 0 {
		t.Fatal("finish must never create a record")
	}
	if len(repo.merges) != 1 {
		t.Fatalf("merges = %d, want 1", len(repo.merges))
	}
	patch := repo.merges[0].patch
	if patch.MemberCount == nil || *patch.MemberCount != 0 {
		t.Error("finished room must be merged with member count 0")
	}
	if patch.IsActive == nil || *patch.IsActive {
		t.Error("finished room must be merged as inactive")
	}
	if patch.EndedAt == nil {
		t.Error("finish must record an end timestamp")
	}
}

func TestWebhookIgnoresUnhandledEvents(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	event := &livekit.WebhookEvent{
		Event:     webhook.EventTrackPublished,
		Id:        "evt-3",
		CreatedAt: time.Now().Unix(),
		Room:      &livekit.Room{Name: "lesson-1"},
	}
	req := signedRequest(t, event, testAPISecret)
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: unhandled events are acknowledged, not retried", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "ignored") {
		t.Errorf("body = %s, want ignored status", rec.Body.String())
	}
	if len(repo.upserts)+len(repo.merges) != 0 {
		t.Fatal("ignored event must not reach the store")
	}
}

func TestWebhookEventWithoutRoomIgnored(t *testing.T) {
	repo := &fakeRoomRepository{}
	h := newTestHandler(repo)

	event := &livekit.WebhookEvent{
		Event:     webhook.EventParticipantJoined,
		Id:        "evt-4",
		CreatedAt: time.Now().Unix(),
	}
	req := signedRequest(t, event, testAPISecret)
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if len(repo.upserts)+len(repo.merges) != 0 {
		t.Fatal("event without room context must not reach the store")
	}
}

func TestWebhookStoreFailureReturns500(t *testing.T) {
	repo := &fakeRoomRepository{err: errors.New("connection reset")}
	h := newTestHandler(repo)

	req := signedRequest(t, participantJoined("lesson-1", 1), testAPISecret)
	rec := httptest.NewRecorder()
	h.HandleLiveKitWebhook(rec, req)

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500 so the upstream redelivers", rec.Code)
	}
}

func TestWebhookRouteRejectsWrongMethod(t *testing.T) {
	h := newTestHandler(&fakeRoomRepository{})

	r := chi.NewRouter()
	r.Post("/webhooks/livekit", h.HandleLiveKitWebhook)

	req := httptest.NewRequest(http.MethodGet, "/webhooks/livekit", nil)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)

	if rec.Code != http.StatusMethodNotAllowed {
		t.Fatalf("status = %d, want 405", rec.Code)
	}
}
