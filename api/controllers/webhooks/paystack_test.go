package webhooks

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	paystackwebhook "github.com/tundeadepitan/swiftchow-backend/internal/webhooks/paystack"
	"github.com/tundeadepitan/swiftchow-backend/pkg/paystack"
)

func TestPaystackWebhook_SuccessAndIdempotent(t *testing.T) {
	payload, header := buildSignedPaystackEvent(t, "sk_test_secret")
	service := &fakePaystackWebhookService{}
	store := newMemoryIdempotencyStore()
	guard, err := paystackwebhook.NewIdempotencyGuard(store, time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakePaystackVerifier{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("x-paystack-signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", rec.Code, rec.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected service called once, got %d", service.calls)
	}

	// Replay the same delivery
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req2.Header.Set("x-paystack-signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected 200 on duplicate, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 1 {
		t.Fatalf("expected duplicate not processed, call count %d", service.calls)
	}
}

func TestPaystackWebhook_InvalidSignature(t *testing.T) {
	payload, _ := buildSignedPaystackEvent(t, "sk_test_secret")
	service := &fakePaystackWebhookService{}
	store := newMemoryIdempotencyStore()
	guard, err := paystackwebhook.NewIdempotencyGuard(store, time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakePaystackVerifier{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("x-paystack-signature", "deadbeef")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 for forged signature, got %d", rec.Code)
	}
	if service.calls != 0 {
		t.Fatalf("service should not be invoked on forged signature")
	}
}

func TestPaystackWebhook_HandlerFailureAllowsRetry(t *testing.T) {
	payload, header := buildSignedPaystackEvent(t, "sk_test_secret")
	service := &fakePaystackWebhookService{failures: 1}
	store := newMemoryIdempotencyStore()
	guard, err := paystackwebhook.NewIdempotencyGuard(store, time.Minute, "paystack-webhook")
	if err != nil {
		t.Fatalf("guard setup: %v", err)
	}
	handler := PaystackWebhook(service, &fakePaystackVerifier{secret: "sk_test_secret"}, guard, nil)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req.Header.Set("x-paystack-signature", header)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code == http.StatusOK {
		t.Fatalf("expected failure status on handler error, got 200")
	}

	// The claim must be released so the gateway's retry is processed.
	req2 := httptest.NewRequest(http.MethodPost, "/api/v1/webhooks/paystack", bytes.NewReader(payload))
	req2.Header.Set("x-paystack-signature", header)
	rec2 := httptest.NewRecorder()
	handler.ServeHTTP(rec2, req2)
	if rec2.Code != http.StatusOK {
		t.Fatalf("expected retry to succeed, got %d (%s)", rec2.Code, rec2.Body.String())
	}
	if service.calls != 2 {
		t.Fatalf("expected two handler invocations, got %d", service.calls)
	}
}

func buildSignedPaystackEvent(t *testing.T, secret string) ([]byte, string) {
	event := map[string]any{
		"event": "charge.success",
		"data": map[string]any{
			"reference": "ps-ref-001",
			"amount":    125_000_00,
			"currency":  "NGN",
		},
	}
	payload, err := json.Marshal(event)
	if err != nil {
		t.Fatalf("marshal event: %v", err)
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return payload, hex.EncodeToString(mac.Sum(nil))
}

type fakePaystackWebhookService struct {
	calls    int
	failures int
}

func (f *fakePaystackWebhookService) HandleEvent(ctx context.Context, event *paystackwebhook.Event) error {
	f.calls++
	if f.failures > 0 {
		f.failures--
		return fmt.Errorf("settlement datastore offline")
	}
	return nil
}

type fakePaystackVerifier struct {
	secret string
}

func (v *fakePaystackVerifier) VerifySignature(payload []byte, header string) bool {
	return paystack.VerifySignature(payload, v.secret, header)
}

type memoryIdempotencyStore struct {
	mu   sync.Mutex
	data map[string]string
}

func newMemoryIdempotencyStore() *memoryIdempotencyStore {
	return &memoryIdempotencyStore{
		data: make(map[string]string),
	}
}

func (s *memoryIdempotencyStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.data[key], nil
}

func (s *memoryIdempotencyStore) SetNX(ctx context.Context, key string, value any, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.data[key]; exists {
		return false, nil
	}
	s.data[key] = fmt.Sprintf("%v", value)
	return true, nil
}

func (s *memoryIdempotencyStore) IdempotencyKey(scope, id string) string {
	return fmt.Sprintf("sc:idempotency:%s:%s", scope, id)
}

func (s *memoryIdempotencyStore) Del(ctx context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		delete(s.data, key)
	}
	return nil
}
