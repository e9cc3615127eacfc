package paystack

import (
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	logg := logger.New(logger.Options{ServiceName: "test"})
	client, err := NewClient(context.Background(), config.PaystackConfig{
		SecretKey: "sk_test_abc",
		BaseURL:   baseURL,
		Timeout:   2 * time.Second,
	}, logg)
	require.NoError(t, err)
	return client
}

func sign(secret string, payload []byte) string {
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"event":"charge.success"}`)
	header := sign("sk_test_abc", payload)

	assert.True(t, VerifySignature(payload, "sk_test_abc", header))
	assert.False(t, VerifySignature(payload, "sk_test_abc", "deadbeef"))
	assert.False(t, VerifySignature(payload, "", header))
	assert.False(t, VerifySignature([]byte(`tampered`), "sk_test_abc", header))
}

func TestCreateTransferRecipient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/transferrecipient", r.URL.Path)
		require.Equal(t, "Bearer sk_test_abc", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":true,"message":"Recipient created","data":{"recipient_code":"RCP_123"}}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	code, err := client.CreateTransferRecipient(context.Background(), RecipientParams{
		Name:          "Ada Obi",
		AccountNumber: "0123456789",
		BankCode:      "058",
	})
	require.NoError(t, err)
	assert.Equal(t, "RCP_123", code)
}

func TestInitiateTransferGatewayFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"status":false,"message":"insufficient balance"}`))
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL)
	_, err := client.InitiateTransfer(context.Background(), TransferParams{
		AmountKobo:    495000,
		RecipientCode: "RCP_123",
		Reference:     "wd-attempt-1",
	})
	require.Error(t, err)
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeDependency))
	assert.Contains(t, err.Error(), "insufficient balance")
}

func TestInitiateTransferValidation(t *testing.T) {
	client := newTestClient(t, "http://127.0.0.1:0")

	_, err := client.InitiateTransfer(context.Background(), TransferParams{RecipientCode: "RCP_1", Reference: "r"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = client.InitiateTransfer(context.Background(), TransferParams{AmountKobo: 100, Reference: "r"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))

	_, err = client.InitiateTransfer(context.Background(), TransferParams{AmountKobo: 100, RecipientCode: "RCP_1"})
	assert.True(t, pkgerrors.IsCode(err, pkgerrors.CodeValidation))
}
