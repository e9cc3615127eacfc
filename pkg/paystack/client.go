package paystack

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/tundeadepitan/swiftchow-backend/pkg/config"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

var (
	errSecretKeyRequired = errors.New("paystack secret key is required")
	errLoggerRequired    = errors.New("paystack logger is required")
)

// Client wraps the Paystack transfer API with centralized auth, logging,
// timeouts, and error mapping. All amounts are integer kobo, matching both
// the platform's internal unit and the Paystack wire format.
type Client struct {
	httpClient *http.Client
	secretKey  string
	baseURL    string
	logger     *logger.Logger
}

// NewClient initializes the Paystack wrapper and validates the credentials.
func NewClient(ctx context.Context, cfg config.PaystackConfig, logg *logger.Logger) (*Client, error) {
	if logg == nil {
		return nil, errLoggerRequired
	}
	secretKey := strings.TrimSpace(cfg.SecretKey)
	if secretKey == "" {
		return nil, errSecretKeyRequired
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = "https://api.paystack.co"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		httpClient: &http.Client{Timeout: timeout},
		secretKey:  secretKey,
		baseURL:    baseURL,
		logger:     logg,
	}

	logg.Info(ctx, "paystack client initialized")
	return c, nil
}

// SigningSecret returns the key used to verify webhook signatures.
func (c *Client) SigningSecret() string {
	if c == nil {
		return ""
	}
	return c.secretKey
}

// VerifySignature checks the x-paystack-signature header: HMAC-SHA512 hex
// over the raw body, compared in constant time.
func (c *Client) VerifySignature(payload []byte, header string) bool {
	return VerifySignature(payload, c.SigningSecret(), header)
}

// VerifySignature reports whether header is a valid HMAC-SHA512 hex digest
// of payload under secret.
func VerifySignature(payload []byte, secret, header string) bool {
	if header == "" || secret == "" {
		return false
	}
	mac := hmac.New(sha512.New, []byte(secret))
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	return hmac.Equal([]byte(expected), []byte(header))
}

// RecipientParams describe the bank destination of a transfer.
type RecipientParams struct {
	Name          string `json:"name"`
	AccountNumber string `json:"account_number"`
	BankCode      string `json:"bank_code"`
	Currency      string `json:"currency"`
}

// TransferParams describe a single transfer attempt. Reference must be
// unique per attempt so the gateway never double-sends.
type TransferParams struct {
	AmountKobo    int64  `json:"amount"`
	RecipientCode string `json:"recipient"`
	Reason        string `json:"reason"`
	Reference     string `json:"reference"`
}

type envelope struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type recipientData struct {
	RecipientCode string `json:"recipient_code"`
}

type transferData struct {
	TransferCode string `json:"transfer_code"`
	Status       string `json:"status"`
}

// CreateTransferRecipient registers a NUBAN recipient and returns its code.
func (c *Client) CreateTransferRecipient(ctx context.Context, params RecipientParams) (string, error) {
	if params.AccountNumber == "" || params.BankCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "account number and bank code are required")
	}
	currency := params.Currency
	if currency == "" {
		currency = "NGN"
	}

	body := map[string]any{
		"type":           "nuban",
		"name":           params.Name,
		"account_number": params.AccountNumber,
		"bank_code":      params.BankCode,
		"currency":       currency,
	}

	c.log(ctx, "request", "create_transfer_recipient", map[string]any{
		"bank_code":      params.BankCode,
		"account_number": maskAccount(params.AccountNumber),
	})

	var data recipientData
	if err := c.post(ctx, "/transferrecipient", body, &data); err != nil {
		return "", err
	}
	if data.RecipientCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "paystack returned no recipient code")
	}
	return data.RecipientCode, nil
}

// InitiateTransfer starts a balance transfer and returns the transfer code.
func (c *Client) InitiateTransfer(ctx context.Context, params TransferParams) (string, error) {
	if params.AmountKobo <= 0 {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer amount must be positive")
	}
	if params.RecipientCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "recipient code is required")
	}
	if params.Reference == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, "transfer reference is required")
	}

	body := map[string]any{
		"source":    "balance",
		"amount":    params.AmountKobo,
		"recipient": params.RecipientCode,
		"reason":    params.Reason,
		"reference": params.Reference,
	}

	c.log(ctx, "request", "initiate_transfer", map[string]any{
		"amount_kobo": params.AmountKobo,
		"recipient":   params.RecipientCode,
		"reference":   params.Reference,
	})

	var data transferData
	if err := c.post(ctx, "/transfer", body, &data); err != nil {
		return "", err
	}
	if data.TransferCode == "" {
		return "", pkgerrors.New(pkgerrors.CodeDependency, "paystack returned no transfer code")
	}
	return data.TransferCode, nil
}

func (c *Client) post(ctx context.Context, path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "encode paystack request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "build paystack request")
	}
	req.Header.Set("Authorization", "Bearer "+c.secretKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "call paystack")
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read paystack response")
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack response")
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 || !env.Status {
		msg := env.Message
		if msg == "" {
			msg = fmt.Sprintf("paystack returned status %d", resp.StatusCode)
		}
		return pkgerrors.New(pkgerrors.CodeDependency, msg)
	}
	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode paystack data")
		}
	}
	return nil
}

func (c *Client) log(ctx context.Context, direction, operation string, fields map[string]any) {
	if c.logger == nil {
		return
	}
	merged := map[string]any{"direction": direction, "operation": operation}
	for k, v := range fields {
		merged[k] = v
	}
	c.logger.Info(c.logger.WithFields(ctx, merged), "paystack."+operation)
}

func maskAccount(accountNumber string) string {
	if len(accountNumber) <= 4 {
		return "****"
	}
	return strings.Repeat("*", len(accountNumber)-4) + accountNumber[len(accountNumber)-4:]
}
