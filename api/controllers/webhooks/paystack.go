package webhooks

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"

	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	paystackwebhook "github.com/tundeadepitan/swiftchow-backend/internal/webhooks/paystack"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

type PaystackWebhookService interface {
	HandleEvent(ctx context.Context, event *paystackwebhook.Event) error
}

type paystackWebhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

type paystackVerifier interface {
	VerifySignature(payload []byte, header string) bool
}

// PaystackWebhook handles charge notifications from Paystack. Delivery is
// at-least-once, so the payload digest doubles as the idempotency key.
func PaystackWebhook(svc PaystackWebhookService, verifier paystackVerifier, guard paystackWebhookGuard, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		if svc == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "webhook service unavailable"))
			return
		}
		if verifier == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "paystack client unavailable"))
			return
		}
		if guard == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeInternal, "idempotency guard unavailable"))
			return
		}

		payload, err := io.ReadAll(r.Body)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request body"))
			return
		}

		sigHeader := r.Header.Get("x-paystack-signature")
		if sigHeader == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "paystack signature missing"))
			return
		}
		if !verifier.VerifySignature(payload, sigHeader) {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "paystack signature mismatch"))
			return
		}

		event, err := paystackwebhook.ParseEvent(payload)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		digest := sha256.Sum256(payload)
		eventID := hex.EncodeToString(digest[:])

		alreadyProcessed, err := guard.CheckAndMark(ctx, eventID)
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check idempotency"))
			return
		}
		if alreadyProcessed {
			responses.WriteSuccess(w, nil)
			return
		}

		if err := svc.HandleEvent(ctx, event); err != nil {
			_ = guard.Delete(ctx, eventID)
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if logg != nil {
			logg.Info(ctx, fmt.Sprintf("paystack event %s processed", event.Event))
		}
		responses.WriteSuccess(w, nil)
	}
}
