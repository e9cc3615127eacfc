package paystackwebhook

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/metrics"
)

// Distributor is the settlement entry point the webhook drives after a
// successful charge.
type Distributor interface {
	Distribute(ctx context.Context, orderID uuid.UUID) error
}

// Withdrawals is the slice of the withdrawals service that transfer events
// drive.
type Withdrawals interface {
	FindByTransferReference(ctx context.Context, reference string) (*models.Withdrawal, error)
	Complete(ctx context.Context, id uuid.UUID) (*models.Withdrawal, error)
	Fail(ctx context.Context, id uuid.UUID, reason string) (*models.Withdrawal, error)
}

// ServiceParams groups dependencies for the Paystack webhook service.
type ServiceParams struct {
	Orders      *orders.Service
	Distributor Distributor
	Withdrawals Withdrawals
	Metrics     *metrics.SettlementMetrics
	Logger      *logger.Logger
}

// Service turns verified Paystack events into payment confirmations and
// settlement runs. Signature verification happens in the transport layer;
// everything here assumes the payload is authentic.
type Service struct {
	orders      *orders.Service
	distributor Distributor
	withdrawals Withdrawals
	metrics     *metrics.SettlementMetrics
	logg        *logger.Logger
}

// NewService builds a Paystack webhook service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Orders == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook service requires the orders service")
	}
	if params.Distributor == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook service requires a distributor")
	}
	if params.Withdrawals == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook service requires the withdrawals service")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "webhook service requires a logger")
	}
	return &Service{
		orders:      params.Orders,
		distributor: params.Distributor,
		withdrawals: params.Withdrawals,
		metrics:     params.Metrics,
		logg:        params.Logger,
	}, nil
}

// Event is the envelope Paystack posts to the webhook endpoint.
type Event struct {
	Event string    `json:"event"`
	Data  EventData `json:"data"`
}

// EventData carries the charge fields the gateway cares about.
type EventData struct {
	Reference  string          `json:"reference"`
	AmountKobo int64           `json:"amount"`
	Currency   string          `json:"currency"`
	PaidAt     *time.Time      `json:"paid_at"`
	Metadata   json.RawMessage `json:"metadata"`
}

// ParseEvent decodes a raw webhook body.
func ParseEvent(body []byte) (*Event, error) {
	var event Event
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "malformed webhook payload")
	}
	if event.Event == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "webhook event type missing")
	}
	return &event, nil
}

// HandleEvent processes one verified Paystack event. Unhandled event types
// are acknowledged without action. charge.success marks the order paid and
// runs distribution synchronously; a duplicate delivery finds the order
// already paid and stops. Transfer events close out the matching
// withdrawal.
func (s *Service) HandleEvent(ctx context.Context, event *Event) error {
	if event == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "event is required")
	}

	switch event.Event {
	case "charge.success":
	case "transfer.success":
		return s.handleTransfer(ctx, event, true)
	case "transfer.failed", "transfer.reversed":
		return s.handleTransfer(ctx, event, false)
	default:
		s.countEvent("ignored")
		s.logg.Info(s.logg.WithFields(ctx, map[string]any{"event": event.Event}), "ignoring unhandled webhook event")
		return nil
	}
	if event.Data.Reference == "" {
		s.countEvent("invalid")
		return pkgerrors.New(pkgerrors.CodeValidation, "charge reference missing")
	}

	order, err := s.orders.FindByPaymentReference(ctx, event.Data.Reference)
	if err != nil {
		s.countEvent("order_not_found")
		return err
	}

	ctx = s.logg.WithOrderID(ctx, order.ID.String())

	expected := order.TotalSubtotalKobo() + order.DeliveryFeeKobo
	if event.Data.AmountKobo != expected {
		s.countEvent("amount_mismatch")
		s.logg.Warn(s.logg.WithFields(ctx, map[string]any{
			"charged_kobo":  event.Data.AmountKobo,
			"expected_kobo": expected,
		}), "charged amount does not match order total")
		return pkgerrors.New(pkgerrors.CodeStateConflict, "charged amount does not match order total")
	}

	paidAt := time.Now().UTC()
	if event.Data.PaidAt != nil {
		paidAt = event.Data.PaidAt.UTC()
	}

	flipped, err := s.orders.MarkPaid(ctx, order.ID, paidAt)
	if err != nil {
		s.countEvent("failed")
		return err
	}
	if !flipped {
		s.countEvent("duplicate")
		s.logg.Info(ctx, "order already paid, duplicate webhook delivery")
		return nil
	}

	s.countEvent("processed")
	s.logg.Info(ctx, "order marked paid, starting distribution")

	if err := s.distributor.Distribute(ctx, order.ID); err != nil {
		// The order stays paid/undistributed; the reconciler re-drives it.
		s.logg.Error(ctx, "distribution failed, leaving order for the reconciler", err)
		return nil
	}
	return nil
}

// handleTransfer settles the withdrawal behind a gateway transfer event. A
// replayed delivery finds the withdrawal no longer processing and stops.
func (s *Service) handleTransfer(ctx context.Context, event *Event, succeeded bool) error {
	if event.Data.Reference == "" {
		s.countEvent("invalid")
		return pkgerrors.New(pkgerrors.CodeValidation, "transfer reference missing")
	}

	withdrawal, err := s.withdrawals.FindByTransferReference(ctx, event.Data.Reference)
	if err != nil {
		s.countEvent("withdrawal_not_found")
		return err
	}

	if succeeded {
		_, err = s.withdrawals.Complete(ctx, withdrawal.ID)
	} else {
		_, err = s.withdrawals.Fail(ctx, withdrawal.ID, event.Event)
	}
	if err != nil {
		if pkgerrors.IsCode(err, pkgerrors.CodeStateConflict) {
			s.countEvent("duplicate")
			s.logg.Info(s.logg.WithFields(ctx, map[string]any{
				"withdrawal_id": withdrawal.ID.String(),
				"event":         event.Event,
			}), "withdrawal already settled, duplicate transfer event")
			return nil
		}
		s.countEvent("failed")
		return err
	}

	s.countEvent("processed")
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"withdrawal_id": withdrawal.ID.String(),
		"event":         event.Event,
	}), "transfer event settled withdrawal")
	return nil
}

func (s *Service) countEvent(outcome string) {
	if s.metrics != nil {
		s.metrics.IncWebhookEvent(outcome)
	}
}
