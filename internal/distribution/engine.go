package distribution

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/internal/commission"
	"github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/metrics"
)

// Engine splits a paid order's money across seller, platform and rider
// wallets. Every credit carries a reference derived from the order, so a
// crashed or repeated run re-applies only the steps that never completed:
// finished steps are skipped when their reference is already claimed.
type Engine struct {
	ordersRepo orders.Repository
	ledger     *wallets.Service
	table      *commission.Table
	metrics    *metrics.SettlementMetrics
	logg       *logger.Logger
}

// EngineParams groups dependencies for the distribution engine.
type EngineParams struct {
	OrdersRepo orders.Repository
	Ledger     *wallets.Service
	Table      *commission.Table
	Metrics    *metrics.SettlementMetrics
	Logger     *logger.Logger
}

// NewEngine builds a distribution engine.
func NewEngine(params EngineParams) (*Engine, error) {
	if params.OrdersRepo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "distribution engine requires an orders repository")
	}
	if params.Ledger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "distribution engine requires the wallet ledger")
	}
	if params.Table == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "distribution engine requires a commission table")
	}
	if params.Logger == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "distribution engine requires a logger")
	}
	return &Engine{
		ordersRepo: params.OrdersRepo,
		ledger:     params.Ledger,
		table:      params.Table,
		metrics:    params.Metrics,
		logg:       params.Logger,
	}, nil
}

// Distribute settles one order. Safe to call repeatedly and from concurrent
// workers; exactly one run flips the order to distributed, and money moves
// at most once per step regardless of how many times it is driven.
func (e *Engine) Distribute(ctx context.Context, orderID uuid.UUID) error {
	order, err := e.ordersRepo.FindByID(ctx, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeNotFound, err, "order not found")
	}

	ctx = e.logg.WithOrderID(ctx, order.ID.String())

	if order.PaymentStatus != enums.PaymentStatusPaid {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order is not paid yet")
	}
	if order.DistributionStatus == enums.DistributionStatusDistributed {
		e.logg.Info(ctx, "order already distributed, nothing to do")
		return nil
	}
	if len(order.VendorGroups) == 0 {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "order has no vendor groups")
	}

	var platformKobo int64
	for i := range order.VendorGroups {
		group := &order.VendorGroups[i]
		commissionKobo, err := e.settleVendorGroup(ctx, order, group)
		if err != nil {
			e.countDistribution("failed")
			return err
		}
		platformKobo += commissionKobo
	}

	if err := e.creditPlatform(ctx, order, platformKobo); err != nil {
		e.countDistribution("failed")
		return err
	}

	riderKobo, err := e.creditRider(ctx, order)
	if err != nil {
		e.countDistribution("failed")
		return err
	}

	now := time.Now().UTC()
	flipped, err := e.ordersRepo.MarkDistributed(ctx, order.ID, platformKobo, riderKobo, now)
	if err != nil {
		e.countDistribution("failed")
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "marking order distributed")
	}
	if !flipped {
		// Another worker got here first; all our credits were skipped on
		// their references, so nothing was double paid.
		e.logg.Info(ctx, "order distributed by a concurrent worker")
		return nil
	}

	e.countDistribution("distributed")
	if e.metrics != nil {
		e.metrics.AddDistributedKobo(order.TotalSubtotalKobo() + order.DeliveryFeeKobo)
	}
	e.logg.Info(e.logg.WithFields(ctx, map[string]any{
		"platform_kobo": platformKobo,
		"rider_kobo":    riderKobo,
		"groups":        len(order.VendorGroups),
	}), "order distributed")
	return nil
}

// settleVendorGroup pays one seller their share and records the split on the
// group and child order rows.
func (e *Engine) settleVendorGroup(ctx context.Context, order *models.Order, group *models.OrderVendorGroup) (int64, error) {
	rate := e.table.Rate(group.VendorRole)
	commissionKobo, payoutKobo := e.table.Split(group.VendorRole, group.SubtotalKobo)

	if payoutKobo > 0 {
		vendorID := group.VendorUserID
		_, err := e.ledger.Credit(ctx, wallets.CreditInput{
			UserID:      &vendorID,
			Role:        group.VendorRole.WalletRole(),
			AmountKobo:  payoutKobo,
			OrderID:     &order.ID,
			Source:      enums.TransactionSourceOrderPayment,
			Reference:   VendorReference(order.ID, group.VendorUserID, group.VendorRole),
			Description: fmt.Sprintf("payout for order #%d", order.OrderNumber),
		})
		if err != nil {
			return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting vendor payout")
		}
	}

	now := time.Now().UTC()
	if err := e.ordersRepo.UpdateVendorGroupSettlement(ctx, group.ID, rate.String(), commissionKobo, payoutKobo, now); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording vendor group settlement")
	}
	if err := e.ordersRepo.UpdateChildOrderFinancials(ctx, order.ID, group.VendorUserID, commissionKobo, payoutKobo); err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "recording child order financials")
	}
	return commissionKobo, nil
}

func (e *Engine) creditPlatform(ctx context.Context, order *models.Order, amountKobo int64) error {
	if amountKobo <= 0 {
		return nil
	}
	_, err := e.ledger.Credit(ctx, wallets.CreditInput{
		UserID:      nil,
		Role:        enums.WalletRolePlatform,
		AmountKobo:  amountKobo,
		OrderID:     &order.ID,
		Source:      enums.TransactionSourceCommission,
		Reference:   PlatformReference(order.ID),
		Description: fmt.Sprintf("commission for order #%d", order.OrderNumber),
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting platform commission")
	}
	return nil
}

func (e *Engine) creditRider(ctx context.Context, order *models.Order) (int64, error) {
	if order.RiderUserID == nil || order.DeliveryFeeKobo <= 0 {
		return 0, nil
	}
	_, err := e.ledger.Credit(ctx, wallets.CreditInput{
		UserID:      order.RiderUserID,
		Role:        enums.WalletRoleRider,
		AmountKobo:  order.DeliveryFeeKobo,
		OrderID:     &order.ID,
		Source:      enums.TransactionSourceDeliveryFee,
		Reference:   RiderReference(order.ID),
		Description: fmt.Sprintf("delivery fee for order #%d", order.OrderNumber),
	})
	if err != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "crediting rider delivery fee")
	}
	return order.DeliveryFeeKobo, nil
}

func (e *Engine) countDistribution(outcome string) {
	if e.metrics != nil {
		e.metrics.IncDistribution(outcome)
	}
}

// VendorReference is the deterministic ledger reference for one seller's
// payout on one order.
func VendorReference(orderID, vendorUserID uuid.UUID, role enums.VendorRole) string {
	return fmt.Sprintf("dist-%s-%s-%s", orderID, vendorUserID, role)
}

// PlatformReference is the ledger reference for the platform's commission.
func PlatformReference(orderID uuid.UUID) string {
	return fmt.Sprintf("dist-%s-platform", orderID)
}

// RiderReference is the ledger reference for the rider's delivery fee.
func RiderReference(orderID uuid.UUID) string {
	return fmt.Sprintf("dist-%s-rider", orderID)
}
