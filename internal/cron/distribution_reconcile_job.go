package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

const (
	defaultReconcileCutoff = 15 * time.Minute
	defaultReconcileBatch  = 100
)

type distributor interface {
	Distribute(ctx context.Context, orderID uuid.UUID) error
}

type stuckOrderRepo interface {
	ListStuckDistributions(ctx context.Context, cutoff time.Time, limit int) ([]models.Order, error)
}

// DistributionReconcileJobParams configure the reconcile job.
type DistributionReconcileJobParams struct {
	Logger      *logger.Logger
	Orders      stuckOrderRepo
	Distributor distributor
	Cutoff      time.Duration
	BatchSize   int
}

// NewDistributionReconcileJob builds the job that re-drives paid orders
// whose settlement crashed partway. Distribution is idempotent per step, so
// re-running a half-settled order finishes only the missing credits.
func NewDistributionReconcileJob(params DistributionReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("orders repository required")
	}
	if params.Distributor == nil {
		return nil, fmt.Errorf("distributor required")
	}
	cutoff := params.Cutoff
	if cutoff <= 0 {
		cutoff = defaultReconcileCutoff
	}
	batch := params.BatchSize
	if batch <= 0 {
		batch = defaultReconcileBatch
	}
	return &distributionReconcileJob{
		logg:        params.Logger,
		orders:      params.Orders,
		distributor: params.Distributor,
		cutoff:      cutoff,
		batch:       batch,
	}, nil
}

type distributionReconcileJob struct {
	logg        *logger.Logger
	orders      stuckOrderRepo
	distributor distributor
	cutoff      time.Duration
	batch       int
}

func (j *distributionReconcileJob) Name() string { return "distribution_reconcile" }

func (j *distributionReconcileJob) Run(ctx context.Context) error {
	cutoff := time.Now().UTC().Add(-j.cutoff)
	stuck, err := j.orders.ListStuckDistributions(ctx, cutoff, j.batch)
	if err != nil {
		return fmt.Errorf("listing stuck distributions: %w", err)
	}
	if len(stuck) == 0 {
		return nil
	}

	j.logg.Info(j.logg.WithField(ctx, "count", len(stuck)), "re-driving stuck distributions")

	var errs []error
	for _, order := range stuck {
		if err := j.distributor.Distribute(ctx, order.ID); err != nil {
			errs = append(errs, fmt.Errorf("order %s: %w", order.ID, err))
			j.logg.Error(j.logg.WithField(ctx, "order_id", order.ID.String()), "reconcile distribution failed", err)
		}
	}
	return multierr.Combine(errs...)
}
