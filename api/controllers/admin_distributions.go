package controllers

import (
	"context"
	"net/http"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
)

// OrderDistributor re-runs settlement for one order.
type OrderDistributor interface {
	Distribute(ctx context.Context, orderID uuid.UUID) error
}

// AdminDistributeOrder re-drives settlement for a paid order. Safe to call
// repeatedly: already-applied ledger steps are skipped.
func AdminDistributeOrder(distributor OrderDistributor, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if distributor == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "distribution engine unavailable"))
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := distributor.Distribute(r.Context(), orderID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "distributed"})
	}
}
