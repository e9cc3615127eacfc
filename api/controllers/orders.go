package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/api/middleware"
	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	"github.com/tundeadepitan/swiftchow-backend/api/validators"
	internalorders "github.com/tundeadepitan/swiftchow-backend/internal/orders"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
	"github.com/tundeadepitan/swiftchow-backend/pkg/types"
)

type orderVendorGroupBody struct {
	VendorUserID string `json:"vendor_user_id" validate:"required,uuid4"`
	VendorRole   string `json:"vendor_role" validate:"required"`
	SubtotalKobo int64  `json:"subtotal_kobo" validate:"required,gt=0"`
}

type createOrderBody struct {
	OrderNumber      int64                  `json:"order_number" validate:"required,gt=0"`
	PaymentReference string                 `json:"payment_reference" validate:"required,max=120"`
	DeliveryFeeKobo  int64                  `json:"delivery_fee_kobo" validate:"gte=0"`
	RiderUserID      types.NullableUUID     `json:"rider_user_id"`
	Groups           []orderVendorGroupBody `json:"groups" validate:"required,min=1,dive"`
}

func callerID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return id, nil
}

func parseOrderID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "orderId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid order id")
	}
	return id, nil
}

// CreateOrder registers a pending order with its vendor split so the payment
// webhook can find it by reference later.
func CreateOrder(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		customerID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createOrderBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := internalorders.CreateOrderInput{
			OrderNumber:      body.OrderNumber,
			CustomerID:       customerID,
			PaymentReference: validators.SanitizeString(body.PaymentReference, 120),
			DeliveryFeeKobo:  body.DeliveryFeeKobo,
		}
		if body.RiderUserID.Valid {
			input.RiderUserID = body.RiderUserID.Value
		}
		for _, group := range body.Groups {
			vendorID, err := uuid.Parse(group.VendorUserID)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor id"))
				return
			}
			role, err := enums.ParseVendorRole(group.VendorRole)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid vendor role"))
				return
			}
			input.Groups = append(input.Groups, internalorders.VendorGroupInput{
				VendorUserID: vendorID,
				VendorRole:   role,
				SubtotalKobo: group.SubtotalKobo,
			})
		}

		order, err := svc.Create(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderView(order))
	}
}

// GetOrder returns one order. Customers only see their own; admins see all.
func GetOrder(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		orderID, err := parseOrderID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		order, err := svc.Get(r.Context(), orderID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if order.CustomerID != userID && !middleware.IsAdminFromContext(r.Context()) {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "order not found"))
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderView(order))
	}
}

// ListMyOrders pages through the caller's orders, newest first.
func ListMyOrders(svc *internalorders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}

		userID, err := callerID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		items, next, err := svc.ListByCustomer(r.Context(), userID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, internalorders.NewOrderPage(items, next))
	}
}
