package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	"github.com/tundeadepitan/swiftchow-backend/api/validators"
	"github.com/tundeadepitan/swiftchow-backend/internal/withdrawals"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/db/models"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

type withdrawalRequestBody struct {
	AmountKobo    int64  `json:"amount_kobo" validate:"required,gt=0"`
	BankName      string `json:"bank_name" validate:"required,max=120"`
	BankCode      string `json:"bank_code" validate:"required,max=10"`
	AccountNumber string `json:"account_number" validate:"required,min=10,max=10"`
	AccountName   string `json:"account_name" validate:"required,max=120"`
}

type withdrawalReasonBody struct {
	Reason string `json:"reason" validate:"required,max=500"`
}

func parseWithdrawalID(r *http.Request) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, "withdrawalId"))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "withdrawal id is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid withdrawal id")
	}
	return id, nil
}

// RequestWithdrawal places a hold on the caller's available balance and
// queues the payout for review.
func RequestWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body withdrawalRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.Request(r.Context(), withdrawals.RequestInput{
			UserID:        userID,
			Role:          role,
			AmountKobo:    body.AmountKobo,
			BankName:      validators.SanitizeString(body.BankName, 120),
			BankCode:      validators.SanitizeString(body.BankCode, 10),
			AccountNumber: validators.SanitizeString(body.AccountNumber, 10),
			AccountName:   validators.SanitizeString(body.AccountName, 120),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawals.NewWithdrawalView(withdrawal))
	}
}

// ListMyWithdrawals pages through the caller's withdrawal history.
func ListMyWithdrawals(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		userID, _, err := actorFromContext(r)
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

		items, next, err := svc.ListByUser(r.Context(), userID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawals.NewWithdrawalPage(items, next))
	}
}

// GetMyWithdrawal returns one withdrawal owned by the caller.
func GetMyWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		userID, _, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		id, err := parseWithdrawalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if withdrawal.UserID != userID {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "withdrawal not found"))
			return
		}
		responses.WriteSuccess(w, withdrawals.NewWithdrawalView(withdrawal))
	}
}

// AdminApproveWithdrawal moves a pending withdrawal to approved.
func AdminApproveWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*models.Withdrawal, error) {
		return svc.Approve(r.Context(), id)
	})
}

// AdminRejectWithdrawal rejects a pending withdrawal and releases the hold.
func AdminRejectWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransitionWithReason(svc, logg, func(r *http.Request, id uuid.UUID, reason string) (*models.Withdrawal, error) {
		return svc.Reject(r.Context(), id, reason)
	})
}

// AdminProcessWithdrawal pushes an approved withdrawal to the transfer
// gateway. A gateway failure rejects the withdrawal and refunds the hold.
func AdminProcessWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*models.Withdrawal, error) {
		return svc.Process(r.Context(), id)
	})
}

// AdminCompleteWithdrawal settles a processing withdrawal after the transfer
// clears.
func AdminCompleteWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*models.Withdrawal, error) {
		return svc.Complete(r.Context(), id)
	})
}

// AdminFailWithdrawal marks a processing withdrawal as failed after the
// gateway reports the transfer bounced, refunding the hold.
func AdminFailWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransitionWithReason(svc, logg, func(r *http.Request, id uuid.UUID, reason string) (*models.Withdrawal, error) {
		return svc.Fail(r.Context(), id, reason)
	})
}

// AdminGetWithdrawal returns any withdrawal by id.
func AdminGetWithdrawal(svc *withdrawals.Service, logg *logger.Logger) http.HandlerFunc {
	return adminTransition(svc, logg, func(r *http.Request, id uuid.UUID) (*models.Withdrawal, error) {
		return svc.Get(r.Context(), id)
	})
}

func adminTransition(svc *withdrawals.Service, logg *logger.Logger, fn func(*http.Request, uuid.UUID) (*models.Withdrawal, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		id, err := parseWithdrawalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := fn(r, id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawals.NewWithdrawalView(withdrawal))
	}
}

func adminTransitionWithReason(svc *withdrawals.Service, logg *logger.Logger, fn func(*http.Request, uuid.UUID, string) (*models.Withdrawal, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "withdrawals service unavailable"))
			return
		}

		id, err := parseWithdrawalID(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body withdrawalReasonBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		withdrawal, err := fn(r, id, validators.SanitizeString(body.Reason, 500))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, withdrawals.NewWithdrawalView(withdrawal))
	}
}
