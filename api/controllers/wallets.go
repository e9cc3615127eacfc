package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/tundeadepitan/swiftchow-backend/api/middleware"
	"github.com/tundeadepitan/swiftchow-backend/api/responses"
	"github.com/tundeadepitan/swiftchow-backend/api/validators"
	"github.com/tundeadepitan/swiftchow-backend/internal/wallets"
	"github.com/tundeadepitan/swiftchow-backend/pkg/enums"
	pkgerrors "github.com/tundeadepitan/swiftchow-backend/pkg/errors"
	"github.com/tundeadepitan/swiftchow-backend/pkg/logger"
	"github.com/tundeadepitan/swiftchow-backend/pkg/pagination"
)

func actorFromContext(r *http.Request) (uuid.UUID, enums.WalletRole, error) {
	rawID := middleware.UserIDFromContext(r.Context())
	if rawID == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(rawID)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseWalletRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeForbidden, err, "role does not hold a wallet")
	}
	return userID, role, nil
}

// GetWallet returns the caller's wallet for their token role. Wallets are
// created by the first settlement credit, so a brand new vendor sees a 404
// until their first order settles.
func GetWallet(svc *wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallets service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role == enums.WalletRolePlatform {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "platform wallet is admin only"))
			return
		}

		wallet, err := svc.GetWallet(r.Context(), &userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallets.NewWalletView(wallet))
	}
}

// ListWalletTransactions pages through the caller's ledger, newest first.
func ListWalletTransactions(svc *wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallets service unavailable"))
			return
		}

		userID, role, err := actorFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if role == enums.WalletRolePlatform {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "platform wallet is admin only"))
			return
		}

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		cursor := strings.TrimSpace(r.URL.Query().Get("cursor"))

		wallet, err := svc.GetWallet(r.Context(), &userID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		items, next, err := svc.ListTransactions(r.Context(), wallet.ID, pagination.Params{Limit: limit, Cursor: cursor})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallets.NewTransactionPage(items, next))
	}
}

// AdminPlatformWallet exposes the platform commission wallet to operators.
func AdminPlatformWallet(svc *wallets.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "wallets service unavailable"))
			return
		}

		wallet, err := svc.PlatformWallet(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, wallets.NewWalletView(wallet))
	}
}
