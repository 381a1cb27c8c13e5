package controllers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/api/responses"
	"github.com/Fares-ag/blox-backend/api/validators"
	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/pagination"
)

// TransactionReader is the read surface the admin transaction views need.
type TransactionReader interface {
	List(ctx context.Context, status enums.PaymentStatus, params pagination.Params) ([]models.PaymentTransaction, string, error)
	FindByTransactionID(ctx context.Context, transactionID string) (*models.PaymentTransaction, error)
}

// AdminListTransactions pages through payment transactions, newest first.
func AdminListTransactions(repo TransactionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var status enums.PaymentStatus
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			parsed, err := enums.ParsePaymentStatus(raw)
			if err != nil {
				responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status filter"))
				return
			}
			status = parsed
		}

		rows, next, err := repo.List(ctx, status, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list transactions"))
			return
		}

		responses.WriteSuccess(w, map[string]any{
			"transactions": rows,
			"nextCursor":   next,
		})
	}
}

// AdminGetTransaction returns one payment transaction by its correlation key.
func AdminGetTransaction(repo TransactionReader, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		transactionID := chi.URLParam(r, "transactionId")
		if strings.TrimSpace(transactionID) == "" {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required"))
			return
		}

		tx, err := repo.FindByTransactionID(ctx, transactionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found"))
				return
			}
			responses.WriteError(ctx, logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load transaction"))
			return
		}
		responses.WriteSuccess(w, tx)
	}
}
