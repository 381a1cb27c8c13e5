package controllers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Fares-ag/blox-backend/api/responses"
	"github.com/Fares-ag/blox-backend/api/validators"
	"github.com/Fares-ag/blox-backend/internal/applications"
	"github.com/Fares-ag/blox-backend/pkg/db/models"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/logger"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

// ApplicationsService is the surface the admin schedule controllers need.
type ApplicationsService interface {
	GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error)
	Regenerate(ctx context.Context, id uuid.UUID, params applications.RegenerateParams) (*types.InstallmentPlan, error)
	ShiftFirstPayment(ctx context.Context, id uuid.UUID, newFirst types.Date) (*types.InstallmentPlan, error)
	MarkSettled(ctx context.Context, id uuid.UUID, paidOn types.Date) error
	MarkEntryPaid(ctx context.Context, id uuid.UUID, index int, paidOn types.Date) error
}

// AdminGetApplication returns one application with its installment plan.
func AdminGetApplication(svc ApplicationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := applicationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		app, err := svc.GetApplication(ctx, id)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, app)
	}
}

type regenerateScheduleRequest struct {
	Tenure         string          `json:"tenure" validate:"required"`
	Interval       string          `json:"interval,omitempty"`
	MonthlyPayment decimal.Decimal `json:"monthlyPayment" validate:"required"`
	StartDate      *types.Date     `json:"startDate,omitempty"`
}

// AdminRegenerateSchedule rebuilds an application's installment plan.
func AdminRegenerateSchedule(svc ApplicationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := applicationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req regenerateScheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.Regenerate(ctx, id, applications.RegenerateParams{
			TenureLabel:    req.Tenure,
			Interval:       req.Interval,
			MonthlyPayment: req.MonthlyPayment,
			StartDate:      req.StartDate,
		})
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

type shiftScheduleRequest struct {
	FirstDueDate types.Date `json:"firstDueDate" validate:"required"`
}

// AdminShiftSchedule moves every due date so the first lands on the given day.
func AdminShiftSchedule(svc ApplicationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := applicationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req shiftScheduleRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		plan, err := svc.ShiftFirstPayment(ctx, id, req.FirstDueDate)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, plan)
	}
}

type markPaidRequest struct {
	PaidDate *types.Date `json:"paidDate,omitempty"`
}

// AdminMarkEntryPaid marks one schedule entry as paid, for out-of-band
// settlements such as cash or bank transfer.
func AdminMarkEntryPaid(svc ApplicationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := applicationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		index, err := strconv.Atoi(chi.URLParam(r, "entryIndex"))
		if err != nil || index < 0 {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid schedule entry index"))
			return
		}

		var req markPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.MarkEntryPaid(ctx, id, index, paidDateOrToday(req.PaidDate)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"entryIndex": index, "status": "paid"})
	}
}

// AdminSettleSchedule marks every outstanding entry as paid in one go.
func AdminSettleSchedule(svc ApplicationsService, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		id, err := applicationID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req markPaidRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.MarkSettled(ctx, id, paidDateOrToday(req.PaidDate)); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "settled"})
	}
}

func applicationID(r *http.Request) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, "applicationId"))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid application id")
	}
	return id, nil
}

func paidDateOrToday(d *types.Date) types.Date {
	if d != nil {
		return *d
	}
	return types.NewDate(time.Now())
}
