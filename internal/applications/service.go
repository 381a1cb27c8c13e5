package applications

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Fares-ag/blox-backend/internal/schedule"
	"github.com/Fares-ag/blox-backend/pkg/db/models"
	"github.com/Fares-ag/blox-backend/pkg/enums"
	pkgerrors "github.com/Fares-ag/blox-backend/pkg/errors"
	"github.com/Fares-ag/blox-backend/pkg/types"
)

// PlanRepository is the persistence surface the service needs.
type PlanRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Application, error)
	UpdatePlan(ctx context.Context, id uuid.UUID, plan types.InstallmentPlan) error
}

// ServiceParams groups dependencies for the applications service.
type ServiceParams struct {
	Repo PlanRepository
}

// Service owns installment plan mutations for financing applications.
type Service struct {
	repo PlanRepository
}

// NewService builds an applications service.
func NewService(params ServiceParams) (*Service, error) {
	if params.Repo == nil {
		return nil, errors.New("repo is required")
	}
	return &Service{repo: params.Repo}, nil
}

// RegenerateParams describes a wholesale plan rebuild. Already-paid entries
// survive by index; everything else is recomputed.
type RegenerateParams struct {
	TenureLabel    string
	Interval       string
	MonthlyPayment decimal.Decimal
	StartDate      *types.Date

	// Now anchors status assignment; zero means the wall clock.
	Now time.Time
}

// GetApplication loads one application with its plan.
func (s *Service) GetApplication(ctx context.Context, id uuid.UUID) (*models.Application, error) {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load application")
	}
	return app, nil
}

// Regenerate rebuilds the application's schedule, carrying paid entries
// forward, and persists the replacement plan.
func (s *Service) Regenerate(ctx context.Context, id uuid.UUID, params RegenerateParams) (*types.InstallmentPlan, error) {
	if !params.MonthlyPayment.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "monthly payment must be positive")
	}

	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}

	plan, err := schedule.BuildPlan(schedule.PlanParams{
		TenureLabel:    params.TenureLabel,
		Interval:       enums.ParsePaymentInterval(params.Interval),
		MonthlyPayment: params.MonthlyPayment,
		VehiclePrice:   app.VehiclePrice,
		DownPayment:    app.DownPayment,
		StartDate:      params.StartDate,
		Existing:       app.InstallmentPlan.Schedule,
		Now:            params.Now,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "build plan")
	}

	if err := s.savePlan(ctx, id, plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// ShiftFirstPayment moves the whole schedule so its first due date lands on
// newFirst, leaving statuses and paid history alone.
func (s *Service) ShiftFirstPayment(ctx context.Context, id uuid.UUID, newFirst types.Date) (*types.InstallmentPlan, error) {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return nil, err
	}
	if len(app.InstallmentPlan.Schedule) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeStateConflict, "application has no schedule to shift")
	}

	plan := app.InstallmentPlan
	plan.Schedule = schedule.Shift(plan.Schedule, plan.Interval, newFirst)

	if err := s.savePlan(ctx, id, plan); err != nil {
		return nil, err
	}
	return &plan, nil
}

// MarkSettled marks every non-paid entry as paid on the given day. Used when a
// settlement payment closes out the remaining balance in one go.
func (s *Service) MarkSettled(ctx context.Context, id uuid.UUID, paidOn types.Date) error {
	return s.mutateSchedule(ctx, id, func(entries []types.ScheduleEntry) {
		for i := range entries {
			if entries[i].Status != enums.ScheduleEntryPaid {
				markPaid(&entries[i], paidOn)
			}
		}
	})
}

// MarkEntryPaid marks the entry at the given index as paid. Already-paid
// entries keep their original paid date.
func (s *Service) MarkEntryPaid(ctx context.Context, id uuid.UUID, index int, paidOn types.Date) error {
	var outOfRange bool
	err := s.mutateSchedule(ctx, id, func(entries []types.ScheduleEntry) {
		if index < 0 || index >= len(entries) {
			outOfRange = true
			return
		}
		if entries[index].Status != enums.ScheduleEntryPaid {
			markPaid(&entries[index], paidOn)
		}
	})
	if err != nil {
		return err
	}
	if outOfRange {
		return pkgerrors.New(pkgerrors.CodeValidation, "schedule entry index out of range")
	}
	return nil
}

// MarkNextPaid marks the first upcoming or active entry as paid. A fully paid
// schedule is left untouched.
func (s *Service) MarkNextPaid(ctx context.Context, id uuid.UUID, paidOn types.Date) error {
	return s.mutateSchedule(ctx, id, func(entries []types.ScheduleEntry) {
		for i := range entries {
			switch entries[i].Status {
			case enums.ScheduleEntryUpcoming, enums.ScheduleEntryActive:
				markPaid(&entries[i], paidOn)
				return
			}
		}
	})
}

func (s *Service) mutateSchedule(ctx context.Context, id uuid.UUID, mutate func([]types.ScheduleEntry)) error {
	app, err := s.GetApplication(ctx, id)
	if err != nil {
		return err
	}

	plan := app.InstallmentPlan
	entries := make([]types.ScheduleEntry, len(plan.Schedule))
	copy(entries, plan.Schedule)

	mutate(entries)
	plan.Schedule = entries

	return s.savePlan(ctx, id, plan)
}

func (s *Service) savePlan(ctx context.Context, id uuid.UUID, plan types.InstallmentPlan) error {
	if err := s.repo.UpdatePlan(ctx, id, plan); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "application not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist plan")
	}
	return nil
}

func markPaid(entry *types.ScheduleEntry, paidOn types.Date) {
	paid := paidOn
	entry.Status = enums.ScheduleEntryPaid
	entry.PaidDate = &paid
}
