package periods

import (
	"context"
	"errors"
	"fmt"
	"time"

	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// AuditPort records audit trail entries for period mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Create opens a new period covering the requested calendar month.
func (s *Service) Create(ctx context.Context, in CreatePeriodInput) (Period, error) {
	if err := in.Validate(); err != nil {
		return Period{}, err
	}
	name := in.Name
	if name == "" {
		name = fmt.Sprintf("%s %d", time.Month(in.Month).String(), in.Year)
	}
	start := time.Date(in.Year, time.Month(in.Month), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 1, -1)
	return s.repo.Create(ctx, Period{
		Year:      in.Year,
		Month:     in.Month,
		Name:      name,
		StartDate: start,
		EndDate:   end,
		State:     PeriodStateOpen,
	})
}

// GetOrCreateCurrent returns the period for the current month, creating it
// lazily so postings never block on a missing period.
func (s *Service) GetOrCreateCurrent(ctx context.Context) (Period, error) {
	now := s.now()
	period, err := s.repo.GetByYearMonth(ctx, now.Year(), int(now.Month()))
	if err == nil {
		return period, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return Period{}, err
	}
	created, err := s.Create(ctx, CreatePeriodInput{Year: now.Year(), Month: int(now.Month())})
	if err == nil {
		return created, nil
	}
	// Lost the race against a concurrent creation: re-read.
	if errors.Is(err, shared.ErrDuplicate) {
		return s.repo.GetByYearMonth(ctx, now.Year(), int(now.Month()))
	}
	return Period{}, err
}

// Close transitions an open period to CLOSED. Draft entries block the close;
// closing is terminal, there is no reopen.
func (s *Service) Close(ctx context.Context, id int64, actorID int64) (Period, error) {
	var closed Period
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		period, err := tx.GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if period.State == PeriodStateClosed {
			return shared.ErrAlreadyClosed
		}
		pending, err := tx.CountEntriesNotApproved(ctx, period.ID)
		if err != nil {
			return err
		}
		if pending > 0 {
			return shared.ErrPendingEntries
		}
		closedAt := s.now()
		if err := tx.MarkClosed(ctx, period.ID, actorID, closedAt); err != nil {
			return err
		}
		closed = period
		closed.State = PeriodStateClosed
		closed.ClosedAt = &closedAt
		closed.ClosedBy = &actorID
		return nil
	})
	if err != nil {
		return Period{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "period.close",
			Entity:   "period",
			EntityID: fmt.Sprintf("%d", closed.ID),
			Meta:     map[string]any{"year": closed.Year, "month": closed.Month},
			At:       s.now(),
		})
	}
	return closed, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Period, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Period, error) {
	return s.repo.List(ctx, filter)
}

// GetActive returns the open period covering today.
func (s *Service) GetActive(ctx context.Context) (Period, error) {
	return s.repo.GetActive(ctx, s.now())
}
