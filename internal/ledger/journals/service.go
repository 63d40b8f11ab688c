package journals

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit trail entries for journal mutations.
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

// Create validates and persists a new entry in DRAFT state. The period row is
// locked for the duration of the transaction so concurrent postings against
// the same period receive distinct, contiguous sequence numbers.
func (s *Service) Create(ctx context.Context, input CreateEntryInput) (JournalEntry, error) {
	if err := input.Validate(); err != nil {
		return JournalEntry{}, err
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var period periods.Period
		var err error
		if input.PeriodID != nil {
			period, err = tx.GetPeriodForUpdate(ctx, *input.PeriodID)
		} else {
			period, err = tx.FindPeriodForDateForUpdate(ctx, input.Date)
		}
		if err != nil {
			return err
		}
		if period.State == periods.PeriodStateClosed {
			return shared.ErrPeriodClosed
		}

		ids := make([]int64, 0, len(input.Lines))
		for _, line := range input.Lines {
			ids = append(ids, line.AccountID)
		}
		accts, err := tx.GetAccounts(ctx, ids)
		if err != nil {
			return err
		}
		for _, line := range input.Lines {
			account, ok := accts[line.AccountID]
			if !ok {
				return fmt.Errorf("journals: account %d: %w", line.AccountID, shared.ErrUnknownAccount)
			}
			if !account.AllowsPostings {
				return fmt.Errorf("journals: account %s: %w", account.Code, shared.ErrAccountNotPostable)
			}
			if !account.Active {
				return fmt.Errorf("journals: account %s: %w", account.Code, shared.ErrAccountInactive)
			}
		}

		seq, err := tx.NextSequence(ctx, period.ID)
		if err != nil {
			return err
		}
		debit, credit := input.Totals()
		inserted, err := tx.InsertEntry(ctx, JournalEntry{
			PeriodID:    period.ID,
			Sequence:    seq,
			Number:      fmt.Sprintf("%d%02d-%06d", period.Year, period.Month, seq),
			Date:        input.Date,
			Description: input.Description,
			Category:    input.Category,
			InvoiceRef:  input.InvoiceRef,
			PostedBy:    input.PostedBy,
			State:       EntryStateDraft,
			TotalDebit:  debit,
			TotalCredit: credit,
		})
		if err != nil {
			return err
		}
		if err := tx.InsertLines(ctx, inserted.ID, input.Lines); err != nil {
			return err
		}
		inserted.Period = &period
		inserted.Lines = toJournalLines(inserted.ID, input.Lines)
		entry = inserted
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   "journal.create",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     map[string]any{"number": entry.Number, "category": string(entry.Category)},
			At:       s.now(),
		})
	}
	return entry, nil
}

// Approve transitions a DRAFT entry to APPROVED. The owning period is
// re-checked under lock in case it closed in the meantime.
func (s *Service) Approve(ctx context.Context, id int64, actorID int64) (JournalEntry, error) {
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, id)
		if err != nil {
			return err
		}
		switch current.State {
		case EntryStateApproved:
			return shared.ErrAlreadyApproved
		case EntryStateVoid:
			return shared.ErrCannotApproveVoided
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if period.State == periods.PeriodStateClosed {
			return shared.ErrPeriodClosed
		}
		if err := tx.UpdateState(ctx, current.ID, EntryStateApproved, current.Description); err != nil {
			return err
		}
		entry = current
		entry.State = EntryStateApproved
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "journal.approve",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     map[string]any{"number": entry.Number},
			At:       s.now(),
		})
	}
	return entry, nil
}

// Void marks an entry VOID and tags the reason onto its description. Lines
// are kept for audit; aggregation excludes VOID entries by state filter.
// Voiding inside a closed period is not allowed.
func (s *Service) Void(ctx context.Context, input VoidInput) (JournalEntry, error) {
	if input.EntryID == 0 {
		return JournalEntry{}, shared.ErrNotFound
	}
	var entry JournalEntry
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetEntryForUpdate(ctx, input.EntryID)
		if err != nil {
			return err
		}
		if current.State == EntryStateVoid {
			return shared.ErrAlreadyVoided
		}
		period, err := tx.GetPeriodForUpdate(ctx, current.PeriodID)
		if err != nil {
			return err
		}
		if period.State == periods.PeriodStateClosed {
			return shared.ErrPeriodClosed
		}
		description := fmt.Sprintf("%s [VOIDED: %s]", current.Description, input.Reason)
		if err := tx.UpdateState(ctx, current.ID, EntryStateVoid, description); err != nil {
			return err
		}
		entry = current
		entry.State = EntryStateVoid
		entry.Description = description
		return nil
	})
	if err != nil {
		return JournalEntry{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.ActorID,
			Action:   "journal.void",
			Entity:   "journal_entry",
			EntityID: fmt.Sprintf("%d", entry.ID),
			Meta:     map[string]any{"reason": input.Reason},
			At:       s.now(),
		})
	}
	return entry, nil
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]JournalEntry, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Get(ctx context.Context, id int64) (JournalEntry, error) {
	return s.repo.GetByID(ctx, id)
}

func toJournalLines(entryID int64, lines []LineInput) []JournalLine {
	out := make([]JournalLine, 0, len(lines))
	for _, line := range lines {
		out = append(out, JournalLine{
			EntryID:   entryID,
			AccountID: line.AccountID,
			Debit:     line.Debit,
			Credit:    line.Credit,
		})
	}
	return out
}
