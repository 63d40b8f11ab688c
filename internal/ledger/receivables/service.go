package receivables

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit trail entries for receivable mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

type Service struct {
	repo   Repository
	audit  AuditPort
	logger *slog.Logger
	now    func() time.Time
}

func NewService(repo Repository, audit AuditPort, logger *slog.Logger) *Service {
	return &Service{repo: repo, audit: audit, logger: logger, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func daysOverdue(due time.Time, today time.Time) int {
	days := int(today.Sub(due).Hours() / 24)
	if days < 0 {
		return 0
	}
	return days
}

// Create registers a receivable. A due date already in the past yields
// OVERDUE immediately rather than waiting for the nightly refresh.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Receivable, error) {
	if err := input.Validate(); err != nil {
		return Receivable{}, err
	}
	overdue := daysOverdue(input.DueDate, s.now())
	state := StatePending
	if overdue > 0 {
		state = StateOverdue
	}
	rec, err := s.repo.Create(ctx, Receivable{
		InvoiceID:    input.InvoiceID,
		CustomerName: input.CustomerName,
		IssueDate:    input.IssueDate,
		DueDate:      input.DueDate,
		Total:        input.Total,
		Paid:         0,
		Outstanding:  input.Total,
		State:        state,
		DaysOverdue:  overdue,
	})
	if err != nil {
		return Receivable{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "receivable.create",
			Entity:   "receivable",
			EntityID: fmt.Sprintf("%d", rec.ID),
			Meta:     map[string]any{"invoice_id": rec.InvoiceID.String(), "total": rec.Total},
			At:       s.now(),
		})
	}
	return rec, nil
}

// RegisterPayment applies a collection against a receivable. When a bank
// account is given the deposit happens in the same transaction, so a failed
// balance update rolls back the payment too.
func (s *Service) RegisterPayment(ctx context.Context, input PaymentInput) (Receivable, Payment, error) {
	if err := input.Validate(); err != nil {
		return Receivable{}, Payment{}, err
	}
	var (
		rec     Receivable
		payment Payment
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.ReceivableID)
		if err != nil {
			return err
		}
		if current.Settled() {
			return shared.ErrAlreadySettled
		}
		if input.Amount > current.Outstanding+0.005 {
			return fmt.Errorf("receivables: payment %.2f exceeds outstanding %.2f: %w", input.Amount, current.Outstanding, shared.ErrAmountExceedsBalance)
		}

		inserted, err := tx.InsertPayment(ctx, Payment{
			ReceivableID:  current.ID,
			Amount:        input.Amount,
			PaymentDate:   input.PaymentDate,
			Method:        input.Method,
			BankAccountID: input.BankAccountID,
			Reference:     input.Reference,
			PostedBy:      input.PostedBy,
		})
		if err != nil {
			return err
		}

		if input.BankAccountID != nil {
			account, err := tx.GetBankAccountForUpdate(ctx, *input.BankAccountID)
			if err != nil {
				return err
			}
			if !account.Active {
				return fmt.Errorf("receivables: account %s: %w", account.Name, shared.ErrAccountInactive)
			}
			movement, err := tx.InsertMovement(ctx, treasury.CashMovement{
				BankAccountID:       account.ID,
				Kind:                treasury.MovementIn,
				Description:         fmt.Sprintf("Collection on invoice %s", current.InvoiceID),
				Amount:              input.Amount,
				BalanceBefore:       account.CurrentBalance,
				BalanceAfter:        account.CurrentBalance + input.Amount,
				MovementDate:        input.PaymentDate,
				ReceivablePaymentID: &inserted.ID,
				PostedBy:            input.PostedBy,
				Reference:           input.Reference,
			})
			if err != nil {
				return err
			}
			if err := tx.UpdateBankBalance(ctx, account.ID, movement.BalanceAfter); err != nil {
				return err
			}
			if err := tx.SetMovementID(ctx, inserted.ID, movement.ID); err != nil {
				return err
			}
			inserted.MovementID = &movement.ID
		}

		paid := current.Paid + input.Amount
		outstanding := current.Total - paid
		state := StatePartial
		overdue := current.DaysOverdue
		if outstanding <= 0.005 {
			outstanding = 0
			state = StatePaid
			overdue = 0
		}
		if err := tx.UpdateProgress(ctx, current.ID, paid, outstanding, state, overdue); err != nil {
			return err
		}
		current.Paid = paid
		current.Outstanding = outstanding
		current.State = state
		current.DaysOverdue = overdue
		rec = current
		payment = inserted
		return nil
	})
	if err != nil {
		return Receivable{}, Payment{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   "receivable.payment",
			Entity:   "receivable",
			EntityID: fmt.Sprintf("%d", rec.ID),
			Meta:     map[string]any{"amount": payment.Amount, "state": string(rec.State)},
			At:       s.now(),
		})
	}
	return rec, payment, nil
}

// RefreshOverdue recomputes days overdue for every open receivable and
// flips past-due PENDING and PARTIAL records to OVERDUE. Failures on
// individual rows are logged and skipped so one bad record cannot stall
// the sweep.
func (s *Service) RefreshOverdue(ctx context.Context) (int, error) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	today := s.now()
	updated := 0
	for _, rec := range open {
		overdue := daysOverdue(rec.DueDate, today)
		state := rec.State
		if overdue > 0 {
			state = StateOverdue
		}
		if overdue == rec.DaysOverdue && state == rec.State {
			continue
		}
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.GetForUpdate(ctx, rec.ID)
			if err != nil {
				return err
			}
			if current.Settled() {
				return nil
			}
			return tx.UpdateProgress(ctx, current.ID, current.Paid, current.Outstanding, state, overdue)
		})
		if err != nil {
			if s.logger != nil {
				s.logger.Error("refresh overdue receivable", slog.Any("error", err), slog.Int64("id", rec.ID))
			}
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Receivable, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Receivable, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Payments(ctx context.Context, receivableID int64) ([]Payment, error) {
	if _, err := s.repo.GetByID(ctx, receivableID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, receivableID)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}
