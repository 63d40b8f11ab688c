package payables

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit trail entries for payable mutations.
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

// Create registers a payable. A due date already in the past yields OVERDUE
// immediately rather than waiting for the nightly refresh.
func (s *Service) Create(ctx context.Context, input CreateInput, actorID int64) (Payable, error) {
	if err := input.Validate(); err != nil {
		return Payable{}, err
	}
	overdue := daysOverdue(input.DueDate, s.now())
	state := StatePending
	if overdue > 0 {
		state = StateOverdue
	}
	p, err := s.repo.Create(ctx, Payable{
		SupplierName:      input.SupplierName,
		SupplierInvoiceNo: input.SupplierInvoiceNo,
		Concept:           input.Concept,
		IssueDate:         input.IssueDate,
		DueDate:           input.DueDate,
		Total:             input.Total,
		Paid:              0,
		Outstanding:       input.Total,
		State:             state,
		DaysOverdue:       overdue,
	})
	if err != nil {
		return Payable{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "payable.create",
			Entity:   "payable",
			EntityID: fmt.Sprintf("%d", p.ID),
			Meta:     map[string]any{"supplier": p.SupplierName, "total": p.Total},
			At:       s.now(),
		})
	}
	return p, nil
}

// RegisterPayment applies a disbursement against a payable. When a bank
// account is given the debit happens in the same transaction and is
// rejected outright if the account balance cannot cover it.
func (s *Service) RegisterPayment(ctx context.Context, input PaymentInput) (Payable, Payment, error) {
	if err := input.Validate(); err != nil {
		return Payable{}, Payment{}, err
	}
	var (
		payable Payable
		payment Payment
	)
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		current, err := tx.GetForUpdate(ctx, input.PayableID)
		if err != nil {
			return err
		}
		if current.Settled() {
			return shared.ErrAlreadySettled
		}
		if input.Amount > current.Outstanding+0.005 {
			return fmt.Errorf("payables: payment %.2f exceeds outstanding %.2f: %w", input.Amount, current.Outstanding, shared.ErrAmountExceedsBalance)
		}

		inserted, err := tx.InsertPayment(ctx, Payment{
			PayableID:     current.ID,
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
				return fmt.Errorf("payables: account %s: %w", account.Name, shared.ErrAccountInactive)
			}
			if account.CurrentBalance < input.Amount {
				return fmt.Errorf("payables: account %s balance %.2f: %w", account.Name, account.CurrentBalance, shared.ErrInsufficientFunds)
			}
			movement, err := tx.InsertMovement(ctx, treasury.CashMovement{
				BankAccountID:    account.ID,
				Kind:             treasury.MovementOut,
				Description:      fmt.Sprintf("Payment to %s: %s", current.SupplierName, current.Concept),
				Amount:           input.Amount,
				BalanceBefore:    account.CurrentBalance,
				BalanceAfter:     account.CurrentBalance - input.Amount,
				MovementDate:     input.PaymentDate,
				PayablePaymentID: &inserted.ID,
				PostedBy:         input.PostedBy,
				Reference:        input.Reference,
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
		payable = current
		payment = inserted
		return nil
	})
	if err != nil {
		return Payable{}, Payment{}, err
	}
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   "payable.payment",
			Entity:   "payable",
			EntityID: fmt.Sprintf("%d", payable.ID),
			Meta:     map[string]any{"amount": payment.Amount, "state": string(payable.State)},
			At:       s.now(),
		})
	}
	return payable, payment, nil
}

// RefreshOverdue recomputes days overdue for every open payable and flips
// past-due PENDING and PARTIAL records to OVERDUE. Failures on individual
// rows are logged and skipped.
func (s *Service) RefreshOverdue(ctx context.Context) (int, error) {
	open, err := s.repo.ListOpen(ctx)
	if err != nil {
		return 0, err
	}
	today := s.now()
	updated := 0
	for _, p := range open {
		overdue := daysOverdue(p.DueDate, today)
		state := p.State
		if overdue > 0 {
			state = StateOverdue
		}
		if overdue == p.DaysOverdue && state == p.State {
			continue
		}
		err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
			current, err := tx.GetForUpdate(ctx, p.ID)
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
				s.logger.Error("refresh overdue payable", slog.Any("error", err), slog.Int64("id", p.ID))
			}
			continue
		}
		updated++
	}
	return updated, nil
}

func (s *Service) Get(ctx context.Context, id int64) (Payable, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *Service) List(ctx context.Context, filter ListFilter) ([]Payable, error) {
	return s.repo.List(ctx, filter)
}

func (s *Service) Payments(ctx context.Context, payableID int64) ([]Payment, error) {
	if _, err := s.repo.GetByID(ctx, payableID); err != nil {
		return nil, err
	}
	return s.repo.ListPayments(ctx, payableID)
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	return s.repo.Summary(ctx)
}
