package treasury

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	internalshared "github.com/meridian-erp/meridian-erp/internal/shared"
)

// AuditPort records audit trail entries for treasury mutations.
type AuditPort interface {
	Record(ctx context.Context, log internalshared.AuditLog) error
}

type Service struct {
	repo  Repository
	audit AuditPort
	cache *SummaryCache
	now   func() time.Time
}

func NewService(repo Repository, audit AuditPort, cache *SummaryCache) *Service {
	return &Service{repo: repo, audit: audit, cache: cache, now: time.Now}
}

// WithNow overrides the clock, used by tests.
func (s *Service) WithNow(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) CreateAccount(ctx context.Context, input CreateAccountInput, actorID int64) (BankAccount, error) {
	if err := input.Validate(); err != nil {
		return BankAccount{}, err
	}
	account, err := s.repo.CreateAccount(ctx, BankAccount{
		TypeID:          input.TypeID,
		LinkedAccountID: input.LinkedAccountID,
		Name:            input.Name,
		BankName:        input.BankName,
		Number:          input.Number,
		OpeningBalance:  input.OpeningBalance,
		CurrentBalance:  input.OpeningBalance,
		IsPettyCash:     input.IsPettyCash,
		Ceiling:         input.Ceiling,
	})
	if err != nil {
		return BankAccount{}, err
	}
	s.cache.Invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "treasury.account.create",
			Entity:   "bank_account",
			EntityID: fmt.Sprintf("%d", account.ID),
			Meta:     map[string]any{"name": account.Name, "opening_balance": account.OpeningBalance},
			At:       s.now(),
		})
	}
	return account, nil
}

// UpdateAccount patches mutable fields. The opening and current balances are
// never touched here; balances only move through movements.
func (s *Service) UpdateAccount(ctx context.Context, id int64, input UpdateAccountInput, actorID int64) (BankAccount, error) {
	patch := map[string]any{}
	if input.Name != nil {
		patch["name"] = *input.Name
	}
	if input.BankName != nil {
		patch["bank_name"] = *input.BankName
	}
	if input.Number != nil {
		patch["number"] = *input.Number
	}
	if input.Ceiling != nil {
		patch["ceiling"] = *input.Ceiling
	}
	if input.Active != nil {
		patch["active"] = *input.Active
	}
	account, err := s.repo.UpdateAccount(ctx, id, patch)
	if err != nil {
		return BankAccount{}, err
	}
	s.cache.Invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  actorID,
			Action:   "treasury.account.update",
			Entity:   "bank_account",
			EntityID: fmt.Sprintf("%d", account.ID),
			At:       s.now(),
		})
	}
	return account, nil
}

func (s *Service) GetAccount(ctx context.Context, id int64) (BankAccount, error) {
	return s.repo.GetAccount(ctx, id)
}

func (s *Service) ListAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error) {
	return s.repo.ListAccounts(ctx, activeOnly)
}

func (s *Service) ListTypes(ctx context.Context) ([]AccountType, error) {
	return s.repo.ListTypes(ctx)
}

func (s *Service) ListMovements(ctx context.Context, filter MovementFilter) ([]CashMovement, error) {
	return s.repo.ListMovements(ctx, filter)
}

// RecordMovement applies a manual IN or OUT movement. The account row stays
// locked from balance read to balance write, so the before and after figures
// on the movement always chain correctly.
func (s *Service) RecordMovement(ctx context.Context, input MovementInput) (CashMovement, error) {
	if err := input.Validate(); err != nil {
		return CashMovement{}, err
	}
	var movement CashMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		account, err := tx.GetAccountForUpdate(ctx, input.BankAccountID)
		if err != nil {
			return err
		}
		if !account.Active {
			return fmt.Errorf("treasury: account %s: %w", account.Name, shared.ErrAccountInactive)
		}
		before := account.CurrentBalance
		after := before + input.Amount
		if !input.Kind.Increases() {
			if before < input.Amount {
				return fmt.Errorf("treasury: account %s balance %.2f: %w", account.Name, before, shared.ErrInsufficientFunds)
			}
			after = before - input.Amount
		}
		inserted, err := tx.InsertMovement(ctx, CashMovement{
			BankAccountID: account.ID,
			Kind:          input.Kind,
			Description:   input.Description,
			Amount:        input.Amount,
			BalanceBefore: before,
			BalanceAfter:  after,
			MovementDate:  input.MovementDate,
			Reference:     input.Reference,
			PostedBy:      input.PostedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, account.ID, after); err != nil {
			return err
		}
		if account.IsPettyCash && account.Ceiling != nil && after > *account.Ceiling {
			inserted.CeilingExceeded = true
		}
		movement = inserted
		return nil
	})
	if err != nil {
		return CashMovement{}, err
	}
	s.cache.Invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   "treasury.movement",
			Entity:   "cash_movement",
			EntityID: fmt.Sprintf("%d", movement.ID),
			Meta:     map[string]any{"kind": string(movement.Kind), "amount": movement.Amount},
			At:       s.now(),
		})
	}
	return movement, nil
}

// Transfer debits one account and credits another in a single transaction.
// Rows are locked in ascending id order to avoid deadlocks between two
// opposing transfers running concurrently.
func (s *Service) Transfer(ctx context.Context, input TransferInput) ([]CashMovement, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	var movements []CashMovement
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		first, second := input.FromAccountID, input.ToAccountID
		if second < first {
			first, second = second, first
		}
		locked := map[int64]BankAccount{}
		for _, id := range []int64{first, second} {
			account, err := tx.GetAccountForUpdate(ctx, id)
			if err != nil {
				return err
			}
			if !account.Active {
				return fmt.Errorf("treasury: account %s: %w", account.Name, shared.ErrAccountInactive)
			}
			locked[id] = account
		}
		from := locked[input.FromAccountID]
		to := locked[input.ToAccountID]
		if from.CurrentBalance < input.Amount {
			return fmt.Errorf("treasury: account %s balance %.2f: %w", from.Name, from.CurrentBalance, shared.ErrInsufficientFunds)
		}

		outLeg, err := tx.InsertMovement(ctx, CashMovement{
			BankAccountID:    from.ID,
			Kind:             MovementTransferOut,
			Description:      input.Description,
			Amount:           input.Amount,
			BalanceBefore:    from.CurrentBalance,
			BalanceAfter:     from.CurrentBalance - input.Amount,
			MovementDate:     input.MovementDate,
			CounterAccountID: &to.ID,
			Reference:        input.Reference,
			PostedBy:         input.PostedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, from.ID, outLeg.BalanceAfter); err != nil {
			return err
		}

		inLeg, err := tx.InsertMovement(ctx, CashMovement{
			BankAccountID:    to.ID,
			Kind:             MovementTransferIn,
			Description:      input.Description,
			Amount:           input.Amount,
			BalanceBefore:    to.CurrentBalance,
			BalanceAfter:     to.CurrentBalance + input.Amount,
			MovementDate:     input.MovementDate,
			CounterAccountID: &from.ID,
			Reference:        input.Reference,
			PostedBy:         input.PostedBy,
		})
		if err != nil {
			return err
		}
		if err := tx.UpdateBalance(ctx, to.ID, inLeg.BalanceAfter); err != nil {
			return err
		}
		movements = []CashMovement{outLeg, inLeg}
		return nil
	})
	if err != nil {
		return nil, err
	}
	s.cache.Invalidate(ctx)
	if s.audit != nil {
		_ = s.audit.Record(ctx, internalshared.AuditLog{
			ActorID:  input.PostedBy,
			Action:   "treasury.transfer",
			Entity:   "cash_movement",
			EntityID: fmt.Sprintf("%d", movements[0].ID),
			Meta:     map[string]any{"from": input.FromAccountID, "to": input.ToAccountID, "amount": input.Amount},
			At:       s.now(),
		})
	}
	return movements, nil
}

func (s *Service) Summary(ctx context.Context) (Summary, error) {
	if summary, ok := s.cache.Get(ctx); ok {
		return summary, nil
	}
	summary, err := s.repo.Summary(ctx)
	if err != nil {
		return Summary{}, err
	}
	s.cache.Set(ctx, summary)
	return summary, nil
}
