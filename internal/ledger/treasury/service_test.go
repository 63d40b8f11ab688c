package treasury

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

// fakeRepository emulates transactional semantics: state is snapshotted
// before fn runs and restored when fn fails, like a rollback would.
type fakeRepository struct {
	mu        sync.Mutex
	accounts  map[int64]*BankAccount
	movements []CashMovement
	nextID    int64

	failInsertAfter int // fail the Nth InsertMovement call, 0 disables
	insertCalls     int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{accounts: make(map[int64]*BankAccount), nextID: 1}
}

func (f *fakeRepository) addAccount(opening float64) *BankAccount {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &BankAccount{
		ID:             f.nextID,
		TypeID:         1,
		Name:           "account",
		OpeningBalance: opening,
		CurrentBalance: opening,
		Active:         true,
	}
	f.nextID++
	f.accounts[a.ID] = a
	return a
}

func (f *fakeRepository) CreateAccount(ctx context.Context, a BankAccount) (BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a.ID = f.nextID
	f.nextID++
	a.Active = true
	copied := a
	f.accounts[a.ID] = &copied
	return a, nil
}

func (f *fakeRepository) UpdateAccount(ctx context.Context, id int64, patch map[string]any) (BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return BankAccount{}, shared.ErrNotFound
	}
	if v, ok := patch["name"]; ok {
		a.Name = v.(string)
	}
	if v, ok := patch["active"]; ok {
		a.Active = v.(bool)
	}
	return *a, nil
}

func (f *fakeRepository) GetAccount(ctx context.Context, id int64) (BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return BankAccount{}, shared.ErrNotFound
	}
	return *a, nil
}

func (f *fakeRepository) ListAccounts(ctx context.Context, activeOnly bool) ([]BankAccount, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []BankAccount
	for _, a := range f.accounts {
		if activeOnly && !a.Active {
			continue
		}
		out = append(out, *a)
	}
	return out, nil
}

func (f *fakeRepository) ListTypes(ctx context.Context) ([]AccountType, error) {
	return []AccountType{{ID: 1, Code: "CASH", Name: "Cash drawer", CashLike: true}}, nil
}

func (f *fakeRepository) ListMovements(ctx context.Context, filter MovementFilter) ([]CashMovement, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []CashMovement
	for _, m := range f.movements {
		if filter.BankAccountID != nil && m.BankAccountID != *filter.BankAccountID {
			continue
		}
		out = append(out, m)
	}
	return out, nil
}

func (f *fakeRepository) Summary(ctx context.Context) (Summary, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var summary Summary
	for _, a := range f.accounts {
		if !a.Active {
			continue
		}
		summary.CashTotal += a.CurrentBalance
		summary.GrandTotal += a.CurrentBalance
		summary.Accounts = append(summary.Accounts, SummaryLine{
			AccountID: a.ID, Name: a.Name, TypeCode: "CASH", CashLike: true, Balance: a.CurrentBalance,
		})
	}
	return summary, nil
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapshotAccounts := make(map[int64]BankAccount, len(f.accounts))
	for id, a := range f.accounts {
		snapshotAccounts[id] = *a
	}
	snapshotMovements := append([]CashMovement(nil), f.movements...)
	snapshotNextID := f.nextID

	if err := fn(ctx, &fakeTxRepository{repo: f}); err != nil {
		f.accounts = make(map[int64]*BankAccount, len(snapshotAccounts))
		for id, a := range snapshotAccounts {
			copied := a
			f.accounts[id] = &copied
		}
		f.movements = snapshotMovements
		f.nextID = snapshotNextID
		return err
	}
	return nil
}

type fakeTxRepository struct {
	repo *fakeRepository
}

func (t *fakeTxRepository) GetAccountForUpdate(ctx context.Context, id int64) (BankAccount, error) {
	a, ok := t.repo.accounts[id]
	if !ok {
		return BankAccount{}, shared.ErrNotFound
	}
	return *a, nil
}

func (t *fakeTxRepository) UpdateBalance(ctx context.Context, id int64, balance float64) error {
	a, ok := t.repo.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.CurrentBalance = balance
	return nil
}

func (t *fakeTxRepository) InsertMovement(ctx context.Context, m CashMovement) (CashMovement, error) {
	t.repo.insertCalls++
	if t.repo.failInsertAfter > 0 && t.repo.insertCalls >= t.repo.failInsertAfter {
		return CashMovement{}, errors.New("storage failure")
	}
	m.ID = t.repo.nextID
	t.repo.nextID++
	m.CreatedAt = time.Now()
	t.repo.movements = append(t.repo.movements, m)
	return m, nil
}

func movementInput(accountID int64, kind MovementKind, amount float64) MovementInput {
	return MovementInput{
		BankAccountID: accountID,
		Kind:          kind,
		Amount:        amount,
		Description:   "movement",
		MovementDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PostedBy:      1,
	}
}

func TestCreateAccountCopiesOpeningBalance(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	account, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		TypeID: 1, Name: "Main drawer", OpeningBalance: 250,
	}, 1)
	require.NoError(t, err)
	require.InDelta(t, 250, account.OpeningBalance, 0.001)
	require.InDelta(t, 250, account.CurrentBalance, 0.001)
}

func TestUpdateAccountCannotTouchBalances(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)

	name := "Renamed"
	updated, err := svc.UpdateAccount(context.Background(), account.ID, UpdateAccountInput{Name: &name}, 1)
	require.NoError(t, err)
	require.Equal(t, "Renamed", updated.Name)
	require.InDelta(t, 500, updated.OpeningBalance, 0.001)
	require.InDelta(t, 500, updated.CurrentBalance, 0.001)
}

func TestRecordMovementChainsBalances(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)

	in, err := svc.RecordMovement(context.Background(), movementInput(account.ID, MovementIn, 200))
	require.NoError(t, err)
	require.InDelta(t, 500, in.BalanceBefore, 0.001)
	require.InDelta(t, 700, in.BalanceAfter, 0.001)

	out, err := svc.RecordMovement(context.Background(), movementInput(account.ID, MovementOut, 150))
	require.NoError(t, err)
	require.InDelta(t, 700, out.BalanceBefore, 0.001)
	require.InDelta(t, 550, out.BalanceAfter, 0.001)

	current, err := svc.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.InDelta(t, 550, current.CurrentBalance, 0.001)
}

func TestRecordMovementInsufficientFunds(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)

	_, err := svc.RecordMovement(context.Background(), movementInput(account.ID, MovementOut, 700))
	require.ErrorIs(t, err, shared.ErrInsufficientFunds)

	current, err := svc.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.InDelta(t, 500, current.CurrentBalance, 0.001)

	movements, err := svc.ListMovements(context.Background(), MovementFilter{BankAccountID: &account.ID})
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestRecordMovementInactiveAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)

	inactive := false
	_, err := svc.UpdateAccount(context.Background(), account.ID, UpdateAccountInput{Active: &inactive}, 1)
	require.NoError(t, err)

	_, err = svc.RecordMovement(context.Background(), movementInput(account.ID, MovementOut, 50))
	require.ErrorIs(t, err, shared.ErrAccountInactive)

	current, err := svc.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.InDelta(t, 500, current.CurrentBalance, 0.001)

	movements, err := svc.ListMovements(context.Background(), MovementFilter{BankAccountID: &account.ID})
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestRunningBalanceProperty(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(1000)

	steps := []struct {
		kind   MovementKind
		amount float64
	}{
		{MovementIn, 320.50}, {MovementOut, 120.25}, {MovementIn, 10}, {MovementOut, 999}, {MovementIn, 45.75},
	}
	expected := 1000.0
	for _, step := range steps {
		if step.kind == MovementIn {
			expected += step.amount
		} else {
			expected -= step.amount
		}
		_, err := svc.RecordMovement(context.Background(), movementInput(account.ID, step.kind, step.amount))
		require.NoError(t, err)
	}

	current, err := svc.GetAccount(context.Background(), account.ID)
	require.NoError(t, err)
	require.InDelta(t, expected, current.CurrentBalance, 0.001)
	require.GreaterOrEqual(t, current.CurrentBalance, 0.0)
}

func transferInput(from, to int64, amount float64) TransferInput {
	return TransferInput{
		FromAccountID: from,
		ToAccountID:   to,
		Amount:        amount,
		Description:   "transfer",
		MovementDate:  time.Date(2025, 2, 1, 0, 0, 0, 0, time.UTC),
		PostedBy:      1,
	}
}

func TestTransferMovesBothBalances(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	from := repo.addAccount(800)
	to := repo.addAccount(100)

	movements, err := svc.Transfer(context.Background(), transferInput(from.ID, to.ID, 300))
	require.NoError(t, err)
	require.Len(t, movements, 2)
	require.Equal(t, MovementTransferOut, movements[0].Kind)
	require.Equal(t, MovementTransferIn, movements[1].Kind)
	require.Equal(t, to.ID, *movements[0].CounterAccountID)
	require.Equal(t, from.ID, *movements[1].CounterAccountID)

	fromNow, _ := svc.GetAccount(context.Background(), from.ID)
	toNow, _ := svc.GetAccount(context.Background(), to.ID)
	require.InDelta(t, 500, fromNow.CurrentBalance, 0.001)
	require.InDelta(t, 400, toNow.CurrentBalance, 0.001)
}

func TestTransferSameAccount(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil)
	_, err := svc.Transfer(context.Background(), transferInput(1, 1, 50))
	require.ErrorIs(t, err, shared.ErrSameAccount)
}

func TestTransferInsufficientFunds(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	from := repo.addAccount(100)
	to := repo.addAccount(0)

	_, err := svc.Transfer(context.Background(), transferInput(from.ID, to.ID, 500))
	require.ErrorIs(t, err, shared.ErrInsufficientFunds)

	fromNow, _ := svc.GetAccount(context.Background(), from.ID)
	toNow, _ := svc.GetAccount(context.Background(), to.ID)
	require.InDelta(t, 100, fromNow.CurrentBalance, 0.001)
	require.InDelta(t, 0, toNow.CurrentBalance, 0.001)
}

func TestTransferInactiveAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	from := repo.addAccount(800)
	to := repo.addAccount(100)

	inactive := false
	_, err := svc.UpdateAccount(context.Background(), to.ID, UpdateAccountInput{Active: &inactive}, 1)
	require.NoError(t, err)

	_, err = svc.Transfer(context.Background(), transferInput(from.ID, to.ID, 300))
	require.ErrorIs(t, err, shared.ErrAccountInactive)

	fromNow, _ := svc.GetAccount(context.Background(), from.ID)
	toNow, _ := svc.GetAccount(context.Background(), to.ID)
	require.InDelta(t, 800, fromNow.CurrentBalance, 0.001)
	require.InDelta(t, 100, toNow.CurrentBalance, 0.001)

	movements, err := svc.ListMovements(context.Background(), MovementFilter{})
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestTransferIsAtomic(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	from := repo.addAccount(800)
	to := repo.addAccount(100)

	// Second movement insert fails; the first leg must roll back with it.
	repo.failInsertAfter = 2
	_, err := svc.Transfer(context.Background(), transferInput(from.ID, to.ID, 300))
	require.Error(t, err)

	fromNow, _ := svc.GetAccount(context.Background(), from.ID)
	toNow, _ := svc.GetAccount(context.Background(), to.ID)
	require.InDelta(t, 800, fromNow.CurrentBalance, 0.001)
	require.InDelta(t, 100, toNow.CurrentBalance, 0.001)

	movements, err := svc.ListMovements(context.Background(), MovementFilter{})
	require.NoError(t, err)
	require.Empty(t, movements)
}

func TestMovementFlagsPettyCashCeiling(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	ceiling := 300.0
	account, err := svc.CreateAccount(context.Background(), CreateAccountInput{
		TypeID: 1, Name: "Petty cash", OpeningBalance: 250, IsPettyCash: true, Ceiling: &ceiling,
	}, 1)
	require.NoError(t, err)

	under, err := svc.RecordMovement(context.Background(), movementInput(account.ID, MovementIn, 20))
	require.NoError(t, err)
	require.False(t, under.CeilingExceeded)

	over, err := svc.RecordMovement(context.Background(), movementInput(account.ID, MovementIn, 100))
	require.NoError(t, err)
	require.True(t, over.CeilingExceeded)
}

func TestMovementValidation(t *testing.T) {
	svc := NewService(newFakeRepository(), nil, nil)

	_, err := svc.RecordMovement(context.Background(), movementInput(1, MovementTransferIn, 10))
	require.ErrorIs(t, err, shared.ErrInvalidLine)

	_, err = svc.RecordMovement(context.Background(), movementInput(1, MovementIn, 0))
	require.ErrorIs(t, err, shared.ErrInvalidAmount)
}
