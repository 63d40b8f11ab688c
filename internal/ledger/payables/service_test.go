package payables

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
)

type fakeRepository struct {
	mu        sync.Mutex
	payables  map[int64]*Payable
	payments  []Payment
	accounts  map[int64]*treasury.BankAccount
	movements []treasury.CashMovement
	nextID    int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		payables: make(map[int64]*Payable),
		accounts: make(map[int64]*treasury.BankAccount),
		nextID:   1,
	}
}

func (f *fakeRepository) addAccount(balance float64) *treasury.BankAccount {
	f.mu.Lock()
	defer f.mu.Unlock()
	a := &treasury.BankAccount{ID: f.nextID, Name: "checking", CurrentBalance: balance, Active: true}
	f.nextID++
	f.accounts[a.ID] = a
	return a
}

func (f *fakeRepository) Create(ctx context.Context, p Payable) (Payable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := p
	f.payables[p.ID] = &copied
	return p, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id int64) (Payable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.payables[id]
	if !ok {
		return Payable{}, shared.ErrNotFound
	}
	return *p, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]Payable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payable
	for _, p := range f.payables {
		if filter.State != nil && p.State != *filter.State {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepository) ListPayments(ctx context.Context, payableID int64) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payment
	for _, p := range f.payments {
		if p.PayableID == payableID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListOpen(ctx context.Context) ([]Payable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payable
	for _, p := range f.payables {
		if p.State != StatePaid {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakeRepository) Summary(ctx context.Context) (Summary, error) {
	open, err := f.ListOpen(ctx)
	if err != nil {
		return Summary{}, err
	}
	summary := BuildSummary(open)
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.payables {
		if p.State == StatePaid {
			summary.PaidCount++
		}
	}
	return summary, nil
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapPayables := make(map[int64]Payable, len(f.payables))
	for id, p := range f.payables {
		snapPayables[id] = *p
	}
	snapAccounts := make(map[int64]treasury.BankAccount, len(f.accounts))
	for id, a := range f.accounts {
		snapAccounts[id] = *a
	}
	snapPayments := append([]Payment(nil), f.payments...)
	snapMovements := append([]treasury.CashMovement(nil), f.movements...)
	snapNextID := f.nextID

	if err := fn(ctx, &fakeTxRepository{repo: f}); err != nil {
		f.payables = make(map[int64]*Payable, len(snapPayables))
		for id, p := range snapPayables {
			copied := p
			f.payables[id] = &copied
		}
		f.accounts = make(map[int64]*treasury.BankAccount, len(snapAccounts))
		for id, a := range snapAccounts {
			copied := a
			f.accounts[id] = &copied
		}
		f.payments = snapPayments
		f.movements = snapMovements
		f.nextID = snapNextID
		return err
	}
	return nil
}

type fakeTxRepository struct {
	repo *fakeRepository
}

func (t *fakeTxRepository) GetForUpdate(ctx context.Context, id int64) (Payable, error) {
	p, ok := t.repo.payables[id]
	if !ok {
		return Payable{}, shared.ErrNotFound
	}
	return *p, nil
}

func (t *fakeTxRepository) InsertPayment(ctx context.Context, p Payment) (Payment, error) {
	p.ID = t.repo.nextID
	t.repo.nextID++
	p.CreatedAt = time.Now()
	t.repo.payments = append(t.repo.payments, p)
	return p, nil
}

func (t *fakeTxRepository) SetMovementID(ctx context.Context, paymentID, movementID int64) error {
	for i := range t.repo.payments {
		if t.repo.payments[i].ID == paymentID {
			t.repo.payments[i].MovementID = &movementID
			return nil
		}
	}
	return shared.ErrNotFound
}

func (t *fakeTxRepository) UpdateProgress(ctx context.Context, id int64, paid, outstanding float64, state PayableState, daysOverdue int) error {
	p, ok := t.repo.payables[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.Paid = paid
	p.Outstanding = outstanding
	p.State = state
	p.DaysOverdue = daysOverdue
	return nil
}

func (t *fakeTxRepository) GetBankAccountForUpdate(ctx context.Context, id int64) (treasury.BankAccount, error) {
	a, ok := t.repo.accounts[id]
	if !ok {
		return treasury.BankAccount{}, shared.ErrNotFound
	}
	return *a, nil
}

func (t *fakeTxRepository) UpdateBankBalance(ctx context.Context, id int64, balance float64) error {
	a, ok := t.repo.accounts[id]
	if !ok {
		return shared.ErrNotFound
	}
	a.CurrentBalance = balance
	return nil
}

func (t *fakeTxRepository) InsertMovement(ctx context.Context, m treasury.CashMovement) (treasury.CashMovement, error) {
	m.ID = t.repo.nextID
	t.repo.nextID++
	m.CreatedAt = time.Now()
	t.repo.movements = append(t.repo.movements, m)
	return m, nil
}

func createInput(total float64, due time.Time) CreateInput {
	return CreateInput{
		SupplierName: "Supplies Co",
		Concept:      "Office materials",
		IssueDate:    due.AddDate(0, -1, 0),
		DueDate:      due,
		Total:        total,
	}
}

func paymentInput(id int64, amount float64) PaymentInput {
	return PaymentInput{
		PayableID:   id,
		Amount:      amount,
		PaymentDate: time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Method:      "TRANSFER",
		PostedBy:    1,
	}
}

func TestFullPaymentSettlesPayable(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	p, err := svc.Create(context.Background(), createInput(1000, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)
	require.Equal(t, StatePending, p.State)

	p, _, err = svc.RegisterPayment(context.Background(), paymentInput(p.ID, 1000))
	require.NoError(t, err)
	require.Equal(t, StatePaid, p.State)
	require.InDelta(t, 0, p.Outstanding, 0.001)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(p.ID, 1))
	require.ErrorIs(t, err, shared.ErrAlreadySettled)
}

func TestPartialPayment(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	p, err := svc.Create(context.Background(), createInput(1000, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	p, _, err = svc.RegisterPayment(context.Background(), paymentInput(p.ID, 250))
	require.NoError(t, err)
	require.Equal(t, StatePartial, p.State)
	require.InDelta(t, 750, p.Outstanding, 0.001)
}

func TestPaymentDebitsBankAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(800)

	p, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	input := paymentInput(p.ID, 300)
	input.BankAccountID = &account.ID
	p, payment, err := svc.RegisterPayment(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, StatePaid, p.State)
	require.NotNil(t, payment.MovementID)

	require.Len(t, repo.movements, 1)
	movement := repo.movements[0]
	require.Equal(t, treasury.MovementOut, movement.Kind)
	require.InDelta(t, 800, movement.BalanceBefore, 0.001)
	require.InDelta(t, 500, movement.BalanceAfter, 0.001)
	require.Equal(t, payment.ID, *movement.PayablePaymentID)
	require.InDelta(t, 500, repo.accounts[account.ID].CurrentBalance, 0.001)
}

func TestPaymentRejectedOnInsufficientFunds(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(100)

	p, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	input := paymentInput(p.ID, 300)
	input.BankAccountID = &account.ID
	_, _, err = svc.RegisterPayment(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrInsufficientFunds)

	// Nothing persisted: no payment, no movement, balances untouched.
	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.InDelta(t, 300, got.Outstanding, 0.001)
	require.Equal(t, StatePending, got.State)
	require.Empty(t, repo.payments)
	require.Empty(t, repo.movements)
	require.InDelta(t, 100, repo.accounts[account.ID].CurrentBalance, 0.001)
}

func TestPaymentExceedsOutstanding(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	p, err := svc.Create(context.Background(), createInput(100, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(p.ID, 200))
	require.ErrorIs(t, err, shared.ErrAmountExceedsBalance)
}

func TestPaymentRejectedOnInactiveAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(800)
	repo.accounts[account.ID].Active = false

	p, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	input := paymentInput(p.ID, 100)
	input.BankAccountID = &account.ID
	_, _, err = svc.RegisterPayment(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrAccountInactive)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.InDelta(t, 300, got.Outstanding, 0.001)
	require.Empty(t, repo.payments)
	require.Empty(t, repo.movements)
	require.InDelta(t, 800, repo.accounts[account.ID].CurrentBalance, 0.001)
}

func TestRefreshOverdueFlipsPastDue(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) })

	p, err := svc.Create(context.Background(), createInput(100, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)), 1)
	require.NoError(t, err)
	require.Equal(t, StatePending, p.State)

	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })

	updated, err := svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StateOverdue, got.State)
	require.Equal(t, 12, got.DaysOverdue)

	updated, err = svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
}

func TestRefreshOverdueFlipsPartiallyPaid(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC) })

	p, err := svc.Create(context.Background(), createInput(1000, time.Date(2025, 5, 20, 0, 0, 0, 0, time.UTC)), 1)
	require.NoError(t, err)

	p, _, err = svc.RegisterPayment(context.Background(), paymentInput(p.ID, 400))
	require.NoError(t, err)
	require.Equal(t, StatePartial, p.State)

	svc.WithNow(func() time.Time { return time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC) })

	updated, err := svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, StateOverdue, got.State)
	require.Equal(t, 12, got.DaysOverdue)
	require.InDelta(t, 600, got.Outstanding, 0.001)
}

func TestSummaryCountsSettled(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	first, err := svc.Create(context.Background(), createInput(100, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)
	second, err := svc.Create(context.Background(), createInput(200, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(first.ID, 100))
	require.NoError(t, err)
	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(second.ID, 50))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.OpenCount)
	require.Zero(t, summary.PendingCount)
	require.Equal(t, 1, summary.PartialCount)
	require.Equal(t, 1, summary.PaidCount)
}
