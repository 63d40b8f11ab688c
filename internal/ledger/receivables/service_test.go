package receivables

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
)

type fakeRepository struct {
	mu          sync.Mutex
	receivables map[int64]*Receivable
	payments    []Payment
	accounts    map[int64]*treasury.BankAccount
	movements   []treasury.CashMovement
	nextID      int64
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		receivables: make(map[int64]*Receivable),
		accounts:    make(map[int64]*treasury.BankAccount),
		nextID:      1,
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

func (f *fakeRepository) Create(ctx context.Context, rec Receivable) (Receivable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.receivables {
		if existing.InvoiceID == rec.InvoiceID {
			return Receivable{}, shared.ErrDuplicate
		}
	}
	rec.ID = f.nextID
	f.nextID++
	rec.CreatedAt = time.Now()
	rec.UpdatedAt = rec.CreatedAt
	copied := rec
	f.receivables[rec.ID] = &copied
	return rec, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id int64) (Receivable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.receivables[id]
	if !ok {
		return Receivable{}, shared.ErrNotFound
	}
	return *rec, nil
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]Receivable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Receivable
	for _, rec := range f.receivables {
		if filter.State != nil && rec.State != *filter.State {
			continue
		}
		out = append(out, *rec)
	}
	return out, nil
}

func (f *fakeRepository) ListPayments(ctx context.Context, receivableID int64) ([]Payment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Payment
	for _, p := range f.payments {
		if p.ReceivableID == receivableID {
			out = append(out, p)
		}
	}
	return out, nil
}

func (f *fakeRepository) ListOpen(ctx context.Context) ([]Receivable, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Receivable
	for _, rec := range f.receivables {
		if rec.State != StatePaid {
			out = append(out, *rec)
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
	for _, rec := range f.receivables {
		if rec.State == StatePaid {
			summary.PaidCount++
		}
	}
	return summary, nil
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	snapReceivables := make(map[int64]Receivable, len(f.receivables))
	for id, rec := range f.receivables {
		snapReceivables[id] = *rec
	}
	snapAccounts := make(map[int64]treasury.BankAccount, len(f.accounts))
	for id, a := range f.accounts {
		snapAccounts[id] = *a
	}
	snapPayments := append([]Payment(nil), f.payments...)
	snapMovements := append([]treasury.CashMovement(nil), f.movements...)
	snapNextID := f.nextID

	if err := fn(ctx, &fakeTxRepository{repo: f}); err != nil {
		f.receivables = make(map[int64]*Receivable, len(snapReceivables))
		for id, rec := range snapReceivables {
			copied := rec
			f.receivables[id] = &copied
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

func (t *fakeTxRepository) GetForUpdate(ctx context.Context, id int64) (Receivable, error) {
	rec, ok := t.repo.receivables[id]
	if !ok {
		return Receivable{}, shared.ErrNotFound
	}
	return *rec, nil
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

func (t *fakeTxRepository) UpdateProgress(ctx context.Context, id int64, paid, outstanding float64, state ReceivableState, daysOverdue int) error {
	rec, ok := t.repo.receivables[id]
	if !ok {
		return shared.ErrNotFound
	}
	rec.Paid = paid
	rec.Outstanding = outstanding
	rec.State = state
	rec.DaysOverdue = daysOverdue
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
		InvoiceID:    uuid.New(),
		CustomerName: "Acme Ltd",
		IssueDate:    due.AddDate(0, -1, 0),
		DueDate:      due,
		Total:        total,
	}
}

func paymentInput(id int64, amount float64) PaymentInput {
	return PaymentInput{
		ReceivableID: id,
		Amount:       amount,
		PaymentDate:  time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC),
		Method:       "TRANSFER",
		PostedBy:     1,
	}
}

func TestPartialThenFullPayment(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	rec, err := svc.Create(context.Background(), createInput(1000, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)
	require.Equal(t, StatePending, rec.State)

	rec, _, err = svc.RegisterPayment(context.Background(), paymentInput(rec.ID, 400))
	require.NoError(t, err)
	require.Equal(t, StatePartial, rec.State)
	require.InDelta(t, 400, rec.Paid, 0.001)
	require.InDelta(t, 600, rec.Outstanding, 0.001)

	rec, _, err = svc.RegisterPayment(context.Background(), paymentInput(rec.ID, 600))
	require.NoError(t, err)
	require.Equal(t, StatePaid, rec.State)
	require.InDelta(t, 0, rec.Outstanding, 0.001)
	require.Zero(t, rec.DaysOverdue)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(rec.ID, 1))
	require.ErrorIs(t, err, shared.ErrAlreadySettled)
}

func TestPaymentExceedsOutstanding(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	rec, err := svc.Create(context.Background(), createInput(100, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(rec.ID, 150))
	require.ErrorIs(t, err, shared.ErrAmountExceedsBalance)

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 100, got.Outstanding, 0.001)
	require.Equal(t, StatePending, got.State)
}

func TestPaymentDepositsIntoBankAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)

	rec, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	input := paymentInput(rec.ID, 300)
	input.BankAccountID = &account.ID
	rec, payment, err := svc.RegisterPayment(context.Background(), input)
	require.NoError(t, err)
	require.Equal(t, StatePaid, rec.State)
	require.NotNil(t, payment.MovementID)

	require.Len(t, repo.movements, 1)
	movement := repo.movements[0]
	require.Equal(t, treasury.MovementIn, movement.Kind)
	require.InDelta(t, 500, movement.BalanceBefore, 0.001)
	require.InDelta(t, 800, movement.BalanceAfter, 0.001)
	require.Equal(t, payment.ID, *movement.ReceivablePaymentID)
	require.InDelta(t, 800, repo.accounts[account.ID].CurrentBalance, 0.001)
}

func TestPaymentRollsBackWhenBankAccountMissing(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	rec, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	missing := int64(99)
	input := paymentInput(rec.ID, 100)
	input.BankAccountID = &missing
	_, _, err = svc.RegisterPayment(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrNotFound)

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 300, got.Outstanding, 0.001)
	require.Empty(t, repo.payments)
}

func TestCreatePastDueIsImmediatelyOverdue(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 20, 0, 0, 0, 0, time.UTC) })

	rec, err := svc.Create(context.Background(), createInput(100, time.Date(2025, 3, 10, 0, 0, 0, 0, time.UTC)), 1)
	require.NoError(t, err)
	require.Equal(t, StateOverdue, rec.State)
	require.Equal(t, 10, rec.DaysOverdue)
}

func TestCreateDuplicateInvoice(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	input := createInput(100, time.Now().AddDate(0, 1, 0))
	_, err := svc.Create(context.Background(), input, 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), input, 1)
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestRefreshOverdueIsIdempotent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) })

	rec, err := svc.Create(context.Background(), createInput(100, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)), 1)
	require.NoError(t, err)
	require.Equal(t, StatePending, rec.State)

	svc.WithNow(func() time.Time { return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC) })

	updated, err := svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StateOverdue, got.State)
	require.Equal(t, 17, got.DaysOverdue)

	updated, err = svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Zero(t, updated)
}

func TestRefreshOverdueFlipsPartiallyPaid(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC) })

	rec, err := svc.Create(context.Background(), createInput(1000, time.Date(2025, 3, 15, 0, 0, 0, 0, time.UTC)), 1)
	require.NoError(t, err)

	rec, _, err = svc.RegisterPayment(context.Background(), paymentInput(rec.ID, 400))
	require.NoError(t, err)
	require.Equal(t, StatePartial, rec.State)

	svc.WithNow(func() time.Time { return time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC) })

	updated, err := svc.RefreshOverdue(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, updated)

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.Equal(t, StateOverdue, got.State)
	require.Equal(t, 17, got.DaysOverdue)
	require.InDelta(t, 600, got.Outstanding, 0.001)
}

func TestPaymentRejectedOnInactiveAccount(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)
	account := repo.addAccount(500)
	repo.accounts[account.ID].Active = false

	rec, err := svc.Create(context.Background(), createInput(300, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	input := paymentInput(rec.ID, 100)
	input.BankAccountID = &account.ID
	_, _, err = svc.RegisterPayment(context.Background(), input)
	require.ErrorIs(t, err, shared.ErrAccountInactive)

	got, err := svc.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	require.InDelta(t, 300, got.Outstanding, 0.001)
	require.Empty(t, repo.payments)
	require.InDelta(t, 500, repo.accounts[account.ID].CurrentBalance, 0.001)
}

func TestSummaryCountsSettled(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil, nil)

	first, err := svc.Create(context.Background(), createInput(100, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), createInput(200, time.Now().AddDate(0, 1, 0)), 1)
	require.NoError(t, err)

	_, _, err = svc.RegisterPayment(context.Background(), paymentInput(first.ID, 100))
	require.NoError(t, err)

	summary, err := svc.Summary(context.Background())
	require.NoError(t, err)
	require.Equal(t, 1, summary.OpenCount)
	require.Equal(t, 1, summary.PendingCount)
	require.Zero(t, summary.PartialCount)
	require.Equal(t, 1, summary.PaidCount)
}

func TestBuildSummaryAgingBuckets(t *testing.T) {
	open := []Receivable{
		{Outstanding: 100, State: StatePending, DaysOverdue: 0},
		{Outstanding: 150, State: StatePartial, DaysOverdue: 0},
		{Outstanding: 200, State: StateOverdue, DaysOverdue: 15},
		{Outstanding: 300, State: StateOverdue, DaysOverdue: 45},
		{Outstanding: 400, State: StateOverdue, DaysOverdue: 200},
	}
	summary := BuildSummary(open)

	require.Equal(t, 5, summary.OpenCount)
	require.Equal(t, 1, summary.PendingCount)
	require.Equal(t, 1, summary.PartialCount)
	require.InDelta(t, 1150, summary.TotalOutstanding, 0.001)
	require.Equal(t, 3, summary.OverdueCount)
	require.InDelta(t, 900, summary.OverdueAmount, 0.001)

	byLabel := map[string]AgingBucket{}
	for _, b := range summary.Aging {
		byLabel[b.Label] = b
	}
	require.InDelta(t, 250, byLabel["current"].Outstanding, 0.001)
	require.InDelta(t, 200, byLabel["1-30"].Outstanding, 0.001)
	require.InDelta(t, 300, byLabel["31-60"].Outstanding, 0.001)
	require.Zero(t, byLabel["61-90"].Count)
	require.InDelta(t, 400, byLabel["120+"].Outstanding, 0.001)
}
