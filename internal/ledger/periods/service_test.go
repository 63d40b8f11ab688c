package periods

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/ledger/shared"
)

type fakeRepository struct {
	mu      sync.Mutex
	periods map[int64]*Period
	nextID  int64
	drafts  map[int64]int
}

func newFakeRepository() *fakeRepository {
	return &fakeRepository{
		periods: make(map[int64]*Period),
		drafts:  make(map[int64]int),
		nextID:  1,
	}
}

func (f *fakeRepository) Create(ctx context.Context, p Period) (Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, existing := range f.periods {
		if existing.Year == p.Year && existing.Month == p.Month {
			return Period{}, shared.ErrDuplicate
		}
	}
	p.ID = f.nextID
	f.nextID++
	p.CreatedAt = time.Now()
	p.UpdatedAt = p.CreatedAt
	copied := p
	f.periods[p.ID] = &copied
	return p, nil
}

func (f *fakeRepository) GetByID(ctx context.Context, id int64) (Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	p, ok := f.periods[id]
	if !ok {
		return Period{}, shared.ErrNotFound
	}
	return *p, nil
}

func (f *fakeRepository) GetByYearMonth(ctx context.Context, year, month int) (Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.periods {
		if p.Year == year && p.Month == month {
			return *p, nil
		}
	}
	return Period{}, shared.ErrNotFound
}

func (f *fakeRepository) List(ctx context.Context, filter ListFilter) ([]Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []Period
	for _, p := range f.periods {
		if filter.Year != nil && p.Year != *filter.Year {
			continue
		}
		if filter.State != nil && p.State != *filter.State {
			continue
		}
		out = append(out, *p)
	}
	return out, nil
}

func (f *fakeRepository) GetActive(ctx context.Context, date time.Time) (Period, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, p := range f.periods {
		if p.State == PeriodStateOpen && p.Covers(date) {
			return *p, nil
		}
	}
	return Period{}, shared.ErrNotFound
}

func (f *fakeRepository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &fakeTxRepository{repo: f})
}

type fakeTxRepository struct {
	repo *fakeRepository
}

func (t *fakeTxRepository) GetForUpdate(ctx context.Context, id int64) (Period, error) {
	return t.repo.GetByID(ctx, id)
}

func (t *fakeTxRepository) CountEntriesNotApproved(ctx context.Context, periodID int64) (int, error) {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	return t.repo.drafts[periodID], nil
}

func (t *fakeTxRepository) MarkClosed(ctx context.Context, id int64, closedBy int64, closedAt time.Time) error {
	t.repo.mu.Lock()
	defer t.repo.mu.Unlock()
	p, ok := t.repo.periods[id]
	if !ok {
		return shared.ErrNotFound
	}
	p.State = PeriodStateClosed
	p.ClosedAt = &closedAt
	p.ClosedBy = &closedBy
	return nil
}

func TestCreateComputesCalendarBounds(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 1})
	require.NoError(t, err)
	require.Equal(t, "January 2025", p.Name)
	require.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), p.StartDate)
	require.Equal(t, time.Date(2025, 1, 31, 0, 0, 0, 0, time.UTC), p.EndDate)
	require.Equal(t, PeriodStateOpen, p.State)
}

func TestCreateDuplicateMonth(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)

	_, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 2})
	require.NoError(t, err)
	_, err = svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 2, Name: "again"})
	require.ErrorIs(t, err, shared.ErrDuplicate)
}

func TestCreateRejectsInvalidMonth(t *testing.T) {
	svc := NewService(newFakeRepository(), nil)
	_, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 13})
	require.Error(t, err)
}

func TestGetOrCreateCurrent(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 6, 15, 10, 0, 0, 0, time.UTC) })

	first, err := svc.GetOrCreateCurrent(context.Background())
	require.NoError(t, err)
	require.Equal(t, 2025, first.Year)
	require.Equal(t, 6, first.Month)

	second, err := svc.GetOrCreateCurrent(context.Background())
	require.NoError(t, err)
	require.Equal(t, first.ID, second.ID)
}

func TestClosePeriodBlockedByDrafts(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)

	p, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 3})
	require.NoError(t, err)

	repo.drafts[p.ID] = 1
	_, err = svc.Close(context.Background(), p.ID, 7)
	require.ErrorIs(t, err, shared.ErrPendingEntries)

	got, err := svc.Get(context.Background(), p.ID)
	require.NoError(t, err)
	require.Equal(t, PeriodStateOpen, got.State)

	// All entries approved now; the close goes through and is terminal.
	repo.drafts[p.ID] = 0
	closed, err := svc.Close(context.Background(), p.ID, 7)
	require.NoError(t, err)
	require.Equal(t, PeriodStateClosed, closed.State)
	require.NotNil(t, closed.ClosedAt)
	require.NotNil(t, closed.ClosedBy)
	require.EqualValues(t, 7, *closed.ClosedBy)

	_, err = svc.Close(context.Background(), p.ID, 7)
	require.ErrorIs(t, err, shared.ErrAlreadyClosed)
}

func TestCloseMissingPeriod(t *testing.T) {
	svc := NewService(newFakeRepository(), nil)
	_, err := svc.Close(context.Background(), 99, 1)
	require.ErrorIs(t, err, shared.ErrNotFound)
}

func TestGetActive(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 4, 10, 0, 0, 0, 0, time.UTC) })

	_, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 4})
	require.NoError(t, err)

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, active.Month)
}

func TestGetActiveOnLastDayOfMonth(t *testing.T) {
	repo := newFakeRepository()
	svc := NewService(repo, nil)
	svc.WithNow(func() time.Time { return time.Date(2025, 4, 30, 14, 30, 0, 0, time.UTC) })

	_, err := svc.Create(context.Background(), CreatePeriodInput{Year: 2025, Month: 4})
	require.NoError(t, err)

	active, err := svc.GetActive(context.Background())
	require.NoError(t, err)
	require.Equal(t, 4, active.Month)
}
