package reports

import "context"

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (s *Service) Journal(ctx context.Context, periodID int64) (Journal, error) {
	entries, err := s.repo.JournalEntries(ctx, periodID)
	if err != nil {
		return Journal{}, err
	}
	return BuildJournal(periodID, entries), nil
}

func (s *Service) GeneralLedger(ctx context.Context, accountID int64, periodID *int64) (GeneralLedger, error) {
	account, err := s.repo.GetAccount(ctx, accountID)
	if err != nil {
		return GeneralLedger{}, err
	}
	lines, err := s.repo.AccountLines(ctx, accountID, periodID)
	if err != nil {
		return GeneralLedger{}, err
	}
	return BuildGeneralLedger(account, periodID, lines), nil
}

func (s *Service) BalanceSheet(ctx context.Context, periodID *int64) (BalanceSheet, error) {
	balances, err := s.repo.AccountBalances(ctx, periodID)
	if err != nil {
		return BalanceSheet{}, err
	}
	return Decorate(BuildBalanceSheet(periodID, balances)), nil
}
