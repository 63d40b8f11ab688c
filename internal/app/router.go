package app

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/ledger/accounts"
	"github.com/meridian-erp/meridian-erp/internal/ledger/journals"
	"github.com/meridian-erp/meridian-erp/internal/ledger/overview"
	"github.com/meridian-erp/meridian-erp/internal/ledger/payables"
	"github.com/meridian-erp/meridian-erp/internal/ledger/periods"
	"github.com/meridian-erp/meridian-erp/internal/ledger/receivables"
	"github.com/meridian-erp/meridian-erp/internal/ledger/reports"
	"github.com/meridian-erp/meridian-erp/internal/ledger/treasury"
	"github.com/meridian-erp/meridian-erp/internal/observability"
	"github.com/meridian-erp/meridian-erp/jobs"
)

// RouterParams groups dependencies for building the HTTP router.
type RouterParams struct {
	Logger             *slog.Logger
	Config             *Config
	PeriodsHandler     *periods.Handler
	AccountsHandler    *accounts.Handler
	JournalsHandler    *journals.Handler
	TreasuryHandler    *treasury.Handler
	ReceivablesHandler *receivables.Handler
	PayablesHandler    *payables.Handler
	OverviewHandler    *overview.Handler
	ReportsHandler     *reports.Handler
	JobHandler         *jobs.Handler
	Metrics            *observability.Metrics
	Pool               *pgxpool.Pool
}

// NewRouter constructs the chi.Router with Meridian defaults.
func NewRouter(params RouterParams) http.Handler {
	r := chi.NewRouter()

	for _, mw := range MiddlewareStack(MiddlewareConfig{
		Logger:  params.Logger,
		Config:  params.Config,
		Metrics: params.Metrics,
	}) {
		r.Use(mw)
	}

	r.Use(chimw.Logger)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	if params.Metrics != nil {
		r.Handle("/metrics", params.Metrics.Handler())
	}

	r.Route("/accounting", func(r chi.Router) {
		if params.PeriodsHandler != nil {
			r.Route("/periods", params.PeriodsHandler.MountRoutes)
		}
		if params.AccountsHandler != nil {
			r.Route("/accounts", params.AccountsHandler.MountRoutes)
		}
		if params.JournalsHandler != nil {
			r.Route("/entries", params.JournalsHandler.MountRoutes)
		}
	})

	if params.TreasuryHandler != nil {
		r.Route("/treasury", params.TreasuryHandler.MountRoutes)
	}

	r.Route("/finance", func(r chi.Router) {
		if params.ReceivablesHandler != nil {
			r.Route("/receivables", params.ReceivablesHandler.MountRoutes)
		}
		if params.PayablesHandler != nil {
			r.Route("/payables", params.PayablesHandler.MountRoutes)
		}
		if params.OverviewHandler != nil {
			r.Route("/overview", params.OverviewHandler.MountRoutes)
		}
	})

	if params.ReportsHandler != nil {
		r.Route("/reports", params.ReportsHandler.MountRoutes)
	}

	if params.JobHandler != nil {
		r.Route("/jobs", params.JobHandler.MountRoutes)
	}

	return r
}
