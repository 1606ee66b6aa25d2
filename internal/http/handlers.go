package http

import (
	"bytes"
	"fmt"
	"net/http"

	"wealthwise/internal/core"
	"wealthwise/internal/log"
	"wealthwise/internal/report"
	"wealthwise/internal/stats"
)

// fail logs a rejected request and writes the mapped error response.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, op string, err error) {
	errType := ErrorType(err)
	logger := log.FromContext(r.Context())
	if errType == log.ErrorTypeInternal {
		log.NewStructuredLogger(logger).LogError(r.Context(), "Request failed", err,
			log.ComponentHTTP, op, log.NewFields().WithErrorType(errType))
	} else {
		logger.DebugContext(r.Context(), "Request rejected",
			log.FieldOperation, op,
			log.FieldError, err.Error(),
			log.FieldErrorType, errType)
	}
	ErrorFor(err).Write(w)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	q, err := ParseHistoryQuery(r.URL.Query())
	if err != nil {
		s.fail(w, r, log.OpList, err)
		return
	}
	txs := s.tracker.Transactions(q.Type, q.Sort, q.Order)
	NewJSONResponse().Body(toTransactionDTOs(txs)).Write(w)
}

func (s *Server) handleCreateTransaction(w http.ResponseWriter, r *http.Request) {
	draft, err := s.readDraft(r)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	tx, err := s.tracker.Record(r.Context(), draft)
	if err != nil {
		s.fail(w, r, log.OpCreate, err)
		return
	}
	NewJSONResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/transactions/"+tx.ID).
		Body(toTransactionDTO(tx)).
		Write(w)
}

func (s *Server) handleClearTransactions(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Clear(r.Context()); err != nil {
		s.fail(w, r, log.OpClear, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) handleGetTransaction(w http.ResponseWriter, r *http.Request) {
	tx, err := s.tracker.Get(r.PathValue("id"))
	if err != nil {
		s.fail(w, r, log.OpRead, err)
		return
	}
	NewJSONResponse().Body(toTransactionDTO(tx)).Write(w)
}

func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	draft, err := s.readDraft(r)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	tx, err := s.tracker.Edit(r.Context(), r.PathValue("id"), draft)
	if err != nil {
		s.fail(w, r, log.OpUpdate, err)
		return
	}
	NewJSONResponse().Body(toTransactionDTO(tx)).Write(w)
}

func (s *Server) handleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	if err := s.tracker.Delete(r.Context(), r.PathValue("id")); err != nil {
		s.fail(w, r, log.OpDelete, err)
		return
	}
	NewJSONResponse().Status(http.StatusNoContent).Write(w)
}

func (s *Server) readDraft(r *http.Request) (core.Draft, error) {
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		return core.Draft{}, err
	}
	return ParseDraft(p)
}

func (s *Server) handleSavings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toTransactionDTOs(s.tracker.Savings())).Write(w)
}

// handleSummary totals the whole ledger unless a period is requested.
func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query(), stats.All)
	if err != nil {
		s.fail(w, r, log.OpSummary, err)
		return
	}
	if period == stats.All {
		NewJSONResponse().Body(toSummaryDTO(s.tracker.Summary())).Write(w)
		return
	}
	NewJSONResponse().Body(toSummaryDTO(s.tracker.Stats(period, s.now()).Summary)).Write(w)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodParam(r.URL.Query(), stats.Month)
	if err != nil {
		s.fail(w, r, log.OpStats, err)
		return
	}
	NewJSONResponse().Body(toStatsDTO(s.tracker.Stats(period, s.now()))).Write(w)
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toDashboardDTO(s.tracker.Dashboard(s.now()))).Write(w)
}

func (s *Server) handleListBudgets(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toBudgetDTOs(s.tracker.Budgets())).Write(w)
}

// handleSetBudget upserts a limit. A zero or negative limit removes it.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	category, err := core.ParseCategory(r.PathValue("category"))
	if err != nil {
		s.fail(w, r, log.OpBudget, err)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, log.OpBudget, err)
		return
	}
	limit, err := core.ParseLimit(p.Get("limit"))
	if err != nil {
		s.fail(w, r, log.OpBudget, err)
		return
	}
	budgets, err := s.tracker.SetBudget(r.Context(), category, limit)
	if err != nil {
		s.fail(w, r, log.OpBudget, err)
		return
	}
	NewJSONResponse().Body(toBudgetDTOs(budgets)).Write(w)
}

func (s *Server) handleWarnings(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toWarningDTOs(s.tracker.Warnings(s.now()))).Write(w)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(toCategoryDTOs(s.tracker.Icons())).Write(w)
}

func (s *Server) handleSetIcon(w http.ResponseWriter, r *http.Request) {
	category, err := core.ParseCategory(r.PathValue("category"))
	if err != nil {
		s.fail(w, r, log.OpIcon, err)
		return
	}
	p := NewRequestBodyParser(r)
	if err := p.Parse(); err != nil {
		s.fail(w, r, log.OpIcon, err)
		return
	}
	icons, err := s.tracker.SetIcon(r.Context(), category, core.Icon(p.Get("icon")))
	if err != nil {
		s.fail(w, r, log.OpIcon, err)
		return
	}
	NewJSONResponse().Body(toCategoryDTOs(icons)).Write(w)
}

func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	NewJSONResponse().Body(s.advisor.Advise(r.Context(), s.tracker.Snapshot())).Write(w)
}

func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	now := s.now()
	rep := report.Build(s.tracker.Snapshot(), now)

	var buf bytes.Buffer
	if err := report.WriteCSV(&buf, rep); err != nil {
		s.fail(w, r, log.OpExport, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf(`attachment; filename="wealthwise-report-%s.csv"`, now.Format("2006-01-02")))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}
