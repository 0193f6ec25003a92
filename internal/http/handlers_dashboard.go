package http

import (
	"net/http"

	"pet/internal/analytics"
	"pet/internal/cache"
	"pet/internal/core"
	applog "pet/internal/log"
)

// Cached views are keyed by ledger version and by today's date, since the
// rolling windows move with the clock.

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	records, _, version := s.svc.Snapshot()
	now := s.now()
	key := cache.ViewKey(version, "dashboard", core.DateOf(now).String())
	view, hit, _ := s.dashboards.GetOrCompute(key, func() (analytics.DashboardSummary, error) {
		return analytics.Dashboard(records, now), nil
	})
	s.metrics.RecordCacheLookup("dashboard", hit)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	records, _, version := s.svc.Snapshot()
	key := cache.ViewKey(version, "categories")
	view, hit, _ := s.categories.GetOrCompute(key, func() ([]core.CategoryAmount, error) {
		return analytics.CategoryView(records), nil
	})
	s.metrics.RecordCacheLookup("categories", hit)
	writeJSON(w, http.StatusOK, map[string]any{"categories": view})
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request) {
	period, err := ParsePeriodQuery(r.URL.Query())
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	records, _, version := s.svc.Snapshot()
	now := s.now()
	key := cache.ViewKey(version, "report", string(period.Kind), period.From.String(), period.To.String(), core.DateOf(now).String())
	view, hit, err := s.reports.GetOrCompute(key, func() (analytics.ReportResult, error) {
		return analytics.Report(records, period, now)
	})
	if err != nil {
		s.writeError(w, r, applog.OpRead, err)
		return
	}
	s.metrics.RecordCacheLookup("report", hit)
	writeJSON(w, http.StatusOK, view)
}

func (s *Server) handleBudgetProgress(w http.ResponseWriter, _ *http.Request) {
	records, budget, _ := s.svc.Snapshot()
	writeJSON(w, http.StatusOK, analytics.Progress(records, budget, s.now()))
}
