package lease

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"lease_economics/pkg/core/analysis"
	"lease_economics/pkg/core/cashflow"
	"lease_economics/pkg/core/config"
	"lease_economics/pkg/core/equivalency"
	coreLease "lease_economics/pkg/core/lease"
	"lease_economics/pkg/core/scenario"
	"lease_economics/pkg/core/store"
	"lease_economics/pkg/core/termination"
	"lease_economics/pkg/core/utils"
)

// Handler holds dependencies for lease endpoints
type Handler struct {
	Cfg    config.EngineConfig
	Repo   *store.AnalysisRepo // optional
	Engine *analysis.Engine
}

// NewHandler creates a new lease handler
func NewHandler(cfg config.EngineConfig, repo *store.AnalysisRepo) *Handler {
	return &Handler{
		Cfg:    cfg,
		Repo:   repo,
		Engine: &analysis.Engine{IncludeMonthly: cfg.IncludeMonthly},
	}
}

// Register mounts every lease endpoint on mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/api/lease/analyze", h.HandleAnalyze)
	mux.HandleFunc("/api/lease/analysis", h.HandleGetAnalysis)
	mux.HandleFunc("/api/lease/analyses", h.HandleListAnalyses)
	mux.HandleFunc("/api/lease/scenarios", h.HandleScenarios)
	mux.HandleFunc("/api/lease/compare", h.HandleCompare)
	mux.HandleFunc("/api/lease/termination", h.HandleTermination)
	mux.HandleFunc("/api/lease/equivalency", h.HandleEquivalency)
}

type ScenariosRequest struct {
	Lease     coreLease.LeaseDescription `json:"lease"`
	Scenarios []scenario.Scenario        `json:"scenarios"`
	TopN      int                        `json:"top_n,omitempty"`
}

type CompareRequest struct {
	A    coreLease.LeaseDescription `json:"a"`
	B    coreLease.LeaseDescription `json:"b"`
	TopN int                        `json:"top_n,omitempty"`
}

type CompareResponse struct {
	A          analysis.LeaseAnalysis `json:"a"`
	B          analysis.LeaseAnalysis `json:"b"`
	Comparison scenario.Comparison    `json:"comparison"`
}

type TerminationRequest struct {
	Lease           coreLease.LeaseDescription `json:"lease"`
	TerminationDate coreLease.Date             `json:"termination_date"`
	Option          *coreLease.LeaseOption     `json:"option,omitempty"`
}

type EquivalencyRequest struct {
	Lease coreLease.LeaseDescription `json:"lease"`
	Kind  equivalency.Kind           `json:"kind"`
	Value float64                    `json:"value"`
}

// HandleAnalyze accepts a lease as JSON, Hjson or damaged JSON and returns its analysis.
// The result is saved when a repository is configured.
func (h *Handler) HandleAnalyze(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	l, err := coreLease.Parse(body)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	l = h.withDefaults(l)
	fmt.Printf("[LEASE] Analyze %s (%s)\n", l.ID, l.Name)

	res, err := h.Engine.Analyze(l)
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	if h.Repo != nil {
		if _, err := h.Repo.Save(r.Context(), l, *res); err != nil {
			fmt.Printf("[LEASE] Save failed for %s: %v\n", l.ID, err)
		}
	}
	writeJSON(w, roundAnalysis(*res))
}

// HandleGetAnalysis serves the stored analysis for ?lease_id=.
func (h *Handler) HandleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "GET, OPTIONS") {
		return
	}
	if h.Repo == nil {
		http.Error(w, "No analysis store configured", http.StatusServiceUnavailable)
		return
	}
	id := strings.TrimSpace(r.URL.Query().Get("lease_id"))
	if id == "" {
		http.Error(w, "lease_id is required", http.StatusBadRequest)
		return
	}
	rec, err := h.Repo.Load(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, fmt.Sprintf("No analysis for lease %s", id), http.StatusNotFound)
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, rec)
}

// HandleListAnalyses lists stored analyses, newest first.
func (h *Handler) HandleListAnalyses(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "GET, OPTIONS") {
		return
	}
	if h.Repo == nil {
		writeJSON(w, []store.Summary{})
		return
	}
	list, err := h.Repo.List(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if list == nil {
		list = []store.Summary{}
	}
	writeJSON(w, list)
}

func (h *Handler) HandleScenarios(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req ScenariosRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TopN <= 0 {
		req.TopN = h.Cfg.DriverTopN
	}
	fmt.Printf("[LEASE] %d scenarios for %s\n", len(req.Scenarios), req.Lease.ID)

	results, err := scenario.AnalyzeScenariosTopN(r.Context(), h.withDefaults(req.Lease), req.Scenarios, req.TopN)
	if errors.Is(err, context.Canceled) {
		return
	}
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}
	for i := range results {
		results[i].Analysis = roundAnalysis(results[i].Analysis)
	}
	writeJSON(w, results)
}

func (h *Handler) HandleCompare(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req CompareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.TopN <= 0 {
		req.TopN = h.Cfg.DriverTopN
	}
	a := analysis.AnalyzeLease(h.withDefaults(req.A))
	b := analysis.AnalyzeLease(h.withDefaults(req.B))
	writeJSON(w, CompareResponse{
		A:          roundAnalysis(a),
		B:          roundAnalysis(b),
		Comparison: scenario.CompareScenariosTopN(a, b, req.TopN),
	})
}

func (h *Handler) HandleTermination(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req TerminationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	l := h.withDefaults(req.Lease)
	if req.Option != nil && req.Option.InterestRate == nil {
		rate := h.Cfg.AmortizationRate
		req.Option.InterestRate = &rate
	}
	fmt.Printf("[LEASE] Termination of %s on %s\n", l.ID, req.TerminationDate)

	sc := termination.BuildTerminationScenario(l, termination.FeeInput{
		TerminationDate: req.TerminationDate,
		Option:          req.Option,
	})
	sc.Cashflow = roundLines(sc.Cashflow)
	writeJSON(w, sc)
}

func (h *Handler) HandleEquivalency(w http.ResponseWriter, r *http.Request) {
	if preflight(w, r, "POST, OPTIONS") {
		return
	}
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	var req EquivalencyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	res, err := equivalency.Convert(h.withDefaults(req.Lease), req.Kind, req.Value)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	res.Output = utils.RoundTo(res.Output, 4)
	writeJSON(w, res)
}

// withDefaults fills request gaps from the engine config.
func (h *Handler) withDefaults(l coreLease.LeaseDescription) coreLease.LeaseDescription {
	l = l.Clone()
	if l.DiscountRate == nil {
		rate := h.Cfg.DiscountRate
		l.DiscountRate = &rate
	}
	for i := range l.Options {
		if l.Options[i].Type == coreLease.OptionTermination && l.Options[i].InterestRate == nil {
			rate := h.Cfg.AmortizationRate
			l.Options[i].InterestRate = &rate
		}
	}
	return l
}

// preflight writes CORS headers and reports whether the request was an OPTIONS preflight.
func preflight(w http.ResponseWriter, r *http.Request, methods string) bool {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", methods)
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	if r.Method == "OPTIONS" {
		w.WriteHeader(http.StatusOK)
		return true
	}
	return false
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		fmt.Printf("[LEASE] Encode failed: %v\n", err)
	}
}

// Presentation rounding: money to cents, rates to 6 places.

func roundLines(lines []cashflow.Line) []cashflow.Line {
	out := make([]cashflow.Line, len(lines))
	for i, l := range lines {
		for _, b := range cashflow.Buckets {
			l = l.WithValue(b, utils.RoundMoney(l.Value(b)))
		}
		out[i] = l
	}
	return out
}

func roundAnalysis(a analysis.LeaseAnalysis) analysis.LeaseAnalysis {
	a.Cashflow = roundLines(a.Cashflow)
	a.Totals = cashflow.Sum(a.Cashflow)
	a.Metrics.NPV = utils.RoundMoney(a.Metrics.NPV)
	a.Metrics.TotalCashflow = utils.RoundMoney(a.Metrics.TotalCashflow)
	a.Metrics.EffectiveRentPSF = utils.RoundMoney(a.Metrics.EffectiveRentPSF)
	if a.Metrics.IRR != nil {
		irr := utils.RoundTo(*a.Metrics.IRR, 6)
		a.Metrics.IRR = &irr
	}
	if a.Metrics.PaybackPeriod != nil {
		pb := utils.RoundTo(*a.Metrics.PaybackPeriod, 4)
		a.Metrics.PaybackPeriod = &pb
	}
	if a.MonthlyEconomics != nil {
		m := *a.MonthlyEconomics
		m.Lines = roundLines(m.Lines)
		a.MonthlyEconomics = &m
	}
	return a
}
