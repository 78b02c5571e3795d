package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/etnz/performance"
	"github.com/etnz/performance/date"
	"github.com/go-chi/chi/v5"
)

type portfolioRequest struct {
	Name string `json:"name"`
}

type holdingRequest struct {
	Symbol string                `json:"symbol"`
	Name   string                `json:"name"`
	Kind   performance.AssetKind `json:"kind"`
}

func (r holdingRequest) holding() performance.Holding {
	return performance.Holding{Symbol: r.Symbol, DisplayName: r.Name, Kind: r.Kind}
}

// transactionRequest accepts either an RFC 3339 instant or a plain day as date.
type transactionRequest struct {
	Date      string               `json:"date"`
	Quantity  performance.Quantity `json:"quantity"`
	UnitPrice performance.Money    `json:"unitPrice"`
	Kind      performance.Kind     `json:"kind"`
}

func (r transactionRequest) transaction() (performance.Transaction, error) {
	tx := performance.Transaction{Quantity: r.Quantity, UnitPrice: r.UnitPrice, Kind: r.Kind}
	if r.Date == "" {
		return tx, nil // reported by validation
	}
	on, err := time.Parse(time.RFC3339, r.Date)
	if err != nil {
		d, derr := date.Parse(r.Date)
		if derr != nil {
			return tx, fmt.Errorf("%w: invalid transaction date %q", performance.ErrInvalid, r.Date)
		}
		on = d.Time()
	}
	tx.Date = on
	return tx, nil
}

// portfolioDetail is a portfolio with its holdings.
type portfolioDetail struct {
	performance.Portfolio
	Holdings []performance.Holding `json:"holdings"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleListPortfolios(w http.ResponseWriter, r *http.Request) {
	list, err := s.store.ListPortfolios(r.Context())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(list))
}

func (s *Server) handleCreatePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.store.CreatePortfolio(r.Context(), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, p)
}

func (s *Server) handleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, err := s.store.GetPortfolio(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	holdings, err := s.store.ListHoldings(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, portfolioDetail{Portfolio: p, Holdings: nonNil(holdings)})
}

func (s *Server) handleRenamePortfolio(w http.ResponseWriter, r *http.Request) {
	var req portfolioRequest
	if !s.decode(w, r, &req) {
		return
	}
	p, err := s.store.RenamePortfolio(r.Context(), chi.URLParam(r, "id"), req.Name)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, p)
}

func (s *Server) handleDeletePortfolio(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeletePortfolio(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListHoldings(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetPortfolio(r.Context(), id); err != nil {
		s.writeError(w, err)
		return
	}
	holdings, err := s.store.ListHoldings(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(holdings))
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if !s.decode(w, r, &req) {
		return
	}
	h, err := s.store.AddHolding(r.Context(), chi.URLParam(r, "id"), req.holding())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, h)
}

func (s *Server) handleGetHolding(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.GetHolding(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "hid"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	h.Transactions = nonNil(h.Transactions)
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleUpdateHolding(w http.ResponseWriter, r *http.Request) {
	var req holdingRequest
	if !s.decode(w, r, &req) {
		return
	}
	h, err := s.store.UpdateHolding(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "hid"), req.holding())
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, h)
}

func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	if err := s.store.RemoveHolding(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "hid")); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	h, err := s.store.GetHolding(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "hid"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, nonNil(h.Transactions))
}

func (s *Server) handleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var req transactionRequest
	if !s.decode(w, r, &req) {
		return
	}
	tx, err := req.transaction()
	if err != nil {
		s.writeError(w, err)
		return
	}
	tx, err = s.store.AddTransaction(r.Context(), chi.URLParam(r, "id"), chi.URLParam(r, "hid"), tx)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, tx)
}

// handlePerformance serves the performance report.
//
// startDate and endDate are optional days (YYYY-MM-DD).
func (s *Server) handlePerformance(w http.ResponseWriter, r *http.Request) {
	var window performance.Window
	var err error
	if v := r.URL.Query().Get("startDate"); v != "" {
		if window.Start, err = date.Parse(v); err != nil {
			s.writeError(w, fmt.Errorf("%w: startDate: %v", performance.ErrInvalid, err))
			return
		}
	}
	if v := r.URL.Query().Get("endDate"); v != "" {
		if window.End, err = date.Parse(v); err != nil {
			s.writeError(w, fmt.Errorf("%w: endDate: %v", performance.ErrInvalid, err))
			return
		}
	}

	id := chi.URLParam(r, "id")
	report, ok, err := s.composer.Report(r.Context(), id, window)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		s.writeError(w, fmt.Errorf("portfolio %q: %w", id, performance.ErrNotFound))
		return
	}
	report.Series = nonNil(report.Series)
	report.Holdings = nonNil(report.Holdings)
	s.writeJSON(w, http.StatusOK, report)
}

// decode reads the JSON body into v, and reports a 400 on failure.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		s.writeError(w, fmt.Errorf("%w: invalid request body: %v", performance.ErrInvalid, err))
		return false
	}
	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}

// writeError maps err to its HTTP status.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, performance.ErrNotFound):
		status = http.StatusNotFound
	case errors.Is(err, performance.ErrInvalid):
		status = http.StatusBadRequest
	default:
		s.log.Error().Err(err).Msg("request failed")
	}
	s.writeJSON(w, status, map[string]string{"error": err.Error()})
}

// nonNil makes empty lists encode as [] rather than null.
func nonNil[T any](list []T) []T {
	if list == nil {
		return []T{}
	}
	return list
}
