package service

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"signal_bot/internal/models"
	"signal_bot/internal/modules/journal/pg"
	mt5 "signal_bot/internal/modules/mt5_bridge/service"
	"signal_bot/pkg/logger"
)

// Server — read-only отчётная поверхность: счёт, ордера, история, статистика.
// Торговых мутаций здесь нет.
type Server struct {
	term     *mt5.Client
	outcomes *pg.Outcomes
}

func NewServer(term *mt5.Client, outcomes *pg.Outcomes) *Server {
	return &Server{term: term, outcomes: outcomes}
}

func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/account", s.handleAccount).Methods(http.MethodGet)
	api.HandleFunc("/orders", s.handleOrders).Methods(http.MethodGet)
	api.HandleFunc("/history", s.handleHistory).Methods(http.MethodGet)
	api.HandleFunc("/statistics", s.handleStatistics).Methods(http.MethodGet)
	api.HandleFunc("/outcomes", s.handleOutcomes).Methods(http.MethodGet)
	return r
}

func (s *Server) handleAccount(w http.ResponseWriter, r *http.Request) {
	acc, err := s.term.AccountInfo(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, map[string]any{
		"login":    acc.Login,
		"balance":  acc.Balance,
		"equity":   acc.Equity,
		"currency": acc.Currency,
		"isDemo":   acc.IsDemo,
	})
}

func (s *Server) handleOrders(w http.ResponseWriter, r *http.Request) {
	positions, err := s.term.OpenPositions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, positions)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	days, _ := strconv.Atoi(r.URL.Query().Get("days"))
	deals, err := s.term.HistoryDeals(r.Context(), days)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, deals)
}

func (s *Server) handleStatistics(w http.ResponseWriter, r *http.Request) {
	deals, err := s.term.HistoryDeals(r.Context(), 30)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, ComputeStatistics(deals))
}

func (s *Server) handleOutcomes(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	items, err := s.outcomes.Recent(r.Context(), limit)
	if err != nil {
		writeError(w, err)
		return
	}
	if items == nil {
		items = []models.SignalOutcome{}
	}
	writeJSON(w, items)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("api encode: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	logger.Error("api: %v", err)
	http.Error(w, err.Error(), http.StatusBadGateway)
}

// Run поднимает HTTP-сервер; остановка — через Shutdown из fx-хука.
func (s *Server) Run(addr string) *http.Server {
	srv := &http.Server{Addr: addr, Handler: s.Router()}
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("api serve: %v", err)
		}
	}()
	return srv
}

func (s *Server) Shutdown(ctx context.Context, srv *http.Server) error {
	return srv.Shutdown(ctx)
}
