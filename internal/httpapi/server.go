// Package httpapi exposes the offline queue, sync engine and balance views
// over a local JSON API.
package httpapi

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"gastos/internal/balance"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/monitor"
	"gastos/internal/services"
	syncengine "gastos/internal/sync"
)

// Expenses is the expense service surface the handlers need.
type Expenses interface {
	CreateExpense(ctx context.Context, itemID string, e core.NewExpense) (services.CreateResult, error)
	PendingForItem(ctx context.Context, itemID string) ([]core.PendingExpense, error)
	PendingAll(ctx context.Context) ([]core.PendingExpense, error)
}

// Summaries builds item detail views.
type Summaries interface {
	ItemSummary(ctx context.Context, itemID, userID string) (services.ItemSummary, error)
	ExpenseBreakdown(ctx context.Context, itemID, userID string) (map[string]*balance.ExpenseBalance, error)
	InvalidateItem(itemID string)
}

// Syncer drains the pending queue on demand.
type Syncer interface {
	SyncAll(ctx context.Context) (syncengine.Result, error)
}

// StatusReader reports connectivity and queue state.
type StatusReader interface {
	Snapshot(ctx context.Context) monitor.Status
}

type Server struct {
	expenses  Expenses
	summaries Summaries
	syncer    Syncer
	status    StatusReader
	validate  *validator.Validate
	logger    *log.Logger

	httpServer *http.Server
}

func NewServer(port string, expenses Expenses, summaries Summaries, syncer Syncer, status StatusReader, logger *log.Logger) *Server {
	s := &Server{
		expenses:  expenses,
		summaries: summaries,
		syncer:    syncer,
		status:    status,
		validate:  validator.New(),
		logger:    logger.WithComponent(log.ComponentHTTP),
	}

	router := mux.NewRouter()
	router.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	router.HandleFunc("/status", s.handleStatus).Methods(http.MethodGet)
	router.HandleFunc("/sync", s.handleSync).Methods(http.MethodPost)
	router.HandleFunc("/pending", s.handlePendingAll).Methods(http.MethodGet)
	router.HandleFunc("/items/{itemID}/pending", s.handlePendingForItem).Methods(http.MethodGet)
	router.HandleFunc("/items/{itemID}/expenses", s.handleCreateExpense).Methods(http.MethodPost)
	router.HandleFunc("/items/{itemID}/summary", s.handleItemSummary).Methods(http.MethodGet)
	router.HandleFunc("/items/{itemID}/balances", s.handleExpenseBreakdown).Methods(http.MethodGet)

	handler := securityHeaders(router)
	handler = log.RequestMiddleware(s.logger)(handler)
	handler = cors.New(cors.Options{
		AllowedMethods: []string{http.MethodGet, http.MethodPost},
		AllowedHeaders: []string{"Content-Type", "X-Request-ID"},
	}).Handler(handler)

	s.httpServer = &http.Server{
		Addr:         ":" + port,
		Handler:      handler,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler exposes the composed handler chain, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

func (s *Server) Start() error {
	s.logger.InfoContext(context.Background(), "HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
