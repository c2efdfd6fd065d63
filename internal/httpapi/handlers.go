package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gorilla/mux"

	"gastos/internal/api"
	"gastos/internal/balance"
	"gastos/internal/core"
	"gastos/internal/log"
	"gastos/internal/services"
	syncengine "gastos/internal/sync"
)

type createExpenseRequest struct {
	// Raw so that both JSON numbers and form-style decimal strings are
	// accepted; parsed with core.ParseDecimalToCents.
	Amount               json.RawMessage `json:"amount" validate:"required"`
	Description          string          `json:"description" validate:"required"`
	PaymentMethod        string          `json:"payment_method" validate:"required,oneof=banco efectivo"`
	Currency             string          `json:"currency" validate:"omitempty,oneof=soles dolares reales"`
	Date                 string          `json:"date" validate:"omitempty"`
	PaidBy               string          `json:"paid_by" validate:"required"`
	SplitType            string          `json:"split_type" validate:"omitempty,oneof=divided assigned selected"`
	AssignedTo           string          `json:"assigned_to"`
	SelectedParticipants []string        `json:"selected_participants"`
}

type expenseResponse struct {
	ID                   string  `json:"id"`
	Amount               float64 `json:"amount"`
	Description          string  `json:"description"`
	PaymentMethod        string  `json:"payment_method"`
	Currency             string  `json:"currency"`
	Date                 string  `json:"date"`
	PaidBy               string  `json:"paid_by"`
	SplitType            string  `json:"split_type,omitempty"`
	AssignedTo           string  `json:"assigned_to,omitempty"`
	SelectedParticipants string  `json:"selected_participants,omitempty"`
}

type pendingExpenseResponse struct {
	LocalID              int64   `json:"local_id"`
	ItemID               string  `json:"item_id"`
	Amount               float64 `json:"amount"`
	Description          string  `json:"description"`
	PaymentMethod        string  `json:"payment_method"`
	Currency             string  `json:"currency"`
	Date                 string  `json:"date"`
	PaidBy               string  `json:"paid_by"`
	SplitType            string  `json:"split_type,omitempty"`
	AssignedTo           string  `json:"assigned_to,omitempty"`
	SelectedParticipants string  `json:"selected_participants,omitempty"`
	CreatedAt            string  `json:"created_at"`
}

type queuedResponse struct {
	Queued  bool  `json:"queued"`
	LocalID int64 `json:"local_id"`
}

type itemResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Type string `json:"type"`
}

type balanceDetailResponse struct {
	UserID   string  `json:"user_id"`
	UserName string  `json:"user_name"`
	Currency string  `json:"currency"`
	Amount   float64 `json:"amount"`
}

type balancesResponse struct {
	OwedToYou        map[string]float64      `json:"owed_to_you"`
	YouOwe           map[string]float64      `json:"you_owe"`
	OwedToYouDetails []balanceDetailResponse `json:"owed_to_you_details"`
	YouOweDetails    []balanceDetailResponse `json:"you_owe_details"`
}

type budgetResponse struct {
	Amount   float64 `json:"amount"`
	Currency string  `json:"currency"`
}

type summaryResponse struct {
	Item            itemResponse       `json:"item"`
	Totals          map[string]float64 `json:"totals"`
	Balances        balancesResponse   `json:"balances"`
	Budget          *budgetResponse    `json:"budget,omitempty"`
	BudgetRemaining *float64           `json:"budget_remaining,omitempty"`
	PendingCount    int                `json:"pending_count"`
}

type expenseBalanceResponse struct {
	Type   string  `json:"type"`
	Amount float64 `json:"amount"`
}

func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, s.status.Snapshot(r.Context()))
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	result, err := s.syncer.SyncAll(r.Context())
	if err != nil {
		if errors.Is(err, syncengine.ErrSyncInProgress) {
			respondError(w, http.StatusConflict, "sync already in progress")
			return
		}
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Manual sync failed", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "sync failed")
		return
	}
	respondJSON(w, http.StatusOK, result)
}

func (s *Server) handlePendingAll(w http.ResponseWriter, r *http.Request) {
	pending, err := s.expenses.PendingAll(r.Context())
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list pending expenses", log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "failed to list pending expenses")
		return
	}
	respondJSON(w, http.StatusOK, toPendingResponses(pending))
}

func (s *Server) handlePendingForItem(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	pending, err := s.expenses.PendingForItem(r.Context(), itemID)
	if err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Failed to list pending expenses",
			log.FieldItemID, itemID, log.FieldError, err)
		respondError(w, http.StatusInternalServerError, "failed to list pending expenses")
		return
	}
	respondJSON(w, http.StatusOK, toPendingResponses(pending))
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]

	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	if err := s.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			respondError(w, http.StatusUnprocessableEntity, "invalid field: "+strings.ToLower(verrs[0].Field()))
			return
		}
		respondError(w, http.StatusUnprocessableEntity, "validation failed")
		return
	}

	expense, err := req.toNewExpense()
	if err != nil {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	result, err := s.expenses.CreateExpense(r.Context(), itemID, expense)
	if err != nil {
		s.renderCreateError(w, r, itemID, err)
		return
	}

	// Cached summaries for this item are stale either way now.
	s.summaries.InvalidateItem(itemID)

	if result.Queued {
		respondJSON(w, http.StatusAccepted, queuedResponse{Queued: true, LocalID: result.LocalID})
		return
	}
	respondJSON(w, http.StatusCreated, toExpenseResponse(*result.Expense))
}

func (s *Server) renderCreateError(w http.ResponseWriter, r *http.Request, itemID string, err error) {
	logger := log.FromContext(r.Context())

	var rejection *api.RejectionError
	if errors.As(err, &rejection) {
		// Pass the backend verdict through untouched.
		respondError(w, rejection.StatusCode, rejection.Detail)
		return
	}

	var network *api.NetworkError
	if errors.As(err, &network) {
		logger.WarnContext(r.Context(), "Backend unreachable during expense creation",
			log.FieldItemID, itemID, log.FieldError, err)
		respondError(w, http.StatusBadGateway, "backend unreachable")
		return
	}

	if isValidationErr(err) {
		respondError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	logger.ErrorContext(r.Context(), "Failed to create expense",
		log.FieldItemID, itemID, log.FieldError, err)
	respondError(w, http.StatusInternalServerError, "failed to create expense")
}

func (s *Server) handleItemSummary(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	userID := r.URL.Query().Get("user_id")

	summary, err := s.summaries.ItemSummary(r.Context(), itemID, userID)
	if err != nil {
		s.renderBackendError(w, r, itemID, "Failed to build item summary", err)
		return
	}
	respondJSON(w, http.StatusOK, toSummaryResponse(summary))
}

func (s *Server) handleExpenseBreakdown(w http.ResponseWriter, r *http.Request) {
	itemID := mux.Vars(r)["itemID"]
	userID := r.URL.Query().Get("user_id")

	breakdown, err := s.summaries.ExpenseBreakdown(r.Context(), itemID, userID)
	if err != nil {
		s.renderBackendError(w, r, itemID, "Failed to build expense breakdown", err)
		return
	}

	out := make(map[string]*expenseBalanceResponse, len(breakdown))
	for id, b := range breakdown {
		if b == nil {
			out[id] = nil
			continue
		}
		out[id] = &expenseBalanceResponse{Type: string(b.Type), Amount: b.Amount}
	}
	respondJSON(w, http.StatusOK, out)
}

func (s *Server) renderBackendError(w http.ResponseWriter, r *http.Request, itemID, msg string, err error) {
	logger := log.FromContext(r.Context())

	var rejection *api.RejectionError
	if errors.As(err, &rejection) {
		respondError(w, rejection.StatusCode, rejection.Detail)
		return
	}

	var network *api.NetworkError
	if errors.As(err, &network) {
		respondError(w, http.StatusBadGateway, "backend unreachable")
		return
	}

	logger.ErrorContext(r.Context(), msg, log.FieldItemID, itemID, log.FieldError, err)
	respondError(w, http.StatusInternalServerError, "internal error")
}

func (r createExpenseRequest) toNewExpense() (core.NewExpense, error) {
	cents, err := parseAmount(r.Amount)
	if err != nil {
		return core.NewExpense{}, err
	}

	date := time.Now().UTC()
	if r.Date != "" {
		parsed, err := parseDate(r.Date)
		if err != nil {
			return core.NewExpense{}, err
		}
		date = parsed
	}

	currency := core.Currency(r.Currency)
	if currency == "" {
		currency = core.Soles
	}
	splitType := core.SplitType(r.SplitType)
	if splitType == "" {
		splitType = core.SplitDivided
	}

	return core.NewExpense{
		Amount:               core.Money{Cents: cents},
		Description:          strings.TrimSpace(r.Description),
		PaymentMethod:        core.PaymentMethod(r.PaymentMethod),
		Currency:             currency,
		Date:                 date,
		PaidBy:               r.PaidBy,
		SplitType:            splitType,
		AssignedTo:           r.AssignedTo,
		SelectedParticipants: r.SelectedParticipants,
	}, nil
}

func parseAmount(raw json.RawMessage) (int64, error) {
	s := strings.TrimSpace(string(raw))
	if unquoted, err := strconv.Unquote(s); err == nil {
		s = unquoted
	}
	return core.ParseDecimalToCents(s)
}

func parseDate(value string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, value); err == nil {
		return t.UTC(), nil
	}
	if t, err := time.Parse("2006-01-02", value); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New("invalid date: expected RFC3339 or YYYY-MM-DD")
}

func toExpenseResponse(e core.Expense) expenseResponse {
	return expenseResponse{
		ID:                   e.ID,
		Amount:               e.Amount.Units(),
		Description:          e.Description,
		PaymentMethod:        string(e.PaymentMethod),
		Currency:             string(e.Currency),
		Date:                 e.Date.Format(time.RFC3339),
		PaidBy:               e.PaidBy,
		SplitType:            string(e.SplitType),
		AssignedTo:           e.AssignedTo,
		SelectedParticipants: strings.Join(e.SelectedParticipants, ","),
	}
}

func toSummaryResponse(s services.ItemSummary) summaryResponse {
	out := summaryResponse{
		Item: itemResponse{
			ID:   s.Item.ID,
			Name: s.Item.Name,
			Type: string(s.Item.Kind),
		},
		Totals: make(map[string]float64, len(s.Totals)),
		Balances: balancesResponse{
			OwedToYou:        make(map[string]float64, len(s.Balances.OwedToYou)),
			YouOwe:           make(map[string]float64, len(s.Balances.YouOwe)),
			OwedToYouDetails: toDetailResponses(s.Balances.OwedToYouDetails),
			YouOweDetails:    toDetailResponses(s.Balances.YouOweDetails),
		},
		BudgetRemaining: s.BudgetRemaining,
		PendingCount:    s.PendingCount,
	}

	for currency, amount := range s.Totals {
		out.Totals[string(currency)] = amount
	}
	for currency, amount := range s.Balances.OwedToYou {
		out.Balances.OwedToYou[string(currency)] = amount
	}
	for currency, amount := range s.Balances.YouOwe {
		out.Balances.YouOwe[string(currency)] = amount
	}

	if s.Budget != nil {
		out.Budget = &budgetResponse{
			Amount:   s.Budget.Amount.Units(),
			Currency: string(s.Budget.Currency),
		}
	}

	return out
}

func toDetailResponses(details []balance.Detail) []balanceDetailResponse {
	out := make([]balanceDetailResponse, 0, len(details))
	for _, d := range details {
		out = append(out, balanceDetailResponse{
			UserID:   d.UserID,
			UserName: d.UserName,
			Currency: string(d.Currency),
			Amount:   d.Amount,
		})
	}
	return out
}

func toPendingResponses(pending []core.PendingExpense) []pendingExpenseResponse {
	out := make([]pendingExpenseResponse, 0, len(pending))
	for _, p := range pending {
		out = append(out, pendingExpenseResponse{
			LocalID:              p.LocalID,
			ItemID:               p.ItemID,
			Amount:               p.Amount.Units(),
			Description:          p.Description,
			PaymentMethod:        string(p.PaymentMethod),
			Currency:             string(p.Currency),
			Date:                 p.Date.Format(time.RFC3339),
			PaidBy:               p.PaidBy,
			SplitType:            string(p.SplitType),
			AssignedTo:           p.AssignedTo,
			SelectedParticipants: strings.Join(p.SelectedParticipants, ","),
			CreatedAt:            p.CreatedAt.Format(time.RFC3339),
		})
	}
	return out
}

func isValidationErr(err error) bool {
	for _, sentinel := range []error{
		core.ErrInvalidAmount,
		core.ErrEmptyDescription,
		core.ErrInvalidCurrency,
		core.ErrInvalidPaymentMethod,
		core.ErrInvalidSplitType,
		core.ErrEmptySelection,
		core.ErrMissingAssignee,
	} {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}

func respondJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(payload)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
