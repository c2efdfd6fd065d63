// Package api is the client for the remote expense backend. It owns the wire
// representation (float amounts, comma-joined participant lists, RFC 3339
// dates) and converts at the boundary to the core types.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"gastos/internal/core"
)

type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

func NewClient(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type expensePayload struct {
	Amount               float64  `json:"amount"`
	Description          string   `json:"description"`
	PaymentMethod        string   `json:"payment_method"`
	Currency             string   `json:"currency"`
	Date                 string   `json:"date"`
	PaidBy               string   `json:"paid_by,omitempty"`
	SplitType            string   `json:"split_type,omitempty"`
	AssignedTo           string   `json:"assigned_to,omitempty"`
	SelectedParticipants []string `json:"selected_participants,omitempty"`
}

type expenseResponse struct {
	ID                   string  `json:"id"`
	ItemID               string  `json:"item_id"`
	Amount               float64 `json:"amount"`
	Description          string  `json:"description"`
	PaymentMethod        string  `json:"payment_method"`
	Currency             string  `json:"currency"`
	Date                 string  `json:"date"`
	PaidBy               string  `json:"paid_by"`
	SplitType            string  `json:"split_type"`
	AssignedTo           string  `json:"assigned_to"`
	SelectedParticipants string  `json:"selected_participants"` // comma-joined on the wire
}

type participantResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	IsPending bool   `json:"is_pending"`
}

type itemResponse struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ItemType string `json:"item_type"`
}

type budgetResponse struct {
	Budget   float64 `json:"budget"`
	Currency string  `json:"currency"`
}

// CreateExpense submits the canonical fields of an expense. Local
// bookkeeping (local id, created-at, synced flag) never crosses this
// boundary.
func (c *Client) CreateExpense(ctx context.Context, itemID string, e core.NewExpense) (core.Expense, error) {
	e = e.Normalized()
	payload := expensePayload{
		Amount:               e.Amount.Units(),
		Description:          e.Description,
		PaymentMethod:        string(e.PaymentMethod),
		Currency:             string(e.Currency),
		Date:                 e.Date.Format(time.RFC3339),
		PaidBy:               e.PaidBy,
		SplitType:            string(e.SplitType),
		AssignedTo:           e.AssignedTo,
		SelectedParticipants: e.SelectedParticipants,
	}

	var resp expenseResponse
	if err := c.do(ctx, http.MethodPost, "/items/"+itemID+"/expenses", payload, &resp); err != nil {
		return core.Expense{}, err
	}
	return toExpense(itemID, resp), nil
}

// GetItem fetches one item.
func (c *Client) GetItem(ctx context.Context, itemID string) (core.Item, error) {
	var resp itemResponse
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID, nil, &resp); err != nil {
		return core.Item{}, err
	}
	return core.Item{
		ID:   resp.ID,
		Name: resp.Name,
		Kind: core.ItemKind(resp.ItemType),
	}, nil
}

// GetExpenses fetches every expense of an item.
func (c *Client) GetExpenses(ctx context.Context, itemID string) ([]core.Expense, error) {
	var resp []expenseResponse
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID+"/expenses", nil, &resp); err != nil {
		return nil, err
	}
	expenses := make([]core.Expense, len(resp))
	for i, r := range resp {
		expenses[i] = toExpense(itemID, r)
	}
	return expenses, nil
}

// GetItemParticipants fetches the item roster, pending invitations included.
func (c *Client) GetItemParticipants(ctx context.Context, itemID string) ([]core.Participant, error) {
	var resp []participantResponse
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID+"/participants", nil, &resp); err != nil {
		return nil, err
	}
	participants := make([]core.Participant, len(resp))
	for i, r := range resp {
		participants[i] = core.Participant{
			ID:        r.ID,
			Email:     r.Email,
			Name:      r.Name,
			IsPending: r.IsPending,
		}
	}
	return participants, nil
}

// GetUserBudget fetches the caller's budget for an item.
func (c *Client) GetUserBudget(ctx context.Context, itemID string) (core.Budget, error) {
	var resp budgetResponse
	if err := c.do(ctx, http.MethodGet, "/items/"+itemID+"/budget", nil, &resp); err != nil {
		return core.Budget{}, err
	}
	return core.Budget{
		Amount:   core.MoneyFromFloat(resp.Budget),
		Currency: core.Currency(resp.Currency),
	}, nil
}

// Ping reports backend reachability; the connectivity pinger drives the
// online/offline edges off it.
func (c *Client) Ping(ctx context.Context) error {
	return c.do(ctx, http.MethodGet, "/health", nil, nil)
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s %s: %w", method, path, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", uuid.NewString())
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &NetworkError{Op: method + " " + path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &RejectionError{
			StatusCode: resp.StatusCode,
			Detail:     readDetail(resp.Body),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s response: %w", method, path, err)
	}
	return nil
}

// readDetail extracts FastAPI-style {"detail": "..."} bodies, falling back
// to the raw text.
func readDetail(r io.Reader) string {
	raw, err := io.ReadAll(io.LimitReader(r, 4096))
	if err != nil || len(raw) == 0 {
		return ""
	}
	var parsed struct {
		Detail string `json:"detail"`
	}
	if err := json.Unmarshal(raw, &parsed); err == nil && parsed.Detail != "" {
		return parsed.Detail
	}
	return strings.TrimSpace(string(raw))
}

func toExpense(itemID string, r expenseResponse) core.Expense {
	e := core.Expense{
		ID:            r.ID,
		ItemID:        itemID,
		Amount:        core.MoneyFromFloat(r.Amount),
		Description:   r.Description,
		PaymentMethod: core.PaymentMethod(r.PaymentMethod),
		Currency:      core.Currency(r.Currency),
		PaidBy:        r.PaidBy,
		SplitType:     core.SplitType(r.SplitType),
		AssignedTo:    r.AssignedTo,
	}
	if r.ItemID != "" {
		e.ItemID = r.ItemID
	}
	if r.SelectedParticipants != "" {
		e.SelectedParticipants = strings.Split(r.SelectedParticipants, ",")
	}
	if t, err := time.Parse(time.RFC3339, r.Date); err == nil {
		e.Date = t
	}
	return e
}
