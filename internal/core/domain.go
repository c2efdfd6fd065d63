package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Soles   Currency = "soles"
	Dolares Currency = "dolares"
	Reales  Currency = "reales"
)

const (
	Banco    PaymentMethod = "banco"
	Efectivo PaymentMethod = "efectivo"
)

const (
	SplitDivided  SplitType = "divided"
	SplitAssigned SplitType = "assigned"
	SplitSelected SplitType = "selected"
)

const (
	ItemPersonal ItemKind = "personal"
	ItemShared   ItemKind = "shared"
)

type (
	Currency      string
	PaymentMethod string
	SplitType     string
	ItemKind      string

	Money struct {
		Cents int64
	}

	// NewExpense carries the canonical fields of an expense to be created,
	// either directly against the backend or queued while offline. The split
	// fields are only meaningful when the owning item is shared.
	NewExpense struct {
		Amount               Money
		Description          string
		PaymentMethod        PaymentMethod
		Currency             Currency
		Date                 time.Time // UTC
		PaidBy               string
		SplitType            SplitType
		AssignedTo           string
		SelectedParticipants []string
	}

	// PendingExpense is a NewExpense resident in the local queue. LocalID and
	// CreatedAt are store bookkeeping and are never sent to the backend.
	PendingExpense struct {
		LocalID   int64
		ItemID    string
		CreatedAt time.Time
		NewExpense
	}

	// Expense is the canonical, backend-assigned view of an expense.
	Expense struct {
		ID                   string
		ItemID               string
		Amount               Money
		Description          string
		PaymentMethod        PaymentMethod
		Currency             Currency
		Date                 time.Time
		PaidBy               string
		SplitType            SplitType
		AssignedTo           string
		SelectedParticipants []string
	}

	Participant struct {
		ID    string
		Email string
		Name  string
		// IsPending marks users invited by email who have not registered yet.
		// They never take part in balance math.
		IsPending bool
	}

	Item struct {
		ID   string
		Name string
		Kind ItemKind
	}

	// Budget is the viewpoint user's budget for one item.
	Budget struct {
		Amount   Money
		Currency Currency
	}
)

var (
	ErrInvalidAmount        = errors.New("invalid amount")
	ErrEmptyDescription     = errors.New("empty description")
	ErrInvalidCurrency      = errors.New("invalid currency")
	ErrInvalidPaymentMethod = errors.New("invalid payment method")
	ErrInvalidSplitType     = errors.New("invalid split type")
	ErrEmptySelection       = errors.New("selected split requires at least one participant")
	ErrMissingAssignee      = errors.New("assigned split requires an assignee")
)

func (c Currency) Validate() error {
	switch c {
	case Soles, Dolares, Reales:
		return nil
	}
	return ErrInvalidCurrency
}

func (p PaymentMethod) Validate() error {
	switch p {
	case Banco, Efectivo:
		return nil
	}
	return ErrInvalidPaymentMethod
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (e NewExpense) Validate() error {
	if err := e.Amount.Validate(); err != nil {
		return err
	}
	if len(strings.TrimSpace(e.Description)) == 0 {
		return ErrEmptyDescription
	}
	if len(e.Description) > 200 {
		return errors.New("description too long (max 200 characters)")
	}
	if err := e.Currency.Validate(); err != nil {
		return err
	}
	if err := e.PaymentMethod.Validate(); err != nil {
		return err
	}
	// Split fields are optional: absent on personal items.
	switch e.SplitType {
	case "":
	case SplitDivided:
	case SplitAssigned:
		if e.AssignedTo == "" {
			return ErrMissingAssignee
		}
	case SplitSelected:
		if len(e.SelectedParticipants) == 0 {
			return ErrEmptySelection
		}
	default:
		return ErrInvalidSplitType
	}
	return nil
}

// Normalized returns a copy with the date forced to UTC and whitespace-only
// selected participants dropped.
func (e NewExpense) Normalized() NewExpense {
	out := e
	if !e.Date.IsZero() {
		out.Date = e.Date.UTC()
	}
	if len(e.SelectedParticipants) > 0 {
		ids := make([]string, 0, len(e.SelectedParticipants))
		for _, id := range e.SelectedParticipants {
			if id = strings.TrimSpace(id); id != "" {
				ids = append(ids, id)
			}
		}
		out.SelectedParticipants = ids
	}
	return out
}

// DisplayName returns the participant's name, falling back to the local part
// of the email address, then to the raw id.
func (p Participant) DisplayName() string {
	if p.Name != "" {
		return p.Name
	}
	if at := strings.IndexByte(p.Email, '@'); at > 0 {
		return p.Email[:at]
	}
	if p.Email != "" {
		return p.Email
	}
	return p.ID
}
