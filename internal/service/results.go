package service

import (
	"fmt"
	"strings"
)

// Status tags every operation result so callers never have to parse
// the rendered text.
type Status string

const (
	StatusOK                 Status = "OK"
	StatusNotFound           Status = "NOT_FOUND"
	StatusPreconditionFailed Status = "PRECONDITION_FAILED"
	StatusConflict           Status = "CONFLICT"
	StatusInvalid            Status = "INVALID"
	StatusInsufficientFunds  Status = "INSUFFICIENT_FUNDS"
)

// Result is a single-entity operation outcome
type Result struct {
	Status  Status `json:"status"`
	Message string `json:"message"`
}

func ok(format string, args ...interface{}) *Result {
	return &Result{Status: StatusOK, Message: fmt.Sprintf(format, args...)}
}

func notFound(format string, args ...interface{}) *Result {
	return &Result{Status: StatusNotFound, Message: fmt.Sprintf(format, args...)}
}

func conflict(format string, args ...interface{}) *Result {
	return &Result{Status: StatusConflict, Message: fmt.Sprintf(format, args...)}
}

func invalid(format string, args ...interface{}) *Result {
	return &Result{Status: StatusInvalid, Message: fmt.Sprintf(format, args...)}
}

func preconditionFailed(format string, args ...interface{}) *Result {
	return &Result{Status: StatusPreconditionFailed, Message: fmt.Sprintf(format, args...)}
}

// Assignment records one client routed to a checkout
type Assignment struct {
	ClientID   int64 `json:"client_id"`
	CheckoutID int64 `json:"checkout_id"`
	Ordinal    int   `json:"ordinal"`
}

// QueueReport is the structured outcome of one queueing run
type QueueReport struct {
	Status      Status       `json:"status"`
	Message     string       `json:"message,omitempty"`
	Assignments []Assignment `json:"assignments"`
}

// Render returns the human-readable report, one line per assignment
func (r *QueueReport) Render() string {
	if r.Status != StatusOK {
		return r.Message + "\n"
	}
	var sb strings.Builder
	for _, a := range r.Assignments {
		fmt.Fprintf(&sb, "Client: %d assigned to checkout: %d\n", a.ClientID, a.Ordinal)
	}
	return sb.String()
}

// SettlementOutcome records one client's settlement result
type SettlementOutcome struct {
	ClientID    int64   `json:"client_id"`
	ClientName  string  `json:"client_name"`
	CheckoutID  int64   `json:"checkout_id"`
	Status      Status  `json:"status"`
	ReceiptID   string  `json:"receipt_id,omitempty"`
	Total       float64 `json:"total"`
	ReceiptText string  `json:"receipt_text,omitempty"`
	EmitFailed  bool    `json:"emit_failed,omitempty"`
}

// SettlementReport is the structured outcome of one settlement run
type SettlementReport struct {
	Status   Status              `json:"status"`
	Message  string              `json:"message,omitempty"`
	Outcomes []SettlementOutcome `json:"outcomes"`
}

// Render concatenates per-client results in processing order
func (r *SettlementReport) Render() string {
	if r.Status != StatusOK {
		return r.Message + "\n"
	}
	var sb strings.Builder
	for _, o := range r.Outcomes {
		if o.Status == StatusOK {
			sb.WriteString(o.ReceiptText)
			sb.WriteString("\n")
		} else {
			fmt.Fprintf(&sb, "Client %s does not have enough money!\n\n", o.ClientName)
		}
	}
	return sb.String()
}

// LedgerEntry holds one shop's rollup
type LedgerEntry struct {
	ShopID   int64   `json:"shop_id"`
	ShopName string  `json:"shop_name"`
	Expenses float64 `json:"expenses"`
	Earnings float64 `json:"earnings"`
}

// LedgerReport is the all-shops financial rollup
type LedgerReport struct {
	Entries []LedgerEntry `json:"entries"`
}

// Render returns one expenses and one earnings line per shop
func (r *LedgerReport) Render() string {
	var sb strings.Builder
	for _, e := range r.Entries {
		fmt.Fprintf(&sb, "%s expenses: %.2f\n", e.ShopName, e.Expenses)
		fmt.Fprintf(&sb, "%s earnings: %.2f\n", e.ShopName, e.Earnings)
	}
	return sb.String()
}
