package entity

import (
	"encoding/json"
	"strconv"
	"strings"
	"unicode"
)

// TransactionType is the kind of payment operation requested
type TransactionType string

const (
	Authorize TransactionType = "authorize"
	Charge    TransactionType = "charge"
	Refund    TransactionType = "refund"
	Reversal  TransactionType = "reversal"
)

// TransactionRequest is the body posted to the payment endpoint.
// A nil Amount is the not-a-number value and is encoded as null.
type TransactionRequest struct {
	Amount        *int   `json:"amount"`
	Type          string `json:"type"`
	MerchantID    string `json:"merchant_id"`
	CustomerEmail string `json:"customer_email"`
	DependsOnUUID string `json:"depends_on_uuid"`
}

// NewTransactionRequest builds a request from raw form values without validating them
func NewTransactionRequest(amount, txType, merchantID, customerEmail, dependsOnUUID string) *TransactionRequest {
	return &TransactionRequest{
		Amount:        ParseAmount(amount),
		Type:          txType,
		MerchantID:    merchantID,
		CustomerEmail: customerEmail,
		DependsOnUUID: dependsOnUUID,
	}
}

// ParseAmount reads the leading integer of s the way a browser's parseInt does:
// leading whitespace is skipped, an optional sign is accepted and parsing stops
// at the first non-digit. It returns nil when no digits are found or the value
// does not fit in an int.
func ParseAmount(s string) *int {
	s = strings.TrimLeftFunc(s, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})

	end := 0
	if end < len(s) && (s[end] == '+' || s[end] == '-') {
		end++
	}
	digitsStart := end
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == digitsStart {
		return nil
	}

	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return nil
	}
	return &n
}

// TransactionResult is the payment endpoint's success payload
type TransactionResult struct {
	UUID          string          `json:"UUID"`
	Type          TransactionType `json:"type"`
	Amount        int             `json:"amount"`
	CustomerEmail string          `json:"customer_email"`
	CustomerPhone string          `json:"customer_phone,omitempty"`
	Status        string          `json:"status"`
	MerchantID    string          `json:"merchant_id,omitempty"`
	DependsOnUUID string          `json:"depends_on_uuid,omitempty"`

	Raw json.RawMessage `json:"-"`
}
