package models

import (
	"time"

	"github.com/pocketbase/pocketbase/core"
)

type TransactionStatus string

const (
	TxInitiated TransactionStatus = "initiated"
	TxSuccess   TransactionStatus = "success"
	TxFailed    TransactionStatus = "failed"
)

const ProviderPaystack = "paystack"

// PaymentTransaction is one gateway attempt for a booking. A booking may have
// several (retries); only one may reach success with effect.
type PaymentTransaction struct {
	ID        string            `json:"id"`
	BookingID string            `json:"booking_id"`
	UserID    string            `json:"user_id"`
	Provider  string            `json:"provider"`
	Reference string            `json:"reference"`
	Status    TransactionStatus `json:"status"`
	Amount    int64             `json:"amount"`
	Created   time.Time         `json:"created"`
	Updated   time.Time         `json:"updated"`
}

func PaymentTransactionFromRecord(r *core.Record) *PaymentTransaction {
	return &PaymentTransaction{
		ID:        r.Id,
		BookingID: r.GetString("booking"),
		UserID:    r.GetString("user"),
		Provider:  r.GetString("provider"),
		Reference: r.GetString("reference"),
		Status:    TransactionStatus(r.GetString("status")),
		Amount:    int64(r.GetFloat("amount")),
		Created:   r.GetDateTime("created").Time(),
		Updated:   r.GetDateTime("updated").Time(),
	}
}
