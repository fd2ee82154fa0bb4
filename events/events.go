package events

import (
	"time"
)

type EventKind string

const (
	TxAdmitted EventKind = "tx_admitted"
	TxRejected EventKind = "tx_rejected"
	TxApplied  EventKind = "tx_applied"
	TxReverted EventKind = "tx_reverted"
)

// TransactionEvent describes one lifecycle step of a transaction.
type TransactionEvent struct {
	Kind    EventKind `json:"kind"`
	TxID    string    `json:"txId"`
	Sender  string    `json:"sender,omitempty"`
	Code    string    `json:"code,omitempty"`
	Message string    `json:"message,omitempty"`
	At      time.Time `json:"at"`
}

func NewTransactionEvent(kind EventKind, txID, sender string) TransactionEvent {
	return TransactionEvent{Kind: kind, TxID: txID, Sender: sender, At: time.Now()}
}

func NewTransactionRejected(txID, sender, code, message string) TransactionEvent {
	return TransactionEvent{
		Kind:    TxRejected,
		TxID:    txID,
		Sender:  sender,
		Code:    code,
		Message: message,
		At:      time.Now(),
	}
}
