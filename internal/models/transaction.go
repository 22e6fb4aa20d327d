package models

// TransactionDirection distinguishes money entering and leaving the wallet.
type TransactionDirection string

const (
	DirectionReceived TransactionDirection = "received"
	DirectionSent     TransactionDirection = "sent"
)

// TransactionStatus is the settlement state reported by the backend.
type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionCompleted TransactionStatus = "completed"
	TransactionCanceled  TransactionStatus = "canceled"
)

// UserAddress identifies one side of a transaction.
type UserAddress struct {
	UserID   string `json:"user_id,omitempty"`
	VASPName string `json:"vasp_name,omitempty"`
	FullAddr string `json:"full_addr,omitempty"`
}

// Transaction is an immutable settled transfer record, fetched most-recent-first.
type Transaction struct {
	ID          int64                `json:"id"`
	Amount      int64                `json:"amount"`
	Currency    string               `json:"currency"`
	Direction   TransactionDirection `json:"direction"`
	Status      TransactionStatus    `json:"status"`
	Timestamp   string               `json:"timestamp"`
	Source      UserAddress          `json:"source"`
	Destination UserAddress          `json:"destination"`
}
