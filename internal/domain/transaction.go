package domain

import "time"

// Transaction kinds recorded in the points ledger.
const (
	TxnEnrollDebit = "enroll_debit"
	TxnAdminCredit = "admin_credit"
	TxnPrizePayout = "prize_payout"
)

// Transaction is an append-only points ledger entry. Amount is negative
// for debits. BalanceAfter is the balance observed after the adjustment.
type Transaction struct {
	TransactionID string    `json:"id" dynamodbav:"transaction_id"`
	UserID        string    `json:"user_id" dynamodbav:"user_id"`
	Kind          string    `json:"kind" dynamodbav:"kind"`
	Amount        int64     `json:"amount" dynamodbav:"amount"`
	BalanceAfter  int64     `json:"balance_after" dynamodbav:"balance_after"`
	Reference     *string   `json:"reference,omitempty" dynamodbav:"reference"` // e.g. tournament id
	CreatedAt     time.Time `json:"created" dynamodbav:"created_at"`
}
