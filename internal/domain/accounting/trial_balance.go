package accounting

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TrialBalanceRow aggregates the debit and credit totals of one
// account over a period
type TrialBalanceRow struct {
	AccountID   uuid.UUID       `json:"account_id"`
	AccountCode string          `json:"account_code"`
	AccountName string          `json:"account_name"`
	AccountType AccountType     `json:"account_type"`
	DebitTotal  decimal.Decimal `json:"debit_total"`
	CreditTotal decimal.Decimal `json:"credit_total"`
}

// Balance returns the net balance on the account's normal side
func (r TrialBalanceRow) Balance() decimal.Decimal {
	if r.AccountType.NormalBalance() == EntrySideDebit {
		return r.DebitTotal.Sub(r.CreditTotal)
	}
	return r.CreditTotal.Sub(r.DebitTotal)
}

// TrialBalance is the per-account totals report over a date range
type TrialBalance struct {
	From        time.Time         `json:"from"`
	To          time.Time         `json:"to"`
	Rows        []TrialBalanceRow `json:"rows"`
	DebitTotal  decimal.Decimal   `json:"debit_total"`
	CreditTotal decimal.Decimal   `json:"credit_total"`
}

// IsBalanced reports whether the report's grand totals match.
// With only balanced entries posted this always holds.
func (tb TrialBalance) IsBalanced() bool {
	return tb.DebitTotal.Equal(tb.CreditTotal)
}

// NewTrialBalance builds the report and its grand totals from rows
func NewTrialBalance(from, to time.Time, rows []TrialBalanceRow) TrialBalance {
	debit := decimal.Zero
	credit := decimal.Zero
	for _, row := range rows {
		debit = debit.Add(row.DebitTotal)
		credit = credit.Add(row.CreditTotal)
	}
	return TrialBalance{
		From:        from,
		To:          to,
		Rows:        rows,
		DebitTotal:  debit,
		CreditTotal: credit,
	}
}
