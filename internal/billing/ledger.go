package billing

import "github.com/shopspring/decimal"

// LedgerEntry 收费台账状态快照
type LedgerEntry struct {
	TotalDue          decimal.Decimal
	AmountPaid        decimal.Decimal
	Balance           decimal.Decimal
	BalanceOverridden bool
	PaymentMode       string
}

// NewLedgerEntry 以账单应收额开立台账（尚未付款）
func NewLedgerEntry(totalDue decimal.Decimal) LedgerEntry {
	return LedgerEntry{
		TotalDue:   totalDue,
		AmountPaid: decimal.Zero,
		Balance:    totalDue,
	}
}

// ApplyPayment 记一笔付款
// 首次付款时 current 为 nil，以 totalDue 开立；之后 AmountPaid 累加。
// override 非 nil 时余额直接取 override，否则按 TotalDue - AmountPaid 重算。
func ApplyPayment(current *LedgerEntry, totalDue, amount decimal.Decimal, mode string, override *decimal.Decimal) LedgerEntry {
	var e LedgerEntry
	if current == nil {
		e = NewLedgerEntry(totalDue)
	} else {
		e = *current
	}

	e.AmountPaid = e.AmountPaid.Add(amount)
	e.PaymentMode = mode

	if override != nil {
		e.Balance = *override
		e.BalanceOverridden = true
	} else {
		e.Balance = e.TotalDue.Sub(e.AmountPaid)
		e.BalanceOverridden = false
	}
	return e
}

// MarkUnpaid 清零已付金额，余额回到应收额
func MarkUnpaid(e LedgerEntry) LedgerEntry {
	e.AmountPaid = decimal.Zero
	e.Balance = e.TotalDue
	e.BalanceOverridden = false
	return e
}

// OverrideBalance 人工修正余额；AmountPaid 与 PaymentMode 保持不变
func OverrideBalance(e LedgerEntry, balance decimal.Decimal) LedgerEntry {
	e.Balance = balance
	e.BalanceOverridden = true
	return e
}
