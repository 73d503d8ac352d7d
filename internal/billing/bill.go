package billing

import "github.com/shopspring/decimal"

// BillInput 单个学生的计费输入
type BillInput struct {
	Mandays             int
	PerDayRate          decimal.Decimal
	IsMando             bool
	Adjustments         decimal.Decimal // 可正可负
	CarryForwardApplied decimal.Decimal
}

// Bill 单个学生账单
type Bill struct {
	Mandays             int
	PerDayRate          decimal.Decimal
	Gross               decimal.Decimal
	Adjustments         decimal.Decimal
	CarryForwardApplied decimal.Decimal
	Final               decimal.Decimal
	IsMando             bool
}

// ComputeBill 计算账单
//
//	Gross = PerDayRate × Mandays
//	Final = max(0, Gross + Adjustments - CarryForwardApplied)
//
// Mando 学生 Final 恒为 0，但仍返回 Gross 供预算分摊使用。
func ComputeBill(in BillInput) Bill {
	gross := in.PerDayRate.Mul(decimal.NewFromInt(int64(in.Mandays))).Round(MoneyPlaces)

	final := gross.Add(in.Adjustments).Sub(in.CarryForwardApplied).Round(MoneyPlaces)
	if final.IsNegative() || in.IsMando {
		final = decimal.Zero
	}

	return Bill{
		Mandays:             in.Mandays,
		PerDayRate:          in.PerDayRate,
		Gross:               gross,
		Adjustments:         in.Adjustments,
		CarryForwardApplied: in.CarryForwardApplied,
		Final:               final,
		IsMando:             in.IsMando,
	}
}
