package billing

import "github.com/shopspring/decimal"

// RatePlaces 日单价保存精度；金额统一保留 2 位
const (
	RatePlaces  = 4
	MoneyPlaces = 2
)

// PerDayRate 日单价 = 净支出池 / 总人天；总人天为 0 时返回 0
func PerDayRate(netPool decimal.Decimal, totalMandays int) decimal.Decimal {
	if totalMandays <= 0 {
		return decimal.Zero
	}
	return netPool.DivRound(decimal.NewFromInt(int64(totalMandays)), RatePlaces)
}

// Tariff 月度人工/伙食单价
type Tariff struct {
	LaborRate     decimal.Decimal
	ProvisionRate decimal.Decimal
}

// TariffCharge 月度收费明细
type TariffCharge struct {
	LaborDays       int
	ProvisionDays   int
	LaborCharge     decimal.Decimal
	ProvisionCharge decimal.Decimal
	Total           decimal.Decimal
}

// ChargeByTariff 按月度单价计费：LaborRate×LaborDays + ProvisionRate×ProvisionDays
func ChargeByTariff(t Tariff, laborDays, provisionDays int) TariffCharge {
	labor := t.LaborRate.Mul(decimal.NewFromInt(int64(laborDays))).Round(MoneyPlaces)
	provision := t.ProvisionRate.Mul(decimal.NewFromInt(int64(provisionDays))).Round(MoneyPlaces)
	return TariffCharge{
		LaborDays:       laborDays,
		ProvisionDays:   provisionDays,
		LaborCharge:     labor,
		ProvisionCharge: provision,
		Total:           labor.Add(provision),
	}
}
