package billing

import "github.com/shopspring/decimal"

// PoolAdjustments 支出池的扣减/追加项
type PoolAdjustments struct {
	PendingCost  decimal.Decimal // 未入账的待付成本，默认 0
	Advances     decimal.Decimal // 已收预付款
	CarryForward decimal.Decimal // 上期结转
}

// Pool 周期支出池
type Pool struct {
	TotalExpenses decimal.Decimal
	PendingCost   decimal.Decimal
	Advances      decimal.Decimal
	CarryForward  decimal.Decimal
	Net           decimal.Decimal
}

// NewPool 计算可分摊支出池
// Net = TotalExpenses + PendingCost - Advances - CarryForward
func NewPool(totalExpenses decimal.Decimal, adj PoolAdjustments) Pool {
	net := totalExpenses.
		Add(adj.PendingCost).
		Sub(adj.Advances).
		Sub(adj.CarryForward)

	return Pool{
		TotalExpenses: totalExpenses,
		PendingCost:   adj.PendingCost,
		Advances:      adj.Advances,
		CarryForward:  adj.CarryForward,
		Net:           net,
	}
}

// Negative 预付款与结转之和超过支出时净支出池为负，日单价随之为负
func (p Pool) Negative() bool {
	return p.Net.IsNegative()
}

// SumAmounts 累加金额
func SumAmounts(amounts []decimal.Decimal) decimal.Decimal {
	return decimal.Sum(decimal.Zero, amounts...)
}
