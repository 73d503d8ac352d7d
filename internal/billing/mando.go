package billing

import "github.com/shopspring/decimal"

// Hostel 宿舍楼
type Hostel string

const (
	HostelBoys  Hostel = "Boys"
	HostelGirls Hostel = "Girls"
)

// Budget Mando 预算上限
type Budget struct {
	Boys        decimal.Decimal
	Girls       decimal.Decimal
	Total       decimal.Decimal
	PerMealRate decimal.Decimal
}

// MandoCharge 单个 Mando 学生的应计金额
type MandoCharge struct {
	Hostel Hostel
	Gross  decimal.Decimal
	Meals  int
}

// Allocation Mando 预算分摊结果（仅提示，不做截断）
type Allocation struct {
	BoysCoverage   decimal.Decimal
	GirlsCoverage  decimal.Decimal
	TotalCoverage  decimal.Decimal
	BoysStudents   int
	GirlsStudents  int
	MealCount      int
	MealEstimate   decimal.Decimal
	BoysWithin     bool
	GirlsWithin    bool
	TotalWithin    bool
	IsWithinBudget bool
}

// Allocate 按宿舍楼汇总 Mando 学生的 Gross，并与预算比较
// 超出预算只置标志位，Coverage 始终为真实合计
func Allocate(charges []MandoCharge, budget Budget) Allocation {
	var a Allocation
	a.BoysCoverage = decimal.Zero
	a.GirlsCoverage = decimal.Zero

	for _, c := range charges {
		switch c.Hostel {
		case HostelBoys:
			a.BoysCoverage = a.BoysCoverage.Add(c.Gross)
			a.BoysStudents++
		case HostelGirls:
			a.GirlsCoverage = a.GirlsCoverage.Add(c.Gross)
			a.GirlsStudents++
		default:
			continue
		}
		a.MealCount += c.Meals
	}

	a.TotalCoverage = a.BoysCoverage.Add(a.GirlsCoverage)
	a.MealEstimate = budget.PerMealRate.Mul(decimal.NewFromInt(int64(a.MealCount))).Round(MoneyPlaces)

	a.BoysWithin = a.BoysCoverage.LessThanOrEqual(budget.Boys)
	a.GirlsWithin = a.GirlsCoverage.LessThanOrEqual(budget.Girls)
	a.TotalWithin = a.TotalCoverage.LessThanOrEqual(budget.Total)
	a.IsWithinBudget = a.BoysWithin && a.GirlsWithin && a.TotalWithin

	return a
}
