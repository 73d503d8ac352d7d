package service

import (
	"context"
	"errors"
	"testing"

	"hostel-mess/backend/internal/dto"
)

func TestExpenseService_Create(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Expense

	res, err := svc.Create(context.Background(), &dto.CreateExpenseRequest{
		Date: "2024-07-03", Type: "Other", Amount: dec("1234.567"), Description: "大米",
	}, "acct-1")
	if err != nil {
		t.Fatalf("Create 应成功: %v", err)
	}
	if !res.Record.Amount.Equal(dec("1234.57")) {
		t.Errorf("金额应保留两位小数，实际=%s", res.Record.Amount)
	}
	if res.Record.Date != "2024-07-03" || !res.Audit.Recorded {
		t.Errorf("结果不符: %+v", res)
	}
	if env.audits.last().Action != ActionExpenseCreate {
		t.Errorf("审计动作不符: %s", env.audits.last().Action)
	}
}

func TestExpenseService_Create_Validation(t *testing.T) {
	env := newTestEnv()
	svc := env.service().Expense
	ctx := context.Background()

	if _, err := svc.Create(ctx, &dto.CreateExpenseRequest{Date: "2024-07-03", Amount: dec("0")}, "acct-1"); !errors.Is(err, ErrExpenseAmountInvalid) {
		t.Errorf("期望 ErrExpenseAmountInvalid，实际: %v", err)
	}
	if _, err := svc.Create(ctx, &dto.CreateExpenseRequest{Date: "2024-7-3", Amount: dec("10")}, "acct-1"); !errors.Is(err, ErrInvalidDate) {
		t.Errorf("期望 ErrInvalidDate，实际: %v", err)
	}
	if len(env.expenses.expenses) != 0 {
		t.Error("校验失败时不应写入")
	}
}

func TestExpenseService_List(t *testing.T) {
	env := setupJulySemester(t)
	svc := env.service().Expense

	all, err := svc.List(context.Background(), &dto.ExpenseFilter{From: "2024-07-01", To: "2024-07-31"})
	if err != nil {
		t.Fatalf("List 应成功: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("期望区间内 2 条，实际=%d", len(all))
	}

	if _, err := svc.List(context.Background(), &dto.ExpenseFilter{From: "2024-07-31", To: "2024-07-01"}); !errors.Is(err, ErrInvalidDateRange) {
		t.Errorf("期望 ErrInvalidDateRange，实际: %v", err)
	}
}

func TestExpenseService_Pool(t *testing.T) {
	env := setupJulySemester(t)
	svc := env.service().Expense

	pool, err := svc.Pool(context.Background(), &dto.PoolFilter{
		SemesterID: "sem-1", CarryForward: "1500", Advances: "850", PendingCost: "200",
	})
	if err != nil {
		t.Fatalf("Pool 应成功: %v", err)
	}
	// 7670 + 200 - 850 - 1500
	if !pool.TotalExpenses.Equal(dec("7670")) || !pool.NetPool.Equal(dec("5520")) {
		t.Errorf("支出池不符: total=%s net=%s", pool.TotalExpenses, pool.NetPool)
	}
	if pool.PeriodStart != "2024-07-01" || pool.PeriodEnd != "2024-07-31" {
		t.Errorf("区间不符: %s ~ %s", pool.PeriodStart, pool.PeriodEnd)
	}

	if _, err := svc.Pool(context.Background(), &dto.PoolFilter{SemesterID: "sem-1", CarryForward: "-1"}); !errors.Is(err, ErrInvalidAmount) {
		t.Errorf("负数结转期望 ErrInvalidAmount，实际: %v", err)
	}
}
