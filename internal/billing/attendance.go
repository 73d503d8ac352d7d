// Package billing 食堂计费引擎：纯计算，不依赖任何数据库客户端。
//
// 数据流：考勤 → 人天(Mandays) → 结合支出池得出日单价 → 学生账单 → Mando 预算分摊；
// 收费台账以账单 FinalAmount 为起点独立演进。
package billing

import (
	"fmt"
	"time"
)

// Code 考勤代码
type Code string

const (
	CodePresent Code = "P"  // 在餐，始终计费
	CodeLeave   Code = "L"  // 请假，按请假策略决定是否计费
	CodeCN      Code = "CN" // 以下三类从不计费
	CodeV       Code = "V"
	CodeC       Code = "C"
)

// ParseCode 校验考勤代码
func ParseCode(s string) (Code, error) {
	switch c := Code(s); c {
	case CodePresent, CodeLeave, CodeCN, CodeV, CodeC:
		return c, nil
	default:
		return "", fmt.Errorf("未知考勤代码 %q", s)
	}
}

// LeavePolicy 请假计费策略
type LeavePolicy string

const (
	LeaveCharged    LeavePolicy = "CHARGED"
	LeaveNotCharged LeavePolicy = "NOT_CHARGED"
)

// ParseLeavePolicy 校验请假策略
func ParseLeavePolicy(s string) (LeavePolicy, error) {
	switch p := LeavePolicy(s); p {
	case LeaveCharged, LeaveNotCharged:
		return p, nil
	default:
		return "", fmt.Errorf("未知请假策略 %q", s)
	}
}

// Mark 单日考勤；Code 为 nil 表示该格已清空
type Mark struct {
	Date time.Time
	Code *Code
}

// Chargeable 判断单个考勤代码在指定策略下是否计为一个人天
func Chargeable(code Code, policy LeavePolicy) bool {
	switch code {
	case CodePresent:
		return true
	case CodeLeave:
		return policy == LeaveCharged
	default:
		return false
	}
}

// Mandays 统计一名学生在周期内的计费人天
// 调用方保证同一日期不重复（由 (student_id, date) 唯一键保证）
func Mandays(marks []Mark, policy LeavePolicy) int {
	n := 0
	for _, m := range marks {
		if m.Code != nil && Chargeable(*m.Code, policy) {
			n++
		}
	}
	return n
}

// WithinStay 判断日期是否在学生在住期间（退宿日当天仍计入）
func WithinStay(date time.Time, leaveDate *time.Time) bool {
	if leaveDate == nil {
		return true
	}
	return !date.After(*leaveDate)
}
