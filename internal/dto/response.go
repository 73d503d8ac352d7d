package dto

// ── 通用响应 ──

// DateLayout 对外日期格式（ISO-8601 日期）
const DateLayout = "2006-01-02"

// TimeLayout 对外时间戳格式
const TimeLayout = "2006-01-02T15:04:05Z"

// AuditOutcome 审计写入结果（副作用）
// 审计失败不影响主操作，但在响应中如实报告
type AuditOutcome struct {
	Recorded bool   `json:"recorded"`
	Error    string `json:"error,omitempty"`
}

// BulkRowError 批量操作中单行失败详情
type BulkRowError struct {
	Index     int    `json:"index"`
	StudentID string `json:"student_id,omitempty"`
	Error     string `json:"error"`
}

// BulkResult 批量操作结果：逐行独立写入，部分失败不回滚
type BulkResult struct {
	Requested int            `json:"requested"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Errors    []BulkRowError `json:"errors,omitempty"`
}

// AddFailure 记录一行失败
func (b *BulkResult) AddFailure(index int, studentID string, err error) {
	b.Failed++
	b.Errors = append(b.Errors, BulkRowError{Index: index, StudentID: studentID, Error: err.Error()})
}

// ── 分页请求 ──

// PaginationRequest 通用分页参数
type PaginationRequest struct {
	Page     int `form:"page"      binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// GetPage 获取页码（含默认值）
func (p *PaginationRequest) GetPage() int {
	if p.Page <= 0 {
		return 1
	}
	return p.Page
}

// GetPageSize 获取每页数量（含默认值）
func (p *PaginationRequest) GetPageSize() int {
	if p.PageSize <= 0 {
		return 20
	}
	return p.PageSize
}

// GetOffset 计算偏移量
func (p *PaginationRequest) GetOffset() int {
	return (p.GetPage() - 1) * p.GetPageSize()
}
