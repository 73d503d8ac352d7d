package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"hostel-mess/backend/internal/repository"
	pkgerrors "hostel-mess/backend/pkg/errors"
)

// ── 导出模块业务错误 ──

var (
	ErrExportNoBills      = fmt.Errorf("%w: 该学期尚未生成账单", pkgerrors.ErrNotFound)
	ErrExportGenerateFail = errors.New("生成 Excel 文件失败")
)

// ExportService 导出业务接口
//
// 导出以 bytes.Buffer 返回，由 Handler 层设置响应头后写入 Response。
// Excel 含两个 Sheet：学生账单明细、Mando 预算汇总。
type ExportService interface {
	ExportBills(ctx context.Context, semesterID string) (*bytes.Buffer, string, error)
}

type exportService struct {
	repo   *repository.Repository
	mando  *mandoService
	logger *zap.Logger
}

// NewExportService 创建 ExportService 实例
func NewExportService(repo *repository.Repository, mando *mandoService, logger *zap.Logger) ExportService {
	return &exportService{repo: repo, mando: mando, logger: logger}
}

const (
	billSheet  = "账单"
	mandoSheet = "Mando"
)

func (s *exportService) ExportBills(ctx context.Context, semesterID string) (*bytes.Buffer, string, error) {
	semester, err := loadSemester(ctx, s.repo, semesterID)
	if err != nil {
		return nil, "", err
	}

	structures, err := s.repo.FeeStructure.ListBySemester(ctx, semesterID)
	if err != nil {
		s.logger.Error("查询学期账单失败", zap.Error(err))
		return nil, "", err
	}
	if len(structures) == 0 {
		return nil, "", ErrExportNoBills
	}

	alloc, err := s.mando.Allocation(ctx, semesterID)
	if err != nil {
		return nil, "", err
	}

	// 汇总信息可能缺失（例如只导入了账单），缺失时表头只写学期名
	run, err := s.repo.BillingRun.GetBySemester(ctx, semesterID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		s.logger.Error("查询计费汇总失败", zap.Error(err))
		return nil, "", err
	}

	f := excelize.NewFile()
	defer f.Close()

	idx, _ := f.NewSheet(billSheet)
	f.SetActiveSheet(idx)
	f.DeleteSheet("Sheet1")

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	// ── 账单明细 ──
	title := fmt.Sprintf("%s 伙食费账单", semester.Name)
	if run != nil {
		title = fmt.Sprintf("%s 伙食费账单（日单价 %s，总人天 %d）", semester.Name, run.PerDayRate.String(), run.TotalMandays)
	}
	headers := []string{"学号", "姓名", "宿舍", "人天", "日单价", "应计金额", "调整", "结转抵扣", "应收金额", "Mando"}

	f.SetCellValue(billSheet, "A1", title)
	f.MergeCell(billSheet, "A1", cell(colName(len(headers)-1), 1))
	f.SetCellStyle(billSheet, "A1", "A1", headerStyle)

	for i, h := range headers {
		f.SetCellValue(billSheet, cell(colName(i), 2), h)
	}
	f.SetCellStyle(billSheet, "A2", cell(colName(len(headers)-1), 2), headerStyle)
	f.SetColWidth(billSheet, "A", "A", 14)
	f.SetColWidth(billSheet, "B", "B", 20)

	row := 3
	for _, fs := range structures {
		rollNo, name, hostel := "", "", ""
		if fs.Student != nil {
			rollNo, name, hostel = fs.Student.RollNo, fs.Student.Name, fs.Student.Hostel
		}
		mando := "否"
		if fs.IsMando {
			mando = "是"
		}
		values := []interface{}{
			rollNo, name, hostel, fs.Mandays,
			fs.PerDayRate.InexactFloat64(),
			fs.GrossAmount.InexactFloat64(),
			fs.Adjustments.InexactFloat64(),
			fs.CarryForwardApplied.InexactFloat64(),
			fs.FinalAmount.InexactFloat64(),
			mando,
		}
		for i, v := range values {
			f.SetCellValue(billSheet, cell(colName(i), row), v)
		}
		row++
	}

	// ── Mando 汇总 ──
	f.NewSheet(mandoSheet)
	f.SetColWidth(mandoSheet, "A", "A", 16)
	f.SetColWidth(mandoSheet, "B", "D", 16)

	for i, h := range []string{"", "应计", "预算", "是否在预算内"} {
		f.SetCellValue(mandoSheet, cell(colName(i), 1), h)
	}
	f.SetCellStyle(mandoSheet, "A1", "D1", headerStyle)

	summary := [][]interface{}{
		{"男生宿舍", alloc.BoysCoverage.InexactFloat64(), alloc.Budget.BoysAmount.InexactFloat64(), yesNo(alloc.BoysWithin)},
		{"女生宿舍", alloc.GirlsCoverage.InexactFloat64(), alloc.Budget.GirlsAmount.InexactFloat64(), yesNo(alloc.GirlsWithin)},
		{"合计", alloc.TotalCoverage.InexactFloat64(), alloc.Budget.TotalAmount.InexactFloat64(), yesNo(alloc.TotalWithin)},
		{"餐次估算", alloc.MealEstimate.InexactFloat64(), fmt.Sprintf("%d 餐", alloc.MealCount), ""},
	}
	for r, values := range summary {
		for c, v := range values {
			f.SetCellValue(mandoSheet, cell(colName(c), r+2), v)
		}
	}

	buf := new(bytes.Buffer)
	if err := f.Write(buf); err != nil {
		s.logger.Error("写入 Excel 失败", zap.Error(err))
		return nil, "", ErrExportGenerateFail
	}

	filename := fmt.Sprintf("伙食费账单_%s.xlsx", semester.Name)
	return buf, filename, nil
}

// ── 辅助函数 ──

func colName(idx int) string {
	name, _ := excelize.ColumnNumberToName(idx + 1)
	return name
}

func cell(col string, row int) string {
	return fmt.Sprintf("%s%d", col, row)
}

func yesNo(b bool) string {
	if b {
		return "是"
	}
	return "否"
}
