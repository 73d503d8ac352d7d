package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hostel-mess/backend/config"
	"hostel-mess/backend/internal/api/handler"
	"hostel-mess/backend/internal/api/middleware"
	"hostel-mess/backend/pkg/jwt"
	"hostel-mess/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎
// rdb 为 nil 时写接口不限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.BodyLimit(cfg.Server.MaxBodyBytes))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	const (
		admin      = jwt.RoleAdmin
		warden     = jwt.RoleWarden
		accountant = jwt.RoleAccountant
	)
	limit := middleware.RateLimit(rdb, cfg.RateLimit.Requests, cfg.RateLimit.Window, logger)

	// ── API v1（全部需要认证）──
	v1 := r.Group("/api/v1")
	v1.Use(middleware.JWTAuth(jwtMgr))
	{
		// 学期模块
		semesters := v1.Group("/semesters")
		{
			semesters.GET("", h.Semester.ListSemesters)
			semesters.GET("/current", h.Semester.GetCurrentSemester)
			semesters.GET("/:id", h.Semester.GetSemester)
			semesters.POST("", middleware.RoleAuth(admin), limit, h.Semester.CreateSemester)
			semesters.PUT("/:id/activate", middleware.RoleAuth(admin), limit, h.Semester.ActivateSemester)
		}

		// 学生模块（只读 + 退宿）
		students := v1.Group("/students")
		{
			students.GET("", h.Student.ListStudents)
			students.PUT("/:id/vacate", middleware.RoleAuth(admin, warden), limit, h.Student.VacateStudent)
		}

		// 考勤模块
		attendance := v1.Group("/attendance")
		{
			attendance.GET("", h.Attendance.ListAttendance)
			attendance.GET("/mandays", h.Attendance.GetMandays)
			attendance.PUT("", middleware.RoleAuth(admin, warden), limit, h.Attendance.MarkAttendance)
			attendance.PUT("/meals", middleware.RoleAuth(admin, warden), limit, h.Attendance.RecordMeal)
			attendance.POST("/bulk", middleware.RoleAuth(admin, warden), limit, h.Attendance.BulkMark)
		}

		// 支出模块
		expenses := v1.Group("/expenses")
		{
			expenses.GET("", h.Expense.ListExpenses)
			expenses.GET("/pool", h.Expense.GetPool)
			expenses.POST("", middleware.RoleAuth(admin, accountant), limit, h.Expense.CreateExpense)
		}

		// 单价模块
		rates := v1.Group("/rates")
		{
			rates.GET("/per-day", h.Rate.GetPerDayRate)
			rates.GET("/monthly", h.Rate.ListMonthlyRates)
			rates.PUT("/monthly", middleware.RoleAuth(admin, accountant), limit, h.Rate.SetMonthlyRate)
		}

		// 计费模块
		billing := v1.Group("/billing")
		{
			billing.POST("/semester", middleware.RoleAuth(admin, accountant), limit, h.Billing.RunSemester)
			billing.GET("/semester/:semester_id", h.Billing.ListSemesterBills)
			billing.POST("/monthly", middleware.RoleAuth(admin, accountant), limit, h.Billing.RunMonthly)
			billing.GET("/monthly", h.Billing.ListMonthly)
		}

		// Mando 预算模块
		mando := v1.Group("/mando")
		{
			mando.GET("/budget", h.Mando.GetBudget)
			mando.PUT("/budget", middleware.RoleAuth(admin), limit, h.Mando.UpdateBudget)
			mando.GET("/allocation", h.Mando.GetAllocation)
		}

		// 收费台账模块
		fees := v1.Group("/fees")
		{
			fees.GET("", middleware.RoleAuth(admin, accountant), h.Fee.ListFees)
			fees.POST("/payments", middleware.RoleAuth(admin, accountant), limit, h.Fee.RecordPayment)
			fees.PUT("/:student_id/:semester_id/unpaid", middleware.RoleAuth(admin, accountant), limit, h.Fee.MarkUnpaid)
			fees.PUT("/:student_id/:semester_id/balance", middleware.RoleAuth(admin, accountant), limit, h.Fee.OverrideBalance)
		}

		// 审计日志
		v1.GET("/audit-logs", middleware.RoleAuth(admin), h.Audit.ListAuditLogs)

		// 导出模块
		export := v1.Group("/export")
		{
			export.GET("/bills", middleware.RoleAuth(admin, accountant), h.Export.ExportBills)
		}
	}

	return r
}
