package router

import (
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"campus-attend/backend/config"
	"campus-attend/backend/internal/api/handler"
	"campus-attend/backend/internal/api/middleware"
	"campus-attend/backend/internal/model"
	"campus-attend/backend/pkg/jwt"
	"campus-attend/backend/pkg/redis"
)

// 打卡接口限流：每 IP 每分钟
const (
	checkInRateLimit  = 60
	checkInRateWindow = time.Minute
)

// Setup 初始化并返回 Gin 路由引擎
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(1 << 20))

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", h.Auth.Login)
			auth.POST("/refresh", h.Auth.Refresh)
		}

		// 刷卡打卡：刷卡端无登录态，仅限流
		v1.POST("/checkin",
			middleware.RateLimit(rdb, checkInRateLimit, checkInRateWindow),
			h.Attendance.CheckIn)

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)

			// 学生档案：技术支持维护，辅导员/系主任可查
			students := authorized.Group("/students")
			{
				students.GET("", middleware.RoleAuth(model.RoleCounselor, model.RoleDirector, model.RoleAdmin), h.Student.List)
				students.GET("/:id", middleware.RoleAuth(model.RoleCounselor, model.RoleDirector, model.RoleAdmin), h.Student.Get)
				students.POST("", middleware.RoleAuth(model.RoleAdmin), h.Student.Create)
				students.PUT("/:id", middleware.RoleAuth(model.RoleAdmin), h.Student.Update)
				students.DELETE("/:id", middleware.RoleAuth(model.RoleAdmin), h.Student.Delete)
			}

			// 考勤改判与批量提交
			attendance := authorized.Group("/attendance")
			{
				attendance.PUT("/status", middleware.RoleAuth(model.RoleCounselor, model.RoleAdmin), h.Attendance.SetStatus)
				attendance.POST("/bulk", middleware.RoleAuth(model.RoleMonitor), h.Attendance.BulkSubmit)
			}

			// 点名册与停课
			journal := authorized.Group("/journal")
			{
				journal.GET("/day", middleware.RoleAuth(model.RoleMonitor, model.RoleCounselor, model.RoleDirector, model.RoleAdmin), h.Journal.GetDayView)
				journal.GET("/my-week", middleware.RoleAuth(model.RoleStudent), h.Journal.GetMyWeek)
				journal.POST("/skip", middleware.RoleAuth(model.RoleCounselor, model.RoleAdmin), h.Journal.ToggleSkip)
				journal.POST("/holidays", middleware.RoleAuth(model.RoleCounselor, model.RoleAdmin), h.Journal.ImportHolidays)
			}

			// 区间统计、明细与导出
			reports := authorized.Group("/reports")
			reports.Use(middleware.RoleAuth(model.RoleCounselor, model.RoleDirector, model.RoleAdmin))
			{
				reports.GET("/range", h.Report.GetRangeStats)
				reports.GET("/group", h.Report.GetGroupReport)
				reports.GET("/group/export", h.Export.ExportGroupReport)
			}
		}
	}

	return r
}
