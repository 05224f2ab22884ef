package router

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"proyecto-fct/backend/config"
	"proyecto-fct/backend/internal/api/handler"
	"proyecto-fct/backend/internal/api/middleware"
	"proyecto-fct/backend/internal/model"
	"proyecto-fct/backend/pkg/jwt"
	"proyecto-fct/backend/pkg/redis"
)

// Setup 初始化并返回 Gin 路由引擎，rdb 为 nil 时跳过黑名单与限流
func Setup(cfg *config.Config, h *handler.Handler, jwtMgr *jwt.Manager, rdb *redis.Client, logger *zap.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	// ── 全局中间件 ──
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.SecurityHeaders())
	r.Use(middleware.CORS(cfg.Server.CORS.AllowOrigins))
	r.Use(middleware.BodyLimit(cfg.Server.BodyLimitMB << 20))
	if cfg.Metrics.Enabled {
		r.Use(middleware.Metrics())
		r.GET(cfg.Metrics.Path, gin.WrapH(promhttp.Handler()))
	}

	// ── 健康检查 ──
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	staff := middleware.RoleAuth(model.RoleAdmin, model.RoleTutor)
	adminOnly := middleware.RoleAuth(model.RoleAdmin)
	loginLimit := middleware.RateLimit(rdb, cfg.Auth.LoginRateLimit, cfg.Auth.LoginRateWindow)

	// ── API v1 ──
	v1 := r.Group("/api/v1")
	{
		// 认证模块（无需认证）
		auth := v1.Group("/auth")
		{
			auth.POST("/login", loginLimit, h.Auth.Login)
			auth.POST("/register", loginLimit, h.Auth.Register)
			auth.POST("/refresh", h.Auth.RefreshToken)
		}

		// 需要认证的路由
		authorized := v1.Group("")
		authorized.Use(middleware.JWTAuth(jwtMgr, rdb))
		{
			authorized.POST("/auth/logout", h.Auth.Logout)
			authorized.GET("/auth/me", h.Auth.GetCurrentUser)

			// 用户模块
			users := authorized.Group("/users")
			{
				users.GET("", staff, h.User.ListUsers)
				users.GET("/:id", staff, h.User.GetUser)
				users.POST("", adminOnly, h.User.CreateUser)
				users.PUT("/:id", h.User.UpdateUser) // admin 或本人（Service 层鉴权）
				users.DELETE("/:id", adminOnly, h.User.DeleteUser)
				users.POST("/:id/reset-password", adminOnly, h.User.ResetPassword)
				users.POST("/import", adminOnly, h.User.ImportStudents)
			}

			// 预项目模块（实体级权限在 Service 层判断）
			anteprojects := authorized.Group("/anteprojects")
			{
				anteprojects.GET("", h.Anteproject.List)
				anteprojects.POST("", h.Anteproject.Create)
				anteprojects.GET("/:id", h.Anteproject.Get)
				anteprojects.PUT("/:id", h.Anteproject.Update)
				anteprojects.DELETE("/:id", h.Anteproject.Delete)
				anteprojects.POST("/:id/submit", h.Anteproject.Submit)
				anteprojects.POST("/:id/review", h.Anteproject.Review)
				anteprojects.POST("/:id/approve", h.Anteproject.Approve)
				anteprojects.POST("/:id/reject", h.Anteproject.Reject)
				anteprojects.POST("/:id/schedule-defense", h.Anteproject.ScheduleDefense)
				anteprojects.POST("/:id/complete-defense", h.Anteproject.CompleteDefense)
				anteprojects.GET("/:id/evaluations", h.Anteproject.ListEvaluations)
				anteprojects.PUT("/:id/evaluations", h.Anteproject.SaveEvaluations)
			}
			authorized.GET("/evaluation-criteria", h.Anteproject.ListCriteria)

			// 项目模块
			projects := authorized.Group("/projects")
			{
				projects.GET("", h.Project.List)
				projects.POST("", staff, h.Project.Create)
				projects.GET("/:id", h.Project.Get)
				projects.PUT("/:id", h.Project.Update)
				projects.DELETE("/:id", staff, h.Project.Delete)
				projects.POST("/:id/students", staff, h.Project.AddStudent)
				projects.DELETE("/:id/students/:studentId", staff, h.Project.RemoveStudent)
				projects.GET("/:id/milestones", h.Project.ListMilestones)
				projects.POST("/:id/milestones", h.Project.CreateMilestone)
				projects.GET("/:id/tasks", h.Task.ListByProject)
				projects.GET("/:id/kanban", h.Task.Kanban)
			}

			// 任务模块
			tasks := authorized.Group("/tasks")
			{
				tasks.POST("", h.Task.Create)
				tasks.GET("/:id", h.Task.Get)
				tasks.PUT("/:id", h.Task.Update)
				tasks.DELETE("/:id", h.Task.Delete)
				tasks.PUT("/:id/move", h.Task.Move)
				tasks.POST("/:id/assignees", h.Task.Assign)
				tasks.DELETE("/:id/assignees/:userId", h.Task.Unassign)
				tasks.GET("/:id/comments", h.Task.ListComments)
				tasks.POST("/:id/comments", h.Task.CreateComment)
			}
			authorized.PUT("/comments/:id", h.Task.UpdateComment)
			authorized.DELETE("/comments/:id", h.Task.DeleteComment)

			// 附件模块
			files := authorized.Group("/files")
			{
				files.POST("", h.File.Upload)
				files.GET("", h.File.List)
				files.GET("/:id/download", h.File.Download)
			}

			// 通知模块
			notifications := authorized.Group("/notifications")
			{
				notifications.GET("", h.Notification.ListMine)
				notifications.PUT("/read-all", h.Notification.MarkAllRead)
				notifications.PUT("/:id/read", h.Notification.MarkRead)
			}

			// 审计与系统设置
			authorized.GET("/activity-logs", adminOnly, h.Admin.ListActivityLogs)
			settings := authorized.Group("/settings")
			{
				settings.GET("", h.Admin.ListSettings)
				settings.GET("/:key", h.Admin.GetSetting)
				settings.PUT("/:key", adminOnly, h.Admin.UpdateSetting)
			}

			// 导出模块
			export := authorized.Group("/export")
			{
				export.GET("/projects/:id/board", h.Export.ExportTaskBoard)
				export.GET("/defenses.ics", h.Export.ExportDefenseCalendar)
			}
		}
	}

	return r
}
