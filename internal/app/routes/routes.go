package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/minhvu/attendly/internal/app/controllers"
	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/app/models/dto"
	"github.com/minhvu/attendly/internal/middleware"
)

// SetupRouter configures all application routes
func SetupRouter(
	router *gin.Engine,
	authController *controllers.AuthController,
	scheduleController *controllers.ScheduleController,
	attendanceController *controllers.AttendanceController,
	requestController *controllers.RequestController,
	authMiddleware *middleware.AuthMiddleware,
) {
	// API version group
	v1 := router.Group("/api/v1")

	// --- Public Auth routes ---
	auth := v1.Group("/auth")
	{
		auth.POST("/login", authController.Login)
	}

	// --- Authenticated Routes Group ---
	authenticated := v1.Group("")
	authenticated.Use(authMiddleware.JWTAuth())
	{
		authenticated.GET("/auth/profile", authController.GetProfile)

		// Schedule routes - resolved day views and single-occurrence verdicts
		schedule := authenticated.Group("/schedule")
		{
			schedule.GET("/me", scheduleController.GetMySchedule)
			schedule.GET("/classes/:id/resolve", scheduleController.ResolveOccurrence)
		}

		// Attendance routes
		attendance := authenticated.Group("/attendance")
		{
			// Check-in is open to every authenticated role; students are
			// pinned to their own identity inside the controller.
			attendance.POST("/check-in", attendanceController.CheckIn)

			// Staff-only session management
			attendanceStaff := attendance.Group("")
			attendanceStaff.Use(authMiddleware.RoleRequired(string(models.RoleTeacher), string(models.RoleAdmin)))
			{
				attendanceStaff.POST("/sessions", attendanceController.CreateSession)
				attendanceStaff.GET("/sessions/:id", attendanceController.GetSessionRoster)
				attendanceStaff.POST("/mark", attendanceController.MarkAttendance)
			}
		}

		// Class-scoped attendance views
		classes := authenticated.Group("/classes")
		{
			classesStudent := classes.Group("")
			classesStudent.Use(authMiddleware.RoleRequired(string(models.RoleStudent)))
			{
				classesStudent.GET("/:id/attendance/me", attendanceController.GetMyAttendance)
			}

			classesStaff := classes.Group("")
			classesStaff.Use(authMiddleware.RoleRequired(string(models.RoleTeacher), string(models.RoleAdmin)))
			{
				classesStaff.GET("/:id/attendance/statistics", attendanceController.GetStatistics)
			}
		}

		authenticated.GET("/subjects", requestController.ListSubjects)

		// Teacher request routes
		requests := authenticated.Group("/requests")
		{
			requests.GET("/:id", requestController.Get)

			requestsTeacher := requests.Group("")
			requestsTeacher.Use(authMiddleware.RoleRequired(string(models.RoleTeacher)))
			{
				requestsTeacher.POST("", requestController.Submit)
				requestsTeacher.GET("", requestController.ListMine)
				requestsTeacher.PUT("/:id", requestController.Edit)
				requestsTeacher.DELETE("/:id", requestController.Delete)
			}
		}

		// Admin decision routes
		admin := authenticated.Group("/admin")
		admin.Use(authMiddleware.RoleRequired(string(models.RoleAdmin)))
		{
			admin.GET("/requests", requestController.ListPending)
			admin.PUT("/requests/:id/decision", requestController.Decide)
		}
	}

	// Health check endpoint (public)
	v1.GET("/health", func(c *gin.Context) {
		c.JSON(200, dto.APIResponse{
			Data: gin.H{"status": "ok"},
		})
	})
}
