package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/app/models/dto"
	"github.com/minhvu/attendly/internal/app/services"
	"github.com/minhvu/attendly/internal/middleware"
	"github.com/minhvu/attendly/internal/pkg/helpers"
)

// ScheduleController handles resolved-schedule endpoints
type ScheduleController struct {
	scheduleService *services.ScheduleService
}

// NewScheduleController creates a new ScheduleController
func NewScheduleController(scheduleService *services.ScheduleService) *ScheduleController {
	return &ScheduleController{
		scheduleService: scheduleService,
	}
}

// parseDateQuery reads the date query parameter, defaulting to today
func parseDateQuery(ctx *gin.Context) (time.Time, bool) {
	dateStr := ctx.Query("date")
	if dateStr == "" {
		return helpers.DateOnly(time.Now()), true
	}

	date, err := helpers.ParseDate(dateStr)
	if err != nil {
		errorDetail := dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("date")
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(errorDetail))
		return time.Time{}, false
	}
	return date, true
}

// GetMySchedule returns the caller's resolved schedule for a day
// @Summary Get my day schedule
// @Description Returns the caller's classes on a date, each annotated with its cancellation/relocation verdict, plus makeup occurrences landing that day
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), defaults to today"
// @Success 200 {object} dto.APIResponse{data=[]models.Occurrence} "Resolved day schedule"
// @Failure 400 {object} dto.ErrorResponse "Invalid date"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /schedule/me [get]
func (c *ScheduleController) GetMySchedule(ctx *gin.Context) {
	date, ok := parseDateQuery(ctx)
	if !ok {
		return
	}

	var occurrences []*models.Occurrence
	var err error
	switch middleware.Role(ctx) {
	case string(models.RoleStudent):
		studentID, ok := middleware.StudentID(ctx)
		if !ok {
			ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no student profile")))
			return
		}
		occurrences, err = c.scheduleService.DayScheduleForStudent(ctx, studentID, date)
	case string(models.RoleTeacher):
		teacherID, ok := middleware.TeacherID(ctx)
		if !ok {
			ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no teacher profile")))
			return
		}
		occurrences, err = c.scheduleService.DayScheduleForTeacher(ctx, teacherID, date)
	default:
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "Schedule views are for students and teachers")))
		return
	}
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      occurrences,
		Timestamp: time.Now(),
	})
}

// ResolveOccurrence classifies one concrete occurrence
// @Summary Resolve one occurrence
// @Description Returns the verdict for a single (class, date, interval) occurrence
// @Tags schedule
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Param date query string true "Date (YYYY-MM-DD)"
// @Param startTime query string true "Start time (HH:MM:SS)"
// @Param endTime query string true "End time (HH:MM:SS)"
// @Success 200 {object} dto.APIResponse{data=models.Verdict} "Verdict"
// @Failure 400 {object} dto.ErrorResponse "Invalid parameters"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /schedule/classes/{id}/resolve [get]
func (c *ScheduleController) ResolveOccurrence(ctx *gin.Context) {
	classID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Class ID must be a valid number").WithField("id")))
		return
	}

	date, err := helpers.ParseDate(ctx.Query("date"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("date")))
		return
	}
	startTime, err := helpers.NormalizeClock(ctx.Query("startTime"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("startTime")))
		return
	}
	endTime, err := helpers.NormalizeClock(ctx.Query("endTime"))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("endTime")))
		return
	}

	verdict, err := c.scheduleService.ResolveOccurrence(ctx, classID, date, startTime, endTime)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      verdict,
		Timestamp: time.Now(),
	})
}
