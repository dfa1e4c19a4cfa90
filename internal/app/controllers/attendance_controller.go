package controllers

import (
	"io"
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

// maxImageSize caps uploaded check-in images at 8 MiB
const maxImageSize = 8 << 20

// AttendanceController handles attendance endpoints
type AttendanceController struct {
	attendanceService *services.AttendanceService
}

// NewAttendanceController creates a new AttendanceController
func NewAttendanceController(attendanceService *services.AttendanceService) *AttendanceController {
	return &AttendanceController{
		attendanceService: attendanceService,
	}
}

// actingTeacherID returns the ownership scope for the caller: the
// teacher's profile ID, or nil for an admin
func actingTeacherID(ctx *gin.Context) (*int64, bool) {
	if middleware.Role(ctx) == string(models.RoleAdmin) {
		return nil, true
	}
	teacherID, ok := middleware.TeacherID(ctx)
	if !ok {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no teacher profile")))
		return nil, false
	}
	return &teacherID, true
}

// CheckIn runs the recognition-gated check-in
// @Summary Check in by face
// @Description Identifies the student on the uploaded image and records their attendance for the class session running now
// @Tags attendance
// @Accept mpfd
// @Produce json
// @Security BearerAuth
// @Param classId formData int true "Class ID"
// @Param image formData file true "Face image"
// @Success 201 {object} dto.APIResponse{data=services.CheckInResult} "Check-in recorded"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Failure 403 {object} dto.ErrorResponse "Student not enrolled"
// @Failure 409 {object} dto.ErrorResponse "Already checked in"
// @Failure 422 {object} dto.ErrorResponse "No match, identity mismatch, or nothing scheduled"
// @Failure 504 {object} dto.ErrorResponse "Recognition timed out"
// @Router /attendance/check-in [post]
func (c *AttendanceController) CheckIn(ctx *gin.Context) {
	classID, err := strconv.ParseInt(ctx.PostForm("classId"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "classId must be a valid number").WithField("classId")))
		return
	}

	file, _, err := ctx.Request.FormFile("image")
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "image file is required").WithField("image")))
		return
	}
	defer file.Close()

	image, err := io.ReadAll(io.LimitReader(file, maxImageSize+1))
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "could not read image").WithField("image")))
		return
	}
	if len(image) > maxImageSize {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "image exceeds the size limit").WithField("image")))
		return
	}

	// students may only check themselves in
	var actorStudentID *int64
	if middleware.Role(ctx) == string(models.RoleStudent) {
		studentID, ok := middleware.StudentID(ctx)
		if !ok {
			ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no student profile")))
			return
		}
		actorStudentID = &studentID
	}

	result, err := c.attendanceService.CheckIn(ctx, classID, image, actorStudentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      result,
		Timestamp: time.Now(),
	})
}

// CreateSession opens (or returns) the session for an occurrence
// @Summary Open a session
// @Description Returns the attendance session for an occurrence, creating it when absent
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateSessionRequest true "Occurrence"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceSession} "Session"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 422 {object} dto.ErrorResponse "Occurrence is cancelled"
// @Router /attendance/sessions [post]
func (c *AttendanceController) CreateSession(ctx *gin.Context) {
	var req dto.CreateSessionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(middleware.BindError(err)))
		return
	}

	date, startTime, endTime, ok := parseOccurrenceFields(ctx, req.Date, req.StartTime, req.EndTime)
	if !ok {
		return
	}

	var createdBy *int64
	if userID, ok := middleware.UserID(ctx); ok {
		createdBy = &userID
	}

	session, err := c.attendanceService.GetOrCreateSession(ctx, req.ClassID, date, startTime, endTime, createdBy)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      session,
		Timestamp: time.Now(),
	})
}

// MarkAttendance sets a student's status by hand
// @Summary Mark attendance manually
// @Description Sets a student's status for an occurrence outright, overwriting any existing record
// @Tags attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.MarkAttendanceRequest true "Marking"
// @Success 200 {object} dto.APIResponse{data=models.AttendanceRecord} "Record written"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Not the class's teacher"
// @Failure 422 {object} dto.ErrorResponse "Occurrence is cancelled"
// @Router /attendance/mark [post]
func (c *AttendanceController) MarkAttendance(ctx *gin.Context) {
	var req dto.MarkAttendanceRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(middleware.BindError(err)))
		return
	}

	date, startTime, endTime, ok := parseOccurrenceFields(ctx, req.Date, req.StartTime, req.EndTime)
	if !ok {
		return
	}
	teacherID, ok := actingTeacherID(ctx)
	if !ok {
		return
	}

	record, err := c.attendanceService.MarkAttendance(ctx, teacherID, req.ClassID, date, startTime, endTime, req.StudentID, models.AttendanceStatus(req.Status))
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      record,
		Timestamp: time.Now(),
	})
}

// GetSessionRoster returns a session's per-student outcomes
// @Summary Get a session roster
// @Description Returns every enrolled student with their recorded status, deriving absences
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Session ID"
// @Success 200 {object} dto.APIResponse{data=services.SessionRoster} "Roster"
// @Failure 403 {object} dto.ErrorResponse "Not the class's teacher"
// @Failure 404 {object} dto.ErrorResponse "Session not found"
// @Router /attendance/sessions/{id} [get]
func (c *AttendanceController) GetSessionRoster(ctx *gin.Context) {
	sessionID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Session ID must be a valid number").WithField("id")))
		return
	}
	teacherID, ok := actingTeacherID(ctx)
	if !ok {
		return
	}

	roster, err := c.attendanceService.ClassAttendance(ctx, sessionID, teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      roster,
		Timestamp: time.Now(),
	})
}

// GetMyAttendance returns the calling student's history in a class
// @Summary Get my attendance history
// @Description Returns the caller's outcome for every session of the class, deriving absences
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse{data=[]services.SessionOutcome} "History"
// @Failure 403 {object} dto.ErrorResponse "Not enrolled"
// @Router /classes/{id}/attendance/me [get]
func (c *AttendanceController) GetMyAttendance(ctx *gin.Context) {
	classID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Class ID must be a valid number").WithField("id")))
		return
	}

	studentID, ok := middleware.StudentID(ctx)
	if !ok {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no student profile")))
		return
	}

	outcomes, err := c.attendanceService.StudentAttendance(ctx, classID, studentID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      outcomes,
		Timestamp: time.Now(),
	})
}

// GetStatistics returns a class's attendance summary
// @Summary Get class statistics
// @Description Tallies present/late/absent across every session of the class
// @Tags attendance
// @Produce json
// @Security BearerAuth
// @Param id path int true "Class ID"
// @Success 200 {object} dto.APIResponse{data=services.ClassStatistics} "Statistics"
// @Failure 403 {object} dto.ErrorResponse "Not the class's teacher"
// @Failure 404 {object} dto.ErrorResponse "Class not found"
// @Router /classes/{id}/attendance/statistics [get]
func (c *AttendanceController) GetStatistics(ctx *gin.Context) {
	classID, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Class ID must be a valid number").WithField("id")))
		return
	}
	teacherID, ok := actingTeacherID(ctx)
	if !ok {
		return
	}

	stats, err := c.attendanceService.AttendanceStatistics(ctx, classID, teacherID)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      stats,
		Timestamp: time.Now(),
	})
}

// parseOccurrenceFields validates the shared occurrence fields of the
// attendance payloads
func parseOccurrenceFields(ctx *gin.Context, dateStr, startStr, endStr string) (time.Time, string, string, bool) {
	date, err := helpers.ParseDate(dateStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("date")))
		return time.Time{}, "", "", false
	}
	startTime, err := helpers.NormalizeClock(startStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("startTime")))
		return time.Time{}, "", "", false
	}
	endTime, err := helpers.NormalizeClock(endStr)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error()).WithField("endTime")))
		return time.Time{}, "", "", false
	}
	return date, startTime, endTime, true
}
