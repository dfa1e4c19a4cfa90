package controllers

import (
	"fmt"
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

// RequestController handles teacher leave/makeup request endpoints
type RequestController struct {
	requestService *services.RequestService
}

// NewRequestController creates a new RequestController
func NewRequestController(requestService *services.RequestService) *RequestController {
	return &RequestController{
		requestService: requestService,
	}
}

// Submit files a new leave or makeup request
// @Summary Submit a request
// @Description Files a leave or makeup request for one of the caller's class occurrences
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.SubmitRequestRequest true "Request"
// @Success 201 {object} dto.APIResponse{data=models.TeacherRequest} "Request created"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 403 {object} dto.ErrorResponse "Class belongs to another teacher"
// @Failure 404 {object} dto.ErrorResponse "Class or subject not found"
// @Router /requests [post]
func (c *RequestController) Submit(ctx *gin.Context) {
	var req dto.SubmitRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(middleware.BindError(err)))
		return
	}

	teacherID, ok := requireTeacher(ctx)
	if !ok {
		return
	}

	draft, err := toTeacherRequest(&req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	created, err := c.requestService.Submit(ctx, teacherID, draft)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusCreated, dto.APIResponse{
		Data:      created,
		Timestamp: time.Now(),
	})
}

// ListMine returns the caller's requests
// @Summary List my requests
// @Description Returns the caller's requests, optionally filtered by status
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param status query string false "Filter by status" Enums(pending, approved, rejected)
// @Success 200 {object} dto.APIResponse{data=[]models.TeacherRequest} "Requests"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /requests [get]
func (c *RequestController) ListMine(ctx *gin.Context) {
	teacherID, ok := requireTeacher(ctx)
	if !ok {
		return
	}

	var status *models.RequestStatus
	if raw := ctx.Query("status"); raw != "" {
		s := models.RequestStatus(raw)
		switch s {
		case models.RequestPending, models.RequestApproved, models.RequestRejected:
			status = &s
		default:
			ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "status must be pending, approved or rejected").WithField("status")))
			return
		}
	}

	requests, err := c.requestService.ListForTeacher(ctx, teacherID, status)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      requests,
		Timestamp: time.Now(),
	})
}

// Get returns one request
// @Summary Get a request
// @Description Returns a single request. Teachers see only their own, admins see any
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} dto.APIResponse{data=models.TeacherRequest} "Request"
// @Failure 403 {object} dto.ErrorResponse "Request belongs to another teacher"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Router /requests/{id} [get]
func (c *RequestController) Get(ctx *gin.Context) {
	id, ok := requestIDParam(ctx)
	if !ok {
		return
	}

	adminView := middleware.Role(ctx) == string(models.RoleAdmin)
	var teacherID int64
	if !adminView {
		teacherID, ok = requireTeacher(ctx)
		if !ok {
			return
		}
	}

	request, err := c.requestService.Get(ctx, id, teacherID, adminView)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      request,
		Timestamp: time.Now(),
	})
}

// Edit rewrites a pending request
// @Summary Edit a request
// @Description Replaces the payload of one of the caller's still-pending requests
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body dto.SubmitRequestRequest true "New payload"
// @Success 200 {object} dto.APIResponse{data=models.TeacherRequest} "Updated request"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request already decided"
// @Router /requests/{id} [put]
func (c *RequestController) Edit(ctx *gin.Context) {
	id, ok := requestIDParam(ctx)
	if !ok {
		return
	}
	teacherID, ok := requireTeacher(ctx)
	if !ok {
		return
	}

	var req dto.SubmitRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(middleware.BindError(err)))
		return
	}

	draft, err := toTeacherRequest(&req)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, err.Error())))
		return
	}

	updated, err := c.requestService.Edit(ctx, teacherID, id, draft)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      updated,
		Timestamp: time.Now(),
	})
}

// Delete withdraws a pending request
// @Summary Delete a request
// @Description Withdraws one of the caller's still-pending requests
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Success 200 {object} dto.APIResponse{data=dto.SuccessResponse} "Request deleted"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request already decided"
// @Router /requests/{id} [delete]
func (c *RequestController) Delete(ctx *gin.Context) {
	id, ok := requestIDParam(ctx)
	if !ok {
		return
	}
	teacherID, ok := requireTeacher(ctx)
	if !ok {
		return
	}

	if err := c.requestService.Delete(ctx, teacherID, id); err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      dto.SuccessResponse{Message: "Request deleted successfully"},
		Timestamp: time.Now(),
	})
}

// ListSubjects returns every subject
// @Summary List subjects
// @Description Returns all subjects, for picking one on a request
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.Subject} "Subjects"
// @Failure 401 {object} dto.ErrorResponse "Unauthorized"
// @Router /subjects [get]
func (c *RequestController) ListSubjects(ctx *gin.Context) {
	subjects, err := c.requestService.Subjects(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      subjects,
		Timestamp: time.Now(),
	})
}

// ListPending returns every undecided request
// @Summary List pending requests
// @Description Returns every request still awaiting an admin decision
// @Tags requests
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=[]models.TeacherRequest} "Pending requests"
// @Failure 403 {object} dto.ErrorResponse "Admin role required"
// @Router /admin/requests [get]
func (c *RequestController) ListPending(ctx *gin.Context) {
	requests, err := c.requestService.ListPending(ctx)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      requests,
		Timestamp: time.Now(),
	})
}

// Decide approves or rejects a pending request
// @Summary Decide a request
// @Description Approves or rejects a pending request. The decision is final
// @Tags requests
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Request ID"
// @Param request body dto.DecideRequestRequest true "Decision"
// @Success 200 {object} dto.APIResponse{data=models.TeacherRequest} "Decided request"
// @Failure 400 {object} dto.ErrorResponse "Invalid request data"
// @Failure 404 {object} dto.ErrorResponse "Request not found"
// @Failure 409 {object} dto.ErrorResponse "Request already decided"
// @Router /admin/requests/{id}/decision [put]
func (c *RequestController) Decide(ctx *gin.Context) {
	id, ok := requestIDParam(ctx)
	if !ok {
		return
	}

	var req dto.DecideRequestRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(middleware.BindError(err)))
		return
	}

	adminUserID, ok := middleware.UserID(ctx)
	if !ok {
		ctx.JSON(http.StatusUnauthorized, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeUnauthorized, "User identity not found in token")))
		return
	}

	approve := req.Status == string(models.RequestApproved)
	decided, err := c.requestService.Decide(ctx, adminUserID, id, approve, req.AdminNote)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	ctx.JSON(http.StatusOK, dto.APIResponse{
		Data:      decided,
		Timestamp: time.Now(),
	})
}

func requestIDParam(ctx *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(ctx.Param("id"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeValidationFailed, "Request ID must be a valid number").WithField("id")))
		return 0, false
	}
	return id, true
}

func requireTeacher(ctx *gin.Context) (int64, bool) {
	teacherID, ok := middleware.TeacherID(ctx)
	if !ok {
		ctx.JSON(http.StatusForbidden, dto.NewErrorResponse(
			dto.NewErrorDetail(dto.ErrorCodeForbidden, "User has no teacher profile")))
		return 0, false
	}
	return teacherID, true
}

// toTeacherRequest converts the wire payload, parsing the string dates.
// Field presence is checked downstream; only syntax fails here.
func toTeacherRequest(req *dto.SubmitRequestRequest) (*models.TeacherRequest, error) {
	out := &models.TeacherRequest{
		RequestType: models.RequestType(req.RequestType),
		Reason:      req.Reason,
		SubjectID:   req.SubjectID,

		ClassID:   req.ClassID,
		StartTime: req.StartTime,
		EndTime:   req.EndTime,

		OriginalClassID:   req.OriginalClassID,
		OriginalStartTime: req.OriginalStartTime,
		OriginalEndTime:   req.OriginalEndTime,

		MakeupClassID:   req.MakeupClassID,
		MakeupStartTime: req.MakeupStartTime,
		MakeupEndTime:   req.MakeupEndTime,
	}

	var err error
	if out.RequestDate, err = parseDatePtr(req.RequestDate, "requestDate"); err != nil {
		return nil, err
	}
	if out.OriginalDate, err = parseDatePtr(req.OriginalDate, "originalDate"); err != nil {
		return nil, err
	}
	if out.MakeupDate, err = parseDatePtr(req.MakeupDate, "makeupDate"); err != nil {
		return nil, err
	}
	return out, nil
}

func parseDatePtr(raw *string, field string) (*time.Time, error) {
	if raw == nil {
		return nil, nil
	}
	date, err := helpers.ParseDate(*raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", field, err)
	}
	return &date, nil
}
