package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/cache"
	"github.com/minhvu/attendly/internal/pkg/helpers"
	"github.com/minhvu/attendly/internal/pkg/logger"
)

// RequestService handles the leave/makeup request workflow. Submission
// and editing validate the request against the live timetable; approval
// and rejection are terminal and flow into schedule resolution.
type RequestService struct {
	requestStore RequestStore
	classStore   ClassStore
	subjectStore SubjectStore
	cache        *cache.ScheduleCache
}

// NewRequestService creates a new request service. The cache may be
// nil, which disables invalidation.
func NewRequestService(requestStore RequestStore, classStore ClassStore, subjectStore SubjectStore, scheduleCache *cache.ScheduleCache) *RequestService {
	return &RequestService{
		requestStore: requestStore,
		classStore:   classStore,
		subjectStore: subjectStore,
		cache:        scheduleCache,
	}
}

// Submit validates and stores a new pending request for a teacher
func (s *RequestService) Submit(ctx context.Context, teacherID int64, req *models.TeacherRequest) (*models.TeacherRequest, error) {
	req.TeacherID = teacherID
	req.Status = models.RequestPending

	if err := s.validate(ctx, req); err != nil {
		return nil, err
	}

	if err := s.requestStore.Create(ctx, req); err != nil {
		return nil, fmt.Errorf("error submitting request: %w", err)
	}

	logger.Info().
		Int64("requestId", req.ID).
		Int64("teacherId", teacherID).
		Str("type", string(req.RequestType)).
		Msg("Request submitted")

	return req, nil
}

// Get retrieves one request. Teachers only see their own; adminView
// skips the ownership check.
func (s *RequestService) Get(ctx context.Context, id int64, actorTeacherID int64, adminView bool) (*models.TeacherRequest, error) {
	req, err := s.requestStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading request: %w", err)
	}
	if req == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotFound, "request not found")
	}
	if !adminView && req.TeacherID != actorTeacherID {
		return nil, apperrors.NewForbiddenError("request belongs to another teacher")
	}
	return req, nil
}

// ListForTeacher retrieves a teacher's own requests, optionally
// filtered by status
func (s *RequestService) ListForTeacher(ctx context.Context, teacherID int64, status *models.RequestStatus) ([]*models.TeacherRequest, error) {
	return s.requestStore.ListByTeacher(ctx, teacherID, status)
}

// ListPending retrieves every pending request for the admin queue
func (s *RequestService) ListPending(ctx context.Context) ([]*models.TeacherRequest, error) {
	return s.requestStore.ListByStatus(ctx, models.RequestPending)
}

// Subjects retrieves every subject, for the request submission form
func (s *RequestService) Subjects(ctx context.Context) ([]*models.Subject, error) {
	return s.subjectStore.List(ctx)
}

// Edit rewrites a pending request. Approved and rejected requests are
// frozen history and cannot change.
func (s *RequestService) Edit(ctx context.Context, teacherID, id int64, updated *models.TeacherRequest) (*models.TeacherRequest, error) {
	existing, err := s.Get(ctx, id, teacherID, false)
	if err != nil {
		return nil, err
	}
	if !existing.IsPending() {
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotPending, "only pending requests can be edited")
	}

	updated.ID = existing.ID
	updated.TeacherID = existing.TeacherID
	updated.RequestType = existing.RequestType
	updated.Status = existing.Status
	if err := s.validate(ctx, updated); err != nil {
		return nil, err
	}

	ok, err := s.requestStore.Update(ctx, updated)
	if err != nil {
		return nil, fmt.Errorf("error editing request: %w", err)
	}
	if !ok {
		// decided between our read and the write
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotPending, "only pending requests can be edited")
	}

	return s.requestStore.GetByID(ctx, id)
}

// Delete removes a pending request
func (s *RequestService) Delete(ctx context.Context, teacherID, id int64) error {
	existing, err := s.Get(ctx, id, teacherID, false)
	if err != nil {
		return err
	}
	if !existing.IsPending() {
		return apperrors.NewCustomError(apperrors.ErrRequestNotPending, "only pending requests can be deleted")
	}

	ok, err := s.requestStore.Delete(ctx, id)
	if err != nil {
		return fmt.Errorf("error deleting request: %w", err)
	}
	if !ok {
		return apperrors.NewCustomError(apperrors.ErrRequestNotPending, "only pending requests can be deleted")
	}

	return nil
}

// Decide moves a pending request to approved or rejected. The decision
// is terminal. Approval changes what the affected days look like, so
// their cached schedules are dropped.
func (s *RequestService) Decide(ctx context.Context, adminUserID, id int64, approve bool, adminNote *string) (*models.TeacherRequest, error) {
	existing, err := s.requestStore.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error loading request: %w", err)
	}
	if existing == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotFound, "request not found")
	}
	if !existing.IsPending() {
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotPending, "request has already been decided")
	}

	status := models.RequestRejected
	if approve {
		status = models.RequestApproved
	}

	ok, err := s.requestStore.Decide(ctx, id, status, adminNote, adminUserID)
	if err != nil {
		return nil, fmt.Errorf("error deciding request: %w", err)
	}
	if !ok {
		return nil, apperrors.NewCustomError(apperrors.ErrRequestNotPending, "request has already been decided")
	}

	if approve {
		for _, date := range affectedDates(existing) {
			s.cache.InvalidateDate(ctx, date)
		}
	}

	logger.Info().
		Int64("requestId", id).
		Str("status", string(status)).
		Int64("decidedBy", adminUserID).
		Msg("Request decided")

	return s.requestStore.GetByID(ctx, id)
}

func affectedDates(req *models.TeacherRequest) []time.Time {
	var dates []time.Time
	if req.RequestDate != nil {
		dates = append(dates, *req.RequestDate)
	}
	if req.OriginalDate != nil {
		dates = append(dates, *req.OriginalDate)
	}
	if req.MakeupDate != nil {
		dates = append(dates, *req.MakeupDate)
	}
	return dates
}

// validate checks a request against the timetable. A leave must name an
// occurrence the teacher's class actually holds; a makeup must
// additionally name a replacement owned by the same teacher. Clock
// strings are normalized in place so later matching is exact.
func (s *RequestService) validate(ctx context.Context, req *models.TeacherRequest) error {
	if strings.TrimSpace(req.Reason) == "" {
		return apperrors.NewValidationError("reason is required")
	}
	if req.SubjectID != nil {
		subject, err := s.subjectStore.GetByID(ctx, *req.SubjectID)
		if err != nil {
			return fmt.Errorf("error checking subject: %w", err)
		}
		if subject == nil {
			return apperrors.NewCustomError(apperrors.ErrSubjectNotFound, "subject not found")
		}
	}

	switch req.RequestType {
	case models.RequestLeave:
		return s.validateLeave(ctx, req)
	case models.RequestMakeup:
		return s.validateMakeup(ctx, req)
	default:
		return apperrors.NewCustomError(apperrors.ErrInvalidRequestType, fmt.Sprintf("unknown request type %q", req.RequestType))
	}
}

func (s *RequestService) validateLeave(ctx context.Context, req *models.TeacherRequest) error {
	if req.ClassID == nil || req.RequestDate == nil || req.StartTime == nil || req.EndTime == nil {
		return apperrors.NewValidationError("leave requests need classId, requestDate, startTime, and endTime")
	}

	date := helpers.DateOnly(*req.RequestDate)
	req.RequestDate = &date

	start, end, err := normalizeWindow(*req.StartTime, *req.EndTime)
	if err != nil {
		return err
	}
	req.StartTime = &start
	req.EndTime = &end

	return s.checkOccurrenceExists(ctx, req.TeacherID, *req.ClassID, date, start, end)
}

func (s *RequestService) validateMakeup(ctx context.Context, req *models.TeacherRequest) error {
	if req.OriginalClassID == nil || req.OriginalDate == nil || req.OriginalStartTime == nil || req.OriginalEndTime == nil {
		return apperrors.NewValidationError("makeup requests need the original occurrence fields")
	}
	if req.MakeupClassID == nil || req.MakeupDate == nil || req.MakeupStartTime == nil || req.MakeupEndTime == nil {
		return apperrors.NewValidationError("makeup requests need the makeup occurrence fields")
	}

	origDate := helpers.DateOnly(*req.OriginalDate)
	req.OriginalDate = &origDate
	origStart, origEnd, err := normalizeWindow(*req.OriginalStartTime, *req.OriginalEndTime)
	if err != nil {
		return err
	}
	req.OriginalStartTime = &origStart
	req.OriginalEndTime = &origEnd

	if err := s.checkOccurrenceExists(ctx, req.TeacherID, *req.OriginalClassID, origDate, origStart, origEnd); err != nil {
		return err
	}

	makeupDate := helpers.DateOnly(*req.MakeupDate)
	req.MakeupDate = &makeupDate
	makeupStart, makeupEnd, err := normalizeWindow(*req.MakeupStartTime, *req.MakeupEndTime)
	if err != nil {
		return err
	}
	req.MakeupStartTime = &makeupStart
	req.MakeupEndTime = &makeupEnd

	makeupClass, err := s.classStore.GetByID(ctx, *req.MakeupClassID)
	if err != nil {
		return fmt.Errorf("error checking makeup class: %w", err)
	}
	if makeupClass == nil {
		return apperrors.NewCustomError(apperrors.ErrClassNotFound, "makeup class not found")
	}
	if makeupClass.TeacherID != req.TeacherID {
		return apperrors.NewForbiddenError("makeup class belongs to another teacher")
	}

	return nil
}

// checkOccurrenceExists verifies the teacher owns the class and the
// class holds a weekly slot matching the occurrence exactly
func (s *RequestService) checkOccurrenceExists(ctx context.Context, teacherID, classID int64, date time.Time, start, end string) error {
	class, err := s.classStore.GetByID(ctx, classID)
	if err != nil {
		return fmt.Errorf("error checking class: %w", err)
	}
	if class == nil {
		return apperrors.NewCustomError(apperrors.ErrClassNotFound, "class not found")
	}
	if class.TeacherID != teacherID {
		return apperrors.NewForbiddenError("class belongs to another teacher")
	}

	slot, err := s.classStore.FindSlot(ctx, classID, helpers.ISOWeekday(date), start, end)
	if err != nil {
		return fmt.Errorf("error checking class slot: %w", err)
	}
	if slot == nil {
		return apperrors.NewValidationError("class has no slot at that time on that day")
	}

	return nil
}

func normalizeWindow(start, end string) (string, string, error) {
	normStart, err := helpers.NormalizeClock(start)
	if err != nil {
		return "", "", apperrors.NewValidationError(err.Error())
	}
	normEnd, err := helpers.NormalizeClock(end)
	if err != nil {
		return "", "", apperrors.NewValidationError(err.Error())
	}
	if normStart >= normEnd {
		return "", "", apperrors.NewValidationError("startTime must be before endTime")
	}
	return normStart, normEnd, nil
}
