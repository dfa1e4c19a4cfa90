package services

import (
	"context"
	"testing"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRequestFixture() (*RequestService, *fakeClassStore, *fakeRequestStore) {
	classStore := newFakeClassStore()
	requestStore := newFakeRequestStore()

	classStore.classes[10] = &models.Class{ID: 10, ClassCode: "CS101", ClassName: "Algorithms", TeacherID: 1}
	classStore.classes[20] = &models.Class{ID: 20, ClassCode: "CS201", ClassName: "Networks", TeacherID: 2}
	classStore.slots = []*models.ClassSlot{
		{ID: 1, ClassID: 10, DayOfWeek: 1, StartTime: "08:00:00", EndTime: "09:30:00"},
		{ID: 2, ClassID: 20, DayOfWeek: 1, StartTime: "10:00:00", EndTime: "11:30:00"},
	}

	svc := NewRequestService(requestStore, classStore, &fakeSubjectStore{}, nil)
	return svc, classStore, requestStore
}

type fakeSubjectStore struct{}

func (f *fakeSubjectStore) GetByID(_ context.Context, id int64) (*models.Subject, error) {
	if id == 5 {
		return &models.Subject{ID: 5, SubjectCode: "CS", SubjectName: "Computer Science"}, nil
	}
	return nil, nil
}

func (f *fakeSubjectStore) List(_ context.Context) ([]*models.Subject, error) {
	return []*models.Subject{{ID: 5, SubjectCode: "CS", SubjectName: "Computer Science"}}, nil
}

func strPtr(s string) *string { return &s }

func leaveDraft() *models.TeacherRequest {
	classID := int64(10)
	date := monday
	return &models.TeacherRequest{
		RequestType: models.RequestLeave,
		Reason:      "medical appointment",
		ClassID:     &classID,
		RequestDate: &date,
		StartTime:   strPtr("08:00:00"),
		EndTime:     strPtr("09:30:00"),
	}
}

func makeupDraft() *models.TeacherRequest {
	origClass := int64(10)
	makeupClass := int64(10)
	origDate := monday
	makeupDate := monday.AddDate(0, 0, 5)
	return &models.TeacherRequest{
		RequestType:       models.RequestMakeup,
		Reason:            "conference",
		OriginalClassID:   &origClass,
		OriginalDate:      &origDate,
		OriginalStartTime: strPtr("08:00:00"),
		OriginalEndTime:   strPtr("09:30:00"),
		MakeupClassID:     &makeupClass,
		MakeupDate:        &makeupDate,
		MakeupStartTime:   strPtr("15:00:00"),
		MakeupEndTime:     strPtr("16:30:00"),
	}
}

func TestSubmitLeave(t *testing.T) {
	svc, _, requestStore := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
	assert.NotZero(t, req.ID)
	assert.Len(t, requestStore.requests, 1)
}

func TestSubmitNormalizesClockStrings(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	draft.StartTime = strPtr("08:00")
	draft.EndTime = strPtr("09:30")

	req, err := svc.Submit(context.Background(), 1, draft)
	require.NoError(t, err)
	assert.Equal(t, "08:00:00", *req.StartTime)
	assert.Equal(t, "09:30:00", *req.EndTime)
}

func TestSubmitLeaveMissingFields(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	draft.StartTime = nil
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSubmitLeaveNoMatchingSlot(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	draft.StartTime = strPtr("08:30:00") // class meets at 08:00
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSubmitLeaveWrongWeekday(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	tuesday := monday.AddDate(0, 0, 1)
	draft.RequestDate = &tuesday
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSubmitLeaveForeignClass(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	foreign := int64(20)
	draft.ClassID = &foreign
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSubmitLeaveEmptyReason(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	draft.Reason = "  "
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSubmitMakeup(t *testing.T) {
	svc, _, _ := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, makeupDraft())
	require.NoError(t, err)
	assert.Equal(t, models.RequestPending, req.Status)
}

func TestSubmitMakeupForeignMakeupClass(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := makeupDraft()
	foreign := int64(20)
	draft.MakeupClassID = &foreign
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestSubmitMakeupInvertedWindow(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := makeupDraft()
	draft.MakeupStartTime = strPtr("17:00:00")
	draft.MakeupEndTime = strPtr("16:00:00")
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestSubmitUnknownSubject(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	missing := int64(99)
	draft.SubjectID = &missing
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrSubjectNotFound)
}

func TestSubmitUnknownType(t *testing.T) {
	svc, _, _ := newRequestFixture()

	draft := leaveDraft()
	draft.RequestType = models.RequestType("swap")
	_, err := svc.Submit(context.Background(), 1, draft)
	assert.ErrorIs(t, err, apperrors.ErrInvalidRequestType)
}

func TestEditPendingRequest(t *testing.T) {
	svc, _, _ := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	updated := leaveDraft()
	updated.Reason = "updated reason"
	result, err := svc.Edit(context.Background(), 1, req.ID, updated)
	require.NoError(t, err)
	assert.Equal(t, "updated reason", result.Reason)
}

func TestEditDecidedRequestFails(t *testing.T) {
	svc, _, requestStore := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)
	_, err = requestStore.Decide(context.Background(), req.ID, models.RequestApproved, nil, 99)
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), 1, req.ID, leaveDraft())
	assert.ErrorIs(t, err, apperrors.ErrRequestNotPending)
}

func TestEditForeignRequestFails(t *testing.T) {
	svc, _, _ := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	_, err = svc.Edit(context.Background(), 2, req.ID, leaveDraft())
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestDeletePendingRequest(t *testing.T) {
	svc, _, requestStore := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	require.NoError(t, svc.Delete(context.Background(), 1, req.ID))
	assert.Empty(t, requestStore.requests)
}

func TestDeleteDecidedRequestFails(t *testing.T) {
	svc, _, requestStore := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)
	_, err = requestStore.Decide(context.Background(), req.ID, models.RequestRejected, nil, 99)
	require.NoError(t, err)

	err = svc.Delete(context.Background(), 1, req.ID)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotPending)
}

func TestDecideApprove(t *testing.T) {
	svc, _, _ := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	note := "approved, cover arranged"
	decided, err := svc.Decide(context.Background(), 99, req.ID, true, &note)
	require.NoError(t, err)
	assert.Equal(t, models.RequestApproved, decided.Status)
	require.NotNil(t, decided.ApprovedBy)
	assert.Equal(t, int64(99), *decided.ApprovedBy)
}

func TestDecideIsTerminal(t *testing.T) {
	svc, _, _ := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), 99, req.ID, false, nil)
	require.NoError(t, err)

	_, err = svc.Decide(context.Background(), 99, req.ID, true, nil)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotPending)
}

func TestDecideUnknownRequest(t *testing.T) {
	svc, _, _ := newRequestFixture()

	_, err := svc.Decide(context.Background(), 99, 12345, true, nil)
	assert.ErrorIs(t, err, apperrors.ErrRequestNotFound)
}

func TestApprovedRequestFlowsIntoResolution(t *testing.T) {
	svc, classStore, requestStore := newRequestFixture()

	req, err := svc.Submit(context.Background(), 1, leaveDraft())
	require.NoError(t, err)

	schedule := NewScheduleService(classStore, requestStore, nil)

	// pending: the occurrence still reads as normal
	verdict, err := schedule.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNormal, verdict.Kind)

	_, err = svc.Decide(context.Background(), 99, req.ID, true, nil)
	require.NoError(t, err)

	verdict, err = schedule.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCancelled, verdict.Kind)
}
