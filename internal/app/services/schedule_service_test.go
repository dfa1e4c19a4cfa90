package services

import (
	"context"
	"testing"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// monday is a fixed Monday used across the schedule tests
var monday = time.Date(2025, 1, 6, 0, 0, 0, 0, time.UTC)

func newScheduleFixture() (*ScheduleService, *fakeClassStore, *fakeRequestStore) {
	classStore := newFakeClassStore()
	requestStore := newFakeRequestStore()

	classStore.classes[10] = &models.Class{ID: 10, ClassCode: "CS101", ClassName: "Algorithms", TeacherID: 1}
	classStore.classes[11] = &models.Class{ID: 11, ClassCode: "CS102", ClassName: "Databases", TeacherID: 1}
	classStore.slots = []*models.ClassSlot{
		{ID: 1, ClassID: 10, DayOfWeek: 1, StartTime: "08:00:00", EndTime: "09:30:00", Room: "A1", Mode: models.ModeOffline},
		{ID: 2, ClassID: 11, DayOfWeek: 3, StartTime: "13:00:00", EndTime: "14:30:00", Room: "B2", Mode: models.ModeOffline},
	}
	classStore.students[100] = &models.Student{ID: 100, StudentCode: "SV100", FullName: "Nguyen Van A"}
	classStore.enrolled[10] = []int64{100}
	classStore.enrolled[11] = []int64{100}

	return NewScheduleService(classStore, requestStore, nil), classStore, requestStore
}

func approvedLeave(teacherID, classID int64, date time.Time, start, end, reason string) *models.TeacherRequest {
	return &models.TeacherRequest{
		TeacherID:   teacherID,
		RequestType: models.RequestLeave,
		Reason:      reason,
		Status:      models.RequestApproved,
		ClassID:     &classID,
		RequestDate: &date,
		StartTime:   &start,
		EndTime:     &end,
	}
}

func approvedMakeup(teacherID int64, origClassID int64, origDate time.Time, origStart, origEnd string, makeupClassID int64, makeupDate time.Time, makeupStart, makeupEnd, reason string) *models.TeacherRequest {
	return &models.TeacherRequest{
		TeacherID:         teacherID,
		RequestType:       models.RequestMakeup,
		Reason:            reason,
		Status:            models.RequestApproved,
		OriginalClassID:   &origClassID,
		OriginalDate:      &origDate,
		OriginalStartTime: &origStart,
		OriginalEndTime:   &origEnd,
		MakeupClassID:     &makeupClassID,
		MakeupDate:        &makeupDate,
		MakeupStartTime:   &makeupStart,
		MakeupEndTime:     &makeupEnd,
	}
}

func TestResolveOccurrenceNormal(t *testing.T) {
	svc, _, _ := newScheduleFixture()

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNormal, verdict.Kind)
}

func TestResolveOccurrenceApprovedLeaveCancels(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	requestStore.requests = append(requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "conference trip"))

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCancelled, verdict.Kind)
	assert.Equal(t, "conference trip", verdict.Reason)
	assert.Nil(t, verdict.RelocatedTo)
}

func TestResolveOccurrencePendingLeaveIgnored(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	leave := approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick")
	leave.Status = models.RequestPending
	requestStore.requests = append(requestStore.requests, leave)

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNormal, verdict.Kind)
}

func TestResolveOccurrenceExactMatchOnly(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	requestStore.requests = append(requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick"))

	// same class and date, shifted interval
	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:30:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNormal, verdict.Kind)

	// same interval, next week
	verdict, err = svc.ResolveOccurrence(context.Background(), 10, monday.AddDate(0, 0, 7), "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictNormal, verdict.Kind)
}

func TestResolveOccurrenceMakeupCancelsOriginal(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	saturday := monday.AddDate(0, 0, 5)
	requestStore.requests = append(requestStore.requests,
		approvedMakeup(1, 10, monday, "08:00:00", "09:30:00", 10, saturday, "15:00:00", "16:30:00", "moved to weekend"))

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCancelled, verdict.Kind)
	require.NotNil(t, verdict.RelocatedTo)
	assert.Equal(t, int64(10), verdict.RelocatedTo.ClassID)
	assert.Equal(t, "15:00:00", verdict.RelocatedTo.StartTime)
	assert.True(t, verdict.RelocatedTo.Date.Equal(saturday))
}

func TestResolveOccurrenceMakeupSlotRelocated(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	saturday := monday.AddDate(0, 0, 5)
	requestStore.requests = append(requestStore.requests,
		approvedMakeup(1, 10, monday, "08:00:00", "09:30:00", 10, saturday, "15:00:00", "16:30:00", "moved to weekend"))

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, saturday, "15:00:00", "16:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictRelocated, verdict.Kind)
	require.NotNil(t, verdict.RelocatedFrom)
	assert.Equal(t, int64(10), verdict.RelocatedFrom.ClassID)
	assert.Equal(t, "08:00:00", verdict.RelocatedFrom.StartTime)
	assert.True(t, verdict.RelocatedFrom.Date.Equal(monday))
}

func TestResolveOccurrenceLeaveWinsOverMakeup(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	saturday := monday.AddDate(0, 0, 5)
	requestStore.requests = append(requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "leave reason"),
		approvedMakeup(1, 10, monday, "08:00:00", "09:30:00", 10, saturday, "15:00:00", "16:30:00", "makeup reason"))

	verdict, err := svc.ResolveOccurrence(context.Background(), 10, monday, "08:00:00", "09:30:00")
	require.NoError(t, err)
	assert.Equal(t, models.VerdictCancelled, verdict.Kind)
	assert.Equal(t, "leave reason", verdict.Reason)
	assert.Nil(t, verdict.RelocatedTo)
}

func TestDayScheduleForStudentIncludesMakeupLanding(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	wednesday := monday.AddDate(0, 0, 2)
	// Databases normally meets Wednesday; its makeup lands Monday afternoon
	requestStore.requests = append(requestStore.requests,
		approvedMakeup(1, 11, wednesday, "13:00:00", "14:30:00", 11, monday, "15:00:00", "16:30:00", "room clash"))

	occurrences, err := svc.DayScheduleForStudent(context.Background(), 100, monday)
	require.NoError(t, err)
	require.Len(t, occurrences, 2)

	assert.Equal(t, int64(10), occurrences[0].ClassID)
	assert.Equal(t, models.VerdictNormal, occurrences[0].Verdict.Kind)

	assert.Equal(t, int64(11), occurrences[1].ClassID)
	assert.Equal(t, "15:00:00", occurrences[1].StartTime)
	assert.Equal(t, models.VerdictRelocated, occurrences[1].Verdict.Kind)
	require.NotNil(t, occurrences[1].Verdict.RelocatedFrom)
	assert.True(t, occurrences[1].Verdict.RelocatedFrom.Date.Equal(wednesday))
}

func TestDayScheduleDedupesCoincidentMakeup(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	wednesday := monday.AddDate(0, 0, 2)
	// the makeup lands exactly on Algorithms' existing Monday slot
	requestStore.requests = append(requestStore.requests,
		approvedMakeup(1, 11, wednesday, "13:00:00", "14:30:00", 10, monday, "08:00:00", "09:30:00", "borrowed slot"))

	occurrences, err := svc.DayScheduleForStudent(context.Background(), 100, monday)
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, int64(10), occurrences[0].ClassID)
	assert.Equal(t, models.VerdictRelocated, occurrences[0].Verdict.Kind)
}

func TestDayScheduleForTeacherMarksCancellations(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	requestStore.requests = append(requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick"))

	occurrences, err := svc.DayScheduleForTeacher(context.Background(), 1, monday)
	require.NoError(t, err)
	require.Len(t, occurrences, 1)
	assert.Equal(t, models.VerdictCancelled, occurrences[0].Verdict.Kind)
}

func TestActiveOccurrence(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()

	during := monday.Add(8*time.Hour + 30*time.Minute)
	occ, err := svc.ActiveOccurrence(context.Background(), 10, during)
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.Equal(t, "08:00:00", occ.StartTime)

	after := monday.Add(10 * time.Hour)
	occ, err = svc.ActiveOccurrence(context.Background(), 10, after)
	require.NoError(t, err)
	assert.Nil(t, occ)

	requestStore.requests = append(requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick"))
	occ, err = svc.ActiveOccurrence(context.Background(), 10, during)
	require.NoError(t, err)
	assert.Nil(t, occ)
}

func TestActiveOccurrenceFindsMakeup(t *testing.T) {
	svc, _, requestStore := newScheduleFixture()
	wednesday := monday.AddDate(0, 0, 2)
	requestStore.requests = append(requestStore.requests,
		approvedMakeup(1, 11, wednesday, "13:00:00", "14:30:00", 11, monday, "15:00:00", "16:30:00", "room clash"))

	at := monday.Add(15*time.Hour + 10*time.Minute)
	occ, err := svc.ActiveOccurrence(context.Background(), 11, at)
	require.NoError(t, err)
	require.NotNil(t, occ)
	assert.Equal(t, "15:00:00", occ.StartTime)
	assert.Equal(t, models.VerdictRelocated, occ.Verdict.Kind)
}
