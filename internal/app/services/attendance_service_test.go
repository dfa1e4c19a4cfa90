package services

import (
	"context"
	"testing"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/recognizer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type attendanceFixture struct {
	svc          *AttendanceService
	classStore   *fakeClassStore
	requestStore *fakeRequestStore
	store        *fakeAttendanceStore
	rec          *fakeRecognizer
}

func newAttendanceFixture(policy string) *attendanceFixture {
	classStore := newFakeClassStore()
	requestStore := newFakeRequestStore()
	store := newFakeAttendanceStore()

	classStore.classes[10] = &models.Class{ID: 10, ClassCode: "CS101", ClassName: "Algorithms", TeacherID: 1}
	classStore.slots = []*models.ClassSlot{
		{ID: 1, ClassID: 10, DayOfWeek: 1, StartTime: "08:00:00", EndTime: "09:30:00", Room: "A1", Mode: models.ModeOffline},
	}
	classStore.students[100] = &models.Student{ID: 100, StudentCode: "SV100", FullName: "Nguyen Van A"}
	classStore.students[101] = &models.Student{ID: 101, StudentCode: "SV101", FullName: "Tran Thi B"}
	classStore.students[102] = &models.Student{ID: 102, StudentCode: "SV102", FullName: "Le Van C"}
	classStore.enrolled[10] = []int64{100, 101}

	rec := &fakeRecognizer{
		ready: true,
		ident: &recognizer.Identification{StudentCode: "SV100", Confidence: 0.92},
	}

	schedule := NewScheduleService(classStore, requestStore, nil)
	svc := NewAttendanceService(store, classStore, schedule, rec, 15*time.Minute, policy, 0.5)

	return &attendanceFixture{
		svc:          svc,
		classStore:   classStore,
		requestStore: requestStore,
		store:        store,
		rec:          rec,
	}
}

func (f *attendanceFixture) at(clock time.Duration) {
	f.svc.now = func() time.Time { return monday.Add(clock) }
}

func TestCheckInPresentWithinGrace(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 15*time.Minute) // exactly start + grace

	result, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, result.Record.Status)
	assert.Equal(t, models.SourceRecognition, result.Record.Source)
	assert.Equal(t, int64(100), result.Student.ID)
	require.NotNil(t, result.Record.Confidence)
	assert.InDelta(t, 0.92, *result.Record.Confidence, 1e-9)
}

func TestCheckInLateJustPastGrace(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 15*time.Minute + time.Second)

	result, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLate, result.Record.Status)
}

func TestCheckInAlwaysPresentPolicy(t *testing.T) {
	f := newAttendanceFixture(PolicyAlwaysPresent)
	f.at(9 * time.Hour) // an hour in, well past the grace window

	result, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, result.Record.Status)
}

func TestCheckInRejectsSecondAttempt(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)

	_, err = f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrAlreadyCheckedIn)
}

func TestCheckInLowConfidence(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.rec.ident = &recognizer.Identification{StudentCode: "SV100", Confidence: 0.3}

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoMatch)
}

func TestCheckInUnknownStudentCode(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.rec.ident = &recognizer.Identification{StudentCode: "SV999", Confidence: 0.9}

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrStudentNotFound)
}

func TestCheckInIdentityMismatch(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)

	actor := int64(101) // signed in as someone else
	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), &actor)
	assert.ErrorIs(t, err, apperrors.ErrIdentityMismatch)
}

func TestCheckInNotEnrolled(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.rec.ident = &recognizer.Identification{StudentCode: "SV102", Confidence: 0.9}

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
}

func TestCheckInNoSessionRunning(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(11 * time.Hour) // nothing scheduled at this hour

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoScheduledSession)
}

func TestCheckInCancelledOccurrence(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.requestStore.requests = append(f.requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick"))

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrNoScheduledSession)
}

func TestCheckInRecognizerNotReady(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.rec.ready = false

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrRecognizerFailed)
}

func TestCheckInRecognizerErrorPassesThrough(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)
	f.rec.err = apperrors.NewCustomError(apperrors.ErrRecognizerTimeout, "recognition timed out")

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	assert.ErrorIs(t, err, apperrors.ErrRecognizerTimeout)
}

func TestGetOrCreateSessionIdempotent(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	first, err := f.svc.GetOrCreateSession(context.Background(), 10, monday, "08:00:00", "09:30:00", nil)
	require.NoError(t, err)
	second, err := f.svc.GetOrCreateSession(context.Background(), 10, monday, "08:00:00", "09:30:00", nil)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	count, _ := f.store.CountSessionsForClass(context.Background(), 10)
	assert.Equal(t, int64(1), count)
}

func TestGetOrCreateSessionRefusesCancelled(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.requestStore.requests = append(f.requestStore.requests,
		approvedLeave(1, 10, monday, "08:00:00", "09:30:00", "sick"))

	_, err := f.svc.GetOrCreateSession(context.Background(), 10, monday, "08:00:00", "09:30:00", nil)
	assert.ErrorIs(t, err, apperrors.ErrNoScheduledSession)
}

func TestMarkAttendanceOverwritesCheckIn(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 20*time.Minute)

	result, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)
	assert.Equal(t, models.StatusLate, result.Record.Status)

	teacherID := int64(1)
	record, err := f.svc.MarkAttendance(context.Background(), &teacherID, 10, monday, "08:00:00", "09:30:00", 100, models.StatusPresent)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, record.Status)
	assert.Equal(t, models.SourceManual, record.Source)

	stored, err := f.store.GetRecord(context.Background(), result.Session.ID, 100)
	require.NoError(t, err)
	assert.Equal(t, models.StatusPresent, stored.Status)
}

func TestMarkAttendanceWrongTeacher(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	teacherID := int64(2)
	_, err := f.svc.MarkAttendance(context.Background(), &teacherID, 10, monday, "08:00:00", "09:30:00", 100, models.StatusPresent)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestMarkAttendanceAdminSkipsOwnership(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	record, err := f.svc.MarkAttendance(context.Background(), nil, 10, monday, "08:00:00", "09:30:00", 100, models.StatusAbsent)
	require.NoError(t, err)
	assert.Equal(t, models.StatusAbsent, record.Status)
}

func TestMarkAttendanceRejectsUnknownStatus(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	teacherID := int64(1)
	_, err := f.svc.MarkAttendance(context.Background(), &teacherID, 10, monday, "08:00:00", "09:30:00", 100, models.AttendanceStatus("excused"))
	assert.ErrorIs(t, err, apperrors.ErrValidationFailed)
}

func TestClassAttendanceDerivesAbsence(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)

	result, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)

	roster, err := f.svc.ClassAttendance(context.Background(), result.Session.ID, nil)
	require.NoError(t, err)
	require.Len(t, roster.Entries, 2)

	byStudent := make(map[int64]RosterEntry)
	for _, entry := range roster.Entries {
		byStudent[entry.Student.ID] = entry
	}
	assert.Equal(t, models.StatusPresent, byStudent[100].Status)
	require.NotNil(t, byStudent[100].Record)
	// no record for the second student: absence is derived
	assert.Equal(t, models.StatusAbsent, byStudent[101].Status)
	assert.Nil(t, byStudent[101].Record)
}

func TestClassAttendanceUnknownSession(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	_, err := f.svc.ClassAttendance(context.Background(), 999, nil)
	assert.ErrorIs(t, err, apperrors.ErrSessionNotFound)
}

func TestClassAttendanceForeignTeacher(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	session, err := f.svc.GetOrCreateSession(context.Background(), 10, monday, "08:00:00", "09:30:00", nil)
	require.NoError(t, err)

	teacherID := int64(2)
	_, err = f.svc.ClassAttendance(context.Background(), session.ID, &teacherID)
	assert.ErrorIs(t, err, apperrors.ErrPermissionDenied)
}

func TestStudentAttendanceHistory(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 5*time.Minute)

	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)

	// a second session the student never attended
	_, err = f.svc.GetOrCreateSession(context.Background(), 10, monday.AddDate(0, 0, 7), "08:00:00", "09:30:00", nil)
	require.NoError(t, err)

	outcomes, err := f.svc.StudentAttendance(context.Background(), 10, 100)
	require.NoError(t, err)
	require.Len(t, outcomes, 2)

	var present, absent int
	for _, outcome := range outcomes {
		switch outcome.Status {
		case models.StatusPresent:
			present++
			assert.NotNil(t, outcome.Record)
		case models.StatusAbsent:
			absent++
			assert.Nil(t, outcome.Record)
		}
	}
	assert.Equal(t, 1, present)
	assert.Equal(t, 1, absent)
}

func TestStudentAttendanceRequiresEnrollment(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)

	_, err := f.svc.StudentAttendance(context.Background(), 10, 102)
	assert.ErrorIs(t, err, apperrors.ErrNotEnrolled)
}

func TestAttendanceStatisticsDerivesAbsences(t *testing.T) {
	f := newAttendanceFixture(PolicyTimeGated)
	f.at(8*time.Hour + 20*time.Minute)

	// one late check-in; the other enrolled student never shows up
	_, err := f.svc.CheckIn(context.Background(), 10, []byte("img"), nil)
	require.NoError(t, err)

	stats, err := f.svc.AttendanceStatistics(context.Background(), 10, nil)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.Sessions)
	assert.Equal(t, int64(2), stats.Students)
	assert.Equal(t, int64(0), stats.Present)
	assert.Equal(t, int64(1), stats.Late)
	assert.Equal(t, int64(1), stats.Absent)
	assert.InDelta(t, 0.5, stats.AttendanceRate, 1e-9)
}
