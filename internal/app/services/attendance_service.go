package services

import (
	"context"
	"fmt"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/helpers"
	"github.com/minhvu/attendly/internal/pkg/logger"
	"github.com/minhvu/attendly/internal/pkg/recognizer"
)

// Lateness policies for the automatic check-in path
const (
	PolicyTimeGated     = "time_gated"
	PolicyAlwaysPresent = "always_present"
)

// OccurrenceResolver is the slice of the schedule service the
// attendance service needs
type OccurrenceResolver interface {
	ResolveOccurrence(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (models.Verdict, error)
	ActiveOccurrence(ctx context.Context, classID int64, at time.Time) (*models.Occurrence, error)
}

// AttendanceService manages attendance sessions and records. Sessions
// are created lazily on first use; a student's absence in a session is
// the lack of a record, so reads derive it instead of storing it.
type AttendanceService struct {
	attendanceStore AttendanceStore
	classStore      ClassStore
	schedule        OccurrenceResolver
	recognizer      recognizer.Recognizer
	lateAfter       time.Duration
	policy          string
	minConfidence   float64
	now             func() time.Time
}

// NewAttendanceService creates a new attendance service
func NewAttendanceService(
	attendanceStore AttendanceStore,
	classStore ClassStore,
	schedule OccurrenceResolver,
	rec recognizer.Recognizer,
	lateAfter time.Duration,
	policy string,
	minConfidence float64,
) *AttendanceService {
	return &AttendanceService{
		attendanceStore: attendanceStore,
		classStore:      classStore,
		schedule:        schedule,
		recognizer:      rec,
		lateAfter:       lateAfter,
		policy:          policy,
		minConfidence:   minConfidence,
		now:             time.Now,
	}
}

// GetOrCreateSession returns the session for an occurrence, creating it
// when it does not exist yet. Cancelled occurrences get no session.
// Concurrent callers for the same occurrence all receive the same row.
func (s *AttendanceService) GetOrCreateSession(ctx context.Context, classID int64, date time.Time, startTime, endTime string, createdBy *int64) (*models.AttendanceSession, error) {
	date = helpers.DateOnly(date)

	verdict, err := s.schedule.ResolveOccurrence(ctx, classID, date, startTime, endTime)
	if err != nil {
		return nil, err
	}
	if verdict.Kind == models.VerdictCancelled {
		return nil, apperrors.NewCustomError(apperrors.ErrNoScheduledSession, "occurrence is cancelled")
	}

	session, err := s.attendanceStore.InsertSessionIfAbsent(ctx, &models.AttendanceSession{
		ClassID:     classID,
		SessionDate: date,
		StartTime:   startTime,
		EndTime:     endTime,
		CreatedBy:   createdBy,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	return session, nil
}

// CheckInResult is what a successful automatic check-in produced
type CheckInResult struct {
	Session *models.AttendanceSession `json:"session"`
	Record  *models.AttendanceRecord  `json:"record"`
	Student *models.Student           `json:"student"`
}

// CheckIn runs the automatic, recognition-gated check-in for a class.
// actorStudentID, when set, pins the result to the acting user: a
// recognized face belonging to someone else is rejected. A student who
// already holds a record in the session is rejected; the manual path is
// the only way to overwrite.
func (s *AttendanceService) CheckIn(ctx context.Context, classID int64, image []byte, actorStudentID *int64) (*CheckInResult, error) {
	if s.recognizer == nil || !s.recognizer.Ready() {
		return nil, apperrors.NewCustomError(apperrors.ErrRecognizerFailed, "recognizer is not ready")
	}

	ident, err := s.recognizer.Recognize(ctx, image)
	if err != nil {
		return nil, err
	}
	if ident.Confidence < s.minConfidence {
		return nil, apperrors.NewCustomError(apperrors.ErrNoMatch, "recognition confidence too low")
	}

	student, err := s.classStore.FindStudentByCode(ctx, ident.StudentCode)
	if err != nil {
		return nil, fmt.Errorf("error looking up recognized student: %w", err)
	}
	if student == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrStudentNotFound, fmt.Sprintf("recognized code %s has no student", ident.StudentCode))
	}
	if actorStudentID != nil && *actorStudentID != student.ID {
		return nil, apperrors.NewCustomError(apperrors.ErrIdentityMismatch, "recognized face does not belong to the signed-in student")
	}

	now := s.now()
	occ, err := s.schedule.ActiveOccurrence(ctx, classID, now)
	if err != nil {
		return nil, err
	}
	if occ == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrNoScheduledSession, "class has no session running now")
	}

	enrolled, err := s.classStore.IsStudentEnrolled(ctx, classID, student.ID)
	if err != nil {
		return nil, fmt.Errorf("error checking enrollment: %w", err)
	}
	if !enrolled {
		return nil, apperrors.NewCustomError(apperrors.ErrNotEnrolled, "student is not enrolled in this class")
	}

	session, err := s.attendanceStore.InsertSessionIfAbsent(ctx, &models.AttendanceSession{
		ClassID:     classID,
		SessionDate: helpers.DateOnly(now),
		StartTime:   occ.StartTime,
		EndTime:     occ.EndTime,
	})
	if err != nil {
		return nil, fmt.Errorf("error getting session: %w", err)
	}

	status, err := s.statusAtCheckIn(now, session.StartTime)
	if err != nil {
		return nil, err
	}

	record := &models.AttendanceRecord{
		SessionID:   session.ID,
		StudentID:   student.ID,
		Status:      status,
		CheckInTime: &now,
		Confidence:  &ident.Confidence,
		Source:      models.SourceRecognition,
	}
	inserted, err := s.attendanceStore.InsertRecordIfAbsent(ctx, record)
	if err != nil {
		return nil, fmt.Errorf("error recording check-in: %w", err)
	}
	if !inserted {
		return nil, apperrors.NewCustomError(apperrors.ErrAlreadyCheckedIn, "student already has a record in this session")
	}

	logger.Info().
		Int64("classId", classID).
		Int64("studentId", student.ID).
		Str("status", string(status)).
		Float64("confidence", ident.Confidence).
		Msg("Automatic check-in recorded")

	return &CheckInResult{
		Session: session,
		Record:  record,
		Student: student,
	}, nil
}

// statusAtCheckIn applies the lateness policy. Under time_gated a
// check-in at or before start+lateAfter is present; one second past is
// late. Under always_present every check-in is present.
func (s *AttendanceService) statusAtCheckIn(at time.Time, sessionStart string) (models.AttendanceStatus, error) {
	if s.policy == PolicyAlwaysPresent {
		return models.StatusPresent, nil
	}

	start, err := helpers.ParseClock(sessionStart)
	if err != nil {
		return "", fmt.Errorf("error parsing session start: %w", err)
	}
	if helpers.ClockOfAsOffset(at) <= start+s.lateAfter {
		return models.StatusPresent, nil
	}
	return models.StatusLate, nil
}

// MarkAttendance is the manual path: a teacher or admin sets a
// student's status for an occurrence outright, overwriting any existing
// record. actorTeacherID nil means an admin acting without ownership
// checks.
func (s *AttendanceService) MarkAttendance(ctx context.Context, actorTeacherID *int64, classID int64, date time.Time, startTime, endTime string, studentID int64, status models.AttendanceStatus) (*models.AttendanceRecord, error) {
	switch status {
	case models.StatusPresent, models.StatusLate, models.StatusAbsent:
	default:
		return nil, apperrors.NewValidationError(fmt.Sprintf("unknown attendance status %q", status))
	}

	class, err := s.classStore.GetByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("error loading class: %w", err)
	}
	if class == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrClassNotFound, "class not found")
	}
	if actorTeacherID != nil && class.TeacherID != *actorTeacherID {
		return nil, apperrors.NewForbiddenError("class belongs to another teacher")
	}

	enrolled, err := s.classStore.IsStudentEnrolled(ctx, classID, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking enrollment: %w", err)
	}
	if !enrolled {
		return nil, apperrors.NewCustomError(apperrors.ErrNotEnrolled, "student is not enrolled in this class")
	}

	session, err := s.GetOrCreateSession(ctx, classID, date, startTime, endTime, nil)
	if err != nil {
		return nil, err
	}

	now := s.now()
	record := &models.AttendanceRecord{
		SessionID:   session.ID,
		StudentID:   studentID,
		Status:      status,
		CheckInTime: &now,
		Source:      models.SourceManual,
	}
	if err := s.attendanceStore.UpsertRecord(ctx, record); err != nil {
		return nil, fmt.Errorf("error marking attendance: %w", err)
	}

	return record, nil
}

// RosterEntry is one student's outcome in a session roster. Record is
// nil when the absence is derived rather than stored.
type RosterEntry struct {
	Student *models.Student          `json:"student"`
	Status  models.AttendanceStatus  `json:"status"`
	Record  *models.AttendanceRecord `json:"record,omitempty"`
}

// SessionRoster is the full per-student view of one session
type SessionRoster struct {
	Session *models.AttendanceSession `json:"session"`
	Entries []RosterEntry             `json:"entries"`
}

// ClassAttendance builds the roster of a session: every enrolled
// student with their recorded status, or absent when no record exists.
// actorTeacherID nil means an admin acting without ownership checks.
func (s *AttendanceService) ClassAttendance(ctx context.Context, sessionID int64, actorTeacherID *int64) (*SessionRoster, error) {
	session, err := s.attendanceStore.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error loading session: %w", err)
	}
	if session == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrSessionNotFound, "session not found")
	}
	if err := s.checkOwnership(ctx, session.ClassID, actorTeacherID); err != nil {
		return nil, err
	}

	students, err := s.classStore.ListStudents(ctx, session.ClassID)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	records, err := s.attendanceStore.ListRecordsBySession(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	roster := &SessionRoster{Session: session}
	for _, student := range students {
		entry := RosterEntry{Student: student, Status: models.StatusAbsent}
		if record, ok := records[student.ID]; ok {
			entry.Status = record.Status
			entry.Record = record
		}
		roster.Entries = append(roster.Entries, entry)
	}

	return roster, nil
}

// SessionOutcome is one session of a class with a student's derived
// status in it
type SessionOutcome struct {
	Session *models.AttendanceSession `json:"session"`
	Status  models.AttendanceStatus   `json:"status"`
	Record  *models.AttendanceRecord  `json:"record,omitempty"`
}

// checkOwnership verifies the acting teacher owns the class; nil means
// an admin and skips the check
func (s *AttendanceService) checkOwnership(ctx context.Context, classID int64, actorTeacherID *int64) error {
	if actorTeacherID == nil {
		return nil
	}
	class, err := s.classStore.GetByID(ctx, classID)
	if err != nil {
		return fmt.Errorf("error loading class: %w", err)
	}
	if class == nil {
		return apperrors.NewCustomError(apperrors.ErrClassNotFound, "class not found")
	}
	if class.TeacherID != *actorTeacherID {
		return apperrors.NewForbiddenError("class belongs to another teacher")
	}
	return nil
}

// StudentAttendance builds a student's history across every session of
// a class, newest first, deriving absences for sessions without a
// record
func (s *AttendanceService) StudentAttendance(ctx context.Context, classID, studentID int64) ([]SessionOutcome, error) {
	enrolled, err := s.classStore.IsStudentEnrolled(ctx, classID, studentID)
	if err != nil {
		return nil, fmt.Errorf("error checking enrollment: %w", err)
	}
	if !enrolled {
		return nil, apperrors.NewCustomError(apperrors.ErrNotEnrolled, "student is not enrolled in this class")
	}

	sessions, err := s.attendanceStore.ListSessionsForClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	records, err := s.attendanceStore.ListRecordsForStudentInClass(ctx, classID, studentID)
	if err != nil {
		return nil, err
	}

	bySession := make(map[int64]*models.AttendanceRecord, len(records))
	for _, record := range records {
		bySession[record.SessionID] = record
	}

	outcomes := make([]SessionOutcome, 0, len(sessions))
	for _, session := range sessions {
		outcome := SessionOutcome{Session: session, Status: models.StatusAbsent}
		if record, ok := bySession[session.ID]; ok {
			outcome.Status = record.Status
			outcome.Record = record
		}
		outcomes = append(outcomes, outcome)
	}

	return outcomes, nil
}

// ClassStatistics summarizes attendance across all sessions of a class.
// Absent includes both explicit records and derived absences, so the
// three counts always fill Sessions*Students slots.
type ClassStatistics struct {
	ClassID        int64   `json:"classId"`
	Sessions       int64   `json:"sessions"`
	Students       int64   `json:"students"`
	Present        int64   `json:"present"`
	Late           int64   `json:"late"`
	Absent         int64   `json:"absent"`
	AttendanceRate float64 `json:"attendanceRate"`
}

// AttendanceStatistics tallies a class's attendance. actorTeacherID nil
// means an admin acting without ownership checks.
func (s *AttendanceService) AttendanceStatistics(ctx context.Context, classID int64, actorTeacherID *int64) (*ClassStatistics, error) {
	class, err := s.classStore.GetByID(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("error loading class: %w", err)
	}
	if class == nil {
		return nil, apperrors.NewCustomError(apperrors.ErrClassNotFound, "class not found")
	}
	if actorTeacherID != nil && class.TeacherID != *actorTeacherID {
		return nil, apperrors.NewForbiddenError("class belongs to another teacher")
	}

	sessions, err := s.attendanceStore.CountSessionsForClass(ctx, classID)
	if err != nil {
		return nil, err
	}
	students, err := s.classStore.ListStudents(ctx, classID)
	if err != nil {
		return nil, fmt.Errorf("error listing students: %w", err)
	}
	counts, err := s.attendanceStore.CountStatusesForClass(ctx, classID)
	if err != nil {
		return nil, err
	}

	stats := &ClassStatistics{
		ClassID:  classID,
		Sessions: sessions,
		Students: int64(len(students)),
	}
	var recorded int64
	for _, sc := range counts {
		recorded += sc.Count
		switch sc.Status {
		case models.StatusPresent:
			stats.Present = sc.Count
		case models.StatusLate:
			stats.Late = sc.Count
		case models.StatusAbsent:
			stats.Absent = sc.Count
		}
	}

	totalSlots := stats.Sessions * stats.Students
	if derived := totalSlots - recorded; derived > 0 {
		stats.Absent += derived
	}
	if totalSlots > 0 {
		stats.AttendanceRate = float64(stats.Present+stats.Late) / float64(totalSlots)
	}

	return stats, nil
}
