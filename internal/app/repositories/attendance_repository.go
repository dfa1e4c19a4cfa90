package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhvu/attendly/internal/app/models"
)

// AttendanceRepository handles database operations for attendance
// sessions and per-student records
type AttendanceRepository struct {
	db *pgxpool.Pool
}

// NewAttendanceRepository creates a new attendance repository
func NewAttendanceRepository(db *pgxpool.Pool) *AttendanceRepository {
	return &AttendanceRepository{
		db: db,
	}
}

// InsertSessionIfAbsent inserts a session for the occurrence unless one
// already exists, then returns the surviving row. Concurrent callers all
// land on the same session.
func (r *AttendanceRepository) InsertSessionIfAbsent(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error) {
	insert := `
		INSERT INTO attendance_sessions (class_id, session_date, start_time, end_time, created_by)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT ON CONSTRAINT attendance_sessions_occurrence_key DO NOTHING
	`

	_, err := r.db.Exec(ctx, insert,
		session.ClassID, session.SessionDate, session.StartTime, session.EndTime, session.CreatedBy,
	)
	if err != nil {
		return nil, fmt.Errorf("error inserting session: %w", err)
	}

	existing, err := r.GetSessionByOccurrence(ctx, session.ClassID, session.SessionDate, session.StartTime, session.EndTime)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("session missing after insert for class %d", session.ClassID)
	}

	return existing, nil
}

// GetSessionByOccurrence retrieves the session for an exact occurrence,
// or nil when none exists
func (r *AttendanceRepository) GetSessionByOccurrence(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.AttendanceSession, error) {
	query := `
		SELECT id, class_id, session_date, start_time, end_time, created_by, created_at
		FROM attendance_sessions
		WHERE class_id = $1 AND session_date = $2 AND start_time = $3 AND end_time = $4
	`

	var session models.AttendanceSession
	err := r.db.QueryRow(ctx, query, classID, date, startTime, endTime).Scan(
		&session.ID,
		&session.ClassID,
		&session.SessionDate,
		&session.StartTime,
		&session.EndTime,
		&session.CreatedBy,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving session by occurrence: %w", err)
	}

	return &session, nil
}

// GetSessionByID retrieves a session by ID, or nil when no such session
// exists
func (r *AttendanceRepository) GetSessionByID(ctx context.Context, id int64) (*models.AttendanceSession, error) {
	query := `
		SELECT id, class_id, session_date, start_time, end_time, created_by, created_at
		FROM attendance_sessions
		WHERE id = $1
	`

	var session models.AttendanceSession
	err := r.db.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.ClassID,
		&session.SessionDate,
		&session.StartTime,
		&session.EndTime,
		&session.CreatedBy,
		&session.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving session: %w", err)
	}

	return &session, nil
}

// ListSessionsForClass retrieves a class's sessions newest first
func (r *AttendanceRepository) ListSessionsForClass(ctx context.Context, classID int64) ([]*models.AttendanceSession, error) {
	query := `
		SELECT id, class_id, session_date, start_time, end_time, created_by, created_at
		FROM attendance_sessions
		WHERE class_id = $1
		ORDER BY session_date DESC, start_time DESC
	`

	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("error listing sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.AttendanceSession
	for rows.Next() {
		var session models.AttendanceSession
		if err := rows.Scan(
			&session.ID,
			&session.ClassID,
			&session.SessionDate,
			&session.StartTime,
			&session.EndTime,
			&session.CreatedBy,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning session: %w", err)
		}
		sessions = append(sessions, &session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating sessions: %w", err)
	}

	return sessions, nil
}

// InsertRecordIfAbsent inserts an attendance record unless the student
// already has one in the session. The returned flag reports whether the
// insert won; on false the caller reads the existing row.
func (r *AttendanceRepository) InsertRecordIfAbsent(ctx context.Context, record *models.AttendanceRecord) (bool, error) {
	query := `
		INSERT INTO attendance_records (session_id, student_id, status, check_in_time, confidence, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT attendance_records_session_student_key DO NOTHING
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		record.SessionID, record.StudentID, record.Status,
		record.CheckInTime, record.Confidence, record.Source,
	).Scan(&record.ID, &record.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("error inserting attendance record: %w", err)
	}

	return true, nil
}

// UpsertRecord inserts an attendance record or overwrites the student's
// existing one in the session
func (r *AttendanceRepository) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	query := `
		INSERT INTO attendance_records (session_id, student_id, status, check_in_time, confidence, source)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT ON CONSTRAINT attendance_records_session_student_key
		DO UPDATE SET status = EXCLUDED.status,
		              check_in_time = EXCLUDED.check_in_time,
		              confidence = EXCLUDED.confidence,
		              source = EXCLUDED.source,
		              updated_at = NOW()
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		record.SessionID, record.StudentID, record.Status,
		record.CheckInTime, record.Confidence, record.Source,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("error upserting attendance record: %w", err)
	}

	return nil
}

// GetRecord retrieves a student's record in a session, or nil when the
// student has none
func (r *AttendanceRepository) GetRecord(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	query := `
		SELECT id, session_id, student_id, status, check_in_time, confidence, source, created_at, updated_at
		FROM attendance_records
		WHERE session_id = $1 AND student_id = $2
	`

	var record models.AttendanceRecord
	err := r.db.QueryRow(ctx, query, sessionID, studentID).Scan(
		&record.ID,
		&record.SessionID,
		&record.StudentID,
		&record.Status,
		&record.CheckInTime,
		&record.Confidence,
		&record.Source,
		&record.CreatedAt,
		&record.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving attendance record: %w", err)
	}

	return &record, nil
}

// ListRecordsBySession retrieves all records of a session keyed by
// student ID
func (r *AttendanceRepository) ListRecordsBySession(ctx context.Context, sessionID int64) (map[int64]*models.AttendanceRecord, error) {
	query := `
		SELECT id, session_id, student_id, status, check_in_time, confidence, source, created_at, updated_at
		FROM attendance_records
		WHERE session_id = $1
	`

	rows, err := r.db.Query(ctx, query, sessionID)
	if err != nil {
		return nil, fmt.Errorf("error listing attendance records: %w", err)
	}
	defer rows.Close()

	records := make(map[int64]*models.AttendanceRecord)
	for rows.Next() {
		var record models.AttendanceRecord
		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.StudentID,
			&record.Status,
			&record.CheckInTime,
			&record.Confidence,
			&record.Source,
			&record.CreatedAt,
			&record.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning attendance record: %w", err)
		}
		records[record.StudentID] = &record
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating attendance records: %w", err)
	}

	return records, nil
}

// ListRecordsForStudentInClass retrieves a student's records across all
// sessions of a class, newest session first, with each session attached
func (r *AttendanceRepository) ListRecordsForStudentInClass(ctx context.Context, classID, studentID int64) ([]*models.AttendanceRecord, error) {
	query := `
		SELECT r.id, r.session_id, r.student_id, r.status, r.check_in_time, r.confidence, r.source, r.created_at, r.updated_at,
		       s.id, s.class_id, s.session_date, s.start_time, s.end_time, s.created_by, s.created_at
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		WHERE s.class_id = $1 AND r.student_id = $2
		ORDER BY s.session_date DESC, s.start_time DESC
	`

	rows, err := r.db.Query(ctx, query, classID, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing student records: %w", err)
	}
	defer rows.Close()

	var records []*models.AttendanceRecord
	for rows.Next() {
		var record models.AttendanceRecord
		var session models.AttendanceSession
		if err := rows.Scan(
			&record.ID,
			&record.SessionID,
			&record.StudentID,
			&record.Status,
			&record.CheckInTime,
			&record.Confidence,
			&record.Source,
			&record.CreatedAt,
			&record.UpdatedAt,
			&session.ID,
			&session.ClassID,
			&session.SessionDate,
			&session.StartTime,
			&session.EndTime,
			&session.CreatedBy,
			&session.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("error scanning student record: %w", err)
		}
		record.Session = &session
		records = append(records, &record)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating student records: %w", err)
	}

	return records, nil
}

// StatusCount is one row of a per-status attendance tally
type StatusCount struct {
	Status models.AttendanceStatus
	Count  int64
}

// CountStatusesForClass tallies recorded statuses across all sessions of
// a class
func (r *AttendanceRepository) CountStatusesForClass(ctx context.Context, classID int64) ([]StatusCount, error) {
	query := `
		SELECT r.status, COUNT(*)
		FROM attendance_records r
		JOIN attendance_sessions s ON s.id = r.session_id
		WHERE s.class_id = $1
		GROUP BY r.status
	`

	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("error counting attendance statuses: %w", err)
	}
	defer rows.Close()

	var counts []StatusCount
	for rows.Next() {
		var sc StatusCount
		if err := rows.Scan(&sc.Status, &sc.Count); err != nil {
			return nil, fmt.Errorf("error scanning status count: %w", err)
		}
		counts = append(counts, sc)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating status counts: %w", err)
	}

	return counts, nil
}

// CountSessionsForClass counts the sessions a class has held
func (r *AttendanceRepository) CountSessionsForClass(ctx context.Context, classID int64) (int64, error) {
	query := `SELECT COUNT(*) FROM attendance_sessions WHERE class_id = $1`

	var count int64
	if err := r.db.QueryRow(ctx, query, classID).Scan(&count); err != nil {
		return 0, fmt.Errorf("error counting sessions: %w", err)
	}

	return count, nil
}
