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

const requestColumns = `
	id, teacher_id, request_type, reason, subject_id,
	class_id, request_date, start_time, end_time,
	original_class_id, original_date, original_start_time, original_end_time,
	makeup_class_id, makeup_date, makeup_start_time, makeup_end_time,
	status, admin_note, approved_by, created_at, updated_at
`

// RequestRepository handles database operations for teacher leave and
// makeup requests
type RequestRepository struct {
	db *pgxpool.Pool
}

// NewRequestRepository creates a new request repository
func NewRequestRepository(db *pgxpool.Pool) *RequestRepository {
	return &RequestRepository{
		db: db,
	}
}

func scanRequest(row pgx.Row) (*models.TeacherRequest, error) {
	var req models.TeacherRequest
	err := row.Scan(
		&req.ID,
		&req.TeacherID,
		&req.RequestType,
		&req.Reason,
		&req.SubjectID,
		&req.ClassID,
		&req.RequestDate,
		&req.StartTime,
		&req.EndTime,
		&req.OriginalClassID,
		&req.OriginalDate,
		&req.OriginalStartTime,
		&req.OriginalEndTime,
		&req.MakeupClassID,
		&req.MakeupDate,
		&req.MakeupStartTime,
		&req.MakeupEndTime,
		&req.Status,
		&req.AdminNote,
		&req.ApprovedBy,
		&req.CreatedAt,
		&req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &req, nil
}

// Create inserts a request row and fills in its ID and creation time
func (r *RequestRepository) Create(ctx context.Context, req *models.TeacherRequest) error {
	query := `
		INSERT INTO teacher_requests (
			teacher_id, request_type, reason, subject_id,
			class_id, request_date, start_time, end_time,
			original_class_id, original_date, original_start_time, original_end_time,
			makeup_class_id, makeup_date, makeup_start_time, makeup_end_time,
			status
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		req.TeacherID, req.RequestType, req.Reason, req.SubjectID,
		req.ClassID, req.RequestDate, req.StartTime, req.EndTime,
		req.OriginalClassID, req.OriginalDate, req.OriginalStartTime, req.OriginalEndTime,
		req.MakeupClassID, req.MakeupDate, req.MakeupStartTime, req.MakeupEndTime,
		req.Status,
	).Scan(&req.ID, &req.CreatedAt)
	if err != nil {
		return fmt.Errorf("error creating request: %w", err)
	}

	return nil
}

// GetByID retrieves a request by ID, or nil when no such request exists
func (r *RequestRepository) GetByID(ctx context.Context, id int64) (*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM teacher_requests WHERE id = $1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving request: %w", err)
	}

	return req, nil
}

// ListByTeacher retrieves a teacher's requests newest first, optionally
// filtered by status
func (r *RequestRepository) ListByTeacher(ctx context.Context, teacherID int64, status *models.RequestStatus) ([]*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM teacher_requests WHERE teacher_id = $1`
	args := []interface{}{teacherID}
	if status != nil {
		query += ` AND status = $2`
		args = append(args, *status)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	return r.list(ctx, query, args...)
}

// ListByStatus retrieves all requests with the given status newest first
func (r *RequestRepository) ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + ` FROM teacher_requests WHERE status = $1 ORDER BY created_at DESC, id DESC`
	return r.list(ctx, query, status)
}

func (r *RequestRepository) list(ctx context.Context, query string, args ...interface{}) ([]*models.TeacherRequest, error) {
	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("error listing requests: %w", err)
	}
	defer rows.Close()

	var requests []*models.TeacherRequest
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			return nil, fmt.Errorf("error scanning request: %w", err)
		}
		requests = append(requests, req)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating requests: %w", err)
	}

	return requests, nil
}

// Update rewrites the mutable fields of a request. Only pending rows
// match; the returned flag reports whether a row was updated.
func (r *RequestRepository) Update(ctx context.Context, req *models.TeacherRequest) (bool, error) {
	query := `
		UPDATE teacher_requests
		SET reason = $2, subject_id = $3,
		    class_id = $4, request_date = $5, start_time = $6, end_time = $7,
		    original_class_id = $8, original_date = $9, original_start_time = $10, original_end_time = $11,
		    makeup_class_id = $12, makeup_date = $13, makeup_start_time = $14, makeup_end_time = $15,
		    updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query,
		req.ID, req.Reason, req.SubjectID,
		req.ClassID, req.RequestDate, req.StartTime, req.EndTime,
		req.OriginalClassID, req.OriginalDate, req.OriginalStartTime, req.OriginalEndTime,
		req.MakeupClassID, req.MakeupDate, req.MakeupStartTime, req.MakeupEndTime,
	)
	if err != nil {
		return false, fmt.Errorf("error updating request: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Delete removes a pending request; the returned flag reports whether a
// row was deleted
func (r *RequestRepository) Delete(ctx context.Context, id int64) (bool, error) {
	query := `DELETE FROM teacher_requests WHERE id = $1 AND status = 'pending'`

	tag, err := r.db.Exec(ctx, query, id)
	if err != nil {
		return false, fmt.Errorf("error deleting request: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// Decide moves a pending request to approved or rejected. Only pending
// rows match, which makes decisions terminal; the returned flag reports
// whether a row was updated.
func (r *RequestRepository) Decide(ctx context.Context, id int64, status models.RequestStatus, adminNote *string, decidedBy int64) (bool, error) {
	query := `
		UPDATE teacher_requests
		SET status = $2, admin_note = $3, approved_by = $4, updated_at = NOW()
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := r.db.Exec(ctx, query, id, status, adminNote, decidedBy)
	if err != nil {
		return false, fmt.Errorf("error deciding request: %w", err)
	}

	return tag.RowsAffected() > 0, nil
}

// FindApprovedLeave retrieves the newest approved leave request matching
// the occurrence exactly, or nil when none matches
func (r *RequestRepository) FindApprovedLeave(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM teacher_requests
		WHERE request_type = 'leave' AND status = 'approved'
		  AND class_id = $1 AND request_date = $2 AND start_time = $3 AND end_time = $4
		ORDER BY id DESC
		LIMIT 1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, classID, date, startTime, endTime))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding approved leave: %w", err)
	}

	return req, nil
}

// FindApprovedMakeupByOriginal retrieves the newest approved makeup
// request whose cancelled occurrence matches exactly, or nil when none
// matches
func (r *RequestRepository) FindApprovedMakeupByOriginal(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM teacher_requests
		WHERE request_type = 'makeup' AND status = 'approved'
		  AND original_class_id = $1 AND original_date = $2
		  AND original_start_time = $3 AND original_end_time = $4
		ORDER BY id DESC
		LIMIT 1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, classID, date, startTime, endTime))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding approved makeup by original: %w", err)
	}

	return req, nil
}

// FindApprovedMakeupByMakeup retrieves the newest approved makeup request
// whose replacement occurrence matches exactly, or nil when none matches
func (r *RequestRepository) FindApprovedMakeupByMakeup(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	query := `SELECT ` + requestColumns + `
		FROM teacher_requests
		WHERE request_type = 'makeup' AND status = 'approved'
		  AND makeup_class_id = $1 AND makeup_date = $2
		  AND makeup_start_time = $3 AND makeup_end_time = $4
		ORDER BY id DESC
		LIMIT 1`

	req, err := scanRequest(r.db.QueryRow(ctx, query, classID, date, startTime, endTime))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error finding approved makeup by makeup: %w", err)
	}

	return req, nil
}

// ListApprovedMakeupsLandingOn retrieves the approved makeup requests
// whose replacement occurrence falls on the given date for any of the
// given classes
func (r *RequestRepository) ListApprovedMakeupsLandingOn(ctx context.Context, date time.Time, classIDs []int64) ([]*models.TeacherRequest, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	query := `SELECT ` + requestColumns + `
		FROM teacher_requests
		WHERE request_type = 'makeup' AND status = 'approved'
		  AND makeup_date = $1 AND makeup_class_id = ANY($2)
		ORDER BY makeup_start_time, id`

	return r.list(ctx, query, date, classIDs)
}
