package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhvu/attendly/internal/app/models"
)

// SubjectRepository handles database operations for subjects
type SubjectRepository struct {
	db *pgxpool.Pool
}

// NewSubjectRepository creates a new subject repository
func NewSubjectRepository(db *pgxpool.Pool) *SubjectRepository {
	return &SubjectRepository{
		db: db,
	}
}

// GetByID retrieves a subject by ID, or nil when no such subject exists
func (r *SubjectRepository) GetByID(ctx context.Context, id int64) (*models.Subject, error) {
	query := `
		SELECT id, subject_code, subject_name
		FROM subjects
		WHERE id = $1
	`

	var subject models.Subject
	err := r.db.QueryRow(ctx, query, id).Scan(
		&subject.ID,
		&subject.SubjectCode,
		&subject.SubjectName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving subject: %w", err)
	}

	return &subject, nil
}

// List retrieves all subjects ordered by subject code
func (r *SubjectRepository) List(ctx context.Context) ([]*models.Subject, error) {
	query := `
		SELECT id, subject_code, subject_name
		FROM subjects
		ORDER BY subject_code
	`

	rows, err := r.db.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("error listing subjects: %w", err)
	}
	defer rows.Close()

	var subjects []*models.Subject
	for rows.Next() {
		var subject models.Subject
		if err := rows.Scan(&subject.ID, &subject.SubjectCode, &subject.SubjectName); err != nil {
			return nil, fmt.Errorf("error scanning subject: %w", err)
		}
		subjects = append(subjects, &subject)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating subjects: %w", err)
	}

	return subjects, nil
}
