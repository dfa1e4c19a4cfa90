package repositories

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/apperrors"
	"github.com/minhvu/attendly/internal/pkg/dberrors"
)

// UserRepository handles database operations for users and their
// teacher/student profiles
type UserRepository struct {
	db *pgxpool.Pool
}

// NewUserRepository creates a new user repository
func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{
		db: db,
	}
}

// GetByID retrieves a user by ID, or nil when no such user exists
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*models.User, error) {
	query := `
		SELECT id, username, password, role_type, teacher_id, student_id, created_at
		FROM users
		WHERE id = $1
	`

	var user models.User
	err := r.db.QueryRow(ctx, query, id).Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.RoleType,
		&user.TeacherID,
		&user.StudentID,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user: %w", err)
	}

	return &user, nil
}

// GetByUsername retrieves a user by username, or nil when no such user exists
func (r *UserRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	query := `
		SELECT id, username, password, role_type, teacher_id, student_id, created_at
		FROM users
		WHERE username = $1
	`

	var user models.User
	err := r.db.QueryRow(ctx, query, username).Scan(
		&user.ID,
		&user.Username,
		&user.Password,
		&user.RoleType,
		&user.TeacherID,
		&user.StudentID,
		&user.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving user by username: %w", err)
	}

	return &user, nil
}

// GetTeacherByID retrieves a teacher profile by ID, or nil when absent
func (r *UserRepository) GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error) {
	query := `
		SELECT id, teacher_code, full_name, email, department
		FROM teachers
		WHERE id = $1
	`

	var teacher models.Teacher
	err := r.db.QueryRow(ctx, query, id).Scan(
		&teacher.ID,
		&teacher.TeacherCode,
		&teacher.FullName,
		&teacher.Email,
		&teacher.Department,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving teacher: %w", err)
	}

	return &teacher, nil
}

// GetStudentByID retrieves a student profile by ID, or nil when absent
func (r *UserRepository) GetStudentByID(ctx context.Context, id int64) (*models.Student, error) {
	query := `
		SELECT id, student_code, full_name, email, phone, year
		FROM students
		WHERE id = $1
	`

	var student models.Student
	err := r.db.QueryRow(ctx, query, id).Scan(
		&student.ID,
		&student.StudentCode,
		&student.FullName,
		&student.Email,
		&student.Phone,
		&student.Year,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving student: %w", err)
	}

	return &student, nil
}

// CreateUser inserts a user row and returns its ID
func (r *UserRepository) CreateUser(ctx context.Context, user *models.User) error {
	query := `
		INSERT INTO users (username, password, role_type, teacher_id, student_id)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id, created_at
	`

	err := r.db.QueryRow(ctx, query,
		user.Username, user.Password, user.RoleType, user.TeacherID, user.StudentID,
	).Scan(&user.ID, &user.CreatedAt)
	if dberrors.IsUniqueViolation(err) {
		return apperrors.NewConflictError(fmt.Sprintf("username '%s' is already taken", user.Username))
	}
	if err != nil {
		return fmt.Errorf("error creating user: %w", err)
	}

	return nil
}
