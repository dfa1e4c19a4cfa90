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

// ClassRepository handles database operations for classes, their weekly
// slots, and enrollments
type ClassRepository struct {
	db *pgxpool.Pool
}

// NewClassRepository creates a new class repository
func NewClassRepository(db *pgxpool.Pool) *ClassRepository {
	return &ClassRepository{
		db: db,
	}
}

// GetByID retrieves a class by ID with its subject and teacher names, or
// nil when no such class exists
func (r *ClassRepository) GetByID(ctx context.Context, id int64) (*models.Class, error) {
	query := `
		SELECT c.id, c.class_code, c.class_name, c.subject_id, c.teacher_id, c.semester, c.year,
		       s.subject_code, s.subject_name,
		       t.id, t.teacher_code, t.full_name
		FROM classes c
		LEFT JOIN subjects s ON s.id = c.subject_id
		JOIN teachers t ON t.id = c.teacher_id
		WHERE c.id = $1
	`

	var class models.Class
	var subjectCode, subjectName *string
	var teacher models.Teacher
	err := r.db.QueryRow(ctx, query, id).Scan(
		&class.ID,
		&class.ClassCode,
		&class.ClassName,
		&class.SubjectID,
		&class.TeacherID,
		&class.Semester,
		&class.Year,
		&subjectCode,
		&subjectName,
		&teacher.ID,
		&teacher.TeacherCode,
		&teacher.FullName,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving class: %w", err)
	}

	if class.SubjectID != nil && subjectCode != nil && subjectName != nil {
		class.Subject = &models.Subject{
			ID:          *class.SubjectID,
			SubjectCode: *subjectCode,
			SubjectName: *subjectName,
		}
	}
	class.Teacher = &teacher

	return &class, nil
}

// ListSlotsForDay retrieves the weekly slots that fall on the given ISO
// weekday (1=Monday .. 7=Sunday) for the given class IDs
func (r *ClassRepository) ListSlotsForDay(ctx context.Context, classIDs []int64, dayOfWeek int) ([]*models.ClassSlot, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT id, class_id, day_of_week, start_time, end_time, room, mode
		FROM class_slots
		WHERE class_id = ANY($1) AND day_of_week = $2
		ORDER BY start_time, class_id
	`

	rows, err := r.db.Query(ctx, query, classIDs, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("error listing class slots: %w", err)
	}
	defer rows.Close()

	var slots []*models.ClassSlot
	for rows.Next() {
		var slot models.ClassSlot
		if err := rows.Scan(
			&slot.ID,
			&slot.ClassID,
			&slot.DayOfWeek,
			&slot.StartTime,
			&slot.EndTime,
			&slot.Room,
			&slot.Mode,
		); err != nil {
			return nil, fmt.Errorf("error scanning class slot: %w", err)
		}
		slots = append(slots, &slot)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class slots: %w", err)
	}

	return slots, nil
}

// FindSlot retrieves the weekly slot of a class that matches the given
// weekday and time window exactly, or nil when none matches
func (r *ClassRepository) FindSlot(ctx context.Context, classID int64, dayOfWeek int, startTime, endTime string) (*models.ClassSlot, error) {
	query := `
		SELECT id, class_id, day_of_week, start_time, end_time, room, mode
		FROM class_slots
		WHERE class_id = $1 AND day_of_week = $2 AND start_time = $3 AND end_time = $4
	`

	var slot models.ClassSlot
	err := r.db.QueryRow(ctx, query, classID, dayOfWeek, startTime, endTime).Scan(
		&slot.ID,
		&slot.ClassID,
		&slot.DayOfWeek,
		&slot.StartTime,
		&slot.EndTime,
		&slot.Room,
		&slot.Mode,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error retrieving class slot: %w", err)
	}

	return &slot, nil
}

// ListClassIDsForStudent retrieves the IDs of the classes a student is
// enrolled in
func (r *ClassRepository) ListClassIDsForStudent(ctx context.Context, studentID int64) ([]int64, error) {
	query := `
		SELECT class_id
		FROM class_students
		WHERE student_id = $1
	`

	rows, err := r.db.Query(ctx, query, studentID)
	if err != nil {
		return nil, fmt.Errorf("error listing enrollments: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning enrollment: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating enrollments: %w", err)
	}

	return ids, nil
}

// ListClassIDsForTeacher retrieves the IDs of the classes a teacher owns
func (r *ClassRepository) ListClassIDsForTeacher(ctx context.Context, teacherID int64) ([]int64, error) {
	query := `
		SELECT id
		FROM classes
		WHERE teacher_id = $1
	`

	rows, err := r.db.Query(ctx, query, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error listing teacher classes: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("error scanning class id: %w", err)
		}
		ids = append(ids, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating teacher classes: %w", err)
	}

	return ids, nil
}

// IsStudentEnrolled reports whether the student is enrolled in the class
func (r *ClassRepository) IsStudentEnrolled(ctx context.Context, classID, studentID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM class_students WHERE class_id = $1 AND student_id = $2
		)
	`

	var enrolled bool
	if err := r.db.QueryRow(ctx, query, classID, studentID).Scan(&enrolled); err != nil {
		return false, fmt.Errorf("error checking enrollment: %w", err)
	}

	return enrolled, nil
}

// ListStudents retrieves the students enrolled in a class ordered by
// student code
func (r *ClassRepository) ListStudents(ctx context.Context, classID int64) ([]*models.Student, error) {
	query := `
		SELECT s.id, s.student_code, s.full_name, s.email, s.phone, s.year
		FROM students s
		JOIN class_students cs ON cs.student_id = s.id
		WHERE cs.class_id = $1
		ORDER BY s.student_code
	`

	rows, err := r.db.Query(ctx, query, classID)
	if err != nil {
		return nil, fmt.Errorf("error listing class students: %w", err)
	}
	defer rows.Close()

	var students []*models.Student
	for rows.Next() {
		var student models.Student
		if err := rows.Scan(
			&student.ID,
			&student.StudentCode,
			&student.FullName,
			&student.Email,
			&student.Phone,
			&student.Year,
		); err != nil {
			return nil, fmt.Errorf("error scanning student: %w", err)
		}
		students = append(students, &student)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating class students: %w", err)
	}

	return students, nil
}

// FindStudentByCode retrieves a student by student code, or nil when
// no such student exists
func (r *ClassRepository) FindStudentByCode(ctx context.Context, studentCode string) (*models.Student, error) {
	query := `
		SELECT id, student_code, full_name, email, phone, year
		FROM students
		WHERE student_code = $1
	`

	var student models.Student
	err := r.db.QueryRow(ctx, query, studentCode).Scan(
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
		return nil, fmt.Errorf("error retrieving student by code: %w", err)
	}

	return &student, nil
}

// ListOccurrencesForDay builds the raw (unresolved) occurrences of the
// given classes on the given date from their weekly slots
func (r *ClassRepository) ListOccurrencesForDay(ctx context.Context, classIDs []int64, date time.Time, dayOfWeek int) ([]*models.Occurrence, error) {
	if len(classIDs) == 0 {
		return nil, nil
	}

	query := `
		SELECT c.id, c.class_code, c.class_name, s.subject_name, t.full_name,
		       cs.start_time, cs.end_time, cs.room, cs.mode
		FROM class_slots cs
		JOIN classes c ON c.id = cs.class_id
		LEFT JOIN subjects s ON s.id = c.subject_id
		JOIN teachers t ON t.id = c.teacher_id
		WHERE cs.class_id = ANY($1) AND cs.day_of_week = $2
		ORDER BY cs.start_time, c.class_code
	`

	rows, err := r.db.Query(ctx, query, classIDs, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("error listing day occurrences: %w", err)
	}
	defer rows.Close()

	var occurrences []*models.Occurrence
	for rows.Next() {
		occ := models.Occurrence{
			Date:      date,
			DayOfWeek: dayOfWeek,
			Verdict:   models.NormalVerdict(),
		}
		if err := rows.Scan(
			&occ.ClassID,
			&occ.ClassCode,
			&occ.ClassName,
			&occ.SubjectName,
			&occ.TeacherName,
			&occ.StartTime,
			&occ.EndTime,
			&occ.Room,
			&occ.Mode,
		); err != nil {
			return nil, fmt.Errorf("error scanning day occurrence: %w", err)
		}
		occurrences = append(occurrences, &occ)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating day occurrences: %w", err)
	}

	return occurrences, nil
}
