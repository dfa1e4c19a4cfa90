package models

import (
	"time"
)

// User defines the user model based on the 'users' table
type User struct {
	ID        int64     `json:"id" db:"id" example:"1"`
	Username  string    `json:"username" db:"username" example:"SV001"`
	Password  string    `json:"-" db:"password"` // hashed, excluded from JSON
	RoleType  RoleType  `json:"roleType" db:"role_type" example:"STUDENT"`
	TeacherID *int64    `json:"teacherId,omitempty" db:"teacher_id"` // set when role = TEACHER
	StudentID *int64    `json:"studentId,omitempty" db:"student_id"` // set when role = STUDENT
	CreatedAt time.Time `json:"createdAt" db:"created_at"`

	Teacher *Teacher `json:"teacher,omitempty"` // Relation, no db tag
	Student *Student `json:"student,omitempty"` // Relation, no db tag
}

// Teacher defines the teacher profile based on the 'teachers' table
type Teacher struct {
	ID          int64   `json:"id" db:"id"`
	TeacherCode string  `json:"teacherCode" db:"teacher_code" example:"GV001"`
	FullName    string  `json:"fullName" db:"full_name"`
	Email       *string `json:"email,omitempty" db:"email"`
	Department  *string `json:"department,omitempty" db:"department"`
}

// Student defines the student profile based on the 'students' table
type Student struct {
	ID          int64   `json:"id" db:"id"`
	StudentCode string  `json:"studentCode" db:"student_code" example:"SV001"`
	FullName    string  `json:"fullName" db:"full_name"`
	Email       *string `json:"email,omitempty" db:"email"`
	Phone       *string `json:"phone,omitempty" db:"phone"`
	Year        *int    `json:"year,omitempty" db:"year"`
}
