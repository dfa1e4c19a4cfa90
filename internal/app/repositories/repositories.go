package repositories

import (
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repositories holds all the repository instances
type Repositories struct {
	UserRepository       *UserRepository
	ClassRepository      *ClassRepository
	SubjectRepository    *SubjectRepository
	RequestRepository    *RequestRepository
	AttendanceRepository *AttendanceRepository
}

// NewRepositories initializes all repositories
func NewRepositories(db *pgxpool.Pool) *Repositories {
	return &Repositories{
		UserRepository:       NewUserRepository(db),
		ClassRepository:      NewClassRepository(db),
		SubjectRepository:    NewSubjectRepository(db),
		RequestRepository:    NewRequestRepository(db),
		AttendanceRepository: NewAttendanceRepository(db),
	}
}
