// Services defined in this package:
// - AuthService: Handles login and token issuance
// - ScheduleService: Resolves weekly slots against approved overrides
// - AttendanceService: Manages sessions, check-ins, and statistics
// - RequestService: Handles the leave/makeup request workflow
package services

import (
	"context"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/app/repositories"
)

// The store interfaces below name the repository methods each service
// actually uses. The concrete repositories satisfy them; tests swap in
// fakes.

// UserStore is the user lookup surface used by AuthService
type UserStore interface {
	GetByID(ctx context.Context, id int64) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetTeacherByID(ctx context.Context, id int64) (*models.Teacher, error)
	GetStudentByID(ctx context.Context, id int64) (*models.Student, error)
}

// ClassStore is the class/slot/enrollment surface used by the schedule,
// attendance, and request services
type ClassStore interface {
	GetByID(ctx context.Context, id int64) (*models.Class, error)
	ListSlotsForDay(ctx context.Context, classIDs []int64, dayOfWeek int) ([]*models.ClassSlot, error)
	FindSlot(ctx context.Context, classID int64, dayOfWeek int, startTime, endTime string) (*models.ClassSlot, error)
	ListClassIDsForStudent(ctx context.Context, studentID int64) ([]int64, error)
	ListClassIDsForTeacher(ctx context.Context, teacherID int64) ([]int64, error)
	IsStudentEnrolled(ctx context.Context, classID, studentID int64) (bool, error)
	ListStudents(ctx context.Context, classID int64) ([]*models.Student, error)
	FindStudentByCode(ctx context.Context, studentCode string) (*models.Student, error)
	ListOccurrencesForDay(ctx context.Context, classIDs []int64, date time.Time, dayOfWeek int) ([]*models.Occurrence, error)
}

// SubjectStore is the subject lookup surface used by RequestService
type SubjectStore interface {
	GetByID(ctx context.Context, id int64) (*models.Subject, error)
	List(ctx context.Context) ([]*models.Subject, error)
}

// RequestStore is the persistence surface of the request workflow and
// the approved-override lookups the resolver runs
type RequestStore interface {
	Create(ctx context.Context, req *models.TeacherRequest) error
	GetByID(ctx context.Context, id int64) (*models.TeacherRequest, error)
	ListByTeacher(ctx context.Context, teacherID int64, status *models.RequestStatus) ([]*models.TeacherRequest, error)
	ListByStatus(ctx context.Context, status models.RequestStatus) ([]*models.TeacherRequest, error)
	Update(ctx context.Context, req *models.TeacherRequest) (bool, error)
	Delete(ctx context.Context, id int64) (bool, error)
	Decide(ctx context.Context, id int64, status models.RequestStatus, adminNote *string, decidedBy int64) (bool, error)
	FindApprovedLeave(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error)
	FindApprovedMakeupByOriginal(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error)
	FindApprovedMakeupByMakeup(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error)
	ListApprovedMakeupsLandingOn(ctx context.Context, date time.Time, classIDs []int64) ([]*models.TeacherRequest, error)
}

// AttendanceStore is the persistence surface used by AttendanceService
type AttendanceStore interface {
	InsertSessionIfAbsent(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error)
	GetSessionByOccurrence(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (*models.AttendanceSession, error)
	GetSessionByID(ctx context.Context, id int64) (*models.AttendanceSession, error)
	ListSessionsForClass(ctx context.Context, classID int64) ([]*models.AttendanceSession, error)
	InsertRecordIfAbsent(ctx context.Context, record *models.AttendanceRecord) (bool, error)
	UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error
	GetRecord(ctx context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error)
	ListRecordsBySession(ctx context.Context, sessionID int64) (map[int64]*models.AttendanceRecord, error)
	ListRecordsForStudentInClass(ctx context.Context, classID, studentID int64) ([]*models.AttendanceRecord, error)
	CountStatusesForClass(ctx context.Context, classID int64) ([]repositories.StatusCount, error)
	CountSessionsForClass(ctx context.Context, classID int64) (int64, error)
}

// Compile-time checks that the concrete repositories satisfy the ports
var (
	_ UserStore       = (*repositories.UserRepository)(nil)
	_ ClassStore      = (*repositories.ClassRepository)(nil)
	_ SubjectStore    = (*repositories.SubjectRepository)(nil)
	_ RequestStore    = (*repositories.RequestRepository)(nil)
	_ AttendanceStore = (*repositories.AttendanceRepository)(nil)
)
