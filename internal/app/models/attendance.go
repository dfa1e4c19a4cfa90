package models

import "time"

// AttendanceSession is the attendance-taking unit for one concrete
// occurrence of a class. At most one session exists per
// (class, date, start, end); it is created lazily on the first check-in
// and never deleted by normal flow.
type AttendanceSession struct {
	ID          int64     `json:"id" db:"id"`
	ClassID     int64     `json:"classId" db:"class_id"`
	SessionDate time.Time `json:"sessionDate" db:"session_date"`
	StartTime   string    `json:"startTime" db:"start_time" example:"08:00:00"`
	EndTime     string    `json:"endTime" db:"end_time" example:"09:30:00"`
	CreatedBy   *int64    `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`

	Class *Class `json:"class,omitempty"` // Relation, no db tag
}

// AttendanceRecord is one student's outcome within a session. At most one
// record exists per (session, student); a missing record means absent.
type AttendanceRecord struct {
	ID          int64            `json:"id" db:"id"`
	SessionID   int64            `json:"sessionId" db:"session_id"`
	StudentID   int64            `json:"studentId" db:"student_id"`
	Status      AttendanceStatus `json:"status" db:"status"`
	CheckInTime *time.Time       `json:"checkInTime,omitempty" db:"check_in_time"`
	Confidence  *float64         `json:"confidence,omitempty" db:"confidence"` // recognition path only
	Source      CheckInSource    `json:"source" db:"source"`
	CreatedAt   time.Time        `json:"createdAt" db:"created_at"`
	UpdatedAt   *time.Time       `json:"updatedAt,omitempty" db:"updated_at"`

	Student *Student           `json:"student,omitempty"` // Relation, no db tag
	Session *AttendanceSession `json:"session,omitempty"` // Relation, no db tag
}
