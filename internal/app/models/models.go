package models

// RoleType defines the user role type
type RoleType string

const (
	RoleStudent RoleType = "STUDENT"
	RoleTeacher RoleType = "TEACHER"
	RoleAdmin   RoleType = "ADMIN"
)

// RequestType discriminates the two shapes of a teacher request.
type RequestType string

const (
	RequestLeave  RequestType = "leave"  // cancel one occurrence
	RequestMakeup RequestType = "makeup" // cancel one occurrence and replace it with another
)

// RequestStatus is the lifecycle state of a teacher request.
// pending -> approved | rejected; both of those are terminal.
type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestApproved RequestStatus = "approved"
	RequestRejected RequestStatus = "rejected"
)

// AttendanceStatus is the stored outcome of a student's check-in.
// Absence is normally derived from the lack of a record; StatusAbsent
// only appears when a teacher marks it explicitly.
type AttendanceStatus string

const (
	StatusPresent AttendanceStatus = "present"
	StatusLate    AttendanceStatus = "late"
	StatusAbsent  AttendanceStatus = "absent"
)

// CheckInSource identifies which path produced an attendance record.
type CheckInSource string

const (
	SourceRecognition CheckInSource = "recognition" // automatic, face-recognition gated
	SourceManual      CheckInSource = "manual"      // teacher/administrative entry
)

// ClassMode is how a class slot is delivered.
type ClassMode string

const (
	ModeOffline ClassMode = "offline"
	ModeOnline  ClassMode = "online"
)
