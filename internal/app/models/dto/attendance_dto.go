package dto

// MarkAttendanceRequest is the manual-marking payload. The occurrence
// fields identify (and lazily create) the session being marked.
type MarkAttendanceRequest struct {
	ClassID   int64  `json:"classId" binding:"required" example:"10"`
	Date      string `json:"date" binding:"required" example:"2025-01-06"`
	StartTime string `json:"startTime" binding:"required" example:"08:00:00"`
	EndTime   string `json:"endTime" binding:"required" example:"09:30:00"`
	StudentID int64  `json:"studentId" binding:"required" example:"100"`
	Status    string `json:"status" binding:"required,oneof=present late absent" example:"present"`
}

// CreateSessionRequest identifies the occurrence a session should be
// opened for
type CreateSessionRequest struct {
	ClassID   int64  `json:"classId" binding:"required" example:"10"`
	Date      string `json:"date" binding:"required" example:"2025-01-06"`
	StartTime string `json:"startTime" binding:"required" example:"08:00:00"`
	EndTime   string `json:"endTime" binding:"required" example:"09:30:00"`
}
