package dto

// SubmitRequestRequest is the teacher-facing payload for creating or
// editing a leave/makeup request. The leave group applies when
// requestType is "leave", the original/makeup groups when it is
// "makeup".
type SubmitRequestRequest struct {
	RequestType string `json:"requestType" binding:"required,oneof=leave makeup" example:"leave"`
	Reason      string `json:"reason" binding:"required" example:"conference travel"`
	SubjectID   *int64 `json:"subjectId,omitempty" example:"5"`

	ClassID     *int64  `json:"classId,omitempty" example:"10"`
	RequestDate *string `json:"requestDate,omitempty" example:"2025-01-06"`
	StartTime   *string `json:"startTime,omitempty" example:"08:00:00"`
	EndTime     *string `json:"endTime,omitempty" example:"09:30:00"`

	OriginalClassID   *int64  `json:"originalClassId,omitempty" example:"10"`
	OriginalDate      *string `json:"originalDate,omitempty" example:"2025-01-06"`
	OriginalStartTime *string `json:"originalStartTime,omitempty" example:"08:00:00"`
	OriginalEndTime   *string `json:"originalEndTime,omitempty" example:"09:30:00"`

	MakeupClassID   *int64  `json:"makeupClassId,omitempty" example:"10"`
	MakeupDate      *string `json:"makeupDate,omitempty" example:"2025-01-11"`
	MakeupStartTime *string `json:"makeupStartTime,omitempty" example:"15:00:00"`
	MakeupEndTime   *string `json:"makeupEndTime,omitempty" example:"16:30:00"`
}

// DecideRequestRequest is the admin decision payload
type DecideRequestRequest struct {
	Status    string  `json:"status" binding:"required,oneof=approved rejected" example:"approved"`
	AdminNote *string `json:"adminNote,omitempty" example:"cover arranged"`
}
