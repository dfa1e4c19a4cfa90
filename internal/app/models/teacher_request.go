package models

import "time"

// TeacherRequest is a leave or makeup request submitted by a teacher.
// Two shapes share this row, discriminated by RequestType:
//   - leave:  ClassID/RequestDate/StartTime/EndTime describe the occurrence
//     being cancelled.
//   - makeup: the Original* group describes the occurrence being cancelled
//     and the Makeup* group the occurrence replacing it. The two classes may
//     differ.
//
// A request is mutable only while Status is pending; approval or rejection
// freezes it into read-only history.
type TeacherRequest struct {
	ID          int64       `json:"id" db:"id"`
	TeacherID   int64       `json:"teacherId" db:"teacher_id"`
	RequestType RequestType `json:"requestType" db:"request_type"`
	Reason      string      `json:"reason" db:"reason"`
	SubjectID   *int64      `json:"subjectId,omitempty" db:"subject_id"`

	// leave shape
	ClassID     *int64     `json:"classId,omitempty" db:"class_id"`
	RequestDate *time.Time `json:"requestDate,omitempty" db:"request_date"`
	StartTime   *string    `json:"startTime,omitempty" db:"start_time"`
	EndTime     *string    `json:"endTime,omitempty" db:"end_time"`

	// makeup shape: occurrence being cancelled
	OriginalClassID   *int64     `json:"originalClassId,omitempty" db:"original_class_id"`
	OriginalDate      *time.Time `json:"originalDate,omitempty" db:"original_date"`
	OriginalStartTime *string    `json:"originalStartTime,omitempty" db:"original_start_time"`
	OriginalEndTime   *string    `json:"originalEndTime,omitempty" db:"original_end_time"`

	// makeup shape: replacement occurrence
	MakeupClassID   *int64     `json:"makeupClassId,omitempty" db:"makeup_class_id"`
	MakeupDate      *time.Time `json:"makeupDate,omitempty" db:"makeup_date"`
	MakeupStartTime *string    `json:"makeupStartTime,omitempty" db:"makeup_start_time"`
	MakeupEndTime   *string    `json:"makeupEndTime,omitempty" db:"makeup_end_time"`

	Status     RequestStatus `json:"status" db:"status"`
	AdminNote  *string       `json:"adminNote,omitempty" db:"admin_note"`
	ApprovedBy *int64        `json:"approvedBy,omitempty" db:"approved_by"`
	CreatedAt  time.Time     `json:"createdAt" db:"created_at"`
	UpdatedAt  *time.Time    `json:"updatedAt,omitempty" db:"updated_at"`

	Teacher       *Teacher `json:"teacher,omitempty"`       // Relation, no db tag
	Class         *Class   `json:"class,omitempty"`         // Relation, no db tag
	OriginalClass *Class   `json:"originalClass,omitempty"` // Relation, no db tag
	MakeupClass   *Class   `json:"makeupClass,omitempty"`   // Relation, no db tag
	Subject       *Subject `json:"subject,omitempty"`       // Relation, no db tag
}

// IsPending reports whether the request can still be edited or deleted.
func (r *TeacherRequest) IsPending() bool {
	return r.Status == RequestPending
}
