package models

// Subject represents a subject a class teaches.
type Subject struct {
	ID          int64  `json:"id" db:"id"`
	SubjectCode string `json:"subjectCode" db:"subject_code" example:"INT3306"`
	SubjectName string `json:"subjectName" db:"subject_name"`
	Credits     int    `json:"credits" db:"credits"`
}

// Class represents one taught class based on the 'classes' table.
type Class struct {
	ID        int64  `json:"id" db:"id"`
	ClassCode string `json:"classCode" db:"class_code" example:"INT3306-1"`
	ClassName string `json:"className" db:"class_name"`
	SubjectID *int64 `json:"subjectId,omitempty" db:"subject_id"`
	TeacherID int64  `json:"teacherId" db:"teacher_id"`
	Semester  string `json:"semester" db:"semester" example:"HK1"`
	Year      int    `json:"year" db:"year"`

	Subject *Subject `json:"subject,omitempty"` // Relation, no db tag
	Teacher *Teacher `json:"teacher,omitempty"` // Relation, no db tag
}

// ClassSlot is a recurring weekly teaching occurrence of a class.
// DayOfWeek follows ISO-8601: 1 = Monday .. 7 = Sunday.
// Start/end times are clock strings in HH:MM:SS form; occurrence matching
// is exact equality on them.
type ClassSlot struct {
	ID        int64     `json:"id" db:"id"`
	ClassID   int64     `json:"classId" db:"class_id"`
	DayOfWeek int       `json:"dayOfWeek" db:"day_of_week" example:"2"`
	StartTime string    `json:"startTime" db:"start_time" example:"08:00:00"`
	EndTime   string    `json:"endTime" db:"end_time" example:"09:30:00"`
	Room      string    `json:"room" db:"room" example:"B1-204"`
	Mode      ClassMode `json:"mode" db:"mode"`
}

// ClassStudent is a student's enrollment in a class.
type ClassStudent struct {
	ID        int64 `json:"id" db:"id"`
	ClassID   int64 `json:"classId" db:"class_id"`
	StudentID int64 `json:"studentId" db:"student_id"`

	Class   *Class   `json:"class,omitempty"`   // Relation, no db tag
	Student *Student `json:"student,omitempty"` // Relation, no db tag
}
