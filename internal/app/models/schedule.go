package models

import "time"

// VerdictKind classifies what an approved request does to one calendar
// occurrence of a class.
type VerdictKind string

const (
	VerdictNormal    VerdictKind = "normal"    // no approved request touches the occurrence
	VerdictCancelled VerdictKind = "cancelled" // a leave request, or the original side of a makeup
	VerdictRelocated VerdictKind = "relocated" // the makeup side of a makeup request
)

// OccurrenceRef points at one concrete (class, date, interval) occurrence.
// Used by a Verdict to carry the counterpart of a relocation.
type OccurrenceRef struct {
	ClassID   int64     `json:"classId"`
	ClassName string    `json:"className,omitempty"`
	Date      time.Time `json:"date"`
	StartTime string    `json:"startTime"`
	EndTime   string    `json:"endTime"`
}

// Verdict is the resolver's classification of an occurrence.
type Verdict struct {
	Kind   VerdictKind `json:"kind"`
	Reason string      `json:"reason,omitempty"`
	// RelocatedTo is set on a cancelled verdict produced by a makeup
	// request: where the occurrence moved.
	RelocatedTo *OccurrenceRef `json:"relocatedTo,omitempty"`
	// RelocatedFrom is set on a relocated verdict: the occurrence this
	// one replaces.
	RelocatedFrom *OccurrenceRef `json:"relocatedFrom,omitempty"`
}

// Normal is the verdict for an untouched occurrence.
func NormalVerdict() Verdict {
	return Verdict{Kind: VerdictNormal}
}

// Occurrence is one concrete calendar instance of a class on a specific
// date, annotated with its resolution verdict.
type Occurrence struct {
	ClassID     int64     `json:"classId"`
	ClassCode   string    `json:"classCode"`
	ClassName   string    `json:"className"`
	SubjectName *string   `json:"subjectName,omitempty"`
	TeacherName *string   `json:"teacherName,omitempty"`
	Date        time.Time `json:"date"`
	DayOfWeek   int       `json:"dayOfWeek"`
	StartTime   string    `json:"startTime"`
	EndTime     string    `json:"endTime"`
	Room        string    `json:"room"`
	Mode        ClassMode `json:"mode"`
	Verdict     Verdict   `json:"verdict"`
}
