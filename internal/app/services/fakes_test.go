package services

import (
	"context"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/app/repositories"
	"github.com/minhvu/attendly/internal/pkg/helpers"
	"github.com/minhvu/attendly/internal/pkg/recognizer"
)

// In-memory stores backing the service tests.

type fakeClassStore struct {
	classes  map[int64]*models.Class
	slots    []*models.ClassSlot
	students map[int64]*models.Student
	enrolled map[int64][]int64 // classID -> studentIDs
}

func newFakeClassStore() *fakeClassStore {
	return &fakeClassStore{
		classes:  make(map[int64]*models.Class),
		students: make(map[int64]*models.Student),
		enrolled: make(map[int64][]int64),
	}
}

func (f *fakeClassStore) GetByID(_ context.Context, id int64) (*models.Class, error) {
	return f.classes[id], nil
}

func (f *fakeClassStore) ListSlotsForDay(_ context.Context, classIDs []int64, dayOfWeek int) ([]*models.ClassSlot, error) {
	var out []*models.ClassSlot
	for _, slot := range f.slots {
		if slot.DayOfWeek != dayOfWeek {
			continue
		}
		for _, id := range classIDs {
			if slot.ClassID == id {
				out = append(out, slot)
				break
			}
		}
	}
	return out, nil
}

func (f *fakeClassStore) FindSlot(_ context.Context, classID int64, dayOfWeek int, startTime, endTime string) (*models.ClassSlot, error) {
	for _, slot := range f.slots {
		if slot.ClassID == classID && slot.DayOfWeek == dayOfWeek && slot.StartTime == startTime && slot.EndTime == endTime {
			return slot, nil
		}
	}
	return nil, nil
}

func (f *fakeClassStore) ListClassIDsForStudent(_ context.Context, studentID int64) ([]int64, error) {
	var ids []int64
	for classID, students := range f.enrolled {
		for _, id := range students {
			if id == studentID {
				ids = append(ids, classID)
				break
			}
		}
	}
	return ids, nil
}

func (f *fakeClassStore) ListClassIDsForTeacher(_ context.Context, teacherID int64) ([]int64, error) {
	var ids []int64
	for id, class := range f.classes {
		if class.TeacherID == teacherID {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeClassStore) IsStudentEnrolled(_ context.Context, classID, studentID int64) (bool, error) {
	for _, id := range f.enrolled[classID] {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeClassStore) ListStudents(_ context.Context, classID int64) ([]*models.Student, error) {
	var out []*models.Student
	for _, id := range f.enrolled[classID] {
		if s, ok := f.students[id]; ok {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeClassStore) FindStudentByCode(_ context.Context, studentCode string) (*models.Student, error) {
	for _, s := range f.students {
		if s.StudentCode == studentCode {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeClassStore) ListOccurrencesForDay(ctx context.Context, classIDs []int64, date time.Time, dayOfWeek int) ([]*models.Occurrence, error) {
	slots, _ := f.ListSlotsForDay(ctx, classIDs, dayOfWeek)
	var out []*models.Occurrence
	for _, slot := range slots {
		class := f.classes[slot.ClassID]
		occ := &models.Occurrence{
			ClassID:   slot.ClassID,
			Date:      date,
			DayOfWeek: dayOfWeek,
			StartTime: slot.StartTime,
			EndTime:   slot.EndTime,
			Room:      slot.Room,
			Mode:      slot.Mode,
			Verdict:   models.NormalVerdict(),
		}
		if class != nil {
			occ.ClassCode = class.ClassCode
			occ.ClassName = class.ClassName
		}
		out = append(out, occ)
	}
	return out, nil
}

type fakeRequestStore struct {
	requests []*models.TeacherRequest
	nextID   int64
}

func newFakeRequestStore() *fakeRequestStore {
	return &fakeRequestStore{nextID: 1}
}

func (f *fakeRequestStore) Create(_ context.Context, req *models.TeacherRequest) error {
	req.ID = f.nextID
	f.nextID++
	req.CreatedAt = time.Now()
	f.requests = append(f.requests, req)
	return nil
}

func (f *fakeRequestStore) GetByID(_ context.Context, id int64) (*models.TeacherRequest, error) {
	for _, req := range f.requests {
		if req.ID == id {
			return req, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) ListByTeacher(_ context.Context, teacherID int64, status *models.RequestStatus) ([]*models.TeacherRequest, error) {
	var out []*models.TeacherRequest
	for _, req := range f.requests {
		if req.TeacherID != teacherID {
			continue
		}
		if status != nil && req.Status != *status {
			continue
		}
		out = append(out, req)
	}
	return out, nil
}

func (f *fakeRequestStore) ListByStatus(_ context.Context, status models.RequestStatus) ([]*models.TeacherRequest, error) {
	var out []*models.TeacherRequest
	for _, req := range f.requests {
		if req.Status == status {
			out = append(out, req)
		}
	}
	return out, nil
}

func (f *fakeRequestStore) Update(_ context.Context, updated *models.TeacherRequest) (bool, error) {
	for i, req := range f.requests {
		if req.ID == updated.ID && req.Status == models.RequestPending {
			f.requests[i] = updated
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) Delete(_ context.Context, id int64) (bool, error) {
	for i, req := range f.requests {
		if req.ID == id && req.Status == models.RequestPending {
			f.requests = append(f.requests[:i], f.requests[i+1:]...)
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) Decide(_ context.Context, id int64, status models.RequestStatus, adminNote *string, decidedBy int64) (bool, error) {
	for _, req := range f.requests {
		if req.ID == id && req.Status == models.RequestPending {
			req.Status = status
			req.AdminNote = adminNote
			req.ApprovedBy = &decidedBy
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeRequestStore) FindApprovedLeave(_ context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	for _, req := range f.requests {
		if req.RequestType == models.RequestLeave && req.Status == models.RequestApproved &&
			req.ClassID != nil && *req.ClassID == classID &&
			req.RequestDate != nil && req.RequestDate.Equal(date) &&
			req.StartTime != nil && *req.StartTime == startTime &&
			req.EndTime != nil && *req.EndTime == endTime {
			return req, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) FindApprovedMakeupByOriginal(_ context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	for _, req := range f.requests {
		if req.RequestType == models.RequestMakeup && req.Status == models.RequestApproved &&
			req.OriginalClassID != nil && *req.OriginalClassID == classID &&
			req.OriginalDate != nil && req.OriginalDate.Equal(date) &&
			req.OriginalStartTime != nil && *req.OriginalStartTime == startTime &&
			req.OriginalEndTime != nil && *req.OriginalEndTime == endTime {
			return req, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) FindApprovedMakeupByMakeup(_ context.Context, classID int64, date time.Time, startTime, endTime string) (*models.TeacherRequest, error) {
	for _, req := range f.requests {
		if req.RequestType == models.RequestMakeup && req.Status == models.RequestApproved &&
			req.MakeupClassID != nil && *req.MakeupClassID == classID &&
			req.MakeupDate != nil && req.MakeupDate.Equal(date) &&
			req.MakeupStartTime != nil && *req.MakeupStartTime == startTime &&
			req.MakeupEndTime != nil && *req.MakeupEndTime == endTime {
			return req, nil
		}
	}
	return nil, nil
}

func (f *fakeRequestStore) ListApprovedMakeupsLandingOn(_ context.Context, date time.Time, classIDs []int64) ([]*models.TeacherRequest, error) {
	var out []*models.TeacherRequest
	for _, req := range f.requests {
		if req.RequestType != models.RequestMakeup || req.Status != models.RequestApproved {
			continue
		}
		if req.MakeupDate == nil || !req.MakeupDate.Equal(date) || req.MakeupClassID == nil {
			continue
		}
		for _, id := range classIDs {
			if *req.MakeupClassID == id {
				out = append(out, req)
				break
			}
		}
	}
	return out, nil
}

type fakeAttendanceStore struct {
	sessions      []*models.AttendanceSession
	records       []*models.AttendanceRecord
	nextSessionID int64
	nextRecordID  int64
}

func newFakeAttendanceStore() *fakeAttendanceStore {
	return &fakeAttendanceStore{nextSessionID: 1, nextRecordID: 1}
}

func (f *fakeAttendanceStore) InsertSessionIfAbsent(ctx context.Context, session *models.AttendanceSession) (*models.AttendanceSession, error) {
	if existing, _ := f.GetSessionByOccurrence(ctx, session.ClassID, session.SessionDate, session.StartTime, session.EndTime); existing != nil {
		return existing, nil
	}
	session.ID = f.nextSessionID
	f.nextSessionID++
	session.CreatedAt = time.Now()
	f.sessions = append(f.sessions, session)
	return session, nil
}

func (f *fakeAttendanceStore) GetSessionByOccurrence(_ context.Context, classID int64, date time.Time, startTime, endTime string) (*models.AttendanceSession, error) {
	for _, s := range f.sessions {
		if s.ClassID == classID && s.SessionDate.Equal(helpers.DateOnly(date)) && s.StartTime == startTime && s.EndTime == endTime {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceStore) GetSessionByID(_ context.Context, id int64) (*models.AttendanceSession, error) {
	for _, s := range f.sessions {
		if s.ID == id {
			return s, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceStore) ListSessionsForClass(_ context.Context, classID int64) ([]*models.AttendanceSession, error) {
	var out []*models.AttendanceSession
	for _, s := range f.sessions {
		if s.ClassID == classID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) InsertRecordIfAbsent(ctx context.Context, record *models.AttendanceRecord) (bool, error) {
	if existing, _ := f.GetRecord(ctx, record.SessionID, record.StudentID); existing != nil {
		return false, nil
	}
	record.ID = f.nextRecordID
	f.nextRecordID++
	record.CreatedAt = time.Now()
	f.records = append(f.records, record)
	return true, nil
}

func (f *fakeAttendanceStore) UpsertRecord(ctx context.Context, record *models.AttendanceRecord) error {
	for i, existing := range f.records {
		if existing.SessionID == record.SessionID && existing.StudentID == record.StudentID {
			record.ID = existing.ID
			record.CreatedAt = existing.CreatedAt
			now := time.Now()
			record.UpdatedAt = &now
			f.records[i] = record
			return nil
		}
	}
	record.ID = f.nextRecordID
	f.nextRecordID++
	record.CreatedAt = time.Now()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeAttendanceStore) GetRecord(_ context.Context, sessionID, studentID int64) (*models.AttendanceRecord, error) {
	for _, r := range f.records {
		if r.SessionID == sessionID && r.StudentID == studentID {
			return r, nil
		}
	}
	return nil, nil
}

func (f *fakeAttendanceStore) ListRecordsBySession(_ context.Context, sessionID int64) (map[int64]*models.AttendanceRecord, error) {
	out := make(map[int64]*models.AttendanceRecord)
	for _, r := range f.records {
		if r.SessionID == sessionID {
			out[r.StudentID] = r
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) ListRecordsForStudentInClass(ctx context.Context, classID, studentID int64) ([]*models.AttendanceRecord, error) {
	var out []*models.AttendanceRecord
	for _, r := range f.records {
		if r.StudentID != studentID {
			continue
		}
		session, _ := f.GetSessionByID(ctx, r.SessionID)
		if session != nil && session.ClassID == classID {
			r.Session = session
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeAttendanceStore) CountStatusesForClass(ctx context.Context, classID int64) ([]repositories.StatusCount, error) {
	counts := make(map[models.AttendanceStatus]int64)
	for _, r := range f.records {
		session, _ := f.GetSessionByID(ctx, r.SessionID)
		if session != nil && session.ClassID == classID {
			counts[r.Status]++
		}
	}
	var out []repositories.StatusCount
	for status, count := range counts {
		out = append(out, repositories.StatusCount{Status: status, Count: count})
	}
	return out, nil
}

func (f *fakeAttendanceStore) CountSessionsForClass(_ context.Context, classID int64) (int64, error) {
	var count int64
	for _, s := range f.sessions {
		if s.ClassID == classID {
			count++
		}
	}
	return count, nil
}

type fakeRecognizer struct {
	ident *recognizer.Identification
	err   error
	ready bool
}

func (f *fakeRecognizer) Recognize(context.Context, []byte) (*recognizer.Identification, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.ident, nil
}

func (f *fakeRecognizer) Ready() bool {
	return f.ready
}
