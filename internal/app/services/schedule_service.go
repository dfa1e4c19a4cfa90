package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/minhvu/attendly/internal/app/models"
	"github.com/minhvu/attendly/internal/pkg/cache"
	"github.com/minhvu/attendly/internal/pkg/helpers"
)

// ScheduleService resolves the weekly timetable against approved leave
// and makeup requests. A day schedule is the weekly slots of the
// caller's classes, each annotated with a verdict, plus any makeup
// occurrences landing on that day.
type ScheduleService struct {
	classStore   ClassStore
	requestStore RequestStore
	cache        *cache.ScheduleCache
}

// NewScheduleService creates a new schedule service. The cache may be
// nil, which disables caching.
func NewScheduleService(classStore ClassStore, requestStore RequestStore, scheduleCache *cache.ScheduleCache) *ScheduleService {
	return &ScheduleService{
		classStore:   classStore,
		requestStore: requestStore,
		cache:        scheduleCache,
	}
}

// ResolveOccurrence classifies one concrete occurrence. Approved
// requests are checked in a fixed order and the first match wins:
//
//  1. a leave request naming the occurrence cancels it
//  2. a makeup request whose original side names it cancels it and
//     points at the replacement
//  3. a makeup request whose makeup side names it marks it relocated
//     from the original
//
// All matching is exact on (class, date, start, end).
func (s *ScheduleService) ResolveOccurrence(ctx context.Context, classID int64, date time.Time, startTime, endTime string) (models.Verdict, error) {
	date = helpers.DateOnly(date)

	leave, err := s.requestStore.FindApprovedLeave(ctx, classID, date, startTime, endTime)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("error resolving occurrence: %w", err)
	}
	if leave != nil {
		return models.Verdict{
			Kind:   models.VerdictCancelled,
			Reason: leave.Reason,
		}, nil
	}

	byOriginal, err := s.requestStore.FindApprovedMakeupByOriginal(ctx, classID, date, startTime, endTime)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("error resolving occurrence: %w", err)
	}
	if byOriginal != nil {
		return models.Verdict{
			Kind:        models.VerdictCancelled,
			Reason:      byOriginal.Reason,
			RelocatedTo: s.makeupRef(ctx, byOriginal),
		}, nil
	}

	byMakeup, err := s.requestStore.FindApprovedMakeupByMakeup(ctx, classID, date, startTime, endTime)
	if err != nil {
		return models.Verdict{}, fmt.Errorf("error resolving occurrence: %w", err)
	}
	if byMakeup != nil {
		return models.Verdict{
			Kind:          models.VerdictRelocated,
			Reason:        byMakeup.Reason,
			RelocatedFrom: s.originalRef(ctx, byMakeup),
		}, nil
	}

	return models.NormalVerdict(), nil
}

func (s *ScheduleService) makeupRef(ctx context.Context, req *models.TeacherRequest) *models.OccurrenceRef {
	if req.MakeupClassID == nil || req.MakeupDate == nil || req.MakeupStartTime == nil || req.MakeupEndTime == nil {
		return nil
	}
	return &models.OccurrenceRef{
		ClassID:   *req.MakeupClassID,
		ClassName: s.className(ctx, *req.MakeupClassID),
		Date:      *req.MakeupDate,
		StartTime: *req.MakeupStartTime,
		EndTime:   *req.MakeupEndTime,
	}
}

func (s *ScheduleService) originalRef(ctx context.Context, req *models.TeacherRequest) *models.OccurrenceRef {
	if req.OriginalClassID == nil || req.OriginalDate == nil || req.OriginalStartTime == nil || req.OriginalEndTime == nil {
		return nil
	}
	return &models.OccurrenceRef{
		ClassID:   *req.OriginalClassID,
		ClassName: s.className(ctx, *req.OriginalClassID),
		Date:      *req.OriginalDate,
		StartTime: *req.OriginalStartTime,
		EndTime:   *req.OriginalEndTime,
	}
}

// className is best-effort decoration for occurrence refs
func (s *ScheduleService) className(ctx context.Context, classID int64) string {
	class, err := s.classStore.GetByID(ctx, classID)
	if err != nil || class == nil {
		return ""
	}
	return class.ClassName
}

// DayScheduleForStudent builds the resolved schedule of a student's
// enrolled classes on a date
func (s *ScheduleService) DayScheduleForStudent(ctx context.Context, studentID int64, date time.Time) ([]*models.Occurrence, error) {
	date = helpers.DateOnly(date)

	if cached, ok := s.cache.GetDaySchedule(ctx, "student", studentID, date); ok {
		return cached, nil
	}

	classIDs, err := s.classStore.ListClassIDsForStudent(ctx, studentID)
	if err != nil {
		return nil, fmt.Errorf("error building day schedule: %w", err)
	}

	occurrences, err := s.daySchedule(ctx, classIDs, date)
	if err != nil {
		return nil, err
	}

	s.cache.SetDaySchedule(ctx, "student", studentID, date, occurrences)
	return occurrences, nil
}

// DayScheduleForTeacher builds the resolved schedule of a teacher's
// classes on a date
func (s *ScheduleService) DayScheduleForTeacher(ctx context.Context, teacherID int64, date time.Time) ([]*models.Occurrence, error) {
	date = helpers.DateOnly(date)

	if cached, ok := s.cache.GetDaySchedule(ctx, "teacher", teacherID, date); ok {
		return cached, nil
	}

	classIDs, err := s.classStore.ListClassIDsForTeacher(ctx, teacherID)
	if err != nil {
		return nil, fmt.Errorf("error building day schedule: %w", err)
	}

	occurrences, err := s.daySchedule(ctx, classIDs, date)
	if err != nil {
		return nil, err
	}

	s.cache.SetDaySchedule(ctx, "teacher", teacherID, date, occurrences)
	return occurrences, nil
}

func (s *ScheduleService) daySchedule(ctx context.Context, classIDs []int64, date time.Time) ([]*models.Occurrence, error) {
	dayOfWeek := helpers.ISOWeekday(date)

	occurrences, err := s.classStore.ListOccurrencesForDay(ctx, classIDs, date, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("error building day schedule: %w", err)
	}

	seen := make(map[string]bool, len(occurrences))
	for _, occ := range occurrences {
		verdict, err := s.ResolveOccurrence(ctx, occ.ClassID, date, occ.StartTime, occ.EndTime)
		if err != nil {
			return nil, err
		}
		occ.Verdict = verdict
		seen[occurrenceKey(occ.ClassID, occ.StartTime, occ.EndTime)] = true
	}

	extra, err := s.additionalOccurrences(ctx, classIDs, date, dayOfWeek, seen)
	if err != nil {
		return nil, err
	}
	occurrences = append(occurrences, extra...)

	sort.SliceStable(occurrences, func(i, j int) bool {
		if occurrences[i].StartTime != occurrences[j].StartTime {
			return occurrences[i].StartTime < occurrences[j].StartTime
		}
		return occurrences[i].ClassCode < occurrences[j].ClassCode
	})

	return occurrences, nil
}

// additionalOccurrences adds makeup occurrences landing on the date that
// no weekly slot already produces. A makeup coinciding with an existing
// slot of the same class at the same interval is not duplicated; the
// slot occurrence already carries the relocated verdict.
func (s *ScheduleService) additionalOccurrences(ctx context.Context, classIDs []int64, date time.Time, dayOfWeek int, seen map[string]bool) ([]*models.Occurrence, error) {
	makeups, err := s.requestStore.ListApprovedMakeupsLandingOn(ctx, date, classIDs)
	if err != nil {
		return nil, fmt.Errorf("error listing makeup occurrences: %w", err)
	}

	var extra []*models.Occurrence
	for _, req := range makeups {
		if req.MakeupClassID == nil || req.MakeupStartTime == nil || req.MakeupEndTime == nil {
			continue
		}
		key := occurrenceKey(*req.MakeupClassID, *req.MakeupStartTime, *req.MakeupEndTime)
		if seen[key] {
			continue
		}
		seen[key] = true

		class, err := s.classStore.GetByID(ctx, *req.MakeupClassID)
		if err != nil {
			return nil, fmt.Errorf("error loading makeup class: %w", err)
		}
		if class == nil {
			continue
		}

		occ := &models.Occurrence{
			ClassID:   class.ID,
			ClassCode: class.ClassCode,
			ClassName: class.ClassName,
			Date:      date,
			DayOfWeek: dayOfWeek,
			StartTime: *req.MakeupStartTime,
			EndTime:   *req.MakeupEndTime,
			Mode:      models.ModeOffline,
			Verdict: models.Verdict{
				Kind:          models.VerdictRelocated,
				Reason:        req.Reason,
				RelocatedFrom: s.originalRef(ctx, req),
			},
		}
		if class.Subject != nil {
			occ.SubjectName = &class.Subject.SubjectName
		}
		if class.Teacher != nil {
			occ.TeacherName = &class.Teacher.FullName
		}
		extra = append(extra, occ)
	}

	return extra, nil
}

func occurrenceKey(classID int64, startTime, endTime string) string {
	return fmt.Sprintf("%d|%s|%s", classID, startTime, endTime)
}

// ActiveOccurrence finds the occurrence of a class whose window covers
// the given instant, checking weekly slots first and then makeups
// landing that day. Returns nil when the class has nothing running, or
// when what it has is cancelled.
func (s *ScheduleService) ActiveOccurrence(ctx context.Context, classID int64, at time.Time) (*models.Occurrence, error) {
	date := helpers.DateOnly(at)
	dayOfWeek := helpers.ISOWeekday(at)
	clock := helpers.ClockOf(at)

	occurrences, err := s.classStore.ListOccurrencesForDay(ctx, []int64{classID}, date, dayOfWeek)
	if err != nil {
		return nil, fmt.Errorf("error finding active occurrence: %w", err)
	}

	seen := make(map[string]bool)
	for _, occ := range occurrences {
		seen[occurrenceKey(occ.ClassID, occ.StartTime, occ.EndTime)] = true
	}
	extra, err := s.additionalOccurrences(ctx, []int64{classID}, date, dayOfWeek, seen)
	if err != nil {
		return nil, err
	}
	occurrences = append(occurrences, extra...)

	for _, occ := range occurrences {
		if clock < occ.StartTime || clock > occ.EndTime {
			continue
		}
		if occ.Verdict.Kind == models.VerdictNormal {
			verdict, err := s.ResolveOccurrence(ctx, occ.ClassID, date, occ.StartTime, occ.EndTime)
			if err != nil {
				return nil, err
			}
			occ.Verdict = verdict
		}
		if occ.Verdict.Kind == models.VerdictCancelled {
			continue
		}
		return occ, nil
	}

	return nil, nil
}
