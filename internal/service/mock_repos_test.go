package service

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"gorm.io/gorm"

	"campus-attend/backend/internal/model"
)

// ── Mock UserRepository ──

type mockUserRepo struct {
	users map[string]*model.User // username → user
}

func newMockUserRepo() *mockUserRepo {
	return &mockUserRepo{users: make(map[string]*model.User)}
}

func (m *mockUserRepo) Create(_ context.Context, user *model.User) error {
	if user.UserID == "" {
		user.UserID = "u-" + user.Username
	}
	if _, ok := m.users[user.Username]; ok {
		return gorm.ErrDuplicatedKey
	}
	m.users[user.Username] = user
	return nil
}

func (m *mockUserRepo) GetByID(_ context.Context, id string) (*model.User, error) {
	for _, u := range m.users {
		if u.UserID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) GetByUsername(_ context.Context, username string) (*model.User, error) {
	if u, ok := m.users[username]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockUserRepo) Update(_ context.Context, user *model.User) error {
	m.users[user.Username] = user
	return nil
}

// ── Mock StudentRepository ──

type mockStudentRepo struct {
	students map[string]*model.Student // student_id → student
	nextNum  int
}

func newMockStudentRepo() *mockStudentRepo {
	return &mockStudentRepo{students: make(map[string]*model.Student)}
}

func (m *mockStudentRepo) Create(_ context.Context, student *model.Student) error {
	for _, s := range m.students {
		if s.UID == student.UID {
			return gorm.ErrDuplicatedKey
		}
	}
	if student.StudentID == "" {
		m.nextNum++
		student.StudentID = fmt.Sprintf("stu-%03d", m.nextNum)
	}
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) GetByID(_ context.Context, id string) (*model.Student, error) {
	if s, ok := m.students[id]; ok {
		return s, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByUID(_ context.Context, uid string) (*model.Student, error) {
	for _, s := range m.students {
		if s.UID == uid {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) GetByFullName(_ context.Context, fullName string) (*model.Student, error) {
	for _, s := range m.students {
		if s.FullName == fullName {
			return s, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockStudentRepo) ListByClasses(_ context.Context, classCodes []string) ([]model.Student, error) {
	inScope := make(map[string]bool, len(classCodes))
	for _, g := range classCodes {
		inScope[g] = true
	}
	var result []model.Student
	for _, s := range m.students {
		if inScope[s.ClassCode] {
			result = append(result, *s)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].FullName < result[j].FullName })
	return result, nil
}

func (m *mockStudentRepo) ListClassesByPrefixes(_ context.Context, prefixes []string) ([]string, error) {
	seen := make(map[string]bool)
	for _, s := range m.students {
		for _, pfx := range prefixes {
			if strings.HasPrefix(s.ClassCode, pfx) {
				seen[s.ClassCode] = true
				break
			}
		}
	}
	classes := make([]string, 0, len(seen))
	for g := range seen {
		classes = append(classes, g)
	}
	sort.Strings(classes)
	return classes, nil
}

func (m *mockStudentRepo) Update(_ context.Context, student *model.Student) error {
	m.students[student.StudentID] = student
	return nil
}

func (m *mockStudentRepo) Delete(_ context.Context, id string) error {
	delete(m.students, id)
	return nil
}

// ── Mock AttendanceRepository ──

// recordKey 考勤记录自然键
type recordKey struct {
	date, period, student string
}

type mockAttendanceRepo struct {
	records map[recordKey]*model.AttendanceRecord
	locks   *mockMonitorLockRepo // SubmitWithLock 的事务对端
	// classOf 学生→班级查找，模拟 ListFinalizedByClassRange 的 JOIN
	classOf func(studentID string) string
}

func newMockAttendanceRepo(locks *mockMonitorLockRepo) *mockAttendanceRepo {
	return &mockAttendanceRepo{
		records: make(map[recordKey]*model.AttendanceRecord),
		locks:   locks,
	}
}

func (m *mockAttendanceRepo) key(date, period, student string) recordKey {
	return recordKey{date: date, period: period, student: student}
}

func (m *mockAttendanceRepo) UpsertMark(_ context.Context, date, periodCode, studentID, markTime string) error {
	k := m.key(date, periodCode, studentID)
	mt := markTime
	if rec, ok := m.records[k]; ok {
		rec.MarkTime = &mt
		return nil
	}
	m.records[k] = &model.AttendanceRecord{
		RecordID: fmt.Sprintf("rec-%d", len(m.records)+1),
		Date:     date, PeriodCode: periodCode, StudentID: studentID,
		MarkTime: &mt,
	}
	return nil
}

func (m *mockAttendanceRepo) upsertStatus(rec *model.AttendanceRecord) {
	k := m.key(rec.Date, rec.PeriodCode, rec.StudentID)
	if existing, ok := m.records[k]; ok {
		existing.Status = rec.Status
		existing.Reason = rec.Reason
		if existing.MarkTime == nil {
			existing.MarkTime = rec.MarkTime
		}
		return
	}
	cp := *rec
	cp.RecordID = fmt.Sprintf("rec-%d", len(m.records)+1)
	m.records[k] = &cp
}

func (m *mockAttendanceRepo) UpsertStatus(_ context.Context, rec *model.AttendanceRecord) error {
	m.upsertStatus(rec)
	return nil
}

func (m *mockAttendanceRepo) Get(_ context.Context, date, periodCode, studentID string) (*model.AttendanceRecord, error) {
	if rec, ok := m.records[m.key(date, periodCode, studentID)]; ok {
		return rec, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (m *mockAttendanceRepo) ListByDate(_ context.Context, date string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, rec := range m.records {
		if rec.Date == date {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) ListByStudentRange(_ context.Context, studentID, start, end string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, rec := range m.records {
		if rec.StudentID == studentID && rec.Date >= start && rec.Date <= end {
			result = append(result, *rec)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].Date != result[j].Date {
			return result[i].Date < result[j].Date
		}
		return result[i].PeriodCode < result[j].PeriodCode
	})
	return result, nil
}

func (m *mockAttendanceRepo) ListFinalizedByClassRange(_ context.Context, classCode, start, end string) ([]model.AttendanceRecord, error) {
	var result []model.AttendanceRecord
	for _, rec := range m.records {
		if rec.Date < start || rec.Date > end || !model.ValidStatus(rec.Status) {
			continue
		}
		if m.classOf == nil {
			continue
		}
		if m.classOf(rec.StudentID) == classCode {
			result = append(result, *rec)
		}
	}
	return result, nil
}

func (m *mockAttendanceRepo) SubmitWithLock(ctx context.Context, recs []model.AttendanceRecord, lock *model.MonitorLock) error {
	// 锁冲突先行检查，保持与事务回滚相同的可见效果
	if m.locks != nil {
		exists, _ := m.locks.Exists(ctx, lock.Date, lock.PeriodCode, lock.ClassCode)
		if exists {
			return gorm.ErrDuplicatedKey
		}
	}
	for i := range recs {
		m.upsertStatus(&recs[i])
	}
	if m.locks != nil {
		return m.locks.Create(ctx, lock)
	}
	return nil
}

func (m *mockAttendanceRepo) withClassLookup(fn func(studentID string) string) *mockAttendanceRepo {
	m.classOf = fn
	return m
}

// ── Mock PeriodSkipRepository ──

type skipKey struct {
	date, period, class string
}

type mockPeriodSkipRepo struct {
	skips map[skipKey]bool
}

func newMockPeriodSkipRepo() *mockPeriodSkipRepo {
	return &mockPeriodSkipRepo{skips: make(map[skipKey]bool)}
}

func (m *mockPeriodSkipRepo) Exists(_ context.Context, date, periodCode, classCode string) (bool, error) {
	return m.skips[skipKey{date, periodCode, classCode}], nil
}

func (m *mockPeriodSkipRepo) ListByDate(_ context.Context, date string, classCodes []string) ([]model.PeriodSkip, error) {
	inScope := make(map[string]bool, len(classCodes))
	for _, g := range classCodes {
		inScope[g] = true
	}
	var result []model.PeriodSkip
	for k := range m.skips {
		if k.date == date && (len(classCodes) == 0 || inScope[k.class]) {
			result = append(result, model.PeriodSkip{Date: k.date, PeriodCode: k.period, ClassCode: k.class})
		}
	}
	return result, nil
}

func (m *mockPeriodSkipRepo) ListByClassRange(_ context.Context, classCode, start, end string) ([]model.PeriodSkip, error) {
	var result []model.PeriodSkip
	for k := range m.skips {
		if k.class == classCode && k.date >= start && k.date <= end {
			result = append(result, model.PeriodSkip{Date: k.date, PeriodCode: k.period, ClassCode: k.class})
		}
	}
	return result, nil
}

func (m *mockPeriodSkipRepo) Set(_ context.Context, date, periodCode, classCode string) error {
	m.skips[skipKey{date, periodCode, classCode}] = true
	return nil
}

func (m *mockPeriodSkipRepo) Unset(_ context.Context, date, periodCode, classCode string) error {
	delete(m.skips, skipKey{date, periodCode, classCode})
	return nil
}

func (m *mockPeriodSkipRepo) ToggleAll(ctx context.Context, date, periodCode string, classCodes []string, on bool) error {
	for _, g := range classCodes {
		if on {
			_ = m.Set(ctx, date, periodCode, g)
		} else {
			_ = m.Unset(ctx, date, periodCode, g)
		}
	}
	return nil
}

func (m *mockPeriodSkipRepo) BulkSet(ctx context.Context, skips []model.PeriodSkip) (int, error) {
	applied := 0
	for _, sk := range skips {
		k := skipKey{sk.Date, sk.PeriodCode, sk.ClassCode}
		if !m.skips[k] {
			m.skips[k] = true
			applied++
		}
	}
	return applied, nil
}

// ── Mock MonitorLockRepository ──

type mockMonitorLockRepo struct {
	locks map[skipKey]*model.MonitorLock
}

func newMockMonitorLockRepo() *mockMonitorLockRepo {
	return &mockMonitorLockRepo{locks: make(map[skipKey]*model.MonitorLock)}
}

func (m *mockMonitorLockRepo) Exists(_ context.Context, date, periodCode, classCode string) (bool, error) {
	_, ok := m.locks[skipKey{date, periodCode, classCode}]
	return ok, nil
}

func (m *mockMonitorLockRepo) Create(_ context.Context, lock *model.MonitorLock) error {
	k := skipKey{lock.Date, lock.PeriodCode, lock.ClassCode}
	if _, ok := m.locks[k]; ok {
		return gorm.ErrDuplicatedKey
	}
	if lock.LockID == "" {
		lock.LockID = fmt.Sprintf("lock-%d", len(m.locks)+1)
	}
	m.locks[k] = lock
	return nil
}
