package service

import (
	"context"
	"errors"
	"sort"
	"strings"

	"campus-attend/backend/internal/model"
	"campus-attend/backend/internal/repository"
)

// ── 可见范围错误 ──

var (
	// ErrScopeViolation 操作对象不在当前角色的可见范围内
	ErrScopeViolation = errors.New("无权操作该班级或学生")
)

// ScopeResolver 角色可见范围解析器
//
// 范围策略来自注入的配置而非硬编码表：
//   - 辅导员 → 班级代码列表
//   - 系主任 → 班级代码前缀列表（实际班级按前缀查库展开）
//   - 班长   → 单个班级
//   - 技术支持 → 全部班级
// 本身只回答"能不能/有哪些"，不做任何存储写入。
type ScopeResolver struct {
	counselors map[string][]string
	directors  map[string][]string
	monitors   map[string]string
	students   repository.StudentRepository
}

// NewScopeResolver 创建范围解析器
func NewScopeResolver(counselors, directors map[string][]string, monitors map[string]string, students repository.StudentRepository) *ScopeResolver {
	return &ScopeResolver{
		counselors: counselors,
		directors:  directors,
		monitors:   monitors,
		students:   students,
	}
}

// CounselorClasses 辅导员名下的班级
func (r *ScopeResolver) CounselorClasses(username string) []string {
	return r.counselors[username]
}

// DirectorPrefixes 系主任可见的班级代码前缀
func (r *ScopeResolver) DirectorPrefixes(username string) []string {
	return r.directors[username]
}

// MonitorClass 班长所在班级
func (r *ScopeResolver) MonitorClass(username string) (string, bool) {
	g, ok := r.monitors[username]
	return g, ok
}

// ClassesFor 解析某角色用户实际可见的班级列表（升序去重）
// 技术支持可见全部班级；可见范围为空返回空列表而非错误
func (r *ScopeResolver) ClassesFor(ctx context.Context, role, username string) ([]string, error) {
	switch role {
	case model.RoleAdmin:
		// 空前缀 LIKE 匹配全部班级
		return r.students.ListClassesByPrefixes(ctx, []string{""})
	case model.RoleCounselor:
		classes := append([]string(nil), r.counselors[username]...)
		sort.Strings(classes)
		return classes, nil
	case model.RoleDirector:
		prefixes := r.directors[username]
		if len(prefixes) == 0 {
			return []string{}, nil
		}
		return r.students.ListClassesByPrefixes(ctx, prefixes)
	case model.RoleMonitor:
		if g, ok := r.monitors[username]; ok {
			return []string{g}, nil
		}
		return []string{}, nil
	default:
		return []string{}, nil
	}
}

// CanAccessClass 某角色用户是否可见指定班级
func (r *ScopeResolver) CanAccessClass(role, username, classCode string) bool {
	switch role {
	case model.RoleAdmin:
		return true
	case model.RoleCounselor:
		for _, g := range r.counselors[username] {
			if g == classCode {
				return true
			}
		}
	case model.RoleDirector:
		for _, pfx := range r.directors[username] {
			if strings.HasPrefix(classCode, pfx) {
				return true
			}
		}
	case model.RoleMonitor:
		return r.monitors[username] == classCode
	}
	return false
}

// RequireClass 可见性断言：不可见时返回 ErrScopeViolation
func (r *ScopeResolver) RequireClass(role, username, classCode string) error {
	if !r.CanAccessClass(role, username, classCode) {
		return ErrScopeViolation
	}
	return nil
}
