// Package policy содержит статическую таблицу прав платформы: какие роли и планы
// допускаются к каждому действию и куда перенаправлять пользователя после входа.
package policy

import (
	"errors"
	"slices"
)

// Роли пользователей.
const (
	RoleClient       = "client"
	RoleProfessional = "professional"
	RoleAdmin        = "admin"
)

// Планы подписки.
const (
	PlanFree    = "free"
	PlanSilver  = "silver"
	PlanPremium = "premium"
	PlanStudent = "student"
)

// Action: действие, доступ к которому проверяет таблица.
type Action string

// Действия платформы.
const (
	ViewPortal      Action = "view_portal"
	BookAppointment Action = "book_appointment"
	ViewMeeting     Action = "view_meeting"
	ViewFullContent Action = "view_full_content"
	ProArea         Action = "pro_area"
	AdminArea       Action = "admin_area"
	ManageContent   Action = "manage_content"
)

// Пути перенаправления.
const (
	LoginPath = "/login"
	PlansPath = "/plans"
	HomePath  = "/home"
)

var (
	// ErrRoleDenied: роль пользователя не допущена к действию.
	ErrRoleDenied = errors.New("role not allowed")
	// ErrPlanDenied: план пользователя не допущен к действию.
	ErrPlanDenied = errors.New("plan not allowed")
	// ErrUnknownAction: действие отсутствует в таблице.
	ErrUnknownAction = errors.New("unknown action")
)

// Rule перечисляет допущенные роли и планы. Пустой список не ограничивает.
type Rule struct {
	Roles []string
	Plans []string
}

// EligiblePlans: планы с доступом к записи, встречам, порталу и полному контенту.
var EligiblePlans = []string{PlanPremium, PlanSilver, PlanStudent}

var rules = map[Action]Rule{
	ViewPortal:      {Plans: EligiblePlans},
	BookAppointment: {Plans: EligiblePlans},
	ViewMeeting:     {Plans: EligiblePlans},
	ViewFullContent: {Plans: EligiblePlans},
	ProArea:         {Roles: []string{RoleProfessional}},
	AdminArea:       {Roles: []string{RoleAdmin}},
	ManageContent:   {Roles: []string{RoleAdmin, RoleProfessional}},
}

var homeRedirects = map[string]string{
	RoleAdmin:        "/admin/dashboard",
	RoleProfessional: "/pro/dashboard",
}

// Check возвращает nil, если роль и план допущены к действию.
func Check(role, plan string, action Action) error {
	rule, ok := rules[action]
	if !ok {
		return ErrUnknownAction
	}
	if len(rule.Roles) > 0 && !slices.Contains(rule.Roles, role) {
		return ErrRoleDenied
	}
	if len(rule.Plans) > 0 && !slices.Contains(rule.Plans, plan) {
		return ErrPlanDenied
	}
	return nil
}

// Allows: булева форма Check.
func Allows(role, plan string, action Action) bool {
	return Check(role, plan, action) == nil
}

// RuleFor возвращает правило действия.
func RuleFor(action Action) (Rule, bool) {
	r, ok := rules[action]
	return r, ok
}

// HomeRedirect возвращает стартовую страницу роли.
func HomeRedirect(role string) string {
	if path, ok := homeRedirects[role]; ok {
		return path
	}
	return HomePath
}

// FullContent сообщает, видит ли план весь каталог материалов.
// Пустой или неизвестный план видит только бесплатные материалы.
func FullContent(plan string) bool {
	return Allows("", plan, ViewFullContent)
}

// ValidRole проверяет, что роль известна.
func ValidRole(role string) bool {
	return role == RoleClient || role == RoleProfessional || role == RoleAdmin
}

// ValidPlan проверяет, что план есть в каталоге.
func ValidPlan(plan string) bool {
	_, ok := Lookup(plan)
	return ok
}
