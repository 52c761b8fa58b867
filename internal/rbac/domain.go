package rbac

import (
	"fmt"
	"strings"
)

// Action is the closed set of operations the policy registry decides on.
type Action int

const (
	ActionCourseCreate Action = iota + 1
	ActionCourseUpdate
	ActionCourseDelete
	ActionCourseEnroll
	ActionCourseUnenroll
	ActionCourseViewAll
	ActionUserManage
	ActionUserDelete
	ActionUserUpdateRole
	ActionEnrollmentManage
	ActionAdminAccess
)

var actionNames = map[Action]string{
	ActionCourseCreate:     "course:create",
	ActionCourseUpdate:     "course:update",
	ActionCourseDelete:     "course:delete",
	ActionCourseEnroll:     "course:enroll",
	ActionCourseUnenroll:   "course:unenroll",
	ActionCourseViewAll:    "course:view-all",
	ActionUserManage:       "user:manage",
	ActionUserDelete:       "user:delete",
	ActionUserUpdateRole:   "user:update-role",
	ActionEnrollmentManage: "enrollment:manage",
	ActionAdminAccess:      "admin:access",
}

// Actions lists every action in declaration order.
func Actions() []Action {
	out := make([]Action, 0, len(actionNames))
	for a := ActionCourseCreate; a <= ActionAdminAccess; a++ {
		out = append(out, a)
	}
	return out
}

func (a Action) String() string {
	if name, ok := actionNames[a]; ok {
		return name
	}
	return fmt.Sprintf("action(%d)", int(a))
}

// MarshalText encodes the action by name.
func (a Action) MarshalText() ([]byte, error) {
	if _, ok := actionNames[a]; !ok {
		return nil, fmt.Errorf("rbac: unknown action %d", int(a))
	}
	return []byte(a.String()), nil
}

// ParseAction resolves a policy name such as "course:update".
func ParseAction(name string) (Action, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for a, n := range actionNames {
		if n == name {
			return a, nil
		}
	}
	return 0, fmt.Errorf("rbac: unknown action %q", name)
}

// Resource is the optional target of a decision. The set of implementations is
// closed to this package.
type Resource interface {
	policyResource()
}

// CourseResource is the shape of a course the registry needs.
type CourseResource struct {
	ID      int64
	OwnerID int64
	Status  string
}

// UserResource identifies a target account.
type UserResource struct {
	ID int64
}

// EnrollmentResource identifies the student behind an enrollment.
type EnrollmentResource struct {
	UserID int64
}

func (CourseResource) policyResource()     {}
func (UserResource) policyResource()       {}
func (EnrollmentResource) policyResource() {}
