package rbac

import (
	"github.com/coursemart/coursemart/internal/shared"
)

// Allowed is the policy registry: it decides whether sub may perform action on
// res. res may be nil for actions that are not resource scoped. Decisions are
// pure; unknown actions are denied.
func Allowed(sub shared.Subject, action Action, res Resource) bool {
	switch action {
	case ActionCourseCreate:
		return hasRole(sub, shared.RoleInstructor, shared.RoleAdmin)
	case ActionCourseUpdate, ActionCourseDelete:
		if sub.Role == shared.RoleAdmin {
			return true
		}
		course, ok := courseOf(res)
		return sub.Role == shared.RoleInstructor && ok && course.OwnerID == sub.ID
	case ActionCourseEnroll, ActionCourseUnenroll:
		return sub.Role == shared.RoleStudent
	case ActionCourseViewAll:
		return hasRole(sub, shared.RoleInstructor, shared.RoleAdmin)
	case ActionUserManage, ActionUserUpdateRole, ActionAdminAccess:
		// Instructors share these with admins.
		return hasRole(sub, shared.RoleAdmin, shared.RoleInstructor)
	case ActionUserDelete:
		if sub.Role != shared.RoleAdmin {
			return false
		}
		target, ok := userOf(res)
		return !ok || target.ID != sub.ID
	case ActionEnrollmentManage:
		if hasRole(sub, shared.RoleAdmin, shared.RoleInstructor) {
			return true
		}
		enrollment, ok := enrollmentOf(res)
		return ok && enrollment.UserID == sub.ID
	default:
		return false
	}
}

// Check is Allowed expressed as an error. Self-deletion is reported as its own
// rejection kind so clients can tell it apart from a role denial.
func Check(sub shared.Subject, action Action, res Resource) error {
	if action == ActionUserDelete {
		if target, ok := userOf(res); ok && target.ID == sub.ID {
			return shared.SelfActionForbidden(shared.MsgSelfDeletion)
		}
	}
	if Allowed(sub, action, res) {
		return nil
	}
	return shared.Forbidden("", "policy "+action.String()+" denied")
}

// Decisions evaluates every action without a resource, for clients that hide
// controls the caller cannot use.
func Decisions(sub shared.Subject) map[string]bool {
	out := make(map[string]bool, len(actionNames))
	for _, a := range Actions() {
		out[a.String()] = Allowed(sub, a, nil)
	}
	return out
}

func hasRole(sub shared.Subject, roles ...shared.Role) bool {
	for _, r := range roles {
		if sub.Role == r {
			return true
		}
	}
	return false
}

// The *Of helpers accept both value and pointer resources; a nil pointer counts
// as an absent resource.

func courseOf(res Resource) (CourseResource, bool) {
	switch r := res.(type) {
	case CourseResource:
		return r, true
	case *CourseResource:
		if r != nil {
			return *r, true
		}
	}
	return CourseResource{}, false
}

func userOf(res Resource) (UserResource, bool) {
	switch r := res.(type) {
	case UserResource:
		return r, true
	case *UserResource:
		if r != nil {
			return *r, true
		}
	}
	return UserResource{}, false
}

func enrollmentOf(res Resource) (EnrollmentResource, bool) {
	switch r := res.(type) {
	case EnrollmentResource:
		return r, true
	case *EnrollmentResource:
		if r != nil {
			return *r, true
		}
	}
	return EnrollmentResource{}, false
}
