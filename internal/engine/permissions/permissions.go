package permissions

// Role is a workspace member role carried in auth claims.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
	RoleViewer Role = "viewer"
)

// Action is a namespaced "resource:verb" string.
type Action string

const (
	RoadmapCreate Action = "roadmap:create"
	RoadmapRead   Action = "roadmap:read"
	RoadmapUpdate Action = "roadmap:update"
	RoadmapDelete Action = "roadmap:delete"
	RoadmapManage Action = "roadmap:manage"

	ItemCreate Action = "item:create"
	ItemRead   Action = "item:read"
	ItemUpdate Action = "item:update"
	ItemDelete Action = "item:delete"
	ItemVote   Action = "item:vote"

	GroupCreate Action = "group:create"
	GroupRead   Action = "group:read"
	GroupUpdate Action = "group:update"
	GroupDelete Action = "group:delete"

	AdminAccess   Action = "admin:access"
	AdminUsers    Action = "admin:users"
	AdminSettings Action = "admin:settings"
)

// rolePermissions is the static role to action mapping. Built once, never
// mutated after init.
var rolePermissions = map[Role][]Action{
	RoleAdmin: {
		RoadmapCreate, RoadmapRead, RoadmapUpdate, RoadmapDelete, RoadmapManage,
		ItemCreate, ItemRead, ItemUpdate, ItemDelete, ItemVote,
		GroupCreate, GroupRead, GroupUpdate, GroupDelete,
		AdminAccess, AdminUsers, AdminSettings,
	},
	RoleEditor: {
		RoadmapCreate, RoadmapRead, RoadmapUpdate, RoadmapManage,
		ItemCreate, ItemRead, ItemUpdate, ItemDelete, ItemVote,
		GroupCreate, GroupRead, GroupUpdate, GroupDelete,
		AdminAccess,
	},
	RoleViewer: {
		RoadmapRead,
		ItemRead, ItemVote,
		GroupRead,
	},
}

// roleActionSet is the lookup form of rolePermissions.
var roleActionSet = func() map[Role]map[Action]struct{} {
	set := make(map[Role]map[Action]struct{}, len(rolePermissions))
	for role, actions := range rolePermissions {
		set[role] = make(map[Action]struct{}, len(actions))
		for _, a := range actions {
			set[role][a] = struct{}{}
		}
	}
	return set
}()

// writeActions are gated by resource ownership for non-admin roles.
var writeActions = map[Action]struct{}{
	RoadmapUpdate: {},
	RoadmapDelete: {},
	ItemUpdate:    {},
	ItemDelete:    {},
}

// HasPermission reports whether the role may perform the action. An empty
// role never passes.
func HasPermission(role Role, action Action) bool {
	if role == "" {
		return false
	}
	_, ok := roleActionSet[role][action]
	return ok
}

// HasAnyPermission reports whether at least one action passes.
func HasAnyPermission(role Role, actions ...Action) bool {
	for _, a := range actions {
		if HasPermission(role, a) {
			return true
		}
	}
	return false
}

// HasAllPermissions reports whether every action passes.
func HasAllPermissions(role Role, actions ...Action) bool {
	if role == "" {
		return false
	}
	for _, a := range actions {
		if !HasPermission(role, a) {
			return false
		}
	}
	return true
}

// Permissions returns all actions granted to the role.
func Permissions(role Role) []Action {
	actions := rolePermissions[role]
	out := make([]Action, len(actions))
	copy(out, actions)
	return out
}

func IsAdmin(role Role) bool {
	return role == RoleAdmin
}

func CanAccessAdmin(role Role) bool {
	return HasPermission(role, AdminAccess)
}

// Resource carries the ownership information a check may need.
type Resource struct {
	OwnerID string
}

// Result is the outcome of a permission check. Reason is implementation
// facing and not meant for verbatim display to end users.
type Result struct {
	Allowed bool
	Reason  string
}

// Check decides whether role may perform action, honoring resource
// ownership for write actions. Admins pass unconditionally.
func Check(role Role, action Action, resource *Resource, userID string) Result {
	if role == "" {
		return Result{Allowed: false, Reason: "Not authenticated"}
	}

	if role == RoleAdmin {
		return Result{Allowed: true}
	}

	if !HasPermission(role, action) {
		return Result{Allowed: false, Reason: "Insufficient permissions"}
	}

	if _, write := writeActions[action]; write && resource != nil && resource.OwnerID != "" && userID != "" {
		if resource.OwnerID != userID {
			return Result{Allowed: false, Reason: "Not the owner of this resource"}
		}
	}

	return Result{Allowed: true}
}
