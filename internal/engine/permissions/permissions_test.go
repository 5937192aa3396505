package permissions

import "testing"

// Full role table from the product permission matrix.
var allActions = []Action{
	RoadmapCreate, RoadmapRead, RoadmapUpdate, RoadmapDelete, RoadmapManage,
	ItemCreate, ItemRead, ItemUpdate, ItemDelete, ItemVote,
	GroupCreate, GroupRead, GroupUpdate, GroupDelete,
	AdminAccess, AdminUsers, AdminSettings,
}

func TestHasPermission_Table(t *testing.T) {
	editorDenied := map[Action]bool{
		RoadmapDelete: true,
		AdminUsers:    true,
		AdminSettings: true,
	}
	viewerAllowed := map[Action]bool{
		RoadmapRead: true,
		ItemRead:    true,
		ItemVote:    true,
		GroupRead:   true,
	}

	for _, action := range allActions {
		if !HasPermission(RoleAdmin, action) {
			t.Errorf("admin should have %s", action)
		}

		wantEditor := !editorDenied[action]
		if got := HasPermission(RoleEditor, action); got != wantEditor {
			t.Errorf("editor %s = %v, want %v", action, got, wantEditor)
		}

		wantViewer := viewerAllowed[action]
		if got := HasPermission(RoleViewer, action); got != wantViewer {
			t.Errorf("viewer %s = %v, want %v", action, got, wantViewer)
		}
	}
}

func TestHasPermission_UnknownRole(t *testing.T) {
	if HasPermission("", RoadmapRead) {
		t.Error("empty role should never pass")
	}
	if HasPermission("owner", RoadmapRead) {
		t.Error("unknown role should never pass")
	}
}

func TestHasAnyPermission(t *testing.T) {
	if !HasAnyPermission(RoleViewer, RoadmapCreate, ItemVote) {
		t.Error("viewer has item:vote, any-check should pass")
	}
	if HasAnyPermission(RoleViewer, RoadmapCreate, ItemDelete) {
		t.Error("viewer has neither action, any-check should fail")
	}
	if HasAnyPermission("", RoadmapRead) {
		t.Error("empty role should fail any-check")
	}
}

func TestHasAllPermissions(t *testing.T) {
	if !HasAllPermissions(RoleEditor, ItemCreate, ItemUpdate, GroupDelete) {
		t.Error("editor holds all three actions")
	}
	if HasAllPermissions(RoleEditor, ItemCreate, AdminUsers) {
		t.Error("editor lacks admin:users, all-check should fail")
	}
}

func TestCheck_NotAuthenticated(t *testing.T) {
	for _, action := range allActions {
		res := Check("", action, nil, "")
		if res.Allowed {
			t.Fatalf("unauthenticated check for %s should deny", action)
		}
		if res.Reason != "Not authenticated" {
			t.Fatalf("unexpected reason %q", res.Reason)
		}
	}
}

func TestCheck_AdminBypassesOwnership(t *testing.T) {
	res := Check(RoleAdmin, ItemDelete, &Resource{OwnerID: "u1"}, "u2")
	if !res.Allowed {
		t.Errorf("admin should bypass ownership, got reason %q", res.Reason)
	}
}

func TestCheck_Ownership(t *testing.T) {
	res := Check(RoleEditor, ItemUpdate, &Resource{OwnerID: "u1"}, "u2")
	if res.Allowed {
		t.Error("non-owner editor should be denied")
	}
	if res.Reason != "Not the owner of this resource" {
		t.Errorf("unexpected reason %q", res.Reason)
	}

	res = Check(RoleEditor, ItemUpdate, &Resource{OwnerID: "u1"}, "u1")
	if !res.Allowed {
		t.Errorf("owner should be allowed, got reason %q", res.Reason)
	}
}

func TestCheck_InsufficientPermissions(t *testing.T) {
	res := Check(RoleViewer, ItemUpdate, nil, "u1")
	if res.Allowed {
		t.Error("viewer cannot update items")
	}
	if res.Reason != "Insufficient permissions" {
		t.Errorf("unexpected reason %q", res.Reason)
	}
}

func TestCheck_NonWriteActionIgnoresOwnership(t *testing.T) {
	res := Check(RoleViewer, ItemVote, &Resource{OwnerID: "u1"}, "u2")
	if !res.Allowed {
		t.Errorf("voting is not ownership gated, got reason %q", res.Reason)
	}
}

func TestPermissions_Copy(t *testing.T) {
	perms := Permissions(RoleViewer)
	if len(perms) != 4 {
		t.Fatalf("viewer should hold 4 actions, got %d", len(perms))
	}

	perms[0] = "tampered"
	if Permissions(RoleViewer)[0] == "tampered" {
		t.Error("Permissions must return a copy")
	}
}
