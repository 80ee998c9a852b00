package role

import (
	"strings"

	"golang.org/x/text/cases"
)

// Key layout. The record and index keys interoperate with existing stored
// data and must not change shape:
//
//	role:{tenantId}:{roleId}          tenant role record
//	role:global:{roleId}              global role record
//	role:{tenantId}:name:{slug}       name -> role id index
//	global:roles                      set of global role ids
//	global:role:users                 set of users holding any global role
//	user:roles:{userId}:{tenantId}    set of role ids held by user in tenant
//	tenant:users:{tenantId}           set of users holding any role in tenant
const (
	globalRolesKey     = "global:roles"
	globalRoleUsersKey = "global:role:users"
	globalKeySegment   = "global"
)

var nameFolder = cases.Fold()

// nameSlug normalizes a role name for the uniqueness index. Unicode case
// folding so "Editor" and "editor" collide.
func nameSlug(name string) string {
	return nameFolder.String(strings.TrimSpace(name))
}

func roleKey(tenantID, roleID string) string {
	return "role:" + tenantID + ":" + roleID
}

func globalRoleKey(roleID string) string {
	return "role:" + globalKeySegment + ":" + roleID
}

func roleNameKey(tenantID, name string) string {
	return "role:" + tenantID + ":name:" + nameSlug(name)
}

func userRolesKey(userID, tenantID string) string {
	return "user:roles:" + userID + ":" + tenantID
}

func userRolesPattern(userID string) string {
	return "user:roles:" + userID + ":*"
}

func allUserRolesPattern() string {
	return "user:roles:*"
}

func tenantRolesPattern(tenantID string) string {
	return "role:" + tenantID + ":*"
}

func tenantUsersKey(tenantID string) string {
	return "tenant:users:" + tenantID
}

// isNameIndexKey filters name-index entries out of role record scans.
func isNameIndexKey(key string) bool {
	return strings.Contains(key, ":name:")
}

// tenantFromUserRolesKey extracts the tenant segment from a
// user:roles:{userId}:{tenantId} key. Returns "" when the key is malformed.
func tenantFromUserRolesKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != "user" || parts[1] != "roles" {
		return ""
	}
	return parts[3]
}

// userFromUserRolesKey extracts the user segment from a
// user:roles:{userId}:{tenantId} key.
func userFromUserRolesKey(key string) string {
	parts := strings.Split(key, ":")
	if len(parts) != 4 || parts[0] != "user" || parts[1] != "roles" {
		return ""
	}
	return parts[2]
}
