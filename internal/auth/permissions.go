package auth

// Builtin permission names.
const (
	PermManagePosts      = "manage posts"
	PermPublishPosts     = "publish posts"
	PermEditPosts        = "edit posts"
	PermDeletePosts      = "delete posts"
	PermManageCategories = "manage categories"
	PermManageTags       = "manage tags"
	PermManageUsers      = "manage users"
)

// Builtin role names.
const (
	RoleAdmin  = "Admin"
	RoleEditor = "Editor"
	RoleAuthor = "Author"
	RoleReader = "Reader"
)

// BuiltinPermissions lists every permission the application checks.
var BuiltinPermissions = []string{
	PermManagePosts,
	PermPublishPosts,
	PermEditPosts,
	PermDeletePosts,
	PermManageCategories,
	PermManageTags,
	PermManageUsers,
}

// BuiltinRoles maps each seeded role to its granted permissions.
var BuiltinRoles = map[string][]string{
	RoleAdmin: BuiltinPermissions,
	RoleEditor: {
		PermManagePosts,
		PermPublishPosts,
		PermEditPosts,
		PermDeletePosts,
		PermManageCategories,
		PermManageTags,
	},
	RoleAuthor: {
		PermManagePosts,
		PermPublishPosts,
		PermEditPosts,
	},
	RoleReader: {},
}
