package rbac

// RolePermissions is the authorization matrix. Permissions are
// "<resource>:<action>" strings; a trailing "*" matches any action.
var RolePermissions = map[Role][]string{
	RoleQuizzer: {
		"question:create",
		"question:list",
		"question:retrieve",
		"quiz:create",
		"quiz:list",
		"quiz:retrieve",
		"assignment:create",
		"assignment:list",
		"assignment:retrieve",
		"answer:list",
		"answer:retrieve",
		"user:list",
	},
	RoleQuizzee: {
		"question:list",
		"question:retrieve",
		"quiz:list",
		"quiz:retrieve",
		"assignment:list",
		"assignment:retrieve",
		"assignment:submit",
		"answer:*",
	},
}
