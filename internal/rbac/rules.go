package rbac

// Simple default policy. Candidates take exams and read their own
// results; administrators additionally manage configuration.
var RolePermissions = map[string][]string{
	"user": {
		"org:view",
		"attempt:create",
		"attempt:submit",
		"result:view-own",
		"certificate:view-own",
		"user:change_password",
	},
	"admin": {
		"*", // everything
	},
}
