package authz

const (
	RoleUser = "user"
	RoleCEO  = "ceo"
)
