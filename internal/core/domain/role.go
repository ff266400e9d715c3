package domain

const (
	RoleAdmin  = "admin"
	RoleClient = "client"
)
