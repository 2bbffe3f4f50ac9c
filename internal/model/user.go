package model

// Operator roles.
const (
	RoleAdmin  = "admin"
	RoleWorker = "worker"
)

// User is a till operator. The password is stored as a bcrypt hash.
type User struct {
	Username     string `json:"username"`
	PasswordHash string `json:"password_hash"`
	Role         string `json:"role"`
}
