package entity

type UserRole string

const (
	RoleGuest     UserRole = "guest"
	RoleHost      UserRole = "host"
	RoleModerator UserRole = "moderator"
	RoleAdmin     UserRole = "admin"
)

type User struct {
	Base
	Username     string   `db:"username"`
	Email        string   `db:"email"`
	PasswordHash string   `db:"password"`
	Phone        *string  `db:"phone"`
	Role         UserRole `db:"role"`
	IsActive     bool     `db:"is_active"`
}
