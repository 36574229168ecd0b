package model

type User struct {
	ID        int64  `json:"id" db:"id"`
	Email     string `json:"email" db:"email"`
	FirstName string `json:"first_name" db:"first_name"`
	LastName  string `json:"last_name" db:"last_name"`
	IsStaff   bool   `json:"is_staff" db:"is_staff"`
}

type Role string

const (
	RoleAnonymous Role = ""
	RoleMember    Role = "member"
	RoleStaff     Role = "staff"
)

// ParseRole maps a token role claim to a Role. Anything unknown is a member.
func ParseRole(s string) Role {
	switch s {
	case "staff", "admin":
		return RoleStaff
	default:
		return RoleMember
	}
}

// Principal is the caller of a request.
type Principal struct {
	UserID int64
	Email  string
	Role   Role
}

func Anonymous() Principal { return Principal{} }

func (p Principal) Authenticated() bool { return p.Role != RoleAnonymous && p.UserID > 0 }

func (p Principal) IsStaff() bool { return p.Authenticated() && p.Role == RoleStaff }
