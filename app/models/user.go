package models

import "gorm.io/gorm"

// Role is a capability tag. Gated operations ask the role what it may do
// rather than comparing strings.
type Role string

const (
	RoleAdmin Role = "admin"
	RoleGuest Role = "guest"
)

func ParseRole(s string) (Role, bool) {
	switch Role(s) {
	case RoleAdmin, RoleGuest:
		return Role(s), true
	}
	return "", false
}

func (r Role) CanManageCatalog() bool     { return r == RoleAdmin }
func (r Role) CanUpdateOrderStatus() bool { return r == RoleAdmin }
func (r Role) CanViewAllOrders() bool     { return r == RoleAdmin }
func (r Role) CanCancelOrders() bool      { return r != RoleAdmin }

type User struct {
	gorm.Model
	Username  string `gorm:"uniqueIndex;size:150;not null" json:"username"`
	Email     string `gorm:"uniqueIndex;size:255;not null" json:"email"`
	Password  string `gorm:"size:255;not null" json:"-"`
	Role      Role   `gorm:"size:16;not null;default:guest" json:"role"`
	FirstName string `gorm:"size:150" json:"first_name"`
	LastName  string `gorm:"size:150" json:"last_name"`
	Phone     string `gorm:"size:15" json:"phone"`
	Address   string `gorm:"size:64" json:"address"`
}

// Actor is the caller of a service operation.
type Actor struct {
	UserID uint
	Role   Role
}

func (a Actor) Anonymous() bool { return a.UserID == 0 }
