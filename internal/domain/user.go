package domain

import "time"

// Role represents a user's role in the fleet system.
type Role string

const (
	RoleAdmin    Role = "ADMIN"
	RoleDriver   Role = "DRIVER"
	RoleEmployee Role = "EMPLOYEE"
)

// User represents a person who can request, drive, or administer vehicles.
type User struct {
	ID             string
	Name           string
	Role           Role
	ChannelAddress string // push-messaging address; empty means "cannot be notified"
	CreatedAt      time.Time
}

// CanDrive reports whether the user may be auto-assigned as a driver.
func (u *User) CanDrive() bool {
	return u.Role == RoleAdmin || u.Role == RoleDriver
}
