package entity

import (
	"database/sql"

	"github.com/BillixOfficial/rewards-backend/pkg/enum"
)

type GlobalRole string

var (
	RoleSuperAdmin = enum.New(GlobalRole("super_admin"))
	RoleAdmin      = enum.New(GlobalRole("admin"))
	RoleUser       = enum.New(GlobalRole("user"))
)

// GlobalAdminRoles are roles allowed to manage the reward catalog, draw
// events, and guess rounds.
var GlobalAdminRoles = []GlobalRole{RoleSuperAdmin, RoleAdmin}

type User struct {
	Base
	Name  string         `gorm:"unique"`
	Email sql.NullString `gorm:"unique"`
	Role  GlobalRole

	// ProfilePictures maps a size ("512x512") to its public url.
	ProfilePictures Map

	ReferralCode string `gorm:"unique"`
	IsNewUser    bool
}
