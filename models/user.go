package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRole enum
type UserRole string

const (
	RoleUser        UserRole = "user"
	RoleAdmin       UserRole = "admin"
	RoleGovernment  UserRole = "government"
	RoleManager     UserRole = "manager"
	RoleFieldWorker UserRole = "field_worker"
)

// ValidRole reports whether s names a known role.
func ValidRole(s string) bool {
	switch UserRole(s) {
	case RoleUser, RoleAdmin, RoleGovernment, RoleManager, RoleFieldWorker:
		return true
	}
	return false
}

// Staff reports whether the role may triage issues (change status beyond
// what the reporter themself is allowed).
func (r UserRole) Staff() bool {
	switch r {
	case RoleAdmin, RoleGovernment, RoleManager, RoleFieldWorker:
		return true
	}
	return false
}

// Preferences holds per-user notification settings.
type Preferences struct {
	EmailNotifications bool `bson:"emailNotifications" json:"emailNotifications"`
	PushNotifications  bool `bson:"pushNotifications" json:"pushNotifications"`
}

type User struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Name           string             `bson:"name" json:"name"`
	Email          string             `bson:"email" json:"email"`
	Password       string             `bson:"password,omitempty" json:"-"`
	Role           UserRole           `bson:"role" json:"role"`
	ProfilePicture string             `bson:"profilePicture,omitempty" json:"profilePicture,omitempty"`
	Preferences    Preferences        `bson:"preferences" json:"preferences"`
	CreatedAt      time.Time          `bson:"createdAt" json:"createdAt"`
	UpdatedAt      time.Time          `bson:"updatedAt" json:"updatedAt"`
}

func (u *User) HashPassword() error {
	hashed, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.Password = string(hashed)
	return nil
}

func (u *User) ComparePassword(candidate string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(candidate))
	return err == nil
}
