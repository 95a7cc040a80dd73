// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Roles a user may hold. Admins can reach the admin API when it is guarded.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User is an account in the users collection.
//
// The JSON shape is what the admin panel and profile page read: the id is
// exposed as "_id" (ObjectID marshals to its hex string) and the password
// hash never leaves the server.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"_id"`
	Username     string             `bson:"username" json:"username"`
	Email        string             `bson:"email" json:"email"`
	Organization string             `bson:"organization" json:"organization"`
	Banned       bool               `bson:"banned" json:"banned"`
	Role         string             `bson:"role,omitempty" json:"role,omitempty"`
	AvatarURL    string             `bson:"avatar_url,omitempty" json:"avatarUrl,omitempty"`
	PasswordHash string             `bson:"password_hash,omitempty" json:"-"`

	CreatedAt time.Time `bson:"created_at,omitempty" json:"created_at,omitzero"`
	UpdatedAt time.Time `bson:"updated_at,omitempty" json:"updated_at,omitzero"`
}

// IsAdmin reports whether the user holds the admin role.
func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}
