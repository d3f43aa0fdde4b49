package models

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

type Role string

const (
	RoleGuest Role = "guest"
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

func (r Role) Valid() bool {
	switch r {
	case RoleGuest, RoleUser, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID           bson.ObjectID `bson:"_id,omitempty" json:"id"`
	Name         string        `bson:"name" json:"name"`
	Email        string        `bson:"email" json:"email"`
	PasswordHash string        `bson:"passwordHash" json:"-"` // never expose
	Profile      string        `bson:"profile,omitempty" json:"profile,omitempty"`
	AvatarURL    string        `bson:"avatarUrl,omitempty" json:"avatarUrl,omitempty"`
	Role         Role          `bson:"role" json:"role"`
	CreatedAt    time.Time     `bson:"createdAt" json:"createdAt"`
	UpdatedAt    time.Time     `bson:"updatedAt" json:"updatedAt"`
}

// Author is the public projection of a user embedded in question and answer responses.
type Author struct {
	ID        bson.ObjectID `json:"id"`
	Name      string        `json:"name"`
	Email     string        `json:"email,omitempty"`
	AvatarURL string        `json:"avatarUrl,omitempty"`
}

func (u *User) Author() Author {
	return Author{ID: u.ID, Name: u.Name, Email: u.Email, AvatarURL: u.AvatarURL}
}
