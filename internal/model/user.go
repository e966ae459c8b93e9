// Package model defines the data structures shared across all layers.
package model

import (
	"fmt"
	"time"
)

// Role is a user's fixed account type. It is chosen at signup and never
// changes afterwards.
type Role string

const (
	RoleMentor Role = "mentor"
	RoleMentee Role = "mentee"
)

// Valid reports whether r is one of the two known roles.
func (r Role) Valid() bool {
	return r == RoleMentor || r == RoleMentee
}

// User is a registered account plus its profile.
//
// Skills is only meaningful for mentors and stays nil for mentees; the two
// role variants share this struct, and the role decides which response shape
// it serializes to (see Public).
//
// PasswordHash is the bcrypt credential. It is tagged out of JSON so it can
// never leak through a response, no matter which handler serializes the user.
type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name"`
	Role         Role      `json:"role"`
	Bio          string    `json:"bio,omitempty"`
	ProfileImage string    `json:"profileImage,omitempty"`
	Skills       []string  `json:"skills,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// Profile is the role-specific payload inside a PublicUser.
// Skills is present for mentors and omitted entirely for mentees.
type Profile struct {
	Name     string   `json:"name"`
	Bio      string   `json:"bio"`
	ImageURL string   `json:"imageUrl"`
	Skills   []string `json:"skills,omitzero"`
}

// PublicUser is the role-shaped profile representation returned by
// /users/me, /users/profile and /mentors.
type PublicUser struct {
	ID      int64   `json:"id"`
	Email   string  `json:"email"`
	Role    Role    `json:"role"`
	Profile Profile `json:"profile"`
}

// AuthUser is the compact identity block embedded in login and token
// validation responses.
type AuthUser struct {
	ID    int64  `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
	Role  Role   `json:"role"`
}

// Public renders the user as its role-shaped response variant. This is the
// single place the mentor/mentee distinction is resolved at a serialization
// boundary; handlers never assemble profiles by hand.
func (u *User) Public() PublicUser {
	p := Profile{
		Name:     u.Name,
		Bio:      u.Bio,
		ImageURL: u.ImageURL(),
	}
	if u.Role == RoleMentor {
		p.Skills = u.Skills
		if p.Skills == nil {
			p.Skills = []string{}
		}
	}
	return PublicUser{
		ID:      u.ID,
		Email:   u.Email,
		Role:    u.Role,
		Profile: p,
	}
}

// Auth returns the compact identity block for auth responses.
func (u *User) Auth() AuthUser {
	return AuthUser{
		ID:    u.ID,
		Email: u.Email,
		Name:  u.Name,
		Role:  u.Role,
	}
}

// ImageURL returns the stored profile image path, or the deterministic
// per-user default when none has been uploaded.
func (u *User) ImageURL() string {
	if u.ProfileImage != "" {
		return u.ProfileImage
	}
	return fmt.Sprintf("/images/%s/%d", u.Role, u.ID)
}
