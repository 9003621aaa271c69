package domain

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role type to distinguish between user roles
type Role string

// Define constants for roles
const (
	RolePro        Role = "PRO"
	RoleTeamMember Role = "SWEAT_TEAM_MEMBER"
	RoleAthlete    Role = "ATHLETE"
)

// Profile carries the role and contact details for a user. It is embedded in
// the user document so that a user can never exist without a profile.
type Profile struct {
	Role        Role   `bson:"role" json:"role"`
	PhoneNumber string `bson:"phoneNumber,omitempty" json:"phone_number,omitempty"`
}

// CalendarEvent is a single scheduled entry on a user's calendar.
type CalendarEvent struct {
	ID              string `bson:"id" json:"id"`
	Time            string `bson:"time" json:"time"` // "15:04" wall-clock
	Title           string `bson:"title" json:"title"`
	Kind            string `bson:"kind,omitempty" json:"kind,omitempty"`
	DurationMinutes int    `bson:"durationMinutes,omitempty" json:"duration_minutes,omitempty"`
}

// Calendar maps an ISO date string ("2006-01-02") to the events on that day.
// The whole events map is replaced on update; last writer wins.
type Calendar struct {
	Events map[string][]CalendarEvent `bson:"events" json:"events"`
}

// User represents an account in the system. Profile and Calendar are embedded
// subdocuments, created atomically with the user itself so a user never exists
// without both.
type User struct {
	ID           primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	Username     string             `bson:"username" json:"username"` // unique
	Email        string             `bson:"email" json:"email"`       // unique
	FirstName    string             `bson:"firstName" json:"first_name"`
	LastName     string             `bson:"lastName" json:"last_name"`
	PasswordHash string             `bson:"passwordHash" json:"-"` // never expose via JSON
	Profile      Profile            `bson:"profile" json:"profile"`
	Calendar     Calendar           `bson:"calendar" json:"-"`
	CreatedAt    time.Time          `bson:"createdAt" json:"created_at"`
	UpdatedAt    time.Time          `bson:"updatedAt" json:"updated_at"`
}

// IsCoach reports whether the user holds a coach-privileged role.
// PRO and SWEAT_TEAM_MEMBER are jointly coach-privileged.
func (u *User) IsCoach() bool {
	return u.Profile.Role == RolePro || u.Profile.Role == RoleTeamMember
}

func (u *User) IsAthlete() bool {
	return u.Profile.Role == RoleAthlete
}

// DisplayName returns "First Last" when set, falling back to the username.
func (u *User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}
