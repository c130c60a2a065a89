package models

import (
	"strings"
)

// Mode decides whether the creator or the applicant views of jobs are shown.
type Mode string

const (
	ModeEmployer Mode = "employer"
	ModeWorker   Mode = "worker"
)

// Valid reports whether m is one of the two known modes.
func (m Mode) Valid() bool {
	return m == ModeEmployer || m == ModeWorker
}

type Rating struct {
	Average float64 `json:"average"`
	Count   int     `json:"count"`
}

type Availability struct {
	IsAvailable bool   `json:"isAvailable"`
	Schedule    string `json:"schedule,omitempty"`
}

// User is the authenticated identity as returned by /auth/me and friends.
type User struct {
	ID                string        `json:"id"`
	Phone             string        `json:"phone"`
	Name              string        `json:"name,omitempty"`
	Age               int           `json:"age,omitempty"`
	Skills            []string      `json:"skills"`
	IsProfileComplete bool          `json:"isProfileComplete"`
	CurrentMode       Mode          `json:"currentMode"`
	Availability      *Availability `json:"availability,omitempty"`
	Rating            *Rating       `json:"rating,omitempty"`
	ProfileImage      string        `json:"profileImage,omitempty"`
}

func (u *User) UnmarshalJSON(data []byte) error {
	type alias User
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(u)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if u.ID == "" {
		u.ID = aux.MongoID
	}
	return nil
}

// HasSkill is a case-insensitive membership test.
func (u *User) HasSkill(skill string) bool {
	skill = strings.ToLower(strings.TrimSpace(skill))
	for _, s := range u.Skills {
		if strings.ToLower(s) == skill {
			return true
		}
	}
	return false
}

// NormalizeSkills trims entries, drops blanks and removes case-insensitive
// duplicates while keeping first-seen order.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}

// ProfileInput is the payload of /users/complete-profile.
type ProfileInput struct {
	Name         string   `json:"name"`
	Age          int      `json:"age,omitempty"`
	Skills       []string `json:"skills"`
	AadhaarImage string   `json:"aadhaarImage,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

// ProfileUpdate is the partial payload of PUT /users/profile. Nil fields are
// left untouched by the server.
type ProfileUpdate struct {
	Name         *string  `json:"name,omitempty"`
	Age          *int     `json:"age,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	ProfileImage *string  `json:"profileImage,omitempty"`
}

// GeoPoint is a WGS84 coordinate.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}
