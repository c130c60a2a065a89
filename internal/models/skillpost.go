package models

import (
	"time"
)

// SkillPost is a worker's advertisement of one skill.
type SkillPost struct {
	ID          string         `json:"id"`
	User        UserRef        `json:"userId"`
	Skill       string         `json:"skill"`
	Description string         `json:"description"`
	Photo       string         `json:"photo,omitempty"`
	IsActive    bool           `json:"isActive"`
	Stats       SkillPostStats `json:"stats"`
	CreatedAt   time.Time      `json:"createdAt,omitempty"`
	UpdatedAt   time.Time      `json:"updatedAt,omitempty"`
}

type SkillPostStats struct {
	Views    int `json:"views"`
	Requests int `json:"requests"`
}

func (p *SkillPost) UnmarshalJSON(data []byte) error {
	type alias SkillPost
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(p)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if p.ID == "" {
		p.ID = aux.MongoID
	}
	return nil
}

// SkillPostFields is the create payload; on update empty fields are left
// untouched.
type SkillPostFields struct {
	Skill       string `json:"skill,omitempty"`
	Description string `json:"description,omitempty"`
	Photo       string `json:"photo,omitempty"`
}

type Pagination struct {
	Total int `json:"total"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Pages int `json:"pages"`
}

type SkillPostPage struct {
	SkillPosts []SkillPost `json:"skillPosts"`
	Pagination *Pagination `json:"pagination,omitempty"`
}
