package models

import (
	"bytes"
	"encoding/json"
)

// The backend populates references inconsistently: sometimes as a bare id
// string, sometimes as an object keyed by "id" or "_id".

func unmarshalObject(data []byte, v any) error {
	return json.Unmarshal(data, v)
}

func bareID(data []byte) (string, bool) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || data[0] != '"' {
		return "", false
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return "", false
	}
	return s, true
}

// UserRef is a populated user reference on jobs, applications and engagements.
type UserRef struct {
	ID           string   `json:"id"`
	Name         string   `json:"name,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	Skills       []string `json:"skills,omitempty"`
	Rating       *Rating  `json:"rating,omitempty"`
	ProfileImage string   `json:"profileImage,omitempty"`
}

func (r *UserRef) UnmarshalJSON(data []byte) error {
	if id, ok := bareID(data); ok {
		*r = UserRef{ID: id}
		return nil
	}
	type alias UserRef
	aux := struct {
		*alias
		MongoID string `json:"_id"`
	}{alias: (*alias)(r)}
	if err := unmarshalObject(data, &aux); err != nil {
		return err
	}
	if r.ID == "" {
		r.ID = aux.MongoID
	}
	return nil
}
