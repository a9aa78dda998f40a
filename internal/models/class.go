package models

import "time"

// Class represents a home class (a fixed group of students in one grade).
type Class struct {
	ID         string    `db:"id" json:"id"`
	Name       string    `db:"name" json:"name"`
	Grade      string    `db:"grade" json:"grade"`
	Capacity   int       `db:"capacity" json:"capacity"`
	HomeRoomID *string   `db:"home_room_id" json:"home_room_id,omitempty"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
	UpdatedAt  time.Time `db:"updated_at" json:"updated_at"`
}

// ClassFilter defines filter criteria for listing classes.
type ClassFilter struct {
	Grade     string
	Search    string
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}
