package model

import "time"

type Comment struct {
	ID        ID         `json:"id"`
	Content   string     `json:"content"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt,omitempty"`
	Author    User       `json:"author"`
}
