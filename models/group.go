package models

import "time"

// Group is a named set of Letterboxd usernames saved for repeated analysis.
type Group struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Users     []string  `json:"users"`
	CreatedAt time.Time `json:"createdAt"`
}
