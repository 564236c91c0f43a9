package domain

import "time"

type Station struct {
	ID         int64     `json:"id"`
	Name       string    `json:"name"`
	Code       string    `json:"code"`
	City       string    `json:"city"`
	Address    string    `json:"address,omitempty"`
	Facilities string    `json:"facilities,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}
