package domain

import "time"

type TrainStatus string

const (
	TrainStatusActive      TrainStatus = "active"
	TrainStatusMaintenance TrainStatus = "maintenance"
	TrainStatusRetired     TrainStatus = "retired"
)

type Train struct {
	ID          int64       `json:"id"`
	TrainNumber string      `json:"train_number"`
	Name        string      `json:"name"`
	Type        string      `json:"type"`
	Status      TrainStatus `json:"status"`
	Facilities  string      `json:"facilities,omitempty"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}
