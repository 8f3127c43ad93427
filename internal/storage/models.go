package storage

import (
	"errors"
	"time"
)

// ErrNotFound is returned when a requested record does not exist for the user.
var ErrNotFound = errors.New("not found")

type Medication struct {
	ID        string
	UserID    string
	Name      string
	Dosage    string
	Frequency string
	CreatedAt time.Time
}

type Reminder struct {
	ID             string
	UserID         string
	MedicationID   string
	MedicationName string
	Time           string // HH:MM, zero padded
	Sent           bool
	CreatedAt      time.Time
}

type AdherenceRecord struct {
	ID           string
	UserID       string
	MedicationID string
	Date         time.Time // midnight UTC of the recorded day
	DoseIndex    int
	Taken        bool
	CreatedAt    time.Time
}
