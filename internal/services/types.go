package services

import "encoding/json"

// Medication is a user's medication as stored by the medications service.
type Medication struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Dosage    string `json:"dosage,omitempty"`
	Frequency string `json:"frequency,omitempty"`
}

func (m *Medication) UnmarshalJSON(data []byte) error {
	type plain Medication
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*m = Medication(raw.plain)
	if m.ID == "" {
		m.ID = raw.MongoID
	}
	return nil
}

// Reminder is a daily dose time held by the notifications service. Time is
// zero-padded 24-hour "HH:MM".
type Reminder struct {
	ID             string `json:"id"`
	MedicationID   string `json:"medicationId"`
	MedicationName string `json:"medicationName"`
	Time           string `json:"time"`
	Sent           bool   `json:"sent,omitempty"`
}

func (r *Reminder) UnmarshalJSON(data []byte) error {
	type plain Reminder
	var raw struct {
		plain
		MongoID string `json:"_id"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = Reminder(raw.plain)
	if r.ID == "" {
		r.ID = raw.MongoID
	}
	return nil
}

// NewReminder is the body sent to create a reminder.
type NewReminder struct {
	MedicationID   string `json:"medicationId"`
	MedicationName string `json:"medicationName"`
	Time           string `json:"time"`
}

// AdherenceRecord is one logged dose outcome. Date is an ISO-8601 date or
// timestamp; only its leading YYYY-MM-DD is meaningful.
type AdherenceRecord struct {
	MedicationID string `json:"medicationId"`
	Date         string `json:"date"`
	DoseIndex    int    `json:"doseIndex"`
	Taken        bool   `json:"taken"`
}

// Day returns the calendar date portion of Date.
func (a AdherenceRecord) Day() string {
	if len(a.Date) >= 10 {
		return a.Date[:10]
	}
	return a.Date
}
