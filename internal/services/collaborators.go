package services

import (
	"context"
	"net/http"
)

// Service names used in errors and metrics.
const (
	MedicationsService   = "medications"
	NotificationsService = "notifications"
	AdherenceService     = "adherence"
)

// MedicationClient talks to the medications service.
type MedicationClient struct {
	c client
}

// NewMedicationClient creates a client for the medications collection at
// baseURL (e.g. http://localhost:5002/api/medications).
func NewMedicationClient(baseURL string, opts ...Option) *MedicationClient {
	return &MedicationClient{c: newClient(MedicationsService, baseURL, opts...)}
}

// List returns the medications owned by the bearer identity.
func (m *MedicationClient) List(ctx context.Context, token string) ([]Medication, error) {
	var out []Medication
	if err := m.c.doJSON(ctx, http.MethodGet, "", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// NotificationClient talks to the notifications (reminders) service.
type NotificationClient struct {
	c client
}

// NewNotificationClient creates a client for the reminders collection at
// baseURL (e.g. http://localhost:5003/api/notifications).
func NewNotificationClient(baseURL string, opts ...Option) *NotificationClient {
	return &NotificationClient{c: newClient(NotificationsService, baseURL, opts...)}
}

// List returns the reminders owned by the bearer identity.
func (n *NotificationClient) List(ctx context.Context, token string) ([]Reminder, error) {
	var out []Reminder
	if err := n.c.doJSON(ctx, http.MethodGet, "", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// Create stores a new reminder and returns it as echoed by the service.
func (n *NotificationClient) Create(ctx context.Context, token string, r NewReminder) (Reminder, error) {
	var out struct {
		Message  string   `json:"message"`
		Reminder Reminder `json:"reminder"`
	}
	if err := n.c.doJSON(ctx, http.MethodPost, "/create", token, r, &out); err != nil {
		return Reminder{}, err
	}
	return out.Reminder, nil
}

// AdherenceClient talks to the adherence service.
type AdherenceClient struct {
	c client
}

// NewAdherenceClient creates a client for the adherence history at baseURL
// (e.g. http://localhost:5004/api/adherence).
func NewAdherenceClient(baseURL string, opts ...Option) *AdherenceClient {
	return &AdherenceClient{c: newClient(AdherenceService, baseURL, opts...)}
}

// List returns the adherence history of the bearer identity, newest first.
func (a *AdherenceClient) List(ctx context.Context, token string) ([]AdherenceRecord, error) {
	var out []AdherenceRecord
	if err := a.c.doJSON(ctx, http.MethodGet, "", token, nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}
