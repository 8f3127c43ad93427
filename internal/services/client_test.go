package services

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"
)

type recordingObserver struct {
	mu       sync.Mutex
	outcomes []string
}

func (o *recordingObserver) ObserveCall(service, outcome string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.outcomes = append(o.outcomes, service+":"+outcome)
}

func TestMedicationClient_List(t *testing.T) {
	var gotAuth, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"_id":"m1","name":"Aspirin","dosage":"75mg","frequency":"once daily"},{"id":"m2","name":"Metformin"}]`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := NewMedicationClient(srv.URL+"/api/medications/", WithObserver(obs))
	meds, err := c.List(context.Background(), "tok")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if gotAuth != "Bearer tok" {
		t.Errorf("Authorization = %q, want Bearer tok", gotAuth)
	}
	if gotPath != "/api/medications" {
		t.Errorf("path = %q, want /api/medications", gotPath)
	}
	if len(meds) != 2 {
		t.Fatalf("got %d medications, want 2", len(meds))
	}
	if meds[0].ID != "m1" || meds[0].Name != "Aspirin" || meds[0].Dosage != "75mg" {
		t.Errorf("meds[0] = %+v", meds[0])
	}
	if meds[1].ID != "m2" {
		t.Errorf("meds[1].ID = %q, want m2", meds[1].ID)
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "medications:ok" {
		t.Errorf("observer outcomes = %v", obs.outcomes)
	}
}

func TestNotificationClient_Create(t *testing.T) {
	var got NewReminder
	var gotMethod, gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotMethod, gotPath = r.Method, r.URL.Path
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`{"message":"Reminder created successfully","reminder":{"_id":"r1","medicationId":"m1","medicationName":"Aspirin","time":"09:00","sent":false}}`))
	}))
	defer srv.Close()

	c := NewNotificationClient(srv.URL)
	rem, err := c.Create(context.Background(), "tok", NewReminder{MedicationID: "m1", MedicationName: "Aspirin", Time: "09:00"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if gotMethod != http.MethodPost || gotPath != "/create" {
		t.Errorf("request = %s %s, want POST /create", gotMethod, gotPath)
	}
	want := NewReminder{MedicationID: "m1", MedicationName: "Aspirin", Time: "09:00"}
	if got != want {
		t.Errorf("body = %+v, want %+v", got, want)
	}
	if rem.ID != "r1" || rem.Time != "09:00" {
		t.Errorf("reminder = %+v", rem)
	}
}

func TestAdherenceClient_List(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[{"medicationId":"m1","date":"2026-10-18T00:00:00.000Z","doseIndex":1,"taken":true}]`))
	}))
	defer srv.Close()

	recs, err := NewAdherenceClient(srv.URL).List(context.Background(), "tok")
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("got %d records", len(recs))
	}
	if recs[0].Day() != "2026-10-18" || recs[0].DoseIndex != 1 || !recs[0].Taken {
		t.Errorf("record = %+v", recs[0])
	}
}

func TestClient_ErrorUsesBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"message":"Invalid token"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := NewMedicationClient(srv.URL, WithObserver(obs)).List(context.Background(), "bad")
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *Error, got %T: %v", err, err)
	}
	if apiErr.StatusCode != http.StatusUnauthorized || apiErr.Message != "Invalid token" || apiErr.Service != MedicationsService {
		t.Errorf("error = %+v", apiErr)
	}
	if obs.outcomes[0] != "medications:http_error" {
		t.Errorf("outcome = %v", obs.outcomes)
	}
}

func TestClient_ErrorSynthesizesMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := NewAdherenceClient(srv.URL).List(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected error")
	}
	if err.Error() != "adherence returned status 502" {
		t.Errorf("error = %q", err.Error())
	}
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"not":"an array"}`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := NewNotificationClient(srv.URL, WithObserver(obs)).List(context.Background(), "tok")
	if err == nil || !strings.Contains(err.Error(), "malformed") {
		t.Fatalf("expected malformed response error, got %v", err)
	}
	if obs.outcomes[0] != "notifications:decode_error" {
		t.Errorf("outcome = %v", obs.outcomes)
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	start := time.Now()
	_, err := NewMedicationClient(srv.URL, WithTimeout(50*time.Millisecond)).List(context.Background(), "tok")
	if err == nil {
		t.Fatal("expected timeout error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("call took %v, timeout not applied", elapsed)
	}
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected wrapped DeadlineExceeded, got %v", err)
	}
	if !strings.Contains(err.Error(), "did not respond") {
		t.Errorf("error = %q", err.Error())
	}
}

func TestClient_NoTokenNoHeader(t *testing.T) {
	var hadAuth bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, hadAuth = r.Header["Authorization"]
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := NewMedicationClient(srv.URL).List(context.Background(), ""); err != nil {
		t.Fatalf("List: %v", err)
	}
	if hadAuth {
		t.Error("Authorization header sent without a token")
	}
}
