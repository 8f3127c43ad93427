package intent

import "testing"

func TestLogEvent(t *testing.T) {
	tests := []struct {
		in     string
		want   Polarity
		wantOK bool
	}{
		{"I took it", Taken, true},
		{"I have taken my pills", Taken, true},
		{"i took my meds already", Taken, true},
		{"I missed it", Missed, true},
		{"I forgot this morning", Missed, true},
		{"I didn't take my tablets", Missed, true},
		{"I did not take it", Missed, true},
		// Both phrase sets match; taken is checked first.
		{"I forgot, but then I took it", Taken, true},
		{"what is adherence", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := LogEvent(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("LogEvent(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}

func TestParseSetReminder_MissingTime(t *testing.T) {
	r, ok := ParseSetReminder("remind me")
	if !ok {
		t.Fatal("expected reminder intent")
	}
	if !r.MissingTime {
		t.Errorf("MissingTime = false, want true")
	}
	if r.Time != "" || r.HasMedication() {
		t.Errorf("unexpected fields on missing-time intent: %+v", r)
	}
}

func TestParseSetReminder_TimeWithoutMedication(t *testing.T) {
	r, ok := ParseSetReminder("remind me at 8pm")
	if !ok {
		t.Fatal("expected reminder intent")
	}
	if r.MissingTime {
		t.Fatal("MissingTime = true, want false")
	}
	if r.Time != "20:00" {
		t.Errorf("Time = %q, want 20:00", r.Time)
	}
	if r.HasMedication() {
		t.Errorf("MedicationName = %q, want none", r.MedicationName)
	}
}

func TestParseSetReminder_Full(t *testing.T) {
	r, ok := ParseSetReminder("Set a reminder for ibuprofen at 07:30")
	if !ok {
		t.Fatal("expected reminder intent")
	}
	want := SetReminder{Time: "07:30", MedicationName: "ibuprofen"}
	if r != want {
		t.Errorf("ParseSetReminder = %+v, want %+v", r, want)
	}
}

func TestParseSetReminder_NoTrigger(t *testing.T) {
	if _, ok := ParseSetReminder("take aspirin at 9am"); ok {
		t.Error("expected no reminder intent without a trigger phrase")
	}
}

func TestIsNextDose(t *testing.T) {
	for _, in := range []string{"when is my next dose", "What's my next medication?", "next reminder please"} {
		if !IsNextDose(in) {
			t.Errorf("IsNextDose(%q) = false, want true", in)
		}
	}
	if IsNextDose("remind me at 8pm") {
		t.Error("IsNextDose(remind me at 8pm) = true, want false")
	}
}

func TestIsActionRequest(t *testing.T) {
	tests := []struct {
		in   string
		want bool
	}{
		{"remind me to take aspirin at 9am", true},
		{"please create a reminder for metformin", true},
		{"add reminder for 8pm", true},
		{"how do I set a reminder?", false},
		{"remind me?", false},
		{"how do reminders work", false},
	}
	for _, tt := range tests {
		if got := IsActionRequest(tt.in); got != tt.want {
			t.Errorf("IsActionRequest(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestIsQuestion(t *testing.T) {
	if !IsQuestion("what is adherence?  ") {
		t.Error("trailing whitespace after ? should still be a question")
	}
	if IsQuestion("what is adherence") {
		t.Error("no question mark should not be a question")
	}
}
