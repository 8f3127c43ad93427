package intent

import "strings"

// Polarity is the outcome a user reports for a dose.
type Polarity string

const (
	Taken  Polarity = "TAKEN"
	Missed Polarity = "MISSED"
)

var (
	takenPhrases  = []string{"i took it", "taken", "i have taken", "i took my meds", "i took my medication"}
	missedPhrases = []string{"i missed it", "missed", "i forgot", "i didn't take", "i did not take"}

	reminderTriggers = []string{"remind me", "set a reminder", "add a reminder", "reminder"}
	actionPhrases    = []string{
		"remind me",
		"set a reminder", "add a reminder", "create a reminder",
		"set reminder", "add reminder", "create reminder",
	}
	nextDosePhrases = []string{"next dose", "when is my next", "next reminder", "next medication", "what's my next"}
)

func normalize(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func containsAny(t string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(t, p) {
			return true
		}
	}
	return false
}

// LogEvent reports whether text says a dose was taken or missed. A message
// matching both phrase sets is treated as Taken.
func LogEvent(text string) (Polarity, bool) {
	t := normalize(text)
	if containsAny(t, takenPhrases) {
		return Taken, true
	}
	if containsAny(t, missedPhrases) {
		return Missed, true
	}
	return "", false
}

// SetReminder is a parsed request to create a reminder. When MissingTime is
// set the other fields are empty.
type SetReminder struct {
	Time           string
	MedicationName string
	MissingTime    bool
}

// HasMedication reports whether a medication name was extracted.
func (r SetReminder) HasMedication() bool { return r.MedicationName != "" }

// ParseSetReminder recognises a reminder request. ok is false when text
// contains no reminder trigger at all.
func ParseSetReminder(text string) (r SetReminder, ok bool) {
	if !containsAny(normalize(text), reminderTriggers) {
		return SetReminder{}, false
	}
	hhmm, found := ExtractTime(text)
	if !found {
		return SetReminder{MissingTime: true}, true
	}
	name, _ := ExtractMedicationName(text)
	return SetReminder{Time: hhmm, MedicationName: name}, true
}

// IsNextDose reports whether text asks about the upcoming dose.
func IsNextDose(text string) bool {
	return containsAny(normalize(text), nextDosePhrases)
}

// IsQuestion reports whether the trimmed text ends with a question mark.
func IsQuestion(text string) bool {
	return strings.HasSuffix(strings.TrimSpace(text), "?")
}

// IsActionRequest reports whether text is an explicit instruction to create a
// reminder, as opposed to a question about reminders.
func IsActionRequest(text string) bool {
	if IsQuestion(text) {
		return false
	}
	return containsAny(normalize(text), actionPhrases)
}
