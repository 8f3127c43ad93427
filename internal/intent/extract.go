package intent

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	clock24Re  = regexp.MustCompile(`\b([01]?\d|2[0-3]):([0-5]\d)\b`)           // 20:00, 08:30, 8:30
	clock12Re  = regexp.MustCompile(`\b(1[0-2]|\d)(?::([0-5]\d))?\s?(am|pm)\b`) // 8pm, 8 pm, 8:30am
	meridiemRe = regexp.MustCompile(`^\s?(am|pm)\b`)

	takeNameRe = regexp.MustCompile(`(?i)take\s+([a-zA-Z0-9\s-]+?)(?:\s+at\b|\s+every\b|$)`)
	forNameRe  = regexp.MustCompile(`(?i)for\s+([a-zA-Z0-9\s-]+?)(?:\s+at\b|\s+every\b|$)`)
)

// ExtractTime returns the first clock time in text as a zero-padded 24-hour
// "HH:MM" string. 24-hour notation is tried first, then 12-hour notation with a
// mandatory am/pm suffix. A bare hour such as "8" is never a time.
func ExtractTime(text string) (string, bool) {
	t := strings.ToLower(strings.TrimSpace(text))

	if m := clock24Re.FindStringSubmatchIndex(t); m != nil {
		hh, _ := strconv.Atoi(t[m[2]:m[3]])
		// A trailing am/pm only converts hours that are valid 12-hour hours;
		// "20:00 pm" stays 20:00.
		if mer := meridiemRe.FindStringSubmatch(t[m[1]:]); mer != nil && hh >= 1 && hh <= 12 {
			hh = to24(hh, mer[1])
		}
		return fmt.Sprintf("%02d:%s", hh, t[m[4]:m[5]]), true
	}

	m := clock12Re.FindStringSubmatch(t)
	if m == nil {
		return "", false
	}
	hh, _ := strconv.Atoi(m[1])
	mm := m[2]
	if mm == "" {
		mm = "00"
	}
	return fmt.Sprintf("%02d:%s", to24(hh, m[3]), mm), true
}

func to24(hh int, meridiem string) int {
	switch {
	case meridiem == "pm" && hh != 12:
		return hh + 12
	case meridiem == "am" && hh == 12:
		return 0
	}
	return hh
}

// ExtractMedicationName pulls a free-text medication name out of phrasings like
// "take metformin at 8pm" or "a reminder for paracetamol at 20:00".
func ExtractMedicationName(text string) (string, bool) {
	t := strings.TrimSpace(text)
	for _, re := range []*regexp.Regexp{takeNameRe, forNameRe} {
		m := re.FindStringSubmatch(t)
		if m == nil {
			continue
		}
		if name := strings.TrimSpace(m[1]); name != "" {
			return name, true
		}
	}
	return "", false
}
