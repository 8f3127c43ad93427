package faq

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestBest_ResetPassword(t *testing.T) {
	kb, err := New([]Entry{{Triggers: []string{"forgot password", "reset password"}, Answer: "Use the Forgot Password page."}})
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	e, ok := kb.Best("how do I reset my password")
	if !ok {
		t.Fatal("expected a match for reset password question")
	}
	if e.Answer != "Use the Forgot Password page." {
		t.Errorf("Answer = %q", e.Answer)
	}

	if _, ok := kb.Best("unrelated gibberish"); ok {
		t.Error("expected no match for gibberish")
	}
}

func TestBest_HighestScoreWins(t *testing.T) {
	kb, err := New([]Entry{
		{Triggers: []string{"reminder"}, Answer: "first"},
		{Triggers: []string{"reminder", "limit"}, Answer: "second"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	e, ok := kb.Best("Is there a reminder limit?")
	if !ok || e.Answer != "second" {
		t.Errorf("Best = (%q, %v), want second", e.Answer, ok)
	}
}

func TestBest_TieGoesToEarlierEntry(t *testing.T) {
	kb, err := New([]Entry{
		{Triggers: []string{"password"}, Answer: "first"},
		{Triggers: []string{"reset"}, Answer: "second"},
	})
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	for range 10 {
		e, ok := kb.Best("reset password")
		if !ok || e.Answer != "first" {
			t.Fatalf("Best = (%q, %v), want first", e.Answer, ok)
		}
	}
}

func TestBest_PunctuationIgnored(t *testing.T) {
	kb := Default()
	e, ok := kb.Best("What is adherence???")
	if !ok {
		t.Fatal("expected adherence definition")
	}
	if !strings.Contains(e.Answer, "as prescribed") {
		t.Errorf("Answer = %q, want adherence definition", e.Answer)
	}
}

func TestDefault_Entries(t *testing.T) {
	kb := Default()
	entries := kb.Entries()
	if len(entries) != 9 {
		t.Fatalf("got %d entries, want 9", len(entries))
	}
	entries[0].Answer = "mutated"
	if kb.Entries()[0].Answer == "mutated" {
		t.Error("Entries returned shared backing array")
	}
}

func TestDefault_ReminderHowTo(t *testing.T) {
	e, ok := Default().Best("how do I set a reminder?")
	if !ok {
		t.Fatal("expected reminder how-to entry")
	}
	if !strings.Contains(e.Answer, "Medications page") {
		t.Errorf("Answer = %q", e.Answer)
	}
}

func TestNormalize(t *testing.T) {
	if got := Normalize("  I Didn't, Take IT!  "); got != "i didnt take it" {
		t.Errorf("Normalize = %q", got)
	}
}

func TestIncludesAny_WholeWords(t *testing.T) {
	tests := []struct {
		msg  string
		keys []string
		want bool
	}{
		{"Hi there", []string{"hi", "hello"}, true},
		{"which one is it", []string{"hi"}, false},
		{"I have chest pain!", []string{"chest pain"}, true},
		{"show my adherence", []string{"log", "adherence"}, true},
		{"blog post", []string{"log"}, false},
	}
	for _, tt := range tests {
		if got := IncludesAny(tt.msg, tt.keys); got != tt.want {
			t.Errorf("IncludesAny(%q, %v) = %v, want %v", tt.msg, tt.keys, got, tt.want)
		}
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "faq.yaml")
	content := "- triggers: [opening hours]\n  answer: We never close.\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	kb, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	e, ok := kb.Best("what are your opening hours")
	if !ok || e.Answer != "We never close." {
		t.Errorf("Best = (%q, %v)", e.Answer, ok)
	}
}

func TestLoad_Invalid(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"empty.yaml":     "[]\n",
		"noanswer.yaml":  "- triggers: [x]\n",
		"notrigger.yaml": "- answer: y\n",
		"broken.yaml":    "- triggers: [x\n",
	}
	for name, content := range cases {
		path := filepath.Join(dir, name)
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatal(err)
		}
		if _, err := Load(path); err == nil {
			t.Errorf("Load(%s): expected error", name)
		}
	}
	if _, err := Load(filepath.Join(dir, "missing.yaml")); err == nil {
		t.Error("Load(missing): expected error")
	}
}
