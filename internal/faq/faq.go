// Package faq matches free-text messages against a closed set of
// question/answer entries.
package faq

import (
	_ "embed"
	"fmt"
	"os"
	"regexp"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed faq.yaml
var defaultYAML []byte

// Entry is one knowledge-base item: any of its trigger phrases appearing in a
// message counts towards selecting Answer.
type Entry struct {
	Triggers []string `yaml:"triggers" json:"triggers"`
	Answer   string   `yaml:"answer" json:"answer"`
}

// KnowledgeBase is an ordered, read-only list of entries. Order matters:
// ties are won by the earlier entry.
type KnowledgeBase struct {
	entries []Entry
}

// Default returns the built-in knowledge base.
func Default() *KnowledgeBase {
	kb, err := Parse(defaultYAML)
	if err != nil {
		panic(fmt.Sprintf("faq: embedded knowledge base is invalid: %v", err))
	}
	return kb
}

// Load reads a YAML knowledge base from path.
func Load(path string) (*KnowledgeBase, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading faq file: %w", err)
	}
	kb, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return kb, nil
}

// Parse decodes a YAML list of entries.
func Parse(data []byte) (*KnowledgeBase, error) {
	var entries []Entry
	if err := yaml.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("decoding yaml: %w", err)
	}
	return New(entries)
}

// New builds a knowledge base from entries, rejecting entries without
// triggers or answer.
func New(entries []Entry) (*KnowledgeBase, error) {
	if len(entries) == 0 {
		return nil, fmt.Errorf("knowledge base has no entries")
	}
	for i, e := range entries {
		if strings.TrimSpace(e.Answer) == "" {
			return nil, fmt.Errorf("entry %d: answer is empty", i)
		}
		if len(e.Triggers) == 0 {
			return nil, fmt.Errorf("entry %d: no triggers", i)
		}
	}
	cp := make([]Entry, len(entries))
	copy(cp, entries)
	return &KnowledgeBase{entries: cp}, nil
}

// Entries returns a copy of the entries in table order.
func (kb *KnowledgeBase) Entries() []Entry {
	cp := make([]Entry, len(kb.entries))
	copy(cp, kb.entries)
	return cp
}

// Best returns the entry with the strictly highest score for message. A
// trigger scores one point when it occurs in the normalized message, either
// verbatim or as its words in order ("reset password" in "reset my
// password"). ok is false when nothing scores.
func (kb *KnowledgeBase) Best(message string) (Entry, bool) {
	m := Normalize(message)
	words := strings.Fields(m)

	best, bestScore := -1, 0
	for i, e := range kb.entries {
		score := 0
		for _, trig := range e.Triggers {
			if phraseMatches(m, words, Normalize(trig)) {
				score++
			}
		}
		if score > bestScore {
			best, bestScore = i, score
		}
	}
	if best < 0 {
		return Entry{}, false
	}
	return kb.entries[best], true
}

var punctRe = regexp.MustCompile(`[^\p{L}\p{N}_\s]`)

// Normalize lowercases, trims and strips punctuation.
func Normalize(text string) string {
	return punctRe.ReplaceAllString(strings.ToLower(strings.TrimSpace(text)), "")
}

func phraseMatches(m string, words []string, phrase string) bool {
	if phrase == "" {
		return false
	}
	if strings.Contains(m, phrase) {
		return true
	}
	return wordsInOrder(words, strings.Fields(phrase))
}

func wordsInOrder(words, want []string) bool {
	if len(want) < 2 {
		return false
	}
	j := 0
	for _, w := range words {
		if w == want[j] {
			j++
			if j == len(want) {
				return true
			}
		}
	}
	return false
}

// IncludesAny reports whether any keyword occurs in message as a whole word or
// run of whole words, after normalization.
func IncludesAny(message string, keywords []string) bool {
	m := " " + strings.Join(strings.Fields(Normalize(message)), " ") + " "
	for _, k := range keywords {
		k = strings.Join(strings.Fields(Normalize(k)), " ")
		if k != "" && strings.Contains(m, " "+k+" ") {
			return true
		}
	}
	return false
}
