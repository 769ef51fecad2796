package analysis

import (
	"bufio"
	_ "embed"
	"sort"
	"strings"
	"sync"
)

//go:embed skills_dictionary.txt
var dictionaryData string

// Dictionary is a fixed list of well-known skills grouped by category.
// It is used to find skills in a job description when no candidate
// profile is available.
type Dictionary struct {
	skills     []string          // display spelling, file order
	categories map[string]string // lower-cased skill -> category
}

var (
	defaultDictionary     *Dictionary
	defaultDictionaryOnce sync.Once
)

// DefaultDictionary returns the embedded dictionary
func DefaultDictionary() *Dictionary {
	defaultDictionaryOnce.Do(func() {
		defaultDictionary = ParseDictionary(dictionaryData)
	})
	return defaultDictionary
}

// ParseDictionary reads the "# Category" / one-skill-per-line format.
// Skills before the first category header are ignored.
func ParseDictionary(data string) *Dictionary {
	d := &Dictionary{categories: make(map[string]string)}

	scanner := bufio.NewScanner(strings.NewReader(data))
	var currentCategory string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "# ") {
			currentCategory = strings.TrimSpace(line[2:])
			continue
		}
		if strings.HasPrefix(line, "#") || currentCategory == "" {
			continue
		}
		key := strings.ToLower(line)
		if _, dup := d.categories[key]; dup {
			continue
		}
		d.skills = append(d.skills, line)
		d.categories[key] = currentCategory
	}
	return d
}

// Len is the number of skills
func (d *Dictionary) Len() int {
	return len(d.skills)
}

// Category looks up a skill case-insensitively
func (d *Dictionary) Category(skill string) (string, bool) {
	c, ok := d.categories[strings.ToLower(strings.TrimSpace(skill))]
	return c, ok
}

// Find returns the dictionary skills mentioned in text, ordered by first
// mention. Matching is whole-token and case-insensitive, so "Go" does not
// match "good" and "Machine Learning" needs both words in sequence.
func (d *Dictionary) Find(text string) []string {
	padded := " " + strings.Join(tokenize(text), " ") + " "

	type hit struct {
		skill string
		pos   int
	}
	var hits []hit
	for _, s := range d.skills {
		if pos := strings.Index(padded, " "+strings.ToLower(s)+" "); pos >= 0 {
			hits = append(hits, hit{skill: s, pos: pos})
		}
	}
	sort.SliceStable(hits, func(i, j int) bool { return hits[i].pos < hits[j].pos })

	out := make([]string, len(hits))
	for i, h := range hits {
		out[i] = h.skill
	}
	return out
}

// tokenize lower-cases text and splits it on punctuation that never
// occurs inside a skill name. Trailing sentence punctuation is dropped so
// "Go." still matches Go while "Next.js" stays whole.
func tokenize(text string) []string {
	text = strings.ToLower(text)
	text = strings.NewReplacer(
		",", " ", ";", " ", ":", " ", "(", " ", ")", " ",
		"[", " ", "]", " ", "{", " ", "}", " ", "\"", " ", "'", " ",
	).Replace(text)

	fields := strings.Fields(text)
	tokens := fields[:0]
	for _, f := range fields {
		f = strings.TrimRight(f, ".!?")
		if f != "" {
			tokens = append(tokens, f)
		}
	}
	return tokens
}
