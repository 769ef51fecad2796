// Package coverage tracks how often each tracked skill has been surfaced by
// the questions of an interview and picks the next skill to focus on.
//
// Coverage is recomputed from scratch on every call. Interviews are tens of
// turns long, so there is no incremental state to keep consistent.
package coverage

import "strings"

// Tagged is anything that carries the tags of an asked question
type Tagged interface {
	QuestionTags() []string
}

// Canonicalize trims, lower-cases and collapses internal whitespace
func Canonicalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// Dedupe drops blank skills and skills whose canonical form was already
// seen. The first-seen spelling (trimmed) is kept, in input order.
func Dedupe(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		trimmed := strings.TrimSpace(s)
		key := Canonicalize(trimmed)
		if key == "" {
			continue
		}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, trimmed)
	}
	return out
}

// Compute counts, for every tracked skill, the turns whose question tags
// match it canonically. Skipped turns count too: coverage measures what was
// asked, not what was answered well. Tags that match no tracked skill are
// ignored. The result is keyed by the first-seen spelling of each skill.
func Compute[T Tagged](topSkills []string, transcript []T) map[string]int {
	unique := Dedupe(topSkills)
	if len(unique) == 0 {
		return map[string]int{}
	}

	byKey := make(map[string]string, len(unique))
	counts := make(map[string]int, len(unique))
	for _, s := range unique {
		byKey[Canonicalize(s)] = s
		counts[s] = 0
	}

	for _, turn := range transcript {
		// a turn counts once per skill however many of its tags match
		matched := make(map[string]struct{})
		for _, tag := range turn.QuestionTags() {
			if skill, ok := byKey[Canonicalize(tag)]; ok {
				matched[skill] = struct{}{}
			}
		}
		for skill := range matched {
			counts[skill]++
		}
	}
	return counts
}

// PickFocus returns the least covered skill. Ties go to the skill that comes
// first in the deduplicated topSkills order, so the choice never depends on
// map iteration. ok is false when topSkills has no usable entry.
func PickFocus(topSkills []string, coverage map[string]int) (skill string, ok bool) {
	unique := Dedupe(topSkills)
	if len(unique) == 0 {
		return "", false
	}

	canonical := make(map[string]int, len(coverage))
	for k, v := range coverage {
		canonical[Canonicalize(k)] += v
	}

	best := unique[0]
	bestCount := canonical[Canonicalize(best)]
	for _, s := range unique[1:] {
		if c := canonical[Canonicalize(s)]; c < bestCount {
			best, bestCount = s, c
		}
	}
	return best, true
}

// Tags adapts a bare tag list to Tagged
type Tags []string

func (t Tags) QuestionTags() []string { return t }
