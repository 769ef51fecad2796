package schema

import "strings"

const defaultRedFlag = "In interviews, this can reduce trust in your reasoning if key claims aren't supported."

// RedFlagRationale explains why a fallacy type hurts an interview answer
func RedFlagRationale(t FallacyType) string {
	if info, ok := fallacies[t]; ok {
		return info.redFlag
	}
	return defaultRedFlag
}

// PrimaryFallacy returns the top-ranked fallacy, if any
func (h FallacyHint) PrimaryFallacy() (PossibleFallacy, bool) {
	if len(h.PossibleFallacies) == 0 {
		return PossibleFallacy{}, false
	}
	return h.PossibleFallacies[0], true
}

// ReadMoreText renders the long-form explanation shown under a hint.
// The disclaimer is always the final paragraph.
func (h FallacyHint) ReadMoreText() string {
	var sections []string

	if pf, ok := h.PrimaryFallacy(); ok {
		if def := strings.TrimSpace(pf.Type.Explanation()); def != "" {
			sections = append(sections, "Definition: "+def)
		}

		var why []string
		if s := strings.TrimSpace(pf.ShortExplanation); s != "" {
			why = append(why, "- "+s)
		}
		if s := strings.TrimSpace(pf.Excerpt); s != "" {
			why = append(why, `- Excerpt: "`+s+`"`)
		}
		if len(why) > 0 {
			sections = append(sections, "Why this might fit:\n"+strings.Join(why, "\n"))
		}

		sections = append(sections, "Why it can be a red flag in interviews: "+RedFlagRationale(pf.Type))
	}

	var extra []string
	for _, line := range strings.Split(h.MoreInfoText, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || line == UncertaintyDisclaimer {
			continue
		}
		extra = append(extra, line)
	}
	if len(extra) > 0 {
		sections = append(sections, strings.Join(extra, "\n"))
	}

	sections = append(sections, UncertaintyDisclaimer)
	return strings.Join(sections, "\n\n")
}
