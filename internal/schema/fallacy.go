package schema

import (
	"fmt"
	"slices"
	"strings"
)

// UncertaintyDisclaimer must appear verbatim in every FallacyHint.MoreInfoText
const UncertaintyDisclaimer = "Note: this is a possible pattern, not a definitive judgment."

// HintLevel is how strongly the coach should surface a fallacy hint
type HintLevel string

const (
	HintNone   HintLevel = "none"
	HintLight  HintLevel = "light"
	HintStrong HintLevel = "strong"
)

// IsValid reports whether l is a known hint level
func (l HintLevel) IsValid() bool {
	switch l {
	case HintNone, HintLight, HintStrong:
		return true
	default:
		return false
	}
}

// FallacyType is one of Aristotle's thirteen fallacies
type FallacyType string

const (
	FallacyEquivocation           FallacyType = "equivocation"
	FallacyAmphiboly              FallacyType = "amphiboly"
	FallacyComposition            FallacyType = "composition"
	FallacyDivision               FallacyType = "division"
	FallacyAccent                 FallacyType = "accent"
	FallacyFormOfExpression       FallacyType = "form_of_expression"
	FallacyAccident               FallacyType = "accident"
	FallacyConverseAccident       FallacyType = "converse_accident"
	FallacyFalseCause             FallacyType = "false_cause"
	FallacyBeggingTheQuestion     FallacyType = "begging_the_question"
	FallacyIgnoranceOfRefutation  FallacyType = "ignorance_of_refutation"
	FallacyAffirmingTheConsequent FallacyType = "affirming_the_consequent"
	FallacyManyQuestions          FallacyType = "many_questions"
)

type fallacyInfo struct {
	explanation string
	redFlag     string
}

var fallacies = map[FallacyType]fallacyInfo{
	FallacyEquivocation: {
		"A key word/phrase shifts meaning mid-argument.",
		"In interviews, shifting a key term's meaning can make your reasoning feel slippery or evasive.",
	},
	FallacyAmphiboly: {
		"Ambiguity from grammar/syntax drives a mistaken conclusion.",
		"In interviews, leaning on ambiguous phrasing can create confusion and weaken confidence in your conclusion.",
	},
	FallacyComposition: {
		"Attributes of parts are assumed for the whole.",
		"In interviews, assuming what's true for parts is true for the whole can lead to oversimplified system-level claims.",
	},
	FallacyDivision: {
		"Attributes of the whole are assumed for the parts.",
		"In interviews, assuming what's true of the whole is true of each part can lead to incorrect, hand-wavy details.",
	},
	FallacyAccent: {
		"Meaning changes due to emphasis, quoting, or formatting.",
		"In interviews, relying on emphasis or selective quoting can look like cherry-picking rather than careful reasoning.",
	},
	FallacyFormOfExpression: {
		"Misleading inference from a similarity in wording/grammar.",
		"In interviews, conclusions based on wording similarity can sound like pattern-matching instead of substance.",
	},
	FallacyAccident: {
		"A general rule is misapplied to an exceptional case.",
		"In interviews, applying a general rule to an exception can signal weak judgment about context and constraints.",
	},
	FallacyConverseAccident: {
		"A rule is inferred from an exceptional case.",
		"In interviews, generalizing from a one-off anecdote can make your claims feel unrepresentative and fragile.",
	},
	FallacyFalseCause: {
		"Causation is asserted without sufficient basis.",
		"In interviews, jumping from correlation to causation can make decisions sound ungrounded.",
	},
	FallacyBeggingTheQuestion: {
		"The conclusion is assumed in the premises (circularity).",
		"In interviews, circular reasoning can make your argument feel untested or assumption-driven.",
	},
	FallacyIgnoranceOfRefutation: {
		"A response misses the point being argued.",
		"In interviews, missing the point can signal weak listening or unclear prioritization.",
	},
	FallacyAffirmingTheConsequent: {
		"If P then Q; Q; therefore P.",
		"In interviews, this can read as an overconfident inference without ruling out alternatives.",
	},
	FallacyManyQuestions: {
		"A loaded question presupposes disputed claims.",
		"In interviews, bundling multiple assumptions into one question or claim can feel like leading the conversation rather than clarifying.",
	},
}

// FallacyTypes lists the taxonomy in its canonical order
var FallacyTypes = []FallacyType{
	FallacyEquivocation,
	FallacyAmphiboly,
	FallacyComposition,
	FallacyDivision,
	FallacyAccent,
	FallacyFormOfExpression,
	FallacyAccident,
	FallacyConverseAccident,
	FallacyFalseCause,
	FallacyBeggingTheQuestion,
	FallacyIgnoranceOfRefutation,
	FallacyAffirmingTheConsequent,
	FallacyManyQuestions,
}

// IsValid reports whether t belongs to the taxonomy
func (t FallacyType) IsValid() bool {
	_, ok := fallacies[t]
	return ok
}

// Explanation returns the one-line definition of t
func (t FallacyType) Explanation() string {
	return fallacies[t].explanation
}

// DisplayName turns "false_cause" into "False Cause"
func (t FallacyType) DisplayName() string {
	words := strings.Fields(strings.ReplaceAll(string(t), "_", " "))
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}

// FallacyExplanations maps every type to its definition, for prompts
func FallacyExplanations() map[string]string {
	out := make(map[string]string, len(fallacies))
	for t, info := range fallacies {
		out[string(t)] = info.explanation
	}
	return out
}

// PossibleFallacy is one candidate fallacy found in an answer
type PossibleFallacy struct {
	Type             FallacyType `json:"type" jsonschema:"one of the allowed fallacy types"`
	Confidence       float64     `json:"confidence" jsonschema:"0.0 to 1.0"`
	Excerpt          string      `json:"excerpt" jsonschema:"short quote from the answer"`
	ShortExplanation string      `json:"short_explanation"`
}

// FallacyHint is the reasoning-quality feedback for one answer
type FallacyHint struct {
	HintLevel         HintLevel         `json:"hint_level" jsonschema:"one of none, light, strong"`
	CoachHintText     string            `json:"coach_hint_text"`
	PossibleFallacies []PossibleFallacy `json:"possible_fallacies"`
	MoreInfoText      string            `json:"more_info_text"`
	SuggestedRewrite  *string           `json:"suggested_rewrite,omitempty"`
}

// NewFallacyHint builds a hint and guarantees the disclaimer is present in
// MoreInfoText. The result is validated.
func NewFallacyHint(level HintLevel, coachHint string, possible []PossibleFallacy, moreInfo string, rewrite *string) (FallacyHint, error) {
	h := FallacyHint{
		HintLevel:         level,
		CoachHintText:     coachHint,
		PossibleFallacies: slices.Clone(possible),
		MoreInfoText:      withDisclaimer(moreInfo),
		SuggestedRewrite:  rewrite,
	}
	if err := h.Validate(); err != nil {
		return FallacyHint{}, err
	}
	return h, nil
}

// DefaultFallacyHint is substituted when judging an answer fails
func DefaultFallacyHint() FallacyHint {
	return FallacyHint{
		HintLevel:         HintNone,
		PossibleFallacies: []PossibleFallacy{},
		MoreInfoText:      UncertaintyDisclaimer,
	}
}

// Normalize lower-cases enum fields and restores the disclaimer
func (h *FallacyHint) Normalize() {
	h.HintLevel = HintLevel(strings.ToLower(strings.TrimSpace(string(h.HintLevel))))
	if h.HintLevel == "" {
		h.HintLevel = HintNone
	}
	for i := range h.PossibleFallacies {
		pf := &h.PossibleFallacies[i]
		pf.Type = FallacyType(strings.ToLower(strings.TrimSpace(string(pf.Type))))
	}
	h.MoreInfoText = withDisclaimer(h.MoreInfoText)
}

// Validate enforces the hint contract
func (h FallacyHint) Validate() error {
	if !h.HintLevel.IsValid() {
		return &ValidationError{Field: "hint_level", Value: string(h.HintLevel), Reason: "unknown hint level"}
	}
	if !strings.Contains(h.MoreInfoText, UncertaintyDisclaimer) {
		return &ValidationError{Field: "more_info_text", Reason: "must contain the uncertainty disclaimer"}
	}
	for i, pf := range h.PossibleFallacies {
		if !pf.Type.IsValid() {
			return &ValidationError{
				Field:  fmt.Sprintf("possible_fallacies[%d].type", i),
				Value:  string(pf.Type),
				Reason: "not in the fallacy taxonomy",
			}
		}
		if pf.Confidence < 0 || pf.Confidence > 1 {
			return &ValidationError{
				Field:  fmt.Sprintf("possible_fallacies[%d].confidence", i),
				Value:  fmt.Sprint(pf.Confidence),
				Reason: "must be between 0 and 1",
			}
		}
	}
	return nil
}

// Detected reports whether the hint flags at least one fallacy
func (h FallacyHint) Detected() bool {
	return h.HintLevel != HintNone && len(h.PossibleFallacies) > 0
}

// Clone returns a deep copy
func (h FallacyHint) Clone() FallacyHint {
	h.PossibleFallacies = slices.Clone(h.PossibleFallacies)
	if h.SuggestedRewrite != nil {
		v := *h.SuggestedRewrite
		h.SuggestedRewrite = &v
	}
	return h
}

func withDisclaimer(text string) string {
	if strings.Contains(text, UncertaintyDisclaimer) {
		return text
	}
	text = strings.TrimRight(text, "\n ")
	if text == "" {
		return UncertaintyDisclaimer
	}
	return text + "\n" + UncertaintyDisclaimer
}
