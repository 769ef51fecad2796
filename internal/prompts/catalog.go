// Package prompts holds the system prompts and user-content templates sent
// to the language model, and the coaching tone for each prompt mode.
package prompts

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"text/template"

	"github.com/kfreiman/interviewcoach/internal/schema"
)

//go:embed templates/*.tmpl templates/base_rules.txt
var templateFS embed.FS

// ErrUnknownMode is returned for prompt modes outside Modes
var ErrUnknownMode = errors.New("unknown prompt mode")

// Mode selects the coaching tone
type Mode string

const (
	ModeDefault     Mode = "default"
	ModeStrict      Mode = "strict"
	ModeFriendly    Mode = "friendly"
	ModeChallenging Mode = "challenging"
	ModeConcise     Mode = "concise"
)

// Modes lists the supported modes in display order
var Modes = []Mode{ModeDefault, ModeStrict, ModeFriendly, ModeChallenging, ModeConcise}

var defaultTones = map[Mode]string{
	ModeDefault:     "Be practical and realistic; optimize for interview signal.",
	ModeStrict:      "Be strict, rubric-driven, and no-nonsense; highlight gaps clearly.",
	ModeFriendly:    "Be supportive and encouraging while still honest.",
	ModeChallenging: "Be adversarial in a fair way; probe weak points and assumptions.",
	ModeConcise:     "Be brief and high-signal; minimal verbosity.",
}

// IsValid reports whether m is a supported mode
func (m Mode) IsValid() bool {
	_, ok := defaultTones[m]
	return ok
}

// ParseMode validates a mode name. An empty name selects ModeDefault.
func ParseMode(s string) (Mode, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return ModeDefault, nil
	}
	m := Mode(s)
	if !m.IsValid() {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, s)
	}
	return m, nil
}

// Catalog renders prompts. The zero value is not usable; use NewCatalog or
// LoadCatalog.
type Catalog struct {
	tones     map[Mode]string
	baseRules string
	tmpl      *template.Template
}

// NewCatalog returns the catalog with the built-in tones
func NewCatalog() *Catalog {
	rules, err := templateFS.ReadFile("templates/base_rules.txt")
	if err != nil {
		panic(fmt.Sprintf("prompts: embedded base rules missing: %v", err))
	}
	tones := make(map[Mode]string, len(defaultTones))
	for m, t := range defaultTones {
		tones[m] = t
	}
	return &Catalog{
		tones:     tones,
		baseRules: string(rules),
		tmpl: template.Must(template.New("prompts").
			Funcs(template.FuncMap{"json": toJSON}).
			ParseFS(templateFS, "templates/*.tmpl")),
	}
}

// Tone returns the one-line tone instruction for mode
func (c *Catalog) Tone(mode Mode) (string, error) {
	tone, ok := c.tones[mode]
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrUnknownMode, mode)
	}
	return tone, nil
}

// QuestionSystem is the system prompt for generating the next question
func (c *Catalog) QuestionSystem(mode Mode) (string, error) {
	return c.coachSystem(mode, "Generate one next interview question tailored to the candidate profile and job description.")
}

// ScorecardSystem is the system prompt for scoring an answer
func (c *Catalog) ScorecardSystem(mode Mode) (string, error) {
	return c.coachSystem(mode, "Evaluate the candidate answer and produce a rubric-based scorecard.")
}

// FallacySystem is the system prompt for the reasoning-quality judge. It
// demands the uncertainty disclaimer in more_info_text.
func (c *Catalog) FallacySystem(mode Mode) (string, error) {
	tone, err := c.Tone(mode)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	b.WriteString("You are a careful reasoning-quality coach.\n")
	b.WriteString(tone + "\n")
	b.WriteString("Detect possible logical fallacies or irrelevant reasoning patterns in the answer.\n")
	b.WriteString("Be non-accusatory. Prefer 'might'/'possibly'.\n")
	fmt.Fprintf(&b, "In more_info_text, ALWAYS include this exact disclaimer line: %q\n", schema.UncertaintyDisclaimer)
	b.WriteString(c.baseRules)
	return b.String(), nil
}

// ProfileSystem is the system prompt for turning a CV into a profile
func (c *Catalog) ProfileSystem() string {
	return "You are a careful recruiting analyst.\n" +
		"Reason internally; do not reveal chain-of-thought.\n" +
		"Return ONLY strict JSON matching the provided schema. Do not include markdown.\n" +
		"If fields are unknown, use null/empty defaults.\n"
}

func (c *Catalog) coachSystem(mode Mode, task string) (string, error) {
	tone, err := c.Tone(mode)
	if err != nil {
		return "", err
	}
	return "You are an expert interview coach.\n" + tone + "\n" + task + "\n" + c.baseRules, nil
}

// QuestionInput is the data behind the question-generation prompt.
// Transcript is rendered as JSON and may be any serializable value.
type QuestionInput struct {
	Profile        *schema.CandidateProfile
	JobDescription string
	Transcript     any
	TopSkills      []string
	Coverage       map[string]int
	FocusSkill     string
}

// EvaluationInput is the data behind the scorecard prompt
type EvaluationInput struct {
	Profile        *schema.CandidateProfile
	JobDescription string
	Question       schema.InterviewQuestion
	Answer         string
	Transcript     any
}

// QuestionUser renders the user content for question generation
func (c *Catalog) QuestionUser(in QuestionInput) (string, error) {
	if in.Transcript == nil {
		in.Transcript = []any{}
	}
	return c.render("question.tmpl", in)
}

// EvaluationUser renders the user content for answer evaluation
func (c *Catalog) EvaluationUser(in EvaluationInput) (string, error) {
	if in.Transcript == nil {
		in.Transcript = []any{}
	}
	return c.render("evaluation.tmpl", in)
}

// FallacyUser renders the user content for the fallacy judge, including the
// allowed taxonomy
func (c *Catalog) FallacyUser(questionText, answer string) (string, error) {
	return c.render("fallacy.tmpl", struct {
		QuestionText string
		Answer       string
		Types        []schema.FallacyType
		Explanations map[string]string
	}{questionText, answer, schema.FallacyTypes, schema.FallacyExplanations()})
}

// ProfileUser renders the user content for CV profiling
func (c *Catalog) ProfileUser(cvText string) (string, error) {
	return c.render("profile.tmpl", struct{ CVText string }{cvText})
}

func (c *Catalog) render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := c.tmpl.ExecuteTemplate(&buf, name, data); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return buf.String(), nil
}

func toJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}
