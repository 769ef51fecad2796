package prompts

import (
	"strings"
	"testing"

	"github.com/kfreiman/interviewcoach/internal/schema"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseMode(t *testing.T) {
	assert.Len(t, Modes, 5)

	m, err := ParseMode("")
	require.NoError(t, err)
	assert.Equal(t, ModeDefault, m)

	m, err = ParseMode(" strict ")
	require.NoError(t, err)
	assert.Equal(t, ModeStrict, m)

	_, err = ParseMode("not_a_mode")
	assert.ErrorIs(t, err, ErrUnknownMode)
}

func TestSystemPrompts(t *testing.T) {
	c := NewCatalog()
	for _, mode := range Modes {
		t.Run(string(mode), func(t *testing.T) {
			tone, err := c.Tone(mode)
			require.NoError(t, err)

			q, err := c.QuestionSystem(mode)
			require.NoError(t, err)
			s, err := c.ScorecardSystem(mode)
			require.NoError(t, err)
			f, err := c.FallacySystem(mode)
			require.NoError(t, err)

			for _, p := range []string{q, s, f} {
				assert.Contains(t, p, "Reason internally")
				assert.Contains(t, p, "strict JSON")
				assert.Contains(t, p, tone)
			}
			assert.Contains(t, f, schema.UncertaintyDisclaimer)
		})
	}

	_, err := c.QuestionSystem("loud")
	assert.ErrorIs(t, err, ErrUnknownMode)
	assert.Contains(t, c.ProfileSystem(), "strict JSON")
}

func TestQuestionUser(t *testing.T) {
	c := NewCatalog()

	t.Run("minimal", func(t *testing.T) {
		got, err := c.QuestionUser(QuestionInput{JobDescription: "Backend role"})
		require.NoError(t, err)
		assert.Contains(t, got, "Candidate profile JSON:\nnull")
		assert.Contains(t, got, "Transcript so far (may be empty):\n[]")
		assert.NotContains(t, got, "Top skills")
		assert.NotContains(t, got, "Constraints:")
	})

	t.Run("focus constraint", func(t *testing.T) {
		profile := schema.PlaceholderProfile("SRE")
		got, err := c.QuestionUser(QuestionInput{
			Profile:    &profile,
			TopSkills:  []string{"Go", "Kubernetes"},
			Coverage:   map[string]int{"Go": 1, "Kubernetes": 0},
			FocusSkill: "Kubernetes",
		})
		require.NoError(t, err)
		assert.Contains(t, got, `"target_role":"SRE"`)
		assert.Contains(t, got, `["Go","Kubernetes"]`)
		assert.Contains(t, got, `{"Go":1,"Kubernetes":0}`)
		assert.Contains(t, got, "- Prioritize assessing this skill next: Kubernetes")
		assert.Contains(t, got, "- Include the focus skill EXACTLY as one of the tags.")
	})

	t.Run("no html escaping", func(t *testing.T) {
		got, err := c.QuestionUser(QuestionInput{TopSkills: []string{"C++ & <Rust>"}})
		require.NoError(t, err)
		assert.Contains(t, got, `"C++ & <Rust>"`)
	})
}

func TestEvaluationAndFallacyUser(t *testing.T) {
	c := NewCatalog()

	ev, err := c.EvaluationUser(EvaluationInput{
		Question: schema.InterviewQuestion{QuestionText: "Why Go?", Category: schema.CategoryTechnical, Difficulty: schema.DifficultyEasy},
		Answer:   "Because of goroutines.",
	})
	require.NoError(t, err)
	assert.Contains(t, ev, `"question_text":"Why Go?"`)
	assert.Contains(t, ev, "Candidate answer:\nBecause of goroutines.")

	fu, err := c.FallacyUser("Why Go?", "Everyone uses it.")
	require.NoError(t, err)
	assert.Contains(t, fu, "Allowed fallacy types (Aristotle 13):")
	assert.Contains(t, fu, `"false_cause"`)

	pu, err := c.ProfileUser("Jane Doe, Go engineer")
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(strings.TrimSpace(pu), "Jane Doe, Go engineer"))
}

func TestLoadCatalog(t *testing.T) {
	fs := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fs, "/tones.yaml", []byte("tones:\n  strict: \"Be blunt.\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tones.toml", []byte("[tones]\nconcise = \"Two sentences max.\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/bad.yaml", []byte("tones:\n  loud: \"x\"\n"), 0o644))
	require.NoError(t, afero.WriteFile(fs, "/tones.json", []byte("{}"), 0o644))

	t.Run("empty path is built-in", func(t *testing.T) {
		c, err := LoadCatalog(fs, "")
		require.NoError(t, err)
		tone, _ := c.Tone(ModeStrict)
		assert.Equal(t, defaultTones[ModeStrict], tone)
	})

	t.Run("yaml", func(t *testing.T) {
		c, err := LoadCatalog(fs, "/tones.yaml")
		require.NoError(t, err)
		tone, _ := c.Tone(ModeStrict)
		assert.Equal(t, "Be blunt.", tone)
		tone, _ = c.Tone(ModeFriendly)
		assert.Equal(t, defaultTones[ModeFriendly], tone)
	})

	t.Run("toml", func(t *testing.T) {
		c, err := LoadCatalog(fs, "/tones.toml")
		require.NoError(t, err)
		tone, _ := c.Tone(ModeConcise)
		assert.Equal(t, "Two sentences max.", tone)
	})

	t.Run("unknown mode", func(t *testing.T) {
		_, err := LoadCatalog(fs, "/bad.yaml")
		assert.ErrorIs(t, err, ErrUnknownMode)
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := LoadCatalog(fs, "/tones.json")
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(fs, "/nope.yaml")
		assert.Error(t, err)
	})

	t.Run("overrides do not leak into other catalogs", func(t *testing.T) {
		_, err := LoadCatalog(fs, "/tones.yaml")
		require.NoError(t, err)
		tone, _ := NewCatalog().Tone(ModeStrict)
		assert.Equal(t, defaultTones[ModeStrict], tone)
	})
}
