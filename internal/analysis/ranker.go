// Package analysis ranks candidate skills against a job description so the
// interview can focus on the skills that matter for the role.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"
	index "github.com/blevesearch/bleve_index_api"
	"github.com/kfreiman/interviewcoach/internal/coverage"
	"github.com/kfreiman/interviewcoach/internal/schema"
)

var logger = slog.Default()

// DefaultTopSkills caps the number of tracked skills
const DefaultTopSkills = 8

const jdField = "text"

// RankedSkill is a candidate skill with its relevance to the job description
type RankedSkill struct {
	Skill            string  `json:"skill"`
	Score            float64 `json:"score"`
	InJobDescription bool    `json:"in_job_description"`
}

// Ranker scores skills against a job description with an in-memory bleve index
type Ranker struct {
	indexMapping mapping.IndexMapping
	dictionary   *Dictionary
	limit        int
}

// NewRanker creates a ranker using the embedded skills dictionary
func NewRanker() *Ranker {
	return &Ranker{
		indexMapping: bleve.NewIndexMapping(),
		dictionary:   DefaultDictionary(),
		limit:        DefaultTopSkills,
	}
}

// WithLimit sets how many skills TopSkills returns
func (r *Ranker) WithLimit(n int) *Ranker {
	if n > 0 {
		r.limit = n
	}
	return r
}

// WithDictionary replaces the fallback skills dictionary
func (r *Ranker) WithDictionary(d *Dictionary) *Ranker {
	r.dictionary = d
	return r
}

// TopSkills picks the skills to track during an interview. Candidates are
// the profile skills followed by its tools. Without any, skills named in
// the job description are used instead. Skills found in the job
// description come first, best match first; the rest keep profile order.
func (r *Ranker) TopSkills(ctx context.Context, profile *schema.CandidateProfile, jdText string) ([]string, error) {
	var candidates []string
	if profile != nil {
		candidates = append(candidates, profile.Skills...)
		candidates = append(candidates, profile.Tools...)
	}
	candidates = coverage.Dedupe(candidates)
	if len(candidates) == 0 && r.dictionary != nil {
		candidates = r.dictionary.Find(jdText)
		logger.DebugContext(ctx, "no profile skills, using job description skills", "count", len(candidates))
	}

	ranked, err := r.Rank(ctx, candidates, jdText)
	if err != nil {
		return nil, err
	}

	limit := min(r.limit, len(ranked))
	out := make([]string, limit)
	for i := range limit {
		out[i] = ranked[i].Skill
	}
	return out, nil
}

// Rank scores every candidate against jdText. The order is stable: equal
// scores keep input order.
func (r *Ranker) Rank(ctx context.Context, candidates []string, jdText string) ([]RankedSkill, error) {
	candidates = coverage.Dedupe(candidates)
	ranked := make([]RankedSkill, len(candidates))
	for i, c := range candidates {
		ranked[i] = RankedSkill{Skill: c}
	}

	jdClean := preprocessText(jdText)
	if jdClean == "" || len(candidates) == 0 {
		return ranked, nil
	}

	idx, err := bleve.NewMemOnly(r.indexMapping)
	if err != nil {
		return nil, fmt.Errorf("failed to create ranking index: %w", err)
	}
	defer idx.Close()

	if err := idx.Index("jd", map[string]interface{}{jdField: jdClean}); err != nil {
		return nil, fmt.Errorf("failed to index job description: %w", err)
	}

	for i := range ranked {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		score, err := matchScore(idx, ranked[i].Skill)
		if err != nil {
			return nil, err
		}
		ranked[i].Score = score
		ranked[i].InJobDescription = score > 0
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].Score > ranked[j].Score
	})

	logger.DebugContext(ctx, "ranked skills against job description",
		"candidates", len(ranked),
		"jd_terms", termCount(idx),
	)
	return ranked, nil
}

// matchScore runs a match query requiring every term of the skill
func matchScore(idx bleve.Index, skill string) (float64, error) {
	q := query.NewMatchQuery(skill)
	q.SetField(jdField)
	q.SetOperator(query.MatchQueryOperatorAnd)

	req := bleve.NewSearchRequest(q)
	req.Size = 1
	res, err := idx.Search(req)
	if err != nil {
		return 0, fmt.Errorf("search skill %q: %w", skill, err)
	}
	if len(res.Hits) == 0 {
		return 0, nil
	}
	return res.Hits[0].Score, nil
}

// termCount is the size of the analyzed job description vocabulary
func termCount(idx bleve.Index) int {
	var dict index.FieldDict
	dict, err := idx.FieldDict(jdField)
	if err != nil {
		return 0
	}
	defer dict.Close()

	n := 0
	for {
		entry, err := dict.Next()
		if err != nil || entry == nil {
			break
		}
		n++
	}
	return n
}

// preprocessText normalizes text for indexing
func preprocessText(text string) string {
	return strings.Join(strings.Fields(strings.ToLower(text)), " ")
}
