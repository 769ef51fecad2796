package schema

import "strings"

// Seniority is the candidate level inferred from the CV
type Seniority string

const (
	SeniorityIntern   Seniority = "intern"
	SeniorityJunior   Seniority = "junior"
	SeniorityMid      Seniority = "mid"
	SenioritySenior   Seniority = "senior"
	SeniorityLead     Seniority = "lead"
	SeniorityManager  Seniority = "manager"
	SeniorityDirector Seniority = "director"
	SeniorityUnknown  Seniority = "unknown"
)

// IsValid reports whether s is one of the known seniority levels
func (s Seniority) IsValid() bool {
	switch s {
	case SeniorityIntern, SeniorityJunior, SeniorityMid, SenioritySenior,
		SeniorityLead, SeniorityManager, SeniorityDirector, SeniorityUnknown:
		return true
	default:
		return false
	}
}

// CandidateProfile is the structured view of a CV
type CandidateProfile struct {
	FullName     string    `json:"full_name,omitempty" jsonschema:"candidate full name if present"`
	TargetRole   string    `json:"target_role,omitempty" jsonschema:"role the candidate is applying for"`
	Seniority    Seniority `json:"seniority" jsonschema:"one of intern, junior, mid, senior, lead, manager, director, unknown"`
	Industries   []string  `json:"industries"`
	Skills       []string  `json:"skills"`
	Tools        []string  `json:"tools"`
	KeyProjects  []string  `json:"key_projects"`
	Achievements []string  `json:"achievements"`
	Education    []string  `json:"education"`
	GapsOrRisks  []string  `json:"gaps_or_risks"`
	Summary      string    `json:"summary"`
	Keywords     []string  `json:"keywords"`
}

// PlaceholderProfile builds the minimal profile used when no CV was profiled.
// Only the role is known; skills and experience are left empty.
func PlaceholderProfile(positionTitle string) CandidateProfile {
	return CandidateProfile{
		TargetRole: strings.TrimSpace(positionTitle),
		Seniority:  SeniorityUnknown,
	}
}

// Normalize fills defaults the model may have left out
func (p *CandidateProfile) Normalize() {
	if p.Seniority == "" {
		p.Seniority = SeniorityUnknown
	}
	p.Seniority = Seniority(strings.ToLower(strings.TrimSpace(string(p.Seniority))))
}

// Validate checks the profile after Normalize
func (p CandidateProfile) Validate() error {
	if !p.Seniority.IsValid() {
		return &ValidationError{Field: "seniority", Value: string(p.Seniority), Reason: "unknown seniority level"}
	}
	return nil
}
