package mcp

import "github.com/modelcontextprotocol/go-sdk/mcp"

const (
	serverName    = "InterviewCoachServer"
	serverVersion = "1.0.0"
	serviceName   = "interviewcoach-mcp"
)

// ServerInstructions contains the MCP server instructions for clients
const ServerInstructions = `Interview Coach Server - mock interview practice

This server runs mock interviews against a job description. Each answer is
scored on a rubric and checked for reasoning fallacies, and questions rotate
over the candidate's most relevant skills.

## Transport

This server uses streamable HTTP transport only. Connect via:
- POST /mcp  - Streamable HTTP transport

## Typical flow

1. create_session (optionally with email, position_title, job_description, prompt_mode)
2. ingest_document with type "cv" and the session_id, then build_profile
3. ingest_document with type "jd" (or pass job_description on create_session)
4. start_interview, then submit_answer or skip_question for each question
5. get_analytics for the scored timeline of a persisted interview

Every session tool returns JSON with "status" (ok, rejected or failed),
"message", "retryable" and the session snapshot. A rejected or failed call
leaves the session unchanged; retry failed calls when "retryable" is true.

## Tools

### create_session
Create an interview session. Parameters: email, first_name, last_name,
position_title, job_description, prompt_mode (default, strict, friendly,
challenging, concise). With an email the interview is persisted.

### ingest_document
Extract text from a CV or job description (PDF, DOCX, HTML, MD, TXT, URL
or raw text) and attach it to a session.
Example: {"path": "./resume.pdf", "type": "cv", "session_id": "..."}

### build_profile
Build the candidate profile from the session CV (or cv_text) and pick the
skills to track.

### start_interview / submit_answer / skip_question / reset_interview
Drive the interview. submit_answer takes "answer".

### get_session
Return the session snapshot.

### get_analytics
Summary and timeline of a persisted interview, by session_id or
user_vacancy_id, plus the user's correctness percentile.

### list_prompt_modes
List the interviewer tones.

### cleanup_storage
Remove stored documents and idle sessions older than ttl (e.g. "24h" or 24).

## Resources

- cv://{id}, jd://{id}: PII-redacted copies of ingested documents
- interviewcoach://storage/stats: document counts
`

func objectSchema(properties map[string]interface{}, required ...string) map[string]interface{} {
	if required == nil {
		required = []string{}
	}
	return map[string]interface{}{
		"type":       "object",
		"properties": properties,
		"required":   required,
	}
}

func stringProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": description,
	}
}

var sessionIDProperty = stringProperty("Session id returned by create_session")

// ToolDefinitions contains the MCP tool definitions
var ToolDefinitions = map[string]*mcp.Tool{
	"ingest_document": {
		Name:        "ingest_document",
		Description: "Extract text from a CV or job description and attach it to a session. Accepts a local path, a URL or raw text. A redacted copy is stored and returned as a cv:// or jd:// URI.",
		InputSchema: objectSchema(map[string]interface{}{
			"path": stringProperty("File path, URL, or raw text to ingest"),
			"type": map[string]interface{}{
				"type":        "string",
				"description": "Document type: 'cv' or 'jd'",
				"enum":        []string{"cv", "jd"},
				"default":     "cv",
			},
			"session_id":     sessionIDProperty,
			"position_title": stringProperty("Position title for a job description"),
		}, "path"),
	},
	"create_session": {
		Name:        "create_session",
		Description: "Create an interview session. With an email the user, vacancy and every turn are persisted.",
		InputSchema: objectSchema(map[string]interface{}{
			"email":           stringProperty("Candidate email; enables persistence"),
			"first_name":      stringProperty("Candidate first name"),
			"last_name":       stringProperty("Candidate last name"),
			"position_title":  stringProperty("Title of the position"),
			"job_description": stringProperty("Job description text"),
			"prompt_mode": map[string]interface{}{
				"type":        "string",
				"description": "Interviewer tone",
				"enum":        []string{"default", "strict", "friendly", "challenging", "concise"},
				"default":     "default",
			},
		}),
	},
	"build_profile": {
		Name:        "build_profile",
		Description: "Build the candidate profile from CV text and choose the skills the interview rotates over.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
			"cv_text":    stringProperty("CV text; defaults to the CV ingested into the session"),
		}, "session_id"),
	},
	"start_interview": {
		Name:        "start_interview",
		Description: "Ask the first question, focused on the least covered skill.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
		}, "session_id"),
	},
	"submit_answer": {
		Name:        "submit_answer",
		Description: "Answer the current question. Returns the scorecard, a fallacy hint and the next question.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
			"answer":     stringProperty("The candidate's answer"),
		}, "session_id", "answer"),
	},
	"skip_question": {
		Name:        "skip_question",
		Description: "Skip the current question and move to the next one.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
		}, "session_id"),
	},
	"reset_interview": {
		Name:        "reset_interview",
		Description: "Clear the transcript while keeping the CV, job description, profile and prompt mode.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
		}, "session_id"),
	},
	"get_session": {
		Name:        "get_session",
		Description: "Return the current state, question, transcript and last feedback of a session.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
		}, "session_id"),
	},
	"get_analytics": {
		Name:        "get_analytics",
		Description: "Summary and timeline of a persisted interview with the user's correctness percentile.",
		InputSchema: objectSchema(map[string]interface{}{
			"session_id": sessionIDProperty,
			"user_vacancy_id": map[string]interface{}{
				"type":        "integer",
				"description": "Persisted interview id; used when session_id is not given",
				"minimum":     1,
			},
		}),
	},
	"list_prompt_modes": {
		Name:        "list_prompt_modes",
		Description: "List the interviewer tones accepted by create_session.",
		InputSchema: objectSchema(map[string]interface{}{}),
	},
	"cleanup_storage": {
		Name:        "cleanup_storage",
		Description: "Remove stored documents and idle sessions older than the TTL.",
		InputSchema: objectSchema(map[string]interface{}{
			"ttl": stringProperty("Time to live (e.g., '24h' or hours as number). Uses the default TTL if not specified."),
		}),
	},
}

// PromptDefinitions contains the MCP prompt definitions
var PromptDefinitions = []*mcp.Prompt{
	{
		Name:        "mock_interview",
		Description: "Run a mock interview loop for a session",
		Arguments: []*mcp.PromptArgument{
			{
				Name:        "session_id",
				Title:       "Session ID",
				Description: "Session id returned by create_session",
				Required:    true,
			},
		},
	},
}

// ResourceDefinitions contains the MCP resource definitions
var ResourceDefinitions = []*mcp.Resource{
	{
		URI:         statsURI,
		Name:        "Storage Statistics",
		Description: "Counts of stored documents",
		MIMEType:    "application/json",
	},
}

// ResourceTemplateDefinitions contains the MCP resource template definitions
var ResourceTemplateDefinitions = []*mcp.ResourceTemplate{
	{
		URITemplate: "cv://{id}",
		Name:        "CV Document",
		Description: "Redacted copy of an ingested CV",
		MIMEType:    "text/markdown",
	},
	{
		URITemplate: "jd://{id}",
		Name:        "Job Description",
		Description: "Redacted copy of an ingested job description",
		MIMEType:    "text/markdown",
	},
}
