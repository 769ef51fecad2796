package mcp

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kfreiman/interviewcoach/internal/interview"
	"github.com/kfreiman/interviewcoach/internal/prompts"
	"github.com/kfreiman/interviewcoach/internal/storage"
)

func TestNewServer(t *testing.T) {
	dir := t.TempDir()
	cfg := Config{Port: 0, StorageTTL: "24h", SafetyMaxChars: 1000}.
		WithStoragePath(filepath.Join(dir, "storage")).
		WithSQLitePath(filepath.Join(dir, "coach.sqlite3"))

	srv, err := NewServer(context.Background(), cfg, testLogger())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, srv.Close()) })

	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	resp, err := http.Get(ts.URL + "/health/ready")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	var health HealthResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&health))
	assert.Equal(t, "accessible", health.Checks["storage"])
	assert.Equal(t, "reachable", health.Checks["database"])
	assert.Equal(t, "0", health.Details["sessions"])
}

func TestNewServer_InvalidTTL(t *testing.T) {
	_, err := NewServer(context.Background(), Config{StorageTTL: "soon"}, testLogger())
	require.Error(t, err)
}

func TestListPromptModesTool(t *testing.T) {
	tool := NewListPromptModesTool(prompts.NewCatalog())

	result := callTool(t, tool.Call, map[string]any{})
	require.False(t, result.IsError)

	var out struct {
		Default prompts.Mode `json:"default"`
		Modes   []ModeInfo   `json:"modes"`
	}
	require.NoError(t, json.Unmarshal([]byte(resultText(result)), &out))
	assert.Equal(t, prompts.ModeDefault, out.Default)
	require.Len(t, out.Modes, len(prompts.Modes))
	for i, m := range out.Modes {
		assert.Equal(t, prompts.Modes[i], m.Mode)
		assert.NotEmpty(t, m.Tone)
	}
}

func TestMockInterviewPrompt(t *testing.T) {
	sessions := interview.NewRegistry()
	prompt := NewMockInterviewPrompt(sessions, prompts.NewCatalog())

	id := sessions.Create(interview.Durable{
		PromptMode:    "friendly",
		PositionTitle: "Data Engineer",
		TopSkills:     []string{"Spark", "SQL"},
	})

	result, err := prompt.Handle(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Arguments: map[string]string{"session_id": id}},
	})
	require.NoError(t, err)
	require.Len(t, result.Messages, 1)

	text := result.Messages[0].Content.(*mcp.TextContent).Text
	tone, err := prompts.NewCatalog().Tone(prompts.ModeFriendly)
	require.NoError(t, err)
	assert.Contains(t, text, "Data Engineer")
	assert.Contains(t, text, tone)
	assert.Contains(t, text, "Spark, SQL")
	assert.Contains(t, text, `ingest_document with type "jd"`)
	assert.Contains(t, text, "build_profile")

	_, err = prompt.Handle(context.Background(), &mcp.GetPromptRequest{
		Params: &mcp.GetPromptParams{Arguments: map[string]string{"session_id": "missing"}},
	})
	assert.ErrorIs(t, err, interview.ErrSessionNotFound)
}

func TestStorageResourceHandler(t *testing.T) {
	ctx := context.Background()
	sm, _ := newMemStorage(t)
	uri, err := sm.SaveDocument(ctx, storage.Frontmatter{ID: "abc123", Type: storage.DocumentTypeJD}, "Build data pipelines.")
	require.NoError(t, err)

	h := NewStorageResourceHandler(sm).WithLogger(testLogger())

	res, err := h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: uri}})
	require.NoError(t, err)
	require.Len(t, res.Contents, 1)
	assert.Equal(t, "Build data pipelines.", res.Contents[0].Text)

	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "jd://unknown"}})
	assert.Error(t, err)
	_, err = h.ReadResource(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: "file:///etc/passwd"}})
	assert.Error(t, err)

	stats, err := h.ReadStats(ctx, &mcp.ReadResourceRequest{Params: &mcp.ReadResourceParams{URI: statsURI}})
	require.NoError(t, err)
	var counts storage.Stats
	require.NoError(t, json.Unmarshal([]byte(stats.Contents[0].Text), &counts))
	assert.Equal(t, int64(0), counts.CV)
	assert.Equal(t, int64(1), counts.JD)
}
