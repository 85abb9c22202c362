package ranking

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"go.uber.org/zap"
)

func testClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	return New(baseURL, "test-key", "test-model", 0.2, 10, 5*time.Second, zap.NewNop())
}

func chatBody(content string) string {
	return fmt.Sprintf(`{"choices":[{"message":{"role":"assistant","content":%q}}]}`, content)
}

func sampleBatch(n int) []CandidateSummary {
	batch := make([]CandidateSummary, n)
	for i := range batch {
		batch[i] = CandidateSummary{
			Headline:        fmt.Sprintf("Engineer %d", i),
			Skills:          []string{"Go", "PostgreSQL"},
			ExperienceYears: 3 + i,
			Location:        "Remote",
		}
	}
	return batch
}

func TestRankCandidates_Success(t *testing.T) {
	content := `[
		{"index": 2, "score": 91, "rationale": "strong match", "matched_skills": ["Go"], "relevant_experience": ["payments"]},
		{"index": 0, "score": 64, "rationale": "partial match", "matched_skills": ["PostgreSQL"], "relevant_experience": []}
	]`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, chatBody(content))
	}))
	defer srv.Close()

	client := testClient(t, srv.URL)

	ranked, err := client.RankCandidates(context.Background(), JobProfile{Title: "Backend"}, sampleBatch(3))
	if err != nil {
		t.Fatalf("RankCandidates() unexpected error: %v", err)
	}

	if len(ranked) != 2 {
		t.Fatalf("got %d entries, want 2", len(ranked))
	}
	// engine order preserved, not re-sorted
	if ranked[0].Index != 2 || ranked[0].Score != 91 {
		t.Errorf("first entry = %+v, want index 2 score 91", ranked[0])
	}
	if ranked[1].Index != 0 || ranked[1].Score != 64 {
		t.Errorf("second entry = %+v, want index 0 score 64", ranked[1])
	}
}

func TestRankCandidates_MarkdownFencedResponse(t *testing.T) {
	content := "```json\n[{\"index\": 0, \"score\": 80, \"rationale\": \"fits\", \"matched_skills\": [], \"relevant_experience\": []}]\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chatBody(content))
	}))
	defer srv.Close()

	ranked, err := testClient(t, srv.URL).RankCandidates(context.Background(), JobProfile{}, sampleBatch(1))
	if err != nil {
		t.Fatalf("RankCandidates() unexpected error: %v", err)
	}
	if len(ranked) != 1 || ranked[0].Score != 80 {
		t.Errorf("ranked = %+v, want one entry with score 80", ranked)
	}
}

func TestRankCandidates_ParseFailures(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not JSON at all", "I could not rank these candidates, sorry."},
		{"JSON object instead of array", `{"ranking": "done"}`},
		{"index out of bounds", `[{"index": 7, "score": 50, "rationale": "", "matched_skills": [], "relevant_experience": []}]`},
		{"negative index", `[{"index": -1, "score": 50, "rationale": "", "matched_skills": [], "relevant_experience": []}]`},
		{"duplicate index", `[{"index": 1, "score": 90, "rationale": "", "matched_skills": [], "relevant_experience": []}, {"index": 1, "score": 85, "rationale": "", "matched_skills": [], "relevant_experience": []}]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, chatBody(tt.content))
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL).RankCandidates(context.Background(), JobProfile{}, sampleBatch(2))
			if !errors.Is(err, ErrParse) {
				t.Errorf("RankCandidates() error = %v, want ErrParse", err)
			}
		})
	}
}

func TestRankCandidates_Throttled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		fmt.Fprint(w, `{"error":{"message":"rate limit","type":"rate_limit_error","code":"rate_limited"}}`)
	}))
	defer srv.Close()

	_, err := testClient(t, srv.URL).RankCandidates(context.Background(), JobProfile{}, sampleBatch(1))
	if !errors.Is(err, ErrThrottled) {
		t.Errorf("RankCandidates() error = %v, want ErrThrottled", err)
	}
}

func TestRankCandidates_QuotaExceeded(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{
			name:   "429 with insufficient_quota code",
			status: http.StatusTooManyRequests,
			body:   `{"error":{"message":"quota","type":"insufficient_quota","code":"insufficient_quota"}}`,
		},
		{
			name:   "402 payment required",
			status: http.StatusPaymentRequired,
			body:   `{"error":{"message":"payment required"}}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				fmt.Fprint(w, tt.body)
			}))
			defer srv.Close()

			_, err := testClient(t, srv.URL).RankCandidates(context.Background(), JobProfile{}, sampleBatch(1))
			if !errors.Is(err, ErrQuotaExceeded) {
				t.Errorf("RankCandidates() error = %v, want ErrQuotaExceeded", err)
			}
		})
	}
}

func TestRankCandidates_BatchCap(t *testing.T) {
	client := testClient(t, "http://unused.invalid")

	if _, err := client.RankCandidates(context.Background(), JobProfile{}, sampleBatch(MaxBatchSize+1)); err == nil {
		t.Error("RankCandidates() accepted a batch above the cap")
	}

	if _, err := client.RankCandidates(context.Background(), JobProfile{}, nil); err == nil {
		t.Error("RankCandidates() accepted an empty batch")
	}
}

func TestParseRanking_ScoreClamping(t *testing.T) {
	content := `[
		{"index": 0, "score": 250, "rationale": "", "matched_skills": [], "relevant_experience": []},
		{"index": 1, "score": -10, "rationale": "", "matched_skills": [], "relevant_experience": []}
	]`

	ranked, err := parseRanking(content, 2)
	if err != nil {
		t.Fatalf("parseRanking() unexpected error: %v", err)
	}
	if ranked[0].Score != 100 {
		t.Errorf("score above range clamped to %d, want 100", ranked[0].Score)
	}
	if ranked[1].Score != 0 {
		t.Errorf("score below range clamped to %d, want 0", ranked[1].Score)
	}
}
