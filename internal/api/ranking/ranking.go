package ranking

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// RankCandidates sends the profile and the candidate batch to the engine
// and returns up to topN entries ordered as the engine returned them.
// Ties are left in engine order, never re-sorted. Entries referencing an
// index outside the batch are a contract violation and fail the whole call.
func (c *Client) RankCandidates(ctx context.Context, profile JobProfile, batch []CandidateSummary) ([]RankedCandidate, error) {
	if len(batch) == 0 {
		return nil, fmt.Errorf("empty candidate batch")
	}
	if len(batch) > MaxBatchSize {
		return nil, fmt.Errorf("batch size %d exceeds cap of %d", len(batch), MaxBatchSize)
	}

	reqBody := chatRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []chatMessage{
			{
				Role:    "system",
				Content: "You are a technical recruiting assistant. Return only valid JSON.",
			},
			{
				Role:    "user",
				Content: c.buildPrompt(profile, batch),
			},
		},
	}

	content, err := c.chatCompletion(ctx, reqBody)
	if err != nil {
		return nil, err
	}

	ranked, err := parseRanking(content, len(batch))
	if err != nil {
		c.logger.Error("failed to parse ranking response",
			zap.Int("batch_size", len(batch)),
			zap.Error(err),
		)
		return nil, err
	}

	if len(ranked) > c.topN {
		ranked = ranked[:c.topN]
	}

	c.logger.Info("candidates ranked",
		zap.Int("batch_size", len(batch)),
		zap.Int("returned", len(ranked)),
	)

	return ranked, nil
}

func (c *Client) buildPrompt(profile JobProfile, batch []CandidateSummary) string {
	var b strings.Builder

	b.WriteString("Rank the candidates below against this job profile.\n\n")
	b.WriteString("Job profile:\n")
	fmt.Fprintf(&b, "Title: %s\n", profile.Title)
	fmt.Fprintf(&b, "Required profile: %s\n", profile.Profile)
	fmt.Fprintf(&b, "Location: %s\n", profile.Location)
	fmt.Fprintf(&b, "Work mode: %s\n", profile.WorkMode)
	if profile.SalaryFrom != nil && profile.SalaryTo != nil {
		fmt.Fprintf(&b, "Compensation: %d - %d\n", *profile.SalaryFrom, *profile.SalaryTo)
	}

	b.WriteString("\nCandidates (referenced by index):\n")
	for i, cand := range batch {
		fmt.Fprintf(&b, "\n[%d] %s\n", i, cand.Headline)
		fmt.Fprintf(&b, "Skills: %s\n", strings.Join(cand.Skills, ", "))
		fmt.Fprintf(&b, "Experience: %d years\n", cand.ExperienceYears)
		fmt.Fprintf(&b, "Location: %s\n", cand.Location)
		if cand.SalaryExpectation != nil {
			fmt.Fprintf(&b, "Salary expectation: %d\n", *cand.SalaryExpectation)
		}
		if cand.Summary != "" {
			fmt.Fprintf(&b, "Summary: %s\n", cand.Summary)
		}
	}

	fmt.Fprintf(&b, `
Return ONLY a JSON array (no markdown, no explanation) with at most %d
entries, ordered by score descending. Each entry:
{
  "index": <candidate index from the list above>,
  "score": <0-100 match score>,
  "rationale": "<one or two sentences on why>",
  "matched_skills": ["<skills from the candidate that match the profile>"],
  "relevant_experience": ["<experience highlights relevant to the role>"]
}
Only include candidates that are a plausible match.`, c.topN)

	return b.String()
}

// parseRanking enforces the response contract: a bare JSON array, possibly
// wrapped in markdown fences, with every index inside the batch bounds and
// referenced at most once, and scores clamped to 0-100. A repeated index
// would turn into two result rows for one candidate in the same batch, so
// it fails the call the same way an out-of-range index does.
func parseRanking(content string, batchSize int) ([]RankedCandidate, error) {
	cleaned := extractJSONArray(content)
	if cleaned == "" {
		return nil, fmt.Errorf("%w: no JSON array in response", ErrParse)
	}

	var ranked []RankedCandidate
	if err := json.Unmarshal([]byte(cleaned), &ranked); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrParse, err)
	}

	seen := make(map[int]bool, len(ranked))
	for i := range ranked {
		if ranked[i].Index < 0 || ranked[i].Index >= batchSize {
			return nil, fmt.Errorf("%w: index %d out of batch bounds", ErrParse, ranked[i].Index)
		}
		if seen[ranked[i].Index] {
			return nil, fmt.Errorf("%w: duplicate index %d", ErrParse, ranked[i].Index)
		}
		seen[ranked[i].Index] = true
		if ranked[i].Score < 0 {
			ranked[i].Score = 0
		}
		if ranked[i].Score > 100 {
			ranked[i].Score = 100
		}
	}

	return ranked, nil
}

func extractJSONArray(content string) string {
	content = strings.TrimSpace(content)

	if strings.HasPrefix(content, "```json") {
		content = strings.TrimPrefix(content, "```json")
	} else if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```")
	}
	if strings.HasSuffix(content, "```") {
		content = strings.TrimSuffix(content, "```")
	}

	content = strings.TrimSpace(content)

	start := strings.Index(content, "[")
	end := strings.LastIndex(content, "]")

	if start == -1 || end == -1 || end < start {
		return ""
	}

	return content[start : end+1]
}
