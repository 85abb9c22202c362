package ranking

// JobProfile is what the engine ranks candidates against.
type JobProfile struct {
	Title      string
	Profile    string
	Location   string
	WorkMode   string
	SalaryFrom *int64
	SalaryTo   *int64
}

// CandidateSummary is the anonymized slice of a candidate sent to the
// engine. No identity attributes ever leave the service.
type CandidateSummary struct {
	Headline          string
	Summary           string
	Skills            []string
	ExperienceYears   int
	SalaryExpectation *int64
	Location          string
}

// RankedCandidate is one entry of the engine's response. Index references
// the candidate's position in the exact batch sent with the request.
type RankedCandidate struct {
	Index              int      `json:"index"`
	Score              int      `json:"score"`
	Rationale          string   `json:"rationale"`
	MatchedSkills      []string `json:"matched_skills"`
	RelevantExperience []string `json:"relevant_experience"`
}

// chat-completions wire types
type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type apiError struct {
	Message string `json:"message"`
	Type    string `json:"type"`
	Code    string `json:"code"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
	Error *apiError `json:"error"`
}
