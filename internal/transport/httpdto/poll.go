package httpdto

// CreatePollRequest is used for POST /v1/admin/questions. Choices holds the
// fixed-size structured rows, ExtraChoices the open-ended dynamic list; the
// service merges both.
type CreatePollRequest struct {
	Text         string   `json:"text" binding:"required"`
	PublishedAt  string   `json:"published_at,omitempty"` // RFC 3339; defaults to now
	Choices      []string `json:"choices,omitempty"`
	ExtraChoices []string `json:"extra_choices,omitempty"`
}

// AddChoiceRequest is used for POST /v1/admin/questions/:id/choices
type AddChoiceRequest struct {
	Text string `json:"text" binding:"required"`
}

// CastVoteRequest is used for POST /v1/questions/:id/vote
type CastVoteRequest struct {
	ChoiceID string `json:"choice_id" binding:"required"`
}

// ChoiceDTO represents one choice in API responses
type ChoiceDTO struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count,omitempty"`
}

// QuestionDTO represents a question in API responses
type QuestionDTO struct {
	ID                string      `json:"id"`
	Text              string      `json:"text"`
	PublishedAt       string      `json:"published_at"`
	PublishedRecently bool        `json:"published_recently"`
	Choices           []ChoiceDTO `json:"choices"`
}

// QuestionDetailResponse is returned by GET /v1/questions/:id
type QuestionDetailResponse struct {
	Question QuestionDTO `json:"question"`
	// MyChoiceID is set when the caller has already voted.
	MyChoiceID string `json:"my_choice_id,omitempty"`
}

// ListQuestionsResponse is returned by GET /v1/questions
type ListQuestionsResponse struct {
	Questions []QuestionDTO `json:"questions"`
	Total     int64         `json:"total"`
	Page      int           `json:"page"`
	PageSize  int           `json:"page_size"`
}

// TallyDTO is one row of a results response
type TallyDTO struct {
	ChoiceID  string `json:"choice_id"`
	Text      string `json:"text"`
	VoteCount int64  `json:"vote_count"`
}

// ResultsResponse is returned by GET /v1/questions/:id/results
type ResultsResponse struct {
	QuestionID   string     `json:"question_id"`
	QuestionText string     `json:"question_text"`
	Tallies      []TallyDTO `json:"tallies"`
}

// CastVoteResponse is returned after a successful vote
type CastVoteResponse struct {
	VoteID     string `json:"vote_id"`
	QuestionID string `json:"question_id"`
	ChoiceID   string `json:"choice_id"`
	ResultsURL string `json:"results_url"`
}

// CreatePollResponse is returned after creating a question
type CreatePollResponse struct {
	ID          string      `json:"id"`
	Text        string      `json:"text"`
	PublishedAt string      `json:"published_at"`
	Choices     []ChoiceDTO `json:"choices"`
}
