package ai

import "context"

// GradeInput carries the submitted fields the grading prompt is built from.
type GradeInput struct {
	Name        string
	Grade       string
	Target      string
	Explanation string
}

// Review is the critique returned by a grading provider.
type Review struct {
	// Advice is the raw markdown critique, forwarded verbatim to the caller.
	Advice string `json:"advice"`
	// Score is extracted from the critique text on a best-effort basis.
	Score *int `json:"score,omitempty"`
}

// Grader describes an AI model capable of grading a grammar explanation.
type Grader interface {
	Grade(ctx context.Context, input GradeInput) (Review, error)
}
