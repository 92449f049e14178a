package dto

import "strings"

// ReviewRequest is the submission payload. Earlier frontend revisions posted
// several field spellings; the legacy aliases are accepted and folded into the
// canonical fields by Normalize before validation.
type ReviewRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email" validate:"omitempty,email"`
	Grade       string `json:"grade"`
	Target      string `json:"targetSchool"`
	Explanation string `json:"explanation" validate:"required"`
	UserID      string `json:"userId"`

	// Legacy aliases.
	School     string `json:"school"`
	TargetAlt  string `json:"target"`
	Message    string `json:"message"`
	LineUserID string `json:"lineUserId"`
}

// Normalize trims every field and maps legacy aliases onto the canonical
// fields. Canonical values win when both are present.
func (r *ReviewRequest) Normalize() {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Grade = strings.TrimSpace(r.Grade)
	r.Target = strings.TrimSpace(r.Target)
	r.Explanation = strings.TrimSpace(r.Explanation)
	r.UserID = strings.TrimSpace(r.UserID)

	if r.Target == "" {
		r.Target = strings.TrimSpace(r.TargetAlt)
	}
	if r.Target == "" {
		r.Target = strings.TrimSpace(r.School)
	}
	if r.Explanation == "" {
		r.Explanation = strings.TrimSpace(r.Message)
	}
	if r.UserID == "" {
		r.UserID = strings.TrimSpace(r.LineUserID)
	}

	r.School = ""
	r.TargetAlt = ""
	r.Message = ""
	r.LineUserID = ""
}

// ReviewResponse is returned after a successful submission.
type ReviewResponse struct {
	Success  bool   `json:"success"`
	Analysis string `json:"analysis"`
	ID       string `json:"id,omitempty"`
	URL      string `json:"url,omitempty"`
	Score    *int   `json:"score,omitempty"`
}

// HistoryEntry is one row of the per-user history projection.
type HistoryEntry struct {
	Date        string `json:"date"`
	Explanation string `json:"explanation"`
	Advice      string `json:"advice"`
}

// HistoryResponse wraps the history projection, newest first.
type HistoryResponse struct {
	History []HistoryEntry `json:"history"`
}

// ReviewDetail is the shareable per-submission view.
type ReviewDetail struct {
	ID          string `json:"id"`
	Date        string `json:"date"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Grade       string `json:"grade,omitempty"`
	Target      string `json:"target,omitempty"`
	Explanation string `json:"explanation"`
	Advice      string `json:"advice"`
	Score       *int   `json:"score,omitempty"`
}

// ReviewDetailResponse wraps a single stored review.
type ReviewDetailResponse struct {
	Result ReviewDetail `json:"result"`
}
