package dto

type CreateQuestionDTO struct {
	Title       string   `json:"title" binding:"required,min=5"`
	Description string   `json:"description" binding:"required"`
	Tags        []string `json:"tags" binding:"required,min=1"`
}

type CreateAnswerDTO struct {
	Content string `json:"content" binding:"required"`
}

// VoteDTO carries the requested direction. Its value is checked by the
// voting package so unknown directions get a validation error kind.
type VoteDTO struct {
	VoteType string `json:"voteType" binding:"required"`
}

type ApprovalDTO struct {
	Approved *bool `json:"approved" binding:"required"`
}
