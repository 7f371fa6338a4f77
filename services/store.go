package questionService

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"qa-server/models"
)

var (
	ErrNotFound  = errors.New("not found")
	ErrInvalidID = errors.New("invalid id")
)

// ValidationError reports a request field that failed validation. No record
// is written when one is returned.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// QuestionStore is the persistence surface of the question service. Every
// implementation must be safe for concurrent use.
type QuestionStore interface {
	ListQuestions(ctx context.Context) ([]models.Question, error)
	CreateQuestion(ctx context.Context, header, description string) (*models.Question, error)
	GetQuestion(ctx context.Context, id string) (*models.Question, error)
	PatchQuestion(ctx context.Context, id string, patch QuestionPatch) error
	DeleteQuestion(ctx context.Context, id string) (*models.Question, error)

	AddAnswer(ctx context.Context, questionID, text string) (*models.Answer, error)
	UpdateAnswer(ctx context.Context, questionID, answerID, text string) error
	RemoveAnswer(ctx context.Context, questionID, answerID string) error

	VoteCount(ctx context.Context, id string, kind models.VoteKind) (int, error)
	AddVotes(ctx context.Context, id string, kind models.VoteKind, delta int) (int, error)

	Ping(ctx context.Context) error
}

// QuestionPatch names the fields to replace on a question. Nil fields are
// left untouched.
type QuestionPatch struct {
	QuestionHeader      *string `form:"questionHeader" json:"questionHeader"`
	QuestionDescription *string `form:"questionDescription" json:"questionDescription"`
	UpVote              *int    `form:"upVote" json:"upVote"`
	DownVote            *int    `form:"downVote" json:"downVote"`
}

// Empty reports whether the patch names no field at all.
func (p QuestionPatch) Empty() bool {
	return p.QuestionHeader == nil && p.QuestionDescription == nil &&
		p.UpVote == nil && p.DownVote == nil
}

// Validate rejects patches that would leave a question without a header.
func (p QuestionPatch) Validate() error {
	if p.Empty() {
		return &ValidationError{Field: "", Message: "No fields to update"}
	}
	if p.QuestionHeader != nil && strings.TrimSpace(*p.QuestionHeader) == "" {
		return &ValidationError{Field: "questionHeader", Message: "No question Header"}
	}
	return nil
}

// fields returns the document fields to $set, keyed by bson name.
func (p QuestionPatch) fields() map[string]interface{} {
	set := make(map[string]interface{}, 4)
	if p.QuestionHeader != nil {
		set["questionHeader"] = *p.QuestionHeader
	}
	if p.QuestionDescription != nil {
		set["questionDescription"] = *p.QuestionDescription
	}
	if p.UpVote != nil {
		set["upVote"] = *p.UpVote
	}
	if p.DownVote != nil {
		set["downVote"] = *p.DownVote
	}
	return set
}

func validateHeader(header string) error {
	if strings.TrimSpace(header) == "" {
		return &ValidationError{Field: "questionHeader", Message: "No question Header"}
	}
	return nil
}

func validateAnswer(text string) error {
	if strings.TrimSpace(text) == "" {
		return &ValidationError{Field: "answer", Message: "Answer body Not Found"}
	}
	return nil
}

func invalidID(kind, id string) error {
	return fmt.Errorf("%s id %q: %w", kind, id, ErrInvalidID)
}
