package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type Question struct {
	ID                  primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	QuestionHeader      string             `json:"questionHeader" bson:"questionHeader"`
	QuestionDescription string             `json:"questionDescription,omitempty" bson:"questionDescription,omitempty"`
	UpVote              int                `json:"upVote" bson:"upVote"`
	DownVote            int                `json:"downVote" bson:"downVote"`
	Answers             []Answer           `json:"answers" bson:"answers"`
}

// Answer is owned by exactly one Question and lives inside its answers array.
type Answer struct {
	ID     primitive.ObjectID `json:"_id" bson:"_id"`
	Answer string             `json:"answer" bson:"answer"`
}

// Votes returns the counter selected by kind.
func (q *Question) Votes(kind VoteKind) int {
	if kind == DownVote {
		return q.DownVote
	}
	return q.UpVote
}
