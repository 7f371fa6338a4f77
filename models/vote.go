package models

import "fmt"

// VoteKind selects which counter of a Question an operation targets.
type VoteKind string

const (
	UpVote   VoteKind = "up"
	DownVote VoteKind = "down"
)

// ParseVoteKind accepts "up"/"down" as well as the route suffixes
// "upvote"/"downvote".
func ParseVoteKind(s string) (VoteKind, error) {
	switch s {
	case "up", "upvote":
		return UpVote, nil
	case "down", "downvote":
		return DownVote, nil
	}
	return "", fmt.Errorf("unknown vote kind %q", s)
}

// Field is the document field holding the counter.
func (k VoteKind) Field() string {
	if k == DownVote {
		return "downVote"
	}
	return "upVote"
}
