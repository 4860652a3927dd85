package models

import "fmt"

type VoteState int

const (
	NoVote VoteState = iota
	Upvoted
	Downvoted
)

func (s VoteState) String() string {
	switch s {
	case Upvoted:
		return "upvoted"
	case Downvoted:
		return "downvoted"
	default:
		return "none"
	}
}

type VoteAction string

const (
	ActionLike    VoteAction = "like"
	ActionDislike VoteAction = "dislike"
)

// ParseVoteAction accepts the path segment used by the vote route.
func ParseVoteAction(s string) (VoteAction, error) {
	switch VoteAction(s) {
	case ActionLike, ActionDislike:
		return VoteAction(s), nil
	}
	return "", fmt.Errorf("unknown vote action %q", s)
}

// StateOf maps a stored like row (nil when absent) to its vote state.
func StateOf(l *Like) VoteState {
	switch {
	case l == nil:
		return NoVote
	case l.Status:
		return Upvoted
	default:
		return Downvoted
	}
}

// Apply returns the state reached by requesting a on s. Repeating the vote
// that produced s clears it; the opposite vote replaces it.
func (s VoteState) Apply(a VoteAction) VoteState {
	want := Upvoted
	if a == ActionDislike {
		want = Downvoted
	}
	if s == want {
		return NoVote
	}
	return want
}

// Status reports the like row status stored for s. ok is false for NoVote,
// which has no row.
func (s VoteState) Status() (status bool, ok bool) {
	switch s {
	case Upvoted:
		return true, true
	case Downvoted:
		return false, true
	}
	return false, false
}
