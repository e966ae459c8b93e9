package model

import "time"

// MatchStatus is the lifecycle state of a match request.
//
// State machine: pending is the only initial state; accepted, rejected and
// cancelled are all terminal. There is no transition out of a terminal state;
// attempts surface as "not found" to the caller.
type MatchStatus string

const (
	StatusPending   MatchStatus = "pending"
	StatusAccepted  MatchStatus = "accepted"
	StatusRejected  MatchStatus = "rejected"
	StatusCancelled MatchStatus = "cancelled"
)

// Terminal reports whether no further transitions are defined out of s.
func (s MatchStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected || s == StatusCancelled
}

// MatchPeer is the public display projection of the user on the other side
// of a match request, joined into list responses.
type MatchPeer struct {
	Name         string `json:"name"`
	Email        string `json:"email"`
	ProfileImage string `json:"profileImage"`
}

// MatchRequest is a mentee's request to be mentored by a mentor.
//
// Mentor/Mentee are join-only fields: the incoming listing fills Mentee (the
// requester, as seen by the mentor), the outgoing listing fills Mentor. They
// are never persisted.
type MatchRequest struct {
	ID        int64       `json:"id"`
	MentorID  int64       `json:"mentorId"`
	MenteeID  int64       `json:"menteeId"`
	Message   string      `json:"message"`
	Status    MatchStatus `json:"status"`
	CreatedAt time.Time   `json:"createdAt"`
	UpdatedAt time.Time   `json:"updatedAt"`

	Mentor *MatchPeer `json:"mentor,omitempty"`
	Mentee *MatchPeer `json:"mentee,omitempty"`
}
