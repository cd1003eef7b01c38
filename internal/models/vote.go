package models

import (
	"encoding/json"
	"sort"
	"time"
)

type VoteDirection string

const (
	VoteUp   VoteDirection = "up"
	VoteDown VoteDirection = "down"
)

func (d VoteDirection) Valid() bool {
	return d == VoteUp || d == VoteDown
}

// Vote is one voter's current opinion on a post.
type Vote struct {
	Direction VoteDirection `json:"direction" bson:"direction"`
	CastAt    time.Time     `json:"createdAt" bson:"cast_at"`
}

// VoteLedger maps voter id to that voter's vote. Keying by voter makes
// "one vote per user per post" a property of the type.
type VoteLedger map[string]Vote

// Cast replaces any previous vote of voter with a vote in direction.
func (l *VoteLedger) Cast(voter string, direction VoteDirection, at time.Time) {
	if *l == nil {
		*l = make(VoteLedger)
	}
	delete(*l, voter)
	(*l)[voter] = Vote{Direction: direction, CastAt: at}
}

func (l VoteLedger) Up() int   { return l.count(VoteUp) }
func (l VoteLedger) Down() int { return l.count(VoteDown) }

func (l VoteLedger) count(direction VoteDirection) int {
	n := 0
	for _, v := range l {
		if v.Direction == direction {
			n++
		}
	}
	return n
}

// Score is |up| - |down|, computed from the ledger on every call.
func (l VoteLedger) Score() int {
	return l.Up() - l.Down()
}

// StateFor looks voter up in the ledger.
func (l VoteLedger) StateFor(voter string) VoteState {
	v, ok := l[voter]
	if !ok {
		return VoteState{}
	}
	return VoteState{Up: v.Direction == VoteUp, Down: v.Direction == VoteDown}
}

// VoteState is the caller's vote on a post as reported to clients.
type VoteState struct {
	Up   bool `json:"up"`
	Down bool `json:"down"`
}

// StateOf reports direction as the caller's vote without consulting a ledger.
func StateOf(direction VoteDirection) VoteState {
	return VoteState{Up: direction == VoteUp, Down: direction == VoteDown}
}

type ledgerEntry struct {
	User      string    `json:"user"`
	CreatedAt time.Time `json:"createdAt"`
}

// MarshalJSON renders the ledger as {up: [...], down: [...]} ordered by cast
// time, the shape web clients already consume.
func (l VoteLedger) MarshalJSON() ([]byte, error) {
	out := struct {
		Up   []ledgerEntry `json:"up"`
		Down []ledgerEntry `json:"down"`
	}{Up: []ledgerEntry{}, Down: []ledgerEntry{}}

	for voter, v := range l {
		e := ledgerEntry{User: voter, CreatedAt: v.CastAt}
		switch v.Direction {
		case VoteUp:
			out.Up = append(out.Up, e)
		case VoteDown:
			out.Down = append(out.Down, e)
		}
	}
	byTime := func(s []ledgerEntry) {
		sort.Slice(s, func(i, j int) bool {
			if s[i].CreatedAt.Equal(s[j].CreatedAt) {
				return s[i].User < s[j].User
			}
			return s[i].CreatedAt.Before(s[j].CreatedAt)
		})
	}
	byTime(out.Up)
	byTime(out.Down)

	return json.Marshal(out)
}

// UnmarshalJSON accepts the {up, down} shape produced by MarshalJSON.
func (l *VoteLedger) UnmarshalJSON(data []byte) error {
	var in struct {
		Up   []ledgerEntry `json:"up"`
		Down []ledgerEntry `json:"down"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	ledger := make(VoteLedger, len(in.Up)+len(in.Down))
	for _, e := range in.Up {
		ledger[e.User] = Vote{Direction: VoteUp, CastAt: e.CreatedAt}
	}
	for _, e := range in.Down {
		ledger[e.User] = Vote{Direction: VoteDown, CastAt: e.CreatedAt}
	}
	*l = ledger
	return nil
}

// VoteRequest is the body of PUT /questions/{id}/vote and /answers/{id}/vote.
type VoteRequest struct {
	Type VoteDirection `json:"type" validate:"required,vote_direction"`
}

func (r *VoteRequest) Validate() map[string]string {
	return validateStruct(r, map[string]string{
		"type.required":       "Vote type is required",
		"type.vote_direction": "Vote type must be 'up' or 'down'",
	})
}

// VoteResult is returned by every vote cast.
type VoteResult struct {
	VoteScore int       `json:"voteScore"`
	HasVoted  VoteState `json:"hasVoted"`
}
