package model

import (
	"strings"
	"time"
)

// Pick is a single betting recommendation.
//
// Picks are published by an admin and are read-only for everyone else.
// Confidence is a percentage in [0, 100]; Odds stays a string because it is
// shown verbatim ("-110", "+250", "1.91").
type Pick struct {
	ID         string    `json:"id"`
	Sport      string    `json:"sport"`
	Matchup    string    `json:"matchup"`
	Pick       string    `json:"pick"`
	Odds       string    `json:"odds"`
	Confidence int       `json:"confidence"`
	Analysis   string    `json:"analysis"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// PickWithStatus is a pick decorated for one viewer.
// FollowerCount is computed at read time; it is not stored anywhere.
type PickWithStatus struct {
	Pick
	FollowerCount int  `json:"followerCount"`
	IsFollowing   bool `json:"isFollowing"`
}

// NewPick is the admin input for publishing a pick.
type NewPick struct {
	Sport      string `json:"sport"`
	Matchup    string `json:"matchup"`
	Pick       string `json:"pick"`
	Odds       string `json:"odds"`
	Confidence int    `json:"confidence"`
	Analysis   string `json:"analysis"`
}

// Normalize trims every text field and upper-cases the sport code.
func (n NewPick) Normalize() NewPick {
	n.Sport = strings.ToUpper(strings.TrimSpace(n.Sport))
	n.Matchup = strings.TrimSpace(n.Matchup)
	n.Pick = strings.TrimSpace(n.Pick)
	n.Odds = strings.TrimSpace(n.Odds)
	n.Analysis = strings.TrimSpace(n.Analysis)
	return n
}

// Validate returns the name of the first invalid field and a message,
// or two empty strings if the pick is publishable.
func (n NewPick) Validate() (field, message string) {
	switch {
	case n.Sport == "":
		return "sport", "sport is required"
	case n.Matchup == "":
		return "matchup", "matchup is required"
	case n.Pick == "":
		return "pick", "pick is required"
	case n.Confidence < 0 || n.Confidence > 100:
		return "confidence", "confidence must be between 0 and 100"
	}
	return "", ""
}
