package model

import "time"

// FollowMembership records that a user follows a pick.
// Its existence is the whole signal; there is no status column.
type FollowMembership struct {
	ID         string    `json:"id"`
	PickID     string    `json:"pickId"`
	UserID     string    `json:"userId"`
	FollowedAt time.Time `json:"followedAt"`
}

// MembershipID is the deterministic document key for (user, pick).
// Using it as the primary key is what keeps a membership unique.
func MembershipID(userID, pickID string) string {
	return userID + "_" + pickID
}

// FollowResult is returned by follow and unfollow.
//
// Success is false when the call changed nothing (already following) or
// failed. FollowerCount is re-read after the write and may already be stale
// by the time the caller sees it.
type FollowResult struct {
	Success       bool `json:"success"`
	FollowerCount int  `json:"followerCount"`
}
