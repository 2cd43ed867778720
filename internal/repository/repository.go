package repository

import (
	"context"

	"github.com/sakif/aurabetz/internal/model"
)

// ProfileRepository stores one profile document per user.
type ProfileRepository interface {
	// Upsert creates the profile on first sign-in, otherwise merges the
	// provided fields and advances the last-sign-in time.
	Upsert(ctx context.Context, userID string, fields model.ProfileFields) (*model.UserProfile, error)
	GetByID(ctx context.Context, userID string) (*model.UserProfile, error)
	SavePreferences(ctx context.Context, userID string, sports []string, wantsAll bool) error
}

type PickRepository interface {
	Create(ctx context.Context, in model.NewPick) (*model.Pick, error)
	GetByID(ctx context.Context, id string) (*model.Pick, error)
	// List returns every pick, newest first.
	List(ctx context.Context) ([]model.Pick, error)
}

type FollowRepository interface {
	Get(ctx context.Context, userID, pickID string) (*model.FollowMembership, error)
	Create(ctx context.Context, userID, pickID string) (*model.FollowMembership, error)
	// Delete succeeds whether or not the membership existed.
	Delete(ctx context.Context, userID, pickID string) error
	CountByPick(ctx context.Context, pickID string) (int, error)
}
