package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// FollowDB is the follow-membership view of the database.
type FollowDB struct {
	db *DB
}

var _ repository.FollowRepository = (*FollowDB)(nil)

// Follows returns the follow-membership repository backed by db.
func (db *DB) Follows() *FollowDB {
	return &FollowDB{db: db}
}

// Get point-reads the membership for (userID, pickID) by its deterministic
// key. Returns apperror.ErrNotFound when the user does not follow the pick.
func (f *FollowDB) Get(ctx context.Context, userID, pickID string) (*model.FollowMembership, error) {
	id := model.MembershipID(userID, pickID)

	var m model.FollowMembership
	err := f.db.conn.QueryRowContext(ctx,
		`SELECT id, pick_id, user_id, followed_at FROM pick_followers WHERE id = ?`, id,
	).Scan(&m.ID, &m.PickID, &m.UserID, &m.FollowedAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("follow", id)
		}
		return nil, fmt.Errorf("sqlite: getting follow %s: %w", id, err)
	}
	return &m, nil
}

// Create writes the membership with a followed-at timestamp.
// A second create for the same (user, pick) fails with apperror.ErrConflict.
func (f *FollowDB) Create(ctx context.Context, userID, pickID string) (*model.FollowMembership, error) {
	m := &model.FollowMembership{
		ID:         model.MembershipID(userID, pickID),
		PickID:     pickID,
		UserID:     userID,
		FollowedAt: f.db.timestamp(),
	}

	_, err := f.db.conn.ExecContext(ctx,
		`INSERT INTO pick_followers (id, pick_id, user_id, followed_at) VALUES (?, ?, ?, ?)`,
		m.ID, m.PickID, m.UserID, m.FollowedAt,
	)
	if err != nil {
		if isConstraint(err) {
			return nil, apperror.Conflict("follow", m.ID)
		}
		return nil, fmt.Errorf("sqlite: creating follow %s: %w", m.ID, err)
	}
	return m, nil
}

// Delete removes the membership. Deleting a membership that does not exist
// is not an error, so unfollow can be repeated safely.
func (f *FollowDB) Delete(ctx context.Context, userID, pickID string) error {
	id := model.MembershipID(userID, pickID)
	if _, err := f.db.conn.ExecContext(ctx, `DELETE FROM pick_followers WHERE id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting follow %s: %w", id, err)
	}
	return nil
}

// CountByPick counts memberships referencing pickID at query time.
// There is no stored counter; the result is consistent only as of the query.
func (f *FollowDB) CountByPick(ctx context.Context, pickID string) (int, error) {
	var n int
	err := f.db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM pick_followers WHERE pick_id = ?`, pickID,
	).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("sqlite: counting followers of %s: %w", pickID, err)
	}
	return n, nil
}
