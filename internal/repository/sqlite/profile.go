package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// ProfileDB is the user-profile view of the database.
type ProfileDB struct {
	db *DB
}

var _ repository.ProfileRepository = (*ProfileDB)(nil)

// Profiles returns the profile repository backed by db.
func (db *DB) Profiles() *ProfileDB {
	return &ProfileDB{db: db}
}

const profileColumns = `id, email, name, photo_url, created_at, last_signed_in,
	preferred_sports, wants_all_picks, updated_at`

// Upsert creates or merges the profile document for userID.
//
// MERGE SEMANTICS:
// The existing document is read once. If it exists, only the provided
// (non-nil) fields overwrite it and last_signed_in is advanced; created_at
// and the onboarding preferences are untouched. If it does not exist, a new
// document is written with created_at and last_signed_in taken from the same
// clock reading.
//
// Two first sign-ins can race between the read and the insert. The insert
// does nothing on a primary key hit, and the loser merges into the row the
// winner wrote instead.
//
// Cost: one read plus one write (two of each for the loser of a race).
func (p *ProfileDB) Upsert(ctx context.Context, userID string, fields model.ProfileFields) (*model.UserProfile, error) {
	existing, err := p.GetByID(ctx, userID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("sqlite: reading profile %s for upsert: %w", userID, err)
	}
	if existing != nil {
		return p.merge(ctx, existing, fields)
	}

	now := p.db.timestamp()
	profile := &model.UserProfile{
		ID:           userID,
		CreatedAt:    now,
		LastSignedIn: now,
	}
	applyFields(profile, fields)

	res, err := p.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, photo_url, created_at, last_signed_in)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO NOTHING`,
		profile.ID,
		profile.Email,
		profile.Name,
		profile.PhotoURL,
		profile.CreatedAt,
		profile.LastSignedIn,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: inserting profile %s: %w", userID, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return nil, fmt.Errorf("sqlite: inserting profile %s: %w", userID, err)
	} else if n == 1 {
		return profile, nil
	}

	existing, err = p.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: re-reading profile %s after insert race: %w", userID, err)
	}
	return p.merge(ctx, existing, fields)
}

// merge overwrites the provided fields of existing and advances
// last_signed_in.
func (p *ProfileDB) merge(ctx context.Context, existing *model.UserProfile, fields model.ProfileFields) (*model.UserProfile, error) {
	merged := *existing
	applyFields(&merged, fields)
	merged.LastSignedIn = p.db.timestamp()

	_, err := p.db.conn.ExecContext(ctx,
		`UPDATE users SET email = ?, name = ?, photo_url = ?, last_signed_in = ?
		 WHERE id = ?`,
		merged.Email,
		merged.Name,
		merged.PhotoURL,
		merged.LastSignedIn,
		merged.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: updating profile %s: %w", merged.ID, err)
	}
	return &merged, nil
}

// GetByID returns the profile for userID, or apperror.ErrNotFound.
func (p *ProfileDB) GetByID(ctx context.Context, userID string) (*model.UserProfile, error) {
	row := p.db.conn.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE id = ?`, userID)

	profile, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("profile", userID)
		}
		return nil, fmt.Errorf("sqlite: getting profile %s: %w", userID, err)
	}
	return profile, nil
}

// SavePreferences merge-writes the onboarding fields and updated_at.
//
// A merge-write into a missing document creates it, so a profile row is
// inserted with fresh timestamps when none exists yet.
func (p *ProfileDB) SavePreferences(ctx context.Context, userID string, sports []string, wantsAll bool) error {
	if sports == nil {
		sports = []string{}
	}
	encoded, err := json.Marshal(sports)
	if err != nil {
		return fmt.Errorf("sqlite: encoding preferred sports: %w", err)
	}

	now := p.db.timestamp()
	_, err = p.db.conn.ExecContext(ctx,
		`INSERT INTO users (id, created_at, last_signed_in, preferred_sports, wants_all_picks, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
			preferred_sports = excluded.preferred_sports,
			wants_all_picks  = excluded.wants_all_picks,
			updated_at       = excluded.updated_at`,
		userID,
		now,
		now,
		string(encoded),
		wantsAll,
		now,
	)
	if err != nil {
		return fmt.Errorf("sqlite: saving preferences for %s: %w", userID, err)
	}
	return nil
}

// applyFields copies every provided field onto p.
func applyFields(p *model.UserProfile, f model.ProfileFields) {
	if f.Email != nil {
		p.Email = *f.Email
	}
	if f.Name != nil {
		p.Name = *f.Name
	}
	if f.PhotoURL != nil {
		p.PhotoURL = *f.PhotoURL
	}
}

// scanProfile decodes one users row. Absent preference columns decode as
// PreferencesSet=false with no sports and WantsAllPicks=false.
func scanProfile(row *sql.Row) (*model.UserProfile, error) {
	var (
		p        model.UserProfile
		sports   sql.NullString
		wantsAll sql.NullBool
		updated  sql.NullTime
	)
	if err := row.Scan(
		&p.ID,
		&p.Email,
		&p.Name,
		&p.PhotoURL,
		&p.CreatedAt,
		&p.LastSignedIn,
		&sports,
		&wantsAll,
		&updated,
	); err != nil {
		return nil, err
	}

	p.PreferredSports = []string{}
	if sports.Valid {
		p.PreferencesSet = true
		if err := json.Unmarshal([]byte(sports.String), &p.PreferredSports); err != nil {
			return nil, fmt.Errorf("decoding preferred_sports: %w", err)
		}
	}
	if wantsAll.Valid {
		p.PreferencesSet = true
		p.WantsAllPicks = wantsAll.Bool
	}
	if updated.Valid {
		t := updated.Time
		p.UpdatedAt = &t
	}
	return &p, nil
}
