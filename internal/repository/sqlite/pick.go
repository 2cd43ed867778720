package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"

	"github.com/sakif/aurabetz/internal/apperror"
	"github.com/sakif/aurabetz/internal/model"
	"github.com/sakif/aurabetz/internal/repository"
)

// PickDB is the picks view of the database.
type PickDB struct {
	db *DB
}

var _ repository.PickRepository = (*PickDB)(nil)

// Picks returns the pick repository backed by db.
func (db *DB) Picks() *PickDB {
	return &PickDB{db: db}
}

const pickColumns = `id, sport, matchup, pick, odds, confidence, analysis, created_at, updated_at`

// Create publishes a new pick with a generated xid key.
// xids sort by creation time, which gives List a stable tie-breaker.
func (p *PickDB) Create(ctx context.Context, in model.NewPick) (*model.Pick, error) {
	now := p.db.timestamp()
	pick := &model.Pick{
		ID:         xid.New().String(),
		Sport:      in.Sport,
		Matchup:    in.Matchup,
		Pick:       in.Pick,
		Odds:       in.Odds,
		Confidence: in.Confidence,
		Analysis:   in.Analysis,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	_, err := p.db.conn.ExecContext(ctx,
		`INSERT INTO picks (`+pickColumns+`)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		pick.ID,
		pick.Sport,
		pick.Matchup,
		pick.Pick,
		pick.Odds,
		pick.Confidence,
		pick.Analysis,
		pick.CreatedAt,
		pick.UpdatedAt,
	)
	if err != nil {
		if isConstraint(err) {
			return nil, apperror.ValidationFailed("pick", "pick violates a store constraint")
		}
		return nil, fmt.Errorf("sqlite: creating pick: %w", err)
	}

	return pick, nil
}

// GetByID returns one pick or apperror.ErrNotFound.
func (p *PickDB) GetByID(ctx context.Context, id string) (*model.Pick, error) {
	row := p.db.conn.QueryRowContext(ctx,
		`SELECT `+pickColumns+` FROM picks WHERE id = ?`, id)

	rec, err := scanPickRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("pick", id)
		}
		return nil, fmt.Errorf("sqlite: getting pick %s: %w", id, err)
	}

	pick := rec.decode(p.db.timestamp())
	return &pick, nil
}

// List returns every pick ordered by creation time, newest first.
// There is no pagination: the dashboard shows the whole day's card.
func (p *PickDB) List(ctx context.Context) ([]model.Pick, error) {
	rows, err := p.db.conn.QueryContext(ctx,
		`SELECT `+pickColumns+` FROM picks ORDER BY created_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing picks: %w", err)
	}
	defer rows.Close()

	now := p.db.timestamp()
	picks := []model.Pick{}
	for rows.Next() {
		rec, err := scanPickRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("sqlite: scanning pick row: %w", err)
		}
		picks = append(picks, rec.decode(now))
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating picks: %w", err)
	}

	return picks, nil
}

// pickRecord is a picks row as stored, before defaulting.
type pickRecord struct {
	model.Pick
	createdAt sql.NullTime
	updatedAt sql.NullTime
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPickRecord(s scanner) (pickRecord, error) {
	var rec pickRecord
	err := s.Scan(
		&rec.ID,
		&rec.Sport,
		&rec.Matchup,
		&rec.Pick.Pick,
		&rec.Odds,
		&rec.Confidence,
		&rec.Analysis,
		&rec.createdAt,
		&rec.updatedAt,
	)
	return rec, err
}

// decode applies the defaulting rules for missing timestamps:
// no created_at reads as now, no updated_at reads as created_at.
func (rec pickRecord) decode(now time.Time) model.Pick {
	p := rec.Pick
	p.CreatedAt = now
	if rec.createdAt.Valid {
		p.CreatedAt = rec.createdAt.Time
	}
	p.UpdatedAt = p.CreatedAt
	if rec.updatedAt.Valid {
		p.UpdatedAt = rec.updatedAt.Time
	}
	return p
}
