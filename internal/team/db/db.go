package db

import (
	"context"
	"database/sql"
	"errors"

	"github.com/uptrace/bun"

	"ms-events/internal/models"
)

var ErrMemberNotFound = errors.New("team member not found")

type DB struct {
	Bun *bun.DB
}

func (d *DB) GetMember(ctx context.Context, eventID, userID string) (*models.TeamMember, error) {
	var member models.TeamMember
	err := d.Bun.NewSelect().
		Model(&member).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMemberNotFound
		}
		return nil, err
	}
	return &member, nil
}

func (d *DB) ListMembers(ctx context.Context, eventID string) ([]models.TeamMember, error) {
	var members []models.TeamMember
	err := d.Bun.NewSelect().
		Model(&members).
		Where("event_id = ?", eventID).
		Order("added_at ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (d *DB) AddMember(ctx context.Context, member models.TeamMember) error {
	_, err := d.Bun.NewInsert().Model(&member).Exec(ctx)
	return err
}

func (d *DB) UpdateRole(ctx context.Context, eventID, userID, role string) error {
	res, err := d.Bun.NewUpdate().
		Model((*models.TeamMember)(nil)).
		Set("role = ?", role).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}

func (d *DB) RemoveMember(ctx context.Context, eventID, userID string) error {
	res, err := d.Bun.NewDelete().
		Model((*models.TeamMember)(nil)).
		Where("event_id = ? AND user_id = ?", eventID, userID).
		Exec(ctx)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrMemberNotFound
	}
	return nil
}
