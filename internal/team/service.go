package team

import (
	"context"
	"errors"
	"time"

	"ms-events/internal/models"
	"ms-events/internal/team/db"
)

var (
	ErrUnauthorized        = errors.New("unauthorized access to event")
	ErrMemberNotFound      = db.ErrMemberNotFound
	ErrAlreadyMember       = errors.New("already a team member")
	ErrCannotModifyCreator = errors.New("the event creator cannot be removed or demoted")
	ErrInvalidRole         = errors.New("invalid team role")
)

type DBLayer interface {
	GetMember(ctx context.Context, eventID, userID string) (*models.TeamMember, error)
	ListMembers(ctx context.Context, eventID string) ([]models.TeamMember, error)
	AddMember(ctx context.Context, member models.TeamMember) error
	UpdateRole(ctx context.Context, eventID, userID, role string) error
	RemoveMember(ctx context.Context, eventID, userID string) error
}

type Service struct {
	DB DBLayer
}

func NewService(dbLayer DBLayer) *Service {
	return &Service{DB: dbLayer}
}

// RequireOrganizer fails with ErrUnauthorized unless userID holds CREATOR or
// ADMIN on the event. Every organizer-only operation calls this before any
// mutation.
func (s *Service) RequireOrganizer(ctx context.Context, eventID, userID string) error {
	member, err := s.DB.GetMember(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, db.ErrMemberNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if !member.IsOrganizer() {
		return ErrUnauthorized
	}
	return nil
}

// RequireCreator is the stricter gate used for event deletion.
func (s *Service) RequireCreator(ctx context.Context, eventID, userID string) error {
	member, err := s.DB.GetMember(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, db.ErrMemberNotFound) {
			return ErrUnauthorized
		}
		return err
	}
	if member.Role != models.RoleCreator {
		return ErrUnauthorized
	}
	return nil
}

func (s *Service) ListMembers(ctx context.Context, eventID string) ([]models.TeamMember, error) {
	return s.DB.ListMembers(ctx, eventID)
}

func (s *Service) AddMember(ctx context.Context, eventID, callerID, userID, role string) (*models.TeamMember, error) {
	if err := s.RequireOrganizer(ctx, eventID, callerID); err != nil {
		return nil, err
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return nil, ErrInvalidRole
	}

	if _, err := s.DB.GetMember(ctx, eventID, userID); err == nil {
		return nil, ErrAlreadyMember
	} else if !errors.Is(err, db.ErrMemberNotFound) {
		return nil, err
	}

	member := models.TeamMember{
		EventID: eventID,
		UserID:  userID,
		Role:    role,
		AddedAt: time.Now(),
		AddedBy: callerID,
	}
	if err := s.DB.AddMember(ctx, member); err != nil {
		return nil, err
	}
	return &member, nil
}

func (s *Service) UpdateRole(ctx context.Context, eventID, callerID, userID, role string) error {
	if err := s.RequireOrganizer(ctx, eventID, callerID); err != nil {
		return err
	}
	if role != models.RoleAdmin && role != models.RoleMember {
		return ErrInvalidRole
	}

	member, err := s.DB.GetMember(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, db.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if member.Role == models.RoleCreator {
		return ErrCannotModifyCreator
	}

	return s.DB.UpdateRole(ctx, eventID, userID, role)
}

func (s *Service) RemoveMember(ctx context.Context, eventID, callerID, userID string) error {
	if err := s.RequireOrganizer(ctx, eventID, callerID); err != nil {
		return err
	}

	member, err := s.DB.GetMember(ctx, eventID, userID)
	if err != nil {
		if errors.Is(err, db.ErrMemberNotFound) {
			return ErrMemberNotFound
		}
		return err
	}
	if member.Role == models.RoleCreator {
		return ErrCannotModifyCreator
	}

	return s.DB.RemoveMember(ctx, eventID, userID)
}
