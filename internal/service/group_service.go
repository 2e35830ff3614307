package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// GroupService manages expense groups and their memberships.
type GroupService struct {
	store storage.Store
}

// NewGroupService creates a GroupService with the given storage backend.
func NewGroupService(store storage.Store) *GroupService {
	return &GroupService{store: store}
}

// CreateGroup creates a group with the creator as admin and the listed
// users as plain members. Duplicates and the creator's own ID in memberIDs
// are ignored.
func (s *GroupService) CreateGroup(ctx context.Context, creatorID, name, description string, memberIDs []string) (*models.Group, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrMissingName
	}

	members := []models.Member{{UserID: creatorID, Role: models.RoleAdmin}}
	seen := map[string]bool{creatorID: true}
	for _, id := range memberIDs {
		if seen[id] {
			continue
		}
		seen[id] = true
		members = append(members, models.Member{UserID: id, Role: models.RoleMember})
	}

	group := &models.Group{
		Name:        name,
		Description: description,
		Members:     members,
	}
	if err := s.store.CreateGroup(ctx, group); err != nil {
		slog.Error("CreateGroup failed", "creator_id", creatorID, "error", err)
		return nil, err
	}

	slog.Info("group created", "group_id", group.ID, "members", len(group.Members))
	return group, nil
}

// GetGroup retrieves a group for one of its members.
func (s *GroupService) GetGroup(ctx context.Context, userID, groupID string) (*models.Group, error) {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return nil, err
	}
	if !group.HasMember(userID) {
		return nil, ErrNotAMember
	}
	return group, nil
}

// ListGroups returns every group the caller belongs to.
func (s *GroupService) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	return s.store.ListGroups(ctx, userID)
}

// AddMember adds a user to a group. Only admins may do this.
func (s *GroupService) AddMember(ctx context.Context, callerID, groupID, userID string) error {
	group, err := s.store.GetGroup(ctx, groupID)
	if err != nil {
		return err
	}
	if !group.IsAdmin(callerID) {
		return ErrNotAnAdmin
	}
	if group.HasMember(userID) {
		return ErrAlreadyMember
	}

	member := models.Member{UserID: userID, Role: models.RoleMember}
	if err := s.store.AddGroupMember(ctx, groupID, member); err != nil {
		// A racing add can slip past the membership check above.
		if errors.Is(err, storage.ErrAlreadyExists) {
			return ErrAlreadyMember
		}
		slog.Error("AddMember failed", "group_id", groupID, "user_id", userID, "error", err)
		return err
	}

	slog.Info("group member added", "group_id", groupID, "user_id", userID)
	return nil
}
