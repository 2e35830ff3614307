package service

import (
	"errors"
	"fmt"
)

var (
	// ErrMissingDescription is returned when an expense has no description.
	ErrMissingDescription = errors.New("description is required")

	// ErrMissingName is returned when a category or group has no name.
	ErrMissingName = errors.New("name is required")

	// ErrInvalidCategory is returned when an expense references a category
	// that does not exist or is owned by someone else.
	ErrInvalidCategory = errors.New("category not found or not owned by caller")

	// ErrNotAMember is returned when the caller does not belong to the
	// group they are acting on.
	ErrNotAMember = errors.New("you are not a member of this group")

	// ErrNotAnAdmin is returned when a member-only admin action is
	// attempted by a non-admin.
	ErrNotAnAdmin = errors.New("only group admins can add members")

	// ErrAlreadyMember is returned when adding a user who already belongs
	// to the group.
	ErrAlreadyMember = errors.New("user is already a member of this group")
)

// InvalidParticipantError reports a split participant who is not a member
// of the expense's group. Membership is checked before any allocation
// happens.
type InvalidParticipantError struct {
	UserID string
}

func (e *InvalidParticipantError) Error() string {
	return fmt.Sprintf("participant %s is not a member of the group", e.UserID)
}
