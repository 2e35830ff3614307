package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateGroup inserts a group and its initial memberships in one
// transaction.
func (s *SQLiteStore) CreateGroup(ctx context.Context, group *models.Group) error {
	if group.ID == "" {
		group.ID = uuid.New().String()
	}
	if group.CreatedAt == 0 {
		group.CreatedAt = time.Now().Unix()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return storeErr("begin create group", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO groups (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		group.ID, group.Name, group.Description, group.CreatedAt,
	)
	if err != nil {
		return storeErr("insert group", err)
	}

	for _, m := range group.Members {
		_, err = tx.ExecContext(ctx,
			`INSERT INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)`,
			group.ID, m.UserID, m.Role,
		)
		if err != nil {
			return storeErr("insert group member", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return storeErr("commit create group", err)
	}
	return nil
}

// GetGroup retrieves a group with all its members.
func (s *SQLiteStore) GetGroup(ctx context.Context, id string) (*models.Group, error) {
	group := &models.Group{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM groups WHERE id = ?`, id,
	).Scan(&group.ID, &group.Name, &group.Description, &group.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get group", err)
	}

	if err := s.attachMembers(ctx, group); err != nil {
		return nil, err
	}
	return group, nil
}

// ListGroups returns every group the user belongs to, newest first, with
// all members attached.
func (s *SQLiteStore) ListGroups(ctx context.Context, userID string) ([]models.Group, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT g.id, g.name, g.description, g.created_at
		 FROM groups g
		 JOIN group_members gm ON gm.group_id = g.id
		 WHERE gm.user_id = ?
		 ORDER BY g.created_at DESC, g.id`,
		userID,
	)
	if err != nil {
		return nil, storeErr("list groups", err)
	}
	defer rows.Close()

	var groups []models.Group
	for rows.Next() {
		var g models.Group
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.CreatedAt); err != nil {
			return nil, storeErr("scan group", err)
		}
		groups = append(groups, g)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate groups", err)
	}

	for i := range groups {
		if err := s.attachMembers(ctx, &groups[i]); err != nil {
			return nil, err
		}
	}
	return groups, nil
}

// AddGroupMember adds one membership to an existing group. The insert
// ignores the primary-key collision and reports it as ErrAlreadyExists, so
// two racing adds never surface as a driver error.
func (s *SQLiteStore) AddGroupMember(ctx context.Context, groupID string, member models.Member) error {
	res, err := s.db.ExecContext(ctx,
		`INSERT OR IGNORE INTO group_members (group_id, user_id, role) VALUES (?, ?, ?)`,
		groupID, member.UserID, member.Role,
	)
	if err != nil {
		return storeErr("insert group member", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return storeErr("insert group member", err)
	}
	if n == 0 {
		return storage.ErrAlreadyExists
	}
	return nil
}

// attachMembers loads the membership rows for a group.
func (s *SQLiteStore) attachMembers(ctx context.Context, group *models.Group) error {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, role FROM group_members WHERE group_id = ? ORDER BY user_id`,
		group.ID,
	)
	if err != nil {
		return storeErr("get group members", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.Member
		if err := rows.Scan(&m.UserID, &m.Role); err != nil {
			return storeErr("scan group member", err)
		}
		group.Members = append(group.Members, m)
	}
	if err := rows.Err(); err != nil {
		return storeErr("iterate group members", err)
	}
	return nil
}
