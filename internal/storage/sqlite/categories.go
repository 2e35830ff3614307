package sqlite

import (
	"context"
	"database/sql"

	"github.com/google/uuid"

	"github.com/splitledger/splitledger/internal/models"
	"github.com/splitledger/splitledger/internal/storage"
)

// CreateCategory inserts a new category, generating its ID if unset.
func (s *SQLiteStore) CreateCategory(ctx context.Context, category *models.Category) error {
	if category.ID == "" {
		category.ID = uuid.New().String()
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO categories (id, name, description, owner_id) VALUES (?, ?, ?, ?)`,
		category.ID, category.Name, category.Description, category.OwnerID,
	)
	if err != nil {
		return storeErr("insert category", err)
	}
	return nil
}

// GetCategory retrieves a category by ID.
func (s *SQLiteStore) GetCategory(ctx context.Context, id string) (*models.Category, error) {
	category := &models.Category{}
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, owner_id FROM categories WHERE id = ?`, id,
	).Scan(&category.ID, &category.Name, &category.Description, &category.OwnerID)
	if err == sql.ErrNoRows {
		return nil, storage.ErrNotFound
	}
	if err != nil {
		return nil, storeErr("get category", err)
	}
	return category, nil
}

// ListCategories returns the user's categories ordered by name.
func (s *SQLiteStore) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, owner_id FROM categories WHERE owner_id = ? ORDER BY name`,
		ownerID,
	)
	if err != nil {
		return nil, storeErr("list categories", err)
	}
	defer rows.Close()

	var categories []models.Category
	for rows.Next() {
		var c models.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Description, &c.OwnerID); err != nil {
			return nil, storeErr("scan category", err)
		}
		categories = append(categories, c)
	}
	if err := rows.Err(); err != nil {
		return nil, storeErr("iterate categories", err)
	}
	return categories, nil
}
