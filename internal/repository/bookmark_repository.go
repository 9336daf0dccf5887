package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/planning-tool/planner-server/internal/models"
)

// Bookmark repository methods
func (r *PostgresRepository) ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	bookmarks := []models.Bookmark{}
	err := r.db.SelectContext(ctx, &bookmarks,
		`SELECT * FROM bookmarks WHERE user_id = $1 ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	return bookmarks, nil
}

func (r *PostgresRepository) GetBookmark(ctx context.Context, id string) (*models.Bookmark, error) {
	var b models.Bookmark
	err := r.db.GetContext(ctx, &b, `SELECT * FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &b, nil
}

func (r *PostgresRepository) CreateBookmark(ctx context.Context, b *models.Bookmark) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	stampCreated(&b.CreatedAt, &b.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO bookmarks (id, title, url, favicon, description, category, tags, user_id,
			created_at, updated_at)
		VALUES (:id, :title, :url, :favicon, :description, :category, :tags, :user_id,
			:created_at, :updated_at)
	`, b)
	return err
}

func (r *PostgresRepository) UpdateBookmark(ctx context.Context, b *models.Bookmark) error {
	stampUpdated(&b.UpdatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		UPDATE bookmarks SET title = :title, url = :url, favicon = :favicon,
			description = :description, category = :category, tags = :tags,
			updated_at = :updated_at
		WHERE id = :id
	`, b)
	return err
}

func (r *PostgresRepository) DeleteBookmark(ctx context.Context, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM bookmarks WHERE id = $1`, id)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}

// Collection repository methods
func (r *PostgresRepository) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	collections := []models.Collection{}
	err := r.db.SelectContext(ctx, &collections, `
		SELECT c.* FROM collections c
		JOIN collection_members cm ON cm.collection_id = c.id
		WHERE cm.user_id = $1
		ORDER BY c.name`, userID)
	if err != nil {
		return nil, err
	}
	return collections, nil
}

func (r *PostgresRepository) GetCollectionByName(ctx context.Context, name string) (*models.Collection, error) {
	var c models.Collection
	err := r.db.GetContext(ctx, &c, `SELECT * FROM collections WHERE name = $1`, name)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PostgresRepository) CreateCollection(ctx context.Context, c *models.Collection) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	stampCreated(&c.CreatedAt, &c.UpdatedAt)

	return r.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO collections (id, name, owner_id, created_at, updated_at)
			VALUES (:id, :name, :owner_id, :created_at, :updated_at)
		`, c)
		if err != nil {
			return translateError(err)
		}
		if c.OwnerID == nil {
			return nil
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO collection_members (id, collection_id, user_id, role, created_at)
			VALUES ($1, $2, $3, $4, $5)`,
			uuid.New().String(), c.ID, *c.OwnerID, models.CollectionRoleOwner, c.CreatedAt)
		return err
	})
}

func (r *PostgresRepository) DeleteCollection(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM collections WHERE id = $1`, id)
	return err
}

const collectionMemberQuery = `
	SELECT cm.id, cm.collection_id, cm.user_id, u.name AS username, cm.role, cm.created_at
	FROM collection_members cm
	JOIN users u ON u.id = cm.user_id
`

func (r *PostgresRepository) ListCollectionMembers(ctx context.Context, collectionID string) ([]models.CollectionMember, error) {
	members := []models.CollectionMember{}
	err := r.db.SelectContext(ctx, &members,
		collectionMemberQuery+` WHERE cm.collection_id = $1 ORDER BY cm.created_at`, collectionID)
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *PostgresRepository) GetCollectionMember(ctx context.Context, collectionID, userID string) (*models.CollectionMember, error) {
	var m models.CollectionMember
	err := r.db.GetContext(ctx, &m,
		collectionMemberQuery+` WHERE cm.collection_id = $1 AND cm.user_id = $2`, collectionID, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *PostgresRepository) AddCollectionMember(ctx context.Context, m *models.CollectionMember) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	stampUpdated(&m.CreatedAt)

	_, err := r.db.NamedExecContext(ctx, `
		INSERT INTO collection_members (id, collection_id, user_id, role, created_at)
		VALUES (:id, :collection_id, :user_id, :role, :created_at)
	`, m)
	return translateError(err)
}

func (r *PostgresRepository) RemoveCollectionMember(ctx context.Context, collectionID, userID string) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM collection_members WHERE collection_id = $1 AND user_id = $2`, collectionID, userID)
	if err != nil {
		return false, err
	}
	return rowsAffected(res)
}
