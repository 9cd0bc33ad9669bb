package store

import (
	"context"
	"fmt"

	"marketnet/internal/models"
)

// taggableTables maps each taggable kind to the table holding its rows
var taggableTables = map[models.TaggableKind]string{
	models.KindProduct:    "products",
	models.KindCollection: "collections",
}

// ListTags retrieves all tags
func (s *Store) ListTags(ctx context.Context) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.SelectContext(ctx, &tags, "SELECT * FROM tags ORDER BY label")
	return tags, err
}

// CreateTag inserts a tag
func (s *Store) CreateTag(ctx context.Context, t *models.Tag) error {
	err := s.db.GetContext(ctx, &t.ID, "INSERT INTO tags (label) VALUES ($1) RETURNING id", t.Label)
	if isUniqueViolation(err) {
		return ErrDuplicate
	}
	return err
}

// TagObject attaches a tag to a taggable object. The object must exist.
func (s *Store) TagObject(ctx context.Context, tagID int64, target models.Taggable) (*models.TaggedItem, error) {
	table, ok := taggableTables[target.TagKind()]
	if !ok {
		return nil, fmt.Errorf("unknown taggable kind %q", target.TagKind())
	}

	var exists bool
	if err := s.db.GetContext(ctx, &exists,
		fmt.Sprintf("SELECT EXISTS(SELECT 1 FROM %s WHERE id = $1)", table), target.TagObjectID()); err != nil {
		return nil, err
	}
	if !exists {
		return nil, ErrNotFound
	}

	item := &models.TaggedItem{TagID: tagID, ObjectKind: target.TagKind(), ObjectID: target.TagObjectID()}
	err := s.db.GetContext(ctx, &item.ID, `
		INSERT INTO tagged_items (tag_id, object_kind, object_id)
		VALUES ($1, $2, $3)
		ON CONFLICT (tag_id, object_kind, object_id) DO UPDATE SET tag_id = EXCLUDED.tag_id
		RETURNING id`,
		item.TagID, item.ObjectKind, item.ObjectID)
	if isForeignKeyViolation(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return item, nil
}

// TagsFor retrieves the tags attached to an object
func (s *Store) TagsFor(ctx context.Context, target models.Taggable) ([]models.Tag, error) {
	tags := []models.Tag{}
	err := s.db.SelectContext(ctx, &tags, `
		SELECT t.id, t.label
		FROM tags t
		JOIN tagged_items ti ON ti.tag_id = t.id
		WHERE ti.object_kind = $1 AND ti.object_id = $2
		ORDER BY t.label`,
		target.TagKind(), target.TagObjectID())
	return tags, err
}

// UntagObject detaches one tag from an object
func (s *Store) UntagObject(ctx context.Context, tagID int64, target models.Taggable) error {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tagged_items WHERE tag_id = $1 AND object_kind = $2 AND object_id = $3",
		tagID, target.TagKind(), target.TagObjectID())
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

// DeleteTaggedItemsFor removes every tag association of an object
func (s *Store) DeleteTaggedItemsFor(ctx context.Context, target models.Taggable) (int64, error) {
	res, err := s.db.ExecContext(ctx,
		"DELETE FROM tagged_items WHERE object_kind = $1 AND object_id = $2",
		target.TagKind(), target.TagObjectID())
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
