package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"marketnet/internal/models"
	"marketnet/internal/store"
	"marketnet/internal/util"

	"go.uber.org/zap"
)

// TagStore is the persistence tags need
type TagStore interface {
	ListTags(ctx context.Context) ([]models.Tag, error)
	CreateTag(ctx context.Context, t *models.Tag) error
	TagObject(ctx context.Context, tagID int64, target models.Taggable) (*models.TaggedItem, error)
	TagsFor(ctx context.Context, target models.Taggable) ([]models.Tag, error)
	UntagObject(ctx context.Context, tagID int64, target models.Taggable) error
	DeleteTaggedItemsFor(ctx context.Context, target models.Taggable) (int64, error)
}

// TagService labels products and collections
type TagService struct {
	store  TagStore
	logger *zap.Logger
}

// NewTagService creates a new tag service
func NewTagService(store TagStore) *TagService {
	return &TagService{store: store, logger: util.GetLogger()}
}

func (s *TagService) ListTags(ctx context.Context) ([]models.Tag, error) {
	return s.store.ListTags(ctx)
}

func (s *TagService) CreateTag(ctx context.Context, label string) (*models.Tag, error) {
	tag := &models.Tag{Label: strings.TrimSpace(label)}
	if tag.Label == "" {
		return nil, invalid("label", "must not be blank")
	}

	err := s.store.CreateTag(ctx, tag)
	if errors.Is(err, store.ErrDuplicate) {
		return nil, conflict(fmt.Sprintf("tag %q already exists", tag.Label))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to create tag: %w", err)
	}
	return tag, nil
}

// TagObject attaches a tag to an existing object. Tagging twice is a no-op.
func (s *TagService) TagObject(ctx context.Context, tagID int64, target models.TagRef) (*models.TaggedItem, error) {
	if !target.Kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("%q cannot be tagged", target.Kind))
	}

	item, err := s.store.TagObject(ctx, tagID, target)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to tag %s %d: %w", target.Kind, target.ID, err)
	}
	return item, nil
}

func (s *TagService) TagsFor(ctx context.Context, target models.TagRef) ([]models.Tag, error) {
	if !target.Kind.Valid() {
		return nil, invalid("kind", fmt.Sprintf("%q cannot be tagged", target.Kind))
	}
	return s.store.TagsFor(ctx, target)
}

func (s *TagService) Untag(ctx context.Context, tagID int64, target models.TagRef) error {
	err := s.store.UntagObject(ctx, tagID, target)
	if errors.Is(err, store.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// HandleObjectDeleted is subscribed to OBJECT_DELETED and drops the deleted
// object's tag associations.
func (s *TagService) HandleObjectDeleted(ctx context.Context, event models.Event) error {
	deleted, ok := event.(*models.ObjectDeletedEvent)
	if !ok {
		return fmt.Errorf("unexpected event %T", event)
	}

	removed, err := s.store.DeleteTaggedItemsFor(ctx, models.TagRef{Kind: deleted.Kind, ID: deleted.ObjectID})
	if err != nil {
		return fmt.Errorf("failed to remove tags of %s %d: %w", deleted.Kind, deleted.ObjectID, err)
	}
	if removed > 0 {
		s.logger.Info("Removed tags of deleted object",
			zap.String("kind", string(deleted.Kind)),
			zap.Int64("object_id", deleted.ObjectID),
			zap.Int64("removed", removed))
	}
	return nil
}
