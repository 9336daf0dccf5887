package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/planning-tool/planner-server/internal/models"
	"github.com/planning-tool/planner-server/internal/repository"
)

const defaultBookmarkCategory = "Uncategorized"

// BookmarkService manages a user's bookmarks and shared collections
type BookmarkService interface {
	ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error)
	CreateBookmark(ctx context.Context, userID string, req models.BookmarkRequest) (*models.Bookmark, error)
	UpdateBookmark(ctx context.Context, userID, id string, req models.UpdateBookmarkRequest) (*models.Bookmark, error)
	DeleteBookmark(ctx context.Context, userID, id string) error

	ListCollections(ctx context.Context, userID string) ([]models.Collection, error)
	CreateCollection(ctx context.Context, userID string, req models.CollectionRequest) (*models.CollectionResponse, error)
	GetCollection(ctx context.Context, name string) (*models.CollectionResponse, error)
	AddCollectionMember(ctx context.Context, name string, req models.AddCollectionMemberRequest) (*models.CollectionMember, error)
	RemoveCollectionMember(ctx context.Context, name, username string) error
	DeleteCollection(ctx context.Context, name string) error
}

func (s *DefaultService) ListBookmarks(ctx context.Context, userID string) ([]models.Bookmark, error) {
	bookmarks, err := s.repo.ListBookmarks(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing bookmarks: %w", err)
	}
	return bookmarks, nil
}

func (s *DefaultService) CreateBookmark(ctx context.Context, userID string, req models.BookmarkRequest) (*models.Bookmark, error) {
	now := s.clock.Now()
	b := &models.Bookmark{
		ID:          uuid.New().String(),
		Title:       req.Title,
		URL:         req.URL,
		Favicon:     req.Favicon,
		Description: req.Description,
		Category:    defaultString(req.Category, defaultBookmarkCategory),
		Tags:        pq.StringArray(nonNilStrings(req.Tags)),
		UserID:      &userID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.CreateBookmark(ctx, b); err != nil {
		return nil, fmt.Errorf("error creating bookmark: %w", err)
	}
	return b, nil
}

// ownBookmark hides other users' bookmarks behind not-found
func (s *DefaultService) ownBookmark(ctx context.Context, userID, id string) (*models.Bookmark, error) {
	b, err := s.repo.GetBookmark(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("error getting bookmark: %w", err)
	}
	if b == nil || b.UserID == nil || *b.UserID != userID {
		return nil, fmt.Errorf("%w: bookmark not found", ErrNotFound)
	}
	return b, nil
}

func (s *DefaultService) UpdateBookmark(ctx context.Context, userID, id string, req models.UpdateBookmarkRequest) (*models.Bookmark, error) {
	b, err := s.ownBookmark(ctx, userID, id)
	if err != nil {
		return nil, err
	}

	setString(&b.Title, req.Title)
	setString(&b.URL, req.URL)
	setString(&b.Category, req.Category)
	setOptional(&b.Favicon, req.Favicon)
	setOptional(&b.Description, req.Description)
	if req.Tags != nil {
		b.Tags = pq.StringArray(nonNilStrings(*req.Tags))
	}
	b.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateBookmark(ctx, b); err != nil {
		return nil, fmt.Errorf("error updating bookmark: %w", err)
	}
	return b, nil
}

func (s *DefaultService) DeleteBookmark(ctx context.Context, userID, id string) error {
	if _, err := s.ownBookmark(ctx, userID, id); err != nil {
		return err
	}
	if _, err := s.repo.DeleteBookmark(ctx, id); err != nil {
		return fmt.Errorf("error deleting bookmark: %w", err)
	}
	return nil
}

// Collections

func (s *DefaultService) ListCollections(ctx context.Context, userID string) ([]models.Collection, error) {
	collections, err := s.repo.ListCollections(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("error listing collections: %w", err)
	}
	return collections, nil
}

func (s *DefaultService) CreateCollection(ctx context.Context, userID string, req models.CollectionRequest) (*models.CollectionResponse, error) {
	now := s.clock.Now()
	c := &models.Collection{
		ID:        uuid.New().String(),
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if userID != "" {
		c.OwnerID = &userID
	}

	if err := s.repo.CreateCollection(ctx, c); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: collection %q already exists", ErrConflict, req.Name)
		}
		return nil, fmt.Errorf("error creating collection: %w", err)
	}
	return s.collectionResponse(ctx, c)
}

func (s *DefaultService) getCollection(ctx context.Context, name string) (*models.Collection, error) {
	c, err := s.repo.GetCollectionByName(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("error getting collection: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("%w: collection not found", ErrNotFound)
	}
	return c, nil
}

func (s *DefaultService) GetCollection(ctx context.Context, name string) (*models.CollectionResponse, error) {
	c, err := s.getCollection(ctx, name)
	if err != nil {
		return nil, err
	}
	return s.collectionResponse(ctx, c)
}

func (s *DefaultService) collectionResponse(ctx context.Context, c *models.Collection) (*models.CollectionResponse, error) {
	members, err := s.repo.ListCollectionMembers(ctx, c.ID)
	if err != nil {
		return nil, fmt.Errorf("error listing collection members: %w", err)
	}
	return &models.CollectionResponse{Collection: *c, Members: members}, nil
}

// AddCollectionMember looks the user up by display name
func (s *DefaultService) AddCollectionMember(ctx context.Context, name string, req models.AddCollectionMemberRequest) (*models.CollectionMember, error) {
	c, err := s.getCollection(ctx, name)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.GetUserByName(ctx, req.Username)
	if err != nil {
		return nil, fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return nil, fmt.Errorf("%w: user %q not found", ErrNotFound, req.Username)
	}

	existing, err := s.repo.GetCollectionMember(ctx, c.ID, user.ID)
	if err != nil {
		return nil, fmt.Errorf("error getting collection member: %w", err)
	}
	if existing != nil {
		return nil, fmt.Errorf("%w: user is already a member", ErrConflict)
	}

	m := &models.CollectionMember{
		ID:           uuid.New().String(),
		CollectionID: c.ID,
		UserID:       user.ID,
		Username:     user.Name,
		Role:         defaultString(req.Role, models.CollectionRoleMember),
		CreatedAt:    s.clock.Now(),
	}
	if err := s.repo.AddCollectionMember(ctx, m); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, fmt.Errorf("%w: user is already a member", ErrConflict)
		}
		return nil, fmt.Errorf("error adding collection member: %w", err)
	}
	return m, nil
}

func (s *DefaultService) RemoveCollectionMember(ctx context.Context, name, username string) error {
	c, err := s.getCollection(ctx, name)
	if err != nil {
		return err
	}

	user, err := s.repo.GetUserByName(ctx, username)
	if err != nil {
		return fmt.Errorf("error getting user: %w", err)
	}
	if user == nil {
		return fmt.Errorf("%w: user %q not found", ErrNotFound, username)
	}

	removed, err := s.repo.RemoveCollectionMember(ctx, c.ID, user.ID)
	if err != nil {
		return fmt.Errorf("error removing collection member: %w", err)
	}
	if !removed {
		return fmt.Errorf("%w: user is not a member of this collection", ErrNotFound)
	}
	return nil
}

func (s *DefaultService) DeleteCollection(ctx context.Context, name string) error {
	c, err := s.getCollection(ctx, name)
	if err != nil {
		return err
	}
	if err := s.repo.DeleteCollection(ctx, c.ID); err != nil {
		return fmt.Errorf("error deleting collection: %w", err)
	}
	return nil
}
