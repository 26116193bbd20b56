package service

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"strconv"
	"strings"
	"sync"

	"github.com/vbonduro/stocktake/internal/domain"
	"github.com/vbonduro/stocktake/internal/photostore"
	"github.com/vbonduro/stocktake/internal/store"
)

// ItemRepository is the catalog interface InventoryService requires. Both
// store.ItemStore and store.MemoryItemStore satisfy it.
type ItemRepository interface {
	Create(ctx context.Context, name, description, photoKey string) (*domain.Item, error)
	GetByID(ctx context.Context, id int64) (*domain.Item, error)
	List(ctx context.Context) ([]*domain.Item, error)
	Update(ctx context.Context, id int64, name, description string) error
	SetPhoto(ctx context.Context, id int64, photoKey string) error
	Delete(ctx context.Context, id int64) error
}

// PhotoUpload is an uploaded photo as received from a client.
type PhotoUpload struct {
	Filename  string
	MediaType string
	Data      []byte
}

// InventoryService owns the catalog and the photo files it references. Every
// mutation holds mu for its whole duration, photo I/O included, so an item
// never points at a file another request is replacing or deleting.
type InventoryService struct {
	mu       sync.RWMutex
	items    ItemRepository
	photoStg photostore.PhotoStore
	baseURL  string
	logger   *slog.Logger
}

func NewInventoryService(items ItemRepository, photoStg photostore.PhotoStore, baseURL string, logger *slog.Logger) *InventoryService {
	return &InventoryService{
		items:    items,
		photoStg: photoStg,
		baseURL:  strings.TrimRight(baseURL, "/"),
		logger:   logger,
	}
}

// PhotoURL is where the photo for item id is served.
func (s *InventoryService) PhotoURL(id int64) string {
	return s.baseURL + "/inventory/" + strconv.FormatInt(id, 10) + "/photo"
}

// IsImageMediaType reports whether mediaType names an image/* type.
func IsImageMediaType(mediaType string) bool {
	mt, _, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return false
	}
	return strings.HasPrefix(mt, "image/")
}

func validatePhoto(photo *PhotoUpload) error {
	if photo == nil || len(photo.Data) == 0 {
		return fmt.Errorf("%w: photo is required", ErrValidation)
	}
	if !IsImageMediaType(photo.MediaType) {
		return fmt.Errorf("%w: photo must be an image, got %q", ErrValidation, photo.MediaType)
	}
	return nil
}

// CreateItem registers a new item. name is trimmed and must not be empty. A
// nil photo registers the item without one. Nothing is stored when
// validation fails.
func (s *InventoryService) CreateItem(ctx context.Context, name, description string, photo *PhotoUpload) (*domain.Item, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("%w: inventory_name is required", ErrValidation)
	}
	if photo != nil {
		if err := validatePhoto(photo); err != nil {
			return nil, err
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var photoKey string
	if photo != nil {
		key, err := s.photoStg.Save(ctx, photo.Filename, photo.MediaType, bytes.NewReader(photo.Data))
		if err != nil {
			return nil, fmt.Errorf("failed to save photo: %w", err)
		}
		s.logger.Debug("photo saved", "storage_key", key, "bytes", len(photo.Data))
		photoKey = key
	}

	item, err := s.items.Create(ctx, name, description, photoKey)
	if err != nil {
		if photoKey != "" {
			s.discardPhoto(ctx, photoKey)
		}
		return nil, err
	}

	s.logger.Info("item created", "item_id", item.ID, "has_photo", item.HasPhoto())
	return item, nil
}

func (s *InventoryService) ListItems(ctx context.Context) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.items.List(ctx)
}

func (s *InventoryService) GetItem(ctx context.Context, id int64) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getItem(ctx, id)
}

func (s *InventoryService) getItem(ctx context.Context, id int64) (*domain.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get item: %w", err)
	}
	if item == nil {
		return nil, ErrNotFound
	}
	return item, nil
}

// UpdateItem overwrites the fields that are non-nil. Values are stored as
// given: no trimming and no emptiness check, unlike CreateItem.
func (s *InventoryService) UpdateItem(ctx context.Context, id int64, name, description *string) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if name == nil && description == nil {
		return item, nil
	}

	newName, newDesc := item.Name, item.Description
	if name != nil {
		newName = *name
	}
	if description != nil {
		newDesc = *description
	}

	if err := s.items.Update(ctx, id, newName, newDesc); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.logger.Info("item updated", "item_id", id)
	return s.getItem(ctx, id)
}

// ReplacePhoto stores the new photo, points the item at it, and only then
// removes the previous file.
func (s *InventoryService) ReplacePhoto(ctx context.Context, id int64, photo *PhotoUpload) (*domain.Item, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := validatePhoto(photo); err != nil {
		return nil, err
	}

	newKey, err := s.photoStg.Save(ctx, photo.Filename, photo.MediaType, bytes.NewReader(photo.Data))
	if err != nil {
		return nil, fmt.Errorf("failed to save photo: %w", err)
	}

	if err := s.items.SetPhoto(ctx, id, newKey); err != nil {
		s.discardPhoto(ctx, newKey)
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if item.HasPhoto() {
		s.discardPhoto(ctx, item.PhotoKey)
	}

	s.logger.Info("item photo replaced", "item_id", id, "storage_key", newKey)
	return s.getItem(ctx, id)
}

// DeleteItem removes the item and then its photo file. A photo that is
// already gone does not fail the delete.
func (s *InventoryService) DeleteItem(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return err
	}

	if err := s.items.Delete(ctx, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}

	if item.HasPhoto() {
		s.discardPhoto(ctx, item.PhotoKey)
	}

	s.logger.Info("item deleted", "item_id", id)
	return nil
}

// FetchPhoto opens the item's photo. A missing item, an item without a photo
// and a photo whose file has vanished all yield ErrNotFound.
func (s *InventoryService) FetchPhoto(ctx context.Context, id int64) (io.ReadCloser, string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, err := s.getItem(ctx, id)
	if err != nil {
		return nil, "", err
	}
	if !item.HasPhoto() {
		return nil, "", ErrNotFound
	}

	rc, mediaType, err := s.photoStg.Get(ctx, item.PhotoKey)
	if err != nil {
		if errors.Is(err, photostore.ErrNotFound) {
			s.logger.Warn("photo file missing", "item_id", id, "storage_key", item.PhotoKey)
			return nil, "", ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to open photo: %w", err)
	}
	return rc, mediaType, nil
}

// Search looks an item up by id. With includePhotoNote set and a photo
// present, the returned copy's description ends with a note pointing at the
// photo URL. The stored item is never changed.
func (s *InventoryService) Search(ctx context.Context, id int64, includePhotoNote bool) (*domain.Item, error) {
	item, err := s.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}

	view := *item
	if includePhotoNote && view.HasPhoto() {
		note := "Photo: " + s.PhotoURL(view.ID)
		if view.Description == "" {
			view.Description = note
		} else {
			view.Description += "\n\n" + note
		}
	}
	return &view, nil
}

// discardPhoto deletes a photo best-effort.
func (s *InventoryService) discardPhoto(ctx context.Context, key string) {
	err := s.photoStg.Delete(ctx, key)
	switch {
	case err == nil:
		s.logger.Debug("photo deleted", "storage_key", key)
	case errors.Is(err, photostore.ErrNotFound):
		s.logger.Debug("photo already gone", "storage_key", key)
	default:
		s.logger.Error("failed to delete photo", "storage_key", key, "error", err)
	}
}
