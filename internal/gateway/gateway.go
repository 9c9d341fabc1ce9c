package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reloveshop/storefront/internal/models"
)

// ErrNotFound reports a document id absent from its collection.
var ErrNotFound = errors.New("document not found")

// Document is the wire shape of one record: the stored fields plus "id".
type Document map[string]any

// Store exposes create/read/update/delete over named collections backed
// by a single documents table.
type Store struct {
	DB *gorm.DB
}

func New(db *gorm.DB) *Store {
	return &Store{DB: db}
}

// ListAll returns every document of a collection in insertion order.
func (s *Store) ListAll(ctx context.Context, collection string) ([]Document, error) {
	return s.list(ctx, collection, 0, 0)
}

// List returns one page of a collection in insertion order. A limit of 0
// means no limit.
func (s *Store) List(ctx context.Context, collection string, offset, limit int) ([]Document, error) {
	return s.list(ctx, collection, offset, limit)
}

func (s *Store) list(ctx context.Context, collection string, offset, limit int) ([]Document, error) {
	q := s.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("collection = ?", collection).
		Order("seq ASC")
	if offset > 0 {
		q = q.Offset(offset)
	}
	if limit > 0 {
		q = q.Limit(limit)
	}

	var recs []models.Document
	if err := q.Find(&recs).Error; err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}

	out := make([]Document, 0, len(recs))
	for _, rec := range recs {
		doc, err := decode(rec)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, nil
}

// Count reports the number of documents in a collection.
func (s *Store) Count(ctx context.Context, collection string) (int64, error) {
	var total int64
	if err := s.DB.WithContext(ctx).
		Model(&models.Document{}).
		Where("collection = ?", collection).
		Count(&total).Error; err != nil {
		return 0, fmt.Errorf("count %s: %w", collection, err)
	}
	return total, nil
}

// Get returns a single document by id.
func (s *Store) Get(ctx context.Context, collection, id string) (Document, error) {
	var rec models.Document
	err := s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return decode(rec)
}

// Create stores a new document under a freshly assigned id and returns
// the full record including that id.
func (s *Store) Create(ctx context.Context, collection string, fields map[string]any) (Document, error) {
	id := uuid.NewString()
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	rec := models.Document{ID: id, Collection: collection, Data: data}
	if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
		return nil, fmt.Errorf("create %s: %w", collection, err)
	}
	return decode(rec)
}

// Put stores a document under a caller-chosen id, replacing any existing
// record with that id.
func (s *Store) Put(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	data, err := json.Marshal(fields)
	if err != nil {
		return nil, fmt.Errorf("put %s/%s: %w", collection, id, err)
	}

	var rec models.Document
	err = s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&rec).Error
	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		rec = models.Document{ID: id, Collection: collection, Data: data}
		if err := s.DB.WithContext(ctx).Create(&rec).Error; err != nil {
			return nil, fmt.Errorf("put %s/%s: %w", collection, id, err)
		}
	case err != nil:
		return nil, fmt.Errorf("put %s/%s: %w", collection, id, err)
	default:
		rec.Data = data
		if err := s.DB.WithContext(ctx).Save(&rec).Error; err != nil {
			return nil, fmt.Errorf("put %s/%s: %w", collection, id, err)
		}
	}
	return decode(rec)
}

// Update merges the given fields into an existing document and returns
// the merged record. Fields absent from the argument keep their stored
// values.
func (s *Store) Update(ctx context.Context, collection, id string, fields map[string]any) (Document, error) {
	var rec models.Document
	err := s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	merged := map[string]any{}
	if err := json.Unmarshal(rec.Data, &merged); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		merged[k] = v
	}

	data, err := json.Marshal(merged)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	rec.Data = data
	if err := s.DB.WithContext(ctx).Save(&rec).Error; err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return decode(rec)
}

// Delete removes a document; a missing id is ErrNotFound.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	res := s.DB.WithContext(ctx).
		Where("collection = ? AND id = ?", collection, id).
		Delete(&models.Document{})
	if res.Error != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrNotFound
	}
	return nil
}

func decode(rec models.Document) (Document, error) {
	doc := Document{}
	if err := json.Unmarshal(rec.Data, &doc); err != nil {
		return nil, fmt.Errorf("decode %s/%s: %w", rec.Collection, rec.ID, err)
	}
	doc["id"] = rec.ID
	return doc, nil
}
