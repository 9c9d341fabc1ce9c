package catalog

import (
	"context"
	"errors"
	"fmt"

	"github.com/reloveshop/storefront/internal/gateway"
	"github.com/reloveshop/storefront/internal/logging"
)

const collection = "products"

// EventPublisher delivers domain events; implementations may drop them.
type EventPublisher interface {
	PublishEvent(ctx context.Context, topic, key string, event any) error
}

// SearchIndex keeps the text-search index in step with the catalog.
type SearchIndex interface {
	IndexProduct(ctx context.Context, p Product) error
	RemoveProduct(ctx context.Context, id string) error
	Search(ctx context.Context, query string, from, size int) (int64, []Product, error)
}

// Service is the product side of the domain layer. Producer and Index
// are optional; event publication and index maintenance are best-effort
// and never fail the operation.
type Service struct {
	Gateway  *gateway.Store
	Producer EventPublisher
	Index    SearchIndex
}

// List returns the whole catalog in the gateway's native order.
func (s *Service) List(ctx context.Context) ([]Product, error) {
	docs, err := s.Gateway.ListAll(ctx, collection)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return productsFromDocuments(docs)
}

// ListPage returns one page of the catalog plus the total count.
func (s *Service) ListPage(ctx context.Context, offset, limit int) (int64, []Product, error) {
	total, err := s.Gateway.Count(ctx, collection)
	if err != nil {
		return 0, nil, fmt.Errorf("count products: %w", err)
	}
	docs, err := s.Gateway.List(ctx, collection, offset, limit)
	if err != nil {
		return 0, nil, fmt.Errorf("list products: %w", err)
	}
	items, err := productsFromDocuments(docs)
	if err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

// Get returns a single product by id.
func (s *Service) Get(ctx context.Context, id string) (Product, error) {
	doc, err := s.Gateway.Get(ctx, collection, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("get product: %w", err)
	}
	return productFromDocument(doc)
}

// Create validates and stores a new product, returning it with its
// assigned id.
func (s *Service) Create(ctx context.Context, req CreateProductRequest) (Product, error) {
	if err := req.validate(); err != nil {
		return Product{}, err
	}

	doc, err := s.Gateway.Create(ctx, collection, req.fields())
	if err != nil {
		return Product{}, fmt.Errorf("create product: %w", err)
	}
	prod, err := productFromDocument(doc)
	if err != nil {
		return Product{}, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_created",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	s.reindex(ctx, prod)
	return prod, nil
}

// Update merges the present fields of the request into the stored
// product and returns the result.
func (s *Service) Update(ctx context.Context, id string, req PatchProductRequest) (Product, error) {
	if err := req.validate(); err != nil {
		return Product{}, err
	}

	doc, err := s.Gateway.Update(ctx, collection, id, req.fields())
	if errors.Is(err, gateway.ErrNotFound) {
		return Product{}, ErrNotFound
	}
	if err != nil {
		return Product{}, fmt.Errorf("update product: %w", err)
	}
	prod, err := productFromDocument(doc)
	if err != nil {
		return Product{}, err
	}

	s.publish(ctx, map[string]any{
		"type":      "product_updated",
		"productID": prod.ID,
		"name":      prod.Name,
	})
	s.reindex(ctx, prod)
	return prod, nil
}

// Delete removes a product by id.
func (s *Service) Delete(ctx context.Context, id string) error {
	err := s.Gateway.Delete(ctx, collection, id)
	if errors.Is(err, gateway.ErrNotFound) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}

	s.publish(ctx, map[string]any{
		"type":      "product_deleted",
		"productID": id,
	})
	if s.Index != nil {
		if err := s.Index.RemoveProduct(ctx, id); err != nil {
			logging.FromContext(ctx).Warn("search_deindex_failed", "productID", id, "error", err)
		}
	}
	return nil
}

// Search queries the text index over name and description.
func (s *Service) Search(ctx context.Context, query string, from, size int) (int64, []Product, error) {
	if s.Index == nil {
		return 0, nil, errors.New("search is not configured")
	}
	return s.Index.Search(ctx, query, from, size)
}

func (s *Service) publish(ctx context.Context, event map[string]any) {
	if s.Producer == nil {
		return
	}
	if err := s.Producer.PublishEvent(ctx, "product_events", fmt.Sprint(event["productID"]), event); err != nil {
		logging.FromContext(ctx).Warn("event_publish_failed", "type", event["type"], "error", err)
	}
}

func (s *Service) reindex(ctx context.Context, p Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		logging.FromContext(ctx).Warn("search_index_failed", "productID", p.ID, "error", err)
	}
}

func productsFromDocuments(docs []gateway.Document) ([]Product, error) {
	out := make([]Product, 0, len(docs))
	for _, doc := range docs {
		p, err := productFromDocument(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, nil
}
