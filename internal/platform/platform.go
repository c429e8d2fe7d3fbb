// Package platform contains the publishing adapters. One adapter exists per
// site type; the registry selects it at publish time.
package platform

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/inkwell-hq/inkwell/internal/models"
)

// PublishRequest carries the post fields an adapter needs.
type PublishRequest struct {
	Title           string
	Content         string
	MetaTitle       string
	MetaDescription string
}

// PublishResult identifies the post on the external platform.
type PublishResult struct {
	ExternalID string `json:"external_id"`
	URL        string `json:"url"`
}

// Adapter publishes content to one platform type. Credentials are the
// site's opaque credential document; each adapter decodes its own shape.
type Adapter interface {
	Name() models.SiteType
	TestConnection(ctx context.Context, site *models.Site) error
	Publish(ctx context.Context, site *models.Site, req PublishRequest) (*PublishResult, error)
}

// Registry maps site types to their adapters.
type Registry struct {
	adapters map[models.SiteType]Adapter
	logger   *zap.Logger
}

func NewRegistry(logger *zap.Logger) *Registry {
	return &Registry{
		adapters: make(map[models.SiteType]Adapter),
		logger:   logger,
	}
}

func (r *Registry) Register(adapter Adapter) error {
	name := adapter.Name()
	if _, exists := r.adapters[name]; exists {
		return fmt.Errorf("adapter for site type %s already registered", name)
	}
	r.adapters[name] = adapter
	r.logger.Info("Platform adapter registered", zap.String("type", string(name)))
	return nil
}

func (r *Registry) Get(siteType models.SiteType) (Adapter, error) {
	adapter, exists := r.adapters[siteType]
	if !exists {
		return nil, fmt.Errorf("no adapter registered for site type %s", siteType)
	}
	return adapter, nil
}
