package ingestion

import (
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/gin-gonic/gin"
)

// Service is the write path for sales facts. Every accepted mutation has already been
// folded into the product sales mart when the response is sent.
type Service struct {
	store            storage.FactStore
	maxBodySizeBytes int
}

func NewService(store storage.FactStore, maxBodySizeMB int) *Service {
	if store == nil {
		panic("ingestion: store must not be nil")
	}
	if maxBodySizeMB <= 0 {
		maxBodySizeMB = 1 // default to 1MB
	}
	return &Service{
		store:            store,
		maxBodySizeBytes: maxBodySizeMB * 1024 * 1024,
	}
}

// RegisterRoutes registers the fact routes.
func (s *Service) RegisterRoutes(r gin.IRouter) {
	r.POST("/v1/facts", s.InsertHandler)
	r.GET("/v1/facts/:order_id", s.GetHandler)
	r.DELETE("/v1/facts/:order_id", s.DeleteHandler)
}
