package ingestion

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"

	v1 "github.com/beanmart/salesmart/internal/api/v1"
	httperr "github.com/beanmart/salesmart/internal/core/errors"
	"github.com/beanmart/salesmart/internal/core/storage"
	"github.com/gin-gonic/gin"
)

const (
	msgReadBodyFailed = "Failed to read request body"
	msgInvalidJSON    = "Invalid JSON body"
	msgPersistFailed  = "Failed to persist fact"
	msgDeleteFailed   = "Failed to delete fact"
	msgLookupFailed   = "Failed to load fact"
	msgDuplicateFact  = "Fact already exists"
	msgFactNotFound   = "Fact not found"
)

// ingestionError carries the structured HTTP error shape from a helper back to the handler.
type ingestionError struct {
	statusCode int
	errorType  string
	message    string
	details    interface{}
}

func (e *ingestionError) Error() string {
	return e.message
}

// InsertHandler handles POST /v1/facts.
func (s *Service) InsertHandler(c *gin.Context) {
	fact, payloadSize, err := s.parseFact(c)
	if err != nil {
		writeError(c, err)
		return
	}

	slog.Info("[Ingestion] Received fact",
		"order_id", fact.OrderID,
		"coffee_type", fact.CoffeeType,
		"quantity", fact.Quantity,
		"payload_size", payloadSize)

	if err := s.insertFact(c.Request.Context(), fact); err != nil {
		writeError(c, err)
		return
	}

	stored := *fact
	stored.Normalize()
	c.JSON(http.StatusCreated, stored)
}

// DeleteHandler handles DELETE /v1/facts/:order_id and returns the removed row.
func (s *Service) DeleteHandler(c *gin.Context) {
	orderID := c.Param("order_id")

	removed, err := s.store.DeleteFact(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, &ingestionError{
				statusCode: http.StatusNotFound,
				errorType:  httperr.HttpNotFoundError,
				message:    msgFactNotFound,
				details:    map[string]interface{}{"order_id": orderID},
			})
			return
		}
		slog.Error("[Ingestion] Failed to delete fact", "error", err, "order_id", orderID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgDeleteFailed,
		})
		return
	}

	slog.Info("[Ingestion] Deleted fact", "order_id", orderID, "coffee_type", removed.CoffeeType)
	c.JSON(http.StatusOK, removed)
}

// GetHandler handles GET /v1/facts/:order_id.
func (s *Service) GetHandler(c *gin.Context) {
	orderID := c.Param("order_id")

	fact, err := s.store.GetFact(c.Request.Context(), orderID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			writeError(c, &ingestionError{
				statusCode: http.StatusNotFound,
				errorType:  httperr.HttpNotFoundError,
				message:    msgFactNotFound,
				details:    map[string]interface{}{"order_id": orderID},
			})
			return
		}
		slog.Error("[Ingestion] Failed to load fact", "error", err, "order_id", orderID)
		writeError(c, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgLookupFailed,
		})
		return
	}
	c.JSON(http.StatusOK, fact)
}

// parseFact reads the size-limited body and binds it into a FactRow.
func (s *Service) parseFact(c *gin.Context) (*v1.FactRow, int, *ingestionError) {
	maxBytes := int64(s.maxBodySizeBytes)
	limitedBody := io.LimitReader(c.Request.Body, maxBytes+1) // +1 to detect oversized requests

	bodyBytes, err := io.ReadAll(limitedBody)
	if err != nil {
		slog.Error("[Ingestion] Failed to read request body", "error", err)
		return nil, 0, &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgReadBodyFailed,
		}
	}

	if int64(len(bodyBytes)) > maxBytes {
		slog.Warn("[Ingestion] Request body exceeds maximum size", "size", len(bodyBytes), "max", maxBytes)
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusRequestEntityTooLarge,
			errorType:  httperr.HttpInvalidJsonError,
			message:    "Request body exceeds maximum allowed size",
			details: map[string]interface{}{
				"max_size_mb": maxBytes / (1024 * 1024),
			},
		}
	}

	c.Request.Body = io.NopCloser(bytes.NewReader(bodyBytes))

	var fact v1.FactRow
	if err := c.ShouldBindJSON(&fact); err != nil {
		slog.Warn("[Ingestion] Invalid JSON body received", "error", err, "payload_size", len(bodyBytes))
		return nil, len(bodyBytes), &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidJsonError,
			message:    msgInvalidJSON,
		}
	}
	return &fact, len(bodyBytes), nil
}

// insertFact stores the fact, mapping store errors onto HTTP errors.
func (s *Service) insertFact(ctx context.Context, fact *v1.FactRow) *ingestionError {
	err := s.store.InsertFact(ctx, fact)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, storage.ErrInvalidFact):
		slog.Warn("[Ingestion] Fact validation failed", "error", err, "order_id", fact.OrderID)
		return &ingestionError{
			statusCode: http.StatusBadRequest,
			errorType:  httperr.HttpInvalidFactError,
			message:    err.Error(),
		}
	case errors.Is(err, storage.ErrDuplicate):
		slog.Info("[Ingestion] Duplicate fact rejected", "order_id", fact.OrderID)
		return &ingestionError{
			statusCode: http.StatusConflict,
			errorType:  httperr.HttpDuplicateFactError,
			message:    msgDuplicateFact,
			details:    map[string]interface{}{"order_id": fact.OrderID},
		}
	default:
		slog.Error("[Ingestion] Failed to persist fact", "error", err, "order_id", fact.OrderID)
		return &ingestionError{
			statusCode: http.StatusInternalServerError,
			errorType:  httperr.HttpInternalError,
			message:    msgPersistFailed,
		}
	}
}

// writeError serializes an ingestionError as the JSON HTTP response.
func writeError(c *gin.Context, err *ingestionError) {
	c.JSON(err.statusCode, httperr.ErrorResponse{
		ErrorType: err.errorType,
		Message:   err.message,
		Details:   err.details,
	})
}
