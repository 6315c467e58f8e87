package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"shipgraph/backend/internal/constants"
	"shipgraph/backend/internal/graph"
	"shipgraph/backend/internal/pipeline"
	"shipgraph/backend/internal/query"
	apperrors "shipgraph/backend/pkg/errors"
)

// Ingester runs PDFs through the pipeline
type Ingester interface {
	Run(ctx context.Context, paths []string) (*pipeline.Report, error)
}

// Asker answers questions against the graph
type Asker interface {
	Ask(ctx context.Context, strategy, text string) (*query.Answer, error)
	Ships(ctx context.Context) ([]string, error)
}

// Backfiller stores missing Question embeddings
type Backfiller interface {
	Backfill(ctx context.Context) (int, error)
}

type handlers struct {
	ingester   Ingester
	asker      Asker
	backfiller Backfiller
	log        *zap.Logger
}

func newRouter(h *handlers, middleware ...gin.HandlerFunc) *gin.Engine {
	router := gin.New()
	router.Use(middleware...)
	router.Use(gin.Recovery())

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/api")
	{
		api.POST("/ingest", h.ingest)
		api.GET("/ships", h.ships)
		api.POST("/ask", h.ask)
		api.POST("/embeddings/backfill", h.backfill)
	}
	return router
}

// ingest stores the uploaded PDFs in a scratch directory and runs them in
// upload order
func (h *handlers) ingest(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "expected multipart form with files"})
		return
	}
	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}

	dir, err := os.MkdirTemp("", "shipgraph-upload-")
	if err != nil {
		h.log.Error("Failed to create upload directory", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploads"})
		return
	}
	defer os.RemoveAll(dir)

	paths := make([]string, 0, len(files))
	for i, file := range files {
		name := filepath.Base(file.Filename)
		if !strings.EqualFold(filepath.Ext(name), ".pdf") {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("%s is not a PDF", name)})
			return
		}
		path := filepath.Join(dir, fmt.Sprintf("%02d_%s", i+1, name))
		if err := c.SaveUploadedFile(file, path); err != nil {
			h.log.Error("Failed to save upload", zap.String("file", name), zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploads"})
			return
		}
		paths = append(paths, path)
	}

	report, err := h.ingester.Run(c.Request.Context(), paths)
	if err != nil {
		h.log.Error("Ingestion failed", zap.Error(err))
		c.JSON(ingestStatus(err), gin.H{"error": err.Error(), "report": report})
		return
	}

	c.JSON(http.StatusOK, gin.H{"report": report, "ships": report.Ships()})
}

func ingestStatus(err error) int {
	switch {
	case apperrors.IsErrorType(err, apperrors.ErrorTypePopulation):
		return http.StatusUnprocessableEntity
	case apperrors.IsErrorType(err, apperrors.ErrorTypeStructuring),
		apperrors.IsErrorType(err, apperrors.ErrorTypeOracle):
		return http.StatusBadGateway
	case apperrors.IsErrorType(err, apperrors.ErrorTypeContext):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

func (h *handlers) ships(c *gin.Context) {
	ships, err := h.asker.Ships(c.Request.Context())
	if err != nil {
		h.log.Error("Failed to list ships", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to list ships"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"ships": ships})
}

func (h *handlers) ask(c *gin.Context) {
	var req struct {
		Question string `json:"question" binding:"required"`
		Strategy string `json:"strategy"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Strategy == "" {
		req.Strategy = constants.StrategyHeuristic
	}

	answer, err := h.asker.Ask(c.Request.Context(), req.Strategy, req.Question)
	if err != nil {
		var unknownLabel graph.ErrUnknownLabel
		switch {
		case errors.Is(err, query.ErrNoMatch):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error(), "code": "no_match"})
		case errors.Is(err, query.ErrInvalidQuery):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "invalid_query"})
		case errors.Is(err, query.ErrNoEntity):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "no_entity"})
		case errors.Is(err, query.ErrUnknownStrategy):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unknown_strategy"})
		case errors.As(err, &unknownLabel):
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error(), "code": "unknown_label"})
		default:
			h.log.Error("Failed to answer question", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer question"})
		}
		return
	}

	c.JSON(http.StatusOK, answer)
}

func (h *handlers) backfill(c *gin.Context) {
	written, err := h.backfiller.Backfill(c.Request.Context())
	if err != nil {
		h.log.Error("Embedding backfill failed", zap.Int("written", written), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Embedding backfill failed", "written": written})
		return
	}
	c.JSON(http.StatusOK, gin.H{"written": written})
}
