package http

import (
	"context"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/iamrahulroyy/ats-checker/internal/domain/resume"
	"github.com/iamrahulroyy/ats-checker/internal/extract"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/resilience"
)

// ResumeService is the application surface the handlers depend on.
type ResumeService interface {
	Upload(ctx context.Context, filename string, contents []byte) (*resume.UploadResult, error)
	Get(ctx context.Context, id int64) (*resume.Resume, error)
	List(ctx context.Context) ([]resume.Resume, error)
}

// HealthChecker reports database connectivity.
type HealthChecker interface {
	Health(ctx context.Context) error
}

// Handlers contains all HTTP handlers
type Handlers struct {
	service       ResumeService
	db            HealthChecker
	dbBreaker     *resilience.Breaker
	scoreBreaker  *resilience.Breaker
	maxUploadSize int64
	logger        *zap.Logger
}

// NewHandlers creates a new handler set
func NewHandlers(
	service ResumeService,
	db HealthChecker,
	dbBreaker *resilience.Breaker,
	scoreBreaker *resilience.Breaker,
	maxUploadSize int64,
	logger *zap.Logger,
) *Handlers {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handlers{
		service:       service,
		db:            db,
		dbBreaker:     dbBreaker,
		scoreBreaker:  scoreBreaker,
		maxUploadSize: maxUploadSize,
		logger:        logger,
	}
}

// Root handles the landing route
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "ATS Checker",
	})
}

// Health handles detailed health check
func (h *Handlers) Health(c *gin.Context) {
	status := http.StatusOK
	dbStatus := "healthy"
	if err := h.db.Health(c.Request.Context()); err != nil {
		status = http.StatusServiceUnavailable
		dbStatus = "unreachable"
	}

	c.JSON(status, gin.H{
		"status":   dbStatus,
		"database": gin.H{"circuit": h.dbBreaker.State().String()},
		"scoring":  gin.H{"circuit": h.scoreBreaker.State().String()},
	})
}

// UploadResume accepts a multipart resume upload, extracts its text,
// persists the metadata and returns the ATS analysis.
func (h *Handlers) UploadResume(c *gin.Context) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.maxUploadSize)

	fileHeader, err := c.FormFile("file")
	if err != nil {
		if tooBig(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "file exceeds maximum upload size",
			})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "missing file field: " + err.Error(),
		})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()

	contents, err := io.ReadAll(f)
	if err != nil {
		if tooBig(err) {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "file exceeds maximum upload size",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	result, err := h.service.Upload(c.Request.Context(), fileHeader.Filename, contents)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"filename":  result.Resume.Filename,
		"ats_score": result.Score,
		"message":   "File uploaded successfully.",
	})
}

// GetResume retrieves stored metadata for one resume
func (h *Handlers) GetResume(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid resume id"})
		return
	}

	rec, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, rec)
}

// ListResumes lists all stored resumes
func (h *Handlers) ListResumes(c *gin.Context) {
	resumes, err := h.service.List(c.Request.Context())
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"resumes": resumes,
		"count":   len(resumes),
	})
}

// writeError maps domain errors to HTTP status codes.
func (h *Handlers) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, resilience.ErrCircuitOpen):
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error": "service temporarily unavailable, try again later",
		})
	case errors.Is(err, extract.ErrInvalidFormat), errors.Is(err, extract.ErrUnsupportedFormat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, resume.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "resume not found"})
	default:
		h.logger.Error("request failed",
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}

func tooBig(err error) bool {
	var maxErr *http.MaxBytesError
	return errors.As(err, &maxErr)
}
