package resume

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/iamrahulroyy/ats-checker/internal/extract"
	"github.com/iamrahulroyy/ats-checker/internal/infrastructure/monitoring"
	"github.com/iamrahulroyy/ats-checker/internal/scoring"
)

// Store persists resume metadata.
type Store interface {
	Save(ctx context.Context, r *Resume) error
	Get(ctx context.Context, id int64) (*Resume, error)
	List(ctx context.Context) ([]Resume, error)
}

// Scorer produces an ATS score for extracted resume text.
type Scorer interface {
	Check(ctx context.Context, text string) (*scoring.Score, error)
}

// UploadResult is returned to the HTTP layer after a successful upload.
type UploadResult struct {
	Resume *Resume        `json:"resume"`
	Score  *scoring.Score `json:"ats_score"`
}

// Service runs the upload pipeline: validate, extract text, write the
// file to disk, persist metadata, score.
type Service struct {
	store     Store
	scorer    Scorer
	uploadDir string
	metrics   *monitoring.Metrics
	logger    *zap.Logger

	// extractText is swappable in tests to avoid needing real PDF bytes.
	extractText func(contents []byte, ext string) (string, error)
}

// NewService creates the resume service.
func NewService(store Store, scorer Scorer, uploadDir string, metrics *monitoring.Metrics, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		store:       store,
		scorer:      scorer,
		uploadDir:   uploadDir,
		metrics:     metrics,
		logger:      logger,
		extractText: extract.Text,
	}
}

// Upload processes one uploaded resume. The metadata row is committed
// before scoring, so a scoring failure does not lose the upload.
func (s *Service) Upload(ctx context.Context, filename string, contents []byte) (*UploadResult, error) {
	ext, err := extract.ValidateExtension(filename)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	text, err := s.extractText(contents, ext)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("rejected").Inc()
		return nil, err
	}

	fileURL, err := s.saveFile(filename, contents)
	if err != nil {
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	rec := &Resume{
		Filename: filename,
		FileSize: int64(len(contents)),
		FileURL:  fileURL,
	}
	if err := s.store.Save(ctx, rec); err != nil {
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}

	start := time.Now()
	score, err := s.scorer.Check(ctx, text)
	s.metrics.ScoreDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		s.metrics.ScoreRequests.WithLabelValues("error").Inc()
		s.metrics.UploadsTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.metrics.ScoreRequests.WithLabelValues("ok").Inc()

	s.metrics.UploadsTotal.WithLabelValues("ok").Inc()
	s.metrics.UploadBytes.Observe(float64(len(contents)))
	s.logger.Info("resume uploaded",
		zap.Int64("resume_id", rec.ID),
		zap.String("filename", rec.Filename),
		zap.Int64("file_size", rec.FileSize),
		zap.Int("ats_score", score.ATSScore),
	)

	return &UploadResult{Resume: rec, Score: score}, nil
}

// Get fetches stored metadata by id.
func (s *Service) Get(ctx context.Context, id int64) (*Resume, error) {
	return s.store.Get(ctx, id)
}

// List returns all stored resumes.
func (s *Service) List(ctx context.Context) ([]Resume, error) {
	return s.store.List(ctx)
}

// saveFile writes the upload under the uploads directory with a unique
// prefix so repeated filenames never collide.
func (s *Service) saveFile(filename string, contents []byte) (string, error) {
	if err := os.MkdirAll(s.uploadDir, 0o755); err != nil {
		return "", fmt.Errorf("create upload directory: %w", err)
	}
	name := uuid.New().String() + "_" + filepath.Base(filename)
	path := filepath.Join(s.uploadDir, name)
	if err := os.WriteFile(path, contents, 0o644); err != nil {
		return "", fmt.Errorf("save file: %w", err)
	}
	return path, nil
}
