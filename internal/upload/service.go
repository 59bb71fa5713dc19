package upload

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/core/events"
	"github.com/frahmantamala/employee-console/internal/metrics"
	"golang.org/x/sync/errgroup"
)

type Config struct {
	PublicBaseURL string
	SignedURLTTL  time.Duration
	AcceptedTypes []string
	MaxFileSizeMB int64
}

// Request is one batch from a single uploader.
type Request struct {
	Files      []File
	Target     Target
	Multiple   bool
	Uploader   string
	UserID     string
	Token      string
	OnProgress ProgressFunc
}

type SignRequest struct {
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
	Target
}

type SignedUpload struct {
	UploadURL   string    `json:"uploadURL"`
	Method      string    `json:"method"`
	ContentType string    `json:"contentType"`
	Key         string    `json:"key"`
	PublicURL   string    `json:"url"`
	ExpiresAt   time.Time `json:"expiresAt"`
}

type Service struct {
	store     ObjectStore
	bus       Publisher
	validator Validator
	cfg       Config
	logger    *slog.Logger
	now       func() time.Time
}

// NewService builds the upload component. A nil store makes every call fail with
// ErrStorageUnavailable; a nil bus skips event publishing.
func NewService(store ObjectStore, bus Publisher, cfg Config, logger *slog.Logger) *Service {
	if cfg.SignedURLTTL <= 0 {
		cfg.SignedURLTTL = internal.DefaultSignedURLTTL
	}
	return &Service{
		store:     store,
		bus:       bus,
		validator: NewValidator(cfg.AcceptedTypes, cfg.MaxFileSizeMB*mib),
		cfg:       cfg,
		logger:    logger,
		now:       time.Now,
	}
}

// MaxRequestBytes bounds a multipart upload body: a batch of full-size files
// plus room for part headers and form fields.
func (s *Service) MaxRequestBytes() int64 {
	return s.validator.MaxBytes*requestFileAllowance + multipartOverhead
}

func (s *Service) validatorFor(t Target) Validator {
	if t.Kind() == events.UploadKindProfilePicture && s.validator.MaxBytes > ProfilePictureMaxBytes {
		return s.validator.WithMaxBytes(ProfilePictureMaxBytes)
	}
	return s.validator
}

// Upload validates the whole batch, then stores every file concurrently and waits for all of them.
// A file that fails to store yields a failed Result; it does not cancel its siblings.
func (s *Service) Upload(ctx context.Context, req Request) ([]Result, error) {
	if s.store == nil {
		return nil, internal.ErrStorageUnavailable
	}
	if len(req.Files) == 0 {
		return nil, internal.NewValidationFieldError("files", "At least one file is required", internal.ErrCodeRequired)
	}
	if !req.Multiple && len(req.Files) > 1 {
		return nil, internal.ErrTooManyFiles
	}

	v := s.validatorFor(req.Target)
	for _, f := range req.Files {
		if err := v.Validate(f.ContentType, f.Size); err != nil {
			s.logger.Warn("upload rejected", "file", f.Name, "content_type", f.ContentType, "size", f.Size, "error", err)
			return nil, err
		}
	}

	results := make([]Result, len(req.Files))
	var progressMu sync.Mutex
	// The group only fans out and joins. Failures stay in results, so one
	// broken file never cancels its siblings.
	var g errgroup.Group
	for i, f := range req.Files {
		g.Go(func() error {
			results[i] = s.put(ctx, req, f, &progressMu)
			return nil
		})
	}
	_ = g.Wait()

	s.logger.Info("upload batch finished",
		"files", len(req.Files),
		"succeeded", len(Successful(results)),
		"kind", req.Target.Kind(),
		"user_id", req.UserID)

	return results, nil
}

func (s *Service) put(ctx context.Context, req Request, f File, progressMu *sync.Mutex) Result {
	kind := string(req.Target.Kind())
	key := BuildKey(req.Target, f.Name, req.Uploader, s.now())
	body := newProgressReader(f.Body, f.Name, f.Size, req.OnProgress, progressMu)

	metrics.UploadsInFlight.Inc()
	err := s.store.Put(ctx, key, f.ContentType, body)
	metrics.UploadsInFlight.Dec()

	if err != nil {
		metrics.UploadsTotal.WithLabelValues(kind, "failed").Inc()
		s.logger.Error("failed to store upload", "key", key, "error", err)
		return failed()
	}
	metrics.UploadsTotal.WithLabelValues(kind, "success").Inc()
	metrics.UploadBytes.WithLabelValues(kind).Observe(float64(f.Size))

	url := PublicURL(s.cfg.PublicBaseURL, key)
	s.publish(ctx, events.NewUploadCompletedEvent(req.Target.Kind(), key, url, req.UserID, req.Token, f.Size, f.ContentType))
	return succeeded(url, key)
}

func (s *Service) publish(ctx context.Context, event events.Event) {
	if s.bus == nil {
		return
	}
	if err := s.bus.PublishSync(ctx, event); err != nil {
		s.logger.Warn("upload event handler failed", "event_type", event.EventType(), "event_id", event.EventID(), "error", err)
	}
}

// Delete removes the object behind a public URL.
func (s *Service) Delete(ctx context.Context, url, userID string) error {
	if s.store == nil {
		return internal.ErrStorageUnavailable
	}
	key, ok := KeyFromURL(s.cfg.PublicBaseURL, strings.TrimSpace(url))
	if !ok {
		return internal.NewValidationFieldError("url", "URL does not belong to the upload bucket", internal.ErrCodeInvalidQuery)
	}

	if err := s.store.Delete(ctx, key); err != nil {
		s.logger.Error("failed to delete upload", "key", key, "error", err)
		return internal.NewUpstreamError(http.StatusBadGateway, "Delete failed", err)
	}

	s.logger.Info("upload deleted", "key", key, "user_id", userID)
	s.publish(ctx, events.NewUploadDeletedEvent(key, userID))
	return nil
}

// SignURL validates the announced file and returns a short-lived URL the client can PUT it to.
func (s *Service) SignURL(ctx context.Context, req SignRequest, uploader string) (*SignedUpload, error) {
	if s.store == nil {
		return nil, internal.ErrStorageUnavailable
	}
	if strings.TrimSpace(req.Filename) == "" {
		return nil, internal.NewValidationFieldError("filename", "Filename is required", internal.ErrCodeRequired)
	}
	if err := s.validatorFor(req.Target).Validate(req.ContentType, req.Size); err != nil {
		return nil, err
	}

	now := s.now()
	key := BuildKey(req.Target, req.Filename, uploader, now)
	signed, err := s.store.SignedPutURL(ctx, key, req.ContentType, s.cfg.SignedURLTTL)
	if err != nil {
		s.logger.Error("failed to sign upload URL", "key", key, "error", err)
		return nil, internal.NewUpstreamError(http.StatusBadGateway, FailureMessage, err)
	}

	return &SignedUpload{
		UploadURL:   signed,
		Method:      http.MethodPut,
		ContentType: req.ContentType,
		Key:         key,
		PublicURL:   PublicURL(s.cfg.PublicBaseURL, key),
		ExpiresAt:   now.Add(s.cfg.SignedURLTTL),
	}, nil
}

func Successful(results []Result) []Result {
	out := make([]Result, 0, len(results))
	for _, r := range results {
		if r.Success {
			out = append(out, r)
		}
	}
	return out
}
