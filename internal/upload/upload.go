package upload

import (
	"context"
	"io"
	"math"
	"regexp"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/frahmantamala/employee-console/internal"
	"github.com/frahmantamala/employee-console/internal/core/events"
)

const (
	FailureMessage = "Upload failed"
	mib            = 1024 * 1024

	// ProfilePictureMaxBytes is the tighter ceiling used by the profile page.
	ProfilePictureMaxBytes = 10 * mib

	requestFileAllowance = 10
	multipartOverhead    = 1 * mib
)

// ObjectStore is the bucket the console writes to.
type ObjectStore interface {
	Put(ctx context.Context, key, contentType string, body io.Reader) error
	Delete(ctx context.Context, key string) error
	SignedPutURL(ctx context.Context, key, contentType string, ttl time.Duration) (string, error)
}

type Publisher interface {
	PublishSync(ctx context.Context, event events.Event) error
}

// Target decides which folder of the bucket a file lands in.
type Target struct {
	ProfilePicture bool   `json:"profilePicture,omitempty"`
	Task           bool   `json:"isTask,omitempty"`
	Project        bool   `json:"isProject,omitempty"`
	ProjectID      string `json:"projectId,omitempty"`
}

// Directory picks the key prefix. Task and project folders need a project id.
func (t Target) Directory() string {
	switch {
	case t.Task && t.ProjectID != "":
		return "Projects/" + t.ProjectID + "/tasks/"
	case t.Project && t.ProjectID != "":
		return "Projects/" + t.ProjectID + "/Documents/"
	case t.ProfilePicture:
		return "Profile Pictures/"
	default:
		return ""
	}
}

func (t Target) Kind() events.UploadKind {
	switch {
	case t.Task && t.ProjectID != "":
		return events.UploadKindTask
	case t.Project && t.ProjectID != "":
		return events.UploadKindProject
	case t.ProfilePicture:
		return events.UploadKindProfilePicture
	default:
		return events.UploadKindDocument
	}
}

// File is one part of an upload batch.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Body        io.Reader
}

// Result mirrors the browser component's response; absent values are null.
type Result struct {
	Success bool    `json:"success"`
	URL     *string `json:"url"`
	Key     *string `json:"key"`
	Error   *string `json:"error"`
}

func succeeded(url, key string) Result {
	return Result{Success: true, URL: &url, Key: &key}
}

func failed() Result {
	msg := FailureMessage
	return Result{Error: &msg}
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9.-]`)

func SanitizeFilename(name string) string {
	return unsafeChars.ReplaceAllString(name, "-")
}

// BuildKey returns <dir><timestamp-ms>-<base>-<uploader>.<ext>.
// The extension is whatever follows the last dot of the sanitized name.
func BuildKey(t Target, filename, uploader string, now time.Time) string {
	sanitized := SanitizeFilename(filename)
	ext := sanitized
	if i := strings.LastIndex(sanitized, "."); i >= 0 {
		ext = sanitized[i+1:]
	}
	base := strings.Replace(sanitized, "."+ext, "", 1)

	return t.Directory() + strconv.FormatInt(now.UnixMilli(), 10) + "-" + base + "-" + uploader + "." + ext
}

// PublicURL joins the bucket's public base with a key.
func PublicURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}

// KeyFromURL reverses PublicURL.
func KeyFromURL(base, url string) (string, bool) {
	prefix := strings.TrimRight(base, "/") + "/"
	if base == "" || !strings.HasPrefix(url, prefix) {
		return "", false
	}
	key := strings.TrimPrefix(url, prefix)
	return key, key != ""
}

// Validator checks MIME type and size before anything reaches storage.
type Validator struct {
	Accepted []string
	MaxBytes int64
}

func NewValidator(accepted []string, maxBytes int64) Validator {
	if len(accepted) == 0 {
		accepted = internal.DefaultAcceptedTypes
	}
	if maxBytes <= 0 {
		maxBytes = internal.DefaultMaxFileSizeMB * mib
	}
	return Validator{Accepted: accepted, MaxBytes: maxBytes}
}

// WithMaxBytes returns a copy with a different size ceiling.
func (v Validator) WithMaxBytes(maxBytes int64) Validator {
	v.MaxBytes = maxBytes
	return v
}

func (v Validator) Validate(contentType string, size int64) error {
	if !v.accepts(contentType) {
		return internal.ErrFileTypeNotSupported
	}
	if size > v.MaxBytes {
		return internal.NewValidationError("File size should be less than "+formatMB(v.MaxBytes)+"MB", internal.ErrCodeFileTooLarge)
	}
	return nil
}

func (v Validator) accepts(contentType string) bool {
	for _, pattern := range v.Accepted {
		if MatchMIME(pattern, contentType) {
			return true
		}
	}
	return false
}

// MatchMIME matches a content type against a pattern where * stands for any run of characters.
func MatchMIME(pattern, contentType string) bool {
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.Index(contentType, ";"); i >= 0 {
		contentType = strings.TrimSpace(contentType[:i])
	}
	parts := strings.Split(strings.ToLower(pattern), "*")
	for i := range parts {
		parts[i] = regexp.QuoteMeta(parts[i])
	}
	re, err := regexp.Compile("^" + strings.Join(parts, ".*") + "$")
	if err != nil {
		return false
	}
	return re.MatchString(contentType)
}

func formatMB(bytes int64) string {
	return strconv.FormatFloat(float64(bytes)/mib, 'f', -1, 64)
}

// Percent is round(loaded/total*100); an empty body counts as done.
func Percent(loaded, total int64) int {
	if total <= 0 {
		return 100
	}
	return int(math.Round(float64(loaded) / float64(total) * 100))
}

// ProgressFunc receives the percentage of one file each time it changes.
type ProgressFunc func(name string, percent int)

type progressReader struct {
	r      io.Reader
	name   string
	total  int64
	loaded int64
	last   int
	report ProgressFunc
	mu     *sync.Mutex
}

func newProgressReader(r io.Reader, name string, total int64, report ProgressFunc, mu *sync.Mutex) io.Reader {
	if report == nil {
		return r
	}
	return &progressReader{r: r, name: name, total: total, last: -1, report: report, mu: mu}
}

func (p *progressReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	p.loaded += int64(n)
	if pct := Percent(p.loaded, p.total); pct != p.last && (n > 0 || err == io.EOF) {
		p.last = pct
		p.mu.Lock()
		p.report(p.name, pct)
		p.mu.Unlock()
	}
	return n, err
}
