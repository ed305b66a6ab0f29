package upload

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/kdduha/image-captioner/internal/models"
)

const (
	FileField = "file"

	maxFieldBytes = 64 << 10
	maxParts      = 16
)

var (
	ErrNoFileProvided        = errors.New("no file provided")
	ErrFileTooLarge          = errors.New("file exceeds size limit")
	ErrUnsupportedFileType   = errors.New("unsupported file type")
	ErrUnexpectedFile        = errors.New("unexpected file part")
	ErrMalformedForm         = errors.New("malformed multipart form")
	ErrCouldNotDetermineType = errors.New("could not determine file type")
	ErrAlreadyRemoved        = errors.New("staged file already removed")
)

// extTypes is the image allow-list keyed by lower-cased extension.
var extTypes = map[string]string{
	".jpeg": "image/jpeg",
	".jpg":  "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
}

var allowedMIMEs = map[string]bool{
	"image/jpeg": true,
	"image/jpg":  true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
}

// AllowedTypes is the human readable allow-list used in client error messages.
const AllowedTypes = "jpeg|jpg|png|gif|webp"

// Form is a received multipart submission: the staged image plus plain fields.
type Form struct {
	Image  *models.UploadedImage
	Values url.Values
}

// Stager writes uploaded images to a local staging directory.
type Stager struct {
	dir      string
	maxBytes int64
	now      func() time.Time
}

func NewStager(dir string, maxBytes int64) *Stager {
	return &Stager{
		dir:      dir,
		maxBytes: maxBytes,
		now:      time.Now,
	}
}

func (s *Stager) Dir() string {
	return s.dir
}

func (s *Stager) MaxBytes() int64 {
	return s.maxBytes
}

// EnsureDir creates the staging directory if absent. Safe to call repeatedly.
func (s *Stager) EnsureDir() error {
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("ensure upload dir %s: %w", s.dir, err)
	}
	return nil
}

// Receive streams the multipart body of r. Exactly one image in the "file"
// field is staged; any rejection leaves nothing on disk.
func (s *Stager) Receive(r *http.Request) (*Form, error) {
	mr, err := r.MultipartReader()
	if err != nil {
		return nil, ErrNoFileProvided
	}

	form := &Form{Values: url.Values{}}
	fail := func(err error) (*Form, error) {
		if form.Image != nil {
			_ = os.Remove(form.Image.Path)
		}
		return nil, err
	}

	for parts := 0; ; parts++ {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return fail(fmt.Errorf("%w: %v", ErrMalformedForm, err))
		}
		if parts >= maxParts {
			part.Close()
			return fail(fmt.Errorf("%w: more than %d parts", ErrMalformedForm, maxParts))
		}

		if part.FileName() == "" {
			value, err := io.ReadAll(io.LimitReader(part, maxFieldBytes+1))
			part.Close()
			if err != nil {
				return fail(fmt.Errorf("%w: %v", ErrMalformedForm, err))
			}
			if len(value) > maxFieldBytes {
				return fail(fmt.Errorf("%w: field %q too long", ErrMalformedForm, part.FormName()))
			}
			form.Values.Add(part.FormName(), string(value))
			continue
		}

		if part.FormName() != FileField || form.Image != nil {
			part.Close()
			return fail(ErrUnexpectedFile)
		}

		img, err := s.stage(part)
		part.Close()
		if err != nil {
			return fail(err)
		}
		form.Image = img
	}

	if form.Image == nil {
		return nil, ErrNoFileProvided
	}
	return form, nil
}

func (s *Stager) stage(part *multipart.Part) (*models.UploadedImage, error) {
	ext := strings.ToLower(filepath.Ext(part.FileName()))
	declared := declaredMIME(part.Header.Get("Content-Type"))
	if _, ok := extTypes[ext]; !ok || !allowedMIMEs[declared] {
		return nil, fmt.Errorf("%w: extension %q, content type %q", ErrUnsupportedFileType, ext, declared)
	}

	if err := s.EnsureDir(); err != nil {
		return nil, err
	}

	name := fmt.Sprintf("%s-%d-%s%s", part.FormName(), s.now().UnixMilli(), uuid.NewString(), ext)
	path := filepath.Join(s.dir, name)

	dst, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create staged file: %w", err)
	}

	src := &partReader{r: part}
	n, err := io.Copy(dst, io.LimitReader(src, s.maxBytes+1))
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(path)
		if src.err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedForm, src.err)
		}
		return nil, fmt.Errorf("write staged file: %w", err)
	}
	if n > s.maxBytes {
		_ = os.Remove(path)
		return nil, fmt.Errorf("%w: more than %d bytes", ErrFileTooLarge, s.maxBytes)
	}

	return &models.UploadedImage{
		Path:         path,
		OriginalName: part.FileName(),
		Ext:          ext,
		MIMEType:     declared,
		Size:         n,
	}, nil
}

// partReader remembers a failure of the client body so it is not mistaken
// for a disk error.
type partReader struct {
	r   io.Reader
	err error
}

func (p *partReader) Read(b []byte) (int, error) {
	n, err := p.r.Read(b)
	if err != nil && !errors.Is(err, io.EOF) {
		p.err = err
	}
	return n, err
}

// Remove deletes a staged file. A file that is already gone yields ErrAlreadyRemoved.
func (s *Stager) Remove(img *models.UploadedImage) error {
	err := os.Remove(img.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return ErrAlreadyRemoved
	}
	return err
}

// DetectMIMEType resolves the content type of a staged file from its extension.
func DetectMIMEType(path string) (string, error) {
	if mimeType, ok := extTypes[strings.ToLower(filepath.Ext(path))]; ok {
		return mimeType, nil
	}
	return "", fmt.Errorf("%w: %s", ErrCouldNotDetermineType, filepath.Base(path))
}

func declaredMIME(contentType string) string {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return strings.ToLower(strings.TrimSpace(contentType))
	}
	return mediaType
}
