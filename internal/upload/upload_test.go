package upload

import (
	"bytes"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type filePart struct {
	field       string
	filename    string
	contentType string
	content     []byte
}

func newUploadRequest(t *testing.T, files []filePart, fields map[string]string) *http.Request {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	for _, f := range files {
		h := make(textproto.MIMEHeader)
		h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="%s"; filename="%s"`, f.field, f.filename))
		h.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(h)
		require.NoError(t, err)
		_, err = part.Write(f.content)
		require.NoError(t, err)
	}
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/caption-image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func stagedFiles(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return nil
	}
	require.NoError(t, err)

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

func TestReceiveAcceptsAllowedImages(t *testing.T) {
	cases := []struct {
		filename    string
		contentType string
		wantMIME    string
	}{
		{"photo.jpg", "image/jpeg", "image/jpeg"},
		{"photo.JPEG", "image/jpeg", "image/jpeg"},
		{"shot.png", "image/png", "image/png"},
		{"anim.gif", "image/gif", "image/gif"},
		{"pic.webp", "image/webp", "image/webp"},
		{"legacy.jpg", "image/jpg", "image/jpg"},
	}

	for _, tc := range cases {
		t.Run(tc.filename, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "uploads")
			s := NewStager(dir, 1024)

			req := newUploadRequest(t, []filePart{{FileField, tc.filename, tc.contentType, []byte("imagedata")}},
				map[string]string{"style": "short"})

			form, err := s.Receive(req)
			require.NoError(t, err)
			require.NotNil(t, form.Image)

			assert.Equal(t, "short", form.Values.Get("style"))
			assert.Equal(t, tc.wantMIME, form.Image.MIMEType)
			assert.Equal(t, int64(len("imagedata")), form.Image.Size)
			assert.Equal(t, dir, filepath.Dir(form.Image.Path))
			assert.Len(t, stagedFiles(t, dir), 1)

			data, err := os.ReadFile(form.Image.Path)
			require.NoError(t, err)
			assert.Equal(t, "imagedata", string(data))
		})
	}
}

func TestReceiveStyleFieldBeforeFile(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 1024)

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	require.NoError(t, w.WriteField("style", "formal"))
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="file"; filename="a.png"`)
	h.Set("Content-Type", "image/png")
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, _ = part.Write([]byte("png"))
	require.NoError(t, w.Close())

	req := httptest.NewRequest(http.MethodPost, "/caption-image", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())

	form, err := s.Receive(req)
	require.NoError(t, err)
	assert.Equal(t, "formal", form.Values.Get("style"))
}

func TestReceiveRejectionsLeaveNothing(t *testing.T) {
	cases := []struct {
		name    string
		files   []filePart
		wantErr error
	}{
		{
			name:    "no file",
			wantErr: ErrNoFileProvided,
		},
		{
			name:    "text file",
			files:   []filePart{{FileField, "notes.txt", "text/plain", []byte("hello")}},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name:    "image extension with wrong declared type",
			files:   []filePart{{FileField, "photo.png", "application/octet-stream", []byte("png")}},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name:    "image type with wrong extension",
			files:   []filePart{{FileField, "photo.bmp", "image/png", []byte("png")}},
			wantErr: ErrUnsupportedFileType,
		},
		{
			name:    "too large",
			files:   []filePart{{FileField, "big.png", "image/png", bytes.Repeat([]byte("x"), 2048)}},
			wantErr: ErrFileTooLarge,
		},
		{
			name: "second file",
			files: []filePart{
				{FileField, "one.png", "image/png", []byte("one")},
				{FileField, "two.png", "image/png", []byte("two")},
			},
			wantErr: ErrUnexpectedFile,
		},
		{
			name:    "wrong field",
			files:   []filePart{{"image", "one.png", "image/png", []byte("one")}},
			wantErr: ErrUnexpectedFile,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			s := NewStager(dir, 1024)

			form, err := s.Receive(newUploadRequest(t, tc.files, map[string]string{"style": "short"}))
			assert.ErrorIs(t, err, tc.wantErr)
			assert.Nil(t, form)
			assert.Empty(t, stagedFiles(t, dir))
		})
	}
}

func TestReceiveMalformedForms(t *testing.T) {
	png := []filePart{{FileField, "cat.png", "image/png", bytes.Repeat([]byte("x"), 512)}}

	tooManyFields := map[string]string{}
	for i := 0; i < maxParts; i++ {
		tooManyFields[fmt.Sprintf("f%d", i)] = "v"
	}

	truncated := func(t *testing.T) *http.Request {
		full := newUploadRequest(t, png, nil)
		body, err := io.ReadAll(full.Body)
		require.NoError(t, err)

		req := httptest.NewRequest(http.MethodPost, "/caption-image", bytes.NewReader(body[:len(body)-100]))
		req.Header.Set("Content-Type", full.Header.Get("Content-Type"))
		return req
	}

	cases := []struct {
		name string
		req  func(t *testing.T) *http.Request
	}{
		{
			name: "too many parts",
			req:  func(t *testing.T) *http.Request { return newUploadRequest(t, png, tooManyFields) },
		},
		{
			name: "oversized field",
			req: func(t *testing.T) *http.Request {
				return newUploadRequest(t, png, map[string]string{"style": strings.Repeat("s", maxFieldBytes+1)})
			},
		},
		{
			name: "body cut inside the file",
			req:  truncated,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			dir := t.TempDir()
			s := NewStager(dir, 1024)

			form, err := s.Receive(tc.req(t))
			assert.ErrorIs(t, err, ErrMalformedForm)
			assert.Nil(t, form)
			assert.Empty(t, stagedFiles(t, dir))
		})
	}
}

func TestReceiveExactlyAtLimit(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 1024)

	form, err := s.Receive(newUploadRequest(t,
		[]filePart{{FileField, "edge.png", "image/png", bytes.Repeat([]byte("x"), 1024)}}, nil))
	require.NoError(t, err)
	assert.Equal(t, int64(1024), form.Image.Size)
}

func TestReceiveNotMultipart(t *testing.T) {
	s := NewStager(t.TempDir(), 1024)

	req := httptest.NewRequest(http.MethodPost, "/caption-image", bytes.NewBufferString(`{"file":"x"}`))
	req.Header.Set("Content-Type", "application/json")

	_, err := s.Receive(req)
	assert.ErrorIs(t, err, ErrNoFileProvided)
}

func TestEnsureDirIsIdempotent(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "uploads")
	s := NewStager(dir, 1024)

	require.NoError(t, s.EnsureDir())
	keep := filepath.Join(dir, "keep.txt")
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0o644))

	require.NoError(t, s.EnsureDir())
	data, err := os.ReadFile(keep)
	require.NoError(t, err)
	assert.Equal(t, "keep", string(data))
}

func TestRemove(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 1024)

	form, err := s.Receive(newUploadRequest(t, []filePart{{FileField, "a.gif", "image/gif", []byte("gif")}}, nil))
	require.NoError(t, err)

	require.NoError(t, s.Remove(form.Image))
	assert.Empty(t, stagedFiles(t, dir))

	assert.ErrorIs(t, s.Remove(form.Image), ErrAlreadyRemoved)
}

func TestConcurrentStagingNeverCollides(t *testing.T) {
	dir := t.TempDir()
	s := NewStager(dir, 1024)

	const n = 200
	var (
		wg    sync.WaitGroup
		mu    sync.Mutex
		paths = make(map[string]struct{}, n)
	)
	reqs := make([]*http.Request, n)
	for i := range reqs {
		reqs[i] = newUploadRequest(t, []filePart{{FileField, "same.png", "image/png", []byte("png")}}, nil)
	}

	for _, req := range reqs {
		wg.Add(1)
		go func(req *http.Request) {
			defer wg.Done()
			form, err := s.Receive(req)
			if !assert.NoError(t, err) {
				return
			}
			mu.Lock()
			paths[form.Image.Path] = struct{}{}
			mu.Unlock()
		}(req)
	}
	wg.Wait()

	assert.Len(t, paths, n)
	assert.Len(t, stagedFiles(t, dir), n)
}

func TestDetectMIMEType(t *testing.T) {
	mimeType, err := DetectMIMEType("/tmp/uploads/file-1-abc.JPG")
	require.NoError(t, err)
	assert.Equal(t, "image/jpeg", mimeType)

	mimeType, err = DetectMIMEType("file-1-abc.webp")
	require.NoError(t, err)
	assert.Equal(t, "image/webp", mimeType)

	_, err = DetectMIMEType("file-1-abc")
	assert.ErrorIs(t, err, ErrCouldNotDetermineType)
}
