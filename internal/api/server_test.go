package api

import (
	"bytes"
	"fmt"
	"math"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivankMERNPro/MediaSense-AI/internal/analyzer"
	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/filestore"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ingest"
	"github.com/shivankMERNPro/MediaSense-AI/internal/library"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
	Error   string          `json:"error"`
}

func newTestServer(t *testing.T, opts ...library.Option) *Server {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	emb, err := embedder.NewLocalProvider(nil, 64)
	require.NoError(t, err)

	srch := searcher.New(store, emb)
	pipeline := ingest.New(store, analyzer.NewLocalAnalyzer(), emb, ingest.Config{}, ingest.WithOnProcessed(srch.InvalidateOwner))
	lib := library.New(store, files, pipeline, srch, opts...)

	return NewServer(lib, Config{UploadDir: files.Root()})
}

func do(t *testing.T, s *Server, req *http.Request) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	rec := httptest.NewRecorder()
	s.Handler().ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func request(method, path, owner string, body []byte) *http.Request {
	req := httptest.NewRequest(method, path, bytes.NewReader(body))
	if owner != "" {
		req.Header.Set(HeaderUserID, owner)
	}
	return req
}

func uploadRequest(t *testing.T, owner, filename, mimeType string, content []byte) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", mimeType)
	part, err := mw.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := request(http.MethodPost, "/api/media/upload", owner, buf.Bytes())
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func upload(t *testing.T, s *Server, owner, filename, mimeType string) *types.Media {
	t.Helper()
	rec, env := do(t, s, uploadRequest(t, owner, filename, mimeType, []byte("content of "+filename)))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var m types.Media
	require.NoError(t, json.Unmarshal(env.Data, &m))
	return &m
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)

	rec, env := do(t, s, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 200, env.Code)
	assert.NotEmpty(t, rec.Header().Get(HeaderRequestID))

	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "mediasense_http_requests_total")
}

func TestRequestIDPropagates(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set(HeaderRequestID, "req-123")

	rec, _ := do(t, s, req)
	assert.Equal(t, "req-123", rec.Header().Get(HeaderRequestID))
}

func TestMissingOwnerIsUnauthorized(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/media/", "/api/media/search?query=cat", "/api/media/abc"} {
		rec, env := do(t, s, request(http.MethodGet, path, "", nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, 401, env.Code)
		assert.NotEmpty(t, env.Error)
	}
}

func TestUploadAndGet(t *testing.T) {
	s := newTestServer(t)
	m := upload(t, s, "u1", "sunset beach.jpg", "image/jpeg")

	assert.Equal(t, "sunset beach.jpg", m.OriginalName)
	assert.Equal(t, types.StatusReady, m.Status)
	assert.Equal(t, types.FileTypeImage, m.FileType)

	rec, env := do(t, s, request(http.MethodGet, "/api/media/"+m.ID, "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var got types.Media
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, m.ID, got.ID)

	rec, env = do(t, s, request(http.MethodGet, "/api/media/"+m.ID, "u2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "Media not found", env.Message)

	// the stored file is served
	rec, _ = do(t, s, httptest.NewRequest(http.MethodGet, m.FileURL, nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "content of sunset beach.jpg", rec.Body.String())
}

func TestUploadErrors(t *testing.T) {
	s := newTestServer(t, library.WithMaxUploadBytes(16))

	rec, _ := do(t, s, uploadRequest(t, "u1", "a.exe", "application/x-msdownload", []byte("x")))
	assert.Equal(t, http.StatusUnsupportedMediaType, rec.Code)

	rec, _ = do(t, s, uploadRequest(t, "u1", "big.png", "image/png", bytes.Repeat([]byte("x"), 17)))
	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)

	req := request(http.MethodPost, "/api/media/upload", "u1", []byte("not multipart"))
	req.Header.Set("Content-Type", "text/plain")
	rec, env := do(t, s, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "No file uploaded", env.Message)
}

func TestList(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "u1", "cat.png", "image/png")
	upload(t, s, "u1", "dog.png", "image/png")
	upload(t, s, "u1", "clip.mp4", "video/mp4")
	upload(t, s, "u2", "other.png", "image/png")

	rec, env := do(t, s, request(http.MethodGet, "/api/media/?type=image&limit=1&page=2", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var data ListData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 2, data.Total)
	assert.Equal(t, 2, data.Page)
	assert.Equal(t, 1, data.Limit)
	require.Len(t, data.Media, 1)
	assert.Equal(t, types.FileTypeImage, data.Media[0].FileType)

	rec, env = do(t, s, request(http.MethodGet, "/api/media/?type=all", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, 3, data.Total)

	rec, _ = do(t, s, request(http.MethodGet, "/api/media/?type=audio", "u1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestSearch(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "u1", "sunset beach.jpg", "image/jpeg")
	upload(t, s, "u1", "mountain snow.jpg", "image/jpeg")

	rec, env := do(t, s, request(http.MethodGet, "/api/media/search?query=sunset+beach", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var data SearchData
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, searcher.ModeSemantic, data.Mode)
	require.NotEmpty(t, data.Media)
	assert.Equal(t, "sunset beach.jpg", data.Media[0].OriginalName)
	assert.Greater(t, data.Media[0].FinalScore, 0.10)
	assert.Equal(t, len(data.Media), data.Total)

	rec, env = do(t, s, request(http.MethodGet, "/api/media/search?query=sn", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(env.Data, &data))
	assert.Equal(t, searcher.ModeKeyword, data.Mode)
	assert.Equal(t, "short_query", data.FallbackReason)
	assert.Equal(t, "Keyword search completed", env.Message)

	rec, env = do(t, s, request(http.MethodGet, "/api/media/search?query=++", "u1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, types.ErrEmptyQuery.Error(), env.Error)
}

func TestUpdate(t *testing.T) {
	s := newTestServer(t)
	m := upload(t, s, "u1", "cat.png", "image/png")

	body := []byte(`{"description":"A sleepy cat.","tags":["cat","nap"]}`)
	rec, env := do(t, s, request(http.MethodPut, "/api/media/"+m.ID, "u1", body))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var got types.Media
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "A sleepy cat.", got.Description)
	assert.Equal(t, []string{"cat", "nap"}, got.Tags)
	assert.Equal(t, m.Topics, got.Topics)

	rec, _ = do(t, s, request(http.MethodPut, "/api/media/"+m.ID, "u1", []byte("{")))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec, _ = do(t, s, request(http.MethodPut, "/api/media/"+m.ID, "u2", body))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteAndReanalyze(t *testing.T) {
	s := newTestServer(t)
	m := upload(t, s, "u1", "cat.png", "image/png")

	rec, env := do(t, s, request(http.MethodPost, "/api/media/"+m.ID+"/reanalyze", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Media reanalyzed successfully", env.Message)

	rec, _ = do(t, s, request(http.MethodDelete, "/api/media/"+m.ID, "u2", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec, _ = do(t, s, request(http.MethodDelete, "/api/media/"+m.ID, "u1", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	rec, _ = do(t, s, request(http.MethodGet, "/api/media/"+m.ID, "u1", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestStatus(t *testing.T) {
	s := newTestServer(t)
	upload(t, s, "u1", "cat.png", "image/png")

	rec, env := do(t, s, request(http.MethodGet, "/api/media/status", "u1", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var st storage.LibraryStatus
	require.NoError(t, json.Unmarshal(env.Data, &st))
	assert.Equal(t, 1, st.Total)
	assert.Equal(t, 1, st.Embedded)
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{types.ErrNotFound, http.StatusNotFound},
		{fmt.Errorf("wrap: %w", types.ErrEmptyQuery), http.StatusBadRequest},
		{fmt.Errorf("%w: %w", types.ErrInvalidMedia, types.ErrMissingFilename), http.StatusBadRequest},
		{library.ErrFileTooLarge, http.StatusRequestEntityTooLarge},
		{ingest.ErrReprocessInProgress, http.StatusConflict},
		{fmt.Errorf("disk full"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, statusFor(tt.err), tt.err.Error())
	}
}

func TestRespondJSONEncodeFailure(t *testing.T) {
	rec := httptest.NewRecorder()
	respondOK(rec, http.StatusOK, "ok", map[string]float64{"score": math.Inf(1)})

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	assert.Equal(t, http.StatusInternalServerError, env.Code)
	assert.Equal(t, "failed to encode response", env.Message)
	assert.NotEmpty(t, env.Error)
}
