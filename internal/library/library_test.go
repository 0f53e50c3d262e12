package library

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivankMERNPro/MediaSense-AI/internal/analyzer"
	"github.com/shivankMERNPro/MediaSense-AI/internal/embedder"
	"github.com/shivankMERNPro/MediaSense-AI/internal/filestore"
	"github.com/shivankMERNPro/MediaSense-AI/internal/ingest"
	"github.com/shivankMERNPro/MediaSense-AI/internal/searcher"
	"github.com/shivankMERNPro/MediaSense-AI/internal/storage"
	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

type failingAnalyzer struct {
	*analyzer.LocalAnalyzer
}

func (failingAnalyzer) Describe(ctx context.Context, in analyzer.Input) (string, error) {
	return "", errors.New("quota exceeded")
}

type fixture struct {
	svc   *Service
	store *storage.SQLiteStorage
	files *filestore.Store
}

func newFixture(t *testing.T, an analyzer.Analyzer, opts ...Option) *fixture {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	files, err := filestore.New(t.TempDir())
	require.NoError(t, err)

	emb, err := embedder.NewLocalProvider(nil, 64)
	require.NoError(t, err)

	if an == nil {
		an = analyzer.NewLocalAnalyzer()
	}
	srch := searcher.New(store, emb)
	pipeline := ingest.New(store, an, emb, ingest.Config{}, ingest.WithOnProcessed(srch.InvalidateOwner))

	return &fixture{
		svc:   New(store, files, pipeline, srch, opts...),
		store: store,
		files: files,
	}
}

func (f *fixture) upload(t *testing.T, owner, name, mimeType string) *UploadResult {
	t.Helper()
	res, err := f.svc.Upload(context.Background(), UploadRequest{
		OwnerID:      owner,
		OriginalName: name,
		MimeType:     mimeType,
		Body:         strings.NewReader("file-bytes-" + name),
	})
	require.NoError(t, err)
	return res
}

func TestUploadAnalyzes(t *testing.T) {
	f := newFixture(t, nil)

	res := f.upload(t, "u1", "Sunset-Beach.jpg", "image/jpeg")
	require.True(t, res.Analyzed, res.Error)

	m := res.Media
	assert.NotEmpty(t, m.ID)
	assert.Equal(t, "u1", m.OwnerID)
	assert.Equal(t, "Sunset-Beach.jpg", m.OriginalName)
	assert.True(t, strings.HasSuffix(m.Filename, ".jpg"))
	assert.Equal(t, types.FileTypeImage, m.FileType)
	assert.Equal(t, "/uploads/"+m.Filename, m.FileURL)
	assert.Equal(t, int64(len("file-bytes-Sunset-Beach.jpg")), m.FileSize)
	assert.Equal(t, types.StatusReady, m.Status)
	assert.Equal(t, "An image named sunset beach.", m.Description)
	assert.Contains(t, m.Tags, "sunset")
	assert.Equal(t, []string{"photography"}, m.Topics)
	assert.Len(t, m.Embedding, 64)

	_, err := os.Stat(m.FilePath)
	assert.NoError(t, err)
}

func TestUploadFileTypes(t *testing.T) {
	f := newFixture(t, nil)

	tests := []struct {
		mime string
		want types.FileType
	}{
		{"video/mp4", types.FileTypeVideo},
		{"application/pdf", types.FileTypeDocument},
		{"application/vnd.openxmlformats-officedocument.wordprocessingml.document", types.FileTypeDocument},
		{"IMAGE/PNG", types.FileTypeImage},
	}
	for _, tt := range tests {
		res := f.upload(t, "u1", "file.bin", tt.mime)
		assert.Equal(t, tt.want, res.Media.FileType, tt.mime)
	}
}

func TestUploadRejects(t *testing.T) {
	f := newFixture(t, nil, WithMaxUploadBytes(8))
	ctx := context.Background()

	_, err := f.svc.Upload(ctx, UploadRequest{OwnerID: "u1", OriginalName: "a.exe", MimeType: "application/x-msdownload", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, types.ErrUnsupportedFileType)
	assert.ErrorIs(t, err, types.ErrInvalidMedia)

	_, err = f.svc.Upload(ctx, UploadRequest{OriginalName: "a.png", MimeType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, types.ErrMissingOwner)

	_, err = f.svc.Upload(ctx, UploadRequest{OwnerID: "u1", OriginalName: " ", MimeType: "image/png", Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, types.ErrMissingFilename)

	_, err = f.svc.Upload(ctx, UploadRequest{OwnerID: "u1", OriginalName: "a.png", MimeType: "image/png", Size: 9, Body: strings.NewReader("x")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	_, err = f.svc.Upload(ctx, UploadRequest{OwnerID: "u1", OriginalName: "a.png", MimeType: "image/png", Body: strings.NewReader("123456789")})
	assert.ErrorIs(t, err, ErrFileTooLarge)

	list, err := f.svc.List(ctx, "u1", storage.ListFilter{})
	require.NoError(t, err)
	assert.Zero(t, list.Total)
}

func TestUploadAnalysisFailure(t *testing.T) {
	f := newFixture(t, failingAnalyzer{analyzer.NewLocalAnalyzer()})

	res := f.upload(t, "u1", "cat.png", "image/png")
	assert.False(t, res.Analyzed)
	assert.Contains(t, res.Error, "quota exceeded")
	assert.Equal(t, types.StatusError, res.Media.Status)
	assert.Equal(t, ingest.FailedDescription, res.Media.Description)
}

func TestAllowed(t *testing.T) {
	assert.True(t, Allowed("image/webp"))
	assert.True(t, Allowed("Video/QuickTime"))
	assert.True(t, Allowed("application/pdf; name=x.pdf"))
	assert.False(t, Allowed("text/plain"))
	assert.False(t, Allowed(""))
}

func TestGetIsOwnerScoped(t *testing.T) {
	f := newFixture(t, nil)
	m := f.upload(t, "u1", "cat.png", "image/png").Media

	got, err := f.svc.Get(context.Background(), "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, got.ID)

	_, err = f.svc.Get(context.Background(), "u2", m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestUpdate(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	m := f.upload(t, "u1", "cat.png", "image/png").Media

	name := "  kitty.png "
	desc := " A sleepy cat. "
	tags := []string{" Cat ", "", "Cat ", "sofa"}
	got, err := f.svc.Update(ctx, "u1", m.ID, storage.MetadataUpdate{
		OriginalName: &name,
		Description:  &desc,
		Tags:         &tags,
	})
	require.NoError(t, err)
	assert.Equal(t, "kitty.png", got.OriginalName)
	assert.Equal(t, "A sleepy cat.", got.Description)
	assert.Equal(t, []string{"Cat", "sofa"}, got.Tags)
	assert.Equal(t, m.Topics, got.Topics)

	empty := ""
	_, err = f.svc.Update(ctx, "u1", m.ID, storage.MetadataUpdate{OriginalName: &empty})
	assert.ErrorIs(t, err, types.ErrMissingFilename)

	_, err = f.svc.Update(ctx, "u2", m.ID, storage.MetadataUpdate{Description: &desc})
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestDelete(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	m := f.upload(t, "u1", "cat.png", "image/png").Media

	_, err := f.svc.Delete(ctx, "u2", m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)

	deleted, err := f.svc.Delete(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.Equal(t, m.ID, deleted.ID)

	_, err = os.Stat(m.FilePath)
	assert.True(t, os.IsNotExist(err))

	_, err = f.svc.Get(ctx, "u1", m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestSearch(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.upload(t, "u1", "sunset beach.jpg", "image/jpeg")
	f.upload(t, "u1", "mountain snow.jpg", "image/jpeg")
	f.upload(t, "u2", "sunset beach.jpg", "image/jpeg")

	resp, err := f.svc.Search(ctx, "u1", "sunset beach", 0)
	require.NoError(t, err)
	assert.Equal(t, searcher.ModeSemantic, resp.Mode)
	require.NotEmpty(t, resp.Results)
	assert.Equal(t, "sunset beach.jpg", resp.Results[0].OriginalName)
	for _, r := range resp.Results {
		assert.Equal(t, "u1", r.OwnerID)
	}

	resp, err = f.svc.Search(ctx, "u1", "sn", 0)
	require.NoError(t, err)
	assert.Equal(t, searcher.ModeKeyword, resp.Mode)
	require.Len(t, resp.Results, 1)
	assert.Equal(t, "mountain snow.jpg", resp.Results[0].OriginalName)

	_, err = f.svc.Search(ctx, "u1", "  ", 0)
	assert.ErrorIs(t, err, types.ErrEmptyQuery)
}

func TestMutationsInvalidateSearchCache(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.upload(t, "u1", "sunset beach.jpg", "image/jpeg")

	// warm the cache
	_, err := f.svc.Search(ctx, "u1", "lighthouse", 0)
	require.NoError(t, err)

	m := f.upload(t, "u1", "lighthouse.jpg", "image/jpeg").Media

	second, err := f.svc.Search(ctx, "u1", "lighthouse", 0)
	require.NoError(t, err)
	assert.False(t, second.CacheHit)
	require.NotEmpty(t, second.Results)
	assert.Equal(t, m.ID, second.Results[0].ID)

	third, err := f.svc.Search(ctx, "u1", "lighthouse", 0)
	require.NoError(t, err)
	assert.True(t, third.CacheHit)

	_, err = f.svc.Delete(ctx, "u1", m.ID)
	require.NoError(t, err)

	fourth, err := f.svc.Search(ctx, "u1", "lighthouse", 0)
	require.NoError(t, err)
	assert.False(t, fourth.CacheHit)
	for _, r := range fourth.Results {
		assert.NotEqual(t, m.ID, r.ID)
	}
}

func TestReanalyze(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	m := f.upload(t, "u1", "cat.png", "image/png").Media

	desc := "edited"
	_, err := f.svc.Update(ctx, "u1", m.ID, storage.MetadataUpdate{Description: &desc})
	require.NoError(t, err)

	res, err := f.svc.Reanalyze(ctx, "u1", m.ID)
	require.NoError(t, err)
	assert.True(t, res.Analyzed)
	assert.Equal(t, "An image named cat.", res.Media.Description)

	_, err = f.svc.Reanalyze(ctx, "u2", m.ID)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestStatusAndReprocess(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()
	f.upload(t, "u1", "a.png", "image/png")
	f.upload(t, "u1", "b.png", "image/png")

	// simulate an item stuck mid-analysis
	stuck := f.upload(t, "u1", "c.png", "image/png").Media
	require.NoError(t, f.store.SetStatus(ctx, stuck.ID, types.StatusAnalyzing, ""))

	status, err := f.svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, status.Total)
	assert.Equal(t, 2, status.ByStatus[types.StatusReady])
	assert.Equal(t, 1, status.ByStatus[types.StatusAnalyzing])
	assert.Equal(t, 2, status.Embedded)
	assert.Equal(t, map[int]int{64: 2}, status.Dimensions)

	stats, err := f.svc.Reprocess(ctx, types.StatusAnalyzing)
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Ready)

	status, err = f.svc.Status(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, status.ByStatus[types.StatusReady])

	_, err = f.svc.Status(ctx, "")
	assert.ErrorIs(t, err, types.ErrMissingOwner)
}
