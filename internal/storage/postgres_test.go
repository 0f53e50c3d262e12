package storage

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shivankMERNPro/MediaSense-AI/pkg/types"
)

// setupPostgres connects to MEDIASENSE_TEST_POSTGRES_URL or skips
func setupPostgres(t *testing.T) *PostgresStorage {
	t.Helper()
	url := os.Getenv("MEDIASENSE_TEST_POSTGRES_URL")
	if url == "" {
		t.Skip("MEDIASENSE_TEST_POSTGRES_URL not set")
	}

	s, err := NewPostgresStorage(context.Background(), url)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPgArgs(t *testing.T) {
	var args pgArgs
	assert.Equal(t, "$1", args.add("a"))
	assert.Equal(t, "$2", args.add(2))
	assert.Len(t, args, 2)

	where := pgListWhere("u1", ListFilter{FileType: types.FileTypeImage, Tags: []string{"x"}, Query: " Sun "}, &args)
	assert.Contains(t, where, "owner_id = $3")
	assert.Contains(t, where, "file_type = $4")
	assert.Contains(t, where, "tags && $5::text[]")
	assert.Contains(t, where, "strpos(lower(original_name), $6)")
	assert.Equal(t, "sun", args[5])
}

func TestPostgresStorage(t *testing.T) {
	s := setupPostgres(t)
	ctx := context.Background()

	// Unique owners keep runs against a shared database independent
	owner := "pg-test-" + uuid.NewString()
	other := "pg-test-" + uuid.NewString()

	a := newMedia(owner, "sunset.jpg", withDesc("Sunset at the beach"), withTags("beach"), withTopics("travel"), withEmbedding(1, 0))
	b := newMedia(owner, "dog.png", withTags("Dogs"), withAge(time.Hour), withEmbedding(1, 2, 3))
	c := newMedia(owner, "draft.jpg", withDesc("beach"), withStatus(types.StatusAnalyzing), withAge(2*time.Hour))
	d := newMedia(other, "theirs.jpg", withDesc("beach"))
	for _, m := range []*types.Media{a, b, c, d} {
		mustCreate(t, s, m)
	}

	got, err := s.GetMedia(ctx, owner, a.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"beach"}, got.Tags)
	assert.Equal(t, []float64{1, 0}, got.Embedding)
	assert.True(t, got.CreatedAt.Equal(baseTime))

	_, err = s.GetMedia(ctx, other, a.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	res, err := s.ListMedia(ctx, owner, ListFilter{Query: "BEACH"})
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset.jpg", "draft.jpg"}, ids(res.Items))
	assert.Equal(t, 2, res.Total)

	ready, err := s.ListReady(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, []string{"sunset.jpg", "dog.png"}, ids(ready))

	hits, err := s.KeywordSearch(ctx, owner, "dog", 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"dog.png"}, ids(hits))

	desc := "updated"
	updated, err := s.UpdateMetadata(ctx, owner, a.ID, MetadataUpdate{Description: &desc})
	require.NoError(t, err)
	assert.Equal(t, "updated", updated.Description)

	require.NoError(t, s.SaveAnalysis(ctx, c.ID, Analysis{
		Description: "done",
		Tags:        []string{"t"},
		Topics:      []string{"p"},
		Status:      types.StatusReady,
	}))

	st, err := s.GetStatus(ctx, owner)
	require.NoError(t, err)
	assert.Equal(t, 3, st.Total)
	assert.Equal(t, 3, st.ByStatus[types.StatusReady])
	assert.Equal(t, map[int]int{2: 1, 3: 1}, st.Dimensions)

	for _, m := range []*types.Media{a, b, c} {
		_, err := s.DeleteMedia(ctx, owner, m.ID)
		require.NoError(t, err)
	}
	_, err = s.DeleteMedia(ctx, other, d.ID)
	require.NoError(t, err)
}
