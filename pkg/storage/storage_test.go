package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	internalConfig "github.com/ldm616/justus-sub000/internal/config"
	"github.com/ldm616/justus-sub000/pkg/derivative"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDailyKeys(t *testing.T) {
	family := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	user := uuid.MustParse("22222222-2222-2222-2222-222222222222")
	tiers := []derivative.Tier{derivative.TierOriginal, derivative.TierMobile, derivative.TierSquare}

	keys := DailyKeys(tiers, family, user, "2025-06-01", "tok")

	assert.Equal(t, map[derivative.Tier]string{
		derivative.TierOriginal: "original/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/2025-06-01/tok.jpg",
		derivative.TierMobile:   "mobile/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/2025-06-01/tok.jpg",
		derivative.TierSquare:   "square400/11111111-1111-1111-1111-111111111111/22222222-2222-2222-2222-222222222222/2025-06-01/tok.jpg",
	}, keys)
	assert.NotEqual(t, NewToken(), NewToken())
	assert.Equal(t, "avatars/22222222-2222-2222-2222-222222222222.jpg", AvatarKey(user))
}

func TestLocalStorage_PutAndDelete(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "http://cdn.local/")
	require.NoError(t, err)

	url, err := store.Put(ctx, "original/a/b.jpg", []byte("one"), PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, "http://cdn.local/original/a/b.jpg", url)

	_, err = store.Put(ctx, "original/a/b.jpg", []byte("two"), PutOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	_, err = store.Put(ctx, "original/a/b.jpg", []byte("three"), PutOptions{Upsert: true})
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(store.Dir(), "original", "a", "b.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "three", string(got))

	require.NoError(t, store.Delete(ctx, []string{"original/a/b.jpg", "never/existed.jpg"}))
	_, err = os.Stat(filepath.Join(store.Dir(), "original", "a", "b.jpg"))
	assert.True(t, os.IsNotExist(err))
}

func TestLocalStorage_RejectsTraversal(t *testing.T) {
	ctx := context.Background()
	store, err := NewLocalStorage(t.TempDir(), "http://cdn.local")
	require.NoError(t, err)

	_, err = store.Put(ctx, "../escape.jpg", []byte("x"), PutOptions{})
	assert.Error(t, err)

	err = store.Delete(ctx, []string{"../escape.jpg"})
	var partial *PartialDeleteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"../escape.jpg"}, partial.Keys())
}

// fakeS3 answers the handful of S3 calls R2Storage makes.
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	headers map[string]http.Header
	denied  map[string]bool
}

func newFakeS3() *fakeS3 {
	return &fakeS3{
		objects: map[string][]byte{},
		headers: map[string]http.Header{},
		denied:  map[string]bool{},
	}
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := strings.TrimPrefix(r.URL.Path, "/photos/")
	switch {
	case r.Method == http.MethodPut:
		if _, ok := f.objects[key]; ok && r.Header.Get("If-None-Match") == "*" {
			w.WriteHeader(http.StatusPreconditionFailed)
			io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>PreconditionFailed</Code><Message>At least one of the pre-conditions you specified did not hold</Message></Error>`)
			return
		}
		body, _ := io.ReadAll(r.Body)
		f.objects[key] = body
		f.headers[key] = r.Header.Clone()
		w.Header().Set("ETag", `"etag"`)
		w.WriteHeader(http.StatusOK)
	case r.Method == http.MethodPost && r.URL.Query().Has("delete"):
		body, _ := io.ReadAll(r.Body)
		var errs strings.Builder
		for k := range f.objects {
			if !strings.Contains(string(body), "<Key>"+k+"</Key>") {
				continue
			}
			if f.denied[k] {
				errs.WriteString("<Error><Key>" + k + "</Key><Code>AccessDenied</Code><Message>denied</Message></Error>")
				continue
			}
			delete(f.objects, k)
		}
		w.Header().Set("Content-Type", "application/xml")
		io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><DeleteResult xmlns="http://s3.amazonaws.com/doc/2006-03-01/">`+errs.String()+`</DeleteResult>`)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newTestR2(t *testing.T) (*R2Storage, *fakeS3) {
	t.Helper()
	t.Setenv("AWS_EC2_METADATA_DISABLED", "true")

	fake := newFakeS3()
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	store, err := NewR2Storage(context.Background(), internalConfig.R2Config{
		AccessKeyID:     "key",
		SecretAccessKey: "secret",
		Bucket:          "photos",
		PublicURL:       "https://img.example.com",
		Endpoint:        srv.URL,
	})
	require.NoError(t, err)
	return store, fake
}

func TestR2Storage_Put(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestR2(t)

	url, err := store.Put(ctx, "mobile/f/u/2025-06-01/t.jpg", []byte("jpeg"), PutOptions{})
	require.NoError(t, err)
	assert.Equal(t, "https://img.example.com/mobile/f/u/2025-06-01/t.jpg", url)
	assert.Equal(t, []byte("jpeg"), fake.objects["mobile/f/u/2025-06-01/t.jpg"])
	assert.Equal(t, "image/jpeg", fake.headers["mobile/f/u/2025-06-01/t.jpg"].Get("Content-Type"))

	_, err = store.Put(ctx, "mobile/f/u/2025-06-01/t.jpg", []byte("again"), PutOptions{})
	assert.ErrorIs(t, err, ErrObjectExists)

	_, err = store.Put(ctx, "avatars/u.jpg", []byte("v1"), PutOptions{Upsert: true})
	require.NoError(t, err)
	_, err = store.Put(ctx, "avatars/u.jpg", []byte("v2"), PutOptions{Upsert: true})
	require.NoError(t, err)
	assert.Equal(t, []byte("v2"), fake.objects["avatars/u.jpg"])
	assert.Empty(t, fake.headers["avatars/u.jpg"].Get("If-None-Match"))
}

func TestR2Storage_Delete(t *testing.T) {
	ctx := context.Background()
	store, fake := newTestR2(t)

	for _, k := range []string{"a.jpg", "b.jpg", "c.jpg"} {
		_, err := store.Put(ctx, k, []byte(k), PutOptions{})
		require.NoError(t, err)
	}
	fake.denied["b.jpg"] = true

	err := store.Delete(ctx, []string{"a.jpg", "b.jpg", "c.jpg"})
	var partial *PartialDeleteError
	require.ErrorAs(t, err, &partial)
	assert.Equal(t, []string{"b.jpg"}, partial.Keys())
	assert.Contains(t, partial.Error(), "AccessDenied")

	_, stillThere := fake.objects["b.jpg"]
	assert.True(t, stillThere)
	_, gone := fake.objects["a.jpg"]
	assert.False(t, gone)
}
