package session

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/redis/go-redis/v9"

	"github.com/goutamreddy/fractal/pkg/affine"
	"github.com/goutamreddy/fractal/pkg/cache"
	"github.com/goutamreddy/fractal/pkg/errors"
	"github.com/goutamreddy/fractal/pkg/planner"
)

func testSpec() planner.Spec {
	spec := planner.DefaultSpec()
	spec.NumCopies = 4
	spec.Seed = 7
	spec.Translation.Enabled = true
	spec.Translation.Base = affine.Translation(1, 0, 0)
	spec.Translation.Randomization = affine.Vec3{X: 10}
	spec.ExternalRotation = planner.RotationStage{
		Enabled: true,
		Mode:    planner.ModeCompound,
		Base:    affine.Rotation(0.5, affine.Vec3{Z: 1}, affine.Vec3{}),
	}
	return spec
}

func TestNew(t *testing.T) {
	a := New("spiral", testSpec())
	b := New("spiral", testSpec())
	if a.ID == b.ID {
		t.Error("sessions share an ID")
	}
	if err := errors.ValidateSessionID(a.ID); err != nil {
		t.Errorf("generated ID %q is not valid: %v", a.ID, err)
	}
	if !a.CreatedAt.Equal(a.UpdatedAt) {
		t.Error("new session should have CreatedAt == UpdatedAt")
	}
}

func TestSession_ResetStage(t *testing.T) {
	sess := New("", testSpec())
	before := sess.UpdatedAt
	time.Sleep(time.Millisecond)

	if err := sess.ResetStage(planner.StageTranslation); err != nil {
		t.Fatal(err)
	}
	if !sess.Spec.Translation.Base.IsIdentity() || sess.Spec.Translation.Randomization != (affine.Vec3{}) {
		t.Errorf("translation not reset: %+v", sess.Spec.Translation)
	}
	if !sess.Spec.Translation.Enabled {
		t.Error("reset should not disable the stage")
	}
	if sess.Spec.ExternalRotation.Base.IsIdentity() {
		t.Error("reset touched another stage")
	}
	if !sess.UpdatedAt.After(before) {
		t.Error("UpdatedAt not advanced")
	}

	if err := sess.ResetStage("shear"); !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("unknown stage err = %v", err)
	}
}

func TestFileStore(t *testing.T) {
	ctx := context.Background()
	store, err := NewFileStore(filepath.Join(t.TempDir(), "sessions"))
	if err != nil {
		t.Fatal(err)
	}
	defer store.Close()

	sess := New("spiral", testSpec())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sess, got); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}

	info, err := os.Stat(filepath.Join(store.Path(), sess.ID+".json"))
	if err != nil {
		t.Fatal(err)
	}
	if perm := info.Mode().Perm(); perm != 0600 {
		t.Errorf("session file mode = %v, want 0600", perm)
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete err = %v, want SESSION_NOT_FOUND", err)
	}
	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Errorf("deleting a missing session: %v", err)
	}
}

func TestFileStore_List(t *testing.T) {
	ctx := context.Background()
	store, _ := NewFileStore(t.TempDir())

	old := New("old", testSpec())
	old.UpdatedAt = old.UpdatedAt.Add(-time.Hour)
	recent := New("recent", testSpec())
	for _, s := range []*Session{old, recent} {
		if err := store.Set(ctx, s); err != nil {
			t.Fatal(err)
		}
	}
	// Stray files are ignored.
	_ = os.WriteFile(filepath.Join(store.Path(), "notes.txt"), []byte("x"), 0600)
	_ = os.WriteFile(filepath.Join(store.Path(), "broken.json"), []byte("{"), 0600)

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].Name != "recent" || list[1].Name != "old" {
		names := make([]string, len(list))
		for i, s := range list {
			names[i] = s.Name
		}
		t.Errorf("List = %v, want [recent old]", names)
	}
}

func TestFileStore_RejectsUnsafeIDs(t *testing.T) {
	ctx := context.Background()
	store, _ := NewFileStore(t.TempDir())

	for _, id := range []string{"", "../escape", "a/b", "with space"} {
		if _, err := store.Get(ctx, id); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Get(%q) err = %v, want INVALID_INPUT", id, err)
		}
		if err := store.Set(ctx, &Session{ID: id}); !errors.Is(err, errors.ErrCodeInvalidInput) {
			t.Errorf("Set(%q) err = %v, want INVALID_INPUT", id, err)
		}
	}
}

// TestRedisStore runs against a live server when FRACTAL_TEST_REDIS is set.
func TestRedisStore(t *testing.T) {
	addr := os.Getenv("FRACTAL_TEST_REDIS")
	if addr == "" {
		t.Skip("FRACTAL_TEST_REDIS not set")
	}
	ctx := context.Background()
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), "fractal-test:")
	defer store.Close()

	sess := New("redis", testSpec())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	defer store.Delete(ctx, sess.ID)

	got, err := store.Get(ctx, sess.ID)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sess, got); diff != "" {
		t.Errorf("stored session mismatch (-want +got):\n%s", diff)
	}

	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range list {
		found = found || s.ID == sess.ID
	}
	if !found {
		t.Error("List does not include the stored session")
	}

	if err := store.Delete(ctx, sess.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Get(ctx, sess.ID); !errors.Is(err, errors.ErrCodeSessionNotFound) {
		t.Errorf("Get after Delete err = %v", err)
	}
}

func TestRedisStore_KeysOutsideCacheNamespace(t *testing.T) {
	store := NewRedisStore(nil, "")
	for _, k := range []string{store.key("3f2c"), store.index()} {
		if strings.HasPrefix(k, cache.DefaultRedisPrefix) {
			t.Errorf("session key %q is inside the cache namespace %q", k, cache.DefaultRedisPrefix)
		}
	}
}

func TestRedisStore_SurvivesCacheClear(t *testing.T) {
	addr := os.Getenv("FRACTAL_TEST_REDIS")
	if addr == "" {
		t.Skip("FRACTAL_TEST_REDIS not set")
	}
	ctx := context.Background()
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: addr}), "")
	defer store.Close()

	sess := New("kept", testSpec())
	if err := store.Set(ctx, sess); err != nil {
		t.Fatal(err)
	}
	defer store.Delete(ctx, sess.ID)

	c, err := cache.NewRedisCache(ctx, cache.RedisConfig{Addr: addr})
	if err != nil {
		t.Fatal(err)
	}
	defer c.Close()
	if err := c.Clear(ctx); err != nil {
		t.Fatal(err)
	}

	if _, err := store.Get(ctx, sess.ID); err != nil {
		t.Errorf("Get after cache clear: %v", err)
	}
	list, err := store.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	found := false
	for _, s := range list {
		found = found || s.ID == sess.ID
	}
	if !found {
		t.Error("cache clear removed the session index entry")
	}
}
