package textbulker

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/textbulker/textbulker/plugin"
)

func setupTestStore(t *testing.T) (*Store, func()) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "data", "test.db")

	s, err := NewStore(path)
	if err != nil {
		t.Fatalf("failed to create store: %v", err)
	}

	cleanup := func() {
		s.Close()
	}

	return s, cleanup
}

func TestNewStore(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	if s == nil {
		t.Fatal("store should not be nil")
	}
	if s.db == nil {
		t.Fatal("db should not be nil")
	}
}

func TestOptions(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if _, ok, err := s.GetOption(ctx, "missing"); err != nil || ok {
		t.Fatalf("GetOption(missing) = ok %v, err %v; want not found", ok, err)
	}
	if err := s.SetOption(ctx, "k", "v1"); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	if err := s.SetOption(ctx, "k", "v2"); err != nil {
		t.Fatalf("SetOption overwrite failed: %v", err)
	}
	got, ok, err := s.GetOption(ctx, "k")
	if err != nil || !ok {
		t.Fatalf("GetOption failed: ok %v, err %v", ok, err)
	}
	if got != "v2" {
		t.Errorf("GetOption = %q, want %q", got, "v2")
	}
}

func TestSettingsStoreRoundTrip(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()
	ss := s.SettingsStore(nil)

	got, err := ss.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("Load on empty store = %v, want empty non-nil settings", got)
	}

	// A partial record must keep its missing key missing.
	if err := ss.Save(ctx, plugin.Settings{plugin.KeyExposeYoast: 0}); err != nil {
		t.Fatalf("Save failed: %v", err)
	}
	got, err = ss.Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if v, ok := got[plugin.KeyExposeYoast]; !ok || v != 0 {
		t.Errorf("expose_yoast = %d (present %v), want stored 0", v, ok)
	}
	if _, ok := got[plugin.KeyExposeRankMath]; ok {
		t.Errorf("expose_rankmath should be absent")
	}

	raw, _, _ := s.GetOption(ctx, plugin.OptionName)
	if raw != `{"expose_yoast":0}` {
		t.Errorf("stored option = %s", raw)
	}
}

func TestSettingsStoreMalformedIsEmpty(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.SetOption(ctx, plugin.OptionName, "not json"); err != nil {
		t.Fatalf("SetOption failed: %v", err)
	}
	got, err := s.SettingsStore(nil).Load(ctx)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("Load = %v, want empty settings", got)
	}
}

func TestSaveAndGetPost(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	post := Post{
		Slug:      "test-post",
		Title:     "Test Post",
		Date:      "2024-01-15",
		Content:   "# Test Content",
		Published: true,
		Meta:      map[string]string{"rank_math_title": "SEO title"},
	}
	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}

	got, err := s.GetPost(ctx, "test-post")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != post.Title || got.Date != post.Date || got.Content != post.Content || !got.Published {
		t.Errorf("GetPost = %+v, want %+v", got, post)
	}
	if got.Meta["rank_math_title"] != "SEO title" {
		t.Errorf("Meta = %v", got.Meta)
	}

	// Updating without meta keeps existing meta.
	post.Title = "Updated"
	post.Meta = nil
	if err := s.SavePost(ctx, post); err != nil {
		t.Fatalf("SavePost update failed: %v", err)
	}
	got, err = s.GetPost(ctx, "test-post")
	if err != nil {
		t.Fatalf("GetPost failed: %v", err)
	}
	if got.Title != "Updated" {
		t.Errorf("Title = %q, want %q", got.Title, "Updated")
	}
	if got.Meta["rank_math_title"] != "SEO title" {
		t.Errorf("meta lost on update: %v", got.Meta)
	}
}

func TestGetPostNotFound(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()

	_, err := s.GetPost(context.Background(), "nonexistent")
	if err != ErrNotFound {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestListPosts(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	posts := []Post{
		{Slug: "post-1", Title: "Post 1", Date: "2024-01-01", Content: "c1", Published: true},
		{Slug: "post-2", Title: "Post 2", Date: "2024-01-02", Content: "c2", Published: true},
		{Slug: "post-3", Title: "Post 3", Date: "2024-01-03", Content: "c3", Published: false},
	}
	for _, p := range posts {
		if err := s.SavePost(ctx, p); err != nil {
			t.Fatalf("SavePost failed: %v", err)
		}
	}

	got, err := s.ListPosts(ctx, false)
	if err != nil {
		t.Fatalf("ListPosts failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("ListPosts count = %d, want 2 (excluding drafts)", len(got))
	}
	if got[0].Slug != "post-2" {
		t.Errorf("first post = %q, want post-2 (newest first)", got[0].Slug)
	}

	all, err := s.ListPosts(ctx, true)
	if err != nil {
		t.Fatalf("ListPosts(all) failed: %v", err)
	}
	if len(all) != 3 {
		t.Errorf("ListPosts(all) count = %d, want 3", len(all))
	}
}

func TestDeletePostRemovesMeta(t *testing.T) {
	s, cleanup := setupTestStore(t)
	defer cleanup()
	ctx := context.Background()

	if err := s.SavePost(ctx, Post{Slug: "gone", Title: "Gone", Date: "2024-01-01", Meta: map[string]string{"k": "v"}}); err != nil {
		t.Fatalf("SavePost failed: %v", err)
	}
	if err := s.DeletePost(ctx, "gone"); err != nil {
		t.Fatalf("DeletePost failed: %v", err)
	}
	meta, err := s.PostMeta(ctx, "gone")
	if err != nil {
		t.Fatalf("PostMeta failed: %v", err)
	}
	if len(meta) != 0 {
		t.Errorf("meta should be removed with post, got %v", meta)
	}
}
