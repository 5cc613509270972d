package textbulker

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	_ "modernc.org/sqlite"

	"github.com/textbulker/textbulker/plugin"
)

// ErrNotFound is returned when a requested post does not exist.
var ErrNotFound = errors.New("textbulker: not found")

// Option keys owned by the application.
const (
	optionActivatedVersion = "textbulker_activated_version"
)

// Store wraps a SQLite database holding options, posts and post meta.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// WAL lets the admin page read while a settings save is in flight; the
	// busy timeout makes writers wait instead of failing with SQLITE_BUSY.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db}
	if err := s.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) ensureSchema() error {
	_, err := s.db.Exec(`
CREATE TABLE IF NOT EXISTS options (
    key TEXT PRIMARY KEY,
    value TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    slug TEXT PRIMARY KEY,
    title TEXT NOT NULL,
    date TEXT NOT NULL,
    content TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS post_meta (
    slug TEXT NOT NULL,
    key TEXT NOT NULL,
    value TEXT NOT NULL,
    PRIMARY KEY (slug, key)
);
`)
	return err
}

// GetOption returns the value stored under key and whether it exists.
func (s *Store) GetOption(ctx context.Context, key string) (string, bool, error) {
	var val string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM options WHERE key = ?`, key).Scan(&val)
	if err == sql.ErrNoRows {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

// SetOption upserts an option value.
func (s *Store) SetOption(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO options (key, value) VALUES (?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value`, key, value)
	return err
}

// ListPosts returns posts ordered by date descending. Drafts are included
// only when includeDrafts is set.
func (s *Store) ListPosts(ctx context.Context, includeDrafts bool) ([]Post, error) {
	query := `SELECT slug, title, date, content, published FROM posts WHERE published = 1 ORDER BY date DESC, slug`
	if includeDrafts {
		query = `SELECT slug, title, date, content, published FROM posts ORDER BY date DESC, slug`
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var posts []Post
	for rows.Next() {
		var p Post
		var published int
		if err := rows.Scan(&p.Slug, &p.Title, &p.Date, &p.Content, &published); err != nil {
			return nil, err
		}
		p.Published = published == 1
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

// GetPost returns a post by slug regardless of status, with its meta.
func (s *Store) GetPost(ctx context.Context, slug string) (Post, error) {
	p := Post{Slug: slug}
	var published int
	err := s.db.QueryRowContext(ctx, `SELECT title, date, content, published FROM posts WHERE slug = ?`, slug).
		Scan(&p.Title, &p.Date, &p.Content, &published)
	if err == sql.ErrNoRows {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	p.Published = published == 1
	p.Meta, err = s.PostMeta(ctx, slug)
	if err != nil {
		return Post{}, err
	}
	return p, nil
}

// SavePost upserts a post and replaces the meta keys present in p.Meta.
// Meta keys absent from p.Meta are left untouched.
func (s *Store) SavePost(ctx context.Context, p Post) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	published := 0
	if p.Published {
		published = 1
	}
	if _, err := tx.ExecContext(ctx, `INSERT INTO posts (slug, title, date, content, published) VALUES (?, ?, ?, ?, ?)
ON CONFLICT(slug) DO UPDATE SET title = excluded.title, date = excluded.date, content = excluded.content, published = excluded.published`,
		p.Slug, p.Title, p.Date, p.Content, published); err != nil {
		return err
	}
	for k, v := range p.Meta {
		if _, err := tx.ExecContext(ctx, `INSERT INTO post_meta (slug, key, value) VALUES (?, ?, ?)
ON CONFLICT(slug, key) DO UPDATE SET value = excluded.value`, p.Slug, k, v); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// PostMeta returns every meta value stored for slug.
func (s *Store) PostMeta(ctx context.Context, slug string) (map[string]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT key, value FROM post_meta WHERE slug = ?`, slug)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, err
		}
		out[k] = v
	}
	return out, rows.Err()
}

// DeletePost removes a post and its meta.
func (s *Store) DeletePost(ctx context.Context, slug string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_meta WHERE slug = ?`, slug); err != nil {
		return err
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE slug = ?`, slug); err != nil {
		return err
	}
	return tx.Commit()
}

// settingsOption stores plugin settings as a JSON object in a single option row.
type settingsOption struct {
	store  *Store
	logger *zap.Logger
}

// SettingsStore returns the plugin settings record backed by the options table.
func (s *Store) SettingsStore(logger *zap.Logger) plugin.SettingsStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &settingsOption{store: s, logger: logger}
}

func (o *settingsOption) Load(ctx context.Context) (plugin.Settings, error) {
	raw, ok, err := o.store.GetOption(ctx, plugin.OptionName)
	if err != nil {
		return nil, err
	}
	settings := plugin.Settings{}
	if !ok {
		return settings, nil
	}
	if err := json.Unmarshal([]byte(raw), &settings); err != nil {
		o.logger.Warn("ignoring malformed settings option", zap.String("option", plugin.OptionName), zap.Error(err))
		return plugin.Settings{}, nil
	}
	return settings, nil
}

func (o *settingsOption) Save(ctx context.Context, s plugin.Settings) error {
	b, err := json.Marshal(s)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	return o.store.SetOption(ctx, plugin.OptionName, string(b))
}
