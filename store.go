package golpo

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a requested story does not exist.
var ErrNotFound = errors.New("golpo: story not found")

// Store wraps a SQLite database holding the story catalog.
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
	// WAL lets the preview server read while an import writes.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA busy_timeout=5000;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
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
CREATE TABLE IF NOT EXISTS stories (
    id TEXT PRIMARY KEY,
    slug TEXT NOT NULL DEFAULT '',
    title TEXT NOT NULL DEFAULT '',
    author TEXT NOT NULL DEFAULT '',
    category TEXT NOT NULL DEFAULT '',
    tags TEXT NOT NULL DEFAULT ',',
    status TEXT NOT NULL DEFAULT '',
    date TEXT NOT NULL DEFAULT '',
    updated_at TEXT NOT NULL DEFAULT '',
    cover_image TEXT NOT NULL DEFAULT '',
    content TEXT NOT NULL DEFAULT '',
    excerpt TEXT NOT NULL DEFAULT '',
    parts TEXT NOT NULL DEFAULT '[]'
);
CREATE INDEX IF NOT EXISTS stories_date ON stories (date DESC);
`)
	return err
}

const storyColumns = `id, slug, title, author, category, tags, status, date, updated_at, cover_image, content, excerpt, parts`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStory(r rowScanner) (Story, error) {
	var st Story
	var tags, parts string
	if err := r.Scan(&st.ID, &st.Slug, &st.Title, &st.Author, &st.Category, &tags,
		&st.Status, &st.Date, &st.UpdatedAt, &st.CoverImage, &st.Content, &st.Excerpt, &parts); err != nil {
		return Story{}, err
	}
	st.Tags = ParseTags(tags)
	if parts != "" && parts != "[]" {
		if err := json.Unmarshal([]byte(parts), &st.Parts); err != nil {
			return Story{}, fmt.Errorf("golpo: story %s parts: %w", st.ID, err)
		}
	}
	return st, nil
}

// ListStories returns every story, newest first. Drafts are included;
// callers filter with IsPublicStory.
func (s *Store) ListStories() ([]Story, error) {
	rows, err := s.db.Query(`SELECT ` + storyColumns + ` FROM stories ORDER BY date DESC, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stories []Story
	for rows.Next() {
		st, err := scanStory(rows)
		if err != nil {
			return nil, err
		}
		stories = append(stories, st)
	}
	return stories, rows.Err()
}

// ListTags returns a sorted, deduplicated slice of all tags from public stories.
func (s *Store) ListTags() ([]string, error) {
	rows, err := s.db.Query(`SELECT tags, status FROM stories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	set := make(map[string]struct{})
	for rows.Next() {
		var tags, status string
		if err := rows.Scan(&tags, &status); err != nil {
			return nil, err
		}
		if !IsPublicStory(Story{Status: status}) {
			continue
		}
		for _, t := range ParseTags(tags) {
			set[normalizeTag(t)] = struct{}{}
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	result := make([]string, 0, len(set))
	for t := range set {
		result = append(result, t)
	}
	sort.Strings(result)
	return result, nil
}

// GetStory returns a single story by id.
func (s *Store) GetStory(id string) (Story, error) {
	st, err := scanStory(s.db.QueryRow(`SELECT `+storyColumns+` FROM stories WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return Story{}, ErrNotFound
	}
	return st, err
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func saveStory(ex execer, st Story) error {
	if strings.TrimSpace(st.ID) == "" {
		return errors.New("golpo: story id is required")
	}
	normalizedTags := make([]string, 0, len(st.Tags))
	for _, t := range UniqueFold(st.Tags) {
		normalizedTags = append(normalizedTags, normalizeTag(t))
	}
	tagString := "," + strings.Join(normalizedTags, ",") + ","
	parts := []byte("[]")
	if len(st.Parts) > 0 {
		var err error
		if parts, err = json.Marshal(st.Parts); err != nil {
			return err
		}
	}
	_, err := ex.Exec(`INSERT OR REPLACE INTO stories (`+storyColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		st.ID, st.Slug, st.Title, st.Author, st.Category, tagString, st.Status,
		st.Date, st.UpdatedAt, st.CoverImage, st.Content, st.Excerpt, string(parts))
	return err
}

// SaveStory upserts a story by id. Tags are normalized to lowercase.
func (s *Store) SaveStory(st Story) error {
	return saveStory(s.db, st)
}

// SaveStories upserts stories in one transaction and returns how many were
// written. Rows without an id are skipped.
func (s *Store) SaveStories(stories []Story) (int, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return 0, err
	}
	n := 0
	for _, st := range stories {
		if strings.TrimSpace(st.ID) == "" {
			continue
		}
		if err := saveStory(tx, st); err != nil {
			tx.Rollback()
			return 0, fmt.Errorf("golpo: save story %s: %w", st.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return n, nil
}

// DeleteStory removes a story by id.
func (s *Store) DeleteStory(id string) error {
	_, err := s.db.Exec(`DELETE FROM stories WHERE id = ?`, id)
	return err
}
