package inkpost

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
	_ "modernc.org/sqlite"

	"github.com/eringen/inkpost/query"
)

// timeLayout is fixed-width so that text ordering equals time ordering.
const timeLayout = "2006-01-02 15:04:05.000000000"

// Store wraps a SQLite database holding users, posts and tags.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewStore opens (or creates) the SQLite database at path, ensures the data
// directory exists, and runs schema migrations.
func NewStore(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sqlx.Open("sqlite", path+"?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, err
	}
	// WAL lets readers proceed while a writer holds the lock; synchronous
	// NORMAL is safe with WAL and avoids an fsync per transaction.
	if _, err := db.Exec(`
		PRAGMA journal_mode=WAL;
		PRAGMA synchronous=NORMAL;
		PRAGMA cache_size=-8000;
	`); err != nil {
		db.Close()
		return nil, err
	}
	db.SetMaxOpenConns(4)
	db.SetMaxIdleConns(4)
	s := &Store{db: db, now: time.Now}
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
CREATE TABLE IF NOT EXISTS users (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    username TEXT NOT NULL UNIQUE,
    password_hash TEXT NOT NULL,
    created_at TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS posts (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    owner_id INTEGER NOT NULL REFERENCES users(id) ON DELETE CASCADE,
    title TEXT NOT NULL,
    body TEXT NOT NULL,
    published INTEGER NOT NULL DEFAULT 1,
    created_at TEXT NOT NULL,
    updated_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS posts_created_idx ON posts (created_at, id);
CREATE TABLE IF NOT EXISTS tags (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE COLLATE NOCASE,
    slug TEXT NOT NULL UNIQUE
);
CREATE TABLE IF NOT EXISTS post_tags (
    post_id INTEGER NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
    tag_id INTEGER NOT NULL REFERENCES tags(id) ON DELETE CASCADE,
    PRIMARY KEY (post_id, tag_id)
);
`)
	return err
}

func (s *Store) stamp() string {
	return s.now().UTC().Format(timeLayout)
}

func parseStamp(v string) time.Time {
	t, err := time.Parse(timeLayout, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// CreateUser adds a user with a bcrypt-hashed password.
func (s *Store) CreateUser(ctx context.Context, username, password string) (User, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return User{}, fmt.Errorf("inkpost: username and password are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, err
	}
	created := s.stamp()
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, created_at) VALUES (?, ?, ?)`,
		username, string(hash), created)
	if err != nil {
		if isUniqueViolation(err) {
			return User{}, fmt.Errorf("%w: %q", ErrDuplicateUser, username)
		}
		return User{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return User{}, err
	}
	return User{ID: id, Username: username, CreatedAt: parseStamp(created)}, nil
}

type userRow struct {
	ID           int64  `db:"id"`
	Username     string `db:"username"`
	PasswordHash string `db:"password_hash"`
	CreatedAt    string `db:"created_at"`
}

func (r userRow) user() User {
	return User{ID: r.ID, Username: r.Username, CreatedAt: parseStamp(r.CreatedAt)}
}

// Authenticate returns the user whose password matches.
func (s *Store) Authenticate(ctx context.Context, username, password string) (User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, username, password_hash, created_at FROM users WHERE username = ?`,
		strings.TrimSpace(username))
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrInvalidCredentials
	}
	if err != nil {
		return User{}, err
	}
	if bcrypt.CompareHashAndPassword([]byte(row.PasswordHash), []byte(password)) != nil {
		return User{}, ErrInvalidCredentials
	}
	return row.user(), nil
}

// UserByID returns a user by id.
func (s *Store) UserByID(ctx context.Context, id int64) (User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row,
		`SELECT id, username, password_hash, created_at FROM users WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return User{}, ErrNotFound
	}
	if err != nil {
		return User{}, err
	}
	return row.user(), nil
}

type postRow struct {
	ID        int64  `db:"id"`
	OwnerID   int64  `db:"owner_id"`
	Owner     string `db:"owner"`
	Title     string `db:"title"`
	Body      string `db:"body"`
	Published bool   `db:"published"`
	CreatedAt string `db:"created_at"`
	UpdatedAt string `db:"updated_at"`
}

func (r postRow) post() Post {
	return Post{
		ID:        r.ID,
		OwnerID:   r.OwnerID,
		Owner:     r.Owner,
		Title:     r.Title,
		Body:      r.Body,
		Published: r.Published,
		CreatedAt: parseStamp(r.CreatedAt),
		UpdatedAt: parseStamp(r.UpdatedAt),
	}
}

func selectPosts(columns ...string) sq.SelectBuilder {
	return sq.Select(columns...).
		From("posts p").
		Join("users u ON u.id = p.owner_id")
}

var postColumns = []string{
	"p.id", "p.owner_id", "u.username AS owner", "p.title", "p.body",
	"p.published", "p.created_at", "p.updated_at",
}

// filterPosts adds the visibility, search and tag conditions of q, in the
// same order the query package applies them.
func filterPosts(b sq.SelectBuilder, q query.Query) sq.SelectBuilder {
	if q.Viewer.Authenticated {
		b = b.Where(sq.Or{sq.Eq{"p.published": true}, sq.Eq{"p.owner_id": q.Viewer.ID}})
	} else {
		b = b.Where(sq.Eq{"p.published": true})
	}
	if term := q.Term(); term != "" {
		b = b.Where(sq.Or{
			sq.Expr("instr(lower(p.title), lower(?)) > 0", term),
			sq.Expr("instr(lower(p.body), lower(?)) > 0", term),
		})
	}
	if q.TagSlug != "" {
		b = b.Where(`EXISTS (SELECT 1 FROM post_tags pt JOIN tags t ON t.id = pt.tag_id
			WHERE pt.post_id = p.id AND t.slug = ?)`, q.TagSlug)
	}
	return b
}

func orderPosts(b sq.SelectBuilder, o query.Order) sq.SelectBuilder {
	if o == query.Oldest {
		return b.OrderBy("p.created_at ASC", "p.id ASC")
	}
	return b.OrderBy("p.created_at DESC", "p.id DESC")
}

// ListPosts returns the posts q selects, ordered by q.Order. A limit of
// zero or less returns every match.
func (s *Store) ListPosts(ctx context.Context, q query.Query, limit, offset int) ([]Post, error) {
	b := orderPosts(filterPosts(selectPosts(postColumns...), q), q.Order)
	if limit > 0 {
		b = b.Limit(uint64(limit)).Offset(uint64(max(offset, 0)))
	}
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return nil, err
	}
	var rows []postRow
	if err := s.db.SelectContext(ctx, &rows, sqlStr, args...); err != nil {
		return nil, err
	}
	posts := make([]Post, len(rows))
	for i, r := range rows {
		posts[i] = r.post()
	}
	if err := s.attachTags(ctx, posts); err != nil {
		return nil, err
	}
	return posts, nil
}

// CountPosts returns how many posts q selects.
func (s *Store) CountPosts(ctx context.Context, q query.Query) (int, error) {
	sqlStr, args, err := filterPosts(selectPosts("COUNT(*)"), q).ToSql()
	if err != nil {
		return 0, err
	}
	var n int
	if err := s.db.GetContext(ctx, &n, sqlStr, args...); err != nil {
		return 0, err
	}
	return n, nil
}

// GetPost returns a post by id if v may see it. Invisible posts are
// reported as ErrNotFound so drafts cannot be probed by id.
func (s *Store) GetPost(ctx context.Context, id int64, v query.Viewer) (Post, error) {
	b := filterPosts(selectPosts(postColumns...), query.Query{Viewer: v}).Where(sq.Eq{"p.id": id})
	sqlStr, args, err := b.ToSql()
	if err != nil {
		return Post{}, err
	}
	var row postRow
	err = s.db.GetContext(ctx, &row, sqlStr, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return Post{}, ErrNotFound
	}
	if err != nil {
		return Post{}, err
	}
	posts := []Post{row.post()}
	if err := s.attachTags(ctx, posts); err != nil {
		return Post{}, err
	}
	return posts[0], nil
}

// OwnedPost returns a post by id, failing with ErrForbidden unless ownerID
// owns it.
func (s *Store) OwnedPost(ctx context.Context, id, ownerID int64) (Post, error) {
	p, err := s.GetPost(ctx, id, query.User(ownerID))
	if err != nil {
		return Post{}, err
	}
	if p.OwnerID != ownerID {
		return Post{}, ErrForbidden
	}
	return p, nil
}

func (s *Store) attachTags(ctx context.Context, posts []Post) error {
	if len(posts) == 0 {
		return nil
	}
	ids := make([]int64, len(posts))
	index := make(map[int64]int, len(posts))
	for i, p := range posts {
		ids[i] = p.ID
		index[p.ID] = i
	}
	sqlStr, args, err := sq.Select("pt.post_id", "t.id", "t.name", "t.slug").
		From("post_tags pt").
		Join("tags t ON t.id = pt.tag_id").
		Where(sq.Eq{"pt.post_id": ids}).
		OrderBy("t.name", "t.id").
		ToSql()
	if err != nil {
		return err
	}
	rows, err := s.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var postID int64
		var t Tag
		if err := rows.Scan(&postID, &t.ID, &t.Name, &t.Slug); err != nil {
			return err
		}
		i := index[postID]
		posts[i].Tags = append(posts[i].Tags, t)
	}
	return rows.Err()
}

// CreatePost validates in and stores it as a new post owned by ownerID.
func (s *Store) CreatePost(ctx context.Context, ownerID int64, in PostInput) (Post, error) {
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Post{}, err
	}
	defer tx.Rollback()

	now := s.stamp()
	res, err := tx.ExecContext(ctx,
		`INSERT INTO posts (owner_id, title, body, published, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		ownerID, strings.TrimSpace(in.Title), in.Body, in.Published, now, now)
	if err != nil {
		return Post{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Post{}, err
	}
	if err := setPostTags(ctx, tx, id, in.Tags); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	return s.GetPost(ctx, id, query.User(ownerID))
}

// UpdatePost replaces the title, body, publish flag and tags of post id.
// The owner and creation time never change.
func (s *Store) UpdatePost(ctx context.Context, id int64, in PostInput) (Post, error) {
	if err := in.Validate(); err != nil {
		return Post{}, err
	}
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return Post{}, err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`UPDATE posts SET title = ?, body = ?, published = ?, updated_at = ? WHERE id = ?`,
		strings.TrimSpace(in.Title), in.Body, in.Published, s.stamp(), id)
	if err != nil {
		return Post{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Post{}, err
	} else if n == 0 {
		return Post{}, ErrNotFound
	}
	if err := setPostTags(ctx, tx, id, in.Tags); err != nil {
		return Post{}, err
	}
	if err := tx.Commit(); err != nil {
		return Post{}, err
	}
	var ownerID int64
	if err := s.db.GetContext(ctx, &ownerID, `SELECT owner_id FROM posts WHERE id = ?`, id); err != nil {
		return Post{}, err
	}
	return s.GetPost(ctx, id, query.User(ownerID))
}

// DeletePost removes a post and its tag links.
func (s *Store) DeletePost(ctx context.Context, id int64) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrNotFound
	}
	return tx.Commit()
}

// setPostTags replaces the tags of a post, creating missing tags by name.
func setPostTags(ctx context.Context, tx *sqlx.Tx, postID int64, names []string) error {
	if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, postID); err != nil {
		return err
	}
	seen := make(map[int64]struct{})
	for _, name := range names {
		tag, err := ensureTag(ctx, tx, name)
		if err != nil {
			return err
		}
		if _, ok := seen[tag.ID]; ok {
			continue
		}
		seen[tag.ID] = struct{}{}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO post_tags (post_id, tag_id) VALUES (?, ?)`, postID, tag.ID); err != nil {
			return err
		}
	}
	return nil
}

// ensureTag returns the tag called name (compared case-insensitively),
// creating it when absent.
func ensureTag(ctx context.Context, tx *sqlx.Tx, name string) (Tag, error) {
	name = strings.TrimSpace(name)
	var t Tag
	err := tx.QueryRowxContext(ctx, `SELECT id, name, slug FROM tags WHERE name = ?`, name).
		Scan(&t.ID, &t.Name, &t.Slug)
	if err == nil {
		return t, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return Tag{}, err
	}
	slug := TagSlug(name)
	var taken int
	if err := tx.GetContext(ctx, &taken, `SELECT COUNT(*) FROM tags WHERE slug = ?`, slug); err != nil {
		return Tag{}, err
	}
	if taken > 0 {
		// "C" and "C++" both slugify to "c".
		slug = uniqueSlug(slug, name)
	}
	return insertTag(ctx, tx, name, slug)
}

type execer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
}

func insertTag(ctx context.Context, db execer, name, slug string) (Tag, error) {
	res, err := db.ExecContext(ctx, `INSERT INTO tags (name, slug) VALUES (?, ?)`, name, slug)
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, fmt.Errorf("%w: %q (slug %q)", ErrDuplicateTag, name, slug)
		}
		return Tag{}, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return Tag{}, err
	}
	return Tag{ID: id, Name: name, Slug: slug}, nil
}

// CreateTag adds a tag. Name uniqueness ignores case, so "Django" and
// "django" collide; slug uniqueness is checked independently.
func (s *Store) CreateTag(ctx context.Context, in TagInput) (Tag, error) {
	if err := in.Validate(); err != nil {
		return Tag{}, err
	}
	name := strings.TrimSpace(in.Name)
	slug := in.Slug
	if slug == "" {
		slug = TagSlug(name)
	}
	return insertTag(ctx, s.db, name, slug)
}

// RenameTag changes a tag's name. The slug is kept so existing links work.
func (s *Store) RenameTag(ctx context.Context, id int64, name string) (Tag, error) {
	if err := (TagInput{Name: name}).Validate(); err != nil {
		return Tag{}, err
	}
	name = strings.TrimSpace(name)
	res, err := s.db.ExecContext(ctx, `UPDATE tags SET name = ? WHERE id = ?`, name, id)
	if err != nil {
		if isUniqueViolation(err) {
			return Tag{}, fmt.Errorf("%w: %q", ErrDuplicateTag, name)
		}
		return Tag{}, err
	}
	if n, err := res.RowsAffected(); err != nil {
		return Tag{}, err
	} else if n == 0 {
		return Tag{}, ErrNotFound
	}
	var t Tag
	err = s.db.QueryRowxContext(ctx, `SELECT id, name, slug FROM tags WHERE id = ?`, id).
		Scan(&t.ID, &t.Name, &t.Slug)
	return t, err
}

// TagBySlug looks a tag up by slug.
func (s *Store) TagBySlug(ctx context.Context, slug string) (Tag, error) {
	var t Tag
	err := s.db.QueryRowxContext(ctx, `SELECT id, name, slug FROM tags WHERE slug = ?`, slug).
		Scan(&t.ID, &t.Name, &t.Slug)
	if errors.Is(err, sql.ErrNoRows) {
		return Tag{}, ErrNotFound
	}
	return t, err
}

// ListTags returns every tag ordered by name, ignoring case.
func (s *Store) ListTags(ctx context.Context) ([]Tag, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, slug FROM tags ORDER BY name, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.Name, &t.Slug); err != nil {
			return nil, err
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return tags, nil
}
