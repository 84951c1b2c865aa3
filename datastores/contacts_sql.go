package datastores

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	_ "github.com/lib/pq"   // registers the "postgres" driver
	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// Dialect holds what differs between the SQL databases supported by [ContactsSQL].
type Dialect struct {
	Driver string
	// Placeholder returns the bind parameter for the n-th (1-based) argument.
	Placeholder func(n int) string
	// Bytewise is the collation comparing text byte by byte.
	Bytewise string
}

var (
	SQLite = Dialect{ //nolint: gochecknoglobals,nolintlint
		Driver:      "sqlite",
		Placeholder: func(int) string { return "?" },
		Bytewise:    "binary",
	}
	Postgres = Dialect{ //nolint: gochecknoglobals,nolintlint
		Driver:      "postgres",
		Placeholder: func(n int) string { return "$" + strconv.Itoa(n) },
		Bytewise:    `"C"`,
	}
)

const contactsSchema = `
create table if not exists contacts (
	id         text primary key,
	first      text not null default '',
	last       text not null default '',
	avatar     text not null default '',
	twitter    text not null default '',
	notes      text not null default '',
	search     text not null default '',
	favorite   boolean not null default false,
	created_at bigint not null
)`

// EnsureSchema creates the tables used by [ContactsSQL] when they are missing.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, contactsSchema)
	if err != nil {
		return fmt.Errorf("store: ensure schema: %w", err)
	}
	return nil
}

// ContactsSQL implements [ContactsStore] on top of [database/sql].
type ContactsSQL struct {
	db      *sql.DB
	dialect Dialect
	now     func() time.Time
}

var _ ContactsStore = (*ContactsSQL)(nil)

func NewContactsSQL(db *sql.DB, dialect Dialect) *ContactsSQL {
	return &ContactsSQL{db: db, dialect: dialect, now: time.Now}
}

// q rewrites the ? placeholders of query for the dialect.
func (s *ContactsSQL) q(query string) string {
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteString(s.dialect.Placeholder(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *ContactsSQL) Ping(ctx context.Context) error { return s.db.PingContext(ctx) }

func (s *ContactsSQL) Create(ctx context.Context, c *Contact) (ContactID, error) {
	c.ID = newContactID()
	c.CreatedAt = s.now()
	_, err := s.db.ExecContext(ctx, s.q(`
		insert into contacts (id, first, last, avatar, twitter, notes, search, favorite, created_at)
		values (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`), c.ID.String(), c.First, c.Last, c.Avatar, c.Twitter, c.Notes, searchKey(c), c.Favorite, c.CreatedAt.UnixNano())
	if err != nil {
		return ContactID{}, fmt.Errorf("store: create contact: %w", err)
	}
	return c.ID, nil
}

func (s *ContactsSQL) List(ctx context.Context, query string) ([]*Contact, error) {
	stmt := `select id, first, last, avatar, twitter, notes, favorite, created_at from contacts`
	var args []any
	if query != "" {
		// search is lowercased in Go: the databases only fold ASCII
		stmt += ` where search like ? escape '\'`
		args = append(args, "%"+escapeLike(strings.ToLower(query))+"%")
	}
	stmt += ` order by last collate ` + s.dialect.Bytewise + `, created_at`

	rows, err := s.db.QueryContext(ctx, s.q(stmt), args...)
	if err != nil {
		return nil, fmt.Errorf("store: list contacts: %w", err)
	}
	defer rows.Close()

	contacts := []*Contact{}
	for rows.Next() {
		c, err := scanContact(rows)
		if err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("store: list contacts: %w", err)
	}
	return contacts, nil
}

func (s *ContactsSQL) Get(ctx context.Context, id ContactID) (*Contact, error) {
	row := s.db.QueryRowContext(ctx, s.q(`
		select id, first, last, avatar, twitter, notes, favorite, created_at
		from contacts where id = ?
	`), id.String())
	c, err := scanContact(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrObjectNotFound
	}
	return c, err
}

func (s *ContactsSQL) Update(ctx context.Context, c *Contact) error {
	res, err := s.db.ExecContext(ctx, s.q(`
		update contacts set first = ?, last = ?, avatar = ?, twitter = ?, notes = ?, search = ?, favorite = ?
		where id = ?
	`), c.First, c.Last, c.Avatar, c.Twitter, c.Notes, searchKey(c), c.Favorite, c.ID.String())
	if err != nil {
		return fmt.Errorf("store: update contact: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("store: update contact: %w", err)
	}
	if n == 0 {
		return ErrObjectNotFound
	}
	return nil
}

func (s *ContactsSQL) Delete(ctx context.Context, id ContactID) error {
	_, err := s.db.ExecContext(ctx, s.q(`delete from contacts where id = ?`), id.String())
	if err != nil {
		return fmt.Errorf("store: delete contact: %w", err)
	}
	return nil
}

type scanner interface{ Scan(dest ...any) error }

func scanContact(row scanner) (*Contact, error) {
	var (
		c         Contact
		id        string
		createdAt int64
	)
	err := row.Scan(&id, &c.First, &c.Last, &c.Avatar, &c.Twitter, &c.Notes, &c.Favorite, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("store: scan contact: %w", err)
	}
	c.ID, err = ParseContactID(id)
	if err != nil {
		return nil, fmt.Errorf("store: scan contact: %w", err)
	}
	c.CreatedAt = time.Unix(0, createdAt)
	return &c, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
