package remote

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Postgres writes directly to the backing database, for deployments where
// the field client runs inside the same network as the database.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool to dsn and verifies it with a ping.
func OpenPostgres(ctx context.Context, dsn string) (*Postgres, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, errors.New("database url required")
	}
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := pool.Ping(pingCtx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping postgres: %w", err)
	}
	return &Postgres{pool: pool}, nil
}

// Close releases the pool.
func (p *Postgres) Close() {
	if p != nil && p.pool != nil {
		p.pool.Close()
	}
}

// Insert adds record to table.
func (p *Postgres) Insert(ctx context.Context, table string, record map[string]any) error {
	query, args, err := buildInsert(table, record)
	if err != nil {
		return err
	}
	if _, err := p.pool.Exec(ctx, query, args...); err != nil {
		return fmt.Errorf("insert into %s: %w", table, err)
	}
	return nil
}

// Update applies partial to the row with id.
func (p *Postgres) Update(ctx context.Context, table, id string, partial map[string]any) error {
	query, args, err := buildUpdate(table, id, partial)
	if err != nil {
		return err
	}
	tag, err := p.pool.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("update %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Delete removes the row with id.
func (p *Postgres) Delete(ctx context.Context, table, id string) error {
	query := "DELETE FROM " + pgx.Identifier{table}.Sanitize() + " WHERE id = $1"
	tag, err := p.pool.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete from %s: %w", table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// Ping checks the database connection.
func (p *Postgres) Ping(ctx context.Context) error {
	return p.pool.Ping(ctx)
}

// Check lets Postgres act as a connectivity probe.
func (p *Postgres) Check(ctx context.Context) error {
	return p.Ping(ctx)
}

// ProfileEmail returns the e-mail on the profile of userID.
func (p *Postgres) ProfileEmail(ctx context.Context, userID string) (string, error) {
	var email *string
	err := p.pool.QueryRow(ctx, "SELECT email FROM "+pgx.Identifier{TableProfiles}.Sanitize()+" WHERE id = $1", userID).Scan(&email)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("lookup profile: %w", err)
	}
	if email == nil || strings.TrimSpace(*email) == "" {
		return "", ErrNotFound
	}
	return *email, nil
}

// List fetches submissions newest first.
func (p *Postgres) List(ctx context.Context, query ListQuery) ([]Submission, error) {
	sql, args := buildList(query)
	rows, err := p.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	defer rows.Close()

	var out []Submission
	for rows.Next() {
		var (
			s       Submission
			created time.Time
		)
		if err := rows.Scan(&s.ID, &s.UserID, &s.NomeCompleto, &s.CPF, &s.Cidade, &s.Estado, &s.Status, &s.Observacoes, &created); err != nil {
			return nil, fmt.Errorf("scan submission: %w", err)
		}
		s.CreatedAt = created.Format(time.RFC3339Nano)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list submissions: %w", err)
	}
	return out, nil
}

// Get fetches every column of one submission.
func (p *Postgres) Get(ctx context.Context, id string) (Record, error) {
	if strings.TrimSpace(id) == "" {
		return nil, errors.New("id required")
	}
	rows, err := p.pool.Query(ctx, buildGet(), id)
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	row, err := pgx.CollectOneRow(rows, pgx.RowToMap)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get submission: %w", err)
	}
	return Record(row), nil
}

// Stats tallies every submission by status and by city.
func (p *Postgres) Stats(ctx context.Context) (Stats, error) {
	rows, err := p.pool.Query(ctx, buildStats())
	if err != nil {
		return Stats{}, fmt.Errorf("submission stats: %w", err)
	}
	defer rows.Close()

	var stats Stats
	for rows.Next() {
		var (
			status, cidade, estado *string
			count                  int64
		)
		if err := rows.Scan(&status, &cidade, &estado, &count); err != nil {
			return Stats{}, fmt.Errorf("scan stats: %w", err)
		}
		stats.add(deref(status), deref(cidade), deref(estado), int(count))
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("submission stats: %w", err)
	}
	stats.finish()
	return stats, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func buildInsert(table string, record map[string]any) (string, []any, error) {
	if len(record) == 0 {
		return "", nil, errors.New("empty record")
	}
	columns := sortedKeys(record)
	quoted := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	args := make([]any, len(columns))
	for i, col := range columns {
		quoted[i] = pgx.Identifier{col}.Sanitize()
		placeholders[i] = "$" + strconv.Itoa(i+1)
		args[i] = record[col]
	}
	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(quoted, ", "),
		strings.Join(placeholders, ", "),
	)
	return query, args, nil
}

func buildUpdate(table, id string, partial map[string]any) (string, []any, error) {
	if len(partial) == 0 {
		return "", nil, errors.New("empty update")
	}
	if strings.TrimSpace(id) == "" {
		return "", nil, errors.New("id required")
	}
	columns := sortedKeys(partial)
	sets := make([]string, len(columns))
	args := make([]any, 0, len(columns)+1)
	for i, col := range columns {
		sets[i] = pgx.Identifier{col}.Sanitize() + " = $" + strconv.Itoa(i+1)
		args = append(args, partial[col])
	}
	args = append(args, id)
	query := fmt.Sprintf("UPDATE %s SET %s WHERE id = $%d",
		pgx.Identifier{table}.Sanitize(),
		strings.Join(sets, ", "),
		len(args),
	)
	return query, args, nil
}

func buildList(query ListQuery) (string, []any) {
	var (
		where []string
		args  []any
	)
	if status := strings.TrimSpace(query.Status); status != "" {
		args = append(args, status)
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	if user := strings.TrimSpace(query.UserID); user != "" {
		args = append(args, user)
		where = append(where, "user_id = $"+strconv.Itoa(len(args)))
	}
	if term := searchTerm(query.Search); term != "" {
		args = append(args, likePattern(term))
		n := "$" + strconv.Itoa(len(args))
		clauses := make([]string, len(searchColumns))
		for i, col := range searchColumns {
			clauses[i] = col + " ILIKE " + n
		}
		where = append(where, "("+strings.Join(clauses, " OR ")+")")
	}

	var b strings.Builder
	b.WriteString("SELECT " + strings.ReplaceAll(submissionColumns, ",", ", "))
	b.WriteString(" FROM " + pgx.Identifier{TableSubmissions}.Sanitize())
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY created_at DESC")
	if query.Limit > 0 {
		args = append(args, query.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if query.Offset > 0 {
		args = append(args, query.Offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

func buildGet() string {
	return "SELECT * FROM " + pgx.Identifier{TableSubmissions}.Sanitize() + " WHERE id = $1"
}

func buildStats() string {
	return "SELECT status, cidade, estado, count(*) FROM " + pgx.Identifier{TableSubmissions}.Sanitize() +
		" GROUP BY status, cidade, estado"
}

func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
