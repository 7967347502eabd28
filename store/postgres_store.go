package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
	"github.com/ulugbekdev/tolov-bot/types"
)

// PostgresStore is the durable record store: the students and groups
// collections. Neither collection has a delete path.
type PostgresStore struct {
	pool *pgxpool.Pool
}

func NewPostgresStore(ctx context.Context, dsn string) (*PostgresStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		dsn = buildPostgresDSNFromEnv()
	}
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, err
	}
	s := &PostgresStore{pool: pool}
	if err := s.runMigrations(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

func buildPostgresDSNFromEnv() string {
	host := strings.TrimSpace(os.Getenv("POSTGRES_HOST"))
	if host == "" {
		host = "localhost"
	}
	port := strings.TrimSpace(os.Getenv("POSTGRES_PORT"))
	if port == "" {
		port = "5432"
	}
	db := strings.TrimSpace(os.Getenv("POSTGRES_DB"))
	if db == "" {
		db = "tolov_bot"
	}
	user := strings.TrimSpace(os.Getenv("POSTGRES_USER"))
	if user == "" {
		user = "tolov_bot"
	}
	pass := os.Getenv("POSTGRES_PASSWORD")
	return fmt.Sprintf("postgres://%s:%s@%s:%s/%s?sslmode=disable", urlEscape(user), urlEscape(pass), host, port, db)
}

func urlEscape(s string) string {
	r := strings.NewReplacer(
		"%", "%25",
		":", "%3A",
		"/", "%2F",
		"@", "%40",
		"?", "%3F",
		"#", "%23",
		"[", "%5B",
		"]", "%5D",
	)
	return r.Replace(s)
}

func (s *PostgresStore) runMigrations(ctx context.Context) error {
	db := stdlib.OpenDB(*s.pool.Config().ConnConfig)
	defer db.Close()

	if err := goose.SetDialect("postgres"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, "migrations")
}

func (s *PostgresStore) UpsertGroup(g types.Group) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO groups (group_id, title)
VALUES ($1, $2)
ON CONFLICT (group_id) DO UPDATE SET
  title = EXCLUDED.title;
`, g.GroupID, strings.TrimSpace(g.Title))
	return err
}

func (s *PostgresStore) GetGroup(groupID int64) (*types.Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var g types.Group
	err := s.pool.QueryRow(ctx, `
SELECT group_id, title, added_at
FROM groups
WHERE group_id = $1
`, groupID).Scan(&g.GroupID, &g.Title, &g.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &g, nil
}

func (s *PostgresStore) ListGroups() ([]types.Group, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, `
SELECT group_id, title, added_at
FROM groups
ORDER BY added_at
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var groups []types.Group
	for rows.Next() {
		var g types.Group
		if err := rows.Scan(&g.GroupID, &g.Title, &g.AddedAt); err != nil {
			return nil, err
		}
		groups = append(groups, g)
	}
	return groups, rows.Err()
}

func (s *PostgresStore) CountGroupStudents(groupID int64) (int, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var count int
	err := s.pool.QueryRow(ctx, `
SELECT COUNT(*)
FROM students
WHERE group_id = $1
`, groupID).Scan(&count)
	if err != nil {
		return 0, err
	}
	return count, nil
}

func (s *PostgresStore) CreateStudent(st types.Student) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
INSERT INTO students (user_id, name, phone, username, group_id, last_payment, next_payment, payment_days, status)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (user_id) DO UPDATE SET
  name = EXCLUDED.name,
  phone = EXCLUDED.phone,
  username = EXCLUDED.username,
  group_id = EXCLUDED.group_id,
  last_payment = EXCLUDED.last_payment,
  next_payment = EXCLUDED.next_payment,
  payment_days = EXCLUDED.payment_days,
  status = EXCLUDED.status;
`, st.UserID, strings.TrimSpace(st.Name), strings.TrimSpace(st.Phone), strings.TrimSpace(st.Username),
		st.GroupID, st.LastPayment, st.NextPayment, st.PaymentDays, string(st.Status))
	return err
}

func (s *PostgresStore) GetStudent(userID int64) (*types.Student, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var st types.Student
	var status string
	err := s.pool.QueryRow(ctx, `
SELECT user_id, name, phone, username, group_id, last_payment, next_payment, payment_days, status, added_at
FROM students
WHERE user_id = $1
`, userID).Scan(&st.UserID, &st.Name, &st.Phone, &st.Username, &st.GroupID,
		&st.LastPayment, &st.NextPayment, &st.PaymentDays, &status, &st.AddedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	st.Status = types.StudentStatus(status)
	return &st, nil
}

func (s *PostgresStore) ListStudents() ([]types.Student, error) {
	return s.queryStudents(`
SELECT user_id, name, phone, username, group_id, last_payment, next_payment, payment_days, status, added_at
FROM students
ORDER BY added_at
`)
}

func (s *PostgresStore) ListGroupStudents(groupID int64) ([]types.Student, error) {
	return s.queryStudents(`
SELECT user_id, name, phone, username, group_id, last_payment, next_payment, payment_days, status, added_at
FROM students
WHERE group_id = $1
ORDER BY added_at
`, groupID)
}

func (s *PostgresStore) queryStudents(sql string, args ...interface{}) ([]types.Student, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rows, err := s.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var students []types.Student
	for rows.Next() {
		var st types.Student
		var status string
		if err := rows.Scan(&st.UserID, &st.Name, &st.Phone, &st.Username, &st.GroupID,
			&st.LastPayment, &st.NextPayment, &st.PaymentDays, &status, &st.AddedAt); err != nil {
			return nil, err
		}
		st.Status = types.StudentStatus(status)
		students = append(students, st)
	}
	return students, rows.Err()
}

func (s *PostgresStore) RecordPayment(userID int64, paidAt, nextPayment time.Time, days int) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE students
SET last_payment = $2,
    next_payment = $3,
    payment_days = $4,
    status = $5
WHERE user_id = $1
`, userID, paidAt, nextPayment, days, string(types.StatusPaid))
	return err
}

func (s *PostgresStore) MarkOverdue(userID int64) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_, err := s.pool.Exec(ctx, `
UPDATE students
SET status = $2
WHERE user_id = $1
`, userID, string(types.StatusOverdue))
	return err
}
