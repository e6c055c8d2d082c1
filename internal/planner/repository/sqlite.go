package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
)

// ============================================================
// SQLite Repository
// ============================================================

var ErrNotFound = errors.New("not found")

// Plan — строка таблицы plans. Document хранится как есть, без разбора.
type Plan struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Document  string    `json:"-"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type Repository struct {
	db *sql.DB
}

func New(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Init применяет миграцию схемы.
func (r *Repository) Init(ctx context.Context, migrationsPath string) error {
	if err := r.runMigrations(ctx, migrationsPath); err != nil {
		return fmt.Errorf("migrations: %w", err)
	}
	return nil
}

func (r *Repository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *Repository) Create(ctx context.Context, name string) (*Plan, error) {
	now := time.Now().UTC().Truncate(time.Second)
	p := &Plan{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err := r.db.ExecContext(ctx, `
        INSERT INTO plans (id, name, document, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?)
    `, p.ID, p.Name, p.Document, p.CreatedAt, p.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("insert plan: %w", err)
	}
	return p, nil
}

func (r *Repository) Get(ctx context.Context, id string) (*Plan, error) {
	row := r.db.QueryRowContext(ctx, `
        SELECT id, name, document, created_at, updated_at
        FROM plans
        WHERE id = ?
    `, id)

	var p Plan
	if err := row.Scan(&p.ID, &p.Name, &p.Document, &p.CreatedAt, &p.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &p, nil
}

// List — без документов, свежие первыми.
func (r *Repository) List(ctx context.Context) ([]Plan, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT id, name, created_at, updated_at
        FROM plans
        ORDER BY updated_at DESC, id
    `)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	plans := []Plan{}
	for rows.Next() {
		var p Plan
		if err := rows.Scan(&p.ID, &p.Name, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		plans = append(plans, p)
	}
	return plans, rows.Err()
}

func (r *Repository) SaveDocument(ctx context.Context, id, document string) error {
	res, err := r.db.ExecContext(ctx, `
        UPDATE plans SET document = ?, updated_at = ?
        WHERE id = ?
    `, document, time.Now().UTC().Truncate(time.Second), id)
	if err != nil {
		return fmt.Errorf("update plan: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) LoadDocument(ctx context.Context, id string) (string, error) {
	p, err := r.Get(ctx, id)
	if err != nil {
		return "", err
	}
	return p.Document, nil
}

func (r *Repository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM plans WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete plan: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// ============================================================
// Persistence adapter
// ============================================================

// PlanStore привязывает один план к контракту Save/Load редактора.
type PlanStore struct {
	repo *Repository
	id   string
}

func (r *Repository) PlanStore(id string) *PlanStore {
	return &PlanStore{repo: r, id: id}
}

func (s *PlanStore) Save(ctx context.Context, blob string) error {
	return s.repo.SaveDocument(ctx, s.id, blob)
}

func (s *PlanStore) Load(ctx context.Context) (string, error) {
	return s.repo.LoadDocument(ctx, s.id)
}

// ============================================================
// Migrations
// ============================================================

func (r *Repository) runMigrations(ctx context.Context, migrationsPath string) error {
	data, err := os.ReadFile(migrationsPath)
	if err != nil {
		return fmt.Errorf("read migration: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, string(data)); err != nil {
		return fmt.Errorf("apply migration: %w", err)
	}
	return nil
}

// OpenSQLite открывает sqlite по указанному пути.
func OpenSQLite(dbPath string) (*sql.DB, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
		return nil, fmt.Errorf("mkdir db dir: %w", err)
	}

	dsn := fmt.Sprintf("file:%s?cache=shared&mode=rwc&_pragma=busy_timeout=5000", dbPath)
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	return db, nil
}
