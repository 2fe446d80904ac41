package recipe

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"

	sq "github.com/Masterminds/squirrel"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"
)

//go:embed schema.sql
var schemaSQL string

//go:embed seed_data.json
var bundledSeed []byte

// Store defines the interface for recipe, pantry and grocery data operations.
type Store interface {
	ListRecipes(ctx context.Context) ([]*Recipe, error)
	SearchRecipes(ctx context.Context, filter SearchFilter) ([]*Recipe, error)
	GetRecipe(ctx context.Context, id int64) (*Recipe, error)
	FindRecipesByTitles(ctx context.Context, titles []string) ([]*Recipe, error)
	InsertRecipe(ctx context.Context, r *Recipe) (int64, error)

	GetFavorites(ctx context.Context) ([]int64, error)
	SetFavorite(ctx context.Context, id int64, favorite bool) error

	ListPantry(ctx context.Context) ([]PantryItem, error)
	UpsertPantryItem(ctx context.Context, item, quantity string) error
	RemovePantryItem(ctx context.Context, item string) error
	RenamePantryItem(ctx context.Context, oldItem, newItem, quantity string) error

	ListGrocery(ctx context.Context) ([]GroceryItem, error)
	UpsertGroceryItem(ctx context.Context, item, quantity string, checked bool) error
	SetGroceryChecked(ctx context.Context, item string, checked bool) error
	RemoveGroceryItem(ctx context.Context, item string) error
	RenameGroceryItem(ctx context.Context, oldItem, newItem, quantity string, checked bool) error
	ClearGrocery(ctx context.Context, onlyChecked bool) error

	ComputeMissingIngredients(ctx context.Context, r *Recipe) ([]string, error)
	AddMissingToGrocery(ctx context.Context, r *Recipe) ([]string, error)
}

// SQLiteStore implements Store on a single local SQLite file.
type SQLiteStore struct {
	db       *sqlx.DB
	seedPath string
	log      *zap.Logger
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithSeedPath loads seed recipes from a file instead of the bundled set.
func WithSeedPath(path string) Option {
	return func(s *SQLiteStore) { s.seedPath = path }
}

// WithLogger sets the store logger.
func WithLogger(log *zap.Logger) Option {
	return func(s *SQLiteStore) { s.log = log }
}

// NewSQLiteStore opens the database file. The schema is applied by Init.
func NewSQLiteStore(path string, opts ...Option) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection at a time, checked out per operation.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(0)

	s := &SQLiteStore{db: db, log: zap.NewNop()}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Init applies the schema and seeds the recipes table when it is empty.
func (s *SQLiteStore) Init(ctx context.Context) error {
	if err := s.exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("failed to apply schema: %w", err)
	}

	var count int
	if err := s.queryOne(ctx, &count, "SELECT COUNT(*) FROM recipes"); err != nil {
		return fmt.Errorf("failed to count recipes: %w", err)
	}
	if count > 0 {
		return nil
	}

	seed, err := s.loadSeed()
	if err != nil {
		return err
	}
	if err := s.insertMany(ctx, seed.Recipes); err != nil {
		return fmt.Errorf("failed to insert seed recipes: %w", err)
	}
	s.log.Info("seeded recipe library", zap.Int("recipes", len(seed.Recipes)))
	return nil
}

type seedFile struct {
	Recipes []*Recipe `json:"recipes"`
}

func (s *SQLiteStore) loadSeed() (*seedFile, error) {
	data := bundledSeed
	if s.seedPath != "" {
		var err error
		data, err = os.ReadFile(s.seedPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read seed file: %w", err)
		}
	}
	var seed seedFile
	if err := json.Unmarshal(data, &seed); err != nil {
		return nil, fmt.Errorf("failed to unmarshal seed file: %w", err)
	}
	return &seed, nil
}

const insertRecipeSQL = `INSERT INTO recipes (title, description, ingredients_json, steps_json, time_minutes, difficulty, image_path, categories)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

// withConn checks out a dedicated connection for one operation and always
// returns it, including on error.
func (s *SQLiteStore) withConn(ctx context.Context, fn func(conn *sqlx.Conn) error) error {
	conn, err := s.db.Connx(ctx)
	if err != nil {
		return fmt.Errorf("failed to acquire connection: %w", err)
	}
	defer conn.Close()
	return fn(conn)
}

func (s *SQLiteStore) exec(ctx context.Context, query string, args ...any) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) error {
		_, err := conn.ExecContext(ctx, query, args...)
		return err
	})
}

func (s *SQLiteStore) execReturningID(ctx context.Context, query string, args ...any) (int64, error) {
	var id int64
	err := s.withConn(ctx, func(conn *sqlx.Conn) error {
		res, err := conn.ExecContext(ctx, query, args...)
		if err != nil {
			return err
		}
		id, err = res.LastInsertId()
		return err
	})
	return id, err
}

func (s *SQLiteStore) query(ctx context.Context, dest any, query string, args ...any) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.SelectContext(ctx, dest, query, args...)
	})
}

// queryOne scans a single row into dest. sql.ErrNoRows is passed through.
func (s *SQLiteStore) queryOne(ctx context.Context, dest any, query string, args ...any) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) error {
		return conn.GetContext(ctx, dest, query, args...)
	})
}

// insertMany inserts recipes through one prepared statement.
func (s *SQLiteStore) insertMany(ctx context.Context, recipes []*Recipe) error {
	return s.withConn(ctx, func(conn *sqlx.Conn) error {
		stmt, err := conn.PrepareContext(ctx, insertRecipeSQL)
		if err != nil {
			return err
		}
		defer stmt.Close()
		for _, r := range recipes {
			args, err := r.insertArgs()
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
		return nil
	})
}

// ListRecipes returns every recipe ordered by title.
func (s *SQLiteStore) ListRecipes(ctx context.Context) ([]*Recipe, error) {
	var rows []recipeRow
	if err := s.query(ctx, &rows, "SELECT "+recipeColumns+" FROM recipes ORDER BY title ASC"); err != nil {
		return nil, fmt.Errorf("failed to list recipes: %w", err)
	}
	return toRecipes(rows), nil
}

// SearchRecipes applies the filter conjunctively; empty fields are ignored.
func (s *SQLiteStore) SearchRecipes(ctx context.Context, filter SearchFilter) ([]*Recipe, error) {
	query, args, err := filter.toSQL()
	if err != nil {
		return nil, fmt.Errorf("failed to build search query: %w", err)
	}
	var rows []recipeRow
	if err := s.query(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to search recipes: %w", err)
	}
	return toRecipes(rows), nil
}

// GetRecipe retrieves a recipe by id, or ErrNotFound.
func (s *SQLiteStore) GetRecipe(ctx context.Context, id int64) (*Recipe, error) {
	var row recipeRow
	err := s.queryOne(ctx, &row, "SELECT "+recipeColumns+" FROM recipes WHERE id = ?", id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get recipe: %w", err)
	}
	return row.toRecipe(), nil
}

// FindRecipesByTitles looks up recipes by exact title and returns them in the
// order of titles. Titles with no match are skipped.
func (s *SQLiteStore) FindRecipesByTitles(ctx context.Context, titles []string) ([]*Recipe, error) {
	if len(titles) == 0 {
		return []*Recipe{}, nil
	}
	query, args, err := sq.Select(recipeColumns).From("recipes").Where(sq.Eq{"title": titles}).ToSql()
	if err != nil {
		return nil, fmt.Errorf("failed to build title query: %w", err)
	}
	var rows []recipeRow
	if err := s.query(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to find recipes by title: %w", err)
	}

	byTitle := make(map[string]*Recipe, len(rows))
	for _, row := range rows {
		byTitle[row.Title] = row.toRecipe()
	}
	out := make([]*Recipe, 0, len(titles))
	for _, t := range titles {
		if r, ok := byTitle[t]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

// InsertRecipe validates and stores r, returning the new id.
func (s *SQLiteStore) InsertRecipe(ctx context.Context, r *Recipe) (int64, error) {
	if err := r.Validate(); err != nil {
		return 0, err
	}
	args, err := r.insertArgs()
	if err != nil {
		return 0, err
	}
	id, err := s.execReturningID(ctx, insertRecipeSQL, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to insert recipe: %w", err)
	}
	return id, nil
}

func toRecipes(rows []recipeRow) []*Recipe {
	out := make([]*Recipe, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.toRecipe())
	}
	return out
}
