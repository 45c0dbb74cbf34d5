package platform

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/gray-logic-zigbee/internal/accessory"
)

// ShellRepository persists accessory shells between restarts.
type ShellRepository interface {
	// Get returns the shell cached for a device address.
	// Returns ErrShellNotFound if none is cached.
	Get(ctx context.Context, addr string) (*accessory.Shell, error)

	// List returns every cached shell ordered by address.
	List(ctx context.Context) ([]CachedShell, error)

	// Save inserts or updates the shell for shell.Address.
	Save(ctx context.Context, shell *accessory.Shell, handlerKind string) error

	// Delete forgets a shell. Returns ErrShellNotFound if none is cached.
	Delete(ctx context.Context, addr string) error
}

// CachedShell is a shell together with the handler kind last attached to it.
type CachedShell struct {
	Shell       *accessory.Shell
	HandlerKind string
	UpdatedAt   time.Time
}

const shellTimeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteShellRepository implements ShellRepository on the accessory_shells table.
type SQLiteShellRepository struct {
	db *sql.DB
}

// NewSQLiteShellRepository creates a repository over an open, migrated database.
func NewSQLiteShellRepository(db *sql.DB) *SQLiteShellRepository {
	return &SQLiteShellRepository{db: db}
}

const shellColumns = `uuid, address, display_name, handler_kind, context, created_at, updated_at`

func (r *SQLiteShellRepository) Get(ctx context.Context, addr string) (*accessory.Shell, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+shellColumns+` FROM accessory_shells WHERE address = ?`, addr)
	cached, err := scanShell(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrShellNotFound
		}
		return nil, fmt.Errorf("querying shell %s: %w", addr, err)
	}
	return cached.Shell, nil
}

func (r *SQLiteShellRepository) List(ctx context.Context) ([]CachedShell, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT `+shellColumns+` FROM accessory_shells ORDER BY address`)
	if err != nil {
		return nil, fmt.Errorf("querying shells: %w", err)
	}
	defer rows.Close()

	var shells []CachedShell
	for rows.Next() {
		cached, err := scanShell(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning shell: %w", err)
		}
		shells = append(shells, cached)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating shells: %w", err)
	}
	return shells, nil
}

func (r *SQLiteShellRepository) Save(ctx context.Context, shell *accessory.Shell, handlerKind string) error {
	if shell == nil || shell.Address == "" || shell.UUID == "" {
		return fmt.Errorf("saving shell: uuid and address are required")
	}
	shellCtx := shell.Context
	if shellCtx == nil {
		shellCtx = map[string]any{}
	}
	contextJSON, err := json.Marshal(shellCtx)
	if err != nil {
		return fmt.Errorf("marshalling shell context: %w", err)
	}
	created := shell.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	now := time.Now().UTC().Format(shellTimeFormat)

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO accessory_shells (`+shellColumns+`)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(address) DO UPDATE SET
			uuid = excluded.uuid,
			display_name = excluded.display_name,
			handler_kind = excluded.handler_kind,
			context = excluded.context,
			updated_at = excluded.updated_at`,
		shell.UUID, shell.Address, shell.DisplayName, handlerKind,
		string(contextJSON), created.UTC().Format(shellTimeFormat), now,
	)
	if err != nil {
		return fmt.Errorf("saving shell %s: %w", shell.Address, err)
	}
	return nil
}

func (r *SQLiteShellRepository) Delete(ctx context.Context, addr string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM accessory_shells WHERE address = ?`, addr)
	if err != nil {
		return fmt.Errorf("deleting shell %s: %w", addr, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking rows affected: %w", err)
	}
	if n == 0 {
		return ErrShellNotFound
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanShell(row scanner) (CachedShell, error) {
	var (
		shell                accessory.Shell
		kind, contextJSON    string
		createdAt, updatedAt string
	)
	if err := row.Scan(&shell.UUID, &shell.Address, &shell.DisplayName, &kind, &contextJSON, &createdAt, &updatedAt); err != nil {
		return CachedShell{}, err
	}
	if err := json.Unmarshal([]byte(contextJSON), &shell.Context); err != nil {
		return CachedShell{}, fmt.Errorf("unmarshalling shell context: %w", err)
	}
	if shell.Context == nil {
		shell.Context = map[string]any{}
	}
	var err error
	if shell.CreatedAt, err = time.Parse(shellTimeFormat, createdAt); err != nil {
		return CachedShell{}, fmt.Errorf("parsing created_at: %w", err)
	}
	updated, err := time.Parse(shellTimeFormat, updatedAt)
	if err != nil {
		return CachedShell{}, fmt.Errorf("parsing updated_at: %w", err)
	}
	return CachedShell{Shell: &shell, HandlerKind: kind, UpdatedAt: updated}, nil
}
