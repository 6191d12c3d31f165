package refdata

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"oceancurate/pkg/domain"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

var (
	_ domain.ReferenceResolver = (*SQLiteResolver)(nil)
	_ domain.PropertyTypeTable = (*SQLiteResolver)(nil)
)

// SQLiteResolver serves reference lookups from a local snapshot database,
// letting curation run offline against a previously synced copy of the
// reference tables. Property types are loaded once at open; codeset and
// platform lookups query the snapshot on demand.
type SQLiteResolver struct {
	db    *sql.DB
	path  string
	kinds map[string]domain.Kind
	enums map[string][]string
}

// OpenSQLite opens (creating if needed) a reference snapshot at path.
func OpenSQLite(path string) (*SQLiteResolver, error) {
	if path == "" {
		path = "refdata.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	ddl := []string{
		`CREATE TABLE IF NOT EXISTS codesets (
			tbl TEXT NOT NULL,
			code TEXT NOT NULL,
			col TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (tbl, code, col)
		)`,
		`CREATE TABLE IF NOT EXISTS platform_attributes (
			platform TEXT NOT NULL,
			attribute TEXT NOT NULL,
			valid_from TEXT NOT NULL,
			value TEXT NOT NULL,
			PRIMARY KEY (platform, attribute, valid_from)
		)`,
		`CREATE TABLE IF NOT EXISTS property_types (
			code TEXT PRIMARY KEY,
			kind TEXT NOT NULL,
			enum TEXT
		)`,
	}
	for _, stmt := range ddl {
		if _, err := db.Exec(stmt); err != nil {
			return nil, fmt.Errorf("create snapshot tables: %w", err)
		}
	}
	r := &SQLiteResolver{db: db, path: path}
	if err := r.loadPropertyTypes(); err != nil {
		return nil, err
	}
	return r, nil
}

// Close releases the underlying database handle.
func (r *SQLiteResolver) Close() error { return r.db.Close() }

// Path returns the configured snapshot path.
func (r *SQLiteResolver) Path() string { return r.path }

// DB exposes the underlying sql.DB for integration testing hooks.
func (r *SQLiteResolver) DB() *sql.DB { return r.db }

func (r *SQLiteResolver) loadPropertyTypes() error {
	rows, err := r.db.Query(`SELECT code, kind, COALESCE(enum, '') FROM property_types`)
	if err != nil {
		return fmt.Errorf("select property types: %w", err)
	}
	defer func() { _ = rows.Close() }()
	kinds := make(map[string]domain.Kind)
	enums := make(map[string][]string)
	for rows.Next() {
		var code, kindTok, enum string
		if err := rows.Scan(&code, &kindTok, &enum); err != nil {
			return fmt.Errorf("scan property type: %w", err)
		}
		kind, ok := domain.ParseKind(kindTok)
		if !ok {
			return fmt.Errorf("property type %s declares unknown kind %q", code, kindTok)
		}
		kinds[code] = kind
		if enum != "" {
			enums[code] = strings.Split(enum, ",")
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterate property types: %w", err)
	}
	r.kinds = kinds
	r.enums = enums
	return nil
}

// SeedCodeset inserts or replaces one codeset row. Used by the snapshot sync
// job and by tests.
func (r *SQLiteResolver) SeedCodeset(table, code, column, value string) error {
	_, err := r.db.Exec(`INSERT INTO codesets(tbl,code,col,value) VALUES(?,?,?,?)
		ON CONFLICT(tbl,code,col) DO UPDATE SET value=excluded.value`, table, code, column, value)
	if err != nil {
		return fmt.Errorf("seed codeset %s/%s: %w", table, code, err)
	}
	return nil
}

// SeedPlatformAttribute inserts or replaces one dated platform registry row.
func (r *SQLiteResolver) SeedPlatformAttribute(platformID, attribute string, validFrom time.Time, value string) error {
	_, err := r.db.Exec(`INSERT INTO platform_attributes(platform,attribute,valid_from,value) VALUES(?,?,?,?)
		ON CONFLICT(platform,attribute,valid_from) DO UPDATE SET value=excluded.value`,
		platformID, attribute, validFrom.UTC().Format(domain.DateLayout), value)
	if err != nil {
		return fmt.Errorf("seed platform attribute %s/%s: %w", platformID, attribute, err)
	}
	return nil
}

// SeedPropertyType inserts or replaces one property type row and refreshes
// the preloaded tables.
func (r *SQLiteResolver) SeedPropertyType(code string, kind domain.Kind, enum []string) error {
	var enumCol any
	if len(enum) > 0 {
		enumCol = strings.Join(enum, ",")
	}
	_, err := r.db.Exec(`INSERT INTO property_types(code,kind,enum) VALUES(?,?,?)
		ON CONFLICT(code) DO UPDATE SET kind=excluded.kind, enum=excluded.enum`,
		code, kind.String(), enumCol)
	if err != nil {
		return fmt.Errorf("seed property type %s: %w", code, err)
	}
	return r.loadPropertyTypes()
}

// Lookup resolves a codeset row from the snapshot.
func (r *SQLiteResolver) Lookup(ctx context.Context, table, code, column string) (string, string, domain.LookupStatus) {
	if table == "" || code == "" {
		return "", "table and code are required", domain.LookupInvalidCall
	}
	if column == "" {
		column = domain.RefColumnName
	}
	var value string
	err := r.db.QueryRowContext(ctx,
		`SELECT value FROM codesets WHERE tbl=? AND code=? AND col=?`, table, code, column).Scan(&value)
	switch {
	case err == nil:
		return value, "ok", domain.LookupSuccess
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Sprintf("code %s not in snapshot table %s", code, table), domain.LookupNoMatch
	default:
		return "", fmt.Sprintf("snapshot query failed: %v", err), domain.LookupConnectivityError
	}
}

// LookupPlatformAttribute resolves the registry row in force at asOf.
func (r *SQLiteResolver) LookupPlatformAttribute(ctx context.Context, platformID, attribute string, asOf time.Time) (string, string, domain.LookupStatus) {
	if platformID == "" || attribute == "" {
		return "", "platform and attribute are required", domain.LookupInvalidCall
	}
	query := `SELECT value FROM platform_attributes WHERE platform=? AND attribute=?`
	args := []any{platformID, attribute}
	if !asOf.IsZero() {
		query += ` AND valid_from<=?`
		args = append(args, asOf.UTC().Format(domain.DateLayout))
	}
	query += ` ORDER BY valid_from DESC LIMIT 1`
	var value string
	err := r.db.QueryRowContext(ctx, query, args...).Scan(&value)
	switch {
	case err == nil:
		return value, "ok", domain.LookupSuccess
	case errors.Is(err, sql.ErrNoRows):
		return "", fmt.Sprintf("no %s attribute in force for %s", attribute, platformID), domain.LookupNoMatch
	default:
		return "", fmt.Sprintf("snapshot query failed: %v", err), domain.LookupConnectivityError
	}
}

// ValueTypeFor returns the declared kind for a property code.
func (r *SQLiteResolver) ValueTypeFor(code string) (domain.Kind, bool) {
	k, ok := r.kinds[code]
	return k, ok
}

// Domain returns the enumerated legal values for a restricted property code.
func (r *SQLiteResolver) Domain(code string) ([]string, bool) {
	values, ok := r.enums[code]
	if !ok {
		return nil, false
	}
	return append([]string(nil), values...), true
}
