package database

import (
	"database/sql"
	"fmt"
	"strings"
)

// Kind identifies one of the supported backend families.
type Kind int

const (
	KindSQLite Kind = iota
	KindMySQL
	KindPostgres
)

// String returns the canonical name of the backend kind.
func (k Kind) String() string {
	switch k {
	case KindSQLite:
		return "sqlite"
	case KindMySQL:
		return "mysql"
	case KindPostgres:
		return "postgres"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Networked reports whether the backend is reached over the network.
func (k Kind) Networked() bool {
	return k != KindSQLite
}

// ParseKind maps a backend name to its kind. MariaDB shares the MySQL code path.
func ParseKind(name string) (Kind, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "sqlite", "sqlite3":
		return KindSQLite, nil
	case "mysql", "mariadb":
		return KindMySQL, nil
	case "postgres", "postgresql", "pg":
		return KindPostgres, nil
	default:
		return 0, fmt.Errorf("unknown backend %q (expected sqlite, mysql, mariadb or postgres)", name)
	}
}

// dialect holds everything that differs between backends: query text,
// identifier quoting and the type-name to decode-category table.
type dialect struct {
	listTables  string
	listColumns string
	// selectPage takes the column list and the table; limit and offset are bound.
	selectPage string
	quote      func(string) string
	categories map[string]Category
	// selectColumn wraps a quoted column in the page query; nil selects it as is.
	selectColumn func(quoted string) string
	// typeName reports the type name used to pick a decode category.
	typeName   func(ct *sql.ColumnType, v any) string
	readOnlyTx bool
	// isolation keeps every statement of a refresh on one snapshot.
	isolation sql.IsolationLevel
}

func dialectFor(kind Kind) *dialect {
	switch kind {
	case KindMySQL:
		return mysqlDialect
	case KindPostgres:
		return postgresDialect
	default:
		return sqliteDialect
	}
}

var sqliteDialect = &dialect{
	listTables: `SELECT name FROM sqlite_master
		WHERE type = 'table' AND name NOT LIKE 'sqlite_%'
		ORDER BY name`,
	listColumns: `SELECT name FROM pragma_table_info(?) ORDER BY cid`,
	selectPage:  `SELECT %s FROM %s LIMIT ? OFFSET ?`,
	quote:       quoteIdentifier,
	categories: map[string]Category{
		"INTEGER": CategoryInteger,
		"REAL":    CategoryFloat,
		"TEXT":    CategoryText,
	},
	// The driver turns TEXT in DATE/DATETIME/TIMESTAMP columns into
	// time.Time. An expression column has no declared type, so the stored
	// text comes back unchanged.
	selectColumn: func(quoted string) string { return "likely(" + quoted + ")" },
	typeName:     sqliteStorageClass,
	// The file is opened with mode=ro already. A deferred transaction reads
	// from one snapshot at the default level.
	readOnlyTx: false,
}

var mysqlDialect = &dialect{
	listTables: `SELECT TABLE_NAME FROM INFORMATION_SCHEMA.TABLES
		WHERE TABLE_SCHEMA = DATABASE()
		ORDER BY TABLE_NAME`,
	listColumns: `SELECT COLUMN_NAME FROM INFORMATION_SCHEMA.COLUMNS
		WHERE TABLE_SCHEMA = DATABASE() AND TABLE_NAME = ?
		ORDER BY ORDINAL_POSITION`,
	selectPage: `SELECT %s FROM %s LIMIT ? OFFSET ?`,
	quote:      quoteBacktick,
	categories: map[string]Category{
		"INT":       CategoryInteger,
		"TINYINT":   CategoryInteger,
		"SMALLINT":  CategoryInteger,
		"MEDIUMINT": CategoryInteger,
		"BIGINT":    CategoryInteger,
		"FLOAT":     CategoryFloat,
		"DOUBLE":    CategoryFloat,
		"DECIMAL":   CategoryFloat,
		"VARCHAR":   CategoryText,
		"CHAR":      CategoryText,
		"TEXT":      CategoryText,
		"LONGTEXT":  CategoryText,
		"DATETIME":  CategoryDateTime,
		"TIMESTAMP": CategoryDateTime,
	},
	typeName:   declaredTypeName,
	readOnlyTx: true,
	isolation:  sql.LevelRepeatableRead,
}

var postgresDialect = &dialect{
	listTables: `SELECT table_name FROM information_schema.tables
		WHERE table_schema = current_schema()
		ORDER BY table_name`,
	listColumns: `SELECT column_name FROM information_schema.columns
		WHERE table_schema = current_schema() AND table_name = $1
		ORDER BY ordinal_position`,
	selectPage: `SELECT %s FROM %s LIMIT $1 OFFSET $2`,
	quote:      quoteIdentifier,
	categories: map[string]Category{
		"INT2":        CategoryInteger,
		"INT4":        CategoryInteger,
		"INT8":        CategoryInteger,
		"FLOAT4":      CategoryFloat,
		"FLOAT8":      CategoryFloat,
		"NUMERIC":     CategoryFloat,
		"TEXT":        CategoryText,
		"VARCHAR":     CategoryText,
		"BPCHAR":      CategoryText,
		"NAME":        CategoryText,
		"TIMESTAMP":   CategoryDateTime,
		"TIMESTAMPTZ": CategoryDateTime,
		"DATE":        CategoryDateTime,
	},
	typeName:   declaredTypeName,
	readOnlyTx: true,
	isolation:  sql.LevelRepeatableRead,
}

// sqliteStorageClass derives the SQLite storage class from the value the
// driver produced, since declared column types are only affinities.
func sqliteStorageClass(_ *sql.ColumnType, v any) string {
	switch v.(type) {
	case nil:
		return "NULL"
	case int64:
		return "INTEGER"
	case float64:
		return "REAL"
	case string:
		return "TEXT"
	case []byte:
		return "BLOB"
	default:
		return ""
	}
}

func declaredTypeName(ct *sql.ColumnType, _ any) string {
	if ct == nil {
		return ""
	}
	return strings.ToUpper(ct.DatabaseTypeName())
}

// quoteIdentifier safely quotes a SQL identifier.
func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteBacktick(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
