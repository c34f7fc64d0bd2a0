package database

import (
	"database/sql"
	"fmt"
	"strconv"
	"strings"
)

const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite3"
	DriverMemory   = "memory"
)

// SQLRepository implements ChatRepository on top of database/sql for the
// postgres and sqlite3 drivers.
type SQLRepository struct {
	conn   *sql.DB
	driver string
}

// Open returns the repository for the named driver. The memory driver ignores
// the DSN.
func Open(driver, dsn string) (ChatRepository, error) {
	if driver == DriverMemory {
		return NewMemoryRepository(), nil
	}

	return NewSQLRepository(driver, dsn)
}

func NewSQLRepository(driver, dsn string) (*SQLRepository, error) {
	if driver != DriverPostgres && driver != DriverSQLite {
		return nil, fmt.Errorf("unsupported database driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}

	if driver == DriverSQLite {
		// sqlite allows a single writer
		db.SetMaxOpenConns(1)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLRepository{conn: db, driver: driver}, nil
}

func (r *SQLRepository) Driver() string {
	return r.driver
}

func (r *SQLRepository) Ping() error {
	return r.conn.Ping()
}

func (r *SQLRepository) Close() error {
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

// rebind rewrites ? placeholders into the $n form postgres expects.
func (r *SQLRepository) rebind(query string) string {
	if r.driver != DriverPostgres {
		return query
	}

	var (
		b strings.Builder
		n int
	)
	b.Grow(len(query) + 8)
	for _, ch := range query {
		if ch == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(ch)
	}

	return b.String()
}
