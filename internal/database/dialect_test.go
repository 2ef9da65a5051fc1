package database

import (
	"strings"
	"testing"
)

func TestDialectSQLite(t *testing.T) {
	dialect := NewSQLiteDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "sqlite3" {
			t.Errorf("DriverName() = %v, want sqlite3", got)
		}
	})

	t.Run("RewriteQuery is identity", func(t *testing.T) {
		query := "SELECT * FROM users WHERE email = ? AND role = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "sqlite" {
			t.Errorf("MigrationsSubdir() = %v, want sqlite", got)
		}
	})

	t.Run("InsertIgnore appends conflict clause", func(t *testing.T) {
		got := dialect.InsertIgnore("INSERT INTO users (email) VALUES (?);", "email")
		want := "INSERT INTO users (email) VALUES (?) ON CONFLICT (email) DO NOTHING"
		if got != want {
			t.Errorf("InsertIgnore() = %v, want %v", got, want)
		}
	})
}

func TestDialectPostgreSQL(t *testing.T) {
	dialect := NewPostgresDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "postgres" {
			t.Errorf("DriverName() = %v, want postgres", got)
		}
	})

	t.Run("RewriteQuery numbers placeholders", func(t *testing.T) {
		got := dialect.RewriteQuery("INSERT INTO t (a, b, c) VALUES (?, ?, ?)")
		want := "INSERT INTO t (a, b, c) VALUES ($1, $2, $3)"
		if got != want {
			t.Errorf("RewriteQuery() = %v, want %v", got, want)
		}
	})

	t.Run("InsertIgnore appends conflict clause", func(t *testing.T) {
		got := dialect.InsertIgnore("INSERT INTO sessions (session_id) VALUES (?)", "session_id")
		if !strings.HasSuffix(got, "ON CONFLICT (session_id) DO NOTHING") {
			t.Errorf("InsertIgnore() = %v, want ON CONFLICT suffix", got)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "postgres" {
			t.Errorf("MigrationsSubdir() = %v, want postgres", got)
		}
	})
}

func TestDialectMySQL(t *testing.T) {
	dialect := NewMySQLDialect()

	t.Run("DriverName", func(t *testing.T) {
		if got := dialect.DriverName(); got != "mysql" {
			t.Errorf("DriverName() = %v, want mysql", got)
		}
	})

	t.Run("RewriteQuery is identity", func(t *testing.T) {
		query := "SELECT 1 FROM t WHERE a = ?"
		if got := dialect.RewriteQuery(query); got != query {
			t.Errorf("RewriteQuery() = %v, want unchanged", got)
		}
	})

	t.Run("InsertIgnore rewrites INSERT keyword", func(t *testing.T) {
		got := dialect.InsertIgnore("INSERT INTO sessions (session_id) VALUES (?)", "session_id")
		want := "INSERT IGNORE INTO sessions (session_id) VALUES (?)"
		if got != want {
			t.Errorf("InsertIgnore() = %v, want %v", got, want)
		}
	})

	t.Run("MigrationsSubdir", func(t *testing.T) {
		if got := dialect.MigrationsSubdir(); got != "mysql" {
			t.Errorf("MigrationsSubdir() = %v, want mysql", got)
		}
	})
}

func TestRewritePlaceholdersSkipsNone(t *testing.T) {
	query := "SELECT COUNT(*) FROM sessions"
	if got := rewritePlaceholdersToNumbered(query); got != query {
		t.Errorf("expected query without placeholders unchanged, got %v", got)
	}
}
