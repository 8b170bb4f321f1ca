// Copyright (c) 2025 Daniel Kuo.
// Source-available; no permission granted to use, copy, modify, or distribute. See LICENSE.

package testutil

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/danielhkuo/greenery-survey/cliparse"
	"github.com/danielhkuo/greenery-survey/db"
	"github.com/danielhkuo/greenery-survey/store"
	"github.com/danielhkuo/greenery-survey/survey"
)

// TestDBURLEnv selects PostgreSQL for database tests when set; otherwise
// a throwaway SQLite file is used.
const TestDBURLEnv = "TEST_DATABASE_URL"

// SetupTestDB returns a database with a fresh schema and the dialect it speaks
func SetupTestDB(t *testing.T) (*sql.DB, db.Dialect) {
	t.Helper()

	if url := os.Getenv(TestDBURLEnv); url != "" {
		return setupPostgres(t, url), db.Postgres
	}
	return setupSQLite(t), db.SQLite
}

// SetupPostgres is SetupTestDB restricted to PostgreSQL; the test is skipped
// when no server is configured.
func SetupPostgres(t *testing.T) *sql.DB {
	t.Helper()

	url := os.Getenv(TestDBURLEnv)
	if url == "" {
		t.Skipf("%s not set", TestDBURLEnv)
	}
	return setupPostgres(t, url)
}

func setupPostgres(t *testing.T, url string) *sql.DB {
	t.Helper()

	conn, err := sql.Open("postgres", url)
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	// Clean up tables before each test
	_, err = conn.Exec(`
		DROP TABLE IF EXISTS unit_rating CASCADE;
		DROP TABLE IF EXISTS survey_response CASCADE;
	`)
	if err != nil {
		t.Fatalf("Failed to clean database: %v", err)
	}

	if err := db.CreateSchema(conn, db.Postgres); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

func setupSQLite(t *testing.T) *sql.DB {
	t.Helper()

	path := filepath.Join(t.TempDir(), "survey.db")
	conn, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(on)")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	t.Cleanup(func() { conn.Close() })

	if err := db.CreateSchema(conn, db.SQLite); err != nil {
		t.Fatalf("Failed to create schema: %v", err)
	}
	return conn
}

// GetTestConfig returns a standard test configuration
func GetTestConfig() cliparse.Config {
	return cliparse.Config{
		Port:        3318,
		Store:       store.Config{Type: store.TypeMemory},
		SessionSalt: "test-session-salt",
		IPSalt:      "test-ip-salt",
		AdminKey:    "test-admin-key",
		Order:       "GP",
		Lexicon:     "GREEN",
		Revisit:     "reopen",
		MinDwell:    survey.DefaultMinDwell,
		ArmWindow:   survey.DefaultArmWindow,
		MaxImages:   100,
		Preload:     2,
		SaveTimeout: 5 * time.Second,
		Version:     "test",
	}
}

// TestImages returns n distinct image refs
func TestImages(n int) []string {
	refs := make([]string, n)
	for i := range refs {
		refs[i] = fmt.Sprintf("images/img-%03d.jpg", i)
	}
	return refs
}

// MakeRequest creates an HTTP test request
func MakeRequest(method, path string, body interface{}, headers map[string]string) *http.Request {
	var req *http.Request
	if body != nil {
		jsonBody, _ := json.Marshal(body)
		req = httptest.NewRequest(method, path, bytes.NewReader(jsonBody))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	return req
}

// AssertStatus checks that the response has the expected status code
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
