// Package testutil provides shared helpers for service and handler tests.
// Tests run against an in-memory SQLite database opened through gorm with
// error translation enabled, so unique-constraint handling behaves the same
// as against Postgres.
package testutil

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"pollbox/internal/domain/poll"
	"pollbox/internal/domain/user"
	"pollbox/pkg/database"

	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// OpenTestDB opens a fresh in-memory database with the full schema. The pool
// is capped at one connection so concurrent test writes serialize instead of
// tripping SQLite busy errors.
func OpenTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger:         gormlogger.Default.LogMode(gormlogger.Silent),
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("Failed to get generic database object: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	if err := database.Migrate(db); err != nil {
		t.Fatalf("Failed to migrate test database: %v", err)
	}

	return db
}

// CreateTestUser inserts a user with the given password and returns it.
func CreateTestUser(t *testing.T, db *gorm.DB, username, password string, superuser bool) user.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("Failed to hash password: %v", err)
	}

	u := user.User{
		ID:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		IsSuperuser:  superuser,
		IsActive:     true,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := db.WithContext(context.Background()).Create(&u).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}
	return u
}

// CreateTestQuestion inserts a question with the given choices, newest-first
// ordering follows publishedAt.
func CreateTestQuestion(t *testing.T, db *gorm.DB, text string, publishedAt time.Time, choices ...string) poll.Question {
	t.Helper()

	q := poll.Question{
		ID:          uuid.New(),
		Text:        text,
		PublishedAt: publishedAt,
	}
	for _, c := range choices {
		q.Choices = append(q.Choices, poll.Choice{
			ID:         uuid.New(),
			QuestionID: q.ID,
			Text:       c,
		})
	}
	if err := db.Create(&q).Error; err != nil {
		t.Fatalf("Failed to create test question: %v", err)
	}
	return q
}

// MakeRequest creates an HTTP test request with an optional JSON body.
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

// AssertStatus checks that the response has the expected status code.
func AssertStatus(t *testing.T, w *httptest.ResponseRecorder, expected int) {
	t.Helper()
	if w.Code != expected {
		t.Errorf("Expected status %d, got %d. Body: %s", expected, w.Code, w.Body.String())
	}
}

// AssertJSON decodes the response body into the provided struct.
func AssertJSON(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(v); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}
