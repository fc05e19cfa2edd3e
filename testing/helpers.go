// Package testing provides test utilities for dbbind.
package testing

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/zoobzio/dbbind"
	"github.com/zoobzio/dbbind/schema"
	"github.com/zoobzio/dbml"
)

// User is a fixture model registered against the users table.
type User struct {
	ID        int64
	Username  string
	Email     string
	Age       *int
	Active    bool
	CreatedAt time.Time
	Metadata  []byte
}

// Post is a fixture model registered against the posts table.
type Post struct {
	ID        int64
	UserID    int64
	Title     string
	Body      string
	Published bool
	CreatedAt time.Time
}

// Order is a fixture model with tag-declared names and types. It is not tied
// to the schema.
type Order struct {
	ID     int64  `db:"id"`
	UserID int64  `db:"user_id"`
	Total  string `db:"total" dbtype:"decimal"`
	Status string `db:"status" dbtype:"varchar"`
	Note   string `db:"-"`
}

// TestProject returns the DBML project the fixture models are registered
// against.
func TestProject() *dbml.Project {
	project := dbml.NewProject("test")

	users := dbml.NewTable("users")
	users.AddColumn(dbml.NewColumn("id", "bigint"))
	users.AddColumn(dbml.NewColumn("username", "varchar"))
	users.AddColumn(dbml.NewColumn("email", "varchar"))
	users.AddColumn(dbml.NewColumn("age", "int"))
	users.AddColumn(dbml.NewColumn("active", "boolean"))
	users.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	users.AddColumn(dbml.NewColumn("metadata", "jsonb"))
	project.AddTable(users)

	posts := dbml.NewTable("posts")
	posts.AddColumn(dbml.NewColumn("id", "bigint"))
	posts.AddColumn(dbml.NewColumn("user_id", "bigint"))
	posts.AddColumn(dbml.NewColumn("title", "varchar"))
	posts.AddColumn(dbml.NewColumn("body", "text"))
	posts.AddColumn(dbml.NewColumn("published", "boolean"))
	posts.AddColumn(dbml.NewColumn("created_at", "timestamp"))
	project.AddTable(posts)

	return project
}

// TestBinder creates a Binder with the standard registry, snake_case naming
// and the fixture models registered.
func TestBinder(tb testing.TB) *dbbind.Binder {
	tb.Helper()

	s, err := schema.New(TestProject())
	if err != nil {
		tb.Fatalf("Failed to index test schema: %v", err)
	}
	catalog := dbbind.NewCatalog(dbbind.SnakeCase, nil)
	if _, err := schema.Register[User](s, catalog, "users"); err != nil {
		tb.Fatalf("Failed to register User: %v", err)
	}
	if _, err := schema.Register[Post](s, catalog, "posts"); err != nil {
		tb.Fatalf("Failed to register Post: %v", err)
	}

	return dbbind.New(
		dbbind.WithRegistry(dbbind.StandardRegistry().Build()),
		dbbind.WithCatalog(catalog),
	)
}

// AssertTriples compares bound triples in order, reporting every mismatch.
func AssertTriples(t *testing.T, expected, actual []dbbind.Triple) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Triple count mismatch: expected %d, got %d\nExpected: %v\nActual:   %v",
			len(expected), len(actual), expected, actual)
		return
	}
	for i := range expected {
		if !sameTriple(expected[i], actual[i]) {
			t.Errorf("Triple %d mismatch:\nExpected: %v\nActual:   %v", i, expected[i], actual[i])
		}
	}
}

func sameTriple(a, b dbbind.Triple) bool {
	return a.Name == b.Name && a.DbType == b.DbType && reflect.DeepEqual(a.Value, b.Value)
}

// AssertNames checks bound names in order.
func AssertNames(t *testing.T, expected, actual []string) {
	t.Helper()
	if len(expected) != len(actual) {
		t.Errorf("Name count mismatch: expected %d, got %d\nExpected: %v\nActual:   %v",
			len(expected), len(actual), expected, actual)
		return
	}
	for i := range expected {
		if expected[i] != actual[i] {
			t.Errorf("Name %d mismatch: expected %q, got %q", i, expected[i], actual[i])
		}
	}
}

// AssertContainsParam checks that a specific name is in the list.
func AssertContainsParam(t *testing.T, names []string, name string) {
	t.Helper()
	for _, n := range names {
		if n == name {
			return
		}
	}
	t.Errorf("Expected param %q not found in %v", name, names)
}

// AssertNoError fails the test if err is not nil.
func AssertNoError(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
}

// AssertError fails the test if err is nil.
func AssertError(t *testing.T, err error) {
	t.Helper()
	if err == nil {
		t.Fatal("Expected error but got nil")
	}
}

// AssertErrorIs fails the test unless errors.Is(err, target).
func AssertErrorIs(t *testing.T, err, target error) {
	t.Helper()
	if !errors.Is(err, target) {
		t.Fatalf("Expected error matching %v, got: %v", target, err)
	}
}

// AssertErrorContains checks that the error message contains substr.
func AssertErrorContains(t *testing.T, err error, substr string) {
	t.Helper()
	if err == nil {
		t.Fatalf("Expected error containing %q but got nil", substr)
	}
	if !strings.Contains(err.Error(), substr) {
		t.Errorf("Expected error containing %q, got: %v", substr, err)
	}
}

// AssertPanics verifies that fn panics.
func AssertPanics(t *testing.T, fn func()) {
	t.Helper()
	if _, ok := recoverPanic(fn); !ok {
		t.Error("Expected panic but function completed normally")
	}
}

// AssertPanicsWithMessage verifies that fn panics with a message containing
// substr.
func AssertPanicsWithMessage(t *testing.T, fn func(), substr string) {
	t.Helper()
	msg, ok := recoverPanic(fn)
	if !ok {
		t.Errorf("Expected panic containing %q but function completed normally", substr)
		return
	}
	if !strings.Contains(msg, substr) {
		t.Errorf("Expected panic containing %q, got: %s", substr, msg)
	}
}

// recoverPanic runs fn and returns the panic message, if any.
func recoverPanic(fn func()) (msg string, panicked bool) {
	defer func() {
		r := recover()
		if r == nil {
			return
		}
		panicked = true
		switch v := r.(type) {
		case error:
			msg = v.Error()
		case string:
			msg = v
		default:
			msg = fmt.Sprint(v)
		}
	}()
	fn()
	return "", false
}
