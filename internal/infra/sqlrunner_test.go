package infra

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
)

type recordingExecutor struct {
	queries []string
}

func (r *recordingExecutor) Exec(_ context.Context, query string, _ ...any) (pgconn.CommandTag, error) {
	r.queries = append(r.queries, query)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (r *recordingExecutor) QueryRow(_ context.Context, query string, _ ...any) pgx.Row {
	r.queries = append(r.queries, query)
	return errorRow{err: pgx.ErrNoRows}
}

func (r *recordingExecutor) Query(_ context.Context, query string, _ ...any) (pgx.Rows, error) {
	r.queries = append(r.queries, query)
	return nil, errors.New("not implemented")
}

func TestExtractMarker(t *testing.T) {
	tests := []struct {
		name    string
		query   string
		marker  string
		body    string
		wantErr bool
	}{
		{
			name:   "marked statement",
			query:  "--sql 0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61\nselect 1;",
			marker: "0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61",
			body:   "select 1;",
		},
		{
			name:   "leading whitespace",
			query:  "\n\t--sql 0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61\nselect 1;\n",
			marker: "0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61",
			body:   "select 1;",
		},
		{
			name:    "missing marker",
			query:   "select 1;",
			wantErr: true,
		},
		{
			name:    "malformed uuid",
			query:   "--sql not-a-uuid\nselect 1;",
			wantErr: true,
		},
		{
			name:    "empty",
			query:   "",
			wantErr: true,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			marker, body, err := extractMarker(tc.query)
			if tc.wantErr {
				if !errors.Is(err, ErrMissingMarker) {
					t.Fatalf("extractMarker() error = %v, want ErrMissingMarker", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("extractMarker() error = %v", err)
			}
			if marker != tc.marker {
				t.Fatalf("marker = %q, want %q", marker, tc.marker)
			}
			if strings.TrimSpace(body) != tc.body {
				t.Fatalf("body = %q, want %q", body, tc.body)
			}
		})
	}
}

func TestSQLRunnerStripsMarker(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.New(io.Discard))

	tag, err := runner.Exec(context.Background(), "--sql 0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61\ninsert into t values (1);")
	if err != nil {
		t.Fatalf("Exec error: %v", err)
	}
	if tag.RowsAffected() != 1 {
		t.Fatalf("RowsAffected = %d, want 1", tag.RowsAffected())
	}
	if len(exec.queries) != 1 || strings.Contains(exec.queries[0], "--sql") {
		t.Fatalf("executor received %#v, want marker stripped", exec.queries)
	}
}

func TestSQLRunnerRejectsUnmarkedQueries(t *testing.T) {
	exec := &recordingExecutor{}
	runner := NewSQLRunner(exec, zerolog.New(io.Discard))

	if _, err := runner.Exec(context.Background(), "delete from t;"); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("Exec error = %v, want ErrMissingMarker", err)
	}
	var v string
	if err := runner.QueryRow(context.Background(), "select 1;").Scan(&v); !errors.Is(err, ErrMissingMarker) {
		t.Fatalf("QueryRow error = %v, want ErrMissingMarker", err)
	}
	if len(exec.queries) != 0 {
		t.Fatalf("executor should not be called, got %#v", exec.queries)
	}
}

func TestSQLRunnerPassesNoRows(t *testing.T) {
	runner := NewSQLRunner(&recordingExecutor{}, zerolog.New(io.Discard))
	var v string
	err := runner.QueryRow(context.Background(), "--sql 0f5c4d8e-2b0a-4a57-9d3f-5a0c9d8b7e61\nselect v from t;").Scan(&v)
	if !IsNoRows(err) {
		t.Fatalf("Scan error = %v, want pgx.ErrNoRows", err)
	}
}
