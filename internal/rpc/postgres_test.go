package rpc

import (
	"context"
	"database/sql"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newMockDB creates a sqlmock database with automatic cleanup and expectation checking.
func newMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := mock.ExpectationsWereMet(); err != nil {
			t.Errorf("unfulfilled expectations: %v", err)
		}
		db.Close()
	})
	return db, mock
}

func TestBuildCall(t *testing.T) {
	query, args, err := buildCall(SetOf("admin_search_products"), Params{
		"query":       "salt%",
		"search_type": "starts_with",
		"limit_count": 21,
		"page_offset": 0,
	})
	require.NoError(t, err)
	assert.Equal(t,
		`SELECT COALESCE(json_agg(t), '[]'::json) FROM "admin_search_products"(`+
			`"limit_count" => $1, "page_offset" => $2, "query" => $3, "search_type" => $4) AS t`,
		query)
	assert.Equal(t, []any{21, 0, "salt%", "starts_with"}, args)

	query, args, err = buildCall(Scalar("public.admin_user_stats"), nil)
	require.NoError(t, err)
	assert.Equal(t, `SELECT to_json("public"."admin_user_stats"())`, query)
	assert.Empty(t, args)
}

func TestSQLValue(t *testing.T) {
	id := uuid.MustParse("6f1c2f1e-3d4b-4b8e-9a39-2d0b5d1f7a10")
	var nilString *string
	var nilMap map[string]any

	tests := []struct {
		name string
		in   any
		want any
	}{
		{name: "nil", in: nil, want: nil},
		{name: "string", in: "x", want: "x"},
		{name: "nil pointer", in: nilString, want: nil},
		{name: "uuid", in: id, want: id.String()},
		{name: "string slice", in: []string{"vegan", "null"}, want: pq.Array([]string{"vegan", "null"})},
		{name: "map as json", in: map[string]any{"name": "Oat milk"}, want: `{"name":"Oat milk"}`},
		{name: "nil map as json", in: nilMap, want: "null"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := sqlValue(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestPostgresCaller_CallSet(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewPostgresCallerFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM "admin_search_profiles"("limit_count" => $1, "page_offset" => $2, "query" => $3) AS t`)).
		WithArgs(11, 10, "bob").
		WillReturnRows(sqlmock.NewRows([]string{"json"}).AddRow([]byte(`[{"email":"bob@example.com"}]`)))

	var out []struct {
		Email string `json:"email"`
	}
	err := c.Call(context.Background(), SetOf("admin_search_profiles"), Params{
		"query": "bob", "limit_count": 11, "page_offset": 10,
	}, &out)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, "bob@example.com", out[0].Email)
}

func TestPostgresCaller_CallScalarNull(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewPostgresCallerFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_json("delete_ingredient"("ingredient_title" => $1))`)).
		WithArgs("lard").
		WillReturnRows(sqlmock.NewRows([]string{"to_json"}).AddRow(nil))

	var out map[string]any
	require.NoError(t, c.Call(context.Background(), Scalar("delete_ingredient"), Params{"ingredient_title": "lard"}, &out))
	assert.Nil(t, out)
}

func TestPostgresCaller_PQErrorIsWrapped(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewPostgresCallerFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_json("admin_nope"())`)).
		WillReturnError(&pq.Error{Code: "42883", Message: "function admin_nope() does not exist", Hint: "No function matches"})

	err := c.Call(context.Background(), Scalar("admin_nope"), nil, nil)
	require.Error(t, err)
	rpcErr, ok := AsError(err)
	require.True(t, ok)
	assert.Equal(t, "42883", rpcErr.Code)
	assert.Equal(t, "No function matches", rpcErr.Hint)
	assert.True(t, IsNotFound(err))
}

func TestPostgresCaller_OtherErrors(t *testing.T) {
	db, mock := newMockDB(t)
	c := NewPostgresCallerFromDB(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT to_json("admin_user_stats"())`)).
		WillReturnError(sql.ErrConnDone)

	err := c.Call(context.Background(), Scalar("admin_user_stats"), nil, nil)
	assert.ErrorIs(t, err, sql.ErrConnDone)
	_, ok := AsError(err)
	assert.False(t, ok)

	assert.ErrorIs(t, c.Call(context.Background(), Procedure{Name: " "}, nil, nil), ErrEmptyProcedure)
}

func TestPostgresCaller_Close(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	mock.ExpectClose()

	require.NoError(t, NewPostgresCallerFromDB(db).Close())
	assert.NoError(t, mock.ExpectationsWereMet())
}
