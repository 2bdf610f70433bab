package repository

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/mock"
)

type MockDB struct {
	mock.Mock
}

func (m *MockDB) Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	a := m.Called(sql, args)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(pgx.Rows), a.Error(1)
}

func (m *MockDB) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(sql, args)
	return a.Get(0).(pgx.Row)
}

func (m *MockDB) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	a := m.Called(sql, arguments)
	return a.Get(0).(pgconn.CommandTag), a.Error(1)
}

func (m *MockDB) BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error) {
	a := m.Called(txOptions)
	if a.Get(0) == nil {
		return nil, a.Error(1)
	}
	return a.Get(0).(pgx.Tx), a.Error(1)
}

// MockTx overrides the pgx.Tx methods the ledger calls; anything else panics
// on the nil embedded interface.
type MockTx struct {
	pgx.Tx
	mock.Mock
}

func (m *MockTx) Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error) {
	a := m.Called(sql, arguments)
	return a.Get(0).(pgconn.CommandTag), a.Error(1)
}

func (m *MockTx) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	a := m.Called(sql, args)
	return a.Get(0).(pgx.Row)
}

func (m *MockTx) Commit(ctx context.Context) error {
	return m.Called().Error(0)
}

func (m *MockTx) Rollback(ctx context.Context) error {
	return m.Called().Error(0)
}

// errRow is a pgx.Row whose Scan fails.
type errRow struct {
	err error
}

func (r errRow) Scan(dest ...any) error {
	return r.err
}

func sqlContaining(fragment string) any {
	return mock.MatchedBy(func(sql string) bool {
		return strings.Contains(sql, fragment)
	})
}
