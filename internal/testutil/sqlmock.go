// Package testutil contains helpers shared by package tests.
package testutil

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"io"
	"strings"
	"sync/atomic"
	"testing"
)

type operationType int

const (
	opExec operationType = iota
	opQuery
)

func (o operationType) String() string {
	if o == opQuery {
		return "query"
	}
	return "exec"
}

// Operation 描述 mock 驱动期望收到的一次调用。
type Operation struct {
	typ    operationType
	query  string
	result Result
	rows   Rows
	err    error
}

// Result 是 Exec 调用返回的结果。
type Result struct {
	InsertID int64
	Affected int64
}

func (r Result) LastInsertId() (int64, error) { return r.InsertID, nil }
func (r Result) RowsAffected() (int64, error) { return r.Affected, nil }

// Rows 是 Query 调用返回的结果集。
type Rows struct {
	Columns []string
	Values  [][]driver.Value
}

// ExecOp 期望一次 Exec 调用。
func ExecOp(query string, result Result) Operation {
	return Operation{typ: opExec, query: query, result: result}
}

// ExecErrOp 期望一次返回错误的 Exec 调用。
func ExecErrOp(query string, err error) Operation {
	return Operation{typ: opExec, query: query, err: err}
}

// QueryOp 期望一次 Query 调用。
func QueryOp(query string, rows Rows) Operation {
	return Operation{typ: opQuery, query: query, rows: rows}
}

// QueryErrOp 期望一次返回错误的 Query 调用。
func QueryErrOp(query string, err error) Operation {
	return Operation{typ: opQuery, query: query, err: err}
}

// QueueDriver 按顺序消费预设的操作，SQL 比较时忽略空白差异。
type QueueDriver struct {
	ops []Operation
	idx int32
}

var driverSeq atomic.Int32

// NewMockDB 注册一个新的 mock 驱动并返回对应的 *sql.DB。
func NewMockDB(t *testing.T, ops ...Operation) (*sql.DB, *QueueDriver) {
	t.Helper()

	drv := &QueueDriver{ops: ops}
	name := fmt.Sprintf("mock-sql-%d", driverSeq.Add(1))
	sql.Register(name, drv)

	db, err := sql.Open(name, "")
	if err != nil {
		t.Fatalf("open mock db failed: %v", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })
	return db, drv
}

// AssertConsumed 确认所有预设操作都已被执行。
func (d *QueueDriver) AssertConsumed(t *testing.T) {
	t.Helper()

	if got := int(atomic.LoadInt32(&d.idx)); got != len(d.ops) {
		t.Fatalf("not all operations consumed: %d/%d", got, len(d.ops))
	}
}

// Open 实现 driver.Driver。
func (d *QueueDriver) Open(string) (driver.Conn, error) {
	return &mockConn{driver: d}, nil
}

func (d *QueueDriver) next(expected operationType, query string) (*Operation, error) {
	idx := int(atomic.LoadInt32(&d.idx))
	if idx >= len(d.ops) {
		return nil, fmt.Errorf("unexpected %s: %s", expected, query)
	}
	op := &d.ops[idx]
	if op.typ != expected {
		return nil, fmt.Errorf("expected operation %s, got %s", op.typ, expected)
	}
	atomic.AddInt32(&d.idx, 1)
	if op.query != "" && normalizeSQL(op.query) != normalizeSQL(query) {
		return nil, fmt.Errorf("unexpected query. want %q got %q", normalizeSQL(op.query), normalizeSQL(query))
	}
	return op, nil
}

type mockConn struct {
	driver *QueueDriver
}

func (c *mockConn) Prepare(query string) (driver.Stmt, error) {
	return nil, fmt.Errorf("prepare not supported: %s", query)
}

func (c *mockConn) Close() error { return nil }

func (c *mockConn) Begin() (driver.Tx, error) {
	return nil, fmt.Errorf("transactions not supported")
}

func (c *mockConn) ExecContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Result, error) {
	op, err := c.driver.next(opExec, query)
	if err != nil {
		return nil, err
	}
	if op.err != nil {
		return nil, op.err
	}
	return op.result, nil
}

func (c *mockConn) QueryContext(_ context.Context, query string, _ []driver.NamedValue) (driver.Rows, error) {
	op, err := c.driver.next(opQuery, query)
	if err != nil {
		return nil, err
	}
	if op.err != nil {
		return nil, op.err
	}
	return &mockRows{columns: op.rows.Columns, values: op.rows.Values}, nil
}

func (c *mockConn) Ping(context.Context) error { return nil }

type mockRows struct {
	columns []string
	values  [][]driver.Value
	idx     int
}

func (r *mockRows) Columns() []string { return r.columns }
func (r *mockRows) Close() error      { return nil }

func (r *mockRows) Next(dest []driver.Value) error {
	if r.idx >= len(r.values) {
		return io.EOF
	}
	copy(dest, r.values[r.idx])
	r.idx++
	return nil
}

func normalizeSQL(query string) string {
	return strings.Join(strings.Fields(query), " ")
}
