package storage

import (
	"context"
	"database/sql"
	stdErrors "errors"
	"fmt"
	"net/http"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"

	xerrors "TaskManager/internal/errors"
)

const (
	// DriverSQLite 是默认的本地文件数据库驱动。
	DriverSQLite = "sqlite3"
	// DriverMySQL 使用 go-sql-driver/mysql。
	DriverMySQL = "mysql"
)

// CodeValueTooLong 表示写入的值超过了列定义的长度。
const CodeValueTooLong xerrors.Code = "STORAGE_VALUE_TOO_LONG"

var (
	// ErrUnsupportedDriver 表示配置了未知的数据库驱动。
	ErrUnsupportedDriver = stdErrors.New("暂不支持的存储驱动")
	// ErrValueTooLong 在数据库拒绝超长字段时返回。
	ErrValueTooLong = xerrors.New(CodeValueTooLong, "字段长度超出限制")
)

func init() {
	xerrors.Register(CodeValueTooLong, xerrors.Attributes{
		Message:    "value too long for column",
		Severity:   xerrors.SeverityInfo,
		HTTPStatus: http.StatusBadRequest,
	})
}

// Store 持有任务表所在数据库的显式句柄，可安全地被并发使用。
type Store struct {
	db     *sql.DB
	driver string
}

// Open 建立数据库连接并初始化 tasks 表。
func Open(ctx context.Context, cfg Config) (*Store, error) {
	switch cfg.Driver {
	case DriverSQLite, DriverMySQL:
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedDriver, cfg.Driver)
	}

	db, err := openDatabase(ctx, cfg)
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "打开数据库失败")
	}

	store := &Store{db: db, driver: cfg.Driver}
	if err := store.initSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// New 使用已经打开的数据库句柄构造 Store，不会执行建表。
func New(db *sql.DB, driver string) *Store {
	return &Store{db: db, driver: driver}
}

// Driver 返回底层驱动名称。
func (s *Store) Driver() string {
	return s.driver
}

// Exec 执行不返回结果集的参数化语句。
func (s *Store) Exec(ctx context.Context, stmt string, args ...any) (sql.Result, error) {
	result, err := s.db.ExecContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.wrap(err, "执行语句失败")
	}
	return result, nil
}

// Query 执行参数化查询并返回结果集，调用方负责关闭 rows。
func (s *Store) Query(ctx context.Context, stmt string, args ...any) (*sql.Rows, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.wrap(err, "查询失败")
	}
	return rows, nil
}

// QueryRow 执行最多返回一行的查询，错误在 Scan 时返回。
func (s *Store) QueryRow(ctx context.Context, stmt string, args ...any) *sql.Row {
	return s.db.QueryRowContext(ctx, stmt, args...)
}

// Ping 检查数据库是否可用。
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.db == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "数据库未初始化")
	}
	if err := s.db.PingContext(ctx); err != nil {
		return s.wrap(err, "数据库不可用")
	}
	return nil
}

// Close 关闭底层数据库连接。
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Wrap 将驱动错误转换为统一错误类型，供 Scan 等调用方复用。
func (s *Store) Wrap(err error, message string) error {
	return s.wrap(err, message)
}

func (s *Store) wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	var mysqlErr *mysql.MySQLError
	if stdErrors.As(err, &mysqlErr) && mysqlErr.Number == 1406 {
		return xerrors.Wrap(CodeValueTooLong, err, ErrValueTooLong.Message())
	}
	return xerrors.Wrap(xerrors.CodeStorageFailure, err, message)
}
