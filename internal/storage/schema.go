package storage

import (
	"context"

	xerrors "TaskManager/internal/errors"
)

const sqliteSchema = `CREATE TABLE IF NOT EXISTS tasks (
        id INTEGER PRIMARY KEY AUTOINCREMENT,
        title VARCHAR(64),
        description VARCHAR(64)
)`

const mysqlSchema = `CREATE TABLE IF NOT EXISTS tasks (
        id BIGINT AUTO_INCREMENT PRIMARY KEY,
        title VARCHAR(64),
        description VARCHAR(64)
)`

// initSchema 按驱动方言创建 tasks 表，表已存在时不做任何修改。
func (s *Store) initSchema(ctx context.Context) error {
	schema := sqliteSchema
	if s.driver == DriverMySQL {
		schema = mysqlSchema
	}
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return xerrors.Wrap(xerrors.CodeStorageFailure, err, "初始化 tasks 表失败")
	}
	return nil
}
