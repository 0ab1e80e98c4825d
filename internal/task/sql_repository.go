package task

import (
	"context"
	"database/sql"
	stdErrors "errors"

	xerrors "TaskManager/internal/errors"
	"TaskManager/internal/storage"
)

const (
	insertTaskSQL  = `INSERT INTO tasks (title, description) VALUES (?, ?)`
	selectTasksSQL = `SELECT id, title, description FROM tasks ORDER BY id ASC`
	selectTaskSQL  = `SELECT id, title, description FROM tasks WHERE id = ?`
	updateTaskSQL  = `UPDATE tasks SET title = ?, description = ? WHERE id = ?`
	deleteTaskSQL  = `DELETE FROM tasks WHERE id = ?`
)

// SQLRepository 使用 storage.Store 持久化任务。
type SQLRepository struct {
	store *storage.Store
}

// NewSQLRepository 基于已打开的 Store 构造仓库。
func NewSQLRepository(store *storage.Store) *SQLRepository {
	return &SQLRepository{store: store}
}

// Create 插入一条新任务并返回带有新 ID 的实体。
func (r *SQLRepository) Create(ctx context.Context, title, description string) (*Task, error) {
	if err := checkLengths(title, description); err != nil {
		return nil, err
	}
	result, err := r.store.Exec(ctx, insertTaskSQL, title, description)
	if err != nil {
		return nil, translateStorageError(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, xerrors.Wrap(xerrors.CodeStorageFailure, err, "读取新任务 ID 失败")
	}
	return &Task{ID: id, Title: title, Description: description}, nil
}

// FindAll 按 ID 升序返回所有任务。
func (r *SQLRepository) FindAll(ctx context.Context) ([]*Task, error) {
	rows, err := r.store.Query(ctx, selectTasksSQL)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tasks := make([]*Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, r.store.Wrap(err, "解析任务记录失败")
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, r.store.Wrap(err, "遍历任务记录失败")
	}
	return tasks, nil
}

// FindByID 查询单个任务，不存在时返回 ErrTaskNotFound。
func (r *SQLRepository) FindByID(ctx context.Context, id int64) (*Task, error) {
	task, err := scanTask(r.store.QueryRow(ctx, selectTaskSQL, id))
	if err != nil {
		if stdErrors.Is(err, sql.ErrNoRows) {
			return nil, ErrTaskNotFound
		}
		return nil, r.store.Wrap(err, "查询任务失败")
	}
	return task, nil
}

// Update 覆盖任务的标题与描述，并返回重新读取的结果。
func (r *SQLRepository) Update(ctx context.Context, id int64, title, description string) (*Task, error) {
	if err := checkLengths(title, description); err != nil {
		return nil, err
	}
	// MySQL 对未变化的行返回 0 affected rows，因此以回读结果判断是否存在。
	if _, err := r.store.Exec(ctx, updateTaskSQL, title, description, id); err != nil {
		return nil, translateStorageError(err)
	}
	return r.FindByID(ctx, id)
}

// Delete 删除任务，任务不存在时视为成功。
func (r *SQLRepository) Delete(ctx context.Context, id int64) error {
	if _, err := r.store.Exec(ctx, deleteTaskSQL, id); err != nil {
		return err
	}
	return nil
}

// Close 关闭底层存储。
func (r *SQLRepository) Close() error {
	if r == nil || r.store == nil {
		return nil
	}
	return r.store.Close()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (*Task, error) {
	var (
		task        Task
		title       sql.NullString
		description sql.NullString
	)
	if err := row.Scan(&task.ID, &title, &description); err != nil {
		return nil, err
	}
	task.Title = title.String
	task.Description = description.String
	return &task, nil
}

func translateStorageError(err error) error {
	if stdErrors.Is(err, storage.ErrValueTooLong) {
		return xerrors.Wrap(CodeTaskValidation, err, "title or description is too long")
	}
	return err
}

var _ Repository = (*SQLRepository)(nil)
