package task

import "context"

// Repository 负责在数据行与 Task 实体之间转换，并提供增删改查。
// 每次读取都直接访问存储，返回的 Task 是调用方独享的副本。
type Repository interface {
	Create(ctx context.Context, title, description string) (*Task, error)
	FindAll(ctx context.Context) ([]*Task, error)
	FindByID(ctx context.Context, id int64) (*Task, error)
	Update(ctx context.Context, id int64, title, description string) (*Task, error)
	// Delete 删除指定任务，任务不存在时不返回错误。
	Delete(ctx context.Context, id int64) error
	Close() error
}
