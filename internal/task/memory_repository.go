package task

import (
	"context"
	"sort"
	"sync"
)

// MemoryRepository 以内存方式保存任务，主要用于测试和演示。
type MemoryRepository struct {
	mu     sync.RWMutex
	nextID int64
	tasks  map[int64]*Task
}

// NewMemoryRepository 创建 MemoryRepository。
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{tasks: make(map[int64]*Task)}
}

// Create 实现 Repository 接口。
func (m *MemoryRepository) Create(_ context.Context, title, description string) (*Task, error) {
	if err := checkLengths(title, description); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.nextID++
	task := &Task{ID: m.nextID, Title: title, Description: description}
	m.tasks[task.ID] = task
	return cloneTask(task), nil
}

// FindAll 按 ID 升序返回全部任务。
func (m *MemoryRepository) FindAll(_ context.Context) ([]*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	results := make([]*Task, 0, len(m.tasks))
	for _, task := range m.tasks {
		results = append(results, cloneTask(task))
	}
	sort.Slice(results, func(i, j int) bool {
		return results[i].ID < results[j].ID
	})
	return results, nil
}

// FindByID 返回任务副本。
func (m *MemoryRepository) FindByID(_ context.Context, id int64) (*Task, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	return cloneTask(task), nil
}

// Update 覆盖标题与描述。
func (m *MemoryRepository) Update(_ context.Context, id int64, title, description string) (*Task, error) {
	if err := checkLengths(title, description); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.tasks[id]
	if !ok {
		return nil, ErrTaskNotFound
	}
	task.Title = title
	task.Description = description
	return cloneTask(task), nil
}

// Delete 删除任务，不存在时为空操作。
func (m *MemoryRepository) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tasks, id)
	return nil
}

// Close 对内存仓库无需操作。
func (m *MemoryRepository) Close() error {
	return nil
}

var _ Repository = (*MemoryRepository)(nil)
