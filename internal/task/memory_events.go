package task

import (
	"context"
	"sync"

	xerrors "TaskManager/internal/errors"
)

// MemoryPublisher 使用带缓冲的 channel 保存事件，主要用于测试和本地调试。
type MemoryPublisher struct {
	ch     chan Event
	mu     sync.Mutex
	closed bool
}

// NewMemoryPublisher 创建一个内存事件通道。
func NewMemoryPublisher(size int) *MemoryPublisher {
	if size <= 0 {
		size = 64
	}
	return &MemoryPublisher{ch: make(chan Event, size)}
}

// Publish 将事件写入缓冲区，缓冲区已满时立即返回错误而不阻塞请求。
func (p *MemoryPublisher) Publish(ctx context.Context, event Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return xerrors.New(xerrors.CodeEventFailure, "事件通道已关闭")
	}
	select {
	case <-ctx.Done():
		return ctx.Err()
	case p.ch <- event:
		return nil
	default:
		return xerrors.New(xerrors.CodeEventFailure, "事件缓冲区已满")
	}
}

// Events 返回只读事件通道，Close 之后通道会被关闭。
func (p *MemoryPublisher) Events() <-chan Event {
	return p.ch
}

// Close 关闭事件通道。
func (p *MemoryPublisher) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if !p.closed {
		close(p.ch)
		p.closed = true
	}
	return nil
}
