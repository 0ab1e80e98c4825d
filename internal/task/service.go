package task

import (
	"context"
	"errors"
	"log/slog"

	xerrors "TaskManager/internal/errors"
	"TaskManager/pkg/logger"
)

// Service 负责校验请求、调用仓库并广播任务变更。
type Service struct {
	repo      Repository
	publisher Publisher
}

// NewService 构造任务服务，publisher 为空时不投递事件。
func NewService(repo Repository, publisher Publisher) *Service {
	if publisher == nil {
		publisher = NoopPublisher{}
	}
	return &Service{repo: repo, publisher: publisher}
}

// Create 校验请求并创建任务。
func (s *Service) Create(ctx context.Context, req TaskRequest) (*Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := s.repo.Create(ctx, req.Title, req.Description)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("任务已创建",
		slog.Int64("task_id", task.ID),
		slog.String("title", task.Title),
	)
	s.publish(ctx, NewEvent(EventCreated, task))
	return task, nil
}

// List 返回全部任务。
func (s *Service) List(ctx context.Context) ([]*Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.FindAll(ctx)
}

// Get 返回指定任务。
func (s *Service) Get(ctx context.Context, id int64) (*Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	return s.repo.FindByID(ctx, id)
}

// Update 校验请求并覆盖指定任务。
func (s *Service) Update(ctx context.Context, id int64, req TaskRequest) (*Task, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	task, err := s.repo.Update(ctx, id, req.Title, req.Description)
	if err != nil {
		return nil, err
	}
	logger.Audit().Info("任务已更新",
		slog.Int64("task_id", task.ID),
		slog.String("title", task.Title),
	)
	s.publish(ctx, NewEvent(EventUpdated, task))
	return task, nil
}

// Delete 删除指定任务；任务不存在时直接返回 nil，也不会产生事件。
func (s *Service) Delete(ctx context.Context, id int64) error {
	if err := s.ready(); err != nil {
		return err
	}
	existing, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if IsNotFound(err) {
			return nil
		}
		return err
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Audit().Info("任务已删除", slog.Int64("task_id", id))
	s.publish(ctx, NewEvent(EventDeleted, existing))
	return nil
}

// Close 释放仓库与事件发布器。
func (s *Service) Close() error {
	var err error
	if s.repo != nil {
		err = errors.Join(err, s.repo.Close())
	}
	if s.publisher != nil {
		err = errors.Join(err, s.publisher.Close())
	}
	return err
}

func (s *Service) ready() error {
	if s == nil || s.repo == nil {
		return xerrors.New(xerrors.CodeInitializationFailure, "任务仓库未初始化")
	}
	return nil
}

// publish 尽力投递事件，失败只记录日志，不影响请求结果。
func (s *Service) publish(ctx context.Context, event Event) {
	if err := s.publisher.Publish(ctx, event); err != nil {
		logger.L().Warn("任务事件投递失败",
			slog.Any("error", err),
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
			slog.Int64("task_id", event.TaskID),
		)
	}
}
