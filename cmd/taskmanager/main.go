package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"TaskManager/internal/api"
	"TaskManager/internal/config"
	"TaskManager/internal/observability/metrics"
	"TaskManager/internal/site"
	"TaskManager/internal/storage"
	"TaskManager/internal/task"
	"TaskManager/internal/view"
	"TaskManager/pkg/logger"
)

// main 是任务管理服务的入口。
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCommand().ExecuteContext(ctx); err != nil {
		log.Fatalf("taskmanager 运行失败: %v", err)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	root := &cobra.Command{
		Use:           "taskmanager",
		Short:         "Task manager web application and personal site",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			// .env 为可选文件，不存在时忽略。
			if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("加载 .env 失败: %w", err)
			}
			return nil
		},
	}
	root.PersistentFlags().StringVar(&configPath, "config", "", "配置文件路径，默认读取 TASKMANAGER_CONFIG 或 configs/taskmanager.json")

	root.AddCommand(newServeCommand(&configPath), newSiteCommand(&configPath))
	return root
}

func newServeCommand(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the task manager",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			return runServe(cmd.Context(), cfg)
		},
	}
}

func newSiteCommand(configPath *string) *cobra.Command {
	var variant string
	cmd := &cobra.Command{
		Use:   "site",
		Short: "Serve the static personal site",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig(*configPath)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if variant != "" {
				cfg.Server.SiteVariant = variant
			}
			return runSite(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&variant, "variant", "", "站点变体: "+strings.Join(site.Variants(), ", "))
	return cmd
}

// loadConfig 读取配置并据此初始化日志。
func loadConfig(path string) (*config.Config, error) {
	if path == "" {
		path = os.Getenv("TASKMANAGER_CONFIG")
	}
	if path == "" {
		path = config.DefaultPath
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Runtime.DataDir, 0o755); err != nil {
		return nil, err
	}
	if err := logger.Init(logger.Config{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: cfg.Logging.Outputs,
		Audit: logger.AuditConfig{
			Enabled:    cfg.Logging.Audit.Enabled,
			Path:       cfg.Logging.Audit.Path,
			MaxSizeMB:  cfg.Logging.Audit.MaxSizeMB,
			MaxBackups: cfg.Logging.Audit.MaxBackups,
			MaxAgeDays: cfg.Logging.Audit.MaxAgeDays,
		},
	}); err != nil {
		return nil, fmt.Errorf("初始化日志失败: %w", err)
	}
	return cfg, nil
}

func runServe(ctx context.Context, cfg *config.Config) error {
	store, err := storage.Open(ctx, storage.Config{
		Driver:          cfg.Storage.Driver,
		DSN:             cfg.Storage.DSN,
		MaxOpenConns:    cfg.Storage.MaxOpenConns,
		MaxIdleConns:    cfg.Storage.MaxIdleConns,
		ConnMaxLifetime: cfg.Storage.ConnMaxLifetime(),
		ConnMaxIdleTime: cfg.Storage.ConnMaxIdleTime(),
	})
	if err != nil {
		return err
	}

	publisher, err := createPublisher(ctx, cfg.Events)
	if err != nil {
		_ = store.Close()
		return err
	}

	if memory, ok := publisher.(*task.MemoryPublisher); ok {
		go logEvents(memory)
	}

	svc := task.NewService(task.NewSQLRepository(store), publisher)
	defer func() {
		if err := svc.Close(); err != nil {
			logger.L().Warn("关闭任务服务失败", slog.Any("error", err))
		}
	}()

	renderer, err := view.New()
	if err != nil {
		return err
	}

	logger.L().Info("任务管理服务启动",
		slog.String("addr", cfg.Server.Address),
		slog.String("storage", store.Driver()),
		slog.String("events", cfg.Events.Driver),
	)
	if addr := cfg.Server.MetricsAddress; addr != "" {
		go func() {
			if err := metrics.Default().StartServer(ctx, addr); err != nil && !errors.Is(err, context.Canceled) {
				logger.L().Error("指标服务异常退出", slog.Any("error", err), slog.String("addr", addr))
			}
		}()
	}

	server := api.NewServer(cfg.Server.Address, svc, renderer, store)
	if err := server.Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func runSite(ctx context.Context, cfg *config.Config) error {
	st, err := site.New(cfg.Server.SiteVariant)
	if err != nil {
		return err
	}
	logger.L().Info("静态站点启动",
		slog.String("addr", cfg.Server.SiteAddress),
		slog.String("variant", st.Variant()),
	)
	if err := api.NewSiteServer(cfg.Server.SiteAddress, st).Start(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// logEvents 消费内存事件通道并输出调试日志，通道关闭后退出。
func logEvents(publisher *task.MemoryPublisher) {
	eventLog := logger.Named("events")
	for event := range publisher.Events() {
		eventLog.Debug("任务变更事件",
			slog.String("event_id", event.ID),
			slog.String("type", string(event.Type)),
			slog.Int64("task_id", event.TaskID),
		)
	}
}

// createPublisher 按配置选择任务变更事件的投递方式。
func createPublisher(ctx context.Context, cfg config.EventsConfig) (task.Publisher, error) {
	switch cfg.Driver {
	case "", "none":
		return task.NoopPublisher{}, nil
	case "memory":
		return task.NewMemoryPublisher(1024), nil
	case "redis":
		publisher, err := task.NewRedisPublisher(ctx, task.RedisPublisherConfig{
			Address:  cfg.Redis.Address,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Key:      cfg.Redis.Key,
			MaxLen:   cfg.Redis.MaxLen,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	case "rabbitmq":
		publisher, err := task.NewRabbitMQPublisher(task.RabbitMQPublisherConfig{
			URL:     cfg.RabbitMQ.URL,
			Queue:   cfg.RabbitMQ.Queue,
			Durable: cfg.RabbitMQ.Durable,
		})
		if err != nil {
			return nil, err
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("未知的事件驱动: %s", cfg.Driver)
	}
}
