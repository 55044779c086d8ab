package di

import (
	"fmt"
	"time"

	"FinSignal/internal/domain/repository"
	"FinSignal/internal/domain/service"
	"FinSignal/internal/handler/api"
	internalrepo "FinSignal/internal/repository"
	"FinSignal/internal/service/bybit"
	"FinSignal/internal/service/ratelimit"
	"FinSignal/internal/service/telegram"
	"FinSignal/internal/services/analytics"
	"FinSignal/internal/usecase"
	"FinSignal/pkg/cache"
	"FinSignal/pkg/config"
	pkgkafka "FinSignal/pkg/kafka"
	applogger "FinSignal/pkg/logger"
	"FinSignal/pkg/metrics"
	"FinSignal/pkg/server"
)

// runLockTTL outlives a scheduled minute slot so a peer replica cannot repeat it.
const runLockTTL = 2 * time.Minute

// ProvideKafkaProducer creates a Kafka producer, or nil when no brokers are configured.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, func(), error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return nil, func() {}, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, func() { _ = producer.Close() }, nil
}

// ProvideLogger builds the application logger. Error logs are shipped in
// batches to kafka.log_topic when both the topic and a producer exist.
func ProvideLogger(cfg *config.Config, producer *pkgkafka.Producer) (*applogger.Logger, func(), error) {
	l, err := applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
	if err != nil {
		return nil, nil, fmt.Errorf("logger: %w", err)
	}
	if producer == nil || cfg.Kafka.LogTopic == "" {
		return l, func() {}, nil
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          cfg.Kafka.LogTopic,
		Source:         cfg.Environment,
		Publisher:      internalrepo.NewLogPublisher(producer),
	})
	return l, l.RemoveCollector, nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideCache returns Redis when enabled, otherwise a process-local cache.
func ProvideCache(cfg *config.Config) (cache.Service, func(), error) {
	if !cfg.Redis.Enabled {
		c := cache.NewMemoryCache(cache.WithMemoryMaxSize(64), cache.WithMemoryCleanup(time.Minute))
		return c, func() { _ = c.Close() }, nil
	}
	c, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
		cache.WithRedisPoolSize(cfg.Redis.PoolSize),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("redis cache: %w", err)
	}
	return c, func() { _ = c.Close() }, nil
}

func ProvideUniverseCache(c cache.Service, cfg *config.Config, l *applogger.Logger) repository.UniverseCache {
	return internalrepo.NewUniverseCache(c, cfg.Bybit.UniverseTTL, l)
}

func ProvideRunLock(c cache.Service) repository.RunLock {
	return internalrepo.NewRunLock(c, runLockTTL)
}

// ProvideMarketData creates the Bybit REST client.
func ProvideMarketData(cfg *config.Config) repository.MarketData {
	return bybit.New(cfg.Bybit.BaseURL, cfg.Bybit.Timeout)
}

// ProvideNotifier selects the delivery transport.
func ProvideNotifier(cfg *config.Config, producer *pkgkafka.Producer, l *applogger.Logger) (repository.Notifier, error) {
	switch cfg.Notifier.Type {
	case "telegram":
		if err := cfg.ValidateCredentials(); err != nil {
			return nil, err
		}
		t := cfg.Notifier.Telegram
		return telegram.New(t.BaseURL, t.BotToken, t.ChatID, t.Timeout), nil
	case "kafka":
		if producer == nil {
			return nil, fmt.Errorf("kafka notifier: no brokers configured")
		}
		return internalrepo.NewKafkaNotifier(producer, cfg.Kafka.Topic), nil
	case "log":
		return internalrepo.NewLogNotifier(l), nil
	default:
		return nil, fmt.Errorf("unknown notifier %q", cfg.Notifier.Type)
	}
}

// ProvideEvaluator builds the configured indicator rules.
func ProvideEvaluator(cfg *config.Config) (service.Evaluator, error) {
	a := cfg.Analysis
	return analytics.NewEvaluatorFromNames(a.Rules, analytics.Params{
		KPeriod:      a.KPeriod,
		DPeriod:      a.DPeriod,
		FastPeriod:   a.FastPeriod,
		SlowPeriod:   a.SlowPeriod,
		SignalPeriod: a.SignalPeriod,
		Overbought:   a.Overbought,
		Oversold:     a.Oversold,
	})
}

func ProvideOrchestrator(
	cfg *config.Config,
	md repository.MarketData,
	n repository.Notifier,
	eval service.Evaluator,
	universe repository.UniverseCache,
	l *applogger.Logger,
	m repository.Metrics,
) *usecase.Orchestrator {
	p := cfg.Pipeline
	return usecase.NewOrchestrator(usecase.OrchestratorConfig{
		MessageLimit:       p.MessageLimit,
		MessageRateLimit:   p.MessageRateLimit,
		MaxConcurrentTasks: p.MaxConcurrentTasks,
		MaxWorkers:         p.MaxWorkers,
		ManualRun:          p.ManualRun,
		Intervals:          p.Intervals,
		Exclude:            p.Exclude,
		BarCount:           cfg.Analysis.BarCount,
		FetchAttempts:      p.FetchAttempts,
		FetchDelay:         p.FetchDelay,
		SendAttempts:       p.SendAttempts,
		SendBaseDelay:      p.SendBaseDelay,
	}, md, n, eval, universe, l, m)
}

func ProvideRunner(o *usecase.Orchestrator, lock repository.RunLock, l *applogger.Logger) *usecase.Runner {
	return usecase.NewRunner(o, lock, l)
}

func ProvideRunsHandler(cfg *config.Config, l *applogger.Logger, r *usecase.Runner) *api.RunsEchoHandler {
	return api.NewRunsEchoHandler(l, r, ratelimit.New(cfg.Server.TriggerBurst, cfg.Server.TriggerRefill))
}

// ProvideApp creates the application server.
func ProvideApp(cfg *config.Config, l *applogger.Logger, r *usecase.Runner, h *api.RunsEchoHandler) *server.App {
	return server.New(cfg, l, r, h)
}
