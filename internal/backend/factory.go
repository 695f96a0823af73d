package backend

import (
	"context"
	"errors"
	"fmt"

	"budget/internal/amqp"
	"budget/internal/log"
	"budget/internal/store"
	"budget/internal/store/memory"
	"budget/internal/store/redisstore"
	"budget/internal/store/sheets"
	"budget/internal/store/sqlstore"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger

	// dialAMQP is replaced in tests.
	dialAMQP func(url, exchange, queue string) (*amqp.Client, error)
}

// NewFactory creates a new backend factory
func NewFactory(logger *log.Logger) *DefaultFactory {
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	return &DefaultFactory{
		logger:   logger.WithComponent(log.ComponentBackend),
		dialAMQP: amqp.NewClient,
	}
}

var _ Factory = (*DefaultFactory)(nil)

// CreateBackend opens the configured store and, when an AMQP URL is set,
// the change publisher. A publisher that cannot connect is logged and
// skipped: the budget keeps working without the change feed.
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*Result, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	s, closeStore, err := f.openStore(ctx, config)
	if err != nil {
		return nil, err
	}
	res := &Result{Store: s}
	closers := []func() error{}
	if closeStore != nil {
		closers = append(closers, closeStore)
	}

	if config.AMQPURL != "" {
		client, err := f.dialAMQP(config.AMQPURL, config.AMQPExchange, config.AMQPQueue)
		if err != nil {
			f.logger.WarnContext(ctx, "Failed to initialize AMQP client, continuing without change feed", log.FieldError, err)
		} else {
			f.logger.InfoContext(ctx, "Initialized AMQP client",
				"exchange", config.AMQPExchange,
				"queue", config.AMQPQueue)
			res.Publisher = client
			closers = append(closers, client.Close)
		}
	}

	res.Cleanup = func() error {
		var errs []error
		for i := len(closers) - 1; i >= 0; i-- {
			errs = append(errs, closers[i]())
		}
		return errors.Join(errs...)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type,
		"change_feed", res.Publisher != nil)
	return res, nil
}

func (f *DefaultFactory) openStore(ctx context.Context, config Config) (store.Store, func() error, error) {
	switch config.Type {
	case MemoryBackend:
		return memory.New(config.Seed), nil, nil

	case SQLiteBackend:
		s, err := sqlstore.OpenSQLite(ctx, config.SQLiteDBPath)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize SQLite store: %w", err)
		}
		return s, s.Close, nil

	case PostgresBackend:
		s, err := sqlstore.OpenPostgres(ctx, config.PostgresDSN)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize PostgreSQL store: %w", err)
		}
		return s, s.Close, nil

	case RedisBackend:
		s, err := redisstore.Dial(ctx, config.RedisURL, config.RedisHash)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Redis store: %w", err)
		}
		return s, s.Close, nil

	case SheetsBackend:
		s, err := sheets.New(ctx, sheets.Config{
			SpreadsheetID:   config.GoogleSpreadsheetID,
			SheetName:       config.GoogleSheetName,
			CredentialsFile: config.GoogleCredentialsFile,
			CredentialsJSON: config.GoogleCredentialsJSON,
			OAuthClientFile: config.GoogleOAuthClientFile,
			OAuthTokenFile:  config.GoogleOAuthTokenFile,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("failed to initialize Google Sheets store: %w", err)
		}
		return s, nil, nil

	default:
		return nil, nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}
}
