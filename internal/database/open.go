package database

import (
	"context"
	"fmt"
	"log/slog"

	"brincafacil/entity"
	"brincafacil/internal/config"
	"brincafacil/internal/supabase"
	"brincafacil/lib/sl"
)

type Store interface {
	UpsertAccess(ctx context.Context, rec *entity.UserAccessRecord) (*entity.UserAccessRecord, error)
	GetAccess(ctx context.Context, email string) (*entity.UserAccessRecord, error)
	AppendPaymentLog(ctx context.Context, rec *entity.PaymentLogRecord) error
	PaymentLogs(ctx context.Context, email string, limit int) ([]*entity.PaymentLogRecord, error)
	Close()
}

// Open selects the access store by storage.driver.
func Open(ctx context.Context, conf *config.Config, log *slog.Logger) (Store, error) {
	log = log.With(sl.Module("database"), slog.String("driver", conf.Storage.Driver))

	switch conf.Storage.Driver {
	case config.DriverMemory, "":
		log.Warn("using in-memory store, records are lost on restart")
		return NewMemory(), nil
	case config.DriverMongo:
		log.Info("using mongodb store", slog.String("host", conf.Mongo.Host), slog.String("database", conf.Mongo.Database))
		return NewMongoClient(conf), nil
	case config.DriverMySql:
		log.Info("using mysql store", slog.String("host", conf.MySql.HostName), slog.String("database", conf.MySql.Database))
		db, err := NewSQLClient(conf)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverPostgres:
		log.Info("using postgres store", sl.Secret("dsn", conf.Supabase.DatabaseURL))
		db, err := NewPostgres(ctx, conf.Supabase.DatabaseURL, conf.Supabase.UsersTable, conf.Supabase.PaymentsTable)
		if err != nil {
			return nil, err
		}
		return db, nil
	case config.DriverSupabase:
		client, err := supabase.New(supabase.Config{
			URL:            conf.Supabase.URL,
			ServiceRoleKey: conf.Supabase.ServiceRoleKey,
			UsersTable:     conf.Supabase.UsersTable,
			PaymentsTable:  conf.Supabase.PaymentsTable,
			Timeout:        conf.Supabase.Timeout,
		}, log)
		if err != nil {
			return nil, err
		}
		return client, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", conf.Storage.Driver)
	}
}
