// Package app wires configuration into the running components shared by the
// server and the CLI.
package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/auth"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/config"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/db"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/lock"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/notify"
	"github.com/fatgtr/vivid-building-management-systems-sub006/internal/scheduling"
	"github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/mongo"
)

// App holds the connected dependencies of one process.
type App struct {
	Config *config.Config
	Logger *log.Entry
	Auth   *auth.Service
	Store  *db.Store
	Runner *scheduling.Runner

	mongo    *mongo.Client
	database *mongo.Database
	redis    *redis.Client
	mqtt     mqtt.Client
}

// New connects to MongoDB and the optional Redis, SMTP and MQTT backends and
// builds the scheduler runner.
func New(ctx context.Context, cfg *config.Config, logger *log.Entry) (*App, error) {
	a := &App{Config: cfg, Logger: logger}

	authService, err := auth.NewService(cfg.JWTSecret, cfg.JWTExpiry)
	if err != nil {
		return nil, err
	}
	a.Auth = authService

	client, err := db.ConnectMongo(ctx, cfg.MongoURI)
	if err != nil {
		return nil, err
	}
	a.mongo = client
	a.database = client.Database(cfg.MongoDB)
	a.Store = db.NewStore(a.database)
	logger.WithField("database", cfg.MongoDB).Info("connected to MongoDB")

	if err := db.EnsureIndexes(ctx, a.database); err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	locker, err := a.locker(ctx)
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	notifier, err := a.notifier()
	if err != nil {
		_ = a.Close(context.Background())
		return nil, err
	}

	a.Runner = scheduling.NewRunner(scheduling.Dependencies{
		Schedules:  a.Store.Schedules,
		WorkOrders: a.Store.WorkOrders,
		Buildings:  a.Store.Buildings,
		Tasks:      a.Store.Tasks,
		Notifier:   notifier,
		Locker:     locker,
	}, scheduling.Options{
		Workers:  cfg.SchedulerWorkers,
		Timeout:  cfg.SchedulerRunTimeout,
		Location: cfg.Location(),
		LockTTL:  cfg.RunLockTTL,
	}, logger)

	return a, nil
}

func (a *App) locker(ctx context.Context) (lock.Locker, error) {
	if a.Config.RedisAddr == "" {
		a.Logger.Info("no REDIS_ADDR, using in-process run lock")
		return lock.NewLocalLocker(), nil
	}
	a.redis = redis.NewClient(&redis.Options{
		Addr:     a.Config.RedisAddr,
		Password: a.Config.RedisPassword,
		DB:       a.Config.RedisDB,
	})
	locker := lock.NewRedisLocker(a.redis, "")
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := locker.Ping(pingCtx); err != nil {
		return nil, fmt.Errorf("connect to redis at %s: %w", a.Config.RedisAddr, err)
	}
	a.Logger.WithField("addr", a.Config.RedisAddr).Info("using redis run lock")
	return locker, nil
}

func (a *App) notifier() (notify.Notifier, error) {
	var email notify.EmailSender
	if a.Config.SMTPHost != "" {
		sender, err := notify.NewSMTPSender(notify.SMTPConfig{
			Host:     a.Config.SMTPHost,
			Port:     a.Config.SMTPPort,
			Username: a.Config.SMTPUsername,
			Password: a.Config.SMTPPassword,
			From:     a.Config.SMTPFrom,
		})
		if err != nil {
			return nil, fmt.Errorf("smtp: %w", err)
		}
		email = sender
	}

	var publisher notify.Publisher
	if a.Config.MQTTBroker != "" {
		client, pub, err := notify.ConnectMQTT(notify.MQTTConfig{
			Broker:   a.Config.MQTTBroker,
			ClientID: a.Config.MQTTClientID,
			Username: a.Config.MQTTUsername,
			Password: a.Config.MQTTPassword,
		})
		if err != nil {
			return nil, err
		}
		a.mqtt = client
		publisher = pub
	}

	if email == nil && publisher == nil {
		a.Logger.Info("no SMTP or MQTT configured, work order notifications disabled")
		return notify.Nop{}, nil
	}
	a.Logger.WithFields(log.Fields{
		"email": email != nil,
		"mqtt":  publisher != nil,
	}).Info("work order notifications enabled")
	return notify.NewDispatcher(email, publisher, a.Config.MQTTTopicPrefix, a.Logger), nil
}

// Ping checks the MongoDB connection.
func (a *App) Ping(ctx context.Context) error {
	return a.mongo.Ping(ctx, nil)
}

// Close releases every connection. It is safe on a partially built App.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.mqtt != nil {
		a.mqtt.Disconnect(250)
	}
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close redis: %w", err))
		}
	}
	if a.mongo != nil {
		if err := a.mongo.Disconnect(ctx); err != nil {
			errs = append(errs, fmt.Errorf("disconnect mongo: %w", err))
		}
	}
	return errors.Join(errs...)
}
