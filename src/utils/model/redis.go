package model

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"

	"github.com/warp-contracts/dealer/src/utils/config"
	"github.com/warp-contracts/dealer/src/utils/logger"
	"github.com/warp-contracts/dealer/src/utils/task"

	"github.com/redis/go-redis/v9"
)

// Creates a Redis client and waits until the server answers
func NewRedisClient(ctx context.Context, redisConfig *config.Redis, applicationName string) (client *redis.Client, err error) {
	log := logger.NewSublogger("redis")

	opts := redis.Options{
		ClientName:      fmt.Sprintf("dealer/%s", applicationName),
		Addr:            fmt.Sprintf("%s:%d", redisConfig.Host, redisConfig.Port),
		Password:        redisConfig.Password,
		Username:        redisConfig.User,
		DB:              redisConfig.DB,
		MinIdleConns:    redisConfig.MinIdleConns,
		MaxIdleConns:    redisConfig.MaxIdleConns,
		ConnMaxIdleTime: redisConfig.ConnMaxIdleTime,
		PoolSize:        redisConfig.MaxOpenConns,
		ConnMaxLifetime: redisConfig.ConnMaxLifetime,
	}

	if redisConfig.ClientCert != "" && redisConfig.ClientKey != "" && redisConfig.CaCert != "" {
		cert, err := tls.X509KeyPair([]byte(redisConfig.ClientCert), []byte(redisConfig.ClientKey))
		if err != nil {
			return nil, fmt.Errorf("failed to load redis client cert: %w", err)
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(redisConfig.CaCert)) {
			return nil, errors.New("failed to append CA cert to pool")
		}

		opts.TLSConfig = &tls.Config{
			RootCAs:      caCertPool,
			ClientCAs:    caCertPool,
			Certificates: []tls.Certificate{cert},
		}
	}

	client = redis.NewClient(&opts)

	err = task.NewRetry().
		WithContext(ctx).
		WithMaxElapsedTime(redisConfig.PingMaxElapsedTime).
		WithMaxInterval(redisConfig.PingMaxInterval).
		WithOnError(func(err error) error {
			log.WithError(err).Warn("Failed to ping Redis, retrying")
			return err
		}).
		Run(func() error {
			return client.Ping(ctx).Err()
		})
	if err != nil {
		log.WithError(err).Error("Failed to ping Redis")
		client.Close()
		return nil, err
	}

	return
}
