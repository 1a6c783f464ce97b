package utils

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff"
	es7 "github.com/elastic/go-elasticsearch/v7"
	"github.com/labstack/gommon/log"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"variation-commons/api/models"
)

const (
	connectTimeout = 10 * time.Second
	maxPingElapsed = time.Minute
)

// CreateMongoConnection connects and pings the server, retrying the ping
// with exponential backoff until maxPingElapsed has passed.
func CreateMongoConnection(cfg *models.Config) (*mongo.Client, error) {
	client, err := mongo.Connect(options.Client().
		ApplyURI(cfg.Mongo.Uri).
		SetConnectTimeout(connectTimeout))
	if err != nil {
		return nil, fmt.Errorf("connect to mongo: %w", err)
	}

	retryBackoff := backoff.NewExponentialBackOff()
	retryBackoff.MaxElapsedTime = maxPingElapsed

	ping := func() error {
		ctx, cancel := context.WithTimeout(context.Background(), connectTimeout)
		defer cancel()
		return client.Ping(ctx, nil)
	}
	notify := func(err error, next time.Duration) {
		log.Warnf("[MONGO] ping failed, retrying in %s: %v", next, err)
	}
	if err := backoff.RetryNotify(ping, retryBackoff, notify); err != nil {
		client.Disconnect(context.Background())
		return nil, fmt.Errorf("ping mongo at %s: %w", cfg.Mongo.Uri, err)
	}

	log.Infof("[MONGO] Connected to %s", cfg.Mongo.Uri)
	return client, nil
}

func CreateEsConnection(cfg *models.Config) (*es7.Client, error) {
	var (
		clusterURLs  = []string{cfg.Elasticsearch.Url}
		retryBackoff = backoff.NewExponentialBackOff()
	)

	esCfg := es7.Config{
		Addresses: clusterURLs,
		Username:  cfg.Elasticsearch.Username,
		Password:  cfg.Elasticsearch.Password,

		RetryOnStatus: []int{502, 503, 504, 429},

		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},

		MaxRetries: 5,
	}

	client, err := es7.NewClient(esCfg)
	if err != nil {
		return nil, fmt.Errorf("create elasticsearch client: %w", err)
	}

	log.Infof("[ES] Using ES7 Client Version %s", es7.Version)
	return client, nil
}
