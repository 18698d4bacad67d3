package elastic_client

import (
	"context"
	"io"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/cityagent/emptyleg/pkg/util"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esutil"
	"github.com/rs/zerolog/log"
)

var bulkIndexer esutil.BulkIndexer

// Connect starts the bulk indexer used for cycle reports. Reporting is optional, so a missing
// EMPTYLEG_ELASTICSEARCH_ADDRESS leaves the package disconnected without an error.
func Connect() error {
	env := util.GetEnvironmentVariables()
	address := env["EMPTYLEG_ELASTICSEARCH_ADDRESS"]

	if address == "" {
		log.Info().Msg("Skipping Elasticsearch setup")
		return nil
	}

	retryBackoff := backoff.NewExponentialBackOff()

	es, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{address},
		Username:  env["EMPTYLEG_ELASTICSEARCH_USERNAME"],
		Password:  env["EMPTYLEG_ELASTICSEARCH_PASSWORD"],

		RetryOnStatus: []int{502, 503, 504, 429},
		RetryBackoff: func(i int) time.Duration {
			if i == 1 {
				retryBackoff.Reset()
			}
			return retryBackoff.NextBackOff()
		},
		MaxRetries: 5,
	})
	if err != nil {
		return err
	}

	if _, err := es.Info(); err != nil {
		return err
	}

	bulkIndexer, err = esutil.NewBulkIndexer(esutil.BulkIndexerConfig{
		Client:        es,
		FlushInterval: 15 * time.Second,
	})
	if err != nil {
		return err
	}

	log.Info().Str("address", address).Msg("Elasticsearch report indexer started")

	return nil
}

func IsConnected() bool {
	return bulkIndexer != nil
}

// IndexRequest queues a document for the next bulk flush. It is a no-op when not connected.
func IndexRequest(indexName string, document io.ReadSeeker) {
	if bulkIndexer == nil {
		return
	}

	err := bulkIndexer.Add(
		context.Background(),
		esutil.BulkIndexerItem{
			Index:  indexName,
			Action: "index",
			Body:   document,
			OnFailure: func(ctx context.Context, item esutil.BulkIndexerItem, res esutil.BulkIndexerResponseItem, err error) {
				if err != nil {
					log.Error().Err(err).Str("index", indexName).Msg("Failed to index report")
				} else {
					log.Error().Str("type", res.Error.Type).Str("reason", res.Error.Reason).Msg("Failed to index report")
				}
			},
		},
	)
	if err != nil {
		log.Error().Err(err).Str("index", indexName).Msg("Failed to queue report")
	}
}

// Close flushes queued documents and disconnects
func Close() {
	if bulkIndexer == nil {
		return
	}

	if err := bulkIndexer.Close(context.Background()); err != nil {
		log.Error().Err(err).Msg("Failed to flush reports")
	}
	bulkIndexer = nil
}
