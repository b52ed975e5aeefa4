package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "/api/v1", cfg.APIPrefix)
	assert.Equal(t, "school_management", cfg.Mongo.Database)
	assert.Equal(t, 10*time.Second, cfg.Mongo.ConnectTimeout)
	assert.Equal(t, int64(4), cfg.Cascade.Concurrency)
	assert.Equal(t, "local", cfg.Exports.Driver)
	assert.Empty(t, cfg.Search.Addresses)
	assert.Empty(t, cfg.NATS.URL)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("MONGO_URI", "mongodb://mongo:27017")
	t.Setenv("ELASTICSEARCH_URLS", "http://es1:9200, http://es2:9200")
	t.Setenv("RECONCILE_INTERVAL", "not-a-duration")
	t.Setenv("CASCADE_CONCURRENCY", "0")
	t.Setenv("EXPORTS_DRIVER", "S3")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "mongodb://mongo:27017", cfg.Mongo.URI)
	assert.Equal(t, []string{"http://es1:9200", "http://es2:9200"}, cfg.Search.Addresses)
	assert.Equal(t, 15*time.Minute, cfg.Cascade.ReconcileInterval)
	assert.Equal(t, int64(4), cfg.Cascade.Concurrency)
	assert.Equal(t, "s3", cfg.Exports.Driver)
}
