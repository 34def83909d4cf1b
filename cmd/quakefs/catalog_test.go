package main

import (
	"testing"

	"github.com/jchantrell/quakefs/internal/catalog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCatalogInsertOptions(t *testing.T) {
	defaults := catalog.DefaultBulkInsertOptions()

	options := catalogInsertOptions()
	assert.Equal(t, defaults.BatchSize, options.BatchSize)
	assert.Equal(t, defaults.MaxRetries, options.MaxRetries)
	assert.Positive(t, options.MaxRetries)
	assert.Equal(t, defaults.RetryInterval, options.RetryInterval)

	require.NoError(t, catalogCmd.Flags().Set("batch-size", "50"))
	require.NoError(t, catalogCmd.Flags().Set("max-retries", "7"))
	t.Cleanup(func() {
		catalogBatchSize = defaults.BatchSize
		catalogMaxRetries = defaults.MaxRetries
	})

	options = catalogInsertOptions()
	assert.Equal(t, 50, options.BatchSize)
	assert.Equal(t, 7, options.MaxRetries)
	assert.Equal(t, defaults.RetryInterval, options.RetryInterval)
}
