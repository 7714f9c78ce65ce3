package es

import (
	"context"
	"testing"

	"uvlhub/internal/model"

	"github.com/stretchr/testify/assert"
)

func TestAddressList(t *testing.T) {
	assert.Equal(t, []string{"http://a:9200", "http://b:9200"}, addressList("http://a:9200, http://b:9200,"))
	assert.Empty(t, addressList(" "))
}

func TestIndexDatasetWithoutClient(t *testing.T) {
	ESClient = nil
	err := Indexer{IndexName: "uvlhub_datasets"}.IndexDataset(context.Background(), &model.DataSet{})
	assert.Error(t, err)
}
