// Package es 提供了与 Elasticsearch 交互的客户端功能。
package es

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"uvlhub/internal/config"
	"uvlhub/internal/model"
	"uvlhub/pkg/log"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

var ESClient *elasticsearch.Client

func addressList(addresses string) []string {
	var out []string
	for _, a := range strings.Split(addresses, ",") {
		if a = strings.TrimSpace(a); a != "" {
			out = append(out, a)
		}
	}
	return out
}

// InitES 连接 Elasticsearch 并确保数据集索引存在。
func InitES(esCfg config.ElasticsearchConfig) error {
	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addressList(esCfg.Addresses),
		Username:  esCfg.Username,
		Password:  esCfg.Password,
		Transport: &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true},
		},
	})
	if err != nil {
		return fmt.Errorf("创建 Elasticsearch 客户端失败: %w", err)
	}
	ESClient = client
	return ensureIndex(context.Background(), esCfg.IndexName)
}

// 已同步数据集的索引结构
const datasetMapping = `{
	"mappings": {
		"properties": {
			"dataset_id": { "type": "long" },
			"title": { "type": "text" },
			"description": { "type": "text" },
			"publication_type": { "type": "keyword" },
			"dataset_doi": { "type": "keyword" },
			"tags": { "type": "keyword" },
			"authors": { "type": "text" },
			"files": { "type": "keyword" },
			"number_of_models": { "type": "integer" },
			"number_of_features": { "type": "integer" },
			"total_size": { "type": "long" },
			"created_at": { "type": "date", "format": "yyyy-MM-dd HH:mm:ss" }
		}
	}
}`

// ensureIndex 索引不存在（404）时按 datasetMapping 创建。
func ensureIndex(ctx context.Context, indexName string) error {
	res, err := esapi.IndicesExistsRequest{Index: []string{indexName}}.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("检查索引 '%s' 失败: %w", indexName, err)
	}
	res.Body.Close()
	switch res.StatusCode {
	case http.StatusOK:
		log.Infof("[ES] 索引 '%s' 已存在", indexName)
		return nil
	case http.StatusNotFound:
	default:
		return fmt.Errorf("检查索引 '%s' 时收到意外的状态码: %d", indexName, res.StatusCode)
	}

	res, err = esapi.IndicesCreateRequest{
		Index: indexName,
		Body:  strings.NewReader(datasetMapping),
	}.Do(ctx, ESClient)
	if err != nil {
		return fmt.Errorf("创建索引 '%s' 失败: %w", indexName, err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return fmt.Errorf("创建索引 '%s' 时 Elasticsearch 返回错误: %s", indexName, res.String())
	}
	log.Infof("[ES] 索引 '%s' 创建成功", indexName)
	return nil
}

// Indexer 把已同步的数据集写入索引，实现 service.DatasetIndexer。
type Indexer struct {
	IndexName string
}

// IndexDataset 以数据集 ID 作为文档 ID 写入（覆盖）索引。
func (i Indexer) IndexDataset(ctx context.Context, ds *model.DataSet) error {
	if ESClient == nil {
		return errors.New("elasticsearch client not initialized")
	}
	docBytes, err := json.Marshal(model.NewDatasetDocument(ds))
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{
		Index:      i.IndexName,
		DocumentID: strconv.FormatUint(uint64(ds.ID), 10),
		Body:       bytes.NewReader(docBytes),
		Refresh:    "true",
	}
	res, err := req.Do(ctx, ESClient)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.IsError() {
		log.Errorf("索引数据集到 Elasticsearch 出错: %s", res.String())
		return errors.New("failed to index dataset")
	}
	return nil
}
