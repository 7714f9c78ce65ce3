// Package tasks 定义了通过 Kafka 传递的任务结构。
package tasks

import "fmt"

// DatasetSyncTask 表示一次将数据集同步到存档服务的任务。
type DatasetSyncTask struct {
	DatasetID uint `json:"dataset_id"`
	UserID    uint `json:"user_id"`
}

// Key 用作 Kafka 消息 key 与失败计数的标识。
func (t DatasetSyncTask) Key() string {
	return fmt.Sprintf("dataset-%d", t.DatasetID)
}
