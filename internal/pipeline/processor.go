// Package pipeline 定义了异步同步任务的处理流程。
package pipeline

import (
	"context"
	"fmt"

	"uvlhub/internal/service"
	"uvlhub/pkg/log"
	"uvlhub/pkg/tasks"
)

// Processor 处理从 Kafka 消费到的数据集同步任务，并在成功后清理暂存目录。
type Processor struct {
	syncService    service.SyncService
	stagingService service.StagingService
}

// NewProcessor 创建一个新的 Processor 实例。
func NewProcessor(syncService service.SyncService, stagingService service.StagingService) *Processor {
	return &Processor{syncService: syncService, stagingService: stagingService}
}

// Process 实现 kafka.TaskProcessor。
func (p *Processor) Process(ctx context.Context, task tasks.DatasetSyncTask) error {
	log.Infof("[Processor] 开始处理同步任务, DatasetID: %d, UserID: %d", task.DatasetID, task.UserID)

	if err := p.syncService.PublishNow(ctx, task.DatasetID); err != nil {
		return fmt.Errorf("同步数据集 %d 失败: %w", task.DatasetID, err)
	}

	if err := p.stagingService.ClearTemp(task.UserID); err != nil {
		log.Warnf("[Processor] 清理暂存目录失败, UserID: %d, error: %v", task.UserID, err)
	}
	log.Infof("[Processor] 同步任务完成, DatasetID: %d", task.DatasetID)
	return nil
}
