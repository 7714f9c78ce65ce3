package service

import (
	"context"
	"errors"
	"fmt"

	"uvlhub/internal/model"
	"uvlhub/pkg/log"
	"uvlhub/pkg/tasks"
)

// MsgEverythingWorks 是同步成功（或已入队）时返回的提示。
const MsgEverythingWorks = "Everything works!"

// SyncQueue 将同步任务交给异步消费者处理。
type SyncQueue interface {
	Enqueue(ctx context.Context, task tasks.DatasetSyncTask) error
}

// DatasetIndexer 将已同步的数据集写入搜索索引。
type DatasetIndexer interface {
	IndexDataset(ctx context.Context, ds *model.DataSet) error
}

// SyncResult 是一次同步尝试的结果。
type SyncResult struct {
	Message string
	// Failed 为 true 时上传或发布失败，暂存目录需要保留。
	Failed bool
	Queued bool
}

// SyncService 把本地数据集发布到存档服务并回写 DOI。
type SyncService interface {
	// Publish 同步或异步地发布数据集，失败不回滚本地数据。
	Publish(ctx context.Context, ds *model.DataSet) SyncResult
	// PublishNow 由异步消费者调用，任何失败都返回错误以便重试。
	PublishNow(ctx context.Context, datasetID uint) error
}

type syncService struct {
	datasetService    DatasetService
	depositionService DepositionService
	queue             SyncQueue
	indexer           DatasetIndexer
}

// NewSyncService 创建一个新的 SyncService 实例；queue 与 indexer 可以为 nil。
func NewSyncService(datasetService DatasetService, depositionService DepositionService, queue SyncQueue, indexer DatasetIndexer) SyncService {
	return &syncService{
		datasetService:    datasetService,
		depositionService: depositionService,
		queue:             queue,
		indexer:           indexer,
	}
}

// errCreateDeposition 标记失败发生在创建存档阶段。
var errCreateDeposition = errors.New("create deposition failed")

func (s *syncService) Publish(ctx context.Context, ds *model.DataSet) SyncResult {
	if s.queue != nil {
		task := tasks.DatasetSyncTask{DatasetID: ds.ID, UserID: ds.UserID}
		err := s.queue.Enqueue(ctx, task)
		if err == nil {
			log.Infof("[SyncService] 数据集同步任务已入队, datasetID: %d", ds.ID)
			return SyncResult{Message: MsgEverythingWorks, Queued: true}
		}
		log.Warnf("[SyncService] 同步任务入队失败，改为同步执行, datasetID: %d, error: %v", ds.ID, err)
	}

	err := s.sync(ctx, ds)
	switch {
	case err == nil:
		return SyncResult{Message: MsgEverythingWorks}
	case errors.Is(err, errCreateDeposition):
		// 存档创建失败时数据集保持未同步状态，请求本身视为成功
		return SyncResult{Message: MsgEverythingWorks}
	default:
		return SyncResult{
			Message: fmt.Sprintf("it has not been possible upload feature models in Zenodo and update the DOI: %v", err),
			Failed:  true,
		}
	}
}

func (s *syncService) PublishNow(ctx context.Context, datasetID uint) error {
	ds, err := s.datasetService.GetByID(datasetID)
	if err != nil {
		return err
	}
	if ds.IsSynchronized() {
		log.Infof("[SyncService] 数据集已同步，跳过, datasetID: %d", datasetID)
		return nil
	}
	return s.sync(ctx, ds)
}

// deposition 返回数据集对应的存档 ID。deposition_id 已指向存在的存档时直接沿用，
// 否则新建一个；reused 表示是否沿用。
func (s *syncService) deposition(ds *model.DataSet) (id uint, reused bool, err error) {
	if existing := ds.DSMetaData.DepositionID; existing != nil {
		_, err := s.depositionService.GetDeposition(*existing)
		if err == nil {
			return *existing, true, nil
		}
		if !errors.Is(err, ErrDepositionNotFound) {
			return 0, false, err
		}
	}
	created, err := s.depositionService.CreateNewDeposition(ds)
	if err != nil {
		log.Errorf("[SyncService] 步骤1: 创建存档失败, datasetID: %d, error: %v", ds.ID, err)
		return 0, false, fmt.Errorf("%w: %v", errCreateDeposition, err)
	}
	return created.ID, false, nil
}

func (s *syncService) sync(ctx context.Context, ds *model.DataSet) error {
	// 1. 创建存档；重试时沿用上一次已创建的存档
	depositionID, reused, err := s.deposition(ds)
	if err != nil {
		return err
	}
	if reused {
		log.Infof("[SyncService] 步骤1: 沿用已有存档, datasetID: %d, depositionID: %d", ds.ID, depositionID)
	} else {
		log.Infof("[SyncService] 步骤1: 存档创建成功, datasetID: %d, depositionID: %d", ds.ID, depositionID)

		// 2. 记录 deposition_id
		if err := s.datasetService.UpdateDSMetaData(ds.DSMetaDataID, map[string]interface{}{"deposition_id": depositionID}); err != nil {
			return err
		}
	}

	// 3. 逐个上传特征模型文件
	for i := range ds.FeatureModels {
		if _, err := s.depositionService.UploadFile(ds, depositionID, &ds.FeatureModels[i], ds.UserID); err != nil {
			log.Errorf("[SyncService] 步骤3: 上传文件失败, datasetID: %d, error: %v", ds.ID, err)
			return err
		}
	}

	// 4. 发布并获取 DOI
	if err := s.depositionService.PublishDeposition(depositionID); err != nil {
		log.Errorf("[SyncService] 步骤4: 发布存档失败, depositionID: %d, error: %v", depositionID, err)
		return err
	}
	doi, err := s.depositionService.GetDOI(depositionID)
	if err != nil {
		return err
	}

	// 5. 回写 dataset_doi
	if err := s.datasetService.UpdateDSMetaData(ds.DSMetaDataID, map[string]interface{}{"dataset_doi": doi}); err != nil {
		return err
	}
	log.Infof("[SyncService] 步骤5: 数据集已同步, datasetID: %d, doi: %s", ds.ID, doi)

	// 6. 写入搜索索引，失败只记录日志
	if s.indexer != nil {
		if synced, err := s.datasetService.GetByID(ds.ID); err == nil {
			if err := s.indexer.IndexDataset(ctx, synced); err != nil {
				log.Warnf("[SyncService] 步骤6: 写入索引失败, datasetID: %d, error: %v", ds.ID, err)
			}
		}
	}
	return nil
}
