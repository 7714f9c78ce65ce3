package handler

import (
	"net/http"

	"uvlhub/internal/model"
	"uvlhub/internal/service"
	"uvlhub/pkg/log"

	"github.com/gin-gonic/gin"
)

// DatasetHandler 负责数据集的创建与查询。
type DatasetHandler struct {
	datasetService service.DatasetService
	syncService    service.SyncService
	stagingService service.StagingService
}

// NewDatasetHandler 创建一个新的 DatasetHandler 实例。
func NewDatasetHandler(datasetService service.DatasetService, syncService service.SyncService, stagingService service.StagingService) *DatasetHandler {
	return &DatasetHandler{
		datasetService: datasetService,
		syncService:    syncService,
		stagingService: stagingService,
	}
}

// Create 由暂存文件创建数据集，并尝试同步到存档服务。
func (h *DatasetHandler) Create(c *gin.Context) {
	user := currentUser(c)
	var form model.DatasetForm
	if err := c.ShouldBindJSON(&form); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": err.Error()})
		return
	}

	// 1. 本地创建并移动文件，失败时整体报错
	log.Infof("Creating dataset for user %d...", user.ID)
	ds, err := h.datasetService.CreateFromForm(c.Request.Context(), form, user)
	if err == nil {
		err = h.datasetService.MoveFeatureModels(c.Request.Context(), ds)
	}
	if err != nil {
		log.Errorf("Exception while create dataset data in local: %v", err)
		c.JSON(http.StatusBadRequest, gin.H{"Exception while create dataset data in local: ": err.Error()})
		return
	}

	// 2. 同步到存档服务，失败不回滚
	result := h.syncService.Publish(c.Request.Context(), ds)
	if result.Failed {
		c.JSON(http.StatusOK, gin.H{"message": result.Message, "dataset_id": ds.ID})
		return
	}

	// 3. 清理暂存目录
	if err := h.stagingService.ClearTemp(user.ID); err != nil {
		log.Warnf("清理暂存目录失败, userID: %d, error: %v", user.ID, err)
	}
	c.JSON(http.StatusOK, gin.H{"message": result.Message, "dataset_id": ds.ID, "queued": result.Queued})
}

// List 返回当前用户已同步与未同步的数据集。
func (h *DatasetHandler) List(c *gin.Context) {
	user := currentUser(c)
	synced, err := h.datasetService.GetSynchronized(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	local, err := h.datasetService.GetUnsynchronized(user.ID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", gin.H{
		"datasets":       h.datasetService.Summaries(synced),
		"local_datasets": h.datasetService.Summaries(local),
	})
}

// GetUnsynchronized 返回当前用户的一个未同步数据集。
func (h *DatasetHandler) GetUnsynchronized(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	ds, err := h.datasetService.GetUnsynchronizedDataset(currentUser(c).ID, id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", h.datasetService.Summaries([]model.DataSet{*ds})[0])
}

// Stats 返回首页统计与最新的已同步数据集。
func (h *DatasetHandler) Stats(c *gin.Context) {
	stats, err := h.datasetService.Stats()
	if err != nil {
		writeError(c, err)
		return
	}
	latest, err := h.datasetService.LatestSynchronized()
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", gin.H{
		"stats":    stats,
		"datasets": h.datasetService.Summaries(latest),
	})
}
