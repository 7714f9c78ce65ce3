package handler

import (
	"net/http"

	"uvlhub/internal/model"
	"uvlhub/internal/service"

	"github.com/gin-gonic/gin"
)

// ExploreHandler 负责已同步数据集的检索接口。
type ExploreHandler struct {
	exploreService service.ExploreService
	datasetService service.DatasetService
}

// NewExploreHandler 创建一个新的 ExploreHandler 实例。
func NewExploreHandler(exploreService service.ExploreService, datasetService service.DatasetService) *ExploreHandler {
	return &ExploreHandler{exploreService: exploreService, datasetService: datasetService}
}

// Get 使用查询参数检索。
func (h *ExploreHandler) Get(c *gin.Context) {
	var criteria model.ExploreCriteria
	if err := c.ShouldBindQuery(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}
	h.search(c, criteria)
}

// Post 使用 JSON 请求体检索。
func (h *ExploreHandler) Post(c *gin.Context) {
	var criteria model.ExploreCriteria
	if err := c.ShouldBindJSON(&criteria); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}
	h.search(c, criteria)
}

func (h *ExploreHandler) search(c *gin.Context, criteria model.ExploreCriteria) {
	datasets, err := h.exploreService.Search(c.Request.Context(), criteria)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.datasetService.Summaries(datasets))
}
