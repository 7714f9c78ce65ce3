package handler

import (
	"uvlhub/internal/service"

	"github.com/gin-gonic/gin"
)

// DepositionHandler 暴露本地存档服务的只读接口。
type DepositionHandler struct {
	depositionService service.DepositionService
}

// NewDepositionHandler 创建一个新的 DepositionHandler 实例。
func NewDepositionHandler(depositionService service.DepositionService) *DepositionHandler {
	return &DepositionHandler{depositionService: depositionService}
}

// List 返回所有存档的元数据。
func (h *DepositionHandler) List(c *gin.Context) {
	metadata, err := h.depositionService.GetAllDepositions()
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", metadata)
}

// Get 返回单个存档。
func (h *DepositionHandler) Get(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	dep, err := h.depositionService.GetDeposition(id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, dep.Message, dep)
}
