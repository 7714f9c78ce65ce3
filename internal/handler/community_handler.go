package handler

import (
	"net/http"

	"uvlhub/internal/service"

	"github.com/gin-gonic/gin"
)

// CommunityHandler 负责社区与成员关系的 API 请求。
type CommunityHandler struct {
	communityService service.CommunityService
}

// NewCommunityHandler 创建一个新的 CommunityHandler 实例。
func NewCommunityHandler(communityService service.CommunityService) *CommunityHandler {
	return &CommunityHandler{communityService: communityService}
}

// CommunityRequest 是创建或修改社区的请求体。
type CommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// List 返回所有社区。
func (h *CommunityHandler) List(c *gin.Context) {
	communities, err := h.communityService.List()
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", communities)
}

// Mine 返回当前用户参与和拥有的社区。
func (h *CommunityHandler) Mine(c *gin.Context) {
	userID := currentUser(c).ID
	member, err := h.communityService.ListByMember(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	owned, err := h.communityService.ListByOwner(userID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", gin.H{"member": member, "owner": owned})
}

// Search 按名称检索社区，参数为 query。
func (h *CommunityHandler) Search(c *gin.Context) {
	communities, err := h.communityService.SearchByName(c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", communities)
}

// Create 创建社区，创建者成为所有者。
func (h *CommunityHandler) Create(c *gin.Context) {
	var req CommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Name == "" {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "Community name is required"})
		return
	}
	community, err := h.communityService.Create(req.Name, req.Description, currentUser(c).ID)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Community created successfully!", community)
}

// Get 返回社区详情。
func (h *CommunityHandler) Get(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	detail, err := h.communityService.GetByID(id)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "success", detail)
}

// Update 修改社区名称与描述，仅所有者可用。
func (h *CommunityHandler) Update(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	var req CommunityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": err.Error()})
		return
	}
	community, err := h.communityService.Update(id, currentUser(c).ID, req.Name, req.Description)
	if err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Community updated successfully", community)
}

// Delete 删除社区，仅所有者可用。
func (h *CommunityHandler) Delete(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	if err := h.communityService.Delete(id, currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Community deleted successfully", nil)
}

// Request 申请加入社区。
func (h *CommunityHandler) Request(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	if err := h.communityService.Request(id, currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Request to join the community has been sent successfully.", nil)
}

// HandleRequest 接受或拒绝加入申请。
func (h *CommunityHandler) HandleRequest(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	userID, valid := uintParam(c, "user_id")
	if !valid {
		return
	}
	if err := h.communityService.HandleRequest(id, currentUser(c).ID, userID, c.Param("action")); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "Request handled successfully.", nil)
}

// Leave 退出社区。
func (h *CommunityHandler) Leave(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	if err := h.communityService.RemoveMember(id, currentUser(c).ID); err != nil {
		writeError(c, err)
		return
	}
	ok(c, "You have left the community.", nil)
}
