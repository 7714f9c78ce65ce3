package handler

import (
	"errors"
	"net/http"

	"uvlhub/internal/service"
	"uvlhub/pkg/log"

	"github.com/gin-gonic/gin"
)

// StagingHandler 负责把 UVL 文件上传到用户的暂存目录。
type StagingHandler struct {
	stagingService service.StagingService
}

// NewStagingHandler 创建一个新的 StagingHandler 实例。
func NewStagingHandler(stagingService service.StagingService) *StagingHandler {
	return &StagingHandler{stagingService: stagingService}
}

// UploadUVL 处理单个 .uvl 文件上传，表单字段为 file。
func (h *StagingHandler) UploadUVL(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrNoValidFile.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer file.Close()

	name, err := h.stagingService.UploadUVL(currentUser(c).ID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "UVL uploaded and validated successfully", "filename": name})
}

// UploadZip 处理 zip 上传并解压其中的 .uvl 文件。
func (h *StagingHandler) UploadZip(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": service.ErrNoValidFile.Error()})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"message": err.Error()})
		return
	}
	defer file.Close()

	result, err := h.stagingService.UploadZip(currentUser(c).ID, fileHeader.Filename, file)
	if err != nil {
		c.JSON(statusOf(err), gin.H{"message": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":         "Zip uploaded and .uvl files extracted successfully",
		"extracted_files": result.ExtractedFiles,
		"extracted_path":  result.ExtractedPath,
	})
}

// GitHubRequest 是从 GitHub 导入文件的请求体。
type GitHubRequest struct {
	URL string `json:"url"`
}

// UploadFromGitHub 从 GitHub 下载 .uvl 或 .zip 文件。
func (h *StagingHandler) UploadFromGitHub(c *gin.Context) {
	var req GitHubRequest
	_ = c.ShouldBindJSON(&req)

	result, err := h.stagingService.UploadFromGitHub(c.Request.Context(), currentUser(c).ID, req.URL)
	if err != nil {
		log.Warnf("UploadFromGitHub: %v", err)
		status := statusOf(err)
		if errors.Is(err, service.ErrGitHubFetch) {
			status = http.StatusInternalServerError
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, result)
}

// DeleteRequest 是删除暂存文件的请求体。
type DeleteRequest struct {
	File string `json:"file"`
}

// Delete 删除一个暂存文件。
func (h *StagingHandler) Delete(c *gin.Context) {
	var req DeleteRequest
	_ = c.ShouldBindJSON(&req)

	if err := h.stagingService.DeleteStaged(currentUser(c).ID, req.File); err != nil {
		if errors.Is(err, service.ErrStagedFileNotFound) {
			c.JSON(http.StatusOK, gin.H{"error": err.Error()})
			return
		}
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "File deleted successfully"})
}
