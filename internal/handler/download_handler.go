package handler

import (
	"net/http"
	"strings"

	"uvlhub/internal/model"
	"uvlhub/internal/service"

	"github.com/gin-gonic/gin"
)

const (
	downloadCookie = "download_cookie"
	viewCookie     = "view_cookie"
)

// DownloadHandler 负责数据集下载、DOI 落地页与文件下载。
type DownloadHandler struct {
	downloadService service.DownloadService
	datasetService  service.DatasetService
}

// NewDownloadHandler 创建一个新的 DownloadHandler 实例。
func NewDownloadHandler(downloadService service.DownloadService, datasetService service.DatasetService) *DownloadHandler {
	return &DownloadHandler{downloadService: downloadService, datasetService: datasetService}
}

func cookieValue(c *gin.Context, name string) string {
	v, _ := c.Cookie(name)
	return v
}

func sendArchive(c *gin.Context, archive *service.Archive) {
	defer archive.Cleanup()
	c.SetCookie(downloadCookie, archive.Cookie, 0, "/", "", false, false)
	c.Header("Content-Type", "application/zip")
	c.FileAttachment(archive.Path, archive.Name)
}

// DownloadDataset 以 zip 形式下载一个数据集。
func (h *DownloadHandler) DownloadDataset(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	archive, err := h.downloadService.DownloadDataset(c.Request.Context(), id, currentUserID(c), cookieValue(c, downloadCookie))
	if err != nil {
		writeError(c, err)
		return
	}
	sendArchive(c, archive)
}

// DownloadAll 下载所有数据集的全部导出格式。
func (h *DownloadHandler) DownloadAll(c *gin.Context) {
	archive, err := h.downloadService.DownloadAll(c.Request.Context(), currentUserID(c), cookieValue(c, downloadCookie))
	if err != nil {
		writeError(c, err)
		return
	}
	sendArchive(c, archive)
}

// ViewByDOI 展示 DOI 对应的数据集；旧 DOI 302 跳转到新 DOI。
func (h *DownloadHandler) ViewByDOI(c *gin.Context) {
	doi := strings.Trim(c.Param("doi"), "/")
	view, err := h.downloadService.ViewByDOI(c.Request.Context(), doi, currentUserID(c), cookieValue(c, viewCookie))
	if err != nil {
		writeError(c, err)
		return
	}
	if view.RedirectDOI != "" {
		c.Redirect(http.StatusFound, "/doi/"+view.RedirectDOI+"/")
		return
	}
	c.SetCookie(viewCookie, view.Cookie, 0, "/", "", false, false)
	ok(c, "success", h.datasetService.Summaries([]model.DataSet{*view.Dataset})[0])
}

// DownloadFile 下载单个文件；启用对象存储镜像时跳转到预签名地址。
func (h *DownloadHandler) DownloadFile(c *gin.Context) {
	id, valid := uintParam(c, "id")
	if !valid {
		return
	}
	file, err := h.downloadService.DownloadFile(c.Request.Context(), id)
	if err != nil {
		writeError(c, err)
		return
	}
	if file.URL != "" {
		c.Redirect(http.StatusFound, file.URL)
		return
	}
	c.FileAttachment(file.Path, file.Name)
}
