package handler

import (
	"errors"
	"net/http"
	"strconv"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/internal/service"
	"uvlhub/pkg/log"

	"github.com/gin-gonic/gin"
)

// currentUser 返回由认证中间件注入的用户，匿名请求返回 nil。
func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, _ := v.(*model.User)
	return user
}

// currentUserID 返回当前用户 ID 的指针，匿名请求为 nil。
func currentUserID(c *gin.Context) *uint {
	if u := currentUser(c); u != nil {
		id := u.ID
		return &id
	}
	return nil
}

// uintParam 解析路径参数，失败时直接写入 400 响应。
func uintParam(c *gin.Context, name string) (uint, bool) {
	v, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"code": http.StatusBadRequest, "message": "invalid " + name})
		return 0, false
	}
	return uint(v), true
}

// statusOf 将服务层错误映射为 HTTP 状态码。
func statusOf(err error) int {
	switch {
	case errors.Is(err, service.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidCriteria):
		return http.StatusBadRequest
	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, service.ErrOwnerCannotLeave):
		return http.StatusForbidden
	case errors.Is(err, service.ErrCommunityNotFound),
		errors.Is(err, service.ErrDatasetNotFound),
		errors.Is(err, service.ErrDOINotFound),
		errors.Is(err, service.ErrFileNotFound),
		errors.Is(err, service.ErrDepositionNotFound),
		errors.Is(err, service.ErrNoFilesToDownload),
		errors.Is(err, service.ErrRequestNotFound),
		errors.Is(err, service.ErrUserNotFound):
		return http.StatusNotFound
	case errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrInvalidToken):
		return http.StatusUnauthorized
	case errors.Is(err, service.ErrGitHubTimeout):
		return http.StatusRequestTimeout
	default:
		return http.StatusInternalServerError
	}
}

// writeError 写入统一的错误响应。
func writeError(c *gin.Context, err error) {
	status := statusOf(err)
	if status == http.StatusInternalServerError {
		log.Errorf("请求处理失败, path: %s, error: %v", c.Request.URL.Path, err)
	}
	c.JSON(status, gin.H{"code": status, "message": err.Error()})
}

func ok(c *gin.Context, message string, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"code": http.StatusOK, "message": message, "data": data})
}
