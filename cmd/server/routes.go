package main

import (
	"uvlhub/internal/handler"

	"github.com/gin-gonic/gin"
)

type routeHandlers struct {
	auth       *handler.AuthHandler
	dataset    *handler.DatasetHandler
	staging    *handler.StagingHandler
	download   *handler.DownloadHandler
	explore    *handler.ExploreHandler
	community  *handler.CommunityHandler
	deposition *handler.DepositionHandler

	requireAuth  gin.HandlerFunc
	optionalAuth gin.HandlerFunc
}

func registerRoutes(r *gin.Engine, h routeHandlers) {
	auth := r.Group("/auth")
	{
		auth.POST("/signup", h.auth.Signup)
		auth.POST("/login", h.auth.Login)
		auth.POST("/refresh", h.auth.RefreshToken)
		auth.POST("/verify/send", h.auth.SendVerification)
		auth.GET("/verify/:token", h.auth.Verify)
		auth.POST("/logout", h.requireAuth, h.auth.Logout)
		auth.GET("/me", h.requireAuth, h.auth.Me)
	}

	dataset := r.Group("/dataset")
	{
		dataset.GET("/stats", h.dataset.Stats)
		dataset.GET("/download/all", h.optionalAuth, h.download.DownloadAll)
		dataset.GET("/download/:id", h.optionalAuth, h.download.DownloadDataset)

		authed := dataset.Group("")
		authed.Use(h.requireAuth)
		{
			authed.POST("/upload", h.dataset.Create)
			authed.POST("/upload/zip", h.dataset.Create)
			authed.GET("/list", h.dataset.List)
			authed.GET("/unsynchronized/:id", h.dataset.GetUnsynchronized)
			authed.POST("/file/upload", h.staging.UploadUVL)
			authed.POST("/file/upload/zip", h.staging.UploadZip)
			authed.POST("/file/upload/github", h.staging.UploadFromGitHub)
			authed.POST("/file/delete", h.staging.Delete)
		}
	}

	r.GET("/doi/*doi", h.optionalAuth, h.download.ViewByDOI)
	r.GET("/file/download/:id", h.download.DownloadFile)

	r.GET("/explore", h.explore.Get)
	r.POST("/explore", h.explore.Post)

	r.GET("/communities", h.community.List)
	r.GET("/communities/search", h.community.Search)
	r.GET("/communities/mine", h.requireAuth, h.community.Mine)

	community := r.Group("/community")
	{
		community.GET("/:id", h.community.Get)
		community.POST("", h.requireAuth, h.community.Create)
		community.PUT("/:id", h.requireAuth, h.community.Update)
		community.DELETE("/:id", h.requireAuth, h.community.Delete)
		community.POST("/:id/request", h.requireAuth, h.community.Request)
		community.POST("/:id/requests/:user_id/:action", h.requireAuth, h.community.HandleRequest)
		community.POST("/:id/leave", h.requireAuth, h.community.Leave)
	}

	fakenodo := r.Group("/fakenodo")
	{
		fakenodo.GET("/depositions", h.deposition.List)
		fakenodo.GET("/depositions/:id", h.deposition.Get)
	}
}
