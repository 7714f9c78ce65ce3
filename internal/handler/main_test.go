package handler

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"uvlhub/internal/middleware"
	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/internal/service"
	"uvlhub/pkg/database"
	"uvlhub/pkg/log"
	"uvlhub/pkg/token"
	"uvlhub/pkg/uvl"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type testServer struct {
	router *gin.Engine
	db     *gorm.DB
	paths  service.Paths
	jwt    *token.JWTManager
	users  repository.UserRepository
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)
	log.Init("error", "console", "")

	dir := t.TempDir()
	db, err := database.Open("sqlite", filepath.Join(dir, "uvlhub_test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	paths := service.Paths{UploadsDir: filepath.Join(dir, "uploads")}
	jwtManager := token.NewJWTManager("test-secret", 1, 1, 3600)
	userRepo := repository.NewUserRepository(db)
	datasetRepo := repository.NewDatasetRepository(db)
	recordRepo := repository.NewRecordRepository(db)

	authService := service.NewAuthService(userRepo, repository.NewMemoryTokenRepository(), jwtManager)
	datasetService := service.NewDatasetService(datasetRepo, recordRepo, paths, "localhost", nil)
	stagingService := service.NewStagingService(paths, time.Second)
	depositionService := service.NewDepositionService(repository.NewDepositionRepository(db), paths)
	syncService := service.NewSyncService(datasetService, depositionService, nil, nil)
	downloadService := service.NewDownloadService(datasetRepo, recordRepo, repository.NewDOIMappingRepository(db),
		uvl.NewCommandConverter(""), nil, paths, service.DownloadOptions{Concurrency: 2})
	communityService := service.NewCommunityService(repository.NewCommunityRepository(db), datasetRepo)
	exploreService := service.NewExploreService(repository.NewExploreRepository(db))

	auth := NewAuthHandler(authService)
	datasets := NewDatasetHandler(datasetService, syncService, stagingService)
	staging := NewStagingHandler(stagingService)
	downloads := NewDownloadHandler(downloadService, datasetService)
	explore := NewExploreHandler(exploreService, datasetService)
	communities := NewCommunityHandler(communityService)
	depositions := NewDepositionHandler(depositionService)

	requireAuth := middleware.AuthMiddleware(jwtManager, authService)
	optionalAuth := middleware.OptionalAuth(jwtManager, authService)

	r := gin.New()
	r.POST("/auth/signup", auth.Signup)
	r.POST("/auth/login", auth.Login)
	r.POST("/auth/logout", requireAuth, auth.Logout)
	r.GET("/auth/me", requireAuth, auth.Me)
	r.POST("/dataset/upload", requireAuth, datasets.Create)
	r.GET("/dataset/list", requireAuth, datasets.List)
	r.GET("/dataset/stats", datasets.Stats)
	r.POST("/dataset/file/upload", requireAuth, staging.UploadUVL)
	r.POST("/dataset/file/upload/github", requireAuth, staging.UploadFromGitHub)
	r.POST("/dataset/file/delete", requireAuth, staging.Delete)
	r.GET("/dataset/download/:id", optionalAuth, downloads.DownloadDataset)
	r.GET("/doi/*doi", optionalAuth, downloads.ViewByDOI)
	r.GET("/explore", explore.Get)
	r.POST("/explore", explore.Post)
	r.GET("/communities", communities.List)
	r.GET("/communities/mine", requireAuth, communities.Mine)
	r.POST("/community", requireAuth, communities.Create)
	r.GET("/community/:id", communities.Get)
	r.POST("/community/:id/request", requireAuth, communities.Request)
	r.POST("/community/:id/requests/:user_id/:action", requireAuth, communities.HandleRequest)
	r.POST("/community/:id/leave", requireAuth, communities.Leave)
	r.GET("/fakenodo/depositions", depositions.List)
	r.GET("/fakenodo/depositions/:id", depositions.Get)

	return &testServer{router: r, db: db, paths: paths, jwt: jwtManager, users: userRepo}
}

// signup 创建用户并返回其 access token。
func (s *testServer) signup(t *testing.T, email string) (*model.User, string) {
	t.Helper()
	user := &model.User{Email: email, Password: "x"}
	require.NoError(t, s.users.CreateWithProfile(user, &model.UserProfile{Name: "John", Surname: "Doe"}))
	tok, err := s.jwt.GenerateToken(user.ID, user.Email)
	require.NoError(t, err)
	return user, tok
}

func (s *testServer) do(t *testing.T, method, path, tok string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out))
	return out
}

func expectStatus(t *testing.T, w *httptest.ResponseRecorder, status int) {
	t.Helper()
	require.Equal(t, status, w.Code, "body: %s", w.Body.String())
}
