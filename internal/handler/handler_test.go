package handler

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleUVL = "features\n\tRoot\n\t\toptional\n\t\t\tA\n"

func (s *testServer) uploadUVL(t *testing.T, tok, name, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", name)
	require.NoError(t, err)
	_, err = fw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/dataset/file/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+tok)
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func TestAuthRequired(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodGet, "/auth/me", "", nil)
	expectStatus(t, w, http.StatusUnauthorized)

	w = s.do(t, http.MethodGet, "/auth/me", "garbage", nil)
	expectStatus(t, w, http.StatusUnauthorized)
}

func TestLogoutRevokesToken(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.signup(t, "user1@example.com")

	expectStatus(t, s.do(t, http.MethodGet, "/auth/me", tok, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodPost, "/auth/logout", tok, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/auth/me", tok, nil), http.StatusUnauthorized)
}

func TestSignupThenLogin(t *testing.T) {
	s := newTestServer(t)
	w := s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "new@example.com", "password": "1234", "name": "Ada", "surname": "Lovelace",
	})
	expectStatus(t, w, http.StatusOK)

	w = s.do(t, http.MethodPost, "/auth/signup", "", map[string]string{
		"email": "new@example.com", "password": "1234", "name": "Ada", "surname": "Lovelace",
	})
	expectStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Email new@example.com in use", decode(t, w)["message"])

	w = s.do(t, http.MethodPost, "/auth/login", "", map[string]string{"email": "new@example.com", "password": "1234"})
	expectStatus(t, w, http.StatusOK)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.NotEmpty(t, data["token"])
}

func TestUploadUVLAndDelete(t *testing.T) {
	s := newTestServer(t)
	user, tok := s.signup(t, "user1@example.com")

	w := s.uploadUVL(t, tok, "model.uvl", sampleUVL)
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "model.uvl", decode(t, w)["filename"])

	w = s.uploadUVL(t, tok, "model.uvl", sampleUVL)
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "model (1).uvl", decode(t, w)["filename"])

	w = s.uploadUVL(t, tok, "model.txt", "x")
	expectStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "No valid file", decode(t, w)["message"])

	w = s.do(t, http.MethodPost, "/dataset/file/delete", tok, map[string]string{"file": "model.uvl"})
	expectStatus(t, w, http.StatusOK)
	_, err := os.Stat(filepath.Join(s.paths.TempFolder(user.ID), "model.uvl"))
	assert.True(t, os.IsNotExist(err))

	w = s.do(t, http.MethodPost, "/dataset/file/delete", tok, map[string]string{"file": "model.uvl"})
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "Error: File not found", decode(t, w)["error"])
}

func TestUploadFromGitHubValidation(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.signup(t, "user1@example.com")

	w := s.do(t, http.MethodPost, "/dataset/file/upload/github", tok, map[string]string{})
	expectStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "GitHub URL is required", decode(t, w)["error"])

	w = s.do(t, http.MethodPost, "/dataset/file/upload/github", tok, map[string]string{"url": "https://example.com/a.uvl"})
	expectStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "Invalid GitHub URL", decode(t, w)["error"])
}

// createDataset 通过接口上传文件并创建数据集，返回数据集 ID。
func (s *testServer) createDataset(t *testing.T, tok string) uint {
	t.Helper()
	expectStatus(t, s.uploadUVL(t, tok, "model.uvl", sampleUVL), http.StatusOK)
	w := s.do(t, http.MethodPost, "/dataset/upload", tok, map[string]interface{}{
		"title":            "Sample dataset",
		"desc":             "Description",
		"publication_type": "none",
		"tags":             "tag1, tag2",
		"feature_models":   []map[string]string{{"uvl_filename": "model.uvl", "title": "Model"}},
	})
	expectStatus(t, w, http.StatusOK)
	body := decode(t, w)
	require.Equal(t, "Everything works!", body["message"])
	return uint(body["dataset_id"].(float64))
}

func TestCreateDatasetSynchronizesAndIsExplorable(t *testing.T) {
	s := newTestServer(t)
	user, tok := s.signup(t, "user1@example.com")
	id := s.createDataset(t, tok)

	_, err := os.Stat(s.paths.TempFolder(user.ID))
	assert.True(t, os.IsNotExist(err))

	w := s.do(t, http.MethodGet, "/explore?query=sample", "", nil)
	expectStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Body.String(), `"dataset_doi":"10.1234/fakenodo-1"`)

	w = s.do(t, http.MethodPost, "/explore", "", map[string]interface{}{"query": "missing"})
	expectStatus(t, w, http.StatusOK)
	assert.Equal(t, "[]", w.Body.String())

	w = s.do(t, http.MethodGet, "/explore?min_creation_date=yesterday", "", nil)
	expectStatus(t, w, http.StatusBadRequest)

	w = s.do(t, http.MethodGet, "/doi/10.1234/fakenodo-1/", "", nil)
	expectStatus(t, w, http.StatusOK)
	assert.NotEmpty(t, w.Result().Cookies())

	w = s.do(t, http.MethodGet, fmt.Sprintf("/dataset/download/%d", id), "", nil)
	expectStatus(t, w, http.StatusOK)
	assert.Contains(t, w.Header().Get("Content-Disposition"), fmt.Sprintf("dataset_%d.zip", id))

	w = s.do(t, http.MethodGet, "/fakenodo/depositions/1", "", nil)
	expectStatus(t, w, http.StatusOK)
	w = s.do(t, http.MethodGet, "/fakenodo/depositions/2", "", nil)
	expectStatus(t, w, http.StatusNotFound)
}

func TestCreateDatasetMissingStagedFile(t *testing.T) {
	s := newTestServer(t)
	_, tok := s.signup(t, "user1@example.com")

	w := s.do(t, http.MethodPost, "/dataset/upload", tok, map[string]interface{}{
		"title":          "Sample dataset",
		"desc":           "Description",
		"feature_models": []map[string]string{{"uvl_filename": "missing.uvl"}},
	})
	expectStatus(t, w, http.StatusBadRequest)
	assert.Contains(t, w.Body.String(), "Exception while create dataset data in local")

	w = s.do(t, http.MethodPost, "/dataset/upload", tok, map[string]interface{}{"title": "No models"})
	expectStatus(t, w, http.StatusBadRequest)
}

func TestCommunityEndpoints(t *testing.T) {
	s := newTestServer(t)
	_, ownerTok := s.signup(t, "owner@example.com")
	member, memberTok := s.signup(t, "member@example.com")

	w := s.do(t, http.MethodPost, "/community", ownerTok, map[string]string{"name": "AI Researchers"})
	expectStatus(t, w, http.StatusOK)
	id := uint(decode(t, w)["data"].(map[string]interface{})["id"].(float64))

	w = s.do(t, http.MethodPost, "/community", ownerTok, map[string]string{"name": "AI Researchers"})
	expectStatus(t, w, http.StatusBadRequest)
	assert.Equal(t, "A community with this name already exists.", decode(t, w)["message"])

	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/community/%d/request", id), memberTok, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/community/%d/request", id), memberTok, nil), http.StatusBadRequest)

	path := fmt.Sprintf("/community/%d/requests/%d/accept", id, member.ID)
	expectStatus(t, s.do(t, http.MethodPost, path, memberTok, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/community/%d/requests/%d/maybe", id, member.ID), ownerTok, nil), http.StatusBadRequest)
	expectStatus(t, s.do(t, http.MethodPost, path, ownerTok, nil), http.StatusOK)

	w = s.do(t, http.MethodGet, "/communities/mine", memberTok, nil)
	expectStatus(t, w, http.StatusOK)
	data := decode(t, w)["data"].(map[string]interface{})
	assert.Len(t, data["member"], 1)
	assert.Len(t, data["owner"], 0)

	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/community/%d/leave", id), ownerTok, nil), http.StatusForbidden)
	expectStatus(t, s.do(t, http.MethodPost, fmt.Sprintf("/community/%d/leave", id), memberTok, nil), http.StatusOK)
	expectStatus(t, s.do(t, http.MethodGet, "/community/999", "", nil), http.StatusNotFound)
}
