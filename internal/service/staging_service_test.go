package service

import (
	"archive/zip"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStaging(t *testing.T) (StagingService, Paths) {
	t.Helper()
	paths := Paths{UploadsDir: t.TempDir()}
	return NewStagingService(paths, time.Second), paths
}

func zipBytes(t *testing.T, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for name, content := range entries {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestUploadUVLPicksUniqueNames(t *testing.T) {
	s, paths := newStaging(t)

	first, err := s.UploadUVL(1, "model.uvl", strings.NewReader(sampleUVL))
	require.NoError(t, err)
	second, err := s.UploadUVL(1, "model.uvl", strings.NewReader(sampleUVL))
	require.NoError(t, err)
	third, err := s.UploadUVL(1, "model.uvl", strings.NewReader(sampleUVL))
	require.NoError(t, err)

	assert.Equal(t, "model.uvl", first)
	assert.Equal(t, "model (1).uvl", second)
	assert.Equal(t, "model (2).uvl", third)
	_, err = os.Stat(filepath.Join(paths.TempFolder(1), "model (2).uvl"))
	assert.NoError(t, err)
}

func TestUploadUVLRejectsOtherExtensions(t *testing.T) {
	s, _ := newStaging(t)
	_, err := s.UploadUVL(1, "model.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrNoValidFile)
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestUploadZipExtractsOnlyUVLBaseNames(t *testing.T) {
	s, paths := newStaging(t)
	data := zipBytes(t, map[string]string{
		"models/a.uvl":     sampleUVL,
		"../../escape.uvl": sampleUVL,
		"readme.md":        "# readme",
	})

	res, err := s.UploadZip(1, "models.zip", bytes.NewReader(data))
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a.uvl", "escape.uvl"}, res.ExtractedFiles)
	assert.Equal(t, paths.TempFolder(1), res.ExtractedPath)

	_, err = os.Stat(filepath.Join(paths.TempFolder(1), "readme.md"))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(paths.UploadsDir, "escape.uvl"))
	assert.True(t, os.IsNotExist(err))
}

func TestUploadZipWithoutUVL(t *testing.T) {
	s, _ := newStaging(t)
	data := zipBytes(t, map[string]string{"readme.md": "x"})

	_, err := s.UploadZip(1, "models.zip", bytes.NewReader(data))
	assert.ErrorIs(t, err, ErrNoUVLInZip)
}

func TestUploadZipInvalidArchive(t *testing.T) {
	s, _ := newStaging(t)
	_, err := s.UploadZip(1, "models.zip", strings.NewReader("not a zip"))
	assert.ErrorIs(t, err, ErrInvalidZip)
}

func TestGitHubRawURL(t *testing.T) {
	raw, err := githubRawURL("https://github.com/user/repo/blob/main/models/a.uvl")
	require.NoError(t, err)
	assert.Equal(t, "https://raw.githubusercontent.com/user/repo/main/models/a.uvl", raw)

	_, err = githubRawURL("")
	assert.ErrorIs(t, err, ErrGitHubURLRequired)
	_, err = githubRawURL("https://gitlab.com/user/repo/a.uvl")
	assert.ErrorIs(t, err, ErrInvalidGitHubURL)
}

func TestUploadFromGitHubRejectsUnsupportedTypeBeforeDownload(t *testing.T) {
	s, paths := newStaging(t)
	_, err := s.UploadFromGitHub(context.Background(), 1, "https://github.com/user/repo/blob/main/notes.txt")
	assert.ErrorIs(t, err, ErrUnsupportedFileType)

	_, err = os.Stat(paths.TempFolder(1))
	assert.True(t, os.IsNotExist(err))
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(req *http.Request) (*http.Response, error) {
	return f(req)
}

// githubStaging 返回一个由 body 应答所有请求、下载上限为 limit 字节的暂存服务。
func githubStaging(t *testing.T, body string, limit int64) (*stagingService, Paths, *string) {
	t.Helper()
	paths := Paths{UploadsDir: t.TempDir()}
	var requested string
	client := &http.Client{Transport: roundTripFunc(func(req *http.Request) (*http.Response, error) {
		requested = req.URL.String()
		return &http.Response{
			StatusCode: http.StatusOK,
			Header:     http.Header{"Content-Type": []string{"text/plain"}},
			Body:       io.NopCloser(strings.NewReader(body)),
			Request:    req,
		}, nil
	})}
	return &stagingService{paths: paths, client: client, maxDownload: limit}, paths, &requested
}

func TestUploadFromGitHubStagesFile(t *testing.T) {
	s, paths, requested := githubStaging(t, sampleUVL, int64(len(sampleUVL)))

	res, err := s.UploadFromGitHub(context.Background(), 1, "https://github.com/user/repo/blob/main/model.uvl")
	require.NoError(t, err)
	assert.Equal(t, "https://raw.githubusercontent.com/user/repo/main/model.uvl", *requested)
	assert.Equal(t, "model.uvl", res.FileName)

	data, err := os.ReadFile(filepath.Join(paths.TempFolder(1), "model.uvl"))
	require.NoError(t, err)
	assert.Equal(t, sampleUVL, string(data))
}

func TestUploadFromGitHubRejectsOversizedFile(t *testing.T) {
	s, paths, _ := githubStaging(t, strings.Repeat("x", 2048), 1024)

	_, err := s.UploadFromGitHub(context.Background(), 1, "https://github.com/user/repo/blob/main/big.uvl")
	require.ErrorIs(t, err, ErrFileTooLarge)
	assert.ErrorIs(t, err, ErrInvalidInput)

	entries, err := os.ReadDir(paths.TempFolder(1))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestDeleteStagedAndClearTemp(t *testing.T) {
	s, paths := newStaging(t)
	_, err := s.UploadUVL(1, "a.uvl", strings.NewReader(sampleUVL))
	require.NoError(t, err)

	require.NoError(t, s.DeleteStaged(1, "a.uvl"))
	assert.ErrorIs(t, s.DeleteStaged(1, "a.uvl"), ErrStagedFileNotFound)
	assert.ErrorIs(t, s.DeleteStaged(1, ""), ErrStagedFileNotFound)

	require.NoError(t, s.ClearTemp(1))
	_, err = os.Stat(paths.TempFolder(1))
	assert.True(t, os.IsNotExist(err))
	assert.NoError(t, s.ClearTemp(1))
}
