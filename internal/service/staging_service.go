package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"uvlhub/pkg/log"

	"github.com/dustin/go-humanize"
)

// 从 GitHub 下载的文件大小上限
const maxGitHubFileSize = 50 << 20

// ZipUploadResult 是 zip 上传后的结果。
type ZipUploadResult struct {
	FileName       string   `json:"fileName"`
	ExtractedFiles []string `json:"extracted_files"`
	ExtractedPath  string   `json:"extracted_path"`
}

// GitHubUploadResult 是从 GitHub 导入文件后的结果。
type GitHubUploadResult struct {
	Message        string   `json:"message"`
	FileName       string   `json:"fileName"`
	FileType       string   `json:"fileType"`
	FileSize       string   `json:"fileSize"`
	FilePath       string   `json:"filePath,omitempty"`
	ExtractedFiles []string `json:"extracted_files,omitempty"`
}

// StagingService 管理用户暂存目录中的 UVL 文件。
type StagingService interface {
	// UploadUVL 保存一个 .uvl 文件，返回实际保存的文件名。
	UploadUVL(userID uint, filename string, r io.Reader) (string, error)
	UploadZip(userID uint, filename string, r io.Reader) (*ZipUploadResult, error)
	UploadFromGitHub(ctx context.Context, userID uint, rawURL string) (*GitHubUploadResult, error)
	DeleteStaged(userID uint, filename string) error
	ClearTemp(userID uint) error
	TempFolder(userID uint) string
}

type stagingService struct {
	paths  Paths
	client *http.Client
	// maxDownload 是从 GitHub 下载的单个文件大小上限（字节）
	maxDownload int64
}

// NewStagingService 创建一个新的 StagingService，githubTimeout 为访问 GitHub 的超时时间。
func NewStagingService(paths Paths, githubTimeout time.Duration) StagingService {
	return &stagingService{
		paths:       paths,
		client:      &http.Client{Timeout: githubTimeout},
		maxDownload: maxGitHubFileSize,
	}
}

func (s *stagingService) TempFolder(userID uint) string {
	return s.paths.TempFolder(userID)
}

// uniqueName 在目录中为文件名找一个不冲突的名字：base (1).ext、base (2).ext ...
func uniqueName(dir, name string) string {
	if _, err := os.Stat(filepath.Join(dir, name)); os.IsNotExist(err) {
		return name
	}
	ext := filepath.Ext(name)
	base := strings.TrimSuffix(name, ext)
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s (%d)%s", base, i, ext)
		if _, err := os.Stat(filepath.Join(dir, candidate)); os.IsNotExist(err) {
			return candidate
		}
	}
}

// save 以不冲突的文件名写入暂存目录。
// save 把 r 写入暂存目录，返回实际文件名与写入的字节数。
func (s *stagingService) save(userID uint, name string, r io.Reader) (string, int64, error) {
	dir := s.paths.TempFolder(userID)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	name = uniqueName(dir, filepath.Base(name))
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", 0, err
	}
	n, err := io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		_ = os.Remove(filepath.Join(dir, name))
		return "", 0, err
	}
	log.Debugf("[StagingService] 已暂存文件 %s (%s)", name, humanize.IBytes(uint64(n)))
	return name, n, nil
}

func (s *stagingService) UploadUVL(userID uint, filename string, r io.Reader) (string, error) {
	if filename == "" || !strings.HasSuffix(filename, ".uvl") {
		return "", ErrNoValidFile
	}
	name, _, err := s.save(userID, filename, r)
	return name, err
}

func (s *stagingService) UploadZip(userID uint, filename string, r io.Reader) (*ZipUploadResult, error) {
	if filename == "" || !strings.HasSuffix(filename, ".zip") {
		return nil, ErrNoValidFile
	}
	saved, _, err := s.save(userID, filename, r)
	if err != nil {
		return nil, err
	}
	dir := s.paths.TempFolder(userID)
	extracted, err := s.extractUVL(dir, filepath.Join(dir, saved))
	if err != nil {
		return nil, err
	}
	if len(extracted) == 0 {
		return nil, ErrNoUVLInZip
	}
	log.Infof("[StagingService] zip %s 解压出 %d 个 UVL 文件, userID: %d", saved, len(extracted), userID)
	return &ZipUploadResult{FileName: saved, ExtractedFiles: extracted, ExtractedPath: dir}, nil
}

// extractUVL 只解压 .uvl 条目，使用条目的基本名，避免写到暂存目录之外。
func (s *stagingService) extractUVL(dir, zipPath string) ([]string, error) {
	zr, err := zip.OpenReader(zipPath)
	if err != nil {
		return nil, ErrInvalidZip
	}
	defer zr.Close()

	var extracted []string
	for _, entry := range zr.File {
		if entry.FileInfo().IsDir() || !strings.HasSuffix(entry.Name, ".uvl") {
			continue
		}
		base := path.Base(strings.ReplaceAll(entry.Name, `\`, "/"))
		if base == "." || base == "/" {
			continue
		}
		rc, err := entry.Open()
		if err != nil {
			return nil, ErrInvalidZip
		}
		name, err := s.saveInto(dir, base, rc)
		rc.Close()
		if err != nil {
			return nil, err
		}
		extracted = append(extracted, name)
	}
	return extracted, nil
}

func (s *stagingService) saveInto(dir, name string, r io.Reader) (string, error) {
	name = uniqueName(dir, name)
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return "", err
	}
	_, err = io.Copy(f, r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return name, err
}

// githubRawURL 将 github.com 页面地址改写为 raw.githubusercontent.com 地址。
func githubRawURL(url string) (string, error) {
	if strings.TrimSpace(url) == "" {
		return "", ErrGitHubURLRequired
	}
	if !strings.Contains(url, "github.com") {
		return "", ErrInvalidGitHubURL
	}
	raw := strings.Replace(url, "github.com", "raw.githubusercontent.com", 1)
	return strings.Replace(raw, "/blob/", "/", 1), nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

func (s *stagingService) UploadFromGitHub(ctx context.Context, userID uint, url string) (*GitHubUploadResult, error) {
	rawURL, err := githubRawURL(url)
	if err != nil {
		return nil, err
	}
	fileName := rawURL[strings.LastIndex(rawURL, "/")+1:]
	isZip := strings.HasSuffix(fileName, ".zip")
	if !isZip && !strings.HasSuffix(fileName, ".uvl") {
		return nil, ErrUnsupportedFileType
	}

	log.Infof("[StagingService] 从 GitHub 下载文件: %s", rawURL)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitHubFetch, err)
	}
	resp, err := s.client.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, ErrGitHubTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGitHubFetch, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("%w: %s for url: %s", ErrGitHubFetch, resp.Status, rawURL)
	}

	// 多读一个字节用于判断是否超限
	saved, n, err := s.save(userID, fileName, io.LimitReader(resp.Body, s.maxDownload+1))
	if err != nil {
		if isTimeout(err) {
			return nil, ErrGitHubTimeout
		}
		return nil, fmt.Errorf("%w: %v", ErrGitHubFetch, err)
	}
	dir := s.paths.TempFolder(userID)
	if n > s.maxDownload {
		_ = os.Remove(filepath.Join(dir, saved))
		log.Warnf("[StagingService] GitHub 文件超过 %s 上限: %s", humanize.IBytes(uint64(s.maxDownload)), rawURL)
		return nil, ErrFileTooLarge
	}

	result := &GitHubUploadResult{
		FileName: saved,
		FileType: resp.Header.Get("Content-Type"),
		FileSize: resp.Header.Get("Content-Length"),
	}
	if isZip {
		extracted, err := s.extractUVL(dir, filepath.Join(dir, saved))
		if err != nil {
			return nil, err
		}
		result.Message = "ZIP file uploaded and extracted successfully"
		result.ExtractedFiles = extracted
		if result.ExtractedFiles == nil {
			result.ExtractedFiles = []string{}
		}
		return result, nil
	}
	result.Message = "UVL file uploaded and validated successfully"
	result.FilePath = filepath.Join(dir, saved)
	return result, nil
}

func (s *stagingService) DeleteStaged(userID uint, filename string) error {
	name := filepath.Base(filename)
	if filename == "" || name == "." || name == ".." {
		return ErrStagedFileNotFound
	}
	err := os.Remove(filepath.Join(s.paths.TempFolder(userID), name))
	if os.IsNotExist(err) {
		return ErrStagedFileNotFound
	}
	return err
}

// ClearTemp 删除用户的整个暂存目录，目录不存在时不报错。
func (s *stagingService) ClearTemp(userID uint) error {
	return os.RemoveAll(s.paths.TempFolder(userID))
}
