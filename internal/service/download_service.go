package service

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"time"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/log"
	"uvlhub/pkg/storage"
	"uvlhub/pkg/uvl"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"
)

// Archive 是生成在临时目录中的 zip 文件，使用完毕后调用 Cleanup。
type Archive struct {
	Path   string
	Name   string
	Cookie string
	dir    string
}

// Cleanup 删除临时目录。
func (a *Archive) Cleanup() {
	if a.dir != "" {
		_ = os.RemoveAll(a.dir)
	}
}

// DOIView 是 DOI 落地页的结果；RedirectDOI 非空时应跳转到新 DOI。
type DOIView struct {
	Dataset     *model.DataSet
	RedirectDOI string
	Cookie      string
}

// FileDownload 描述单个文件的下载位置：URL 非空时跳转，否则读取本地 Path。
type FileDownload struct {
	Name string
	Path string
	URL  string
}

// DownloadOptions 控制全量下载时的格式转换。
type DownloadOptions struct {
	Concurrency       int
	ConversionTimeout time.Duration
}

// DownloadService 负责数据集打包下载、DOI 浏览与文件下载。
type DownloadService interface {
	DownloadDataset(ctx context.Context, datasetID uint, userID *uint, cookie string) (*Archive, error)
	DownloadAll(ctx context.Context, userID *uint, cookie string) (*Archive, error)
	ViewByDOI(ctx context.Context, doi string, userID *uint, cookie string) (*DOIView, error)
	DownloadFile(ctx context.Context, fileID uint) (*FileDownload, error)
}

type downloadService struct {
	datasetRepo    repository.DatasetRepository
	recordRepo     repository.RecordRepository
	doiMappingRepo repository.DOIMappingRepository
	converter      uvl.Converter
	mirror         FileMirror
	paths          Paths
	opts           DownloadOptions
}

// NewDownloadService 创建一个新的 DownloadService 实例，mirror 可以为 nil。
func NewDownloadService(
	datasetRepo repository.DatasetRepository,
	recordRepo repository.RecordRepository,
	doiMappingRepo repository.DOIMappingRepository,
	converter uvl.Converter,
	mirror FileMirror,
	paths Paths,
	opts DownloadOptions,
) DownloadService {
	if opts.Concurrency <= 0 {
		opts.Concurrency = 1
	}
	if opts.ConversionTimeout <= 0 {
		opts.ConversionTimeout = 30 * time.Second
	}
	return &downloadService{
		datasetRepo:    datasetRepo,
		recordRepo:     recordRepo,
		doiMappingRepo: doiMappingRepo,
		converter:      converter,
		mirror:         mirror,
		paths:          paths,
		opts:           opts,
	}
}

func ensureCookie(cookie string) string {
	if cookie == "" {
		return uuid.NewString()
	}
	return cookie
}

func newArchive(name, cookie string) (*Archive, *os.File, error) {
	dir, err := os.MkdirTemp("", "uvlhub-download-")
	if err != nil {
		return nil, nil, err
	}
	a := &Archive{Path: filepath.Join(dir, name), Name: name, Cookie: cookie, dir: dir}
	f, err := os.Create(a.Path)
	if err != nil {
		a.Cleanup()
		return nil, nil, err
	}
	return a, f, nil
}

// DownloadDataset 把数据集的永久目录打包为 dataset_<id>.zip。
func (s *downloadService) DownloadDataset(ctx context.Context, datasetID uint, userID *uint, cookie string) (*Archive, error) {
	ds, err := s.datasetRepo.FindByID(datasetID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDatasetNotFound
	}
	if err != nil {
		return nil, err
	}

	cookie = ensureCookie(cookie)
	folder := fmt.Sprintf("dataset_%d", ds.ID)
	archive, f, err := newArchive(folder+".zip", cookie)
	if err != nil {
		return nil, err
	}
	if err := zipDir(f, s.paths.DatasetFolder(ds.UserID, ds.ID), folder); err != nil {
		archive.Cleanup()
		return nil, err
	}

	exists, err := s.recordRepo.DownloadRecordExists(userID, &ds.ID, cookie)
	if err != nil {
		archive.Cleanup()
		return nil, err
	}
	if !exists {
		rec := &model.DSDownloadRecord{UserID: userID, DatasetID: &ds.ID, DownloadDate: time.Now().UTC(), DownloadCookie: cookie}
		if err := s.recordRepo.CreateDownloadRecord(rec); err != nil {
			archive.Cleanup()
			return nil, err
		}
	}
	log.Infof("[DownloadService] 数据集打包完成, datasetID: %d", ds.ID)
	return archive, nil
}

// zipDir 将 src 下的文件写入 zip，条目位于 prefix/ 下；src 不存在时生成空 zip。
func zipDir(f *os.File, src, prefix string) error {
	zw := zip.NewWriter(f)
	err := filepath.Walk(src, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) && p == src {
				return nil
			}
			return err
		}
		if info.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		w, err := zw.Create(path.Join(prefix, filepath.ToSlash(rel)))
		if err != nil {
			return err
		}
		in, err := os.Open(p)
		if err != nil {
			return err
		}
		defer in.Close()
		_, err = io.Copy(w, in)
		return err
	})
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// conversion 是全量下载中的一个转换任务，结果按任务顺序写入 zip。
type conversion struct {
	entry  string
	source string
	format uvl.Format
	data   []byte
	ok     bool
}

// DownloadAll 把所有数据集的文件转换为全部导出格式并打包为 all_datasets.zip。
func (s *downloadService) DownloadAll(ctx context.Context, userID *uint, cookie string) (*Archive, error) {
	datasets, err := s.datasetRepo.FindAll()
	if err != nil {
		return nil, err
	}

	// 1. 收集磁盘上存在的文件
	var jobs []*conversion
	for i := range datasets {
		ds := &datasets[i]
		dir := s.paths.DatasetFolder(ds.UserID, ds.ID)
		if _, err := os.Stat(dir); err != nil {
			log.Debugf("[DownloadService] 数据集目录不存在, datasetID: %d", ds.ID)
			continue
		}
		folder := fmt.Sprintf("dataset_%d", ds.ID)
		for _, file := range ds.Files() {
			source := filepath.Join(dir, filepath.Base(file.Name))
			if _, err := os.Stat(source); err != nil {
				log.Warnf("[DownloadService] 文件不存在: %s", source)
				continue
			}
			for _, format := range uvl.ExportFormats {
				jobs = append(jobs, &conversion{
					entry:  path.Join(folder, format.EntryName(file.Name)),
					source: source,
					format: format,
				})
			}
		}
	}
	if len(jobs) == 0 {
		return nil, ErrNoFilesToDownload
	}

	// 2. 有界并发地执行转换，单个转换失败只跳过该条目
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Concurrency)
	for _, job := range jobs {
		job := job
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(gctx, s.opts.ConversionTimeout)
			defer cancel()
			data, err := s.converter.Convert(cctx, job.source, job.format)
			if err != nil {
				log.Warnf("[DownloadService] 转换失败, file: %s, format: %s, error: %v", job.source, job.format, err)
				return nil
			}
			job.data, job.ok = data, true
			return nil
		})
	}
	_ = g.Wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// 3. 按固定顺序写入 zip
	cookie = ensureCookie(cookie)
	archive, f, err := newArchive("all_datasets.zip", cookie)
	if err != nil {
		return nil, err
	}
	if err := writeConversions(f, jobs); err != nil {
		archive.Cleanup()
		return nil, err
	}

	// 4. 全量下载记录的 dataset_id 为空
	exists, err := s.recordRepo.DownloadRecordExists(userID, nil, cookie)
	if err != nil {
		archive.Cleanup()
		return nil, err
	}
	if !exists {
		rec := &model.DSDownloadRecord{UserID: userID, DownloadDate: time.Now().UTC(), DownloadCookie: cookie}
		if err := s.recordRepo.CreateDownloadRecord(rec); err != nil {
			archive.Cleanup()
			return nil, err
		}
	}
	log.Infof("[DownloadService] 全量打包完成, 条目数: %d", len(jobs))
	return archive, nil
}

func writeConversions(f *os.File, jobs []*conversion) error {
	zw := zip.NewWriter(f)
	var err error
	for _, job := range jobs {
		if !job.ok {
			continue
		}
		var w io.Writer
		if w, err = zw.Create(job.entry); err != nil {
			break
		}
		if _, err = w.Write(job.data); err != nil {
			break
		}
	}
	if cerr := zw.Close(); err == nil {
		err = cerr
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	return err
}

// ViewByDOI 查找 DOI 对应的数据集并记录一次浏览，旧 DOI 返回跳转目标。
func (s *downloadService) ViewByDOI(ctx context.Context, doi string, userID *uint, cookie string) (*DOIView, error) {
	newDOI, ok, err := s.doiMappingRepo.FindNewDOI(doi)
	if err != nil {
		return nil, err
	}
	if ok {
		return &DOIView{RedirectDOI: newDOI}, nil
	}

	ds, err := s.datasetRepo.FindByDOI(doi)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDOINotFound
	}
	if err != nil {
		return nil, err
	}

	cookie = ensureCookie(cookie)
	exists, err := s.recordRepo.ViewRecordExists(userID, ds.ID, cookie)
	if err != nil {
		return nil, err
	}
	if !exists {
		rec := &model.DSViewRecord{UserID: userID, DatasetID: ds.ID, ViewDate: time.Now().UTC(), ViewCookie: cookie}
		if err := s.recordRepo.CreateViewRecord(rec); err != nil {
			return nil, err
		}
	}
	return &DOIView{Dataset: ds, Cookie: cookie}, nil
}

// DownloadFile 返回文件的下载位置；启用镜像时优先返回预签名地址。
func (s *downloadService) DownloadFile(ctx context.Context, fileID uint) (*FileDownload, error) {
	loc, err := s.datasetRepo.FindHubfile(fileID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrFileNotFound
	}
	if err != nil {
		return nil, err
	}
	name := filepath.Base(loc.Hubfile.Name)
	out := &FileDownload{
		Name: name,
		Path: filepath.Join(s.paths.DatasetFolder(loc.UserID, loc.DataSetID), name),
	}
	if s.mirror != nil {
		url, err := s.mirror.PresignedURL(ctx, storage.ObjectName(loc.UserID, loc.DataSetID, name))
		if err == nil {
			out.URL = url
			return out, nil
		}
		log.Warnf("[DownloadService] 生成预签名地址失败，回退到本地文件, fileID: %d, error: %v", fileID, err)
	}
	if _, err := os.Stat(out.Path); err != nil {
		return nil, ErrFileNotFound
	}
	return out, nil
}
