package service

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/log"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Creator 是存档元数据中的一位作者。
type Creator struct {
	Name        string `json:"name"`
	Affiliation string `json:"affiliation,omitempty"`
	Orcid       string `json:"orcid,omitempty"`
}

// DepositionMetadata 是提交给存档服务的元数据。
type DepositionMetadata struct {
	Title           string    `json:"title"`
	UploadType      string    `json:"upload_type"`
	PublicationType *string   `json:"publication_type"`
	Description     string    `json:"description"`
	Creators        []Creator `json:"creators"`
	Keywords        []string  `json:"keywords"`
	AccessRight     string    `json:"access_right"`
	License         string    `json:"license"`
}

// DepositionCreated 是创建存档后的响应。
type DepositionCreated struct {
	ConceptRecID string             `json:"conceptrecid"`
	ID           uint               `json:"id"`
	Metadata     DepositionMetadata `json:"metadata"`
	Message      string             `json:"message"`
}

// DepositionFile 是上传文件后的响应。
type DepositionFile struct {
	ID       uint   `json:"id"`
	Filename string `json:"filename"`
	Filesize int64  `json:"filesize"`
	Message  string `json:"message"`
}

// DepositionView 是查询存档的响应。
type DepositionView struct {
	ID        uint           `json:"id"`
	DOI       *string        `json:"doi"`
	Metadata  datatypes.JSON `json:"metadata"`
	Published bool           `json:"published"`
	Message   string         `json:"message"`
}

// DepositionService 是本地模拟的存档服务。
type DepositionService interface {
	CreateNewDeposition(ds *model.DataSet) (*DepositionCreated, error)
	UploadFile(ds *model.DataSet, depositionID uint, fm *model.FeatureModel, userID uint) (*DepositionFile, error)
	PublishDeposition(depositionID uint) error
	GetDeposition(depositionID uint) (*DepositionView, error)
	GetDOI(depositionID uint) (string, error)
	GetAllDepositions() ([]datatypes.JSON, error)
}

type depositionService struct {
	depositionRepo repository.DepositionRepository
	paths          Paths
}

// NewDepositionService 创建一个新的 DepositionService 实例。
func NewDepositionService(depositionRepo repository.DepositionRepository, paths Paths) DepositionService {
	return &depositionService{depositionRepo: depositionRepo, paths: paths}
}

// BuildDepositionMetadata 由数据集元数据生成存档元数据。
func BuildDepositionMetadata(ds *model.DataSet) DepositionMetadata {
	meta := ds.DSMetaData
	md := DepositionMetadata{
		Title:       meta.Title,
		UploadType:  "publication",
		Description: meta.Description,
		Creators:    make([]Creator, 0, len(meta.Authors)),
		AccessRight: "open",
		License:     "CC-BY-4.0",
	}
	if meta.PublicationType == model.PublicationNone || meta.PublicationType == "" {
		md.UploadType = "dataset"
	} else {
		pt := string(meta.PublicationType)
		md.PublicationType = &pt
	}
	for _, a := range meta.Authors {
		md.Creators = append(md.Creators, Creator{Name: a.Name, Affiliation: a.Affiliation, Orcid: a.Orcid})
	}
	if meta.Tags == "" {
		md.Keywords = []string{"uvlhub"}
	} else {
		md.Keywords = append(strings.Split(meta.Tags, ", "), "uvlhub")
	}
	return md
}

func (s *depositionService) CreateNewDeposition(ds *model.DataSet) (*DepositionCreated, error) {
	log.Infof("[DepositionService] 创建存档, datasetID: %d, publicationType: %s", ds.ID, ds.DSMetaData.PublicationType)
	md := BuildDepositionMetadata(ds)
	raw, err := json.Marshal(md)
	if err != nil {
		return nil, err
	}
	dep := &model.Deposition{DepositionMetadata: datatypes.JSON(raw)}
	if err := s.depositionRepo.Create(dep); err != nil {
		return nil, fmt.Errorf("Failed to create deposition. Error details: %w", err)
	}
	return &DepositionCreated{
		ConceptRecID: fmt.Sprintf("fakenodo-%d", dep.ID),
		ID:           dep.ID,
		Metadata:     md,
		Message:      "Dataset created successfully in Fakenodo.",
	}, nil
}

// UploadFile 只校验永久目录中的文件并返回其大小。
func (s *depositionService) UploadFile(ds *model.DataSet, depositionID uint, fm *model.FeatureModel, userID uint) (*DepositionFile, error) {
	name := fm.FMMetaData.UVLFilename
	info, err := os.Stat(filepath.Join(s.paths.DatasetFolder(userID, ds.ID), filepath.Base(name)))
	if err != nil {
		return nil, fmt.Errorf("上传文件 %s 失败: %w", name, err)
	}
	return &DepositionFile{
		ID:       depositionID,
		Filename: name,
		Filesize: info.Size(),
		Message:  "File uploaded successfully to fakenodo.",
	}, nil
}

func (s *depositionService) find(depositionID uint) (*model.Deposition, error) {
	dep, err := s.depositionRepo.FindByID(depositionID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrDepositionNotFound
	}
	return dep, err
}

func (s *depositionService) PublishDeposition(depositionID uint) error {
	dep, err := s.find(depositionID)
	if err != nil {
		return err
	}
	doi := fmt.Sprintf("10.1234/fakenodo-%d", depositionID)
	dep.DOI = &doi
	dep.IsPublished = true
	if err := s.depositionRepo.Update(dep); err != nil {
		return fmt.Errorf("Failed to publish deposition: %w", err)
	}
	log.Infof("[DepositionService] 存档已发布, depositionID: %d, doi: %s", depositionID, doi)
	return nil
}

func (s *depositionService) GetDeposition(depositionID uint) (*DepositionView, error) {
	dep, err := s.find(depositionID)
	if err != nil {
		return nil, err
	}
	return &DepositionView{
		ID:        dep.ID,
		DOI:       dep.DOI,
		Metadata:  dep.DepositionMetadata,
		Published: dep.IsPublished,
		Message:   "Deposition retrieved successfully from fakenodo.",
	}, nil
}

// GetDOI 返回存档的 DOI，未发布时为空字符串。
func (s *depositionService) GetDOI(depositionID uint) (string, error) {
	view, err := s.GetDeposition(depositionID)
	if err != nil {
		return "", err
	}
	if view.DOI == nil {
		return "", nil
	}
	return *view.DOI, nil
}

func (s *depositionService) GetAllDepositions() ([]datatypes.JSON, error) {
	deps, err := s.depositionRepo.FindAll()
	if err != nil {
		return nil, err
	}
	out := make([]datatypes.JSON, 0, len(deps))
	for _, d := range deps {
		out = append(out, d.DepositionMetadata)
	}
	return out, nil
}
