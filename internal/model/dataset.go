package model

import (
	"strings"
	"time"
)

// PublicationType 是数据集与特征模型的出版物类型，取值与存档服务保持一致。
type PublicationType string

const (
	PublicationNone                  PublicationType = "none"
	PublicationAnnotationCollection  PublicationType = "annotationcollection"
	PublicationBook                  PublicationType = "book"
	PublicationBookSection           PublicationType = "section"
	PublicationConferencePaper       PublicationType = "conferencepaper"
	PublicationDataManagementPlan    PublicationType = "datamanagementplan"
	PublicationJournalArticle        PublicationType = "article"
	PublicationPatent                PublicationType = "patent"
	PublicationPreprint              PublicationType = "preprint"
	PublicationProjectDeliverable    PublicationType = "deliverable"
	PublicationProjectMilestone      PublicationType = "milestone"
	PublicationProposal              PublicationType = "proposal"
	PublicationReport                PublicationType = "report"
	PublicationSoftwareDocumentation PublicationType = "softwaredocumentation"
	PublicationTechnicalNote         PublicationType = "technicalnote"
	PublicationThesis                PublicationType = "thesis"
	PublicationWorkingPaper          PublicationType = "workingpaper"
	PublicationOther                 PublicationType = "other"
)

// PublicationTypes 列出全部合法取值。
var PublicationTypes = []PublicationType{
	PublicationNone, PublicationAnnotationCollection, PublicationBook, PublicationBookSection,
	PublicationConferencePaper, PublicationDataManagementPlan, PublicationJournalArticle,
	PublicationPatent, PublicationPreprint, PublicationProjectDeliverable, PublicationProjectMilestone,
	PublicationProposal, PublicationReport, PublicationSoftwareDocumentation, PublicationTechnicalNote,
	PublicationThesis, PublicationWorkingPaper, PublicationOther,
}

// ParsePublicationType 忽略大小写匹配取值，未知标签返回 false。
func ParsePublicationType(label string) (PublicationType, bool) {
	label = strings.ToLower(strings.TrimSpace(label))
	for _, pt := range PublicationTypes {
		if string(pt) == label {
			return pt, true
		}
	}
	return "", false
}

// 作者所属对象的类型，对应 gorm 多态关联的 owner_type 列。
const (
	AuthorOwnerDataset      = "ds_meta_data"
	AuthorOwnerFeatureModel = "fm_meta_data"
)

// Author 属于一个数据集元数据或一个特征模型元数据，由 OwnerType + OwnerID 区分。
type Author struct {
	ID          uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name        string `gorm:"type:varchar(120);not null" json:"name"`
	Affiliation string `gorm:"type:varchar(120)" json:"affiliation"`
	Orcid       string `gorm:"type:varchar(120)" json:"orcid"`
	OwnerID     uint   `gorm:"not null;index:idx_author_owner" json:"-"`
	OwnerType   string `gorm:"type:varchar(32);not null;index:idx_author_owner" json:"-"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Author) TableName() string {
	return "author"
}

// DSMetrics 在数据集创建时计算一次，之后不再更新。
type DSMetrics struct {
	ID               uint `gorm:"primaryKey;autoIncrement" json:"id"`
	NumberOfModels   int  `gorm:"not null;default:0" json:"numberOfModels"`
	NumberOfFeatures int  `gorm:"not null;default:0" json:"numberOfFeatures"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DSMetrics) TableName() string {
	return "ds_metrics"
}

// DSMetaData 对应于数据库中的 'ds_meta_data' 表。
// DatasetDOI 为空表示数据集尚未同步到存档服务。
type DSMetaData struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	DepositionID    *uint           `gorm:"column:deposition_id" json:"depositionId"`
	Title           string          `gorm:"type:varchar(120);not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	PublicationType PublicationType `gorm:"type:varchar(32);not null" json:"publicationType"`
	PublicationDOI  string          `gorm:"column:publication_doi;type:varchar(120)" json:"publicationDoi"`
	DatasetDOI      *string         `gorm:"column:dataset_doi;type:varchar(120);index" json:"datasetDoi"`
	Tags            string          `gorm:"type:varchar(120)" json:"tags"`
	DSMetricsID     *uint           `gorm:"column:ds_metrics_id" json:"-"`
	DSMetrics       *DSMetrics      `gorm:"foreignKey:DSMetricsID" json:"metrics,omitempty"`
	Authors         []Author        `gorm:"polymorphic:Owner;polymorphicValue:ds_meta_data" json:"authors"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DSMetaData) TableName() string {
	return "ds_meta_data"
}

// TagList 将逗号分隔的标签拆分为切片。
func (m *DSMetaData) TagList() []string {
	return splitTags(m.Tags)
}

// DataSet 对应于数据库中的 'data_set' 表。
type DataSet struct {
	ID            uint           `gorm:"primaryKey;autoIncrement" json:"id"`
	UserID        uint           `gorm:"not null;index" json:"userId"`
	CommunityID   *uint          `gorm:"index" json:"communityId"`
	DSMetaDataID  uint           `gorm:"column:ds_meta_data_id;not null" json:"-"`
	CreatedAt     time.Time      `gorm:"autoCreateTime;index" json:"createdAt"`
	DSMetaData    DSMetaData     `gorm:"foreignKey:DSMetaDataID" json:"metadata"`
	FeatureModels []FeatureModel `gorm:"foreignKey:DataSetID" json:"featureModels"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DataSet) TableName() string {
	return "data_set"
}

// IsSynchronized 表示数据集是否已获得外部 DOI。
func (d *DataSet) IsSynchronized() bool {
	return d.DSMetaData.DatasetDOI != nil && *d.DSMetaData.DatasetDOI != ""
}

// Files 返回数据集下全部特征模型的文件（需预加载 FeatureModels.Files）。
func (d *DataSet) Files() []Hubfile {
	var files []Hubfile
	for _, fm := range d.FeatureModels {
		files = append(files, fm.Files...)
	}
	return files
}

// TotalSize 返回全部文件大小之和。
func (d *DataSet) TotalSize() int64 {
	var total int64
	for _, f := range d.Files() {
		total += f.Size
	}
	return total
}

// DOIMapping 记录旧 DOI 到新 DOI 的跳转。
type DOIMapping struct {
	ID            uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	DatasetDOIOld string `gorm:"column:dataset_doi_old;type:varchar(120);uniqueIndex" json:"datasetDoiOld"`
	DatasetDOINew string `gorm:"column:dataset_doi_new;type:varchar(120)" json:"datasetDoiNew"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (DOIMapping) TableName() string {
	return "doi_mapping"
}

func splitTags(tags string) []string {
	var out []string
	for _, t := range strings.Split(tags, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}
