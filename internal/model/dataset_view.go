package model

// DatasetSummary 是列表与探索接口返回的数据集摘要。
type DatasetSummary struct {
	ID               uint      `json:"id"`
	Title            string    `json:"title"`
	Description      string    `json:"description"`
	PublicationType  string    `json:"publication_type"`
	PublicationDOI   string    `json:"publication_doi"`
	DatasetDOI       string    `json:"dataset_doi"`
	URL              string    `json:"url"`
	Tags             []string  `json:"tags"`
	Authors          []Author  `json:"authors"`
	CommunityID      *uint     `json:"community_id"`
	NumberOfModels   int       `json:"number_of_models"`
	NumberOfFeatures int       `json:"number_of_features"`
	Files            []Hubfile `json:"files"`
	TotalSize        int64     `json:"total_size_in_bytes"`
	TotalSizeHuman   string    `json:"total_size_in_human_format"`
	CreatedAt        LocalTime `json:"created_at"`
}

// NewDatasetSummary 由预加载完整的数据集构建摘要，url 与可读大小由调用方提供。
func NewDatasetSummary(ds *DataSet, url, humanSize string) DatasetSummary {
	s := DatasetSummary{
		ID:              ds.ID,
		Title:           ds.DSMetaData.Title,
		Description:     ds.DSMetaData.Description,
		PublicationType: string(ds.DSMetaData.PublicationType),
		PublicationDOI:  ds.DSMetaData.PublicationDOI,
		URL:             url,
		Tags:            ds.DSMetaData.TagList(),
		Authors:         ds.DSMetaData.Authors,
		CommunityID:     ds.CommunityID,
		Files:           ds.Files(),
		TotalSize:       ds.TotalSize(),
		TotalSizeHuman:  humanSize,
		CreatedAt:       LocalTime(ds.CreatedAt),
	}
	if ds.DSMetaData.DatasetDOI != nil {
		s.DatasetDOI = *ds.DSMetaData.DatasetDOI
	}
	if m := ds.DSMetaData.DSMetrics; m != nil {
		s.NumberOfModels = m.NumberOfModels
		s.NumberOfFeatures = m.NumberOfFeatures
	}
	if s.Tags == nil {
		s.Tags = []string{}
	}
	if s.Files == nil {
		s.Files = []Hubfile{}
	}
	return s
}
