package model

// DatasetDocument 是已同步数据集在 Elasticsearch 中的文档结构。
type DatasetDocument struct {
	DatasetID        uint     `json:"dataset_id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	PublicationType  string   `json:"publication_type"`
	DatasetDOI       string   `json:"dataset_doi"`
	Tags             []string `json:"tags"`
	Authors          []string `json:"authors"`
	Files            []string `json:"files"`
	NumberOfModels   int      `json:"number_of_models"`
	NumberOfFeatures int      `json:"number_of_features"`
	TotalSize        int64    `json:"total_size"`
	CreatedAt        string   `json:"created_at"`
}

// NewDatasetDocument 由预加载完整的数据集构建索引文档。
func NewDatasetDocument(ds *DataSet) DatasetDocument {
	doc := DatasetDocument{
		DatasetID:       ds.ID,
		Title:           ds.DSMetaData.Title,
		Description:     ds.DSMetaData.Description,
		PublicationType: string(ds.DSMetaData.PublicationType),
		Tags:            ds.DSMetaData.TagList(),
		TotalSize:       ds.TotalSize(),
		CreatedAt:       LocalTime(ds.CreatedAt).String(),
	}
	if ds.DSMetaData.DatasetDOI != nil {
		doc.DatasetDOI = *ds.DSMetaData.DatasetDOI
	}
	if m := ds.DSMetaData.DSMetrics; m != nil {
		doc.NumberOfModels = m.NumberOfModels
		doc.NumberOfFeatures = m.NumberOfFeatures
	}
	for _, a := range ds.DSMetaData.Authors {
		doc.Authors = append(doc.Authors, a.Name)
	}
	for _, f := range ds.Files() {
		doc.Files = append(doc.Files, f.Name)
	}
	return doc
}
