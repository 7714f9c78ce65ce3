package model

// FMMetaData 对应于数据库中的 'fm_meta_data' 表。
type FMMetaData struct {
	ID              uint            `gorm:"primaryKey;autoIncrement" json:"id"`
	UVLFilename     string          `gorm:"column:uvl_filename;type:varchar(120);not null" json:"uvlFilename"`
	Title           string          `gorm:"type:varchar(120);not null" json:"title"`
	Description     string          `gorm:"type:text;not null" json:"description"`
	PublicationType PublicationType `gorm:"type:varchar(32);not null" json:"publicationType"`
	PublicationDOI  string          `gorm:"column:publication_doi;type:varchar(120)" json:"publicationDoi"`
	Tags            string          `gorm:"type:varchar(120)" json:"tags"`
	UVLVersion      string          `gorm:"column:uvl_version;type:varchar(120)" json:"uvlVersion"`
	Authors         []Author        `gorm:"polymorphic:Owner;polymorphicValue:fm_meta_data" json:"authors"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FMMetaData) TableName() string {
	return "fm_meta_data"
}

// FeatureModel 对应于数据库中的 'feature_model' 表。
type FeatureModel struct {
	ID           uint       `gorm:"primaryKey;autoIncrement" json:"id"`
	DataSetID    uint       `gorm:"column:data_set_id;not null;index" json:"dataSetId"`
	FMMetaDataID uint       `gorm:"column:fm_meta_data_id;not null" json:"-"`
	FMMetaData   FMMetaData `gorm:"foreignKey:FMMetaDataID" json:"metadata"`
	Files        []Hubfile  `gorm:"foreignKey:FeatureModelID" json:"files"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (FeatureModel) TableName() string {
	return "feature_model"
}

// Hubfile 是特征模型对应的已上传文件。
type Hubfile struct {
	ID             uint   `gorm:"primaryKey;autoIncrement" json:"id"`
	Name           string `gorm:"type:varchar(120);not null" json:"name"`
	Checksum       string `gorm:"type:varchar(120);not null" json:"checksum"`
	Size           int64  `gorm:"not null" json:"size"`
	FeatureModelID uint   `gorm:"column:feature_model_id;not null;index" json:"featureModelId"`
}

// TableName 指定了此模型在数据库中对应的表名。
func (Hubfile) TableName() string {
	return "hubfile"
}
