package model

// AuthorInput 是表单中的一位作者。
type AuthorInput struct {
	Name        string `json:"name" binding:"required"`
	Affiliation string `json:"affiliation"`
	Orcid       string `json:"orcid"`
}

// FeatureModelInput 描述一个已暂存的 UVL 文件及其元数据。
type FeatureModelInput struct {
	UVLFilename     string        `json:"uvl_filename" binding:"required"`
	Title           string        `json:"title"`
	Description     string        `json:"desc"`
	PublicationType string        `json:"publication_type"`
	PublicationDOI  string        `json:"publication_doi"`
	Tags            string        `json:"tags"`
	UVLVersion      string        `json:"uvl_version"`
	Authors         []AuthorInput `json:"authors" binding:"dive"`
}

// DatasetForm 是创建数据集的请求体。
type DatasetForm struct {
	Title           string              `json:"title" binding:"required"`
	Description     string              `json:"desc" binding:"required"`
	PublicationType string              `json:"publication_type"`
	PublicationDOI  string              `json:"publication_doi"`
	Tags            string              `json:"tags"`
	CommunityID     *uint               `json:"community_id"`
	Authors         []AuthorInput       `json:"authors" binding:"dive"`
	FeatureModels   []FeatureModelInput `json:"feature_models" binding:"required,min=1,dive"`
}

// ToAuthors 转换为作者模型，OwnerID/OwnerType 由仓储层填充。
func ToAuthors(in []AuthorInput) []Author {
	out := make([]Author, 0, len(in))
	for _, a := range in {
		out = append(out, Author{Name: a.Name, Affiliation: a.Affiliation, Orcid: a.Orcid})
	}
	return out
}
