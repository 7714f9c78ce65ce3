package model

// ExploreCriteria 是探索接口的过滤条件，零值表示不过滤。
type ExploreCriteria struct {
	Query           string   `json:"query" form:"query"`
	Tags            []string `json:"tags" form:"tags"`
	PublicationType string   `json:"publication_type" form:"publication_type"`
	// 日期格式为 YYYY-MM-DD，闭区间
	MinCreationDate string `json:"min_creation_date" form:"min_creation_date"`
	MaxCreationDate string `json:"max_creation_date" form:"max_creation_date"`
	// 数据集全部文件大小之和（字节）
	MinSize     *int64 `json:"min_size" form:"min_size"`
	MaxSize     *int64 `json:"max_size" form:"max_size"`
	MinFeatures *int   `json:"min_features" form:"min_features"`
	MaxFeatures *int   `json:"max_features" form:"max_features"`
	// newest 或 oldest
	Sorting string `json:"sorting" form:"sorting"`
}
