package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"uvlhub/internal/model"
	"uvlhub/pkg/log"
	"uvlhub/pkg/textnorm"

	"gorm.io/gorm"
)

const dateLayout = "2006-01-02"

// ErrInvalidCriteria 表示过滤条件无法解析。
var ErrInvalidCriteria = errors.New("invalid explore criteria")

// wordMatchSQL 要求一个查询词至少命中数据集、作者或特征模型的某一文本列。
// 作者既可以属于数据集元数据，也可以属于数据集下的特征模型元数据。
const wordMatchSQL = `(
	LOWER(ds_meta_data.title) LIKE ? ESCAPE '!'
	OR LOWER(ds_meta_data.description) LIKE ? ESCAPE '!'
	OR LOWER(ds_meta_data.tags) LIKE ? ESCAPE '!'
	OR EXISTS (
		SELECT 1 FROM author
		WHERE (
			(author.owner_type = 'ds_meta_data' AND author.owner_id = ds_meta_data.id)
			OR (author.owner_type = 'fm_meta_data' AND author.owner_id IN (
				SELECT fm.fm_meta_data_id FROM feature_model fm WHERE fm.data_set_id = data_set.id))
		)
		AND (LOWER(author.name) LIKE ? ESCAPE '!' OR LOWER(author.affiliation) LIKE ? ESCAPE '!' OR LOWER(author.orcid) LIKE ? ESCAPE '!')
	)
	OR EXISTS (
		SELECT 1 FROM feature_model fm2
		JOIN fm_meta_data ON fm_meta_data.id = fm2.fm_meta_data_id
		WHERE fm2.data_set_id = data_set.id
		AND (LOWER(fm_meta_data.uvl_filename) LIKE ? ESCAPE '!'
			OR LOWER(fm_meta_data.title) LIKE ? ESCAPE '!'
			OR LOWER(fm_meta_data.description) LIKE ? ESCAPE '!'
			OR LOWER(fm_meta_data.publication_doi) LIKE ? ESCAPE '!'
			OR LOWER(fm_meta_data.tags) LIKE ? ESCAPE '!')
	)
)`

const wordMatchArgs = 11

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// containsPattern 返回子串匹配的 LIKE 模式，查询中的 % 和 _ 按字面量匹配。
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ExploreRepository 组合探索页的动态查询。
type ExploreRepository interface {
	Filter(ctx context.Context, criteria model.ExploreCriteria) ([]model.DataSet, error)
}

type exploreRepository struct {
	db *gorm.DB
}

// NewExploreRepository 创建一个新的 ExploreRepository 实例。
func NewExploreRepository(db *gorm.DB) ExploreRepository {
	return &exploreRepository{db: db}
}

// Filter 返回满足条件的已同步数据集。
// 特征数过滤在分组前进行，文件大小过滤作用于分组后的 SUM。
func (r *exploreRepository) Filter(ctx context.Context, c model.ExploreCriteria) ([]model.DataSet, error) {
	ids := r.db.WithContext(ctx).
		Table("data_set").
		Select("data_set.id").
		Joins("JOIN ds_meta_data ON ds_meta_data.id = data_set.ds_meta_data_id").
		Joins("LEFT JOIN ds_metrics ON ds_metrics.id = ds_meta_data.ds_metrics_id").
		Joins("LEFT JOIN feature_model ON feature_model.data_set_id = data_set.id").
		Joins("LEFT JOIN hubfile ON hubfile.feature_model_id = feature_model.id").
		Where("ds_meta_data.dataset_doi IS NOT NULL")

	// 1. 文本：词与词之间 AND，每个词在各列之间 OR
	for _, word := range textnorm.Words(c.Query) {
		ids = ids.Where(wordMatchSQL, repeatArg(containsPattern(word), wordMatchArgs)...)
	}

	// 2. 出版物类型：any 或无法识别的标签不过滤
	if pt := strings.TrimSpace(c.PublicationType); pt != "" && !strings.EqualFold(pt, "any") {
		if matched, ok := model.ParsePublicationType(pt); ok {
			ids = ids.Where("ds_meta_data.publication_type = ?", string(matched))
		} else {
			log.Warnf("[ExploreRepository] 未知的出版物类型 '%s'，忽略该过滤条件", pt)
		}
	}

	// 3. 标签：命中任意一个即可
	if conds, args := tagConditions(c.Tags); len(conds) > 0 {
		ids = ids.Where("("+strings.Join(conds, " OR ")+")", args...)
	}

	// 4. 创建日期，上界按次日零点开区间处理
	if c.MinCreationDate != "" {
		from, err := time.ParseInLocation(dateLayout, c.MinCreationDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: min_creation_date %q", ErrInvalidCriteria, c.MinCreationDate)
		}
		ids = ids.Where("data_set.created_at >= ?", from)
	}
	if c.MaxCreationDate != "" {
		to, err := time.ParseInLocation(dateLayout, c.MaxCreationDate, time.Local)
		if err != nil {
			return nil, fmt.Errorf("%w: max_creation_date %q", ErrInvalidCriteria, c.MaxCreationDate)
		}
		ids = ids.Where("data_set.created_at < ?", to.AddDate(0, 0, 1))
	}

	// 5. 特征数（每个数据集一个标量，分组前过滤）
	if c.MinFeatures != nil {
		ids = ids.Where("ds_metrics.number_of_features >= ?", *c.MinFeatures)
	}
	if c.MaxFeatures != nil {
		ids = ids.Where("ds_metrics.number_of_features <= ?", *c.MaxFeatures)
	}

	// 6. 按数据集分组后对文件大小求和
	ids = ids.Group("data_set.id")
	if c.MinSize != nil {
		ids = ids.Having("COALESCE(SUM(hubfile.size), 0) >= ?", *c.MinSize)
	}
	if c.MaxSize != nil {
		ids = ids.Having("COALESCE(SUM(hubfile.size), 0) <= ?", *c.MaxSize)
	}

	order := "data_set.created_at DESC, data_set.id DESC"
	if c.Sorting == "oldest" {
		order = "data_set.created_at ASC, data_set.id ASC"
	}

	var datasets []model.DataSet
	err := preloadAggregate(r.db.WithContext(ctx)).
		Where("data_set.id IN (?)", ids).
		Order(order).
		Find(&datasets).Error
	return datasets, err
}

func tagConditions(tags []string) ([]string, []interface{}) {
	var conds []string
	var args []interface{}
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		conds = append(conds, "LOWER(ds_meta_data.tags) LIKE ? ESCAPE '!'")
		args = append(args, containsPattern(tag))
	}
	return conds, args
}

func repeatArg(v interface{}, n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = v
	}
	return args
}
