package service

import (
	"context"
	"strings"

	"uvlhub/internal/model"
	"uvlhub/internal/repository"
	"uvlhub/pkg/log"
)

// ExploreService 提供已同步数据集的检索。
type ExploreService interface {
	Search(ctx context.Context, criteria model.ExploreCriteria) ([]model.DataSet, error)
}

type exploreService struct {
	exploreRepo repository.ExploreRepository
}

// NewExploreService 创建一个新的 ExploreService 实例。
func NewExploreService(exploreRepo repository.ExploreRepository) ExploreService {
	return &exploreService{exploreRepo: exploreRepo}
}

func (s *exploreService) Search(ctx context.Context, c model.ExploreCriteria) ([]model.DataSet, error) {
	c.Query = strings.TrimSpace(c.Query)
	if c.Sorting == "" {
		c.Sorting = "newest"
	}
	var tags []string
	for _, t := range c.Tags {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	c.Tags = tags

	log.Infow("[ExploreService] 检索数据集",
		"query", c.Query,
		"publicationType", c.PublicationType,
		"tags", c.Tags,
		"sorting", c.Sorting,
	)
	datasets, err := s.exploreRepo.Filter(ctx, c)
	if err != nil {
		log.Errorf("[ExploreService] 检索失败: %v", err)
		return nil, err
	}
	log.Infof("[ExploreService] 命中 %d 个数据集", len(datasets))
	return datasets, nil
}
