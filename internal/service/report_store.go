package service

import (
	"context"
	"log"

	"eternal/internal/cache"
	"eternal/internal/model"
	"eternal/internal/repository"
)

// CachedReportStore is a cache-aside ReportStore: reads try Redis first,
// writes go to the repository and then refresh the cache.
type CachedReportStore struct {
	repo  repository.ReportRepo
	cache cache.ReportCache
}

// NewCachedReportStore creates the store; reportCache may be nil
func NewCachedReportStore(repo repository.ReportRepo, reportCache cache.ReportCache) *CachedReportStore {
	return &CachedReportStore{
		repo:  repo,
		cache: reportCache,
	}
}

func (s *CachedReportStore) Save(ctx context.Context, report *model.Report) error {
	if err := s.repo.Save(ctx, report); err != nil {
		return err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, report); err != nil {
			log.Printf("[ReportStore] Failed to cache report for %s: %v", report.OwnerID, err)
		}
	}
	return nil
}

func (s *CachedReportStore) Load(ctx context.Context, ownerID string) (*model.Report, error) {
	if s.cache != nil {
		report, err := s.cache.Get(ctx, ownerID)
		if err != nil {
			log.Printf("[ReportStore] Cache read failed for %s: %v", ownerID, err)
		} else if report != nil {
			return report, nil
		}
	}

	report, err := s.repo.GetByOwner(ctx, ownerID)
	if err != nil || report == nil {
		return report, err
	}
	if s.cache != nil {
		if err := s.cache.Set(ctx, report); err != nil {
			log.Printf("[ReportStore] Failed to cache report for %s: %v", ownerID, err)
		}
	}
	return report, nil
}

// Delete drops the report from the cache and the repository
func (s *CachedReportStore) Delete(ctx context.Context, ownerID string) error {
	if s.cache != nil {
		if err := s.cache.Delete(ctx, ownerID); err != nil {
			log.Printf("[ReportStore] Failed to evict report for %s: %v", ownerID, err)
		}
	}
	return s.repo.Delete(ctx, ownerID)
}
