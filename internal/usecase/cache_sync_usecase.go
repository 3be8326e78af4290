package usecase

import (
	"context"
	"fmt"
	"time"

	"catalog-backend/internal/domain"
	"catalog-backend/pkg/logger"
)

const defaultRebuildChunkSize = 200

type cacheSyncUsecase struct {
	tm          domain.TransactionManager
	variants    domain.VariantRepository
	assignments domain.AssignmentRepository
	chunkSize   int
}

func NewCacheSyncUsecase(tm domain.TransactionManager, variants domain.VariantRepository, assignments domain.AssignmentRepository, chunkSize int) domain.CacheSyncUsecase {
	if chunkSize <= 0 {
		chunkSize = defaultRebuildChunkSize
	}
	return &cacheSyncUsecase{
		tm:          tm,
		variants:    variants,
		assignments: assignments,
		chunkSize:   chunkSize,
	}
}

// RebuildOne recomputes and stores the cache of one variant. When ctx already
// carries a transaction the rebuild joins it.
func (u *cacheSyncUsecase) RebuildOne(ctx context.Context, variantID int64) (domain.AttributeCache, error) {
	var out domain.AttributeCache
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		ref, err := u.variants.LockVariant(ctx, variantID)
		if err != nil {
			return err
		}
		productRows, err := u.assignments.ListAssignments(ctx, domain.ScopeProduct, ref.ProductID)
		if err != nil {
			return fmt.Errorf("list product assignments: %w", err)
		}
		out, err = u.rebuildLocked(ctx, ref.ID, productRows)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// RebuildForProduct rebuilds every variant of the product and returns how many were written.
func (u *cacheSyncUsecase) RebuildForProduct(ctx context.Context, productID int64) (int, error) {
	count := 0
	err := u.tm.Do(ctx, func(ctx context.Context) error {
		exists, err := u.variants.ProductExists(ctx, productID)
		if err != nil {
			return err
		}
		if !exists {
			return domain.NewNotFound("product", productID)
		}

		ids, err := u.variants.LockProductVariants(ctx, productID)
		if err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		productRows, err := u.assignments.ListAssignments(ctx, domain.ScopeProduct, productID)
		if err != nil {
			return fmt.Errorf("list product assignments: %w", err)
		}
		for _, id := range ids {
			if _, err := u.rebuildLocked(ctx, id, productRows); err != nil {
				return err
			}
		}
		count = len(ids)
		return nil
	})
	if err != nil {
		return 0, err
	}
	return count, nil
}

// RebuildAll walks every product in id order, one transaction per product.
// A failing product is logged and counted; cancellation stops the walk.
func (u *cacheSyncUsecase) RebuildAll(ctx context.Context) (domain.RebuildStats, error) {
	var stats domain.RebuildStats
	log := logger.WithContext(ctx)
	start := time.Now()

	var after int64
	for {
		ids, err := u.variants.ListProductIDsAfter(ctx, after, u.chunkSize)
		if err != nil {
			return stats, fmt.Errorf("list products after %d: %w", after, err)
		}

		for _, id := range ids {
			if err := ctx.Err(); err != nil {
				return stats, err
			}
			n, err := u.RebuildForProduct(ctx, id)
			if err != nil {
				stats.Failed++
				log.Error().Err(err).Int64("product_id", id).Msg("Attribute cache rebuild failed")
				continue
			}
			stats.Products++
			stats.Variants += n
		}

		if len(ids) < u.chunkSize {
			break
		}
		after = ids[len(ids)-1]
	}

	log.Info().
		Int("products", stats.Products).
		Int("variants", stats.Variants).
		Int("failed", stats.Failed).
		Dur("duration", time.Since(start)).
		Msg("Attribute cache rebuild finished")
	return stats, nil
}

func (u *cacheSyncUsecase) GetCache(ctx context.Context, variantID int64) (domain.AttributeCache, *time.Time, error) {
	return u.variants.GetAttributeCache(ctx, variantID)
}

func (u *cacheSyncUsecase) rebuildLocked(ctx context.Context, variantID int64, productRows []domain.ResolvedAssignment) (domain.AttributeCache, error) {
	variantRows, err := u.assignments.ListAssignments(ctx, domain.ScopeVariant, variantID)
	if err != nil {
		return nil, fmt.Errorf("list variant assignments: %w", err)
	}
	cache := BuildAttributeCache(productRows, variantRows)
	if err := u.variants.SaveAttributeCache(ctx, variantID, cache); err != nil {
		return nil, err
	}
	logger.WithContext(ctx).Debug().
		Int64("variant_id", variantID).
		Int("keys", len(cache)).
		Msg("Attribute cache rebuilt")
	return cache, nil
}
