package repos

import (
  "context"
  "errors"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/types"
)

type ContributionRepo interface {
  Create(ctx context.Context, tx *gorm.DB, contribution *types.Contribution) (*types.Contribution, error)
  GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Contribution, error)
  ListByStatus(ctx context.Context, tx *gorm.DB, status types.ContributionStatus) ([]*types.Contribution, error)
  ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error)
  ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Contribution, error)
  // ReviewPending is a compare-and-set on status: the update only lands
  // while the row is still pending, so a concurrent double-review is
  // observable as zero rows affected instead of a silent overwrite.
  ReviewPending(ctx context.Context, tx *gorm.DB, id int64, status types.ContributionStatus, reviewerID uuid.UUID, notes *string, reviewedAt time.Time) (int64, error)
}

type contributionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewContributionRepo(db *gorm.DB, baseLog *logger.Logger) ContributionRepo {
  repoLog := baseLog.With("repo", "ContributionRepo")
  return &contributionRepo{db: db, log: repoLog}
}

func (r *contributionRepo) Create(ctx context.Context, tx *gorm.DB, contribution *types.Contribution) (*types.Contribution, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if contribution.CreatedAt.IsZero() {
    contribution.CreatedAt = time.Now()
  }
  if err := transaction.WithContext(ctx).Create(contribution).Error; err != nil {
    return nil, err
  }
  return contribution, nil
}

func (r *contributionRepo) GetByID(ctx context.Context, tx *gorm.DB, id int64) (*types.Contribution, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.Contribution
  err := transaction.WithContext(ctx).
    Where("id = ?", id).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *contributionRepo) ListByStatus(ctx context.Context, tx *gorm.DB, status types.ContributionStatus) ([]*types.Contribution, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Contribution
  if err := transaction.WithContext(ctx).
    Where("status = ?", status).
    Order("created_at DESC, id DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *contributionRepo) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Contribution
  if err := transaction.WithContext(ctx).
    Order("created_at DESC, id DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *contributionRepo) ListByUserID(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Contribution, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.Contribution
  if err := transaction.WithContext(ctx).
    Where("user_id = ?", userID).
    Order("created_at DESC, id DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}

func (r *contributionRepo) ReviewPending(ctx context.Context, tx *gorm.DB, id int64, status types.ContributionStatus, reviewerID uuid.UUID, notes *string, reviewedAt time.Time) (int64, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  result := transaction.WithContext(ctx).
    Model(&types.Contribution{}).
    Where("id = ? AND status = ?", id, types.ContributionStatusPending).
    Updates(map[string]interface{}{
      "status":       status,
      "reviewed_by":  reviewerID,
      "review_notes": notes,
      "reviewed_at":  reviewedAt,
    })
  if result.Error != nil {
    return 0, result.Error
  }
  return result.RowsAffected, nil
}
