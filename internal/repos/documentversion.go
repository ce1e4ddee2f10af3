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

// createNextMaxAttempts bounds the retry loop when two writers race to
// the same version number and the (kind, version_number) unique index
// rejects the loser.
const createNextMaxAttempts = 3

type DocumentVersionRepo interface {
  GetCurrent(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) (*types.DocumentVersion, error)
  GetByNumber(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, versionNumber int) (*types.DocumentVersion, error)
  CreateNext(ctx context.Context, tx *gorm.DB, row *types.DocumentVersion) (*types.DocumentVersion, error)
  ListByKind(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) ([]*types.DocumentVersion, error)
}

type documentVersionRepo struct {
  db  *gorm.DB
  log *logger.Logger
}

func NewDocumentVersionRepo(db *gorm.DB, baseLog *logger.Logger) DocumentVersionRepo {
  repoLog := baseLog.With("repo", "DocumentVersionRepo")
  return &documentVersionRepo{db: db, log: repoLog}
}

func (r *documentVersionRepo) GetCurrent(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) (*types.DocumentVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.DocumentVersion
  err := transaction.WithContext(ctx).
    Where("kind = ?", kind).
    Order("version_number DESC").
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

func (r *documentVersionRepo) GetByNumber(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, versionNumber int) (*types.DocumentVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var result types.DocumentVersion
  err := transaction.WithContext(ctx).
    Where("kind = ? AND version_number = ?", kind, versionNumber).
    First(&result).Error
  if err != nil {
    if errors.Is(err, gorm.ErrRecordNotFound) {
      return nil, nil
    }
    return nil, err
  }
  return &result, nil
}

// CreateNext assigns the next version number for row.Kind and inserts the
// row. The number is read-max+1 inside a transaction; a concurrent writer
// that slips in between read and insert trips the unique index, and we
// recompute. Version numbers per kind come out gapless starting at 1.
func (r *documentVersionRepo) CreateNext(ctx context.Context, tx *gorm.DB, row *types.DocumentVersion) (*types.DocumentVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  if row.ID == uuid.Nil {
    row.ID = uuid.New()
  }
  if row.CreatedAt.IsZero() {
    row.CreatedAt = time.Now()
  }

  var lastErr error
  for attempt := 0; attempt < createNextMaxAttempts; attempt++ {
    err := transaction.WithContext(ctx).Transaction(func(inner *gorm.DB) error {
      var maxVersion int
      if err := inner.Model(&types.DocumentVersion{}).
        Where("kind = ?", row.Kind).
        Select("COALESCE(MAX(version_number), 0)").
        Scan(&maxVersion).Error; err != nil {
        return err
      }
      row.VersionNumber = maxVersion + 1
      return inner.Create(row).Error
    })
    if err == nil {
      return row, nil
    }
    lastErr = err
    if !errors.Is(err, gorm.ErrDuplicatedKey) {
      return nil, err
    }
    r.log.Debug("Version number race, retrying", "kind", row.Kind, "attempt", attempt+1)
  }
  return nil, lastErr
}

func (r *documentVersionRepo) ListByKind(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) ([]*types.DocumentVersion, error) {
  transaction := tx
  if transaction == nil {
    transaction = r.db
  }

  var results []*types.DocumentVersion
  if err := transaction.WithContext(ctx).
    Select("id", "kind", "version_number", "change_notes", "created_by", "created_at").
    Where("kind = ?", kind).
    Order("version_number DESC").
    Find(&results).Error; err != nil {
    return nil, err
  }
  return results, nil
}
