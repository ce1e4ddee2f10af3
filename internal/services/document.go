package services

import (
  "context"
  "fmt"
  "github.com/google/uuid"
  "gorm.io/datatypes"
  "gorm.io/gorm"
  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/repos"
  "github.com/calehb/fieldguide-backend/internal/types"
)

type DocumentService interface {
  GetCurrent(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) (*types.DocumentVersion, error)
  Save(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, content datatypes.JSON, changeNotes string, authorID *uuid.UUID) (*types.DocumentVersion, error)
  ListVersions(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) ([]*types.DocumentVersion, error)
  Restore(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, targetVersion int, authorID *uuid.UUID) (*types.DocumentVersion, error)
}

type documentService struct {
  db          *gorm.DB
  log         *logger.Logger
  versionRepo repos.DocumentVersionRepo
}

func NewDocumentService(db *gorm.DB, baseLog *logger.Logger, versionRepo repos.DocumentVersionRepo) DocumentService {
  serviceLog := baseLog.With("service", "DocumentService")
  return &documentService{
    db:          db,
    log:         serviceLog,
    versionRepo: versionRepo,
  }
}

func (ds *documentService) GetCurrent(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) (*types.DocumentVersion, error) {
  current, err := ds.versionRepo.GetCurrent(ctx, tx, kind)
  if err != nil {
    ds.log.Error("GetCurrent failed", "error", err, "kind", kind)
    return nil, fmt.Errorf("get current document: %w", err)
  }
  if current == nil {
    return nil, apierr.NotFound("no versions exist yet for document kind %q", kind)
  }
  return current, nil
}

func (ds *documentService) Save(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, content datatypes.JSON, changeNotes string, authorID *uuid.UUID) (*types.DocumentVersion, error) {
  if len(content) == 0 {
    return nil, apierr.Validation("data is required")
  }

  row := &types.DocumentVersion{
    Kind:        kind,
    Content:     content,
    ChangeNotes: changeNotes,
    CreatedBy:   authorID,
  }
  saved, err := ds.versionRepo.CreateNext(ctx, tx, row)
  if err != nil {
    ds.log.Error("Save failed", "error", err, "kind", kind)
    return nil, fmt.Errorf("save document version: %w", err)
  }
  ds.log.Info("Document version saved", "kind", kind, "version", saved.VersionNumber)
  return saved, nil
}

func (ds *documentService) ListVersions(ctx context.Context, tx *gorm.DB, kind types.DocumentKind) ([]*types.DocumentVersion, error) {
  versions, err := ds.versionRepo.ListByKind(ctx, tx, kind)
  if err != nil {
    ds.log.Error("ListVersions failed", "error", err, "kind", kind)
    return nil, fmt.Errorf("list document versions: %w", err)
  }
  return versions, nil
}

// Restore re-saves an old version's content verbatim as the new head.
// History is never rewritten: the restored-from row stays put and the
// restore itself shows up in the version list with its own notes.
func (ds *documentService) Restore(ctx context.Context, tx *gorm.DB, kind types.DocumentKind, targetVersion int, authorID *uuid.UUID) (*types.DocumentVersion, error) {
  target, err := ds.versionRepo.GetByNumber(ctx, tx, kind, targetVersion)
  if err != nil {
    ds.log.Error("Restore lookup failed", "error", err, "kind", kind, "target_version", targetVersion)
    return nil, fmt.Errorf("load target version: %w", err)
  }
  if target == nil {
    return nil, apierr.NotFound("version %d does not exist for document kind %q", targetVersion, kind)
  }

  notes := fmt.Sprintf("Restored to version %d", targetVersion)
  return ds.Save(ctx, tx, kind, target.Content, notes, authorID)
}
