package services

import (
  "context"
  "fmt"
  "strings"
  "time"
  "github.com/google/uuid"
  "gorm.io/gorm"
  "github.com/calehb/fieldguide-backend/internal/apierr"
  "github.com/calehb/fieldguide-backend/internal/logger"
  "github.com/calehb/fieldguide-backend/internal/repos"
  "github.com/calehb/fieldguide-backend/internal/types"
)

// The two confirmation messages are part of the contract: the client
// renders different feedback depending on which path a submission took.
const (
  msgAutoPublished      = "Published immediately. Competitor intel goes live without review."
  msgSubmittedForReview = "Submitted for review. An admin will take a look shortly."
)

// AutoPublishPolicy decides whether a submission bypasses moderation.
type AutoPublishPolicy func(kind types.TargetKind, ctype types.ContributionType) bool

// DefaultAutoPublishPolicy fast-paths competitor intel only.
func DefaultAutoPublishPolicy(kind types.TargetKind, ctype types.ContributionType) bool {
  return kind == types.TargetKindCompetitors && ctype == types.ContributionTypeIntel
}

type SubmitResult struct {
  ID      int64                     `json:"id"`
  Status  types.ContributionStatus  `json:"status"`
  Message string                    `json:"message"`
}

type ContributionService interface {
  Submit(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, kind string, section *string, ctype string, content string, isAnonymous bool) (*SubmitResult, error)
  ListPending(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error)
  ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error)
  ListMine(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Contribution, error)
  Review(ctx context.Context, tx *gorm.DB, id int64, reviewerID uuid.UUID, decision string, notes *string) (*types.Contribution, error)
}

type contributionService struct {
  db               *gorm.DB
  log              *logger.Logger
  contributionRepo repos.ContributionRepo
  shouldAutoPublish AutoPublishPolicy
}

func NewContributionService(db *gorm.DB, baseLog *logger.Logger, contributionRepo repos.ContributionRepo, policy AutoPublishPolicy) ContributionService {
  serviceLog := baseLog.With("service", "ContributionService")
  if policy == nil {
    policy = DefaultAutoPublishPolicy
  }
  return &contributionService{
    db:                db,
    log:               serviceLog,
    contributionRepo:  contributionRepo,
    shouldAutoPublish: policy,
  }
}

func (cs *contributionService) Submit(ctx context.Context, tx *gorm.DB, userID *uuid.UUID, kind string, section *string, ctype string, content string, isAnonymous bool) (*SubmitResult, error) {
  targetKind, ok := types.ParseTargetKind(kind)
  if !ok {
    return nil, apierr.Validation("targetType must be one of positioning, battlecard, competitors; got %q", kind)
  }
  contributionType, ok := types.ParseContributionType(ctype)
  if !ok {
    return nil, apierr.Validation("contributionType must be one of intel, suggestion, question, correction; got %q", ctype)
  }
  if strings.TrimSpace(content) == "" {
    return nil, apierr.Validation("content is required")
  }

  status := types.ContributionStatusPending
  message := msgSubmittedForReview
  if cs.shouldAutoPublish(targetKind, contributionType) {
    status = types.ContributionStatusAutoPublished
    message = msgAutoPublished
  }

  contribution := &types.Contribution{
    UserID:           userID,
    TargetKind:       targetKind,
    TargetSection:    section,
    ContributionType: contributionType,
    Content:          content,
    IsAnonymous:      isAnonymous,
    Status:           status,
  }
  created, err := cs.contributionRepo.Create(ctx, tx, contribution)
  if err != nil {
    cs.log.Error("Submit failed", "error", err, "target_kind", targetKind)
    return nil, fmt.Errorf("create contribution: %w", err)
  }
  cs.log.Info("Contribution submitted", "id", created.ID, "status", created.Status, "target_kind", targetKind)

  return &SubmitResult{
    ID:      created.ID,
    Status:  created.Status,
    Message: message,
  }, nil
}

func (cs *contributionService) ListPending(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error) {
  results, err := cs.contributionRepo.ListByStatus(ctx, tx, types.ContributionStatusPending)
  if err != nil {
    cs.log.Error("ListPending failed", "error", err)
    return nil, fmt.Errorf("list pending contributions: %w", err)
  }
  return results, nil
}

func (cs *contributionService) ListAll(ctx context.Context, tx *gorm.DB) ([]*types.Contribution, error) {
  results, err := cs.contributionRepo.ListAll(ctx, tx)
  if err != nil {
    cs.log.Error("ListAll failed", "error", err)
    return nil, fmt.Errorf("list contributions: %w", err)
  }
  return results, nil
}

func (cs *contributionService) ListMine(ctx context.Context, tx *gorm.DB, userID uuid.UUID) ([]*types.Contribution, error) {
  results, err := cs.contributionRepo.ListByUserID(ctx, tx, userID)
  if err != nil {
    cs.log.Error("ListMine failed", "error", err, "user_id", userID)
    return nil, fmt.Errorf("list user contributions: %w", err)
  }
  return results, nil
}

// Review moves a pending contribution to approved or rejected exactly
// once. The status update is a compare-and-set, so the second of two
// racing reviews fails with invalid_state and the first outcome stands.
func (cs *contributionService) Review(ctx context.Context, tx *gorm.DB, id int64, reviewerID uuid.UUID, decision string, notes *string) (*types.Contribution, error) {
  var status types.ContributionStatus
  switch types.ContributionStatus(decision) {
  case types.ContributionStatusApproved:
    status = types.ContributionStatusApproved
  case types.ContributionStatusRejected:
    status = types.ContributionStatusRejected
  default:
    return nil, apierr.Validation("status must be approved or rejected; got %q", decision)
  }

  affected, err := cs.contributionRepo.ReviewPending(ctx, tx, id, status, reviewerID, notes, time.Now())
  if err != nil {
    cs.log.Error("Review failed", "error", err, "id", id)
    return nil, fmt.Errorf("review contribution: %w", err)
  }
  if affected == 0 {
    existing, err := cs.contributionRepo.GetByID(ctx, tx, id)
    if err != nil {
      return nil, fmt.Errorf("load contribution after failed review: %w", err)
    }
    if existing == nil {
      return nil, apierr.NotFound("contribution %d does not exist", id)
    }
    return nil, apierr.InvalidState("contribution %d is %s, only pending contributions can be reviewed", id, existing.Status)
  }

  updated, err := cs.contributionRepo.GetByID(ctx, tx, id)
  if err != nil {
    return nil, fmt.Errorf("load reviewed contribution: %w", err)
  }
  cs.log.Info("Contribution reviewed", "id", id, "decision", status, "reviewer_id", reviewerID)
  return updated, nil
}
