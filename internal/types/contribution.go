package types

import (
  "time"
  "github.com/google/uuid"
)

type ContributionStatus string

const (
  ContributionStatusPending       ContributionStatus = "pending"
  ContributionStatusApproved      ContributionStatus = "approved"
  ContributionStatusRejected      ContributionStatus = "rejected"
  // clustered is written by future dedup tooling only; nothing in the
  // moderation endpoints produces it, but it must round-trip as a stored
  // value.
  ContributionStatusClustered     ContributionStatus = "clustered"
  ContributionStatusAutoPublished ContributionStatus = "auto_published"
)

type ContributionType string

const (
  ContributionTypeIntel      ContributionType = "intel"
  ContributionTypeSuggestion ContributionType = "suggestion"
  ContributionTypeQuestion   ContributionType = "question"
  ContributionTypeCorrection ContributionType = "correction"
)

func ParseContributionType(s string) (ContributionType, bool) {
  switch ContributionType(s) {
  case ContributionTypeIntel, ContributionTypeSuggestion, ContributionTypeQuestion, ContributionTypeCorrection:
    return ContributionType(s), true
  }
  return "", false
}

// TargetKind is what a contribution is aimed at. It is a superset of the
// versioned document kinds: competitor intel targets the competitors
// board, which is where the auto-publish rule fires.
type TargetKind string

const (
  TargetKindPositioning TargetKind = "positioning"
  TargetKindBattlecard  TargetKind = "battlecard"
  TargetKindCompetitors TargetKind = "competitors"
)

func ParseTargetKind(s string) (TargetKind, bool) {
  switch TargetKind(s) {
  case TargetKindPositioning, TargetKindBattlecard, TargetKindCompetitors:
    return TargetKind(s), true
  }
  return "", false
}

// Contribution is a user-submitted note subject to moderation. The status
// field mutates at most once after creation (pending -> approved/rejected
// via review); auto_published is only ever set at creation time. Rows are
// never deleted.
type Contribution struct {
  ID               int64               `gorm:"primaryKey;autoIncrement" json:"id"`
  UserID           *uuid.UUID          `gorm:"type:uuid;index;column:user_id" json:"user_id,omitempty"`
  TargetKind       TargetKind          `gorm:"column:target_kind;not null;index" json:"target_type"`
  TargetSection    *string             `gorm:"column:target_section" json:"target_section,omitempty"`
  ContributionType ContributionType    `gorm:"column:contribution_type;not null" json:"contribution_type"`
  Content          string              `gorm:"column:content;not null" json:"content"`
  IsAnonymous      bool                `gorm:"column:is_anonymous;not null;default:false" json:"is_anonymous"`
  Status           ContributionStatus  `gorm:"column:status;not null;index" json:"status"`
  ReviewedBy       *uuid.UUID          `gorm:"type:uuid;column:reviewed_by" json:"reviewed_by,omitempty"`
  ReviewNotes      *string             `gorm:"column:review_notes" json:"review_notes,omitempty"`
  ReviewedAt       *time.Time          `gorm:"column:reviewed_at" json:"reviewed_at,omitempty"`
  CreatedAt        time.Time           `gorm:"not null" json:"created_at"`
}

func (Contribution) TableName() string {
  return "contribution"
}
