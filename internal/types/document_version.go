package types

import (
  "time"
  "github.com/google/uuid"
  "gorm.io/datatypes"
)

type DocumentKind string

const (
  DocumentKindPositioning DocumentKind = "positioning"
  DocumentKindBattlecard  DocumentKind = "battlecard"
)

func ParseDocumentKind(s string) (DocumentKind, bool) {
  switch DocumentKind(s) {
  case DocumentKindPositioning, DocumentKindBattlecard:
    return DocumentKind(s), true
  }
  return "", false
}

// DocumentVersion is one immutable snapshot of a document kind's content.
// Rows are append-only: saves and restores insert, nothing updates or
// deletes. The row with the max version number per kind is the current
// document. Content is opaque to the versioning layer.
type DocumentVersion struct {
  ID            uuid.UUID       `gorm:"type:uuid;primaryKey" json:"id"`
  Kind          DocumentKind    `gorm:"column:kind;not null;uniqueIndex:idx_document_version_kind_number,priority:1" json:"kind"`
  VersionNumber int             `gorm:"column:version_number;not null;uniqueIndex:idx_document_version_kind_number,priority:2" json:"version_number"`
  Content       datatypes.JSON  `gorm:"column:content;not null" json:"content"`
  ChangeNotes   string          `gorm:"column:change_notes" json:"change_notes"`
  CreatedBy     *uuid.UUID      `gorm:"type:uuid;column:created_by" json:"created_by,omitempty"`
  CreatedAt     time.Time       `gorm:"not null" json:"created_at"`
}

func (DocumentVersion) TableName() string {
  return "document_version"
}
