package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/truthsource/insight-service/internal/domain"
)

// Archiver writes insight batches to object storage so detection results
// survive the 7-day database expiry.
type Archiver struct {
	store ObjectStorage
}

func NewArchiver(store ObjectStorage) *Archiver {
	return &Archiver{store: store}
}

// ArchiveInsights stores one JSON document per organization and day. Batches
// archived within the same day for the same organization get distinct keys
// via the timestamp suffix.
func (a *Archiver) ArchiveInsights(ctx context.Context, organizationID string, generatedAt time.Time, insights []domain.InsightRecord) (string, error) {
	if len(insights) == 0 {
		return "", nil
	}

	payload, err := json.Marshal(insights)
	if err != nil {
		return "", fmt.Errorf("failed encoding insights: %w", err)
	}

	key := fmt.Sprintf("insights/%s/%s/%s.json",
		organizationID,
		generatedAt.UTC().Format("2006-01-02"),
		generatedAt.UTC().Format("150405"))
	if err := a.store.UploadObject(ctx, key, payload); err != nil {
		return "", err
	}
	return key, nil
}

// ListArchived returns the archive keys for one organization.
func (a *Archiver) ListArchived(ctx context.Context, organizationID string) ([]ObjectInfo, error) {
	return a.store.ListObjects(ctx, fmt.Sprintf("insights/%s/", organizationID))
}
