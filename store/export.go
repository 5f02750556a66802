package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/raushankrgupta/shopbot/models"
	"github.com/raushankrgupta/shopbot/utils"
)

// ObjectStore is the subset of utils.S3Bucket used by the exporter
type ObjectStore interface {
	Upload(ctx context.Context, objectKey string, body io.Reader, contentType string) error
	PresignedURL(ctx context.Context, objectKey string, ttl time.Duration) (string, error)
}

// Exporter writes search results as JSON snapshots to object storage
type Exporter struct {
	objects      ObjectStore
	mirrorImages bool
	linkTTL      time.Duration
	now          func() time.Time
	newID        func() string
}

// NewExporter creates an Exporter. With mirrorImages set, product images are
// copied next to the snapshot and the snapshot links to the copies with
// presigned URLs that live as long as the snapshot link.
func NewExporter(objects ObjectStore, mirrorImages bool) *Exporter {
	return &Exporter{
		objects:      objects,
		mirrorImages: mirrorImages,
		linkTTL:      24 * time.Hour,
		now:          time.Now,
		newID:        func() string { return uuid.New().String() },
	}
}

// SnapshotKey is results/<yyyy-mm-dd>/<id>.json
func SnapshotKey(t time.Time, id string) string {
	return fmt.Sprintf("results/%s/%s.json", t.UTC().Format("2006-01-02"), id)
}

// Export uploads res and returns a presigned link to it
func (e *Exporter) Export(ctx context.Context, res *models.SearchResult) (string, error) {
	id := e.newID()
	key := SnapshotKey(e.now(), id)

	snapshot := *res
	snapshot.Products = append([]models.Product(nil), res.Products...)
	if e.mirrorImages {
		urls := make([]string, len(snapshot.Products))
		for i, p := range snapshot.Products {
			urls[i] = p.Image
		}
		prefix := fmt.Sprintf("results/%s/%s", e.now().UTC().Format("2006-01-02"), id)
		mirrored := utils.MirrorImages(ctx, e.objects, urls, prefix)
		for i, p := range snapshot.Products {
			k, ok := mirrored[p.Image]
			if !ok {
				continue
			}
			// Keep the shop's URL when the copy cannot be linked
			if link, err := e.objects.PresignedURL(ctx, k, e.linkTTL); err == nil {
				snapshot.Products[i].Image = link
			}
		}
	}

	body, err := json.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return "", err
	}
	if err := e.objects.Upload(ctx, key, bytes.NewReader(body), "application/json"); err != nil {
		return "", err
	}
	return e.objects.PresignedURL(ctx, key, e.linkTTL)
}
