// Package images owns the upload path: validation, unique naming, file
// persistence, dimension probing and catalog rows, plus the background webp
// variant pool.
package images

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/url"
	"path"
	"strings"

	"printsite/internal/storage"
	"printsite/internal/telemetry"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	uploadPrefix = "static/images/uploads"

	maxContentSize = 10 * 1024 * 1024 // printing and service uploads
	maxBannerSize  = 15 * 1024 * 1024

	// a printing shows at most three gallery images
	maxPrintingImages = 3
)

var allowedMimeTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/gif":  true,
	"image/webp": true,
	"image/bmp":  true,
}

var allowedExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".webp": true,
	".bmp":  true,
}

// UploadInput is one file as received from a multipart form.
type UploadInput struct {
	Filename    string
	ContentType string
	Body        io.Reader
	AltText     *string
}

// Catalog is the slice of the store the pipeline writes to.
type Catalog interface {
	CreateImage(ctx context.Context, img *storage.Image) (*storage.Image, error)
	DeleteImage(ctx context.Context, id int64) error
	AddPrintingImage(ctx context.Context, printingID, imageID int64, ord int) error
	CountPrintingImages(ctx context.Context, printingID int64) (int64, error)
	ClearPrintingImages(ctx context.Context, printingID int64) ([]*storage.Image, error)
}

// Pipeline validates and persists uploaded images. One instance is shared by
// every handler that accepts files.
type Pipeline struct {
	files    storage.Provider
	catalog  Catalog
	baseURL  string // public URL prefix; relative URLs when empty
	logger   *slog.Logger
	variants *Processor         // nil disables variant generation
	metrics  *telemetry.Metrics // nil disables upload counters
}

func NewPipeline(files storage.Provider, catalog Catalog, baseURL string, variants *Processor, metrics *telemetry.Metrics, logger *slog.Logger) *Pipeline {
	return &Pipeline{
		files:    files,
		catalog:  catalog,
		baseURL:  baseURL,
		logger:   logger,
		variants: variants,
		metrics:  metrics,
	}
}

func sizeLimit(category string) int64 {
	if category == "banner" {
		return maxBannerSize
	}
	return maxContentSize
}

// validate runs the three checks in fixed order: declared MIME type, then
// filename extension, then size. Each failure is independent so a .txt file
// with a spoofed image/png MIME is still rejected on its extension.
func validate(in UploadInput, category string, size int64) error {
	if !allowedMimeTypes[in.ContentType] {
		return &ValidationError{Filename: in.Filename, Reason: "unsupported file type " + in.ContentType}
	}

	ext := strings.ToLower(path.Ext(in.Filename))
	if !allowedExtensions[ext] {
		return &ValidationError{Filename: in.Filename, Reason: "unsupported file extension " + ext}
	}

	if limit := sizeLimit(category); size > limit {
		return &ValidationError{Filename: in.Filename, Reason: "file too large", Limit: limit}
	}
	return nil
}

// Ingest validates one upload, stores the file under a fresh uuid name and
// inserts its catalog row. Nothing is written when validation fails.
func (p *Pipeline) Ingest(ctx context.Context, in UploadInput, category string, uploadedBy int64) (*storage.Image, error) {
	limit := sizeLimit(category)

	// bounded read; one byte over the cap is enough to reject
	data, err := io.ReadAll(io.LimitReader(in.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("cannot read upload %q: %w", in.Filename, err)
	}

	if err := validate(in, category, int64(len(data))); err != nil {
		if p.metrics != nil {
			p.metrics.UploadRejectsTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.String("category", category)))
		}
		return nil, err
	}

	ext := strings.ToLower(path.Ext(in.Filename))
	name := uuid.New().String() + ext
	if category == "banner" {
		name = "banner_" + name
	}
	key := uploadPrefix + "/" + name

	if err := p.files.Save(ctx, key, bytes.NewReader(data)); err != nil {
		return nil, fmt.Errorf("cannot store upload %q: %w", in.Filename, err)
	}

	width, height := probeDimensions(data)

	img := &storage.Image{
		Filename:  in.Filename, // original name; the storage key carries the uuid
		FilePath:  key,
		URL:       p.publicURL(key),
		AltText:   in.AltText,
		FileSize:  int64(len(data)),
		MimeType:  in.ContentType,
		Width:     width,
		Height:    height,
		IsVisible: true,
		Category:  category,
		CreatedBy: uploadedBy,
	}

	created, err := p.catalog.CreateImage(ctx, img)
	if err != nil {
		// the row failed, don't leave the file behind
		if delErr := p.files.Delete(ctx, key); delErr != nil {
			p.logger.Error("orphaned upload file", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("cannot catalog upload %q: %w", in.Filename, err)
	}

	if p.variants != nil {
		if err := p.variants.Enqueue(ctx, VariantJob{SourceKey: key, Filename: name}); err != nil {
			p.logger.Warn("variant generation skipped", "key", key, "error", err)
		}
	}

	if p.metrics != nil {
		p.metrics.UploadsTotal.Add(ctx, 1,
			metric.WithAttributes(attribute.String("category", category)))
		p.metrics.UploadBytesTotal.Add(ctx, int64(len(data)))
	}

	p.logger.Info("image ingested", "filename", in.Filename, "key", key, "category", category, "bytes", len(data))
	return created, nil
}

// IngestBatch stores a printing's gallery uploads. The three-image cap is
// checked before any byte is written, and a failure partway through removes
// everything the batch already stored, files and rows both.
func (p *Pipeline) IngestBatch(ctx context.Context, printingID int64, uploads []UploadInput, keepExisting bool, uploadedBy int64) ([]*storage.Image, error) {
	var existing int64
	if keepExisting {
		n, err := p.catalog.CountPrintingImages(ctx, printingID)
		if err != nil {
			return nil, err
		}
		existing = n
	}

	if existing+int64(len(uploads)) > maxPrintingImages {
		return nil, &ValidationError{
			Reason: fmt.Sprintf("a printing holds at most %d images (%d existing, %d new)",
				maxPrintingImages, existing, len(uploads)),
		}
	}

	if !keepExisting {
		removed, err := p.catalog.ClearPrintingImages(ctx, printingID)
		if err != nil {
			return nil, err
		}
		for _, old := range removed {
			if err := p.files.Delete(ctx, old.FilePath); err != nil {
				p.logger.Warn("stale gallery file not removed", "key", old.FilePath, "error", err)
			}
		}
	}

	stored := make([]*storage.Image, 0, len(uploads))
	rollback := func() {
		for _, img := range stored {
			if err := p.files.Delete(ctx, img.FilePath); err != nil {
				p.logger.Error("batch rollback: file not removed", "key", img.FilePath, "error", err)
			}
			if err := p.catalog.DeleteImage(ctx, img.ID); err != nil {
				p.logger.Error("batch rollback: row not removed", "image_id", img.ID, "error", err)
			}
		}
	}

	for i, in := range uploads {
		img, err := p.Ingest(ctx, in, "printing", uploadedBy)
		if err != nil {
			rollback()
			return nil, err
		}

		ord := int(existing) + i + 1
		if err := p.catalog.AddPrintingImage(ctx, printingID, img.ID, ord); err != nil {
			// the just-stored image is not in stored yet, clean it too
			stored = append(stored, img)
			rollback()
			return nil, fmt.Errorf("cannot link image %d to printing %d: %w", img.ID, printingID, err)
		}
		stored = append(stored, img)
	}

	return stored, nil
}

// Remove deletes an image row and, when removeFile is set, its stored file.
func (p *Pipeline) Remove(ctx context.Context, img *storage.Image, removeFile bool) error {
	if err := p.catalog.DeleteImage(ctx, img.ID); err != nil {
		return err
	}
	if removeFile {
		if err := p.files.Delete(ctx, img.FilePath); err != nil {
			return fmt.Errorf("row deleted but file remains: %w", err)
		}
	}
	return nil
}

func (p *Pipeline) publicURL(key string) string {
	if p.baseURL == "" {
		return "/" + key
	}

	base := p.baseURL
	if !strings.HasPrefix(base, "http") {
		base = "https://" + base
	}
	joined, err := url.JoinPath(base, key)
	if err != nil {
		return "/" + key
	}
	return joined
}
