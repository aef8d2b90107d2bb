package images

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"path"
	"strings"
	"sync"
	"testing"

	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"printsite/internal/storage"
	"printsite/internal/telemetry"
)

// tiny but decodable 1x1 png
var pngBytes = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0d, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x62, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

type memProvider struct {
	mu    sync.Mutex
	files map[string][]byte
}

func newMemProvider() *memProvider {
	return &memProvider{files: make(map[string][]byte)}
}

func (m *memProvider) Open(_ context.Context, key string) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.files[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (m *memProvider) Save(_ context.Context, key string, body io.Reader) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[key] = data
	return nil
}

func (m *memProvider) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, key)
	return nil
}

func (m *memProvider) Exists(_ context.Context, key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.files[key]
	return ok
}

func (m *memProvider) count() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.files)
}

type memCatalog struct {
	mu     sync.Mutex
	nextID int64
	images map[int64]*storage.Image
	links  map[int64][]int64 // printingID -> imageIDs

	failCreateAfter int // fail the Nth CreateImage call, 0 disables
	creates         int
}

func newMemCatalog() *memCatalog {
	return &memCatalog{images: make(map[int64]*storage.Image), links: make(map[int64][]int64)}
}

func (c *memCatalog) CreateImage(_ context.Context, img *storage.Image) (*storage.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.creates++
	if c.failCreateAfter > 0 && c.creates >= c.failCreateAfter {
		return nil, errors.New("catalog write failed")
	}
	c.nextID++
	out := *img
	out.ID = c.nextID
	c.images[out.ID] = &out
	return &out, nil
}

func (c *memCatalog) DeleteImage(_ context.Context, id int64) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.images[id]; !ok {
		return storage.ErrNotFound
	}
	delete(c.images, id)
	return nil
}

func (c *memCatalog) AddPrintingImage(_ context.Context, printingID, imageID int64, _ int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.links[printingID] = append(c.links[printingID], imageID)
	return nil
}

func (c *memCatalog) CountPrintingImages(_ context.Context, printingID int64) (int64, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return int64(len(c.links[printingID])), nil
}

func (c *memCatalog) ClearPrintingImages(_ context.Context, printingID int64) ([]*storage.Image, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	var removed []*storage.Image
	for _, id := range c.links[printingID] {
		if img, ok := c.images[id]; ok {
			removed = append(removed, img)
			delete(c.images, id)
		}
	}
	delete(c.links, printingID)
	return removed, nil
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestPipeline(files *memProvider, catalog *memCatalog, baseURL string) *Pipeline {
	return NewPipeline(files, catalog, baseURL, nil, nil, discardLogger())
}

func pngUpload(name string) UploadInput {
	return UploadInput{
		Filename:    name,
		ContentType: "image/png",
		Body:        bytes.NewReader(pngBytes),
	}
}

func TestIngestValidation(t *testing.T) {
	t.Parallel()

	t.Run("bad mime rejected first", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		_, err := p.Ingest(context.Background(), UploadInput{
			Filename:    "notes.txt",
			ContentType: "text/plain",
			Body:        strings.NewReader("hello"),
		}, "printing", 1)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if !strings.Contains(verr.Reason, "file type") {
			t.Errorf("want mime rejection, got %q", verr.Reason)
		}
		if files.count() != 0 {
			t.Error("rejected upload must not be written")
		}
	})

	t.Run("valid mime but txt extension rejected", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		_, err := p.Ingest(context.Background(), UploadInput{
			Filename:    "sneaky.txt",
			ContentType: "image/png",
			Body:        bytes.NewReader(pngBytes),
		}, "printing", 1)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if !strings.Contains(verr.Reason, "extension") {
			t.Errorf("want extension rejection, got %q", verr.Reason)
		}
	})

	t.Run("oversize carries the limit", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		big := io.MultiReader(bytes.NewReader(pngBytes), io.LimitReader(zeroReader{}, maxContentSize))
		_, err := p.Ingest(context.Background(), UploadInput{
			Filename:    "huge.png",
			ContentType: "image/png",
			Body:        big,
		}, "printing", 1)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if verr.Limit != maxContentSize {
			t.Errorf("Limit = %d, want %d", verr.Limit, maxContentSize)
		}
		if files.count() != 0 {
			t.Error("rejected upload must not be written")
		}
	})

	t.Run("banner limit is higher", func(t *testing.T) {
		t.Parallel()
		if sizeLimit("banner") != maxBannerSize || sizeLimit("printing") != maxContentSize {
			t.Error("per-category limits wired wrong")
		}
	})
}

type zeroReader struct{}

func (zeroReader) Read(p []byte) (int, error) {
	clear(p)
	return len(p), nil
}

func TestIngestSuccess(t *testing.T) {
	t.Parallel()
	files, catalog := newMemProvider(), newMemCatalog()
	p := newTestPipeline(files, catalog, "cdn.example.com")

	img, err := p.Ingest(context.Background(), pngUpload("mẫu.png"), "printing", 7)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	if img.Filename != "mẫu.png" {
		t.Errorf("descriptor must keep the original name, got %q", img.Filename)
	}
	if base := path.Base(img.FilePath); !strings.HasSuffix(base, ".png") || strings.Contains(base, "mẫu") {
		t.Errorf("storage key must use a fresh uuid name with the original extension, got %q", img.FilePath)
	}
	if !strings.HasPrefix(img.URL, "https://cdn.example.com/static/images/uploads/") {
		t.Errorf("unexpected URL %q", img.URL)
	}
	if img.Width == nil || *img.Width != 1 || img.Height == nil || *img.Height != 1 {
		t.Errorf("dimensions not probed: %v x %v", img.Width, img.Height)
	}
	if img.CreatedBy != 7 || img.Category != "printing" || !img.IsVisible {
		t.Errorf("descriptor fields wrong: %+v", img)
	}
	if !files.Exists(context.Background(), img.FilePath) {
		t.Error("file not persisted")
	}
}

func TestIngestBannerPrefix(t *testing.T) {
	t.Parallel()
	files, catalog := newMemProvider(), newMemCatalog()
	p := newTestPipeline(files, catalog, "")

	img, err := p.Ingest(context.Background(), pngUpload("hero.png"), "banner", 1)
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if !strings.HasPrefix(path.Base(img.FilePath), "banner_") {
		t.Errorf("banner upload not prefixed: %q", img.FilePath)
	}
	if img.Filename != "hero.png" {
		t.Errorf("descriptor must keep the original name, got %q", img.Filename)
	}
	if !strings.HasPrefix(img.URL, "/static/images/uploads/") {
		t.Errorf("want relative URL with empty base, got %q", img.URL)
	}
}

func counterValue(t *testing.T, rm metricdata.ResourceMetrics, name string) int64 {
	t.Helper()
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			if !ok {
				t.Fatalf("metric %s is not an int64 sum", name)
			}
			var total int64
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
			return total
		}
	}
	t.Fatalf("metric %s not recorded", name)
	return 0
}

func TestIngestRecordsMetrics(t *testing.T) {
	t.Parallel()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	metrics, err := telemetry.NewMetrics(provider.Meter("ingest-test"))
	if err != nil {
		t.Fatalf("NewMetrics: %v", err)
	}

	files, catalog := newMemProvider(), newMemCatalog()
	p := NewPipeline(files, catalog, "", nil, metrics, discardLogger())

	if _, err := p.Ingest(context.Background(), pngUpload("ok.png"), "printing", 1); err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if _, err := p.Ingest(context.Background(), UploadInput{
		Filename:    "notes.txt",
		ContentType: "text/plain",
		Body:        strings.NewReader("x"),
	}, "printing", 1); err == nil {
		t.Fatal("want the text upload rejected")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("collecting metrics: %v", err)
	}
	if got := counterValue(t, rm, "uploads"); got != 1 {
		t.Errorf("uploads = %d, want 1", got)
	}
	if got := counterValue(t, rm, "upload_rejects"); got != 1 {
		t.Errorf("upload_rejects = %d, want 1", got)
	}
	if got := counterValue(t, rm, "upload_bytes"); got != int64(len(pngBytes)) {
		t.Errorf("upload_bytes = %d, want %d", got, len(pngBytes))
	}
}

func TestIngestProbeFailureNonFatal(t *testing.T) {
	t.Parallel()
	files, catalog := newMemProvider(), newMemCatalog()
	p := newTestPipeline(files, catalog, "")

	img, err := p.Ingest(context.Background(), UploadInput{
		Filename:    "broken.png",
		ContentType: "image/png",
		Body:        strings.NewReader("not really a png"),
	}, "printing", 1)
	if err != nil {
		t.Fatalf("probe failure must not fail the upload: %v", err)
	}
	if img.Width != nil || img.Height != nil {
		t.Errorf("want nil dimensions, got %v x %v", img.Width, img.Height)
	}
}

func TestIngestBatch(t *testing.T) {
	t.Parallel()

	t.Run("cap checked before any write", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		uploads := []UploadInput{
			pngUpload("a.png"), pngUpload("b.png"), pngUpload("c.png"), pngUpload("d.png"),
		}
		_, err := p.IngestBatch(context.Background(), 1, uploads, false, 1)

		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
		if files.count() != 0 {
			t.Error("over-cap batch must not write any file")
		}
	})

	t.Run("keep existing counts toward the cap", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		if _, err := p.IngestBatch(context.Background(), 1, []UploadInput{pngUpload("a.png"), pngUpload("b.png")}, false, 1); err != nil {
			t.Fatalf("seed batch: %v", err)
		}

		_, err := p.IngestBatch(context.Background(), 1, []UploadInput{pngUpload("c.png"), pngUpload("d.png")}, true, 1)
		var verr *ValidationError
		if !errors.As(err, &verr) {
			t.Fatalf("want ValidationError, got %v", err)
		}
	})

	t.Run("replace removes old files and rows", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		p := newTestPipeline(files, catalog, "")

		first, err := p.IngestBatch(context.Background(), 1, []UploadInput{pngUpload("a.png")}, false, 1)
		if err != nil {
			t.Fatalf("seed batch: %v", err)
		}

		if _, err := p.IngestBatch(context.Background(), 1, []UploadInput{pngUpload("b.png")}, false, 1); err != nil {
			t.Fatalf("replace batch: %v", err)
		}

		if files.Exists(context.Background(), first[0].FilePath) {
			t.Error("replaced gallery file still present")
		}
		n, _ := catalog.CountPrintingImages(context.Background(), 1)
		if n != 1 {
			t.Errorf("want 1 linked image after replace, got %d", n)
		}
	})

	t.Run("mid-batch failure removes earlier writes", func(t *testing.T) {
		t.Parallel()
		files, catalog := newMemProvider(), newMemCatalog()
		catalog.failCreateAfter = 2 // second image's row insert fails
		p := newTestPipeline(files, catalog, "")

		_, err := p.IngestBatch(context.Background(), 1, []UploadInput{pngUpload("a.png"), pngUpload("b.png")}, false, 1)
		if err == nil {
			t.Fatal("want error from failed batch")
		}
		if files.count() != 0 {
			t.Errorf("first image's file must be deleted after mid-batch failure, %d files remain", files.count())
		}
		catalog.mu.Lock()
		remaining := len(catalog.images)
		catalog.mu.Unlock()
		if remaining != 0 {
			t.Errorf("first image's row must be deleted after mid-batch failure, %d rows remain", remaining)
		}
	})
}
