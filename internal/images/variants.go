package images

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"io"
	"log/slog"
	"sync"

	"printsite/internal/storage"
	"printsite/internal/telemetry"

	"github.com/gofrs/uuid/v5"
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/image/draw"
)

// variantWidths are the downscaled webp renditions generated per upload.
var variantWidths = [...]int{480, 960, 1600}

// variantNamespace keys the deterministic variant names, so re-processing an
// upload overwrites its old variants instead of accumulating new ones.
var variantNamespace = uuid.NewV5(uuid.NamespaceURL, "printsite/variants")

// VariantJob asks the pool to produce the webp renditions of one stored
// upload.
type VariantJob struct {
	SourceKey  string
	Filename   string
	ParentSpan trace.SpanContext
}

// Processor is a fixed-size worker pool generating webp variants in the
// background. Variant generation is advisory: a failure is logged, never
// surfaced to the uploader.
type Processor struct {
	jobs     chan VariantJob
	wg       sync.WaitGroup
	logger   *slog.Logger
	inFlight sync.Map
	files    storage.Provider
	tracer   trace.Tracer
	metrics  *telemetry.Metrics // nil disables the encoded counter
}

func NewProcessor(ctx context.Context, files storage.Provider, workerCount int, metrics *telemetry.Metrics, logger *slog.Logger) *Processor {
	p := &Processor{
		jobs:    make(chan VariantJob, 25),
		logger:  logger,
		files:   files,
		tracer:  otel.Tracer("printsite/images/variants"),
		metrics: metrics,
	}
	for i := range workerCount {
		p.wg.Go(func() {
			p.worker(ctx, i)
		})
	}

	go func() {
		<-ctx.Done()
		p.logger.Info("variant processor received shutdown signal")
		close(p.jobs)
		p.wg.Wait()
		p.logger.Info("variant processor shutdown complete")
	}()

	return p
}

// VariantKey is the deterministic storage key of one rendition.
func VariantKey(filename string, width int) string {
	id := uuid.NewV5(variantNamespace, fmt.Sprintf("%s_%d", filename, width))
	return uploadPrefix + "/variants/" + id.String() + ".webp"
}

// Enqueue schedules all widths for one upload. Duplicate filenames already in
// flight are dropped silently; a full queue is reported to the caller.
func (p *Processor) Enqueue(ctx context.Context, job VariantJob) error {
	if _, loaded := p.inFlight.LoadOrStore(job.Filename, struct{}{}); loaded {
		return nil
	}

	select {
	case <-ctx.Done():
		p.inFlight.Delete(job.Filename)
		return ctx.Err()
	case p.jobs <- job:
		return nil
	default:
		p.inFlight.Delete(job.Filename)
		return fmt.Errorf("variant queue full")
	}
}

func (p *Processor) worker(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			return
		case job, ok := <-p.jobs:
			if !ok {
				return
			}
			p.processJob(ctx, id, job)
			p.inFlight.Delete(job.Filename)
		}
	}
}

func (p *Processor) processJob(ctx context.Context, workerID int, job VariantJob) {
	link := trace.Link{SpanContext: job.ParentSpan}

	ctx, span := p.tracer.Start(ctx, "ProcessVariants",
		trace.WithAttributes(attribute.String("image.filename", job.Filename)),
		trace.WithLinks(link),
	)
	defer span.End()

	p.logger.Info("worker processing image variants", "worker_id", workerID, "filename", job.Filename)

	reader, err := p.files.Open(ctx, job.SourceKey)
	if err != nil {
		p.logger.Error("failed to open variant source", "key", job.SourceKey, "err", err)
		return
	}
	defer reader.Close()

	source, _, err := image.Decode(reader)
	if err != nil {
		p.logger.Error("variant source decode failed", "key", job.SourceKey, "err", err)
		return
	}

	for _, width := range variantWidths {
		if ctx.Err() != nil {
			return
		}

		destKey := VariantKey(job.Filename, width)

		// any other worker has done this?
		if p.files.Exists(ctx, destKey) {
			continue
		}

		_, cpuSpan := p.tracer.Start(ctx, "GenerateVariant.CPU",
			trace.WithAttributes(attribute.Int("variant.width", width)))
		buf, err := encodeVariant(source, width)
		cpuSpan.End()
		if err != nil {
			p.logger.Error("variant failed", "worker", workerID, "width", width, "err", err)
			continue
		}

		if err := p.files.Save(ctx, destKey, buf); err != nil {
			p.logger.Error("failed to store variant", "key", destKey, "err", err)
			continue
		}

		if p.metrics != nil {
			p.metrics.VariantsEncodedTotal.Add(ctx, 1,
				metric.WithAttributes(attribute.Int("variant.width", width)))
		}
	}
}

func encodeVariant(source image.Image, width int) (io.Reader, error) {
	if source.Bounds().Dx() > width {
		source = downscale(source, width)
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, 75)
	if err != nil {
		return nil, fmt.Errorf("encoding options: %w", err)
	}

	var buf bytes.Buffer
	if err := webp.Encode(&buf, source, options); err != nil {
		return nil, fmt.Errorf("encode error: %w", err)
	}
	return bytes.NewReader(buf.Bytes()), nil
}

func downscale(source image.Image, maxWidth int) image.Image {
	b := source.Bounds()
	currentWidth := b.Dx()

	if currentWidth <= maxWidth {
		return source
	}

	newHeight := (b.Dy() * maxWidth) / currentWidth
	dest := image.NewRGBA(image.Rect(0, 0, maxWidth, newHeight))

	// bilinear has a good quality / speed tradeoff
	draw.BiLinear.Scale(dest, dest.Bounds(), source, source.Bounds(), draw.Over, nil)

	return dest
}
