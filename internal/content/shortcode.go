// Package content turns stored entity bodies into HTML: image shortcodes for
// printing/service content, markdown for blog posts.
package content

import (
	"context"
	"errors"
	"fmt"
	"html"
	"regexp"
	"strconv"
	"strings"

	"printsite/internal/storage"
)

// ImageLookup resolves an image id to its stored descriptor. Implemented by
// the sqlite store; tests hand in a closure over a map.
type ImageLookup interface {
	GetImageByID(ctx context.Context, id int64) (*storage.Image, error)
}

// markerPattern matches any [image:...] shortcode. The payload is validated
// afterwards so a non-numeric id can be passed through verbatim instead of
// being skipped by the regex.
var markerPattern = regexp.MustCompile(`\[image:([^\]]+)\]`)

// wellFormedPattern matches only markers CountMarkers should count: a decimal
// id plus an optional |alt part.
var wellFormedPattern = regexp.MustCompile(`\[image:(\d+)(\|([^\]]*))?\]`)

// Renderer rewrites image shortcodes into <img> tags.
type Renderer struct {
	images ImageLookup
}

func NewRenderer(images ImageLookup) *Renderer {
	return &Renderer{images: images}
}

// Render replaces every [image:<id>] and [image:<id>|<alt>] marker in text,
// left to right. A marker whose id resolves becomes an <img> tag; an id the
// store does not know becomes a visible placeholder naming the id; a
// non-integer id is left exactly as written. Text outside markers is never
// touched. Lookup failures other than a missing row abort the render.
func (r *Renderer) Render(ctx context.Context, text string) (string, error) {
	var lookupErr error

	out := markerPattern.ReplaceAllStringFunc(text, func(marker string) string {
		if lookupErr != nil {
			return marker
		}

		payload := marker[len("[image:") : len(marker)-1]

		idPart, altPart, _ := strings.Cut(payload, "|")

		id, err := strconv.ParseInt(idPart, 10, 64)
		if err != nil {
			return marker
		}

		img, err := r.images.GetImageByID(ctx, id)
		if errors.Is(err, storage.ErrNotFound) {
			return fmt.Sprintf("[Ảnh không tồn tại: %d]", id)
		}
		if err != nil {
			lookupErr = fmt.Errorf("resolving image %d: %w", id, err)
			return marker
		}

		// marker alt wins over the stored one
		alt := altPart
		if alt == "" && img.AltText != nil {
			alt = *img.AltText
		}

		return fmt.Sprintf(
			`<img src="%s" alt="%s" class="content-image" style="max-width: 100%%; height: auto;" />`,
			img.URL, html.EscapeString(alt),
		)
	})
	if lookupErr != nil {
		return "", lookupErr
	}

	return out, nil
}

// CountMarkers reports how many well-formed image markers text contains,
// without resolving any of them.
func CountMarkers(text string) int {
	return len(wellFormedPattern.FindAllString(text, -1))
}

// Marker builds the shortcode for an uploaded content image, ready to paste
// into an editor.
func Marker(imageID int64, alt string) string {
	if alt == "" {
		return fmt.Sprintf("[image:%d]", imageID)
	}
	return fmt.Sprintf("[image:%d|%s]", imageID, alt)
}
