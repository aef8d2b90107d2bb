package content

import (
	"context"
	"errors"
	"strings"
	"testing"

	"printsite/internal/storage"
)

type fakeImages struct {
	byID map[int64]*storage.Image
}

func (f *fakeImages) GetImageByID(_ context.Context, id int64) (*storage.Image, error) {
	img, ok := f.byID[id]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return img, nil
}

func strptr(s string) *string { return &s }

func newTestRenderer() *Renderer {
	return NewRenderer(&fakeImages{byID: map[int64]*storage.Image{
		5: {ID: 5, URL: "/uploads/printings/abc.png", AltText: strptr("danh thiếp")},
		9: {ID: 9, URL: "/uploads/printings/def.jpg"},
	}})
}

func TestRendererRender(t *testing.T) {
	t.Parallel()
	r := newTestRenderer()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{
			"marker alt wins",
			"xem [image:5|mẫu in] nhé",
			`xem <img src="/uploads/printings/abc.png" alt="mẫu in" class="content-image" style="max-width: 100%; height: auto;" /> nhé`,
		},
		{
			"stored alt fallback",
			"[image:5]",
			`<img src="/uploads/printings/abc.png" alt="danh thiếp" class="content-image" style="max-width: 100%; height: auto;" />`,
		},
		{
			"no alt anywhere",
			"[image:9]",
			`<img src="/uploads/printings/def.jpg" alt="" class="content-image" style="max-width: 100%; height: auto;" />`,
		},
		{
			"missing id becomes placeholder",
			"trước [image:404] sau",
			"trước [Ảnh không tồn tại: 404] sau",
		},
		{
			"non-integer id passes through verbatim",
			"[image:abc] và [image:5|x]",
			`[image:abc] và <img src="/uploads/printings/abc.png" alt="x" class="content-image" style="max-width: 100%; height: auto;" />`,
		},
		{
			"unterminated bracket untouched",
			"mở [image:5 không đóng",
			"mở [image:5 không đóng",
		},
		{
			"plain text untouched",
			"không có marker nào ở đây",
			"không có marker nào ở đây",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := r.Render(context.Background(), tc.in)
			if err != nil {
				t.Fatalf("Render(%q): %v", tc.in, err)
			}
			if got != tc.want {
				t.Errorf("Render(%q)\n got: %s\nwant: %s", tc.in, got, tc.want)
			}
		})
	}
}

type brokenImages struct{}

func (brokenImages) GetImageByID(context.Context, int64) (*storage.Image, error) {
	return nil, errors.New("database is on fire")
}

// Only a missing row renders the placeholder; any other lookup failure must
// surface to the caller.
func TestRendererPropagatesLookupFailure(t *testing.T) {
	t.Parallel()
	r := NewRenderer(brokenImages{})

	_, err := r.Render(context.Background(), "trước [image:5] sau")
	if err == nil {
		t.Fatal("want an error from the failed lookup")
	}
	if strings.Contains(err.Error(), "không tồn tại") {
		t.Errorf("lookup failure must not masquerade as a missing image: %v", err)
	}
}

func TestRendererEscapesAlt(t *testing.T) {
	t.Parallel()
	r := newTestRenderer()

	got, err := r.Render(context.Background(), `[image:9|"><script>alert(1)</script>]`)
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if strings.Contains(got, "<script>") {
		t.Fatalf("alt text not escaped: %s", got)
	}
	if !strings.Contains(got, "&lt;script&gt;") {
		t.Fatalf("expected escaped alt in output: %s", got)
	}
}

func TestCountMarkers(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want int
	}{
		{"none", "chỉ là text", 0},
		{"two well-formed", "[image:1] giữa [image:2|alt]", 2},
		{"non-numeric not counted", "[image:abc] [image:3]", 1},
		{"unterminated not counted", "[image:3", 0},
		{"empty alt still counts", "[image:7|]", 1},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := CountMarkers(tc.in); got != tc.want {
				t.Errorf("CountMarkers(%q) = %d, want %d", tc.in, got, tc.want)
			}
		})
	}
}

func TestMarker(t *testing.T) {
	t.Parallel()

	if got := Marker(12, ""); got != "[image:12]" {
		t.Errorf("got %q", got)
	}
	if got := Marker(12, "mẫu hộp"); got != "[image:12|mẫu hộp]" {
		t.Errorf("got %q", got)
	}
}
