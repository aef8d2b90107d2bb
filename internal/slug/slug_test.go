package slug

import "testing"

func TestGenerate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"vietnamese title", "Thiết kế website", "thiet-ke-website"},
		{"special characters dropped", "Có ký tự đặc biệt @#$%", "co-ky-tu-dac-biet"},
		{"uppercase accents", "ĐƯỜNG PHỐ", "duong-pho"},
		{"plain ascii", "Business Cards", "business-cards"},
		{"underscores become hyphens", "in_nhanh_gia_re", "in-nhanh-gia-re"},
		{"whitespace runs collapse", "in   offset \t gia re", "in-offset-gia-re"},
		{"leading and trailing junk", "  --In Ấn--  ", "in-an"},
		{"digits survive", "In 500 tờ rơi", "in-500-to-roi"},
		{"empty input", "", ""},
		{"whitespace only", "   \t  ", ""},
		{"symbols only", "@#$%^&*", ""},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			if got := Generate(tc.in); got != tc.want {
				t.Errorf("Generate(%q) = %q, want %q", tc.in, got, tc.want)
			}
		})
	}
}

func TestGenerateIdempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"Thiết kế website",
		"Có ký tự đặc biệt @#$%",
		"In 500 tờ rơi",
		"Business Cards",
	}

	for _, in := range inputs {
		once := Generate(in)
		if twice := Generate(once); twice != once {
			t.Errorf("Generate not idempotent: %q -> %q -> %q", in, once, twice)
		}
	}
}

type fakePrinting struct {
	id    int64
	title string
}

func titles(items []fakePrinting) ([]fakePrinting, func(fakePrinting) string, func(fakePrinting) int64) {
	return items,
		func(p fakePrinting) string { return p.title },
		func(p fakePrinting) int64 { return p.id }
}

func TestFind(t *testing.T) {
	t.Parallel()

	items := []fakePrinting{
		{1, "In danh thiếp"},
		{2, "Thiết kế website"},
		{3, "Thiết kế  website"}, // same slug as id 2, later in order
	}

	t.Run("first match wins", func(t *testing.T) {
		t.Parallel()
		got, ok := Find(items, "thiet-ke-website", func(p fakePrinting) string { return p.title })
		if !ok || got.id != 2 {
			t.Fatalf("Find = (%+v, %v), want id 2", got, ok)
		}
	})

	t.Run("no match", func(t *testing.T) {
		t.Parallel()
		_, ok := Find(items, "khong-ton-tai", func(p fakePrinting) string { return p.title })
		if ok {
			t.Fatal("expected no match")
		}
	})

	t.Run("empty collection", func(t *testing.T) {
		t.Parallel()
		_, ok := Find(nil, "x", func(p fakePrinting) string { return p.title })
		if ok {
			t.Fatal("expected no match on empty collection")
		}
	})
}

func TestEnsureUnique(t *testing.T) {
	t.Parallel()

	t.Run("base free", func(t *testing.T) {
		t.Parallel()
		items, title, id := titles([]fakePrinting{{1, "khac"}})
		if got := EnsureUnique(items, "x", title, id, 0); got != "x" {
			t.Errorf("got %q, want %q", got, "x")
		}
	})

	t.Run("counter walks past existing suffixes", func(t *testing.T) {
		t.Parallel()
		// x and x-2 are taken, so the next candidate after the walk is x-3
		items, title, id := titles([]fakePrinting{{1, "x"}, {2, "x 2"}})
		if got := EnsureUnique(items, "x", title, id, 0); got != "x-3" {
			t.Errorf("got %q, want %q", got, "x-3")
		}
	})

	t.Run("own id excluded", func(t *testing.T) {
		t.Parallel()
		items, title, id := titles([]fakePrinting{{7, "x"}})
		if got := EnsureUnique(items, "x", title, id, 7); got != "x" {
			t.Errorf("got %q, want %q", got, "x")
		}
	})
}
