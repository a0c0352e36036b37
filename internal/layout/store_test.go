package layout

import (
	"testing"
	"time"

	"github.com/summit-enterprise/stock-pro-sub000/internal/drawing"
)

func TestSaveGetRoundTrip(t *testing.T) {
	store, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore() error = %v", err)
	}

	want := Layout{
		Symbol:  "AAPL",
		SavedAt: time.Date(2026, 8, 21, 10, 0, 0, 0, time.UTC),
		Lines: []drawing.Line{{
			ID:     "01ARZ3NDEKTSV4RRFFQ69G5FAV",
			Type:   drawing.Horizontal,
			Points: [2]drawing.PointRef{{Time: 1000, Value: 150.25}, {Time: 2000, Value: 150.25}},
		}},
	}
	if err := store.Save(want); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := store.Get("AAPL")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if len(got.Lines) != 1 || got.Lines[0].Points != want.Lines[0].Points {
		t.Fatalf("Get() = %+v; want %+v", got, want)
	}
}

func TestGetMissingLayout(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	if _, err := store.Get("MSFT"); err == nil {
		t.Fatalf("Get() = nil; want not-found error")
	}
}

func TestValidateSymbol(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	for _, symbol := range []string{"", "a b", "../etc", "verylongsymbolpastlimit"} {
		if err := store.Save(Layout{Symbol: symbol}); err == nil {
			t.Fatalf("Save(%q) = nil; want validation error", symbol)
		}
	}
	if err := store.Save(Layout{Symbol: "^GSPC"}); err != nil {
		t.Fatalf("Save(^GSPC) error = %v", err)
	}
}

func TestListNewestFirst(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	_ = store.Save(Layout{Symbol: "AAPL", SavedAt: time.Date(2026, 8, 1, 0, 0, 0, 0, time.UTC)})
	_ = store.Save(Layout{Symbol: "MSFT", SavedAt: time.Date(2026, 8, 20, 0, 0, 0, 0, time.UTC)})

	got, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(got) != 2 || got[0].Symbol != "MSFT" {
		t.Fatalf("List() = %+v; want MSFT first", got)
	}
}

func TestDelete(t *testing.T) {
	store, _ := NewStore(t.TempDir())
	_ = store.Save(Layout{Symbol: "AAPL", SavedAt: time.Now()})
	if err := store.Delete("AAPL"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := store.Get("AAPL"); err == nil {
		t.Fatalf("Get() after delete = nil; want error")
	}
	if err := store.Delete("AAPL"); err != nil {
		t.Fatalf("Delete() missing = %v; want nil", err)
	}
}
