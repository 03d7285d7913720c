package employee

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestParseAmount(t *testing.T) {
	cases := map[string]string{
		"90,170":     "90170",
		"₱ 1,500.00": "1500",
		"535.71":     "535.71",
		"":           "0",
		"N/A":        "0",
		"1.2.3":      "0",
		"  2,000 ":   "2000",
		"-1,000.50":  "1000.5",
	}
	for in, want := range cases {
		got := ParseAmount(in)
		if !got.Equal(decimal.RequireFromString(want)) {
			t.Fatalf("ParseAmount(%q): expected %s, got %s", in, want, got)
		}
	}
}

func TestDirectoryFind(t *testing.T) {
	dir := NewDirectory([]Record{
		{ID: 10002, FirstName: "Antonio", LastName: "Lim"},
		{ID: 10001, FirstName: "Manuel", LastName: "Garcia"},
	})

	rec, err := dir.Find(10001)
	if err != nil {
		t.Fatalf("expected record, got %v", err)
	}
	if rec.FullName() != "Manuel Garcia" {
		t.Fatalf("expected Manuel Garcia, got %q", rec.FullName())
	}

	if _, err := dir.Find(99999); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	all := dir.All()
	if len(all) != 2 || all[0].ID != 10002 || all[1].ID != 10001 {
		t.Fatalf("expected load order, got %+v", all)
	}
}

func TestDirectoryLastDuplicateWins(t *testing.T) {
	dir := NewDirectory([]Record{
		{ID: 1, Position: "Clerk"},
		{ID: 2, Position: "Driver"},
		{ID: 1, Position: "Manager"},
	})
	if dir.Len() != 2 {
		t.Fatalf("expected 2 records, got %d", dir.Len())
	}
	rec, _ := dir.Find(1)
	if rec.Position != "Manager" {
		t.Fatalf("expected Manager, got %q", rec.Position)
	}
	all := dir.All()
	if all[0].ID != 1 || all[0].Position != "Manager" || all[1].ID != 2 {
		t.Fatalf("expected duplicate to keep its first position, got %+v", all)
	}
}

func TestDirectorySearch(t *testing.T) {
	dir := NewDirectory([]Record{
		{ID: 1, FirstName: "Manuel", LastName: "Garcia", Position: "Chief Executive Officer"},
		{ID: 2, FirstName: "Bianca", LastName: "Aquino", Position: "Account Manager"},
	})
	if got := dir.Search("manager"); len(got) != 1 || got[0].ID != 2 {
		t.Fatalf("expected Aquino, got %+v", got)
	}
	if got := dir.Search(""); len(got) != 2 {
		t.Fatalf("expected everyone, got %d", len(got))
	}
	if got := dir.Search("nobody"); got == nil || len(got) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", got)
	}
}

func TestAllowancesTotal(t *testing.T) {
	a := Allowances{
		Rice:     decimal.NewFromInt(1500),
		Phone:    decimal.NewFromInt(2000),
		Clothing: decimal.NewFromInt(1000),
	}
	if !a.Total().Equal(decimal.NewFromInt(4500)) {
		t.Fatalf("expected 4500, got %s", a.Total())
	}
}
