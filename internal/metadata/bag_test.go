package metadata_test

import (
	"slices"
	"testing"

	"spatialphoto/internal/metadata"
)

func TestBagKeepsInsertionOrder(t *testing.T) {
	b := metadata.NewBag()
	b.Set("b", 1)
	b.Set("a", "x")
	b.Set("c", true)
	b.Set("b", 2)

	if got, want := b.Keys(), []string{"b", "a", "c"}; !slices.Equal(got, want) {
		t.Fatalf("keys: got %v want %v", got, want)
	}
	if v, ok := b.Int("b"); !ok || v != 2 {
		t.Fatalf("b: got %v (%v) want 2", v, ok)
	}

	b.Delete("a")
	b.Delete("missing")
	if got, want := b.Keys(), []string{"b", "c"}; !slices.Equal(got, want) {
		t.Fatalf("keys after delete: got %v want %v", got, want)
	}
}

func TestBagCloneIsDeep(t *testing.T) {
	orig := metadata.NewBag()
	exif := orig.EnsureSub(metadata.KeyExif)
	exif.Set(metadata.ExifDateTimeOriginal, "2024:01:01 00:00:00")
	orig.Set("List", []float64{1, 2, 3})

	clone := orig.Clone()
	if !clone.Equal(orig) {
		t.Fatal("clone should equal original")
	}

	clone.Sub(metadata.KeyExif).Set(metadata.ExifDateTimeOriginal, "changed")
	list, _ := clone.Get("List")
	list.([]any)[0] = 99.0

	if v, _ := orig.Sub(metadata.KeyExif).String(metadata.ExifDateTimeOriginal); v != "2024:01:01 00:00:00" {
		t.Fatalf("nested bag shared with clone: got %q", v)
	}
	if got, _ := orig.Floats("List"); got[0] != 1 {
		t.Fatalf("array shared with clone: got %v", got)
	}
	if clone.Equal(orig) {
		t.Fatal("modified clone should differ")
	}
}

func TestBagMarshalJSONPreservesOrder(t *testing.T) {
	b := metadata.NewBag()
	b.Set("z", 1)
	b.Set("a", "two")
	sub := b.EnsureSub("m")
	sub.Set("y", false)
	sub.Set("x", []float64{0.5})

	data, err := b.MarshalJSON()
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	want := `{"z":1,"a":"two","m":{"y":false,"x":[0.5]}}`
	if string(data) != want {
		t.Fatalf("json: got %s want %s", data, want)
	}
}

func TestNilBagAccessors(t *testing.T) {
	var b *metadata.Bag
	if b.Len() != 0 {
		t.Fatal("nil bag should be empty")
	}
	if _, ok := b.String("x"); ok {
		t.Fatal("nil bag should not return values")
	}
	if b.Sub("x") != nil {
		t.Fatal("nil bag should not return nested bags")
	}
	if b.Clone() != nil {
		t.Fatal("clone of nil should be nil")
	}
	if !b.Equal(metadata.NewBag()) {
		t.Fatal("nil bag should equal an empty bag")
	}
}
