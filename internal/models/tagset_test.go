// file: internal/models/tagset_test.go
// version: 1.0.0
// guid: 8d9e0f1a-2b3c-4d5e-6f7a-8b9c0d1e2f3a

package models

import (
	"reflect"
	"testing"
)

func TestTagSetInsertionOrder(t *testing.T) {
	ts := NewTagSet()
	ts.Set("c", "3")
	ts.Set("a", "1")
	ts.Set("b", "2")

	want := []string{"c", "a", "b"}
	if got := ts.Keys(); !reflect.DeepEqual(got, want) {
		t.Errorf("Keys() = %v, want %v", got, want)
	}
}

func TestTagSetOverwriteKeepsPosition(t *testing.T) {
	ts := NewTagSet()
	ts.Set("a", "first")
	ts.Set("b", "other")
	ts.Set("a", "second")

	if got := ts.Keys(); !reflect.DeepEqual(got, []string{"a", "b"}) {
		t.Errorf("Keys() = %v, overwrite must not move the key", got)
	}
	if v, _ := ts.Get("a"); v != "second" {
		t.Errorf("Get(a) = %q, want final write to win", v)
	}
}

func TestTagSetMerge(t *testing.T) {
	ts := NewTagSet()
	ts.Set("a", "1")
	ts.Set("b", "2")

	other := NewTagSet()
	other.Set("b", "overwritten")
	other.Set("c", "3")

	ts.Merge(other)

	if got := ts.Keys(); !reflect.DeepEqual(got, []string{"a", "b", "c"}) {
		t.Errorf("Keys() after merge = %v", got)
	}
	if v, _ := ts.Get("b"); v != "overwritten" {
		t.Errorf("Get(b) = %q, want merged value", v)
	}
	if ts.Len() != 3 {
		t.Errorf("Len() = %d, want 3", ts.Len())
	}
}

func TestTagSetMergeNil(t *testing.T) {
	ts := NewTagSet()
	ts.Set("a", "1")
	ts.Merge(nil)
	if ts.Len() != 1 {
		t.Errorf("Len() = %d after nil merge, want 1", ts.Len())
	}
}

func TestBookDetailYear(t *testing.T) {
	d := &BookDetail{ReleaseDate: "2021-05-04T00:00:00Z"}
	if got := d.Year(); got != "2021" {
		t.Errorf("Year() = %q, want 2021", got)
	}

	empty := &BookDetail{}
	if got := empty.Year(); got != "" {
		t.Errorf("Year() = %q for empty release date, want empty", got)
	}
}

func TestBookDetailHasSeries(t *testing.T) {
	if (&BookDetail{SeriesPart: "3"}).HasSeries() {
		t.Error("a part without a series name must not count as series info")
	}
	if !(&BookDetail{Series: "Bobiverse"}).HasSeries() {
		t.Error("HasSeries() = false with a series name set")
	}
}
