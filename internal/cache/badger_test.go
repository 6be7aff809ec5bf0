// Idolstats - Idol Social Media Analytics Dashboard
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/idolstats

package cache

import (
	"context"
	"testing"
	"time"
)

func openTestBadger(t *testing.T) *BadgerBackend {
	t.Helper()
	b, err := OpenBadger(t.TempDir())
	if err != nil {
		t.Fatalf("OpenBadger() error = %v", err)
	}
	t.Cleanup(func() { _ = b.Close() })
	return b
}

func TestBadgerBackend_Basic(t *testing.T) {
	b := openTestBadger(t)

	if _, ok, err := b.Get("absent"); ok || err != nil {
		t.Fatalf("Get(absent) = %v, %v", ok, err)
	}
	if err := b.Set("sns_data/k", []byte("v")); err != nil {
		t.Fatal(err)
	}
	v, ok, err := b.Get("sns_data/k")
	if err != nil || !ok || string(v) != "v" {
		t.Fatalf("Get() = %q, %v, %v", v, ok, err)
	}
	if err := b.Delete("sns_data/k"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get("sns_data/k"); ok {
		t.Error("deleted key still present")
	}
}

func TestBadgerBackend_ScanAndDropPrefix(t *testing.T) {
	b := openTestBadger(t)

	for _, k := range []string{"months/a", "months/b", "metadata/a"} {
		if err := b.Set(k, []byte(k)); err != nil {
			t.Fatal(err)
		}
	}

	var seen []string
	err := b.Scan("months/", func(key string, value []byte) error {
		seen = append(seen, key)
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if len(seen) != 2 || seen[0] != "months/a" || seen[1] != "months/b" {
		t.Errorf("Scan(months/) = %v", seen)
	}

	if err := b.DropPrefix("months/"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := b.Get("months/a"); ok {
		t.Error("months/a survived DropPrefix")
	}
	if _, ok, _ := b.Get("metadata/a"); !ok {
		t.Error("metadata/a should survive DropPrefix(months/)")
	}
}

func TestBadgerBackend_StorePersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()
	ctx := context.Background()

	b, err := OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	s := NewStore[[]string](b, "test_badger_months", WithPrefix("months/"))
	if err := s.Put(ctx, MonthIndexKey("남자", "웨이보"), []string{"2025-01"}, time.Hour); err != nil {
		t.Fatal(err)
	}
	if err := b.Close(); err != nil {
		t.Fatal(err)
	}

	b2, err := OpenBadger(dir)
	if err != nil {
		t.Fatal(err)
	}
	defer b2.Close()

	s2 := NewStore[[]string](b2, "test_badger_months", WithPrefix("months/"))
	got, ok, err := s2.Get(ctx, MonthIndexKey("남자", "웨이보"))
	if err != nil || !ok || len(got) != 1 || got[0] != "2025-01" {
		t.Errorf("after reopen Get() = %v, %v, %v", got, ok, err)
	}
}
