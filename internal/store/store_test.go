package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "reportd.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

const (
	reportA = "11111111-1111-4111-8111-111111111111"
	reportB = "22222222-2222-4222-8222-222222222222"
)

func seedReport(t *testing.T, s *Store, reportID, ownerID string) {
	t.Helper()
	err := s.InsertReport(context.Background(), ReportRow{
		ReportID: reportID,
		OwnerID:  ownerID,
		Title:    "Cooling rework",
		Body:     []byte(`{"title":"Cooling rework"}`),
	})
	if err != nil {
		t.Fatalf("InsertReport: %v", err)
	}
}

func TestGetReportScopedToOwner(t *testing.T) {
	s := openTestStore(t)
	seedReport(t, s, reportA, "alice")

	got, err := s.GetReport(context.Background(), "alice", reportA)
	if err != nil {
		t.Fatalf("GetReport as owner: %v", err)
	}
	if got.Title != "Cooling rework" {
		t.Fatalf("unexpected title %q", got.Title)
	}

	if _, err := s.GetReport(context.Background(), "mallory", reportA); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected fail-closed not found for other owner, got %v", err)
	}
}

func TestUpsertShareKeepsToken(t *testing.T) {
	s := openTestStore(t)
	seedReport(t, s, reportA, "alice")
	exp := time.Now().Add(30 * 24 * time.Hour)

	first, err := s.UpsertShare(context.Background(), reportA, "alice", "tok-one", exp)
	if err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	second, err := s.UpsertShare(context.Background(), reportA, "alice", "tok-two", exp.Add(time.Hour))
	if err != nil {
		t.Fatalf("UpsertShare again: %v", err)
	}
	if first.ShareToken != "tok-one" || second.ShareToken != "tok-one" {
		t.Fatalf("expected stable token, got %q then %q", first.ShareToken, second.ShareToken)
	}
	if second.ExpiresAt == first.ExpiresAt {
		t.Fatal("expected expiry refreshed on second upsert")
	}
}

func TestUpsertShareTokenCollision(t *testing.T) {
	s := openTestStore(t)
	seedReport(t, s, reportA, "alice")
	seedReport(t, s, reportB, "alice")

	exp := time.Now().Add(time.Hour)
	if _, err := s.UpsertShare(context.Background(), reportA, "alice", "tok", exp); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	_, err := s.UpsertShare(context.Background(), reportB, "alice", "tok", exp)
	if err == nil {
		t.Fatal("expected duplicate token for another report to fail")
	}
	if !IsConflictError(err) {
		t.Fatalf("expected conflict classification, got %v", err)
	}
	if IsSchemaError(err) {
		t.Fatalf("conflict must not classify as schema error: %v", err)
	}
}

func TestGetShareDistinguishesMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.GetShare(context.Background(), reportA); !errors.Is(err, ErrNoShare) {
		t.Fatalf("expected ErrNoShare, got %v", err)
	}
}

func TestDeleteShareScopedToCreator(t *testing.T) {
	s := openTestStore(t)
	seedReport(t, s, reportA, "alice")
	if _, err := s.UpsertShare(context.Background(), reportA, "alice", "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}
	if err := s.DeleteShare(context.Background(), "mallory", reportA); !errors.Is(err, ErrNoShare) {
		t.Fatalf("expected scoped delete to miss, got %v", err)
	}
	if err := s.DeleteShare(context.Background(), "alice", reportA); err != nil {
		t.Fatalf("DeleteShare as creator: %v", err)
	}
	if _, err := s.GetShare(context.Background(), reportA); !errors.Is(err, ErrNoShare) {
		t.Fatalf("expected share gone, got %v", err)
	}
}

func TestGetSharedReportExpiry(t *testing.T) {
	s := openTestStore(t)
	seedReport(t, s, reportA, "alice")
	if _, err := s.UpsertShare(context.Background(), reportA, "alice", "tok", time.Now().Add(time.Hour)); err != nil {
		t.Fatalf("UpsertShare: %v", err)
	}

	if _, err := s.GetSharedReport(context.Background(), "tok", time.Now()); err != nil {
		t.Fatalf("GetSharedReport before expiry: %v", err)
	}
	if _, err := s.GetSharedReport(context.Background(), "tok", time.Now().Add(2*time.Hour)); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired share to read as not found, got %v", err)
	}
	if _, err := s.GetSharedReport(context.Background(), "bogus", time.Now()); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected unknown token to read as not found, got %v", err)
	}
}

func TestShareEventCounting(t *testing.T) {
	s := openTestStore(t)
	now := time.Now()
	for i := 0; i < 3; i++ {
		if err := s.RecordShareEvent(context.Background(), "alice", now.Add(time.Duration(-i)*time.Minute)); err != nil {
			t.Fatalf("RecordShareEvent: %v", err)
		}
	}
	if err := s.RecordShareEvent(context.Background(), "alice", now.Add(-2*time.Hour)); err != nil {
		t.Fatalf("RecordShareEvent old: %v", err)
	}
	n, err := s.CountShareEvents(context.Background(), "alice", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountShareEvents: %v", err)
	}
	if n != 3 {
		t.Fatalf("expected 3 events inside the window, got %d", n)
	}
	n, err = s.CountShareEvents(context.Background(), "bob", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("CountShareEvents other user: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected 0 events for other user, got %d", n)
	}
}
