package store

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestWriteReadResolution(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	want := Resolution{Fragment: "anna", MaxResults: 5, AccountIDs: []string{"a1", "a2"}, ResolvedAt: testTime}
	if err := s.WriteResolution(ctx, want); err != nil {
		t.Fatalf("WriteResolution() failed: %v", err)
	}

	got, err := s.ReadResolution(ctx, "anna", 5)
	if err != nil {
		t.Fatalf("ReadResolution() failed: %v", err)
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("ReadResolution() mismatch (-want +got):\n%s", diff)
	}
}

func TestReadResolution_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.ReadResolution(context.Background(), "nobody", 5)
	if !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadResolution() error = %v, want sql.ErrNoRows", err)
	}
}

func TestReadResolution_KeyIncludesLimit(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteResolution(ctx, Resolution{Fragment: "anna", MaxResults: 5, AccountIDs: []string{"a1"}, ResolvedAt: testTime}); err != nil {
		t.Fatalf("WriteResolution() failed: %v", err)
	}
	if _, err := s.ReadResolution(ctx, "anna", 25); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadResolution(limit 25) error = %v, want sql.ErrNoRows", err)
	}
}

func TestWriteResolution_Replaces(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first := Resolution{Fragment: "anna", MaxResults: 5, AccountIDs: []string{"old"}, ResolvedAt: testTime}
	second := Resolution{Fragment: "anna", MaxResults: 5, AccountIDs: []string{"new"}, ResolvedAt: testTime.Add(time.Hour)}
	for _, r := range []Resolution{first, second} {
		if err := s.WriteResolution(ctx, r); err != nil {
			t.Fatalf("WriteResolution() failed: %v", err)
		}
	}

	got, err := s.ReadResolution(ctx, "anna", 5)
	if err != nil {
		t.Fatalf("ReadResolution() failed: %v", err)
	}
	if diff := cmp.Diff(second, got); diff != "" {
		t.Errorf("ReadResolution() mismatch (-want +got):\n%s", diff)
	}

	n, err := s.Count(ctx)
	if err != nil {
		t.Fatalf("Count() failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Count() = %d, want 1", n)
	}
}

func TestWriteResolution_EmptyIDs(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteResolution(ctx, Resolution{Fragment: "ghost", MaxResults: 5, ResolvedAt: testTime}); err != nil {
		t.Fatalf("WriteResolution() failed: %v", err)
	}
	got, err := s.ReadResolution(ctx, "ghost", 5)
	if err != nil {
		t.Fatalf("ReadResolution() failed: %v", err)
	}
	if got.AccountIDs == nil || len(got.AccountIDs) != 0 {
		t.Errorf("AccountIDs = %#v, want empty non-nil slice", got.AccountIDs)
	}
}

func TestReadAllResolutions_Ordered(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for _, r := range []Resolution{
		{Fragment: "bob", MaxResults: 5, ResolvedAt: testTime},
		{Fragment: "anna", MaxResults: 25, ResolvedAt: testTime},
		{Fragment: "anna", MaxResults: 5, ResolvedAt: testTime},
		{Fragment: "Zed", MaxResults: 5, ResolvedAt: testTime},
	} {
		if err := s.WriteResolution(ctx, r); err != nil {
			t.Fatalf("WriteResolution() failed: %v", err)
		}
	}

	all, err := s.ReadAllResolutions(ctx)
	if err != nil {
		t.Fatalf("ReadAllResolutions() failed: %v", err)
	}
	var keys []string
	for _, r := range all {
		keys = append(keys, r.Fragment)
	}
	// BINARY collation sorts upper case first
	want := []string{"Zed", "anna", "anna", "bob"}
	if diff := cmp.Diff(want, keys); diff != "" {
		t.Errorf("order mismatch (-want +got):\n%s", diff)
	}
	if all[1].MaxResults != 5 || all[2].MaxResults != 25 {
		t.Errorf("max_results order = %d, %d, want 5, 25", all[1].MaxResults, all[2].MaxResults)
	}
}

func TestReadAllResolutions_Empty(t *testing.T) {
	s := createTestStore(t)

	all, err := s.ReadAllResolutions(context.Background())
	if err != nil {
		t.Fatalf("ReadAllResolutions() failed: %v", err)
	}
	if all == nil || len(all) != 0 {
		t.Errorf("ReadAllResolutions() = %#v, want empty non-nil slice", all)
	}
}

func TestDeleteResolution(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.WriteResolution(ctx, Resolution{Fragment: "anna", MaxResults: 5, ResolvedAt: testTime}); err != nil {
		t.Fatalf("WriteResolution() failed: %v", err)
	}
	if err := s.DeleteResolution(ctx, "anna", 5); err != nil {
		t.Fatalf("DeleteResolution() failed: %v", err)
	}
	if err := s.DeleteResolution(ctx, "anna", 5); err != nil {
		t.Fatalf("second DeleteResolution() failed: %v", err)
	}
	if _, err := s.ReadResolution(ctx, "anna", 5); !errors.Is(err, sql.ErrNoRows) {
		t.Errorf("ReadResolution() error = %v, want sql.ErrNoRows", err)
	}
}

func TestPurge(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	for i, frag := range []string{"a", "b", "c"} {
		r := Resolution{Fragment: frag, MaxResults: 5, ResolvedAt: testTime.Add(time.Duration(i) * time.Hour)}
		if err := s.WriteResolution(ctx, r); err != nil {
			t.Fatalf("WriteResolution() failed: %v", err)
		}
	}

	n, err := s.Purge(ctx, testTime.Add(90*time.Minute))
	if err != nil {
		t.Fatalf("Purge() failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Purge() removed %d, want 2", n)
	}

	all, err := s.ReadAllResolutions(ctx)
	if err != nil {
		t.Fatalf("ReadAllResolutions() failed: %v", err)
	}
	if len(all) != 1 || all[0].Fragment != "c" {
		t.Errorf("remaining = %#v, want only c", all)
	}
}
