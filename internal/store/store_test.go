package store

import (
	"path/filepath"
	"testing"
	"time"
)

func TestSQLiteStore(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "steamrec.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	defer s.Close()

	t.Run("Calls", func(t *testing.T) {
		first := &Call{
			Kind:      "load_catalog",
			SteamID:   "76561198000000001",
			Outcome:   "succeeded",
			Message:   "Loaded 10 games.",
			ItemCount: 10,
			ElapsedMS: 42,
			Detail:    map[string]string{"service": "stub"},
		}
		if err := s.RecordCall(first); err != nil {
			t.Fatalf("RecordCall failed: %v", err)
		}
		if first.ID == 0 {
			t.Error("Expected RecordCall to assign an id")
		}
		if first.RecordedAt.IsZero() {
			t.Error("Expected RecordCall to stamp the time")
		}

		second := &Call{Kind: "get_recommendations", SteamID: "76561198000000001", Outcome: "failed", Message: "profile is private"}
		if err := s.RecordCall(second); err != nil {
			t.Fatalf("RecordCall failed: %v", err)
		}
		other := &Call{Kind: "load_catalog", SteamID: "76561198000000002", Outcome: "succeeded", RecordedAt: time.Now()}
		if err := s.RecordCall(other); err != nil {
			t.Fatalf("RecordCall failed: %v", err)
		}

		list, err := s.ListCalls(2)
		if err != nil {
			t.Fatalf("ListCalls failed: %v", err)
		}
		if len(list) != 2 {
			t.Fatalf("Expected 2 calls, got %d", len(list))
		}
		if list[0].ID != other.ID || list[1].ID != second.ID {
			t.Errorf("Expected newest first, got ids %d, %d", list[0].ID, list[1].ID)
		}
		if list[1].Message != "profile is private" {
			t.Errorf("Expected message to round trip, got %q", list[1].Message)
		}

		all, _ := s.ListCalls(0)
		if len(all) != 3 {
			t.Errorf("Expected default limit to cover all 3 calls, got %d", len(all))
		}
		oldest := all[2]
		if oldest.Detail["service"] != "stub" || oldest.ItemCount != 10 || oldest.ElapsedMS != 42 {
			t.Errorf("Unexpected oldest call %+v", oldest)
		}

		mine, err := s.ListCallsFor("76561198000000001", 10)
		if err != nil {
			t.Fatalf("ListCallsFor failed: %v", err)
		}
		if len(mine) != 2 {
			t.Errorf("Expected 2 calls for the account, got %d", len(mine))
		}
	})

	t.Run("Config", func(t *testing.T) {
		if err := s.SetConfig("k1", "v1"); err != nil {
			t.Fatalf("SetConfig failed: %v", err)
		}
		if err := s.SetConfig("k1", "v2"); err != nil {
			t.Fatalf("SetConfig overwrite failed: %v", err)
		}

		val, err := s.GetConfig("k1")
		if err != nil {
			t.Fatalf("GetConfig failed: %v", err)
		}
		if val != "v2" {
			t.Errorf("Expected 'v2', got '%s'", val)
		}

		val2, _ := s.GetConfig("unknown")
		if val2 != "" {
			t.Errorf("Expected empty string for unknown config, got '%s'", val2)
		}

		s.SetConfig("a0", "x")
		keys, err := s.ConfigKeys()
		if err != nil {
			t.Fatalf("ConfigKeys failed: %v", err)
		}
		if len(keys) != 2 || keys[0] != "a0" || keys[1] != "k1" {
			t.Errorf("Expected sorted keys [a0 k1], got %v", keys)
		}
	})
}

func TestSQLiteStore_Reopen(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "steamrec.db")

	s, err := NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to create store: %v", err)
	}
	s.SetConfig("environment", "deployed")
	s.RecordCall(&Call{Kind: "load_catalog", Outcome: "succeeded"})
	s.Close()

	s, err = NewSQLiteStore(dbPath)
	if err != nil {
		t.Fatalf("Failed to reopen store: %v", err)
	}
	defer s.Close()

	if v, _ := s.GetConfig("environment"); v != "deployed" {
		t.Errorf("Expected config to persist, got %q", v)
	}
	if calls, _ := s.ListCalls(10); len(calls) != 1 {
		t.Errorf("Expected call log to persist, got %d", len(calls))
	}
}

func TestSQLiteStore_Memory(t *testing.T) {
	s, err := NewSQLiteStore(":memory:")
	if err != nil {
		t.Fatalf("Failed to create in-memory store: %v", err)
	}
	defer s.Close()

	if err := s.SetConfig("k", "v"); err != nil {
		t.Fatalf("SetConfig failed: %v", err)
	}
	if v, _ := s.GetConfig("k"); v != "v" {
		t.Errorf("Expected 'v', got %q", v)
	}
}
