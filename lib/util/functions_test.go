package util

import "testing"

func TestHashStringDeterministic(t *testing.T) {
	if HashString("key", 0) != HashString("key", 0) {
		t.Fatal("hash of equal input differs")
	}
	if HashString("key", 0) == HashString("key", 1) {
		t.Error("seed has no effect on the hash")
	}
}

func TestPartitionID(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		count int32
	}{
		{"single partition", "a", 1},
		{"default count", "some-key", 271},
		{"empty key", "", 16},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := PartitionID(tt.key, tt.count)
			if p < 0 || p >= tt.count {
				t.Fatalf("partition %d out of range [0,%d)", p, tt.count)
			}
			if p != PartitionID(tt.key, tt.count) {
				t.Error("partition id is not stable")
			}
		})
	}

	if p := PartitionID("a", 0); p != -1 {
		t.Errorf("expected -1 for disabled partitioning, got %d", p)
	}
}
