package config

import (
	"strings"
	"testing"
)

func TestDefaultDataDirNotEmpty(t *testing.T) {
	dir := DefaultDataDir()
	if dir == "" {
		t.Fatalf("empty data dir")
	}
	if !strings.Contains(strings.ToLower(dir), "hexbolt") && dir != "./data" {
		t.Fatalf("unexpected data dir: %s", dir)
	}
}
