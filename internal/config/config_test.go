package config

import "testing"

func TestLoadWithNoPathReturnsDefaults(t *testing.T) {
	cfg, err := Load("", nil)
	if err != nil {
		t.Fatal(err)
	}
	want := Default()
	if cfg != want {
		t.Fatalf("cfg = %+v, want %+v", cfg, want)
	}
}

func TestLoadRejectsNonPositiveRatio(t *testing.T) {
	bad := Config{Quantum: 4096, MicroRatio: 0, ScalarRatio: 6, SignalRatio: 3, LogLevel: "info"}
	if err := bad.validate(); err == nil {
		t.Fatal("expected validation error for zero ratio")
	}
}

func TestLoadRejectsNonPositiveQuantum(t *testing.T) {
	bad := Config{Quantum: 0, MicroRatio: 1, ScalarRatio: 6, SignalRatio: 3, LogLevel: "info"}
	if err := bad.validate(); err == nil {
		t.Fatal("expected validation error for zero quantum")
	}
}
