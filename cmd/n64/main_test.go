package main

import "testing"

func TestNewLoggerAcceptsEveryZapLevel(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		if _, err := newLogger(level); err != nil {
			t.Fatalf("newLogger(%q) = %v, want nil error", level, err)
		}
	}
}

func TestNewLoggerRejectsUnknownLevel(t *testing.T) {
	if _, err := newLogger("verbose"); err == nil {
		t.Fatal("expected an error for an unrecognized log level")
	}
}

func TestRootCommandRejectsWrongArgCount(t *testing.T) {
	cmd := newRootCommand()

	if err := cmd.Args(cmd, []string{"only-one-arg"}); err == nil {
		t.Fatal("expected an error for fewer than 3 positional arguments")
	}
	if err := cmd.Args(cmd, []string{"boot.rom", "pif.rom", "cart.z64"}); err != nil {
		t.Fatalf("Args rejected exactly 3 positional arguments: %v", err)
	}
}

func TestRootCommandDefaultsHeadlessToFalse(t *testing.T) {
	cmd := newRootCommand()
	if v, err := cmd.Flags().GetBool("headless"); err != nil || v {
		t.Fatalf("headless default = %v, %v, want false, nil", v, err)
	}
}
