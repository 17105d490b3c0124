package logging

import (
	"testing"

	"github.com/btcsuite/btclog"
)

func TestLoggerReturnsSameInstancePerTag(t *testing.T) {
	if Logger(Mempool) != Logger(Mempool) {
		t.Fatal("Logger should return the same logger instance for the same tag")
	}
}

func TestLoggerUnknownTagReturnsDisabled(t *testing.T) {
	if Logger("NOPE") != btclog.Disabled {
		t.Fatal("Logger should return the disabled logger for an unknown tag")
	}
}

func TestParseAndSetDebugLevelsBareLevel(t *testing.T) {
	if err := ParseAndSetDebugLevels("debug"); err != nil {
		t.Fatalf("ParseAndSetDebugLevels: %v", err)
	}
	if Logger(Mempool).Level() != btclog.LevelDebug {
		t.Fatalf("Mempool level = %v, want debug", Logger(Mempool).Level())
	}
	if Logger(Broadcast).Level() != btclog.LevelDebug {
		t.Fatalf("Broadcast level = %v, want debug", Logger(Broadcast).Level())
	}
}

func TestParseAndSetDebugLevelsPerSubsystem(t *testing.T) {
	if err := ParseAndSetDebugLevels("MEMP=trace,BCST=warn"); err != nil {
		t.Fatalf("ParseAndSetDebugLevels: %v", err)
	}
	if Logger(Mempool).Level() != btclog.LevelTrace {
		t.Fatalf("Mempool level = %v, want trace", Logger(Mempool).Level())
	}
	if Logger(Broadcast).Level() != btclog.LevelWarn {
		t.Fatalf("Broadcast level = %v, want warn", Logger(Broadcast).Level())
	}
}

func TestParseAndSetDebugLevelsRejectsUnknownSubsystem(t *testing.T) {
	if err := ParseAndSetDebugLevels("NOPE=debug"); err == nil {
		t.Fatal("expected an error for an unknown subsystem")
	}
}

func TestParseAndSetDebugLevelsRejectsInvalidLevel(t *testing.T) {
	if err := ParseAndSetDebugLevels("not-a-level"); err == nil {
		t.Fatal("expected an error for an invalid level")
	}
}

func TestSupportedSubsystemsIncludesEveryTag(t *testing.T) {
	tags := SupportedSubsystems()
	want := []string{Broadcast, Config, Mempool, RPCClient, Template}
	if len(tags) != len(want) {
		t.Fatalf("SupportedSubsystems returned %v, want %v", tags, want)
	}
	for i := range want {
		if tags[i] != want[i] {
			t.Fatalf("SupportedSubsystems returned %v, want %v", tags, want)
		}
	}
}
