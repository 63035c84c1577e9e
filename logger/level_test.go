package logger

import "testing"

func TestLevelFromString(t *testing.T) {
	tests := []struct {
		input         string
		expectedLevel Level
		expectedOk    bool
	}{
		{"trace", LevelTrace, true},
		{"TRC", LevelTrace, true},
		{"Debug", LevelDebug, true},
		{"info", LevelInfo, true},
		{"wrn", LevelWarn, true},
		{"error", LevelError, true},
		{"critical", LevelCritical, true},
		{"off", LevelOff, true},
		{"verbose", LevelInfo, false},
		{"", LevelInfo, false},
	}

	for _, test := range tests {
		level, ok := LevelFromString(test.input)
		if level != test.expectedLevel || ok != test.expectedOk {
			t.Errorf("TestLevelFromString: %q: expected (%v, %v), got (%v, %v)",
				test.input, test.expectedLevel, test.expectedOk, level, ok)
		}
	}
}

func TestLevelString(t *testing.T) {
	tests := []struct {
		level       Level
		expectedTag string
	}{
		{LevelTrace, "TRC"},
		{LevelDebug, "DBG"},
		{LevelInfo, "INF"},
		{LevelWarn, "WRN"},
		{LevelError, "ERR"},
		{LevelCritical, "CRT"},
		{LevelOff, "OFF"},
		{Level(42), "OFF"},
	}

	for _, test := range tests {
		if tag := test.level.String(); tag != test.expectedTag {
			t.Errorf("TestLevelString: level %d: expected %q, got %q",
				test.level, test.expectedTag, tag)
		}
	}
}
