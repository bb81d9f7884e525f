package util

import "testing"

func TestParseBoolEnv(t *testing.T) {
	tests := []struct {
		value        string
		defaultValue bool
		want         bool
	}{
		{"true", false, true},
		{"TRUE", false, true},
		{"1", false, true},
		{"yes", false, true},
		{"on", false, true},
		{"false", true, false},
		{"0", true, false},
		{"no", true, false},
		{"off", true, false},
		{" true ", false, true},
		{"banana", true, true},
		{"banana", false, false},
	}
	for _, tt := range tests {
		t.Setenv("FREELIAO_TEST_BOOL", tt.value)
		if got := ParseBoolEnv("FREELIAO_TEST_BOOL", tt.defaultValue); got != tt.want {
			t.Errorf("ParseBoolEnv(%q, default=%v) = %v, want %v", tt.value, tt.defaultValue, got, tt.want)
		}
	}
}

func TestParseBoolEnvUnset(t *testing.T) {
	if got := ParseBoolEnv("FREELIAO_TEST_BOOL_UNSET", true); got != true {
		t.Error("ParseBoolEnv unset = false, want default true")
	}
	if got := ParseBoolEnv("FREELIAO_TEST_BOOL_UNSET", false); got != false {
		t.Error("ParseBoolEnv unset = true, want default false")
	}
}
