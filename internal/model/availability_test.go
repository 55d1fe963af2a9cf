package model

import "testing"

func TestParseSlotKey(t *testing.T) {
	cases := []struct {
		key       string
		wantDay   int
		wantStart string
		wantEnd   string
	}{
		{"1-09:00", 1, "09:00", "10:00"},
		{"0-00:00", 0, "00:00", "01:00"},
		{"6-23:00", 6, "23:00", "00:00"},
		{"3-9:30", 3, "09:30", "10:00"},
	}
	for _, tc := range cases {
		slot, err := ParseSlotKey(tc.key)
		if err != nil {
			t.Fatalf("ParseSlotKey(%q) error = %v", tc.key, err)
		}
		if slot.DayOfWeek != tc.wantDay || slot.StartTimeLocal != tc.wantStart || slot.EndTimeLocal != tc.wantEnd {
			t.Fatalf("ParseSlotKey(%q) = %+v, want day=%d start=%s end=%s",
				tc.key, slot, tc.wantDay, tc.wantStart, tc.wantEnd)
		}
	}
}

func TestParseSlotKeyRejectsMalformed(t *testing.T) {
	bad := []string{
		"",
		"monday-09:00",
		"7-09:00",
		"-1-09:00",
		"2_09:00",
		"2-25:00",
		"2-09",
		"2-09:0a",
		"1-10:99",
		"2-09:60",
	}
	for _, key := range bad {
		if _, err := ParseSlotKey(key); err == nil {
			t.Fatalf("ParseSlotKey(%q) accepted a malformed key", key)
		}
	}
}

func TestSlotKeyRoundTrip(t *testing.T) {
	slot, err := ParseSlotKey("4-14:00")
	if err != nil {
		t.Fatalf("ParseSlotKey error = %v", err)
	}
	if got := slot.SlotKey(); got != "4-14:00" {
		t.Fatalf("SlotKey() = %q, want %q", got, "4-14:00")
	}
}
