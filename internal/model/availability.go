package model

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// AvailabilitySlot is one hour-long cell of a tutor's recurring weekly
// template.  Times are local wall-clock strings ("HH:MM"); day_of_week uses
// 0=Sunday through 6=Saturday.
type AvailabilitySlot struct {
	DayOfWeek      int    `json:"day_of_week"`
	StartTimeLocal string `json:"start_time_local"`
	EndTimeLocal   string `json:"end_time_local"`
}

// SlotKey renders the "dow-HH:MM" key the weekly grid is addressed by.
func (s AvailabilitySlot) SlotKey() string {
	return fmt.Sprintf("%d-%s", s.DayOfWeek, s.StartTimeLocal)
}

var slotTimeRe = regexp.MustCompile(`^\d{1,2}:\d{2}$`)

// ParseSlotKey parses a "dow-HH:MM" grid key into an hour-long slot.  Keys
// with an out-of-range day or a malformed time are rejected.
func ParseSlotKey(key string) (AvailabilitySlot, error) {
	dayStr, timeStr, found := strings.Cut(key, "-")
	if !found {
		return AvailabilitySlot{}, fmt.Errorf("malformed slot key %q", key)
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 0 || day > 6 {
		return AvailabilitySlot{}, fmt.Errorf("invalid day of week in slot key %q", key)
	}
	if !slotTimeRe.MatchString(timeStr) {
		return AvailabilitySlot{}, fmt.Errorf("invalid time in slot key %q", key)
	}
	parts := strings.SplitN(timeStr, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return AvailabilitySlot{}, fmt.Errorf("invalid hour in slot key %q", key)
	}
	minute, err := strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return AvailabilitySlot{}, fmt.Errorf("invalid minutes in slot key %q", key)
	}
	start := fmt.Sprintf("%02d:%s", hour, parts[1])
	end := fmt.Sprintf("%02d:00", (hour+1)%24)
	return AvailabilitySlot{DayOfWeek: day, StartTimeLocal: start, EndTimeLocal: end}, nil
}
