package storage

import (
	"strings"
	"time"
)

// ShiftMinutes is the length of every shift.
const ShiftMinutes = 480

type Shift string

const (
	ShiftNight   Shift = "NOT"
	ShiftMorning Shift = "MAT"
	ShiftEvening Shift = "VES"
)

var shiftStartHour = map[Shift]int{
	ShiftNight:   0,
	ShiftMorning: 8,
	ShiftEvening: 16,
}

// ShiftOf returns the shift the wall-clock time t falls into.
func ShiftOf(t time.Time) Shift {
	switch h := t.Hour(); {
	case h < 8:
		return ShiftNight
	case h < 16:
		return ShiftMorning
	default:
		return ShiftEvening
	}
}

// ParseShift accepts the codes stored by the machines and the english names.
func ParseShift(s string) Shift {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "NOT", "NOITE", "NIGHT":
		return ShiftNight
	case "MAT", "MATUTINO", "MANHA", "MANHÃ", "MORNING":
		return ShiftMorning
	case "VES", "VESPERTINO", "TARDE", "EVENING":
		return ShiftEvening
	}
	return ""
}

func (s Shift) Valid() bool {
	_, ok := shiftStartHour[s]
	return ok
}

// Start returns the moment the shift begins on the calendar day of date.
func (s Shift) Start(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, shiftStartHour[s], 0, 0, 0, date.Location())
}

// End returns the shift boundary. The evening shift ends at midnight of the next day.
func (s Shift) End(date time.Time) time.Time {
	return s.Start(date).Add(ShiftMinutes * time.Minute)
}

// Day truncates t to local midnight.
func Day(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func SameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// Hour is the hour of day the shift starts at. It also orders shifts within a day.
func (s Shift) Hour() int {
	return shiftStartHour[s]
}
