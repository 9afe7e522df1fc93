package presenters

import (
	"time"
)

func PresentTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}
	return t.Round(time.Microsecond)
}

func PresentTimePtr(t *time.Time) *time.Time {
	if t == nil || t.IsZero() {
		return nil
	}
	rounded := PresentTime(*t)
	return &rounded
}
