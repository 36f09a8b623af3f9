package monitor

import (
	"fmt"
	"time"
)

// Window selects how far back the aggregator looks
type Window string

// Supported windows
const (
	Window1h  Window = "1h"
	Window3h  Window = "3h"
	Window6h  Window = "6h"
	Window12h Window = "12h"
	Window24h Window = "24h"
	WindowAll Window = "all"
)

// DefaultWindow is the window selected when none is configured
const DefaultWindow = Window3h

var windowHours = map[Window]int{
	Window1h:  1,
	Window3h:  3,
	Window6h:  6,
	Window12h: 12,
	Window24h: 24,
}

// Windows lists every window in display order
var Windows = []Window{Window1h, Window3h, Window6h, Window12h, Window24h, WindowAll}

// ParseWindow validates a window name
func ParseWindow(s string) (Window, error) {
	w := Window(s)
	if w == WindowAll {
		return w, nil
	}
	if _, ok := windowHours[w]; ok {
		return w, nil
	}
	return "", fmt.Errorf("invalid time window %q (expected 1h, 3h, 6h, 12h, 24h or all)", s)
}

// Duration returns the window length. The second result is false for the
// unbounded "all" window.
func (w Window) Duration() (time.Duration, bool) {
	hours, ok := windowHours[w]
	if !ok {
		return 0, false
	}
	return time.Duration(hours) * time.Hour, true
}

// Label is the human readable name of the window
func (w Window) Label() string {
	switch w {
	case WindowAll:
		return "All time"
	case Window1h:
		return "Last hour"
	default:
		return fmt.Sprintf("Last %d hours", windowHours[w])
	}
}

// ViewMode restricts which endpoints are aggregated
type ViewMode string

// Supported view modes
const (
	ViewAll        ViewMode = "all"
	ViewActiveTabs ViewMode = "active-tabs"
)

// ParseViewMode validates a view mode name
func ParseViewMode(s string) (ViewMode, error) {
	switch ViewMode(s) {
	case ViewAll, ViewActiveTabs:
		return ViewMode(s), nil
	}
	return "", fmt.Errorf("invalid view mode %q (expected all or active-tabs)", s)
}
