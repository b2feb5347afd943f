package domain

import (
	"fmt"
	"strings"
)

// Style enumerates the supported transformation styles.
type Style string

const (
	StyleCartoon    Style = "cartoon"
	StyleAnime      Style = "anime"
	StyleCyberpunk  Style = "cyberpunk"
	StyleWatercolor Style = "watercolor"
	StyleOldPhoto   Style = "old-photo"
)

// Styles lists every style in presentation order.
var Styles = []Style{StyleCartoon, StyleAnime, StyleCyberpunk, StyleWatercolor, StyleOldPhoto}

// Valid reports whether s is one of the enumerated styles.
func (s Style) Valid() bool {
	for _, known := range Styles {
		if s == known {
			return true
		}
	}
	return false
}

// ParseStyle validates a user supplied selector.
func ParseStyle(raw string) (Style, error) {
	style := Style(strings.TrimSpace(raw))
	if style == "" {
		return "", fmt.Errorf("%w: filter type is required", ErrInvalidInput)
	}
	if !style.Valid() {
		return "", fmt.Errorf("%w: invalid filter type %q", ErrInvalidInput, raw)
	}
	return style, nil
}
