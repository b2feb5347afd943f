package handlers

import (
	"net/http"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"photofilter/internal/domain"
	"photofilter/internal/middleware"
)

var indonesianStyleLabels = map[domain.Style]string{
	domain.StyleCartoon:    "kartun",
	domain.StyleAnime:      "anime",
	domain.StyleCyberpunk:  "cyberpunk",
	domain.StyleWatercolor: "cat air",
	domain.StyleOldPhoto:   "foto lama",
}

type styleItem struct {
	ID    string `json:"id"`
	Label string `json:"label"`
}

type stylesResponse struct {
	Locale string      `json:"locale"`
	Styles []styleItem `json:"styles"`
}

// styleLabel renders a human label for style in locale.
func styleLabel(style domain.Style, locale string) string {
	tag := language.English
	raw := strings.ReplaceAll(string(style), "-", " ")
	if locale == "id" {
		tag = language.Indonesian
		if label, ok := indonesianStyleLabels[style]; ok {
			raw = label
		}
	}
	return cases.Title(tag).String(raw)
}

// Styles lists the accepted filter types with localized labels.
func (a *App) Styles(w http.ResponseWriter, r *http.Request) {
	locale := middleware.LocaleFromContext(r.Context())
	items := make([]styleItem, 0, len(domain.Styles))
	for _, style := range domain.Styles {
		items = append(items, styleItem{ID: string(style), Label: styleLabel(style, locale)})
	}
	a.json(w, http.StatusOK, stylesResponse{Locale: locale, Styles: items})
}
