package geocoding

import (
	"strings"
	"unicode"
)

// Address is the structured address breakdown returned by a reverse lookup.
type Address struct {
	Neighbourhood string `json:"neighbourhood"`
	Hamlet        string `json:"hamlet"`
	Locality      string `json:"locality"`
	District      string `json:"district"`
	Subdistrict   string `json:"subdistrict"`
	CityDistrict  string `json:"city_district"`
	Suburb        string `json:"suburb"`
	Quarter       string `json:"quarter"`
	City          string `json:"city"`
	Town          string `json:"town"`
	Village       string `json:"village"`
	State         string `json:"state"`
	Province      string `json:"province"`
	Country       string `json:"country"`
	Postcode      string `json:"postcode"`
}

// Place is a reverse-geocoded location: the provider's free-text display
// string plus its structured address record.
type Place struct {
	DisplayName string  `json:"display_name"`
	Address     Address `json:"address"`
}

// maxDisplayLabel bounds the raw display string when nothing better is
// available.
const maxDisplayLabel = 35

// streetSuffixes marks display-string segments that name a street rather
// than an area; such segments never make a useful micro-location label.
var streetSuffixes = map[string]bool{
	"st": true, "street": true, "rd": true, "road": true,
	"ave": true, "avenue": true, "dr": true, "drive": true,
	"ln": true, "lane": true, "blvd": true, "boulevard": true,
	"way": true, "cres": true, "crescent": true, "close": true,
}

// FormatLabel produces the best short "micro-location, city" label for a
// place. Structured fields are tried first in specificity order; the
// free-text display string is parsed only when no structured field yields
// a usable label.
func FormatLabel(place *Place) string {
	if place == nil {
		return ""
	}

	micro := firstNonEmpty(
		place.Address.Neighbourhood, place.Address.Hamlet, place.Address.Locality,
	)
	if micro == "" {
		micro = firstNonEmpty(
			place.Address.District, place.Address.Subdistrict, place.Address.CityDistrict,
		)
	}
	if micro == "" {
		micro = firstNonEmpty(place.Address.Suburb, place.Address.Quarter)
	}

	city := firstNonEmpty(place.Address.City, place.Address.Town, place.Address.Village)

	switch {
	case micro != "" && city != "" && !strings.EqualFold(micro, city):
		return micro + ", " + city
	case micro != "":
		return micro
	case city != "":
		return city
	}

	return labelFromDisplayName(place.DisplayName)
}

// labelFromDisplayName extracts a two-part label from a comma-separated
// display string: the most specific area-like segment paired with the next
// broader one. House numbers, street names and trailing region/country
// segments are skipped.
func labelFromDisplayName(display string) string {
	display = strings.TrimSpace(display)
	if display == "" {
		return ""
	}

	segments := strings.Split(display, ",")
	for i := range segments {
		segments[i] = strings.TrimSpace(segments[i])
	}

	// The display string runs specific to broad; the tail holds state and
	// country noise when enough segments are present.
	usable := segments
	if len(segments) >= 4 {
		usable = segments[:len(segments)-2]
	}

	var candidates []string
	for _, seg := range usable {
		if isAreaSegment(seg) {
			candidates = append(candidates, seg)
		}
	}

	if len(candidates) >= 2 {
		return candidates[0] + ", " + candidates[1]
	}
	if len(candidates) == 1 {
		return candidates[0]
	}

	return truncateLabel(display)
}

// isAreaSegment reports whether a display-string segment plausibly names an
// area: longer than two characters, free of digits, and not a street name.
func isAreaSegment(seg string) bool {
	if len([]rune(seg)) <= 2 {
		return false
	}
	for _, r := range seg {
		if unicode.IsDigit(r) {
			return false
		}
	}
	words := strings.Fields(strings.ToLower(seg))
	if len(words) == 0 {
		return false
	}
	return !streetSuffixes[strings.TrimSuffix(words[len(words)-1], ".")]
}

func truncateLabel(display string) string {
	runes := []rune(display)
	if len(runes) <= maxDisplayLabel {
		return display
	}
	return string(runes[:maxDisplayLabel]) + "…"
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}
