package geocoding_test

import (
	"strings"
	"testing"

	"github.com/peerrent/compass/internal/geocoding"
	"github.com/stretchr/testify/assert"
)

func TestFormatLabel_StructuredFields(t *testing.T) {
	t.Parallel()

	t.Run("neighbourhood wins over suburb", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			Address: geocoding.Address{
				Neighbourhood: "Rivonia",
				Suburb:        "Sandton",
				City:          "Johannesburg",
			},
		}
		assert.Equal(t, "Rivonia, Johannesburg", geocoding.FormatLabel(place))
	})

	t.Run("suburb paired with city when nothing more specific", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			Address: geocoding.Address{Suburb: "Sandton", City: "Johannesburg"},
		}
		assert.Equal(t, "Sandton, Johannesburg", geocoding.FormatLabel(place))
	})

	t.Run("district tier beats suburb tier", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			Address: geocoding.Address{
				CityDistrict: "Centurion",
				Suburb:       "Irene",
				City:         "Pretoria",
			},
		}
		assert.Equal(t, "Centurion, Pretoria", geocoding.FormatLabel(place))
	})

	t.Run("city omitted when identical to micro location", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			Address: geocoding.Address{Locality: "Soweto", City: "soweto"},
		}
		assert.Equal(t, "Soweto", geocoding.FormatLabel(place))
	})

	t.Run("town used when no micro location", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			Address: geocoding.Address{Town: "Clarens"},
		}
		assert.Equal(t, "Clarens", geocoding.FormatLabel(place))
	})
}

func TestFormatLabel_DisplayNameFallback(t *testing.T) {
	t.Parallel()

	t.Run("picks specific area segments over street and region noise", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			DisplayName: "12, Oak St, Rivonia, Sandton, Johannesburg, Gauteng, South Africa",
		}
		assert.Equal(t, "Rivonia, Sandton", geocoding.FormatLabel(place))
	})

	t.Run("single usable segment stands alone", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{DisplayName: "Knysna, 6571, Western Cape, South Africa"}
		assert.Equal(t, "Knysna", geocoding.FormatLabel(place))
	})

	t.Run("truncates when nothing qualifies", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{
			DisplayName: "1 2 3 4 5 6 7 8 9 10 11 12 13 14 15 16 17 18 19 20",
		}
		label := geocoding.FormatLabel(place)
		assert.True(t, strings.HasSuffix(label, "…"))
		assert.Len(t, []rune(label), 36)
	})

	t.Run("short display string returned as is", func(t *testing.T) {
		t.Parallel()
		place := &geocoding.Place{DisplayName: "N1, 99"}
		assert.Equal(t, "N1, 99", geocoding.FormatLabel(place))
	})

	t.Run("empty place", func(t *testing.T) {
		t.Parallel()
		assert.Empty(t, geocoding.FormatLabel(&geocoding.Place{}))
		assert.Empty(t, geocoding.FormatLabel(nil))
	})
}
