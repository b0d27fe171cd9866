package language

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

var euLanguages = []string{
	"bg", "hr", "cs", "da", "nl", "en", "et", "fi",
	"fr", "de", "el", "hu", "ga", "it", "lv", "lt",
	"mt", "pl", "pt", "ro", "sk", "sl", "es", "sv",
}

func TestDetectEnglish(t *testing.T) {
	got := Detect("what is the carbon border adjustment mechanism for the european union", euLanguages, "en")
	assert.Equal(t, "en", got)
}

func TestDetectFrench(t *testing.T) {
	got := Detect("comment le mécanisme d'ajustement carbone aux frontières fonctionne pour les importateurs", euLanguages, "en")
	assert.Equal(t, "fr", got)
}

func TestDetectGerman(t *testing.T) {
	got := Detect("wie funktioniert der CO2-Grenzausgleichsmechanismus für die europäische Union und was ist das", euLanguages, "en")
	assert.Equal(t, "de", got)
}

func TestDetectFallsBackOnEmptyInput(t *testing.T) {
	got := Detect("", euLanguages, "en")
	assert.Equal(t, "en", got)
}

func TestDetectFallsBackOnNoOverlap(t *testing.T) {
	got := Detect("CBAM ETS ESG", euLanguages, "en")
	assert.Equal(t, "en", got)
}

func TestDetectSwedish(t *testing.T) {
	got := Detect("vad är denna mekanism för koldioxidjustering och hur fungerar det för import", euLanguages, "en")
	assert.Equal(t, "sv", got)
}

func TestDetectRomanian(t *testing.T) {
	got := Detect("ce este acest mecanism de ajustare a carbonului și cum funcționează pentru această uniune", euLanguages, "en")
	assert.Equal(t, "ro", got)
}

func TestDetectAllSupportedLanguagesHaveStopwordCoverage(t *testing.T) {
	for _, tag := range euLanguages {
		assert.NotEmpty(t, stopwords[tag], "missing stopword set for %q", tag)
	}
}
