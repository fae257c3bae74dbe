package docgen

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNumberToWords(t *testing.T) {
	cases := map[int]string{
		0:    "CERO",
		8:    "OCHO",
		15:   "QUINCE",
		16:   "DIECISÉIS",
		22:   "VEINTIDÓS",
		30:   "TREINTA",
		31:   "TREINTA Y UNO",
		47:   "CUARENTA Y SIETE",
		100:  "CIEN",
		101:  "CIENTO UNO",
		115:  "CIENTO QUINCE",
		200:  "DOSCIENTOS",
		547:  "QUINIENTOS CUARENTA Y SIETE",
		999:  "NOVECIENTOS NOVENTA Y NUEVE",
		1000: "MIL",
		1999: "MIL NOVECIENTOS NOVENTA Y NUEVE",
		2025: "DOS MIL VEINTICINCO",
		9999: "NUEVE MIL NOVECIENTOS NOVENTA Y NUEVE",
	}
	for n, want := range cases {
		assert.Equal(t, want, NumberToWords(n), "n=%d", n)
	}
	// Out of range falls back to digits.
	assert.Equal(t, "10000", NumberToWords(10000))
	assert.Equal(t, "-3", NumberToWords(-3))
}

func TestDateToWords(t *testing.T) {
	assert.Equal(t, "08 DE OCTUBRE DEL 2025", DateToWords("2025-10-08"))
	assert.Equal(t, "01 DE ENERO DEL 2026", DateToWords("2026-01-01"))
	assert.Equal(t, "", DateToWords(""))
	assert.Equal(t, "", DateToWords("10/08/2025"))
}

func TestAgeAt(t *testing.T) {
	ref := time.Date(2025, 12, 10, 0, 0, 0, 0, time.UTC)
	// Birthday already passed this year.
	assert.Equal(t, 13, AgeAt("2012-09-14", ref))
	// Birthday still ahead.
	assert.Equal(t, 12, AgeAt("2012-12-25", ref))
	// Birthday today counts as completed.
	assert.Equal(t, 13, AgeAt("2012-12-10", ref))
	assert.Equal(t, 0, AgeAt("", ref))
	assert.Equal(t, 0, AgeAt("not-a-date", ref))
}

func TestMonthName(t *testing.T) {
	assert.Equal(t, "ENERO", MonthName(time.January))
	assert.Equal(t, "DICIEMBRE", MonthName(time.December))
}
