package docgen

import (
	"fmt"
	"strings"
	"time"
)

// The legal text is rendered entirely in upper-case Spanish, so every
// helper in this file returns upper-case strings.

var months = [13]string{
	"", // 1-based
	"ENERO", "FEBRERO", "MARZO", "ABRIL", "MAYO", "JUNIO",
	"JULIO", "AGOSTO", "SEPTIEMBRE", "OCTUBRE", "NOVIEMBRE", "DICIEMBRE",
}

// MonthName returns the upper-case Spanish name for a month (1-12).
func MonthName(m time.Month) string {
	if m < 1 || m > 12 {
		return ""
	}
	return months[m]
}

// DateToWords converts an ISO date (YYYY-MM-DD) into the notarial long
// form, e.g. "05 DE OCTUBRE DEL 2025".  An empty or malformed input
// yields an empty string: dates are validated upstream, and the template
// must never receive a partial rendering.
func DateToWords(iso string) string {
	if iso == "" {
		return ""
	}
	dt, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return ""
	}
	return fmt.Sprintf("%02d DE %s DEL %d", dt.Day(), MonthName(dt.Month()), dt.Year())
}

// AgeAt computes full years elapsed between an ISO birth date and a
// reference day, subtracting one when the birthday has not yet passed.
func AgeAt(birthISO string, at time.Time) int {
	if birthISO == "" {
		return 0
	}
	b, err := time.Parse("2006-01-02", birthISO)
	if err != nil {
		return 0
	}
	age := at.Year() - b.Year()
	if at.Month() < b.Month() || (at.Month() == b.Month() && at.Day() < b.Day()) {
		age--
	}
	return age
}

var (
	unitWords = [30]string{
		"CERO", "UNO", "DOS", "TRES", "CUATRO", "CINCO", "SEIS", "SIETE",
		"OCHO", "NUEVE", "DIEZ", "ONCE", "DOCE", "TRECE", "CATORCE",
		"QUINCE", "DIECISÉIS", "DIECISIETE", "DIECIOCHO", "DIECINUEVE",
		"VEINTE", "VEINTIUNO", "VEINTIDÓS", "VEINTITRÉS", "VEINTICUATRO",
		"VEINTICINCO", "VEINTISÉIS", "VEINTISIETE", "VEINTIOCHO", "VEINTINUEVE",
	}
	tensWords = map[int]string{
		30: "TREINTA", 40: "CUARENTA", 50: "CINCUENTA", 60: "SESENTA",
		70: "SETENTA", 80: "OCHENTA", 90: "NOVENTA",
	}
	hundredWords = map[int]string{
		100: "CIENTO", 200: "DOSCIENTOS", 300: "TRESCIENTOS",
		400: "CUATROCIENTOS", 500: "QUINIENTOS", 600: "SEISCIENTOS",
		700: "SETECIENTOS", 800: "OCHOCIENTOS", 900: "NOVECIENTOS",
	}
)

// NumberToWords spells out a cardinal number in upper-case Spanish.  The
// supported range (0-9999) covers every value the templates spell out:
// ages, days of the month and calendar years.  Out-of-range values fall
// back to digits so the rendered text is never silently wrong.
func NumberToWords(n int) string {
	if n < 0 || n > 9999 {
		return fmt.Sprintf("%d", n)
	}
	if n < 30 {
		return unitWords[n]
	}
	if n < 100 {
		tens := (n / 10) * 10
		rest := n % 10
		if rest == 0 {
			return tensWords[tens]
		}
		return tensWords[tens] + " Y " + unitWords[rest]
	}
	if n == 100 {
		return "CIEN"
	}
	if n < 1000 {
		hundreds := (n / 100) * 100
		rest := n % 100
		if rest == 0 {
			return hundredWords[hundreds]
		}
		return hundredWords[hundreds] + " " + NumberToWords(rest)
	}
	thousands := n / 1000
	rest := n % 1000
	var b strings.Builder
	if thousands == 1 {
		b.WriteString("MIL")
	} else {
		b.WriteString(NumberToWords(thousands))
		b.WriteString(" MIL")
	}
	if rest != 0 {
		b.WriteString(" ")
		b.WriteString(NumberToWords(rest))
	}
	return b.String()
}
