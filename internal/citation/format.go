// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package citation

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	plateRe      = regexp.MustCompile(`^[A-Z]{4}\d{2}$`)
	dmyRe        = regexp.MustCompile(`^\d{2}-\d{2}-\d{4}$`)
	isoRe        = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)
	clockRe      = regexp.MustCompile(`^\d{2}:\d{2}$`)
	spanishMonth = [...]string{
		"enero", "febrero", "marzo", "abril", "mayo", "junio",
		"julio", "agosto", "septiembre", "octubre", "noviembre", "diciembre",
	}
)

// MonthName returns the lowercase Spanish name of m.
func MonthName(m time.Month) string {
	return spanishMonth[m-1]
}

// FormatPlate renders a plate as "XXXX-NN" when it has four letters and two
// digits once dashes are removed; otherwise it returns the input uppercased.
func FormatPlate(plate string) string {
	if plate == "" {
		return ""
	}
	cleaned := strings.ToUpper(strings.ReplaceAll(plate, "-", ""))
	if plateRe.MatchString(cleaned) {
		return cleaned[:4] + "-" + cleaned[4:]
	}
	return strings.ToUpper(plate)
}

// FormatInfractionDate renders "05-03-2025" as "5 DE MARZO DEL 2025".
// Input in any other shape is returned unchanged.
func FormatInfractionDate(s string) string {
	if !dmyRe.MatchString(s) {
		return s
	}
	t, err := time.Parse("02-01-2006", s)
	if err != nil {
		return s
	}
	return fmt.Sprintf("%d DE %s DEL %d", t.Day(), strings.ToUpper(MonthName(t.Month())), t.Year())
}

// FormatTimeAmPm appends "A.M" or "P.M" to an "HH:MM" time.
func FormatTimeAmPm(s string) string {
	if !clockRe.MatchString(s) {
		return s
	}
	h, _ := strconv.Atoi(s[:2])
	period := "A.M"
	if h >= 12 {
		period = "P.M"
	}
	return s + " " + period
}

// FormatHearingDate renders an ISO date as "1 de marzo de 2025".
func FormatHearingDate(iso string) string {
	if !isoRe.MatchString(iso) {
		return iso
	}
	t, err := time.Parse("2006-01-02", iso)
	if err != nil {
		return iso
	}
	return fmt.Sprintf("%d de %s de %d", t.Day(), MonthName(t.Month()), t.Year())
}

// DateLine is the default free-text date shown next to the city, e.g.
// "a 05 de marzo de 2025.".
func DateLine(t time.Time) string {
	return fmt.Sprintf("a %02d de %s de %d.", t.Day(), MonthName(t.Month()), t.Year())
}

// YearSuffixed renders "n/year", or "" when n is empty.
func YearSuffixed(n string, year int) string {
	if n == "" {
		return ""
	}
	return fmt.Sprintf("%s/%d", n, year)
}

// PDFFileName is the download name of a single citation.
func PDFFileName(oficioText string) string {
	return "citacion-oficio-" + strings.ReplaceAll(oficioText, "/", "-") + ".pdf"
}
