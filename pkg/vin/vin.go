// Package vin validates and extracts Vehicle Identification Numbers.
//
// A well-formed VIN is exactly 17 characters from [A-HJ-NPR-Z0-9]: uppercase
// latin letters excluding I, O and Q, plus digits. The same pattern is used
// for inbound validation and for finding VINs embedded in free text.
package vin

import (
	"fmt"
	"regexp"
	"strings"
)

var (
	vinPattern     = regexp.MustCompile(`^[A-HJ-NPR-Z0-9]{17}$`)
	vinTextPattern = regexp.MustCompile(`\b[A-HJ-NPR-Z0-9]{17}\b`)
)

// Normalize upper-cases a VIN and strips surrounding whitespace.
func Normalize(vin string) string {
	return strings.ToUpper(strings.TrimSpace(vin))
}

// Validate checks a VIN and returns a descriptive error when it is
// malformed. The input is normalized before checking.
func Validate(vin string) error {
	v := Normalize(vin)
	if v == "" {
		return fmt.Errorf("VIN не может быть пустым")
	}
	if len(v) != 17 {
		return fmt.Errorf("VIN должен содержать 17 символов, получено: %d", len(v))
	}
	if !vinPattern.MatchString(v) {
		var invalid []string
		seen := map[rune]bool{}
		for _, ch := range v {
			if seen[ch] {
				continue
			}
			if ch == 'I' || ch == 'O' || ch == 'Q' || !isAlnum(ch) {
				seen[ch] = true
				invalid = append(invalid, string(ch))
			}
		}
		if len(invalid) > 0 {
			return fmt.Errorf("VIN содержит недопустимые символы: %s", strings.Join(invalid, ", "))
		}
		return fmt.Errorf("VIN содержит недопустимые символы")
	}
	return nil
}

// Extract returns the first VIN-shaped token found in free text, or "".
func Extract(text string) string {
	return vinTextPattern.FindString(strings.ToUpper(text))
}

// Sections is the standard decomposition of a VIN.
type Sections struct {
	WMI       string // world manufacturer identifier, positions 1-3
	VDS       string // vehicle descriptor section, positions 4-9
	VIS       string // vehicle identifier section, positions 10-17
	YearCode  byte   // model year code, position 10
	PlantCode byte   // assembly plant code, position 11
	Serial    string // serial number, positions 12-17
}

// Split decomposes a VIN into its sections. The VIN must be valid.
func Split(vin string) (Sections, error) {
	v := Normalize(vin)
	if err := Validate(v); err != nil {
		return Sections{}, err
	}
	return Sections{
		WMI:       v[0:3],
		VDS:       v[3:9],
		VIS:       v[9:17],
		YearCode:  v[9],
		PlantCode: v[10],
		Serial:    v[11:17],
	}, nil
}

func isAlnum(ch rune) bool {
	return (ch >= 'A' && ch <= 'Z') || (ch >= '0' && ch <= '9')
}
