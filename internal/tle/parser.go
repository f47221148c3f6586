package tle

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"
)

// lineLength is the fixed width of both element lines.
const lineLength = 69

// Parse reads 3-line NORAD TLE text from r and returns the usable records.
// Blank lines are dropped, then the remaining lines are consumed in strides
// of three (name, line 1, line 2). A triple that fails validation is logged
// and skipped; the stride still advances by three so one bad record never
// shifts the ones after it. Only a read failure is returned as an error.
func Parse(r io.Reader, logger *slog.Logger) ([]Record, error) {
	scanner := bufio.NewScanner(r)
	var lines []string
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading TLE data: %w", err)
	}

	var records []Record
	for i := 0; i+2 < len(lines); i += 3 {
		rec, err := ParseRecord(lines[i], lines[i+1], lines[i+2])
		if err != nil {
			logger.Warn("skipping malformed TLE entry",
				"line_index", i,
				"name", strings.TrimSpace(lines[i]),
				"error", err,
			)
			continue
		}
		records = append(records, rec)
	}

	if rem := len(lines) % 3; rem != 0 {
		logger.Warn("ignoring trailing partial TLE entry", "lines", rem)
	}

	return records, nil
}

// ParseRecord validates one name/line1/line2 triple and extracts its metadata.
// Every numeric column the SGP4 initialiser reads is checked here, because
// go-satellite terminates the process on unparsable input.
func ParseRecord(name, line1, line2 string) (Record, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return Record{}, fmt.Errorf("%w: empty name", ErrMalformedRecord)
	}
	rec, err := parseLines(strings.TrimSpace(line1), strings.TrimSpace(line2))
	if err != nil {
		return Record{}, err
	}
	rec.Name = name
	return rec, nil
}

// ValidateLines reports whether line1 and line2 form an element set that can
// be handed to the SGP4 initialiser.
func ValidateLines(line1, line2 string) error {
	_, err := parseLines(line1, line2)
	return err
}

func parseLines(line1, line2 string) (Record, error) {
	if len(line1) != lineLength || !strings.HasPrefix(line1, "1 ") {
		return Record{}, fmt.Errorf("%w: line 1 must start with \"1 \" and be %d columns, got %d", ErrMalformedRecord, lineLength, len(line1))
	}
	if len(line2) != lineLength || !strings.HasPrefix(line2, "2 ") {
		return Record{}, fmt.Errorf("%w: line 2 must start with \"2 \" and be %d columns, got %d", ErrMalformedRecord, lineLength, len(line2))
	}

	noradID, err := strconv.Atoi(strings.TrimSpace(line1[2:7]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: catalog number %q", ErrMalformedRecord, line1[2:7])
	}
	if n2, err := strconv.Atoi(strings.TrimSpace(line2[2:7])); err != nil || n2 != noradID {
		return Record{}, fmt.Errorf("%w: line 2 catalog number %q does not match %d", ErrMalformedRecord, line2[2:7], noradID)
	}

	epoch, err := parseEpoch(strings.TrimSpace(line1[18:32]))
	if err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
	}

	for _, f := range []struct {
		field string
		text  string
	}{
		{"first derivative of mean motion", line1[33:43]},
		{"second derivative of mean motion", line1[44:45] + "." + line1[45:50] + "e" + line1[50:52]},
		{"bstar", line1[53:54] + "." + line1[54:59] + "e" + line1[59:61]},
		{"right ascension", line2[17:25]},
		{"argument of perigee", line2[34:42]},
		{"mean anomaly", line2[43:51]},
	} {
		if _, err := parseColumn(f.text); err != nil {
			return Record{}, fmt.Errorf("%w: %s %q", ErrMalformedRecord, f.field, f.text)
		}
	}

	inclination, err := parseColumn(line2[8:16])
	if err != nil {
		return Record{}, fmt.Errorf("%w: inclination %q", ErrMalformedRecord, line2[8:16])
	}
	ecc, err := strconv.ParseFloat("."+line2[26:33], 64)
	if err != nil {
		return Record{}, fmt.Errorf("%w: eccentricity %q", ErrMalformedRecord, line2[26:33])
	}
	meanMotion, err := parseColumn(line2[52:63])
	if err != nil || meanMotion <= 0 {
		return Record{}, fmt.Errorf("%w: mean motion %q", ErrMalformedRecord, line2[52:63])
	}

	return Record{
		NORADID:        noradID,
		IntlDesignator: strings.TrimSpace(line1[9:17]),
		Epoch:          epoch,
		InclinationDeg: inclination,
		Eccentricity:   ecc,
		MeanMotion:     meanMotion,
		Line1:          line1,
		Line2:          line2,
	}, nil
}

// parseColumn parses a fixed-width numeric column the way go-satellite does:
// up to two embedded spaces are removed before conversion.
func parseColumn(s string) (float64, error) {
	return strconv.ParseFloat(strings.Replace(s, " ", "", 2), 64)
}

// parseEpoch converts a TLE epoch string in YYDDD.DDDDDDDD format to time.Time.
// Year 00-56 → 2000s, 57-99 → 1900s.
func parseEpoch(s string) (time.Time, error) {
	if len(s) < 5 {
		return time.Time{}, fmt.Errorf("epoch string too short: %q", s)
	}

	year, err := strconv.Atoi(s[:2])
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch year %q: %w", s[:2], err)
	}
	year = FullYear(year)

	dayOfYear, err := strconv.ParseFloat(s[2:], 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid epoch day %q: %w", s[2:], err)
	}
	if dayOfYear < 1 || dayOfYear >= 367 {
		return time.Time{}, fmt.Errorf("epoch day %v out of range", dayOfYear)
	}

	// dayOfYear is 1-based: day 1 = Jan 1.
	t := time.Date(year, 1, 1, 0, 0, 0, 0, time.UTC)
	return t.Add(time.Duration((dayOfYear - 1) * float64(24*time.Hour))), nil
}

// FullYear expands a two-digit element-set year using the NORAD pivot:
// 57-99 are 1957-1999, 00-56 are 2000-2056.
func FullYear(yy int) int {
	if yy >= 57 {
		return 1900 + yy
	}
	return 2000 + yy
}
