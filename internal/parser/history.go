package parser

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"pitwatch"
)

// historyFields is the number of comma-separated fields per history row:
// time, setpoint, four probes, fan/lid.
const historyFields = 7

// ErrMalformedHistory is returned when a history stream cannot be used at all.
var ErrMalformedHistory = errors.New("malformed history")

// ParseHistory parses the /luci/lm/hist CSV. Rows with the wrong field count or
// without a finite setpoint are dropped; a bad probe field only blanks that
// probe. A row whose time or fan/lid field is unreadable fails the whole stream.
func ParseHistory(r io.Reader) ([]pitwatch.Sample, error) {
	return parseHistoryLines(bufio.NewScanner(r), 0)
}

// ParseSavedHistory parses a saved history: four probe-name lines followed by
// history CSV.
func ParseSavedHistory(r io.Reader) ([pitwatch.NumProbes]string, []pitwatch.Sample, error) {
	var names [pitwatch.NumProbes]string

	sc := bufio.NewScanner(r)
	for i := 0; i < pitwatch.NumProbes; i++ {
		if !sc.Scan() {
			if err := sc.Err(); err != nil {
				return names, nil, fmt.Errorf("read probe names: %w", err)
			}
			return names, nil, fmt.Errorf("%w: expected %d probe name lines, got %d", ErrMalformedHistory, pitwatch.NumProbes, i)
		}
		names[i] = strings.TrimRight(sc.Text(), "\r")
	}

	samples, err := parseHistoryLines(sc, pitwatch.NumProbes)
	if err != nil {
		return names, nil, err
	}
	return names, samples, nil
}

func parseHistoryLines(sc *bufio.Scanner, lineOffset int) ([]pitwatch.Sample, error) {
	history := make([]pitwatch.Sample, 0, 256)

	line := lineOffset
	for sc.Scan() {
		line++
		tokens := strings.Split(strings.TrimRight(sc.Text(), "\r"), ",")
		if len(tokens) != historyFields {
			continue
		}

		sample, keep, err := parseHistoryRow(tokens)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: %v", ErrMalformedHistory, line, err)
		}
		if keep {
			history = append(history, sample)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("read history: %w", err)
	}
	return history, nil
}

// parseHistoryRow converts one 7-field row. keep is false when the row has no
// usable setpoint.
func parseHistoryRow(tokens []string) (sample pitwatch.Sample, keep bool, err error) {
	setPoint := parseFloat(tokens[1])
	if math.IsNaN(setPoint) || math.IsInf(setPoint, 0) {
		return sample, false, nil
	}

	sample = pitwatch.NewSample()
	sample.SetPoint = setPoint

	sample.Time, err = strconv.ParseInt(strings.TrimSpace(tokens[0]), 10, 64)
	if err != nil {
		return sample, false, fmt.Errorf("time %q: %w", tokens[0], err)
	}

	for p := 0; p < pitwatch.NumProbes; p++ {
		sample.Probes[p] = parseFloat(tokens[p+2])
	}

	fanLid, err := strconv.ParseFloat(strings.TrimSpace(tokens[6]), 64)
	if err != nil || math.IsNaN(fanLid) {
		return sample, false, fmt.Errorf("fan/lid %q: not a number", tokens[6])
	}
	// Negative fan values encode an open lid.
	if fanLid < 0 {
		sample.LidOpen = 1
		sample.FanSpeed = 0
	} else {
		sample.LidOpen = 0
		sample.FanSpeed = fanLid
	}

	return sample, true, nil
}

// parseFloat returns NaN for anything that is not a number.
func parseFloat(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return math.NaN()
	}
	return v
}

// WriteSavedHistory writes names and samples in the format read by
// ParseSavedHistory.
func WriteSavedHistory(w io.Writer, names [pitwatch.NumProbes]string, samples []pitwatch.Sample) error {
	bw := bufio.NewWriter(w)
	for _, n := range names {
		if _, err := bw.WriteString(n + "\n"); err != nil {
			return err
		}
	}
	for _, s := range samples {
		if _, err := bw.WriteString(FormatHistoryRow(s) + "\n"); err != nil {
			return err
		}
	}
	return bw.Flush()
}

// FormatHistoryRow renders s as one history CSV row. An open lid is written as
// a fan value of -1.
func FormatHistoryRow(s pitwatch.Sample) string {
	fields := make([]string, 0, historyFields)
	fields = append(fields, strconv.FormatInt(s.Time, 10), formatFloat(s.SetPoint))
	for _, p := range s.Probes {
		fields = append(fields, formatFloat(p))
	}
	if s.LidOpen >= 0.5 {
		fields = append(fields, "-1")
	} else {
		fields = append(fields, formatFloat(s.FanSpeed))
	}
	return strings.Join(fields, ",")
}

func formatFloat(v float64) string {
	if math.IsNaN(v) {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}
