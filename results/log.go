package results

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/coordlab/staghunt/game"
)

// ResultLogWriteError reports a failure to persist a trial record. The
// trial itself completed; only persistence failed.
type ResultLogWriteError struct {
	Path    string
	TrialID string
	Err     error
}

func (e *ResultLogWriteError) Error() string {
	return fmt.Sprintf("writing trial %s to result log %s: %v", e.TrialID, e.Path, e.Err)
}

func (e *ResultLogWriteError) Unwrap() error {
	return e.Err
}

// LogWriter appends trial records to a log file. Writes are serialized
// through a mutex and each record goes out in a single Write call, so
// concurrent appenders never interleave within a line.
type LogWriter struct {
	mu   sync.Mutex
	f    *os.File
	path string
}

// OpenLog opens (or creates) the result log at path for appending.
func OpenLog(path string) (*LogWriter, error) {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening result log %s: %w", path, err)
	}
	return &LogWriter{f: f, path: path}, nil
}

// Append writes one record as a single line.
func (w *LogWriter) Append(rec TrialRecord) error {
	line := rec.Line() + "\n"
	w.mu.Lock()
	defer w.mu.Unlock()
	if _, err := w.f.WriteString(line); err != nil {
		return &ResultLogWriteError{Path: w.path, TrialID: rec.TrialID, Err: err}
	}
	return nil
}

// Close flushes and closes the underlying file.
func (w *LogWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.f.Close()
}

// ParseLog reads every record from r. Lines that fail to parse are
// skipped and counted rather than aborting the read, since a long-running
// experiment's log may contain a torn final line.
func ParseLog(r io.Reader) (records []TrialRecord, skipped int, err error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		rec, perr := ParseLine(line)
		if perr != nil {
			skipped++
			continue
		}
		records = append(records, rec)
	}
	if err := sc.Err(); err != nil {
		return records, skipped, fmt.Errorf("reading result log: %w", err)
	}
	return records, skipped, nil
}

// ParseFile reads every record from the log at path.
func ParseFile(path string) ([]TrialRecord, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("opening result log %s: %w", path, err)
	}
	defer f.Close()
	return ParseLog(f)
}

// ParseLine parses a single record line.
func ParseLine(line string) (TrialRecord, error) {
	fields := strings.Split(line, " | ")
	if len(fields) < 2 {
		return TrialRecord{}, fmt.Errorf("parse line: too few fields")
	}

	ts, err := time.Parse(timeLayout, fields[0])
	if err != nil {
		return TrialRecord{}, fmt.Errorf("parse line: bad timestamp %q: %w", fields[0], err)
	}
	rec := TrialRecord{Timestamp: ts}

	var haveU, haveU1, haveU2 bool
	seen := make(map[string]bool)
	for _, field := range fields[1:] {
		key, value, ok := strings.Cut(field, ":")
		if !ok {
			return TrialRecord{}, fmt.Errorf("parse line: field %q has no key", field)
		}
		seen[key] = true
		switch key {
		case "Trial_ID":
			rec.TrialID = value
		case "Task_ID":
			rec.TaskID, err = strconv.Atoi(value)
		case "U_Value":
			rec.UValue1, err = strconv.ParseFloat(value, 64)
			rec.UValue2 = rec.UValue1
			haveU = true
		case "Agent1_U_Value":
			rec.UValue1, err = strconv.ParseFloat(value, 64)
			haveU1 = true
		case "Agent2_U_Value":
			rec.UValue2, err = strconv.ParseFloat(value, 64)
			haveU2 = true
		case "Agent1_Belief":
			rec.Agent1Belief, err = parseBelief(value)
		case "Agent2_Belief":
			rec.Agent2Belief, err = parseBelief(value)
		case "Agent1_Final_Belief":
			rec.Agent1FinalBelief, err = parseBelief(value)
		case "Agent2_Final_Belief":
			rec.Agent2FinalBelief, err = parseBelief(value)
		case "Agent1_Choice":
			rec.Agent1Choice = value
		case "Agent2_Choice":
			rec.Agent2Choice = value
		case "Agent1_Strategy":
			rec.Agent1Strategy, err = parseStrategy(value)
		case "Agent2_Strategy":
			rec.Agent2Strategy, err = parseStrategy(value)
		case "Mismatch":
			rec.Mismatch, err = parseFlag(value)
		case "Fallback":
			rec.Fallback, err = parseFlag(value)
		default:
			// Unknown keys are tolerated so older readers survive newer
			// logs.
		}
		if err != nil {
			return TrialRecord{}, fmt.Errorf("parse line: field %q: %w", key, err)
		}
	}

	switch {
	case haveU:
	case haveU1 && haveU2:
		rec.Asymmetric = true
	default:
		return TrialRecord{}, fmt.Errorf("parse line: missing u-value fields")
	}

	// Beliefs, choices, strategies and the mismatch flag are mandatory; a
	// record without them cannot be classified downstream. Final beliefs
	// and the fallback flag are optional for older logs.
	for _, key := range []string{
		"Trial_ID", "Task_ID",
		"Agent1_Belief", "Agent2_Belief",
		"Agent1_Choice", "Agent2_Choice",
		"Agent1_Strategy", "Agent2_Strategy",
		"Mismatch",
	} {
		if !seen[key] {
			return TrialRecord{}, fmt.Errorf("parse line: missing required field %q", key)
		}
	}
	if rec.TrialID == "" {
		return TrialRecord{}, fmt.Errorf("parse line: empty Trial_ID")
	}
	if !seen["Agent1_Final_Belief"] {
		rec.Agent1FinalBelief = rec.Agent1Belief
	}
	if !seen["Agent2_Final_Belief"] {
		rec.Agent2FinalBelief = rec.Agent2Belief
	}
	return rec, nil
}

func parseBelief(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v < 0 || v > 100 {
		return 0, fmt.Errorf("belief %d outside 0-100", v)
	}
	return v, nil
}

func parseStrategy(s string) (game.Strategy, error) {
	switch game.Strategy(s) {
	case game.StrategyCollaborative, game.StrategyIndividual:
		return game.Strategy(s), nil
	}
	return "", fmt.Errorf("unknown strategy %q", s)
}

func parseFlag(s string) (int, error) {
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0, err
	}
	if v != 0 && v != 1 {
		return 0, fmt.Errorf("flag must be 0 or 1, got %d", v)
	}
	return v, nil
}
