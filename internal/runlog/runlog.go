// Package runlog keeps an append-only CSV audit of pipeline runs.
package runlog

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Entry is one row in the run log.
type Entry struct {
	Timestamp        time.Time
	ReconciliationID uint
	Status           string
	Matched          int
	BankOnly         int
	ProcessorOnly    int
	Discrepancies    int
	Message          string
}

// Header is the CSV header for run-log.csv.
const Header = "timestamp,reconciliation_id,status,matched,bank_only,processor_only,discrepancies,message"

const (
	numFields        = 8
	logDir           = "logs"
	logFile          = "logs/run-log.csv"
	colTimestamp     = 0
	colID            = 1
	colStatus        = 2
	colMatched       = 3
	colBankOnly      = 4
	colProcessorOnly = 5
	colDiscrepancies = 6
	colMessage       = 7
)

// MarshalEntry converts an Entry to a CSV row.
func MarshalEntry(e Entry) []string {
	row := make([]string, numFields)
	row[colTimestamp] = e.Timestamp.Format(time.RFC3339)
	row[colID] = strconv.FormatUint(uint64(e.ReconciliationID), 10)
	row[colStatus] = e.Status
	row[colMatched] = strconv.Itoa(e.Matched)
	row[colBankOnly] = strconv.Itoa(e.BankOnly)
	row[colProcessorOnly] = strconv.Itoa(e.ProcessorOnly)
	row[colDiscrepancies] = strconv.Itoa(e.Discrepancies)
	row[colMessage] = e.Message
	return row
}

// UnmarshalEntry converts a CSV row to an Entry.
func UnmarshalEntry(record []string) (Entry, error) {
	if len(record) != numFields {
		return Entry{}, fmt.Errorf("expected %d fields, got %d", numFields, len(record))
	}

	ts, err := time.Parse(time.RFC3339, record[colTimestamp])
	if err != nil {
		return Entry{}, fmt.Errorf("parsing timestamp %q: %w", record[colTimestamp], err)
	}

	rid, err := strconv.ParseUint(record[colID], 10, 64)
	if err != nil {
		return Entry{}, fmt.Errorf("parsing reconciliation id %q: %w", record[colID], err)
	}

	counts := make([]int, 4)
	for i, col := range []int{colMatched, colBankOnly, colProcessorOnly, colDiscrepancies} {
		n, err := strconv.Atoi(record[col])
		if err != nil {
			return Entry{}, fmt.Errorf("parsing count %q: %w", record[col], err)
		}
		counts[i] = n
	}

	return Entry{
		Timestamp:        ts,
		ReconciliationID: uint(rid),
		Status:           record[colStatus],
		Matched:          counts[0],
		BankOnly:         counts[1],
		ProcessorOnly:    counts[2],
		Discrepancies:    counts[3],
		Message:          record[colMessage],
	}, nil
}

// Append writes entries to <root>/logs/run-log.csv, creating the file and
// header if needed.
func Append(root string, entries []Entry) error {
	dir := filepath.Join(root, logDir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating logs dir: %w", err)
	}

	path := filepath.Join(root, logFile)
	needsHeader := false
	if _, err := os.Stat(path); os.IsNotExist(err) {
		needsHeader = true
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	cw := csv.NewWriter(f)
	defer cw.Flush()

	if needsHeader {
		if err := cw.Write(strings.Split(Header, ",")); err != nil {
			return fmt.Errorf("writing header: %w", err)
		}
	}

	for i, e := range entries {
		if err := cw.Write(MarshalEntry(e)); err != nil {
			return fmt.Errorf("writing entry %d: %w", i, err)
		}
	}

	return cw.Error()
}

// Read returns all entries from <root>/logs/run-log.csv. Returns nil if the
// file does not exist.
func Read(root string) ([]Entry, error) {
	path := filepath.Join(root, logFile)
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("opening run log: %w", err)
	}
	defer f.Close()

	return readEntries(f)
}

func readEntries(r io.Reader) ([]Entry, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = numFields

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading run log CSV: %w", err)
	}

	if len(records) <= 1 {
		return nil, nil
	}

	var entries []Entry
	for i, rec := range records[1:] {
		e, err := UnmarshalEntry(rec)
		if err != nil {
			return nil, fmt.Errorf("row %d: %w", i+2, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}
