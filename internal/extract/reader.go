// Package extract turns a bulk establishments CSV into canonical school
// records, or loads a previously written artifact when the CSV is absent.
package extract

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"golang.org/x/text/encoding/charmap"
)

// ErrInputData marks a fatal problem with the pipeline input.
var ErrInputData = errors.New("input data error")

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// IsWindows1252 reports whether encoding names the Windows-1252 code page.
func IsWindows1252(encoding string) bool {
	switch strings.ToLower(encoding) {
	case "windows-1252", "cp1252":
		return true
	}
	return false
}

// ReadCSV reads a header-driven CSV into one map per data row, keyed by
// the trimmed header names. Short rows are padded with empty values.
func ReadCSV(r io.Reader, encoding string) ([]map[string]string, error) {
	if IsWindows1252(encoding) {
		r = charmap.Windows1252.NewDecoder().Reader(r)
	}

	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		if _, err := br.Discard(len(utf8BOM)); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputData, err)
		}
	}

	cr := csv.NewReader(br)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("%w: empty csv", ErrInputData)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read header: %v", ErrInputData, err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInputData, err)
		}
		row := make(map[string]string, len(header))
		for i, name := range header {
			if i < len(record) {
				row[name] = strings.TrimSpace(record[i])
			} else {
				row[name] = ""
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}
