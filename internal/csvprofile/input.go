// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package csvprofile

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/ianaindex"
)

// ErrNoInput is returned by ParseInput for an empty payload.
var ErrNoInput = errors.New("no input provided")

// Options override detection. Empty fields mean "detect".
type Options struct {
	Encoding  string `json:"encoding,omitempty" yaml:"encoding,omitempty"`
	Delimiter string `json:"delimiter,omitempty" yaml:"delimiter,omitempty"`
}

type envelope struct {
	CSVData *string `json:"csv_data"`
	Options Options `json:"options"`
}

// ParseInput splits a stdin payload into CSV bytes and options. A UTF-8
// payload holding a JSON object is an envelope with base64 csv_data;
// anything else is raw CSV.
func ParseInput(input []byte) ([]byte, Options, error) {
	if len(input) == 0 {
		return nil, Options{}, ErrNoInput
	}
	trimmed := bytes.TrimSpace(input)
	if !utf8.Valid(input) || len(trimmed) == 0 || trimmed[0] != '{' {
		return input, Options{}, nil
	}

	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return input, Options{}, nil
	}
	if env.CSVData == nil {
		return nil, Options{}, errors.New("envelope is missing csv_data")
	}
	data, err := base64.StdEncoding.DecodeString(*env.CSVData)
	if err != nil {
		return nil, Options{}, fmt.Errorf("decoding csv_data: %w", err)
	}
	return data, env.Options, nil
}

// candidateEncodings are tried in order by detectEncoding.
var candidateEncodings = []string{"utf-8", "latin-1", "iso-8859-1", "cp1252"}

// detectEncoding returns the first candidate that decodes data.
func detectEncoding(data []byte) string {
	for _, name := range candidateEncodings {
		if _, err := decodeAs(data, name); err == nil {
			return name
		}
	}
	return "utf-8"
}

// decodeAs decodes data with the named encoding and strips a leading BOM.
func decodeAs(data []byte, name string) (string, error) {
	var text string
	switch strings.ToLower(strings.ReplaceAll(name, "_", "-")) {
	case "utf-8", "utf8":
		if !utf8.Valid(data) {
			return "", fmt.Errorf("'utf-8' codec can't decode input: invalid byte sequence")
		}
		text = string(data)
	case "latin-1", "latin1", "iso-8859-1", "iso8859-1":
		out, err := charmap.ISO8859_1.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		text = string(out)
	case "cp1252", "windows-1252":
		out, err := charmap.Windows1252.NewDecoder().Bytes(data)
		if err != nil {
			return "", err
		}
		text = string(out)
	default:
		enc, err := ianaindex.IANA.Encoding(name)
		if err != nil || enc == nil {
			return "", fmt.Errorf("unknown encoding: %s", name)
		}
		out, err := decodeWith(enc, data)
		if err != nil {
			return "", err
		}
		text = out
	}
	return strings.TrimPrefix(text, "\uFEFF"), nil
}

func decodeWith(enc encoding.Encoding, data []byte) (string, error) {
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// candidateDelimiters are counted by detectDelimiter; ties go to the
// earlier entry.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// detectDelimiter picks the most frequent candidate in the first 1000
// characters of text, defaulting to a comma.
func detectDelimiter(text string) rune {
	sample := text
	n := 0
	for i := range text {
		if n == 1000 {
			sample = text[:i]
			break
		}
		n++
	}
	best, bestCount := ',', 0
	for _, d := range candidateDelimiters {
		if c := strings.Count(sample, string(d)); c > bestCount {
			best, bestCount = d, c
		}
	}
	return best
}

// parseDelimiter validates a user-supplied delimiter.
func parseDelimiter(s string) (rune, error) {
	if s == `\t` {
		return '\t', nil
	}
	if utf8.RuneCountInString(s) != 1 {
		return 0, fmt.Errorf("delimiter must be a single character, got %q", s)
	}
	r, _ := utf8.DecodeRuneInString(s)
	if r == '"' || r == '\n' || r == '\r' || r == utf8.RuneError {
		return 0, fmt.Errorf("invalid delimiter %q", s)
	}
	return r, nil
}
