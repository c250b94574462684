package golpo

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"

	"github.com/tailscale/hujson"

	"github.com/eringen/golpo/mojibake"
)

// readJSONFile decodes a JSON or JSONC file into generic values. Numbers
// keep their literal form so a rewrite does not turn ids into floats.
func readJSONFile(path string) (any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, fmt.Errorf("golpo: %s: %w", path, err)
	}
	var v any
	dec := json.NewDecoder(bytes.NewReader(std))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("golpo: %s: %w", path, err)
	}
	return v, nil
}

// writeJSONFile writes v as indented JSON without HTML escaping, atomically.
func writeJSONFile(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("golpo: encode %s: %w", path, err)
	}
	return WriteFileAtomic(path, buf.Bytes())
}

// RepairFile repairs mojibake in every string of the JSON file at in and
// writes the result to out (in when out is empty). It returns how many
// strings changed; nothing is written when none did.
func RepairFile(in, out string) (int, error) {
	v, err := readJSONFile(in)
	if err != nil {
		return 0, err
	}
	repaired, changed := mojibake.RepairTree(v)
	if out == "" {
		out = in
	}
	if changed == 0 && out == in {
		return 0, nil
	}
	if err := writeJSONFile(out, repaired); err != nil {
		return 0, err
	}
	return changed, nil
}
