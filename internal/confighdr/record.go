package confighdr

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/spf13/afero"
	"github.com/tidwall/jsonc"

	"platcap/internal/capability"
	"platcap/internal/diag"
)

// DecodeRecord parses a JSON record. Comments and trailing commas are
// accepted; unknown fields are not.
func DecodeRecord(data []byte) (capability.Record, error) {
	var rec capability.Record
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&rec); err != nil {
		return capability.Record{}, err
	}
	if rec.NativeLongSizeBytes < 0 {
		return capability.Record{}, fmt.Errorf("nativeLongSizeBytes must not be negative, got %d", rec.NativeLongSizeBytes)
	}
	return rec, nil
}

// EncodeRecord renders rec as indented JSON with a trailing newline.
func EncodeRecord(rec capability.Record) ([]byte, error) {
	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// LoadRecord reads a record from path and applies it to b unguarded, so a
// record that disagrees with earlier definitions is reported as a conflict.
// A record that cannot be read or decoded is reported as InpBadRecord.
func LoadRecord(fs afero.Fs, path string, b *capability.Builder, r diag.Reporter) {
	loc := diag.Location{Path: path}
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		diag.ReportError(r, diag.InpBadRecord, loc, fmt.Sprintf("cannot read record: %v", err)).Emit()
		return
	}
	rec, err := DecodeRecord(data)
	if err != nil {
		diag.ReportError(r, diag.InpBadRecord, loc, fmt.Sprintf("malformed record: %v", err)).Emit()
		return
	}
	if err := rec.Apply(b, capability.Origin{Source: path}, false); err != nil {
		ReportError(r, err, loc)
	}
}
