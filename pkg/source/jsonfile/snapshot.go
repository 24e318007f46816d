package jsonfile

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// snapshot is the top-level snapshot document.
type snapshot struct {
	FileInfo  snapFileInfo `json:"file_info"`
	Structure *snapNode    `json:"structure"`
}

type snapFileInfo struct {
	FormatVersion string `json:"nwb_version"`
	Size          int64  `json:"size"`
}

// snapNode is one object in the snapshot hierarchy.
type snapNode struct {
	Name  string `json:"name"`
	Type  string `json:"type"`
	Class string `json:"class"`
	Kind  string `json:"kind"`

	Attributes rawObject `json:"attributes"`
	Fields     rawObject `json:"fields"`

	Data     *snapData   `json:"data_info"`
	Children []*snapNode `json:"children"`

	// RefPath marks reference entries pointing back at an earlier path.
	RefPath string `json:"ref_path"`
}

// snapData is a dataset descriptor: shape and type, never values.
type snapData struct {
	Shape            []int64 `json:"shape"`
	Dtype            string  `json:"dtype"`
	Chunks           []int64 `json:"chunks"`
	Compression      string  `json:"compression"`
	UncompressedSize int64   `json:"uncompressed_size_bytes"`
	CompressedSize   int64   `json:"compressed_size_bytes"`
}

func (d *snapData) array() *array {
	shape := d.Shape
	if shape == nil {
		shape = []int64{}
	}
	return &array{
		shape:        shape,
		elementType:  d.Dtype,
		chunks:       d.Chunks,
		compression:  d.Compression,
		uncompressed: d.UncompressedSize,
		compressed:   d.CompressedSize,
	}
}

// rawEntry is one attribute or field with its still-encoded value.
type rawEntry struct {
	Name string
	Raw  json.RawMessage
}

// rawObject decodes a JSON object while preserving entry order, which
// plain map decoding would destroy.
type rawObject []rawEntry

func (o *rawObject) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))

	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected object, got %v", tok)
	}

	*o = nil
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := keyTok.(string)
		if !ok {
			return fmt.Errorf("expected string key, got %v", keyTok)
		}
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("decode %q: %w", key, err)
		}
		*o = append(*o, rawEntry{Name: key, Raw: raw})
	}

	_, err = dec.Token()
	return err
}
