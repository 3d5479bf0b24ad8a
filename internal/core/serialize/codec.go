package serialize

import (
	"bytes"
	"fmt"

	"gopkg.in/yaml.v3"
)

// document is the on-wire shape of a record set.
type document struct {
	Records []Record `yaml:"records"`
}

// EncodeRecords renders a record list as a YAML document. Map keys are
// emitted in sorted order, so equal record sets produce byte-equal
// documents and can be diffed line by line.
func EncodeRecords(records []Record) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(document{Records: records}); err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encoding records: %w", err)
	}
	return buf.Bytes(), nil
}

// DecodeRecords parses a YAML document produced by EncodeRecords.
func DecodeRecords(data []byte) ([]Record, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decoding records: %w", err)
	}
	return doc.Records, nil
}
