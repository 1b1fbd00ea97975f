package ghost

import (
	"bytes"
	"encoding/json"
	"time"
)

const timestampLayout = "2006-01-02T15:04:05.000Z"

// Document is a Ghost import file.
type Document struct {
	DB []Database `json:"db"`
}

type Database struct {
	Meta Meta  `json:"meta"`
	Data *Data `json:"data"`
}

type Meta struct {
	ExportedOn int64  `json:"exported_on"`
	Version    string `json:"version"`
}

// Timestamp serializes as a UTC time with millisecond precision.
type Timestamp time.Time

func (t Timestamp) MarshalJSON() ([]byte, error) {
	return []byte(`"` + time.Time(t).UTC().Format(timestampLayout) + `"`), nil
}

// Group is a batch of records destined for one Ghost table.
type Group struct {
	Name    string
	Records []any
}

// Contribution is everything a single item adds to a document.
type Contribution []Group

// Data accumulates contributions, keeping group names in the order they
// first appear and records in the order they were added.
type Data struct {
	names  []string
	groups map[string][]any
}

func NewData() *Data {
	return &Data{groups: make(map[string][]any)}
}

func (d *Data) Add(c Contribution) {
	for _, group := range c {
		if _, ok := d.groups[group.Name]; !ok {
			d.names = append(d.names, group.Name)
			d.groups[group.Name] = []any{}
		}
		d.groups[group.Name] = append(d.groups[group.Name], group.Records...)
	}
}

func (d *Data) Names() []string {
	return d.names
}

func (d *Data) Records(name string) []any {
	return d.groups[name]
}

func (d *Data) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte('{')
	for i, name := range d.names {
		if i > 0 {
			buf.WriteByte(',')
		}

		key, err := marshal(name)
		if err != nil {
			return nil, err
		}
		records, err := marshal(d.groups[name])
		if err != nil {
			return nil, err
		}

		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(records)
	}
	buf.WriteByte('}')

	return buf.Bytes(), nil
}

// marshal encodes v without escaping HTML characters, which post bodies are
// full of.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer

	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}

	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
