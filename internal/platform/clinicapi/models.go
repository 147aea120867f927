package clinicapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

type CategoryRef struct {
	ID   Text `json:"_id"`
	Name Text `json:"name,omitempty"`
}

// UnmarshalJSON only reads object references. A bare id string or any other
// scalar carries no _id member and leaves the reference empty.
func (c *CategoryRef) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		*c = CategoryRef{}
		return nil
	}
	type plain CategoryRef
	var out plain
	if err := json.Unmarshal(trimmed, &out); err != nil {
		return err
	}
	*c = CategoryRef(out)
	return nil
}

type Service struct {
	Name  Text            `json:"name"`
	Price decimal.Decimal `json:"price"`
}

func (s *Service) UnmarshalJSON(data []byte) error {
	var raw struct {
		Name  Text            `json:"name"`
		Price json.RawMessage `json:"price"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = Service{Name: raw.Name, Price: parsePrice(raw.Price)}
	return nil
}

// parsePrice reads a JSON number or a numeric string, ignoring digit-group
// spaces. Anything else is a missing price and reads as zero.
func parsePrice(raw json.RawMessage) decimal.Decimal {
	value := bytes.TrimSpace(raw)
	if len(value) > 0 && value[0] == '"' {
		var s string
		if err := json.Unmarshal(value, &s); err != nil {
			return decimal.Zero
		}
		value = []byte(s)
	}
	cleaned := strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, string(value))
	price, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Zero
	}
	return price
}

type Order struct {
	ID       Text         `json:"_id"`
	Category *CategoryRef `json:"categoryId"`
	Date     Timestamp    `json:"date"`
	Services []Service    `json:"services"`
	Status   Text         `json:"status"`
}

// CategoryID returns the id of the referenced category, or "" when the order has none.
func (o Order) CategoryID() string {
	if o.Category == nil {
		return ""
	}
	return string(o.Category.ID)
}

func (o Order) At() time.Time {
	return o.Date.Time
}

// FirstService returns the first listed service, if any.
func (o Order) FirstService() (Service, bool) {
	if len(o.Services) == 0 {
		return Service{}, false
	}
	return o.Services[0], true
}

// Employee is one record of GET /employee. The payload has no fixed schema, so
// besides the fields the portal relies on every member is kept in Fields, in
// document order, for the profile card.
type Employee struct {
	ID       Text         `json:"_id"`
	Login    Text         `json:"login"`
	Password Text         `json:"password"`
	Images   Text         `json:"images"`
	Category *CategoryRef `json:"category"`
	Fields   []Field      `json:"-"`
}

type Field struct {
	Key   string
	Value json.RawMessage
}

func (e Employee) CategoryID() string {
	if e.Category == nil {
		return ""
	}
	return string(e.Category.ID)
}

// Lookup returns the raw value stored under key.
func (e Employee) Lookup(key string) (json.RawMessage, bool) {
	for _, f := range e.Fields {
		if f.Key == key {
			return f.Value, true
		}
	}
	return nil, false
}

// Name is the display name, empty when the record has none.
func (e Employee) Name() string {
	raw, ok := e.Lookup("name")
	if !ok {
		return ""
	}
	var t Text
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	return string(t)
}

func (e *Employee) UnmarshalJSON(data []byte) error {
	type plain Employee
	var base plain
	if err := json.Unmarshal(data, &base); err != nil {
		return err
	}
	fields, err := orderedFields(data)
	if err != nil {
		return err
	}
	*e = Employee(base)
	e.Fields = fields
	return nil
}

// MarshalJSON writes the record back in its original member order.
func (e Employee) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range e.Fields {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(f.Key)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		if len(f.Value) == 0 {
			buf.WriteString("null")
			continue
		}
		buf.Write(f.Value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// WithoutCredentials drops the login and password members.
func (e Employee) WithoutCredentials() Employee {
	out := e
	out.Login = ""
	out.Password = ""
	out.Fields = make([]Field, 0, len(e.Fields))
	for _, f := range e.Fields {
		if f.Key == "login" || f.Key == "password" {
			continue
		}
		out.Fields = append(out.Fields, f)
	}
	return out
}

// orderedFields walks a JSON object and returns its members in document order.
func orderedFields(data []byte) ([]Field, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected JSON object")
	}
	var out []Field
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, _ := tok.(string)
		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return nil, err
		}
		out = append(out, Field{Key: key, Value: raw})
	}
	return out, nil
}

// Text accepts a JSON string, number or boolean and keeps its textual form.
// null decodes to "".
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case bytes.Equal(trimmed, []byte("null")):
		*t = ""
	case len(trimmed) > 0 && trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*t = Text(s)
	case len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '['):
		return fmt.Errorf("clinicapi: expected scalar, got %s", trimmed[:1])
	default:
		*t = Text(trimmed)
	}
	return nil
}

type timestampLayout struct {
	layout string
	zoned  bool
}

var timestampLayouts = []timestampLayout{
	{layout: time.RFC3339Nano, zoned: true},
	{layout: "2006-01-02T15:04:05.999999999Z0700", zoned: true},
	{layout: "2006-01-02T15:04:05.999999999", zoned: false},
	{layout: "2006-01-02T15:04", zoned: false},
	{layout: "2006-01-02 15:04:05", zoned: false},
	{layout: "2006-01-02", zoned: true},
}

// Timestamp parses the date formats the clinic API has been seen to emit.
// A date and time without a zone offset is wall clock time: Floating is set
// and Anchor places it in the portal location. A bare date is UTC midnight.
// Values that do not parse leave the zero time, which no filter matches.
type Timestamp struct {
	time.Time
	Floating bool
}

func parseTimestamp(value string) (Timestamp, error) {
	value = strings.TrimSpace(value)
	for _, l := range timestampLayouts {
		if parsed, err := time.Parse(l.layout, value); err == nil {
			return Timestamp{Time: parsed, Floating: !l.zoned}, nil
		}
	}
	return Timestamp{}, fmt.Errorf("clinicapi: unrecognised timestamp %q", value)
}

// Anchor fixes a floating timestamp to loc. Zoned timestamps are returned unchanged.
func (ts Timestamp) Anchor(loc *time.Location) Timestamp {
	if !ts.Floating || loc == nil {
		return ts
	}
	t := ts.Time
	return Timestamp{Time: time.Date(t.Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), loc)}
}

func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	*ts = Timestamp{}
	var s string
	if err := json.Unmarshal(data, &s); err != nil || strings.TrimSpace(s) == "" {
		return nil
	}
	parsed, err := parseTimestamp(s)
	if err != nil {
		return nil
	}
	*ts = parsed
	return nil
}

func (ts Timestamp) MarshalJSON() ([]byte, error) {
	if ts.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(ts.UTC().Format(time.RFC3339Nano))
}
