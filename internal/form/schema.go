package form

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind selects how a raw input value is coerced.
type Kind int

const (
	KindText Kind = iota
	KindNumber
	KindInteger
	KindBool
)

// Option is one allowed value of a choice field.
type Option struct {
	Value string
	Label string
}

// Field describes one input of the intake form.
type Field struct {
	Name     string
	Label    string
	Kind     Kind
	Required bool
	// MinLen applies to text; Min to numbers when HasMin is set.
	MinLen  int
	HasMin  bool
	Min     float64
	Message string
	Options []Option
	Default any
}

// Step is one page of the wizard.
type Step struct {
	Name        string
	Title       string
	Description string
	Fields      []string
}

// Schema is the ordered set of fields and the steps that partition them.
type Schema struct {
	Fields []Field
	Steps  []Step

	byName map[string]int
}

// NewSchema indexes fields and checks that steps partition them.
func NewSchema(fields []Field, steps []Step) (*Schema, error) {
	s := &Schema{Fields: fields, Steps: steps, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		if _, dup := s.byName[f.Name]; dup {
			return nil, fmt.Errorf("duplicate field %q", f.Name)
		}
		s.byName[f.Name] = i
	}
	seen := make(map[string]string, len(fields))
	for _, step := range steps {
		for _, name := range step.Fields {
			if _, ok := s.byName[name]; !ok {
				return nil, fmt.Errorf("step %q references unknown field %q", step.Name, name)
			}
			if other, ok := seen[name]; ok {
				return nil, fmt.Errorf("field %q appears in steps %q and %q", name, other, step.Name)
			}
			seen[name] = step.Name
		}
	}
	if len(seen) != len(fields) {
		return nil, fmt.Errorf("%d fields belong to no step", len(fields)-len(seen))
	}
	return s, nil
}

// Field returns the definition of name.
func (s *Schema) Field(name string) (Field, bool) {
	i, ok := s.byName[name]
	if !ok {
		return Field{}, false
	}
	return s.Fields[i], true
}

// Validate coerces and checks the named fields of values. It returns the
// coerced values of the fields that passed and a message per failing field.
// Optional numbers left empty are omitted from the result.
func (s *Schema) Validate(values map[string]any, names []string) (map[string]any, map[string]string) {
	out := make(map[string]any, len(names))
	var errs map[string]string
	for _, name := range names {
		f, ok := s.Field(name)
		if !ok {
			continue
		}
		v, present, msg := f.coerce(values[name])
		if msg != "" {
			if errs == nil {
				errs = make(map[string]string)
			}
			errs[name] = msg
			continue
		}
		if present {
			out[name] = v
		}
	}
	return out, errs
}

// AllFields lists every field name in declaration order.
func (s *Schema) AllFields() []string {
	names := make([]string, len(s.Fields))
	for i, f := range s.Fields {
		names[i] = f.Name
	}
	return names
}

// Defaults returns the initial value of every field that declares one.
func (s *Schema) Defaults() map[string]any {
	out := map[string]any{}
	for _, f := range s.Fields {
		if f.Default != nil {
			out[f.Name] = f.Default
		}
	}
	return out
}

func (f Field) coerce(raw any) (any, bool, string) {
	switch f.Kind {
	case KindBool:
		b, ok := toBool(raw)
		if !ok {
			return nil, false, "Valor inválido"
		}
		return b, true, ""
	case KindNumber, KindInteger:
		n, empty, ok := toNumber(raw)
		if empty {
			if f.Required {
				return nil, false, f.Message
			}
			return nil, false, ""
		}
		if !ok {
			return nil, false, "Informe um número válido"
		}
		if f.Kind == KindInteger && n != math.Trunc(n) {
			return nil, false, "Informe um número inteiro"
		}
		if f.HasMin && n < f.Min {
			return nil, false, f.minMessage()
		}
		if f.Kind == KindInteger {
			return int(n), true, ""
		}
		return n, true, ""
	default:
		text := strings.TrimSpace(toText(raw))
		minLen := f.MinLen
		if f.Required && minLen < 1 {
			minLen = 1
		}
		if utf8.RuneCountInString(text) < minLen {
			return nil, false, f.Message
		}
		if text != "" && len(f.Options) > 0 {
			canonical, ok := matchOption(f.Options, text)
			if !ok {
				return nil, false, "Opção inválida"
			}
			text = canonical
		}
		return text, true, ""
	}
}

func (f Field) minMessage() string {
	if f.Message != "" {
		return f.Message
	}
	return fmt.Sprintf("Deve ser maior ou igual a %s", strconv.FormatFloat(f.Min, 'f', -1, 64))
}

func matchOption(options []Option, value string) (string, bool) {
	for _, o := range options {
		if strings.EqualFold(o.Value, value) {
			return o.Value, true
		}
	}
	return "", false
}

// OptionLabel returns the display label of value, or value itself.
func OptionLabel(options []Option, value string) string {
	for _, o := range options {
		if o.Value == value {
			return o.Label
		}
	}
	return value
}

func toText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	case fmt.Stringer:
		return v.String()
	default:
		return fmt.Sprint(v)
	}
}

func toNumber(raw any) (n float64, empty bool, ok bool) {
	switch v := raw.(type) {
	case nil:
		return 0, true, false
	case float64:
		return v, false, !math.IsNaN(v) && !math.IsInf(v, 0)
	case float32:
		return float64(v), false, true
	case int:
		return float64(v), false, true
	case int64:
		return float64(v), false, true
	case int32:
		return float64(v), false, true
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return 0, true, false
		}
		s = strings.ReplaceAll(s, " ", "")
		if strings.Contains(s, ",") {
			s = strings.ReplaceAll(s, ".", "")
			s = strings.ReplaceAll(s, ",", ".")
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false, false
		}
		return f, false, true
	default:
		return 0, false, false
	}
}

func toBool(raw any) (bool, bool) {
	switch v := raw.(type) {
	case nil:
		return false, true
	case bool:
		return v, true
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "", "false", "0", "nao", "não", "n", "no":
			return false, true
		case "true", "1", "sim", "s", "yes", "y":
			return true, true
		}
	}
	return false, false
}
