package repository

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"perseo/internal/utils"
)

type FieldKind int

const (
	FieldString FieldKind = iota
	FieldClave
	FieldInt
	FieldRef
	FieldDecimal
	FieldDate
	FieldBool
	FieldEmail
	FieldRFC
	FieldCURP
	FieldQuincena
)

// Field is an editable column.
type Field struct {
	Column   string
	Kind     FieldKind
	Required bool
	MaxLen   int
}

func (f Field) Normalize(raw any) (any, error) {
	s := toString(raw)
	if s == "" {
		if f.Required {
			return nil, fmt.Errorf("%s es requerido", f.Column)
		}
		return f.zero(), nil
	}

	var (
		v   any
		err error
	)
	switch f.Kind {
	case FieldString:
		max := f.MaxLen
		if max == 0 {
			max = utils.DefaultMaxLen
		}
		v = utils.SafeString(s, max, true)
	case FieldClave:
		v, err = utils.SafeClave(s)
	case FieldInt, FieldRef:
		var n int64
		n, err = strconv.ParseInt(s, 10, 64)
		if err == nil && f.Kind == FieldRef && n <= 0 {
			err = utils.ErrInvalid
		}
		v = n
	case FieldDecimal:
		v, err = decimal.NewFromString(s)
	case FieldDate:
		v, err = time.Parse("2006-01-02", s)
	case FieldBool:
		v, err = strconv.ParseBool(s)
	case FieldEmail:
		v, err = utils.SafeEmail(s, false)
	case FieldRFC:
		v, err = utils.SafeRFC(s, false)
	case FieldCURP:
		v, err = utils.SafeCURP(s, false)
	case FieldQuincena:
		v, err = utils.SafeQuincena(s)
	}
	if err != nil {
		return nil, fmt.Errorf("%s inválido: %w", f.Column, err)
	}
	return v, nil
}

func toString(raw any) string {
	switch x := raw.(type) {
	case nil:
		return ""
	case string:
		return strings.TrimSpace(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return strings.TrimSpace(fmt.Sprint(x))
	}
}

func (f Field) zero() any {
	switch f.Kind {
	case FieldInt:
		return int64(0)
	case FieldDecimal:
		return decimal.Zero
	case FieldBool:
		return false
	case FieldRef, FieldDate:
		return nil
	}
	return ""
}

// Values normalizes a request body into column values. Unknown keys are
// ignored. With partial set, missing keys are left out.
func (r *Resource) Values(body map[string]any, partial bool) (map[string]any, error) {
	out := make(map[string]any, len(r.Fields))
	for _, f := range r.Fields {
		raw, ok := body[f.Column]
		if !ok && partial {
			continue
		}
		v, err := f.Normalize(raw)
		if err != nil {
			return nil, err
		}
		out[f.Column] = v
	}
	return out, nil
}
