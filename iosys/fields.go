package iosys

import (
	"strconv"

	"github.com/pkg/errors"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

// parseField converts one raw CSV-like field into a domain.Value per its
// declared column kind (spec.md §6: "Symbol fields are raw strings; numeric
// fields parse per their declared type").
func parseField(raw string, kind domain.Kind, symbols *symbol.Table) (domain.Value, error) {
	switch kind {
	case domain.KindSymbol:
		return domain.FromSymbol(symbols.Lookup(raw)), nil
	case domain.KindUnsigned:
		u, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			return domain.FromUnsigned(0), errors.Wrapf(err, "parsing unsigned field %q", raw)
		}
		return domain.FromUnsigned(u), nil
	case domain.KindFloat:
		f, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return domain.FromFloat(0), errors.Wrapf(err, "parsing float field %q", raw)
		}
		return domain.FromFloat(f), nil
	case domain.KindRecord:
		// Record fields are written/read as their packed index, same shape
		// as the intermediate record file format (spec.md §6).
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.FromRecord(0), errors.Wrapf(err, "parsing record field %q", raw)
		}
		return domain.FromRecord(i), nil
	default:
		i, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return domain.FromSigned(0), errors.Wrapf(err, "parsing signed field %q", raw)
		}
		return domain.FromSigned(i), nil
	}
}

// formatField is parseField's inverse for writing.
func formatField(v domain.Value, kind domain.Kind, symbols *symbol.Table) string {
	switch kind {
	case domain.KindSymbol:
		return symbols.Resolve(domain.ToSymbol(v))
	case domain.KindUnsigned:
		return strconv.FormatUint(domain.ToUnsigned(v), 10)
	case domain.KindFloat:
		return strconv.FormatFloat(domain.ToFloat(v), 'g', -1, 64)
	case domain.KindRecord:
		return strconv.FormatInt(domain.ToRecord(v), 10)
	default:
		return strconv.FormatInt(domain.ToSigned(v), 10)
	}
}

// parseRow parses one delimited line's fields against schema, one per
// column. A malformed field fails the whole row with a descriptive error
// (spec.md §4.7 "Readers fail with a descriptive error rather than crash on
// malformed input"); the caller (the interpreter's IO statement, spec.md §7
// kind (c)) logs it and leaves the relation empty rather than aborting
// evaluation.
func parseRow(fields []string, schema Schema, symbols *symbol.Table) ([]domain.Value, error) {
	if len(fields) != schema.Arity {
		return nil, errors.Errorf("expected %d fields, got %d", schema.Arity, len(fields))
	}
	row := make([]domain.Value, schema.Arity)
	for i, f := range fields {
		v, err := parseField(f, schema.Columns[i], symbols)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}
