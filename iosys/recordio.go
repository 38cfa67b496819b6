// Intermediate record and symbol-table persistence, spec.md §6
// "Intermediate record files" / "symbol-table file": these run alongside
// fact-file IO when the interpreter is asked to persist its interned state
// (e.g. between a producer and consumer run sharing the same symbol/record
// indices), not per relation.
package iosys

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ramlog/ramlog/record"
	"github.com/ramlog/ramlog/symbol"
)

// WriteSymbolTable persists t to path as "count" on the first line followed
// by one "symbol TAB index" line per entry (spec.md §6).
func WriteSymbolTable(path string, t *symbol.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "iosys: creating symbol table file %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()
	fmt.Fprintln(w, t.Len())
	for i := int32(0); i < int32(t.Len()); i++ {
		fmt.Fprintf(w, "%s\t%d\n", t.Resolve(i), i)
	}
	return w.Flush()
}

// ReadSymbolTable loads a symbol table file written by WriteSymbolTable,
// re-inserting each entry at its original index via symbol.Table.LoadIndexed
// so indices interned by an earlier run stay stable across the reload
// (spec.md §3.2 "indices are stable for a program's lifetime").
func ReadSymbolTable(path string) (*symbol.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: opening symbol table file %q", path)
	}
	defer f.Close()

	t := symbol.New()
	release := t.Lease()
	defer release()
	scanner := bufio.NewScanner(f)
	if !scanner.Scan() {
		return t, nil
	}
	for scanner.Scan() {
		line := scanner.Text()
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		idx, err := strconv.ParseInt(parts[1], 10, 32)
		if err != nil {
			return nil, errors.Wrapf(err, "iosys: parsing symbol table line %q", line)
		}
		t.LoadIndexed(int32(idx), parts[0])
	}
	return t, scanner.Err()
}

// recordLine is one line of the intermediate record file: "arity TAB
// recordIndex TAB field0 TAB field1 ..." (spec.md §6).
func recordLine(arity int, idx int64, fields []int64) string {
	parts := make([]string, 0, arity+2)
	parts = append(parts, strconv.Itoa(arity), strconv.FormatInt(idx, 10))
	for _, f := range fields {
		parts = append(parts, strconv.FormatInt(f, 10))
	}
	return strings.Join(parts, "\t")
}

// WriteRecordTable persists every interned record in t to path, one line
// per record, in index order (spec.md §6).
func WriteRecordTable(path string, t *record.Table) error {
	f, err := os.Create(path)
	if err != nil {
		return errors.Wrapf(err, "iosys: creating record table file %q", path)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()
	var werr error
	t.Each(func(idx int64, data []int64) {
		if werr != nil {
			return
		}
		_, werr = fmt.Fprintln(w, recordLine(len(data), idx, data))
	})
	if werr != nil {
		return errors.Wrapf(werr, "iosys: writing record table file %q", path)
	}
	return w.Flush()
}

// ReadRecordTable loads a record table file written by WriteRecordTable,
// re-interning each record's flattened fields (pack is idempotent, spec.md
// §3.3, so re-packing the same fields in file order reproduces the original
// index assignment as long as the file was written in index order).
func ReadRecordTable(path string) (*record.Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: opening record table file %q", path)
	}
	defer f.Close()

	t := record.New()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if line == "" {
			continue
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 2 {
			continue
		}
		arity, err := strconv.Atoi(parts[0])
		if err != nil {
			return nil, errors.Wrapf(err, "iosys: parsing record table line %q", line)
		}
		fields := make([]int64, 0, arity)
		for _, p := range parts[2:] {
			v, err := strconv.ParseInt(p, 10, 64)
			if err != nil {
				return nil, errors.Wrapf(err, "iosys: parsing record table line %q", line)
			}
			fields = append(fields, v)
		}
		t.Pack(fields, arity)
	}
	return t, scanner.Err()
}
