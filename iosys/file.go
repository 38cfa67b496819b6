package iosys

import (
	"bufio"
	"os"
	"strconv"
	"strings"

	"github.com/pkg/errors"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

// fileDriver implements the "file" IO type: one fact file per relation,
// fields separated by a configurable delimiter (default tab), no trailing
// delimiter, optional header line, optional "\r" stripped (spec.md §6
// "Fact file format").
type fileDriver struct {
	filename  string
	delimiter string
	headers   bool
}

func newFileDriver(directives map[string]string) (Driver, error) {
	filename, ok := directives["filename"]
	if !ok {
		return nil, ErrMissingDirective.New("filename", "file")
	}
	delim := directives["delimiter"]
	if delim == "" {
		delim = "\t"
	}
	headers, _ := strconv.ParseBool(directives["headers"])
	return &fileDriver{filename: filename, delimiter: delim, headers: headers}, nil
}

func (d *fileDriver) Read(schema Schema, symbols *symbol.Table) ([][]domain.Value, error) {
	f, err := os.Open(d.filename)
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: opening fact file %q", d.filename)
	}
	defer f.Close()

	var rows [][]domain.Value
	scanner := bufio.NewScanner(f)
	first := true
	for scanner.Scan() {
		line := strings.TrimSuffix(scanner.Text(), "\r")
		if first && d.headers {
			first = false
			continue
		}
		first = false
		if line == "" {
			continue
		}
		fields := strings.Split(line, d.delimiter)
		row, err := parseRow(fields, schema, symbols)
		if err != nil {
			return nil, errors.Wrapf(err, "iosys: parsing %q", d.filename)
		}
		rows = append(rows, row)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.Wrapf(err, "iosys: reading %q", d.filename)
	}
	return rows, nil
}

func (d *fileDriver) Write(schema Schema, symbols *symbol.Table, rows [][]domain.Value) error {
	f, err := os.Create(d.filename)
	if err != nil {
		return errors.Wrapf(err, "iosys: creating fact file %q", d.filename)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	defer w.Flush()

	if d.headers {
		names := make([]string, schema.Arity)
		for i := range names {
			names[i] = "c" + strconv.Itoa(i)
		}
		w.WriteString(strings.Join(names, d.delimiter))
		w.WriteString("\n")
	}
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = formatField(v, schema.Columns[i], symbols)
		}
		w.WriteString(strings.Join(fields, d.delimiter))
		w.WriteString("\n")
	}
	return w.Flush()
}

func (d *fileDriver) Printsize(count int) error {
	f, err := os.Create(d.filename)
	if err != nil {
		return errors.Wrapf(err, "iosys: creating printsize file %q", d.filename)
	}
	defer f.Close()
	_, err = f.WriteString(strconv.Itoa(count) + "\n")
	return err
}
