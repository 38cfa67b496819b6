package iosys

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

// stdioDriver implements the "stdin"/"stdout" IO types (spec.md §4.7):
// reads of facts from os.Stdin, writes of facts to os.Stdout, sharing the
// same delimiter/headers directive handling as the file driver.
type stdioDriver struct {
	write     bool
	delimiter string
	headers   bool
}

func newStdinDriver(directives map[string]string) (Driver, error) {
	return stdioOf(directives, false), nil
}

func newStdoutDriver(directives map[string]string) (Driver, error) {
	return stdioOf(directives, true), nil
}

func stdioOf(directives map[string]string, write bool) *stdioDriver {
	delim := directives["delimiter"]
	if delim == "" {
		delim = "\t"
	}
	headers, _ := strconv.ParseBool(directives["headers"])
	return &stdioDriver{write: write, delimiter: delim, headers: headers}
}

func (d *stdioDriver) Read(schema Schema, symbols *symbol.Table) ([][]domain.Value, error) {
	var rows [][]domain.Value
	scanner := bufio.NewScanner(os.Stdin)
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
		row, err := parseRow(strings.Split(line, d.delimiter), schema, symbols)
		if err != nil {
			return nil, err
		}
		rows = append(rows, row)
	}
	return rows, scanner.Err()
}

func (d *stdioDriver) Write(schema Schema, symbols *symbol.Table, rows [][]domain.Value) error {
	w := bufio.NewWriter(os.Stdout)
	defer w.Flush()
	if d.headers {
		names := make([]string, schema.Arity)
		for i := range names {
			names[i] = "c" + strconv.Itoa(i)
		}
		fmt.Fprintln(w, strings.Join(names, d.delimiter))
	}
	for _, row := range rows {
		fields := make([]string, len(row))
		for i, v := range row {
			fields[i] = formatField(v, schema.Columns[i], symbols)
		}
		fmt.Fprintln(w, strings.Join(fields, d.delimiter))
	}
	return w.Flush()
}

func (d *stdioDriver) Printsize(count int) error {
	_, err := fmt.Fprintln(os.Stdout, count)
	return err
}
