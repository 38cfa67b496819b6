package iosys

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"

	"github.com/boltdb/bolt"
	"github.com/pkg/errors"

	"github.com/ramlog/ramlog/domain"
	"github.com/ramlog/ramlog/symbol"
)

// boltDriver implements the "bolt" IO type: an embedded-KV alternative to
// the "optional sqlite" backend named in spec.md §4.7/§6 (see DESIGN.md for
// why boltdb stands in for sqlite here). One bucket per relation, keyed by
// a monotonically increasing row sequence; a tuple's fields are stored
// delimiter-joined in the bucket value, same textual encoding as the file
// driver so parseRow/formatField are reused unchanged.
type boltDriver struct {
	path      string
	bucket    string
	delimiter string
}

func newBoltDriver(directives map[string]string) (Driver, error) {
	path, ok := directives["filename"]
	if !ok {
		return nil, ErrMissingDirective.New("filename", "bolt")
	}
	bucket := directives["bucket"]
	if bucket == "" {
		bucket = directives["__relation"]
	}
	delim := directives["delimiter"]
	if delim == "" {
		delim = "\t"
	}
	return &boltDriver{path: path, bucket: bucket, delimiter: delim}, nil
}

func (d *boltDriver) open() (*bolt.DB, error) {
	db, err := bolt.Open(d.path, 0o600, &bolt.Options{Timeout: 5 * time.Second})
	if err != nil {
		return nil, errors.Wrapf(err, "iosys: opening bolt db %q", d.path)
	}
	return db, nil
}

func (d *boltDriver) Read(schema Schema, symbols *symbol.Table) ([][]domain.Value, error) {
	db, err := d.open()
	if err != nil {
		return nil, err
	}
	defer db.Close()

	var rows [][]domain.Value
	err = db.View(func(tx *bolt.Tx) error {
		b := tx.Bucket([]byte(d.bucket))
		if b == nil {
			return nil
		}
		return b.ForEach(func(k, v []byte) error {
			row, err := parseRow(strings.Split(string(v), d.delimiter), schema, symbols)
			if err != nil {
				return errors.Wrapf(err, "iosys: bucket %q key %x", d.bucket, k)
			}
			rows = append(rows, row)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (d *boltDriver) Write(schema Schema, symbols *symbol.Table, rows [][]domain.Value) error {
	db, err := d.open()
	if err != nil {
		return err
	}
	defer db.Close()

	return db.Update(func(tx *bolt.Tx) error {
		// Replace the bucket's contents wholesale: a relation is a set
		// snapshot at write time, not an append log (spec.md §4.1
		// "operators see a set, not a multiset").
		if err := tx.DeleteBucket([]byte(d.bucket)); err != nil && err != bolt.ErrBucketNotFound {
			return err
		}
		b, err := tx.CreateBucket([]byte(d.bucket))
		if err != nil {
			return errors.Wrapf(err, "iosys: recreating bucket %q", d.bucket)
		}
		for i, row := range rows {
			fields := make([]string, len(row))
			for j, v := range row {
				fields[j] = formatField(v, schema.Columns[j], symbols)
			}
			key := make([]byte, 8)
			binary.BigEndian.PutUint64(key, uint64(i))
			if err := b.Put(key, []byte(strings.Join(fields, d.delimiter))); err != nil {
				return err
			}
		}
		return nil
	})
}

func (d *boltDriver) Printsize(count int) error {
	db, err := d.open()
	if err != nil {
		return err
	}
	defer db.Close()
	return db.Update(func(tx *bolt.Tx) error {
		b, err := tx.CreateBucketIfNotExists([]byte("__printsize"))
		if err != nil {
			return err
		}
		return b.Put([]byte(d.bucket), []byte(strconv.Itoa(count)))
	})
}
