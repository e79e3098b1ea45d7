package pgdata

import (
	"fmt"
	"strconv"
	"strings"
)

// Row is one flat record from a PadGuide dataset. Every value is a string,
// numeric fields included.
type Row map[string]string

// rowReader parses typed fields out of a Row and remembers the first error so
// that a record constructor can read every field and check once.
type rowReader struct {
	row Row
	err error
}

func (r *rowReader) fail(field string, err error) {
	if r.err == nil {
		r.err = fmt.Errorf("field %s: %w", field, err)
	}
}

func (r *rowReader) str(field string) string {
	return r.row[field]
}

// int parses a required integer field.
func (r *rowReader) int(field string) int {
	v, ok := r.row[field]
	if !ok {
		r.fail(field, errMissingField)
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		r.fail(field, err)
		return 0
	}
	return n
}

// optInt parses an integer field where the empty string means absent.
func (r *rowReader) optInt(field string) (int, bool) {
	v := strings.TrimSpace(r.row[field])
	if v == "" {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		r.fail(field, err)
		return 0, false
	}
	return n, true
}
