package logging

import (
	"io"
	"log/slog"

	"github.com/Graylog2/go-gelf/gelf"
)

// DialGraylog opens a GELF UDP writer to address.
func DialGraylog(address, facility string) (*gelf.Writer, error) {
	w, err := gelf.NewWriter(address)
	if err != nil {
		return nil, err
	}
	if facility != "" {
		w.Facility = facility
	}
	return w, nil
}

// NewGELFHandler formats records as JSON into a GELF writer, one message per record.
func NewGELFHandler(w io.Writer, level string) slog.Handler {
	return slog.NewJSONHandler(w, handlerOptions(level))
}
