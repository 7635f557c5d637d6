package export

import (
	"encoding/csv"
	"io"

	"catchup-feed/internal/domain/entity"
)

// CSVWriter is the one concrete Writer shipped today. It writes the header
// row followed by one row per event, in Columns order.
type CSVWriter struct{}

// NewCSVWriter builds a CSVWriter.
func NewCSVWriter() *CSVWriter {
	return &CSVWriter{}
}

// Write implements Writer.
func (CSVWriter) Write(w io.Writer, events []entity.EventRecord) error {
	if len(events) == 0 {
		return ErrNoEvents
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return err
	}
	for _, e := range events {
		if err := cw.Write(Row(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
