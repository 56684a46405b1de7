package csvio

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"

	derrors "github.com/datagroom/datagroom/internal/errors"
	"github.com/datagroom/datagroom/pkg/types"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Write streams the table as RFC 4180 CSV. withBOM prepends the UTF-8 byte
// order mark so that Excel and Power BI pick up the encoding. Missing cells
// render as empty fields, times as RFC 3339.
func Write(w io.Writer, t types.Table, withBOM bool) error {
	if withBOM {
		if _, err := w.Write(utf8BOM); err != nil {
			return err
		}
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(t.ColumnNames()); err != nil {
		return err
	}
	record := make([]string, t.NumCols())
	for r := 0; r < t.NumRows(); r++ {
		for i, c := range t.Cols {
			record[i] = c.Cells[r].String()
		}
		if err := cw.Write(record); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// Export writes the table to a CSV file.
func Export(t types.Table, path string, withBOM bool) error {
	f, err := os.Create(path)
	if err != nil {
		return derrors.NewLoadError(derrors.CodeMalformedCSV,
			fmt.Sprintf("cannot create %s", path), err)
	}
	defer f.Close()

	bw := bufio.NewWriter(f)
	if err := Write(bw, t, withBOM); err != nil {
		return err
	}
	return bw.Flush()
}
