package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/san-kum/clothsim/internal/sim"
)

// WriteCSV writes one row per frame: the time followed by every probe.
func WriteCSV(w io.Writer, result *sim.Result) error {
	cw := csv.NewWriter(w)

	header := append([]string{"time"}, result.Probes...)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}

	row := make([]string, len(header))
	for i, values := range result.Samples {
		row = row[:0]
		row = append(row, strconv.FormatFloat(result.Times[i], 'f', 6, 64))
		for _, val := range values {
			row = append(row, strconv.FormatFloat(val, 'f', 6, 64))
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("export: write csv: %w", err)
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export: write csv: %w", err)
	}
	return nil
}

func ExportCSV(path string, result *sim.Result) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("export: %w", err)
	}
	defer file.Close()

	if err := WriteCSV(file, result); err != nil {
		return err
	}
	return file.Close()
}
