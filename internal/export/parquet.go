package export

import (
	"fmt"

	"github.com/xitongsys/parquet-go-source/buffer"
	"github.com/xitongsys/parquet-go/parquet"
	"github.com/xitongsys/parquet-go/writer"

	"creditflow/internal/coerce"
	"creditflow/internal/model"
)

// priceRow is the typed parquet schema for one price observation. Numeric
// columns carry the coerced values; rows where price itself does not parse are
// skipped.
type priceRow struct {
	Ticker   string  `parquet:"name=ticker, type=BYTE_ARRAY, convertedtype=UTF8"`
	Date     string  `parquet:"name=date, type=BYTE_ARRAY, convertedtype=UTF8"`
	Price    float64 `parquet:"name=price, type=DOUBLE"`
	YTM      float64 `parquet:"name=ytm, type=DOUBLE"`
	Spread   float64 `parquet:"name=spread, type=DOUBLE"`
	Duration float64 `parquet:"name=duration, type=DOUBLE"`
}

// PriceParquet renders one ticker's price series as an in-memory parquet
// file.
func PriceParquet(series []model.PriceObservation) ([]byte, error) {
	fw := buffer.NewBufferFile()

	pw, err := writer.NewParquetWriter(fw, new(priceRow), 1)
	if err != nil {
		return nil, fmt.Errorf("create parquet writer: %w", err)
	}
	pw.CompressionType = parquet.CompressionCodec_SNAPPY

	for _, p := range series {
		price, ok := coerce.Number(p.Price)
		if !ok {
			continue
		}
		row := priceRow{
			Ticker: p.Ticker,
			Date:   p.Date,
			Price:  price,
		}
		if v, ok := coerce.Number(p.YTM); ok {
			row.YTM = v
		}
		if v, ok := coerce.Number(p.Spread); ok {
			row.Spread = v
		}
		if v, ok := coerce.Number(p.Duration); ok {
			row.Duration = v
		}
		if err := pw.Write(row); err != nil {
			return nil, fmt.Errorf("write parquet row: %w", err)
		}
	}

	if err := pw.WriteStop(); err != nil {
		return nil, fmt.Errorf("finalize parquet: %w", err)
	}
	if err := fw.Close(); err != nil {
		return nil, fmt.Errorf("close parquet buffer: %w", err)
	}
	return fw.Bytes(), nil
}
