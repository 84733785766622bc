// backend/internal/ingest/csv.go
package ingest

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/restockly/backend/internal/domain"
	"github.com/rs/zerolog/log"
)

// Snapshot file readers for batch runs. Headers are matched loosely (case,
// spacing and separators are ignored) so exports from different tools load
// without manual cleanup. Malformed rows are rejected one at a time with a
// warning, never failing the whole file.

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// csvTable is one parsed CSV file with header lookups resolved.
type csvTable struct {
	path   string
	header []string
	rows   [][]string
}

func readCSV(path string) (*csvTable, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read header of %s: %w", path, err)
	}

	var rows [][]string
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		rows = append(rows, record)
	}

	return &csvTable{path: path, header: header, rows: rows}, nil
}

// colIndex finds the first header matching any of the given names.
func (t *csvTable) colIndex(names ...string) int {
	targets := make(map[string]struct{}, len(names))
	for _, name := range names {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range t.header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func get(record []string, idx int) string {
	if idx < 0 || idx >= len(record) {
		return ""
	}
	return strings.TrimSpace(record[idx])
}

func parseFloat(record []string, idx int) (float64, error) {
	v := get(record, idx)
	if v == "" {
		return 0, nil
	}
	v = strings.ReplaceAll(v, ",", "")
	return strconv.ParseFloat(v, 64)
}

var dateLayouts = []string{"2006-01-02", "20060102", "02/01/2006"}

func parseDate(record []string, idx int) (time.Time, error) {
	v := get(record, idx)
	if v == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}
	for _, layout := range dateLayouts {
		if d, err := time.Parse(layout, v); err == nil {
			return d, nil
		}
	}
	return time.Time{}, fmt.Errorf("unparsable date %q", v)
}

// ReadSalesHistory loads sales records from a CSV with columns
// sku, date, quantity_sold.
func ReadSalesHistory(path string) ([]domain.SalesRecord, error) {
	table, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idxSKU := table.colIndex("sku")
	idxDate := table.colIndex("date", "sale date")
	idxQty := table.colIndex("quantity_sold", "quantity", "qty sold")
	if idxSKU < 0 || idxDate < 0 || idxQty < 0 {
		return nil, fmt.Errorf("%s: missing required columns (sku, date, quantity_sold)", path)
	}

	records := make([]domain.SalesRecord, 0, len(table.rows))
	for i, row := range table.rows {
		sku := get(row, idxSKU)
		if sku == "" {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping sales row with empty sku")
			continue
		}
		date, err := parseDate(row, idxDate)
		if err != nil {
			log.Warn().Str("file", path).Int("row", i+2).Err(err).Msg("ingest: skipping sales row")
			continue
		}
		qty, err := parseFloat(row, idxQty)
		if err != nil {
			log.Warn().Str("file", path).Int("row", i+2).Err(err).Msg("ingest: skipping sales row")
			continue
		}
		records = append(records, domain.SalesRecord{SKU: sku, Date: date, QuantitySold: qty})
	}
	return records, nil
}

// ReadInventory loads inventory snapshots from a CSV with columns
// sku, name, quantity, unit_cost, reorder_point, category.
func ReadInventory(path string) ([]domain.InventorySnapshot, error) {
	table, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idxSKU := table.colIndex("sku")
	idxName := table.colIndex("name", "product name")
	idxQty := table.colIndex("quantity", "stock", "on hand")
	idxCost := table.colIndex("unit_cost", "cost")
	idxReorder := table.colIndex("reorder_point")
	idxCategory := table.colIndex("category")
	if idxSKU < 0 || idxQty < 0 {
		return nil, fmt.Errorf("%s: missing required columns (sku, quantity)", path)
	}

	items := make([]domain.InventorySnapshot, 0, len(table.rows))
	for i, row := range table.rows {
		sku := get(row, idxSKU)
		if sku == "" {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping inventory row with empty sku")
			continue
		}
		qty, err := parseFloat(row, idxQty)
		if err != nil {
			log.Warn().Str("file", path).Int("row", i+2).Err(err).Msg("ingest: skipping inventory row")
			continue
		}
		cost, _ := parseFloat(row, idxCost)
		reorder, _ := parseFloat(row, idxReorder)
		items = append(items, domain.InventorySnapshot{
			SKU:          sku,
			Name:         get(row, idxName),
			Quantity:     qty,
			UnitCost:     cost,
			ReorderPoint: reorder,
			Category:     get(row, idxCategory),
		})
	}
	return items, nil
}

// ReadLeadTimes loads supplier lead times from a CSV with columns
// sku, supplier_id, lead_time_days.
func ReadLeadTimes(path string) ([]domain.LeadTime, error) {
	table, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idxSKU := table.colIndex("sku")
	idxSupplier := table.colIndex("supplier_id", "supplier")
	idxLead := table.colIndex("lead_time_days", "lead time")
	if idxSKU < 0 || idxLead < 0 {
		return nil, fmt.Errorf("%s: missing required columns (sku, lead_time_days)", path)
	}

	leadTimes := make([]domain.LeadTime, 0, len(table.rows))
	for i, row := range table.rows {
		sku := get(row, idxSKU)
		if sku == "" {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping lead time row with empty sku")
			continue
		}
		lead, err := parseFloat(row, idxLead)
		if err != nil || lead < 0 {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping lead time row with bad lead time")
			continue
		}
		leadTimes = append(leadTimes, domain.LeadTime{
			SKU:          sku,
			SupplierID:   get(row, idxSupplier),
			LeadTimeDays: int(lead),
		})
	}
	return leadTimes, nil
}

// ReadDiscountTiers loads bulk-discount tiers from a CSV with columns
// supplier_id, sku, min_quantity, discount_percentage.
func ReadDiscountTiers(path string) ([]domain.DiscountTier, error) {
	table, err := readCSV(path)
	if err != nil {
		return nil, err
	}

	idxSupplier := table.colIndex("supplier_id", "supplier")
	idxSKU := table.colIndex("sku")
	idxMinQty := table.colIndex("min_quantity", "min qty")
	idxPct := table.colIndex("discount_percentage", "discount pct", "discount")
	if idxSKU < 0 || idxMinQty < 0 || idxPct < 0 {
		return nil, fmt.Errorf("%s: missing required columns (sku, min_quantity, discount_percentage)", path)
	}

	tiers := make([]domain.DiscountTier, 0, len(table.rows))
	for i, row := range table.rows {
		sku := get(row, idxSKU)
		if sku == "" {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping discount tier with empty sku")
			continue
		}
		minQty, err := parseFloat(row, idxMinQty)
		if err != nil {
			log.Warn().Str("file", path).Int("row", i+2).Err(err).Msg("ingest: skipping discount tier")
			continue
		}
		pct, err := parseFloat(row, idxPct)
		if err != nil || pct < 0 || pct >= 100 {
			log.Warn().Str("file", path).Int("row", i+2).Msg("ingest: skipping discount tier with bad percentage")
			continue
		}
		tiers = append(tiers, domain.DiscountTier{
			SupplierID:         get(row, idxSupplier),
			SKU:                sku,
			MinQuantity:        minQty,
			DiscountPercentage: pct,
		})
	}
	return tiers, nil
}
