package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/restockly/backend/internal/domain"
)

// RecommendationsCSV renders recommendations as a CSV document for archiving
// and download.
func RecommendationsCSV(recs []domain.ReorderRecommendation) []byte {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	_ = w.Write([]string{
		"sku",
		"product_name",
		"current_quantity",
		"current_reorder_point",
		"optimized_reorder_point",
		"optimal_reorder_quantity",
		"selected_supplier_id",
		"estimated_cost",
		"notes",
	})

	for _, rec := range recs {
		_ = w.Write([]string{
			rec.SKU,
			rec.ProductName,
			fmt.Sprintf("%v", rec.CurrentQuantity),
			fmt.Sprintf("%v", rec.CurrentReorderPoint),
			fmt.Sprintf("%v", rec.OptimizedReorderPoint),
			fmt.Sprintf("%v", rec.OptimalReorderQuantity),
			rec.SelectedSupplierID,
			fmt.Sprintf("%.2f", rec.EstimatedCost),
			strings.Join(rec.Notes, "; "),
		})
	}

	w.Flush()
	return buf.Bytes()
}
