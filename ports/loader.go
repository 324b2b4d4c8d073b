package ports

import (
	"context"

	"tabprep/domain/datareadiness/ingestion"
)

// RecordsetLoaderPort turns an external file into a recordset
type RecordsetLoaderPort interface {
	Load(ctx context.Context, path string) (ingestion.Recordset, error)
}
