package composition

import (
	"context"

	ptypes "github.com/turtacn/perovskite-json/pkg/types/perovskite"
)

// DocumentRepository persists encoded documents.  Save receives a
// destination whose file name is already normalised and returns the location
// it wrote to; Load accepts such a location back.
type DocumentRepository interface {
	Save(ctx context.Context, dest ptypes.Destination, data []byte) (string, error)
	Load(ctx context.Context, location string) ([]byte, error)
}
