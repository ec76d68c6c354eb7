package ports

import (
	"io"

	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// Exporter serializa una selección para descarga.
type Exporter interface {
	ContentType() string
	ExportRequests(w io.Writer, items []*entity.Request) error
	ExportClients(w io.Writer, items []*entity.Client) error
}
