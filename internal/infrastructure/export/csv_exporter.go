package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/iptegra/nexus-api/internal/application/ports"
	"github.com/iptegra/nexus-api/internal/domain/entity"
)

// Codificaciones soportadas para la descarga.
const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
)

// CSVExporter exporta selecciones a CSV separado por ";" (lo que abre Excel en es-CO).
type CSVExporter struct {
	encoding string
}

var _ ports.Exporter = (*CSVExporter)(nil)

// NewCSVExporter crea el exportador. Una codificación desconocida es un error de configuración.
func NewCSVExporter(name string) (*CSVExporter, error) {
	enc := strings.ToLower(strings.TrimSpace(name))
	switch enc {
	case "", "utf8", EncodingUTF8:
		enc = EncodingUTF8
	case "cp1252", EncodingWindows1252:
		enc = EncodingWindows1252
	default:
		return nil, fmt.Errorf("codificación de exportación no soportada: %q", name)
	}
	return &CSVExporter{encoding: enc}, nil
}

func (e *CSVExporter) ContentType() string {
	return "text/csv; charset=" + e.encoding
}

func (e *CSVExporter) ExportRequests(w io.Writer, items []*entity.Request) error {
	rows := [][]string{{"numero", "titulo", "tipo", "estado", "prioridad", "cliente", "asignados", "horas_estimadas", "horas_reales", "creada"}}
	for _, r := range items {
		rows = append(rows, []string{
			r.RequestNumber,
			r.Title,
			string(r.Type),
			string(r.Status),
			string(r.Priority),
			r.ClientID,
			strings.Join(r.AssignedUsers, " "),
			r.EstimatedHours.String(),
			r.ActualHours.String(),
			r.CreatedAt.Format(time.DateOnly),
		})
	}
	return e.write(w, rows)
}

func (e *CSVExporter) ExportClients(w io.Writer, items []*entity.Client) error {
	rows := [][]string{{"nombre", "tier", "estado", "email", "telefono", "responsable", "creado"}}
	for _, c := range items {
		rows = append(rows, []string{
			c.Name,
			string(c.Tier),
			string(c.Status),
			c.Email,
			c.Phone,
			c.OwnerID,
			c.CreatedAt.Format(time.DateOnly),
		})
	}
	return e.write(w, rows)
}

func (e *CSVExporter) write(w io.Writer, rows [][]string) error {
	var tw *transform.Writer
	if e.encoding == EncodingWindows1252 {
		// Caracteres fuera de Windows-1252 se reemplazan en vez de abortar la exportación.
		tw = transform.NewWriter(w, encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()))
		w = tw
	}
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	if err := cw.WriteAll(rows); err != nil {
		return fmt.Errorf("escribir csv: %w", err)
	}
	if tw != nil {
		if err := tw.Close(); err != nil {
			return fmt.Errorf("codificar csv: %w", err)
		}
	}
	return nil
}
