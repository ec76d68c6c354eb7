package main

import (
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/google/uuid"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"

	"github.com/iptegra/nexus-api/internal/domain/permission"
)

// matrix permisos por rol leídos de la hoja: rol → clave → concedido.
type matrix struct {
	roles   []string
	grants  map[string]map[permission.Key]bool
	unknown []string
}

// decodeReader aplica la codificación de la exportación. Excel en español guarda ISO-8859-1.
func decodeReader(r io.Reader, encoding string) (io.Reader, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "", "utf-8", "utf8":
		return r, nil
	case "iso-8859-1", "iso8859-1", "latin1":
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder()), nil
	case "windows-1252", "cp1252":
		return transform.NewReader(r, charmap.Windows1252.NewDecoder()), nil
	}
	return nil, fmt.Errorf("codificación %q no soportada", encoding)
}

// parseMatrix lee la hoja: primera fila "clave;ROL_1;ROL_2...", una fila por clave.
// Una celda x, 1, si, sí o true concede; cualquier otro valor deniega.
func parseMatrix(r io.Reader, delimiter rune) (*matrix, error) {
	cr := csv.NewReader(r)
	cr.Comma = delimiter
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("leer cabecera: %w", err)
	}
	if len(header) < 2 {
		return nil, fmt.Errorf("la cabecera debe tener la columna de clave y al menos un rol")
	}
	m := &matrix{grants: make(map[string]map[permission.Key]bool)}
	for _, h := range header[1:] {
		role := strings.ToUpper(strings.TrimSpace(h))
		if role == "" {
			return nil, fmt.Errorf("columna de rol sin nombre")
		}
		if _, dup := m.grants[role]; dup {
			return nil, fmt.Errorf("rol %s repetido", role)
		}
		m.roles = append(m.roles, role)
		m.grants[role] = make(map[permission.Key]bool)
	}

	line := 1
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("línea %d: %w", line, err)
		}
		key := permission.Key(strings.TrimSpace(rec[0]))
		if key == "" || strings.HasPrefix(string(key), "#") {
			continue
		}
		if !permission.Known(key) {
			m.unknown = append(m.unknown, string(key))
		}
		for i, role := range m.roles {
			cell := ""
			if i+1 < len(rec) {
				cell = rec[i+1]
			}
			m.grants[role][key] = granted(cell)
		}
	}
	return m, nil
}

func granted(cell string) bool {
	switch strings.ToLower(strings.TrimSpace(cell)) {
	case "x", "1", "si", "sí", "true":
		return true
	}
	return false
}

// roleID id estable por (company, rol): volver a ejecutar el seed no duplica roles.
func roleID(companyID, role string) string {
	return uuid.NewSHA1(uuid.NameSpaceOID, []byte(companyID+"/"+role)).String()
}

// writeSQL escribe el script idempotente de roles y role_permissions.
func writeSQL(w io.Writer, companyID string, m *matrix) error {
	var b strings.Builder
	b.WriteString("-- Matriz de permisos por rol\n")
	fmt.Fprintf(&b, "-- company: %s\n\n", companyID)

	b.WriteString("-- 1. Roles\n")
	b.WriteString("INSERT INTO roles (id, company_id, name) VALUES\n")
	for i, role := range m.roles {
		sep := ","
		if i == len(m.roles)-1 {
			sep = ""
		}
		fmt.Fprintf(&b, "  ('%s', '%s', '%s')%s\n", roleID(companyID, role), escapeSQL(companyID), escapeSQL(role), sep)
	}
	b.WriteString("ON CONFLICT (company_id, name) DO NOTHING;\n\n")

	b.WriteString("-- 2. Permisos\n")
	for _, role := range m.roles {
		keys := make([]string, 0, len(m.grants[role]))
		for k := range m.grants[role] {
			keys = append(keys, string(k))
		}
		if len(keys) == 0 {
			continue
		}
		sort.Strings(keys)
		fmt.Fprintf(&b, "-- %s\n", role)
		b.WriteString("INSERT INTO role_permissions (role_id, permission_key, granted)\n")
		b.WriteString("SELECT r.id, v.key, v.granted FROM roles r, (VALUES\n")
		for i, k := range keys {
			sep := ","
			if i == len(keys)-1 {
				sep = ""
			}
			fmt.Fprintf(&b, "    ('%s', %t)%s\n", escapeSQL(k), m.grants[role][permission.Key(k)], sep)
		}
		fmt.Fprintf(&b, ") AS v(key, granted)\nWHERE r.company_id = '%s' AND r.name = '%s'\n", escapeSQL(companyID), escapeSQL(role))
		b.WriteString("ON CONFLICT (role_id, permission_key) DO UPDATE SET granted = EXCLUDED.granted;\n\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func escapeSQL(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
