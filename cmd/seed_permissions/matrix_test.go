package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/encoding/charmap"

	"github.com/iptegra/nexus-api/internal/domain/permission"
)

const sheet = `clave;BACKEND;Comercial
track_time;x;
create_client;;Sí
# comentario;x;x
ver_reportes_nuevos;1;no
`

func TestParseMatrix(t *testing.T) {
	m, err := parseMatrix(strings.NewReader(sheet), ';')
	require.NoError(t, err)

	assert.Equal(t, []string{"BACKEND", "COMERCIAL"}, m.roles)
	assert.True(t, m.grants["BACKEND"][permission.TrackTime])
	assert.False(t, m.grants["COMERCIAL"][permission.TrackTime])
	assert.True(t, m.grants["COMERCIAL"][permission.CreateClient])
	assert.Equal(t, []string{"ver_reportes_nuevos"}, m.unknown, "las claves desconocidas se avisan pero se conservan")
	assert.True(t, m.grants["BACKEND"]["ver_reportes_nuevos"])
}

func TestParseMatrix_RolRepetido(t *testing.T) {
	_, err := parseMatrix(strings.NewReader("clave;BACKEND;backend\n"), ';')
	assert.Error(t, err)
}

func TestDecodeReader_ISO88591(t *testing.T) {
	raw, err := charmap.ISO8859_1.NewEncoder().String("clave;COMERCIAL\ncreate_client;Sí\n")
	require.NoError(t, err)

	r, err := decodeReader(strings.NewReader(raw), "ISO-8859-1")
	require.NoError(t, err)
	m, err := parseMatrix(r, ';')
	require.NoError(t, err)
	assert.True(t, m.grants["COMERCIAL"][permission.CreateClient], "Sí en latin1 debe leerse como concedido")

	_, err = decodeReader(strings.NewReader(""), "ebcdic")
	assert.Error(t, err)
}

func TestWriteSQL(t *testing.T) {
	m, err := parseMatrix(strings.NewReader(sheet), ';')
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeSQL(&buf, "c1", m))
	sql := buf.String()

	assert.Contains(t, sql, "ON CONFLICT (company_id, name) DO NOTHING;")
	assert.Contains(t, sql, "('track_time', true)")
	assert.Contains(t, sql, "WHERE r.company_id = 'c1' AND r.name = 'COMERCIAL'")
	assert.Equal(t, roleID("c1", "BACKEND"), roleID("c1", "BACKEND"), "id estable entre ejecuciones")
	assert.NotEqual(t, roleID("c1", "BACKEND"), roleID("c2", "BACKEND"))
}
