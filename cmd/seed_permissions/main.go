// seed_permissions genera el script SQL de roles y permisos a partir de la hoja de cálculo
// de la matriz (exportada como CSV).
//
// Uso: go run ./cmd/seed_permissions --company <id> --in permisos.csv [--encoding iso-8859-1] [--out seed.sql]
// Sin --out escribe en la salida estándar.
package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/spf13/pflag"
)

func main() {
	in := pflag.StringP("in", "i", "permisos.csv", "CSV exportado de la matriz de permisos")
	out := pflag.StringP("out", "o", "", "archivo SQL de salida (por defecto stdout)")
	company := pflag.StringP("company", "c", "", "id de la company (obligatorio)")
	encoding := pflag.String("encoding", "iso-8859-1", "codificación del CSV: utf-8, iso-8859-1, windows-1252")
	delimiter := pflag.String("delimiter", ";", "separador de columnas")
	pflag.Parse()

	if strings.TrimSpace(*company) == "" {
		fmt.Fprintln(os.Stderr, "--company es obligatorio")
		pflag.Usage()
		os.Exit(2)
	}
	delim, size := utf8.DecodeRuneInString(*delimiter)
	if size == 0 || size != len(*delimiter) {
		fmt.Fprintf(os.Stderr, "--delimiter debe ser un único carácter: %q\n", *delimiter)
		os.Exit(2)
	}

	f, err := os.Open(*in)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Abrir CSV: %v\n", err)
		os.Exit(1)
	}
	defer f.Close()

	r, err := decodeReader(f, *encoding)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Codificación: %v\n", err)
		os.Exit(2)
	}
	m, err := parseMatrix(r, delim)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Leer matriz: %v\n", err)
		os.Exit(1)
	}
	for _, k := range m.unknown {
		fmt.Fprintf(os.Stderr, "aviso: clave %q no está en el catálogo; se guarda igual\n", k)
	}

	var w io.Writer = os.Stdout
	if *out != "" {
		file, err := os.Create(*out)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Crear archivo: %v\n", err)
			os.Exit(1)
		}
		defer file.Close()
		w = file
	}
	if err := writeSQL(w, *company, m); err != nil {
		fmt.Fprintf(os.Stderr, "Escribir SQL: %v\n", err)
		os.Exit(1)
	}
	if *out != "" {
		fmt.Fprintf(os.Stderr, "Generado %s: %d roles\n", *out, len(m.roles))
	}
}
