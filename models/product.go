package models

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"
)

// Fiyat listesi kolonları. CSV header'ı tam olarak bu isimleri taşır.
const (
	ColFamilia        = "Familia"
	ColAnio           = "Año"
	ColPrecioNibol    = "Precio_Nibol"
	ColPrecioLista    = "Precio_Lista"
	ColDescuento      = "Descuento"
	ColPrecioFinal    = "Precio_Final"
	ColDsctoGerencia  = "Dscto_Gerencia"
	ColDsctSeguro     = "Dsct_Seguro"
	ColDsctoImpuesto  = "Dscto_Impuesto"
	ColBono           = "Bono"
	ColPrecioGerencia = "Precio_Gerencia"
	ColPrecioBOB      = "Precio_BOB"
	ColUSDT           = "USDT"
	ColUSDExt         = "USD_Ext"
	ColUSDEfect       = "USD_Efect"
)

// Model yılı sınırları.
const (
	MinYear = 1950
	MaxYear = 2100
)

// Columns, yazarken kullanılan kanonik kolon sırası.
var Columns = []string{
	ColFamilia, ColAnio, ColPrecioNibol, ColPrecioLista, ColDescuento, ColPrecioFinal,
	ColDsctoGerencia, ColDsctSeguro, ColDsctoImpuesto, ColBono, ColPrecioGerencia,
	ColPrecioBOB, ColUSDT, ColUSDExt, ColUSDEfect,
}

// advisorColumns, her rolün gördüğü kolonlar.
var advisorColumns = map[string]bool{
	ColFamilia: true, ColAnio: true, ColPrecioLista: true, ColDescuento: true,
	ColPrecioFinal: true, ColBono: true, ColPrecioBOB: true, ColUSDT: true,
	ColUSDExt: true, ColUSDEfect: true,
}

var managementColumns = map[string]bool{
	ColDsctoGerencia: true, ColPrecioGerencia: true,
}

// VisibleColumns, rolün görebildiği kolonları kanonik sırada döner.
func VisibleColumns(role Role) []string {
	perms := role.Permissions()
	if perms.Has(PermViewAllColumns) {
		return append([]string(nil), Columns...)
	}

	var out []string
	for _, col := range Columns {
		if advisorColumns[col] || (managementColumns[col] && perms.Has(PermViewManagementColumns)) {
			out = append(out, col)
		}
	}
	return out
}

// Product, fiyat listesindeki tek bir satır (bir model/yıl).
// JSON tag'leri CSV header'ı ile aynıdır; dashboard tabloyu doğrudan
// kolon adlarıyla düzenler.
type Product struct {
	Familia        string  `json:"Familia"`
	Anio           int     `json:"Año"`
	PrecioNibol    float64 `json:"Precio_Nibol"`
	PrecioLista    float64 `json:"Precio_Lista"`
	Descuento      float64 `json:"Descuento"`
	PrecioFinal    float64 `json:"Precio_Final"`
	DsctoGerencia  float64 `json:"Dscto_Gerencia"`
	DsctSeguro     float64 `json:"Dsct_Seguro"`
	DsctoImpuesto  float64 `json:"Dscto_Impuesto"`
	Bono           float64 `json:"Bono"`
	PrecioGerencia float64 `json:"Precio_Gerencia"`
	PrecioBOB      float64 `json:"Precio_BOB"`
	USDT           float64 `json:"USDT"`
	USDExt         float64 `json:"USD_Ext"`
	USDEfect       float64 `json:"USD_Efect"`
}

// number, sayısal kolonun alanına pointer döner; Familia/Año ve
// bilinmeyen kolonlar için nil.
func (p *Product) number(col string) *float64 {
	switch col {
	case ColPrecioNibol:
		return &p.PrecioNibol
	case ColPrecioLista:
		return &p.PrecioLista
	case ColDescuento:
		return &p.Descuento
	case ColPrecioFinal:
		return &p.PrecioFinal
	case ColDsctoGerencia:
		return &p.DsctoGerencia
	case ColDsctSeguro:
		return &p.DsctSeguro
	case ColDsctoImpuesto:
		return &p.DsctoImpuesto
	case ColBono:
		return &p.Bono
	case ColPrecioGerencia:
		return &p.PrecioGerencia
	case ColPrecioBOB:
		return &p.PrecioBOB
	case ColUSDT:
		return &p.USDT
	case ColUSDExt:
		return &p.USDExt
	case ColUSDEfect:
		return &p.USDEfect
	}
	return nil
}

// Value, kolonun değerini döner (string, int veya float64).
func (p *Product) Value(col string) any {
	switch col {
	case ColFamilia:
		return p.Familia
	case ColAnio:
		return p.Anio
	}
	if f := p.number(col); f != nil {
		return *f
	}
	return nil
}

// Format, kolonun CSV hücresindeki metnini döner.
func (p *Product) Format(col string) string {
	switch col {
	case ColFamilia:
		return p.Familia
	case ColAnio:
		return strconv.Itoa(p.Anio)
	}
	if f := p.number(col); f != nil {
		return strconv.FormatFloat(*f, 'f', -1, 64)
	}
	return ""
}

// Validate, satırın kaydedilebilir olup olmadığını kontrol eder.
func (p *Product) Validate() error {
	if strings.TrimSpace(p.Familia) == "" {
		return fmt.Errorf("%s is required", ColFamilia)
	}
	if p.Anio < MinYear || p.Anio > MaxYear {
		return fmt.Errorf("%s must be between %d and %d", ColAnio, MinYear, MaxYear)
	}
	for _, col := range Columns[2:] {
		v := *p.number(col)
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s is not a number", col)
		}
		if v < 0 {
			return fmt.Errorf("%s cannot be negative", col)
		}
	}
	return nil
}

// ValidateProducts, bütün satırları kontrol eder; ilk hatalı satırı
// 1'den başlayan numarasıyla bildirir. Familia kırpılır.
func ValidateProducts(rows []Product) error {
	for i := range rows {
		rows[i].Familia = strings.TrimSpace(rows[i].Familia)
		if err := rows[i].Validate(); err != nil {
			return fmt.Errorf("row %d: %w", i+1, err)
		}
	}
	return nil
}

// ParseCSV, fiyat listesi CSV'sini okur.
//
// Kolonlar herhangi bir sırada olabilir; bilinmeyen kolonlar yok sayılır,
// eksik kolonlar 0 / boş okunur. Boş hücre 0'dır. Excel'in eklediği UTF-8
// BOM temizlenir. Boş girdi boş liste döner.
func ParseCSV(r io.Reader) ([]Product, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return []Product{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read csv header: %w", err)
	}

	index := make(map[string]int, len(header))
	for i, name := range header {
		if i == 0 {
			name = strings.TrimPrefix(name, "\ufeff")
		}
		name = strings.TrimSpace(name)
		if _, dup := index[name]; !dup {
			index[name] = i
		}
	}

	rows := []Product{}
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read csv: %w", err)
		}
		if blankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		cell := func(col string) string {
			if i, ok := index[col]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}

		var p Product
		p.Familia = cell(ColFamilia)

		year, err := parseYear(cell(ColAnio))
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid %s value %q", line, ColAnio, cell(ColAnio))
		}
		p.Anio = year

		for _, col := range Columns[2:] {
			v, err := parseNumber(cell(col))
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid %s value %q", line, col, cell(col))
			}
			*p.number(col) = v
		}
		rows = append(rows, p)
	}
	return rows, nil
}

// EncodeCSV, satırları kanonik kolon sırasıyla yazar.
func EncodeCSV(w io.Writer, rows []Product) error {
	return EncodeCSVColumns(w, rows, Columns)
}

// EncodeCSVColumns, satırları sadece verilen kolonlarla yazar (rol bazlı export).
func EncodeCSVColumns(w io.Writer, rows []Product, cols []string) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(cols); err != nil {
		return err
	}

	record := make([]string, len(cols))
	for i := range rows {
		for j, col := range cols {
			record[j] = rows[i].Format(col)
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

// MarshalCSV, EncodeCSV'nin byte slice döndüren hâli.
func MarshalCSV(rows []Product) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeCSV(&buf, rows); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Project, satırları sadece verilen kolonları içeren map'lere dönüştürür.
func Project(rows []Product, cols []string) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i := range rows {
		m := make(map[string]any, len(cols))
		for _, col := range cols {
			m[col] = rows[i].Value(col)
		}
		out[i] = m
	}
	return out
}

func parseYear(s string) (int, error) {
	if s == "" {
		return 0, nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n, nil
	}
	// pandas boş hücre içeren int kolonlarını "2024.0" olarak yazar
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("not an integer")
	}
	return int(f), nil
}

func parseNumber(s string) (float64, error) {
	if s == "" || strings.EqualFold(s, "nan") {
		return 0, nil
	}
	return strconv.ParseFloat(s, 64)
}

func blankRecord(record []string) bool {
	for _, v := range record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}
