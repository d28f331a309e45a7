package models

import "time"

// PriceListView, rolün gördüğü fiyat listesi.
type PriceListView struct {
	Columns  []string         `json:"columns"`
	Rows     []map[string]any `json:"rows"`
	Editable bool             `json:"editable"`
}

// PriceSummary, dashboard'un üstündeki metrikler.
type PriceSummary struct {
	Rows          int        `json:"rows"`
	Families      int        `json:"families"`
	YearMin       int        `json:"year_min"`
	YearMax       int        `json:"year_max"`
	FinalPriceMin float64    `json:"final_price_min"`
	FinalPriceAvg float64    `json:"final_price_avg"`
	FinalPriceMax float64    `json:"final_price_max"`
	LastUpdate    *time.Time `json:"last_update,omitempty"`
}

// Summarize, satırlar üzerinden metrikleri hesaplar. Boş liste sıfır değerli
// özet döner. Yılı 0 olan satırlar yıl aralığına katılmaz.
func Summarize(rows []Product) PriceSummary {
	s := PriceSummary{Rows: len(rows)}
	if len(rows) == 0 {
		return s
	}

	families := make(map[string]struct{})
	var total float64
	for i, p := range rows {
		families[p.Familia] = struct{}{}

		if p.Anio != 0 {
			if s.YearMin == 0 || p.Anio < s.YearMin {
				s.YearMin = p.Anio
			}
			if p.Anio > s.YearMax {
				s.YearMax = p.Anio
			}
		}

		if i == 0 || p.PrecioFinal < s.FinalPriceMin {
			s.FinalPriceMin = p.PrecioFinal
		}
		if p.PrecioFinal > s.FinalPriceMax {
			s.FinalPriceMax = p.PrecioFinal
		}
		total += p.PrecioFinal
	}

	s.Families = len(families)
	s.FinalPriceAvg = total / float64(len(rows))
	return s
}
