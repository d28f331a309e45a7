package repository

import (
	"strings"

	"github.com/akinalp/pricelist/storage"
)

// Layout, bucket içindeki dosya yerleşimi.
//
//	<prefix>/users.json
//	<prefix>/sessions.json
//	<prefix>/products.csv
//	<prefix>/historical/<YYYY-MM-DD_HH-MM>_<listName>.csv
type Layout struct {
	Prefix   string
	ListName string
}

// NewLayout, boş ListName için varsayılan adı kullanır.
func NewLayout(prefix, listName string) Layout {
	if listName == "" {
		listName = "nissan_price_list"
	}
	return Layout{Prefix: strings.Trim(prefix, "/"), ListName: listName}
}

func (l Layout) Users() string    { return storage.Join(l.Prefix, "users.json") }
func (l Layout) Sessions() string { return storage.Join(l.Prefix, "sessions.json") }
func (l Layout) Products() string { return storage.Join(l.Prefix, "products.csv") }

// HistoryPrefix, List çağrısında kullanılan "<prefix>/historical/" değeri.
func (l Layout) HistoryPrefix() string {
	return storage.Join(l.Prefix, "historical") + "/"
}

// History, tek bir history dosyasının tam key'i.
func (l Layout) History(name string) string {
	return l.HistoryPrefix() + name
}
