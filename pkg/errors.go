// Package pkg, projede paylaşılan küçük yardımcıları barındırır.
// Bu dosya domain-level error tanımlarını içerir.
//
// Service ve repository katmanı bu sabit error'ları döner (gerekirse
// fmt.Errorf("%w: ...") ile detay ekleyerek), handler katmanı ise
// errors.Is ile HTTP status code'una çevirir:
//
//	if errors.Is(err, pkg.ErrNotFound) { ... }
package pkg

import "errors"

// Domain-level error'lar.
var (
	ErrNotFound      = errors.New("not found")
	ErrUnauthorized  = errors.New("unauthorized")
	ErrForbidden     = errors.New("forbidden")
	ErrAlreadyExists = errors.New("already exists")
	ErrBadRequest    = errors.New("bad request")
	ErrInternal      = errors.New("internal error")
)
