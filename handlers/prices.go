package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"go.uber.org/zap"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/pkg/i18n"
	"github.com/akinalp/pricelist/services"
)

// MaxImportSize, CSV yüklemesinin üst sınırı (10 MB).
const MaxImportSize = 10 << 20

// PriceHandler, fiyat listesi endpoint'leri.
type PriceHandler struct {
	priceService services.PriceListService
	log          *zap.Logger
}

// NewPriceHandler, constructor.
func NewPriceHandler(priceService services.PriceListService, logger *zap.Logger) *PriceHandler {
	return &PriceHandler{priceService: priceService, log: logger.Named("http.prices")}
}

// updateRequest, PUT /api/prices body'si.
type updateRequest struct {
	Rows []models.Product `json:"rows"`
}

// List godoc
// GET /api/prices
// Rolün görebildiği kolonlar ve satırlar döner.
func (h *PriceHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	view, err := h.priceService.Get(r.Context(), claims.Role)
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view)
}

// Update godoc
// PUT /api/prices
// Body: { "rows": [ { "Familia": "...", ... } ] }
func (h *PriceHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, i18n.FromRequest(r).T("common.invalidBody"))
		return
	}

	result, err := h.priceService.Save(r.Context(), claims.Username, req.Rows)
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Import godoc
// POST /api/prices/import
// multipart/form-data, alan adı "file".
func (h *PriceHandler) Import(w http.ResponseWriter, r *http.Request) {
	loc := i18n.FromRequest(r)
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, MaxImportSize)
	if err := r.ParseMultipartForm(MaxImportSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			pkg.ErrorWithMessage(w, http.StatusRequestEntityTooLarge, loc.T("prices.fileTooLarge"))
			return
		}
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("prices.fileRequired"))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, _, err := r.FormFile("file")
	if err != nil {
		pkg.ErrorWithMessage(w, http.StatusBadRequest, loc.T("prices.fileRequired"))
		return
	}
	defer file.Close()

	result, err := h.priceService.Import(r.Context(), claims.Username, file)
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

// Export godoc
// GET /api/prices/export
// Rolün gördüğü kolonlarla CSV indirir.
func (h *PriceHandler) Export(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := h.priceService.Export(r.Context(), claims.Role, &buf); err != nil {
		h.fail(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", "products.csv"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// Summary godoc
// GET /api/prices/summary
func (h *PriceHandler) Summary(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	summary, err := h.priceService.Summary(r.Context(), claims.Role)
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, summary)
}

// ListHistory godoc
// GET /api/prices/history
func (h *PriceHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	entries, err := h.priceService.ListHistory(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, entries)
}

// GetHistory godoc
// GET /api/prices/history/{name}
func (h *PriceHandler) GetHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	view, err := h.priceService.GetHistory(r.Context(), claims.Role, r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, view)
}

// RestoreHistory godoc
// POST /api/prices/history/{name}/restore
func (h *PriceHandler) RestoreHistory(w http.ResponseWriter, r *http.Request) {
	claims, ok := h.claims(w, r)
	if !ok {
		return
	}

	result, err := h.priceService.RestoreHistory(r.Context(), claims.Username, r.PathValue("name"))
	if err != nil {
		h.fail(w, err)
		return
	}
	pkg.JSON(w, http.StatusOK, result)
}

func (h *PriceHandler) claims(w http.ResponseWriter, r *http.Request) (*models.TokenClaims, bool) {
	claims, ok := ClaimsFromContext(r.Context())
	if !ok {
		pkg.ErrorWithMessage(w, http.StatusUnauthorized, i18n.FromRequest(r).T("common.userNotInContext"))
	}
	return claims, ok
}

// fail, 500'leri loglar; istemciye sadece genel mesaj gider.
func (h *PriceHandler) fail(w http.ResponseWriter, err error) {
	if pkg.StatusFor(err) == http.StatusInternalServerError {
		h.log.Error("price list request failed", zap.Error(err))
	}
	pkg.Error(w, err)
}
