package services

import (
	"bytes"
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/akinalp/pricelist/models"
	"github.com/akinalp/pricelist/pkg"
	"github.com/akinalp/pricelist/repository"
	"github.com/akinalp/pricelist/ws"
)

func newPrices(t *testing.T, f *fixture, clk *clock, notifier *fakeNotifier, cacheTTL time.Duration) *priceListService {
	t.Helper()
	var svc PriceListService
	if notifier != nil {
		svc = NewPriceListService(f.prices, f.hub, notifier, cacheTTL, nop)
	} else {
		svc = NewPriceListService(f.prices, f.hub, nil, cacheTTL, nop)
	}
	s := svc.(*priceListService)
	s.now = clk.Now
	t.Cleanup(s.Close)
	return s
}

var sampleRows = []models.Product{
	{Familia: "Kicks", Anio: 2024, PrecioNibol: 20000, PrecioLista: 24990, PrecioFinal: 23990, DsctoGerencia: 500, PrecioGerencia: 23490},
	{Familia: "Frontier", Anio: 2025, PrecioNibol: 31000, PrecioLista: 38500, PrecioFinal: 38500},
}

func TestSaveWritesHistoryAndNotifies(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	notifier := &fakeNotifier{}
	svc := newPrices(t, f, clk, notifier, time.Minute)

	res, err := svc.Save(ctx, "maria", sampleRows)
	require.NoError(t, err)
	assert.Equal(t, "2026-03-01_09-00_nissan_price_list.csv", res.HistoryName)
	assert.Equal(t, 2, res.Rows)

	entries, err := svc.ListHistory(ctx)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, res.HistoryName, entries[0].Name)

	require.Len(t, f.hub.events, 1)
	assert.Equal(t, ws.OpPriceListUpdate, f.hub.events[0].Op)
	assert.Equal(t, "maria", f.hub.events[0].Data.(ws.PriceListUpdateData).UpdatedBy)

	svc.Close()
	require.Len(t, notifier.notices, 1)
	assert.Equal(t, res.HistoryName, notifier.notices[0].HistoryName)
}

func TestSaveRejectsInvalidRows(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	svc := newPrices(t, f, clk, nil, 0)

	_, err := svc.Save(ctx, "maria", nil)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	bad := []models.Product{{Familia: "Kicks", Anio: 2024, Bono: -5}}
	_, err = svc.Save(ctx, "maria", bad)
	assert.ErrorIs(t, err, pkg.ErrBadRequest)

	entries, err := svc.ListHistory(ctx)
	require.NoError(t, err)
	assert.Empty(t, entries, "nothing is written for invalid rows")
	assert.Empty(t, f.hub.events)
}

func TestGetFiltersColumnsByRole(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	svc := newPrices(t, f, clk, nil, time.Minute)
	_, err := svc.Save(ctx, "maria", sampleRows)
	require.NoError(t, err)

	admin, err := svc.Get(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, models.Columns, admin.Columns)
	assert.True(t, admin.Editable)
	assert.Equal(t, 20000.0, admin.Rows[0][models.ColPrecioNibol])

	asesor, err := svc.Get(ctx, models.RoleAsesor)
	require.NoError(t, err)
	assert.False(t, asesor.Editable)
	require.Len(t, asesor.Rows, 2)
	_, hasNibol := asesor.Rows[0][models.ColPrecioNibol]
	assert.False(t, hasNibol)
	_, hasGerencia := asesor.Rows[0][models.ColPrecioGerencia]
	assert.False(t, hasGerencia)

	media, err := svc.Get(ctx, models.RoleGerenciaMedia)
	require.NoError(t, err)
	assert.Equal(t, 23490.0, media.Rows[0][models.ColPrecioGerencia])
}

func TestSaveInvalidatesCache(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	svc := newPrices(t, f, clk, nil, time.Hour)

	v, err := svc.Get(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Empty(t, v.Rows)

	_, err = svc.Save(ctx, "maria", sampleRows)
	require.NoError(t, err)

	v, err = svc.Get(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, v.Rows, 2)
}

// gatedPrices, ilk Get okumasını yaptıktan sonra release kapanana kadar bekler.
type gatedPrices struct {
	repository.PriceListRepository
	once    sync.Once
	read    chan struct{}
	release chan struct{}
}

func (r *gatedPrices) Get(ctx context.Context) ([]models.Product, error) {
	rows, err := r.PriceListRepository.Get(ctx)
	r.once.Do(func() {
		close(r.read)
		<-r.release
	})
	return rows, err
}

func TestReadDuringSaveDoesNotCacheOldList(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	repo := &gatedPrices{PriceListRepository: f.prices, read: make(chan struct{}), release: make(chan struct{})}
	svc := NewPriceListService(repo, f.hub, nil, time.Hour, nop).(*priceListService)
	svc.now = clk.Now
	t.Cleanup(svc.Close)

	done := make(chan *models.PriceListView)
	go func() {
		v, err := svc.Get(ctx, models.RoleAdmin)
		assert.NoError(t, err)
		done <- v
	}()

	<-repo.read
	_, err := svc.Save(ctx, "maria", sampleRows)
	require.NoError(t, err)
	close(repo.release)

	old := <-done
	require.NotNil(t, old)
	assert.Empty(t, old.Rows)

	v, err := svc.Get(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, v.Rows, 2, "saved list must be served, not the one read before the save")
}

func TestImportAndExport(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	svc := newPrices(t, f, clk, nil, 0)

	_, err := svc.Import(ctx, "maria", strings.NewReader("Familia,Año,Precio_Final,Precio_Nibol\nVersa,2023,19990,15000\n"))
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, svc.Export(ctx, models.RoleAsesor, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(models.VisibleColumns(models.RoleAsesor), ","), lines[0])
	assert.NotContains(t, buf.String(), "15000")
	assert.True(t, strings.HasPrefix(lines[1], "Versa,2023,0,0,19990,"))

	_, err = svc.Import(ctx, "maria", strings.NewReader("Familia,Año\nVersa,abc\n"))
	assert.ErrorIs(t, err, pkg.ErrBadRequest)
}

func TestSummaryAndRestore(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	svc := newPrices(t, f, clk, nil, 0)

	first, err := svc.Save(ctx, "maria", sampleRows)
	require.NoError(t, err)
	clk.Advance(90 * time.Minute)
	_, err = svc.Save(ctx, "maria", sampleRows[:1])
	require.NoError(t, err)

	sum, err := svc.Summary(ctx, models.RoleGerenciaMedia)
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Rows)
	require.NotNil(t, sum.LastUpdate)
	assert.Equal(t, clk.Now().Truncate(time.Minute), *sum.LastUpdate)

	sum, err = svc.Summary(ctx, models.RoleAsesor)
	require.NoError(t, err)
	assert.Nil(t, sum.LastUpdate, "advisors do not see history")

	hist, err := svc.GetHistory(ctx, models.RoleAdmin, first.HistoryName)
	require.NoError(t, err)
	assert.Len(t, hist.Rows, 2)
	assert.False(t, hist.Editable)

	clk.Advance(time.Minute)
	restored, err := svc.RestoreHistory(ctx, "admin", first.HistoryName)
	require.NoError(t, err)
	assert.Equal(t, 2, restored.Rows)
	assert.NotEqual(t, first.HistoryName, restored.HistoryName)

	entries, err := svc.ListHistory(ctx)
	require.NoError(t, err)
	assert.Len(t, entries, 3)
	assert.Equal(t, restored.HistoryName, entries[0].Name)

	current, err := svc.Get(ctx, models.RoleAdmin)
	require.NoError(t, err)
	assert.Len(t, current.Rows, 2)

	_, err = svc.RestoreHistory(ctx, "admin", "2000-01-01_00-00_nissan_price_list.csv")
	assert.ErrorIs(t, err, pkg.ErrNotFound)
}

func TestSessionSweeper(t *testing.T) {
	ctx := context.Background()
	f, clk := newFixture(t), newClock()
	require.NoError(t, f.sessions.Create(ctx, &models.Session{ID: "old", Username: "ana", ExpiresAt: clk.Now().Add(-time.Minute)}))
	require.NoError(t, f.sessions.Create(ctx, &models.Session{ID: "new", Username: "ana", ExpiresAt: clk.Now().Add(time.Hour)}))

	sweeper := NewSessionSweeper(f.sessions, time.Hour, nop)
	sweeper.now = clk.Now
	assert.Equal(t, 1, sweeper.Sweep(ctx))
	assert.Equal(t, 0, sweeper.Sweep(ctx))

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error)
	go func() { done <- sweeper.Run(runCtx) }()
	cancel()
	assert.NoError(t, <-done)

	_, err := f.sessions.GetByID(ctx, "new")
	assert.NoError(t, err)
}
