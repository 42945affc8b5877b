package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/mystocks/internal/models"
	"github.com/example/mystocks/internal/services"
	"github.com/example/mystocks/internal/store"
)

type stubQuoter struct {
	price *float64
	prev  *float64
	pe    *float64
	err   error
}

func (s *stubQuoter) GetQuote(symbol string) (*services.Quote, error) {
	if s.err != nil {
		return nil, s.err
	}
	return &services.Quote{CurrentPrice: s.price, PreviousClose: s.prev}, nil
}

func (s *stubQuoter) GetPERatio(symbol string) (*float64, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.pe, nil
}

func fptr(v float64) *float64 { return &v }

func happyQuoter() *stubQuoter {
	return &stubQuoter{price: fptr(110), prev: fptr(100), pe: fptr(30)}
}

func newTestRouter(portfolioStore store.PortfolioStore, quotes services.Quoter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	portfolioService := services.NewPortfolioService(portfolioStore, quotes)
	return NewRouter(NewStockHandler(), NewPortfolioHandler(portfolioService), "http://localhost:3000")
}

func doJSON(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decodeViews(t *testing.T, w *httptest.ResponseRecorder) []models.PortfolioViewEntry {
	t.Helper()
	var views []models.PortfolioViewEntry
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &views))
	return views
}

func seedEntry(t *testing.T, s store.PortfolioStore, symbol string, quantity float64) models.PortfolioEntry {
	t.Helper()
	entry := models.PortfolioEntry{Symbol: symbol, Quantity: quantity}
	require.NoError(t, s.Save(context.Background(), &entry))
	return entry
}

func TestGetStockLookup(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	cases := []struct {
		query      string
		wantSymbol string
	}{
		{"?symbol=TSLA", "TSLA"},
		{"?symbol=tsla", "TSLA"},
		{"?symbol=NFLX", "AAPL"},
		{"", "AAPL"},
	}
	for _, tc := range cases {
		w := doJSON(router, http.MethodGet, "/getStock"+tc.query, "")
		require.Equal(t, http.StatusOK, w.Code)
		var stock models.StaticStock
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stock))
		assert.Equal(t, tc.wantSymbol, stock.Symbol, "query %q", tc.query)
	}
}

func TestGetStocksReturnsWholeList(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodGet, "/getStocks", "")
	require.Equal(t, http.StatusOK, w.Code)
	var stocks []models.StaticStock
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stocks))
	require.Len(t, stocks, 5)
	assert.Equal(t, "AAPL", stocks[0].Symbol)
}

func TestAddThenListPortfolio(t *testing.T) {
	memStore := store.NewMemoryStore()
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio", `{"symbol":"AAPL","quantity":5}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.False(t, views[0].ID.IsZero())
	assert.Equal(t, "AAPL", views[0].Symbol)
	assert.Equal(t, 5.0, views[0].Quantity)
	require.NotNil(t, views[0].Price)
	assert.InDelta(t, 110.0, *views[0].Price, 1e-9)
	require.NotNil(t, views[0].PercentChangeToday)
	assert.InDelta(t, 10.0, *views[0].PercentChangeToday, 1e-9)

	w = doJSON(router, http.MethodGet, "/portfolio", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeViews(t, w), 1)
}

func TestAddRejectsInvalidBody(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio", `{"quantity":5}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestAddAcceptsZeroQuantity(t *testing.T) {
	memStore := store.NewMemoryStore()
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio", `{"symbol":"AAPL","quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, 0.0, views[0].Quantity)

	entries, err := memStore.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, 0.0, entries[0].Quantity)
}

func TestEditAcceptsZeroQuantity(t *testing.T) {
	memStore := store.NewMemoryStore()
	entry := seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/edit",
		`{"id":"`+entry.ID.Hex()+`","symbol":"AAPL","quantity":0}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, 0.0, views[0].Quantity)
}

func TestEditWithoutIDRejected(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/edit", `{"symbol":"AAPL","quantity":9}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ID required for edit")

	entries, err := memStore.FindAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 5.0, entries[0].Quantity, "rejected edit must not mutate the store")
}

func TestEditWithMalformedIDRejected(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/edit", `{"id":"garbage","symbol":"AAPL","quantity":9}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestEditReplacesEntryKeepingID(t *testing.T) {
	memStore := store.NewMemoryStore()
	entry := seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/edit",
		`{"id":"`+entry.ID.Hex()+`","symbol":"MSFT","quantity":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, entry.ID, views[0].ID)
	assert.Equal(t, "MSFT", views[0].Symbol)
	assert.Equal(t, 7.0, views[0].Quantity)
}

func TestEditUnknownIDReturnsListUnchanged(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/edit",
		`{"id":"`+primitive.NewObjectID().Hex()+`","symbol":"MSFT","quantity":7}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, "AAPL", views[0].Symbol)
	assert.Equal(t, 5.0, views[0].Quantity)
}

func TestDeleteWithoutIDRejected(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/delete", `{}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "ID required for delete")
}

func TestDeleteRemovesEntry(t *testing.T) {
	memStore := store.NewMemoryStore()
	entry := seedEntry(t, memStore, "AAPL", 5)
	keep := seedEntry(t, memStore, "MSFT", 2)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/delete", `{"id":"`+entry.ID.Hex()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	views := decodeViews(t, w)
	require.Len(t, views, 1)
	assert.Equal(t, keep.ID, views[0].ID)
}

func TestDeleteUnknownIDIsANoop(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/delete", `{"id":"`+primitive.NewObjectID().Hex()+`"}`)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeViews(t, w), 1)
}

func TestPortfolioFailsWhenQuoteProviderDown(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "AAPL", 5)
	router := newTestRouter(memStore, &stubQuoter{err: errors.New("connection refused")})

	w := doJSON(router, http.MethodGet, "/portfolio", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

func TestExportProducesAttachment(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "AAPL", 5)
	seedEntry(t, memStore, "MSFT", 2.5)
	router := newTestRouter(memStore, happyQuoter())

	w := doJSON(router, http.MethodGet, "/portfolio/export", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=portfolio.xlsx", w.Header().Get("Content-Disposition"))

	workbook, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer workbook.Close()
	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, []string{"Symbol", "Quantity"}, rows[0])
	assert.Equal(t, "AAPL", rows[1][0])
	assert.Equal(t, "MSFT", rows[2][0])
}

func TestTemplateDownload(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodGet, "/portfolio/template", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "attachment; filename=portfolio_template.xlsx", w.Header().Get("Content-Disposition"))

	workbook, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer workbook.Close()
	rows, err := workbook.GetRows(workbook.GetSheetName(0))
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, []string{"Symbol", "Quantity"}, rows[0])
}

type failingWorkbook struct{}

func (failingWorkbook) WriteToBuffer() (*bytes.Buffer, error) {
	return nil, errors.New("encode failed")
}

func TestWorkbookEncodeFailureGivesEmptyServerError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)

	h := NewPortfolioHandler(nil)
	h.sendWorkbook(c, failingWorkbook{}, "portfolio.xlsx")
	// Flush the deferred status the way gin's engine does after the handler chain.
	c.Writer.WriteHeaderNow()

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.Empty(t, w.Body.String())
	assert.Empty(t, w.Header().Get("Content-Disposition"))
}

func uploadRequest(t *testing.T, content []byte) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "portfolio.xlsx")
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/portfolio/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func workbookBytes(t *testing.T, rows [][]interface{}) []byte {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &rows[i]))
	}
	buf, err := f.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestImportReplacesPortfolio(t *testing.T) {
	memStore := store.NewMemoryStore()
	old := seedEntry(t, memStore, "OLD", 1)
	router := newTestRouter(memStore, happyQuoter())

	data := workbookBytes(t, [][]interface{}{
		{"Symbol", "Quantity"},
		{"AAPL", 5},
		{"MSFT", 2.5},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, data))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Imported 2 entries", w.Body.String())

	entries, err := memStore.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, entry := range entries {
		assert.NotEqual(t, old.ID, entry.ID, "import creates fresh rows")
	}
	assert.Equal(t, "AAPL", entries[0].Symbol)
	assert.Equal(t, 2.5, entries[1].Quantity)
}

func TestImportBadHeaderRejectedWithoutMutation(t *testing.T) {
	memStore := store.NewMemoryStore()
	seedEntry(t, memStore, "KEEP", 1)
	router := newTestRouter(memStore, happyQuoter())

	data := workbookBytes(t, [][]interface{}{
		{"Ticker", "Amount"},
		{"AAPL", 5},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, data))

	require.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Symbol")

	entries, err := memStore.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "KEEP", entries[0].Symbol)
}

func TestImportSkipsBadRowsAndReportsCount(t *testing.T) {
	memStore := store.NewMemoryStore()
	router := newTestRouter(memStore, happyQuoter())

	data := workbookBytes(t, [][]interface{}{
		{"Symbol", "Quantity"},
		{"", 5},
		{"AAPL", "lots"},
		{"GOOGL", 3},
	})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, data))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "Imported 1 entries", w.Body.String())

	entries, err := memStore.FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "GOOGL", entries[0].Symbol)
	assert.Equal(t, 3.0, entries[0].Quantity)
}

func TestImportWithoutFileRejected(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	w := doJSON(router, http.MethodPost, "/portfolio/import", "")
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCORSPreflightAllowed(t *testing.T) {
	router := newTestRouter(store.NewMemoryStore(), happyQuoter())

	req := httptest.NewRequest(http.MethodOptions, "/portfolio", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
