package handlers

import (
	"bytes"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/example/mystocks/internal/services"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type PortfolioHandler struct {
	portfolioService *services.PortfolioService
}

func NewPortfolioHandler(portfolioService *services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{portfolioService: portfolioService}
}

// Symbol and Quantity are pointers so that present-but-zero values (an empty
// symbol, a quantity of 0) bind cleanly; only absent fields are rejected.
type AddEntryRequest struct {
	Symbol   *string  `json:"symbol" binding:"required"`
	Quantity *float64 `json:"quantity" binding:"required"`
}

type EditEntryRequest struct {
	ID       string   `json:"id"`
	Symbol   *string  `json:"symbol" binding:"required"`
	Quantity *float64 `json:"quantity" binding:"required"`
}

type DeleteEntryRequest struct {
	ID string `json:"id"`
}

func (h *PortfolioHandler) GetPortfolio(c *gin.Context) {
	views, err := h.portfolioService.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PortfolioHandler) AddEntry(c *gin.Context) {
	var req AddEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	views, err := h.portfolioService.Add(c.Request.Context(), *req.Symbol, *req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to add entry: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PortfolioHandler) EditEntry(c *gin.Context) {
	var req EditEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID required for edit"})
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id: " + err.Error()})
		return
	}

	views, err := h.portfolioService.Edit(c.Request.Context(), id, *req.Symbol, *req.Quantity)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to edit entry: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PortfolioHandler) DeleteEntry(c *gin.Context) {
	var req DeleteEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.ID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID required for delete"})
		return
	}
	id, err := primitive.ObjectIDFromHex(req.ID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id: " + err.Error()})
		return
	}

	views, err := h.portfolioService.Delete(c.Request.Context(), id)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete entry: " + err.Error()})
		return
	}
	c.JSON(http.StatusOK, views)
}

func (h *PortfolioHandler) ExportPortfolio(c *gin.Context) {
	entries, err := h.portfolioService.Entries(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch portfolio: " + err.Error()})
		return
	}

	f, err := services.WritePortfolio(entries)
	if err != nil {
		log.Printf("failed to build portfolio spreadsheet: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer f.Close()
	h.sendWorkbook(c, f, "portfolio.xlsx")
}

func (h *PortfolioHandler) DownloadTemplate(c *gin.Context) {
	f, err := services.WriteTemplate()
	if err != nil {
		log.Printf("failed to build template spreadsheet: %v", err)
		c.Status(http.StatusInternalServerError)
		return
	}
	defer f.Close()
	h.sendWorkbook(c, f, "portfolio_template.xlsx")
}

type workbook interface {
	WriteToBuffer() (*bytes.Buffer, error)
}

// sendWorkbook serializes the whole workbook before touching the response,
// so an encoding failure still yields a clean 500 with an empty body.
func (h *PortfolioHandler) sendWorkbook(c *gin.Context, wb workbook, filename string) {
	buf, err := wb.WriteToBuffer()
	if err != nil {
		log.Printf("failed to encode %s: %v", filename, err)
		c.Status(http.StatusInternalServerError)
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// ImportPortfolio replaces the whole stored portfolio with the rows of the
// uploaded workbook and reports how many were imported.
func (h *PortfolioHandler) ImportPortfolio(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.String(http.StatusBadRequest, "No file uploaded: %v", err)
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.String(http.StatusBadRequest, "Could not open uploaded file: %v", err)
		return
	}
	defer file.Close()

	entries, err := services.ParsePortfolio(file)
	if err != nil {
		c.String(http.StatusBadRequest, "%v", err)
		return
	}

	count, err := h.portfolioService.Import(c.Request.Context(), entries)
	if err != nil {
		c.String(http.StatusInternalServerError, "Import failed: %v", err)
		return
	}
	c.String(http.StatusOK, "Imported %d entries", count)
}
