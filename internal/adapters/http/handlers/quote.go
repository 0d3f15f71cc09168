package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/jsamuelsen/classquotes/internal/adapters/http/dto"
	"github.com/jsamuelsen/classquotes/internal/app"
	"github.com/jsamuelsen/classquotes/internal/domain"
)

// QuoteHandler serves the /api/quotes resource.
type QuoteHandler struct {
	service *app.QuoteService
}

// NewQuoteHandler creates a new quote handler.
func NewQuoteHandler(service *app.QuoteService) *QuoteHandler {
	return &QuoteHandler{service: service}
}

// QuoteResponse is the wire form of a quote.
type QuoteResponse struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Text      string `json:"text"`
	Type      string `json:"type"`
	Timestamp int64  `json:"timestamp"`
}

func toQuoteResponse(q domain.Quote) QuoteResponse {
	return QuoteResponse{
		ID:        q.ID,
		Name:      q.Name,
		Text:      q.Text,
		Type:      string(q.Type),
		Timestamp: q.Timestamp,
	}
}

// List handles GET /api/quotes. The optional search, role and time query
// parameters narrow the result; the body is always a JSON array.
func (h *QuoteHandler) List(c *gin.Context) {
	var query dto.ListQuotesQuery
	if err := dto.BindQueryAndValidate(c, &query); err != nil {
		dto.HandleError(c, err)
		return
	}

	filters, err := query.Filters()
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	quotes, err := h.service.List(c.Request.Context(), filters)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	resp := make([]QuoteResponse, 0, len(quotes))
	for _, q := range quotes {
		resp = append(resp, toQuoteResponse(q))
	}

	c.JSON(http.StatusOK, resp)
}

// Get handles GET /api/quotes/:id.
func (h *QuoteHandler) Get(c *gin.Context) {
	q, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(*q))
}

// Create handles POST /api/quotes and answers 201 with the stored quote.
func (h *QuoteHandler) Create(c *gin.Context) {
	var in domain.CreateInput
	if err := dto.BindJSON(c, &in); err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.service.Create(c.Request.Context(), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Header("Location", "/api/quotes/"+q.ID)
	c.JSON(http.StatusCreated, toQuoteResponse(*q))
}

// Update handles PATCH /api/quotes/:id. Absent fields are left unchanged.
func (h *QuoteHandler) Update(c *gin.Context) {
	var in domain.PatchInput
	if err := dto.BindJSON(c, &in); err != nil {
		dto.HandleError(c, err)
		return
	}

	q, err := h.service.Update(c.Request.Context(), c.Param("id"), in)
	if err != nil {
		dto.HandleError(c, err)
		return
	}

	c.JSON(http.StatusOK, toQuoteResponse(*q))
}

// Delete handles DELETE /api/quotes/:id and answers 204 with no body.
func (h *QuoteHandler) Delete(c *gin.Context) {
	if err := h.service.Delete(c.Request.Context(), c.Param("id")); err != nil {
		dto.HandleError(c, err)
		return
	}

	c.Status(http.StatusNoContent)
}

// RegisterQuoteRoutes mounts the quote resource on rg. The write handlers
// run after guard, which may be empty.
func (h *QuoteHandler) RegisterQuoteRoutes(rg *gin.RouterGroup, guard ...gin.HandlerFunc) {
	quotes := rg.Group("/quotes")

	quotes.GET("", h.List)
	quotes.GET("/:id", h.Get)

	write := func(handler gin.HandlerFunc) []gin.HandlerFunc {
		return append(append([]gin.HandlerFunc{}, guard...), handler)
	}

	quotes.POST("", write(h.Create)...)
	quotes.PATCH("/:id", write(h.Update)...)
	quotes.DELETE("/:id", write(h.Delete)...)
}
