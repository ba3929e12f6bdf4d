package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"surf-market/internal/middleware"
	"surf-market/internal/model"
	"surf-market/internal/search"
	"surf-market/internal/service"
)

// ListingHandler serves browsing, CRUD and moderation of board listings.
type ListingHandler struct {
	Listings *service.ListingService
	Contact  *service.ContactService
	Logger   *zap.Logger
}

// RegisterRoutes expects rg to already run middleware.Authenticate.
func (h *ListingHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/listings", h.Browse)
	rg.GET("/listings/:id", h.GetListingByID)

	authed := rg.Group("", middleware.RequireUser())
	authed.POST("/listings", h.CreateListing)
	authed.PUT("/listings/:id", h.UpdateListing)
	authed.DELETE("/listings/:id", h.DeleteListing)
	authed.PATCH("/listings/:id/status", h.SetStatus)
	authed.POST("/listings/:id/contact", h.ContactSeller)
	authed.GET("/me/listings", h.Mine)
	authed.GET("/me/listings/export", h.Export)

	admin := rg.Group("/admin", middleware.RequireAdmin())
	admin.GET("/listings", h.AdminList)
	admin.PUT("/listings/:id/remove", h.Remove)
	admin.PUT("/listings/:id/restore", h.Restore)
}

func actor(c *gin.Context) service.Actor {
	return service.Actor{UserID: middleware.UserID(c), Admin: middleware.IsAdmin(c)}
}

type browseResponse struct {
	Items  []search.Result `json:"items"`
	Total  int             `json:"total"`
	Limit  int             `json:"limit"`
	Offset int             `json:"offset"`
}

// GET /api/listings?q=&category=&location=&minLength=&maxLength=&minPrice=&maxPrice=&condition=&lat=&lng=&radius=&sort=&limit=&offset=
func (h *ListingHandler) Browse(c *gin.Context) {
	f := search.ParseFilter(c.Request.URL.Query())
	results, err := h.Listings.Browse(c.Request.Context(), f)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}

	limit, _ := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(search.DefaultLimit)))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	page, limit, offset := search.Paginate(results, limit, offset)

	c.JSON(http.StatusOK, browseResponse{Items: page, Total: len(results), Limit: limit, Offset: offset})
}

// GET /api/listings/:id
func (h *ListingHandler) GetListingByID(c *gin.Context) {
	l, err := h.Listings.Get(c.Request.Context(), actor(c), c.Param("id"))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) CreateListing(c *gin.Context) {
	var req service.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	l, err := h.Listings.Create(c.Request.Context(), middleware.UserID(c), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusCreated, l)
}

func (h *ListingHandler) UpdateListing(c *gin.Context) {
	var req service.ListingInput
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	l, err := h.Listings.Update(c.Request.Context(), actor(c), c.Param("id"), req)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

func (h *ListingHandler) DeleteListing(c *gin.Context) {
	if err := h.Listings.Delete(c.Request.Context(), actor(c), c.Param("id")); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "deleted"})
}

type statusRequest struct {
	Status model.ListingStatus `json:"status" binding:"required"`
}

// PATCH /api/listings/:id/status {"status":"sold"}
func (h *ListingHandler) SetStatus(c *gin.Context) {
	var req statusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	l, err := h.Listings.SetStatus(c.Request.Context(), actor(c), c.Param("id"), req.Status)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, l)
}

type contactRequest struct {
	Message string `json:"message" binding:"required"`
}

func (h *ListingHandler) ContactSeller(c *gin.Context) {
	var req contactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid payload")
		return
	}
	if err := h.Contact.ContactSeller(c.Request.Context(), middleware.UserID(c), c.Param("id"), req.Message); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "sent"})
}

func (h *ListingHandler) Mine(c *gin.Context) {
	list, err := h.Listings.Mine(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if list == nil {
		list = []model.Listing{}
	}
	c.JSON(http.StatusOK, list)
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// GET /api/me/listings/export
func (h *ListingHandler) Export(c *gin.Context) {
	wb, err := h.Listings.Export(c.Request.Context(), middleware.UserID(c))
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	defer wb.Close()

	buf, err := wb.WriteToBuffer()
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="my-listings.xlsx"`)
	c.Data(http.StatusOK, xlsxContentType, buf.Bytes())
}

// GET /api/admin/listings?status=removed
func (h *ListingHandler) AdminList(c *gin.Context) {
	status := model.ListingStatus(c.DefaultQuery("status", string(model.StatusRemoved)))
	list, err := h.Listings.ListByStatus(c.Request.Context(), actor(c), status)
	if err != nil {
		respondError(c, h.Logger, err)
		return
	}
	if list == nil {
		list = []model.Listing{}
	}
	c.JSON(http.StatusOK, list)
}

// PUT /api/admin/listings/:id/remove
func (h *ListingHandler) Remove(c *gin.Context) {
	h.moderate(c, model.StatusRemoved, "removed")
}

// PUT /api/admin/listings/:id/restore
func (h *ListingHandler) Restore(c *gin.Context) {
	h.moderate(c, model.StatusActive, "restored")
}

func (h *ListingHandler) moderate(c *gin.Context, status model.ListingStatus, msg string) {
	if err := h.Listings.Moderate(c.Request.Context(), actor(c), c.Param("id"), status); err != nil {
		respondError(c, h.Logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": msg})
}
