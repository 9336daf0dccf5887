package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/planning-tool/planner-server/internal/models"
)

func (h *Handler) ListBookmarks(c *gin.Context) {
	bookmarks, err := h.service.ListBookmarks(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	if bookmarks == nil {
		bookmarks = []models.Bookmark{}
	}
	c.JSON(http.StatusOK, models.BookmarksResponse{Bookmarks: bookmarks})
}

func (h *Handler) CreateBookmark(c *gin.Context) {
	var req models.BookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	bookmark, err := h.service.CreateBookmark(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, bookmark)
}

func (h *Handler) UpdateBookmark(c *gin.Context) {
	var req models.UpdateBookmarkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	bookmark, err := h.service.UpdateBookmark(c.Request.Context(), c.GetString(ctxUserID), c.Param("id"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, bookmark)
}

func (h *Handler) DeleteBookmark(c *gin.Context) {
	if err := h.service.DeleteBookmark(c.Request.Context(), c.GetString(ctxUserID), c.Param("id")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Bookmark deleted successfully"})
}

// Collections

func (h *Handler) ListCollections(c *gin.Context) {
	collections, err := h.service.ListCollections(c.Request.Context(), c.GetString(ctxUserID))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collections)
}

func (h *Handler) CreateCollection(c *gin.Context) {
	var req models.CollectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	collection, err := h.service.CreateCollection(c.Request.Context(), c.GetString(ctxUserID), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, collection)
}

func (h *Handler) GetCollection(c *gin.Context) {
	collection, err := h.service.GetCollection(c.Request.Context(), c.Param("name"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, collection)
}

func (h *Handler) DeleteCollection(c *gin.Context) {
	if err := h.service.DeleteCollection(c.Request.Context(), c.Param("name")); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Collection deleted successfully"})
}

func (h *Handler) AddCollectionMember(c *gin.Context) {
	var req models.AddCollectionMemberRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err.Error())
		return
	}

	member, err := h.service.AddCollectionMember(c.Request.Context(), c.Param("name"), req)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, member)
}

func (h *Handler) RemoveCollectionMember(c *gin.Context) {
	err := h.service.RemoveCollectionMember(c.Request.Context(), c.Param("name"), c.Param("username"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, models.MessageResponse{Message: "Member removed from collection"})
}
