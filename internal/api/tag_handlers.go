package api

import (
	"net/http"

	"marketnet/internal/models"

	"github.com/gin-gonic/gin"
)

func (h *Handler) listTags(c *gin.Context) {
	tags, err := h.tags.ListTags(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, tags)
}

func (h *Handler) createTag(c *gin.Context) {
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request body", err)
		return
	}

	tag, err := h.tags.CreateTag(c.Request.Context(), req.Label)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, tag)
}

func (h *Handler) listObjectTags(kind models.TaggableKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		tags, err := h.tags.TagsFor(c.Request.Context(), models.TagRef{Kind: kind, ID: id})
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusOK, tags)
	}
}

func (h *Handler) tagObject(kind models.TaggableKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		var req tagObjectRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request body", err)
			return
		}

		item, err := h.tags.TagObject(c.Request.Context(), req.TagID, models.TagRef{Kind: kind, ID: id})
		if err != nil {
			h.respondError(c, err)
			return
		}
		c.JSON(http.StatusCreated, item)
	}
}

func (h *Handler) untagObject(kind models.TaggableKind) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, ok := idParam(c, "id")
		if !ok {
			return
		}
		tagID, ok := idParam(c, "tag_id")
		if !ok {
			return
		}
		if err := h.tags.Untag(c.Request.Context(), tagID, models.TagRef{Kind: kind, ID: id}); err != nil {
			h.respondError(c, err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}
