package handler

import (
	"net/http"

	"taskboard/internal/prefs"

	"github.com/gin-gonic/gin"
)

type PreferenceHandler struct {
	store prefs.Store
}

func NewPreferenceHandler(store prefs.Store) *PreferenceHandler {
	return &PreferenceHandler{store: store}
}

type PreferenceRequest struct {
	Value string `json:"value" binding:"required,max=1024"`
}

type PreferenceResponse struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// Get godoc
// @Summary      Read a preference of the current user
// @Tags         Preferences
// @Produce      json
// @Security     BearerAuth
// @Param        key  path      string  true  "Preference key"
// @Success      200  {object}  PreferenceResponse
// @Failure      404  {object}  map[string]string
// @Router       /preferences/{key} [get]
func (h *PreferenceHandler) Get(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	key := c.Param("key")
	value, found, err := h.store.Get(c.Request.Context(), userID, key)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to read preference"})
		return
	}
	if !found {
		c.JSON(http.StatusNotFound, gin.H{"error": "Preference not found"})
		return
	}

	c.JSON(http.StatusOK, PreferenceResponse{Key: key, Value: value})
}

// Set godoc
// @Summary      Store a preference of the current user
// @Tags         Preferences
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        key      path      string             true  "Preference key"
// @Param        request  body      PreferenceRequest  true  "Value"
// @Success      200      {object}  PreferenceResponse
// @Router       /preferences/{key} [put]
func (h *PreferenceHandler) Set(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	var req PreferenceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request"})
		return
	}

	key := c.Param("key")
	if err := h.store.Set(c.Request.Context(), userID, key, req.Value); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store preference"})
		return
	}

	c.JSON(http.StatusOK, PreferenceResponse{Key: key, Value: req.Value})
}
