package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/wanderlog/internal/service"
)

// ToggleCountry 切换当前用户某个国家的到访标记
func (a *API) ToggleCountry(c *gin.Context) {
	var payload struct {
		CountryCode string `json:"country_code" binding:"required"`
	}
	if !bindJSON(c, &payload, "country_code is required") {
		return
	}

	added, err := a.countries.Toggle(currentUserID(c), payload.CountryCode)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCountryCode) {
			respondError(c, http.StatusBadRequest, "invalid country code")
			return
		}
		respondError(c, http.StatusInternalServerError, "failed to toggle country")
		return
	}

	status := "removed"
	if added {
		status = "added"
	}
	c.JSON(http.StatusOK, gin.H{"status": status, "code": payload.CountryCode})
}
