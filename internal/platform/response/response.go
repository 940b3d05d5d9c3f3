package response

import (
	"net/http"

	"github.com/Kilat-Pet-Delivery/service-navigation/internal/platform/domain"
	"github.com/gin-gonic/gin"
)

// Envelope is the JSON body shape of every API response.
type Envelope struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   string      `json:"error,omitempty"`
	Meta    *Meta       `json:"meta,omitempty"`
}

// Meta carries paging information for list responses.
type Meta struct {
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

// Success writes a 200 with data.
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, Envelope{Success: true, Data: data})
}

// Accepted writes a 202 with data, used for commands whose outcome arrives
// later on the event stream.
func Accepted(c *gin.Context, data interface{}) {
	c.JSON(http.StatusAccepted, Envelope{Success: true, Data: data})
}

// Paginated writes a 200 list response with paging metadata.
func Paginated(c *gin.Context, items interface{}, total int64, page, limit int) {
	c.JSON(http.StatusOK, Envelope{
		Success: true,
		Data:    items,
		Meta:    &Meta{Total: total, Page: page, Limit: limit},
	})
}

// BadRequest writes a 400 with the message.
func BadRequest(c *gin.Context, message string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, Envelope{Success: false, Error: message})
}

// Error maps a domain error to its HTTP status.
func Error(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	message := "internal server error"

	switch {
	case domain.IsValidation(err):
		status, message = http.StatusBadRequest, err.Error()
	case domain.IsNotFound(err):
		status, message = http.StatusNotFound, err.Error()
	case domain.IsInvalidState(err):
		status, message = http.StatusUnprocessableEntity, err.Error()
	case domain.IsConflict(err):
		status, message = http.StatusConflict, err.Error()
	}

	c.AbortWithStatusJSON(status, Envelope{Success: false, Error: message})
}
