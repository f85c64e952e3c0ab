package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/recipebox/backend/internal/apperror"
	"github.com/recipebox/backend/internal/logging"
	"github.com/recipebox/backend/internal/model"
)

// writeError renders err as the JSON error envelope. Errors that carry no
// kind are reported as 500 with their message.
func writeError(c *gin.Context, log logging.Logger, err error) {
	appErr := apperror.As(err)
	status := appErr.Status()

	args := []any{"method", c.Request.Method, "path", c.FullPath()}
	if appErr.Err != nil {
		args = append(args, "error", appErr.Err)
	}
	log.Error(c.Request.Context(), fmt.Sprintf("[%d] - %s", status, appErr.Message), args...)

	c.AbortWithStatusJSON(status, model.ErrorResponse{
		Success:          false,
		Error:            appErr.Message,
		ValidationErrors: appErr.Fields,
	})
}

func writeData(c *gin.Context, status int, data any) {
	c.JSON(status, model.Response{Success: true, Data: data})
}

func writeMessage(c *gin.Context, message string) {
	c.JSON(http.StatusOK, model.Response{Success: true, Message: message})
}

// pathID returns the named URL parameter after checking it is a UUID.
func pathID(c *gin.Context, name, entity string) (string, error) {
	raw := c.Param(name)
	if !isUUID(raw) {
		return "", apperror.BadRequest(fmt.Sprintf("Invalid %s ID in URL", entity))
	}
	return raw, nil
}

// isUUID accepts only the canonical lower-case form ids are stored in.
func isUUID(s string) bool {
	id, err := uuid.Parse(s)
	return err == nil && id.String() == s
}

// NotFound answers requests that match no route.
func NotFound(c *gin.Context) {
	c.JSON(http.StatusNotFound, model.ErrorResponse{Success: false, Error: "Route not found"})
}
