package questioncontroller

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"qa-server/services"
)

const (
	questionNotFound = "Question not found"
	answerNotFound   = "Answer not found"
)

// Every successful call answers 202 with its payload. Every failure answers
// a non-2xx status with {"message": ...}, so callers can rely on the status
// code alone.
func ok(ctx *gin.Context, payload gin.H) {
	ctx.JSON(http.StatusAccepted, payload)
}

func badRequest(ctx *gin.Context, err error) {
	_ = ctx.Error(err)
	ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
}

// fail maps a store error to its status. notFoundMessage names what was
// missing when the error is ErrNotFound.
func fail(ctx *gin.Context, err error, notFoundMessage string) {
	_ = ctx.Error(err)

	var verr *questionService.ValidationError
	switch {
	case errors.As(err, &verr):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": verr.Message})
	case errors.Is(err, questionService.ErrInvalidID):
		ctx.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"message": err.Error()})
	case errors.Is(err, questionService.ErrNotFound) && notFoundMessage != "":
		ctx.AbortWithStatusJSON(http.StatusNotFound, gin.H{"message": notFoundMessage})
	default:
		ctx.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"message": "Storage error"})
	}
}
