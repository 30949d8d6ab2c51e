package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/pkg/errors"

	"github.com/customeros/dmarc-summaries/interfaces"
	er "github.com/customeros/dmarc-summaries/internal/errors"
)

// Reconcile starts a reconciliation run in the background. The run outlives
// the request, so it gets a fresh context.
func Reconcile(job interfaces.DmarcSummaryJob) gin.HandlerFunc {
	return func(c *gin.Context) {
		err := job.Start(context.Background())
		if errors.Is(err, er.ErrRunInProgress) {
			c.JSON(http.StatusConflict, gin.H{
				"error": err.Error(),
			})
			return
		}
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{
				"error": err.Error(),
			})
			return
		}

		c.JSON(http.StatusAccepted, gin.H{
			"status": "started",
		})
	}
}

// LastRun returns the result of the latest finished run.
func LastRun(job interfaces.DmarcSummaryJob) gin.HandlerFunc {
	return func(c *gin.Context) {
		result := job.LastResult()
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{
				"error": "no finished run yet",
			})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
