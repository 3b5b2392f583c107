package report

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// HandleMonthlyRun triggers the monthly email run synchronously so the caller
// sees the sent/skipped counts. Admin-only; the scheduled task covers the
// regular path.
func HandleMonthlyRun(deps MonthlyDeps) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := RunMonthlyEmail(c.Request.Context(), deps, time.Now())
		if err != nil {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "monthly report run failed"})
			return
		}
		c.JSON(http.StatusOK, result)
	}
}
