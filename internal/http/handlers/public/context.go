package public

import (
	"github.com/neonclub/neon-api/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, code int, msg string, err error) {
	shared.RespondError(c, code, msg, err)
}

func getDistributorID(c *gin.Context) (uint, bool) {
	return shared.GetContextUint(c, "distributor_id")
}

func normalizePagination(page, pageSize int) (int, int) {
	return shared.NormalizePagination(page, pageSize)
}
