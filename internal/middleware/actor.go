package middleware

import (
	"stocktrace/internal/model"
	"stocktrace/internal/repository"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

const ActorKey = "actor"

// ActorContext resolves the acting operator from the X-Operator-ID header
// set by the surrounding application's auth layer. The actor is optional —
// it is only stamped on build records and audit metadata, so a missing or
// unknown operator does not reject the request.
func ActorContext(operators repository.OperatorRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("X-Operator-ID")
		if header == "" {
			c.Next()
			return
		}
		id, err := uuid.Parse(header)
		if err != nil {
			log.Warn().Str("operator_id", header).Msg("malformed X-Operator-ID header")
			c.Next()
			return
		}
		op, err := operators.FindByID(c.Request.Context(), id)
		if err != nil || !op.Active {
			c.Next()
			return
		}
		c.Set(ActorKey, op)
		c.Next()
	}
}

// GetActor returns the resolved operator, or nil when the request carried
// none.
func GetActor(c *gin.Context) *model.Operator {
	if v, ok := c.Get(ActorKey); ok {
		if op, ok := v.(*model.Operator); ok {
			return op
		}
	}
	return nil
}
