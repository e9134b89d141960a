package response

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"quartz-storefront/internal/core/errs"
)

type Resp struct {
	Success bool   `json:"success"`
	Code    string `json:"code"`
	Error   string `json:"error,omitempty"`
	Data    any    `json:"data,omitempty"`
}

func OK(data any) Resp { return Resp{Success: true, Code: CodeOK, Data: data} }

func Fail(code, msg string) Resp { return Resp{Code: code, Error: msg} }

// FromError renders err without leaking anything a caller should not see.
// Unknown errors collapse to a generic message.
func FromError(err error) (int, Resp) {
	k := errs.KindOf(err)
	if k == errs.Unknown {
		return Status(k), Fail(CodeInternal, msgInternal)
	}
	return Status(k), Fail(k.String(), errs.Message(err, k.String()))
}

// JSON writes the success envelope.
func JSON(c *gin.Context, status int, data any) { c.JSON(status, OK(data)) }

// Abort writes err as the failure envelope and stops the chain. Unknown and
// upstream failures are logged with the request id.
func Abort(c *gin.Context, l *zap.Logger, err error) {
	status, body := FromError(err)
	if l != nil {
		if k := errs.KindOf(err); k == errs.Unknown || k == errs.UpstreamFailure {
			l.Error("request failed",
				zap.String("rid", c.GetString(KeyRequestID)),
				zap.String("path", c.FullPath()),
				zap.Error(err),
			)
		}
	}
	c.AbortWithStatusJSON(status, body)
}

func Unauthorized(c *gin.Context) {
	c.AbortWithStatusJSON(Status(errs.Unauthenticated), Fail(errs.Unauthenticated.String(), msgUnauthorized))
}
