package tool

import (
	"fmt"

	"github.com/gin-gonic/gin"
)

// Response bodies shared by every handler: {"error": msg}, {"status": "ok"}, {"data": ...}.

func FastReturnError(msg string) gin.H {
	return gin.H{
		"error": msg,
	}
}

func FastReturnErrorf(format string, args ...any) gin.H {
	return FastReturnError(fmt.Sprintf(format, args...))
}

func FastReturnSuccess() gin.H {
	return gin.H{
		"status": "ok",
	}
}

func FastReturnSuccessWithData(data any) gin.H {
	return gin.H{
		"data": data,
	}
}
