package handler

import (
	"Chatwave/internal/pkg/consts"
	"strconv"

	"github.com/gin-gonic/gin"
)

// uintParam 解析路径中的 ID，非法或为 0 时返回 false
func uintParam(c *gin.Context, name string) (uint64, bool) {
	id, err := strconv.ParseUint(c.Param(name), 10, 64)
	if err != nil || id == 0 {
		return 0, false
	}
	return id, true
}

func viewerID(c *gin.Context) uint64 {
	return c.GetUint64(consts.UserIDKey)
}
