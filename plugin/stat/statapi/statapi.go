package statapi

import (
	"github.com/gin-gonic/gin"
	"github.com/gowvp/argus/plugin/stat"
	"github.com/ixugo/goddd/pkg/web"
)

// Register 注册系统状态接口
func Register(r gin.IRouter, handlers ...gin.HandlerFunc) {
	group := r.Group("/system", handlers...)
	group.GET("/stats", web.WrapH(getStats))
}

func getStats(c *gin.Context, _ *struct{}) (stat.Stats, error) {
	return stat.Collect(c.Request.Context()), nil
}
