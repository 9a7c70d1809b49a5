package api

import (
	"github.com/gin-gonic/gin"

	ctecancel "github.com/freteops/ctecancel"
)

type Api struct {
	service *ctecancel.CteCancel
	router  *gin.Engine
}

func (a Api) Router() *gin.Engine {
	router := a.router

	router.GET("/authorizations", a.ListAuthorizations)
	router.GET("/authorizations/stats", a.GetStats)
	router.POST("/authorizations/import", a.ImportSpreadsheet)
	router.POST("/authorizations/import-xml", a.ImportXMLBatch)
	router.PATCH("/authorizations/:id/xml", a.AttachXML)
	router.POST("/authorizations/:id/send-to-sap", a.SendToSap)

	router.GET("/logs", a.GetLogs)

	return a.router
}

func NewAPI(service *ctecancel.CteCancel) *Api {
	gin.SetMode(gin.ReleaseMode)
	r := gin.Default()

	r.GET("/", func(c *gin.Context) {
		c.JSON(200, "server running...")
	})

	return &Api{service: service, router: r}
}
