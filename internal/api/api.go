// Package api serves the emissions client over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	carbonaccounting "github.com/Open-Earth-Foundation/blockchain-carbon-accounting"
	"github.com/Open-Earth-Foundation/blockchain-carbon-accounting/internal/client"

	"github.com/gin-gonic/gin"
)

type Server struct {
	router *gin.Engine
	client *client.Client
}

func New(c *client.Client) *Server {
	gin.SetMode(gin.ReleaseMode)

	s := &Server{
		router: gin.New(),
		client: c,
	}
	s.router.Use(gin.Recovery(), requestLogger())
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	s.router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	emissions := s.router.Group("/emissions")
	{
		emissions.POST("", s.recordEmissions)
		emissions.GET("", s.listEmissions)
		emissions.GET("/range", s.emissionsByDateRange)
		emissions.GET("/summary", s.summary)
		emissions.GET("/:uuid", s.getEmissions)
		emissions.PUT("/:uuid", s.updateEmissions)
	}

	factors := s.router.Group("/factors")
	{
		factors.POST("", s.importFactor)
		factors.GET("/:uuid", s.getFactor)
		factors.PUT("/:uuid", s.updateFactor)
	}

	utilities := s.router.Group("/utilities")
	{
		utilities.POST("", s.importUtility)
		utilities.GET("", s.listUtilities)
		utilities.GET("/:uuid", s.getUtility)
		utilities.PUT("/:uuid", s.updateUtility)
	}
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		slog.Debug("request served",
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"duration", time.Since(start))
	}
}

// respond answers 502 when the ledger transaction behind the result failed.
func respond(c *gin.Context, info string, body any) {
	status := http.StatusOK
	if client.Failed(info) {
		status = http.StatusBadGateway
	}
	c.JSON(status, body)
}

func badRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{"info": err.Error()})
}

func (s *Server) recordEmissions(c *gin.Context) {
	var req client.RecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, err)
		return
	}
	res := s.client.RecordEmissions(c.Request.Context(), req)
	respond(c, res.Info, res)
}

func (s *Server) updateEmissions(c *gin.Context) {
	var update client.EmissionsResult
	if err := c.ShouldBindJSON(&update); err != nil {
		badRequest(c, err)
		return
	}
	update.UUID = c.Param("uuid")
	res := s.client.UpdateEmissionsRecord(c.Request.Context(), update)
	respond(c, res.Info, res)
}

func (s *Server) getEmissions(c *gin.Context) {
	res := s.client.GetEmissionsData(c.Request.Context(), c.Param("uuid"))
	respond(c, res.Info, res)
}

func (s *Server) listEmissions(c *gin.Context) {
	list := s.client.GetAllEmissionsData(c.Request.Context(), c.Query("utilityId"), c.Query("partyId"))
	respond(c, list.Info, list)
}

func (s *Server) emissionsByDateRange(c *gin.Context) {
	fromDate, thruDate := c.Query("fromDate"), c.Query("thruDate")

	var list client.EmissionsList
	if partyID := c.Query("partyId"); partyID != "" {
		list = s.client.GetEmissionsByDateRangeAndParty(c.Request.Context(), fromDate, thruDate, partyID)
	} else {
		list = s.client.GetEmissionsByDateRange(c.Request.Context(), fromDate, thruDate)
	}
	respond(c, list.Info, list)
}

func (s *Server) summary(c *gin.Context) {
	summary := s.client.SummarizeEmissions(c.Request.Context(), c.Query("utilityId"), c.Query("partyId"))
	respond(c, summary.Info, summary)
}

func (s *Server) importFactor(c *gin.Context) {
	factor, ok := bindFactor(c)
	if !ok {
		return
	}
	res := s.client.ImportUtilityFactor(c.Request.Context(), factor)
	respond(c, res.Info, res)
}

func (s *Server) updateFactor(c *gin.Context) {
	factor, ok := bindFactor(c)
	if !ok {
		return
	}
	factor.UUID = c.Param("uuid")
	res := s.client.UpdateUtilityFactor(c.Request.Context(), factor)
	respond(c, res.Info, res)
}

func (s *Server) getFactor(c *gin.Context) {
	res := s.client.GetUtilityFactor(c.Request.Context(), c.Param("uuid"))
	respond(c, res.Info, res)
}

func (s *Server) importUtility(c *gin.Context) {
	lookup, ok := bindLookup(c)
	if !ok {
		return
	}
	res := s.client.ImportUtilityIdentifier(c.Request.Context(), lookup)
	respond(c, res.Info, res)
}

func (s *Server) updateUtility(c *gin.Context) {
	lookup, ok := bindLookup(c)
	if !ok {
		return
	}
	lookup.UUID = c.Param("uuid")
	res := s.client.UpdateUtilityIdentifier(c.Request.Context(), lookup)
	respond(c, res.Info, res)
}

func (s *Server) getUtility(c *gin.Context) {
	res := s.client.GetUtilityIdentifier(c.Request.Context(), c.Param("uuid"))
	respond(c, res.Info, res)
}

func (s *Server) listUtilities(c *gin.Context) {
	list := s.client.FindUtilities(c.Request.Context(), c.Query("q"))
	respond(c, list.Info, list)
}

// bindFactor accepts loosely typed factor rows, with numbers possibly quoted.
func bindFactor(c *gin.Context) (carbonaccounting.UtilityEmissionsFactorItem, bool) {
	raw := make(map[string]any)
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return carbonaccounting.UtilityEmissionsFactorItem{}, false
	}
	if _, found := raw["uuid"]; !found && c.Param("uuid") != "" {
		raw["uuid"] = c.Param("uuid")
	}
	factor, err := carbonaccounting.DecodeFactor(raw)
	if err != nil {
		badRequest(c, err)
		return factor, false
	}
	return factor, true
}

func bindLookup(c *gin.Context) (carbonaccounting.UtilityLookupItem, bool) {
	raw := make(map[string]any)
	if err := c.ShouldBindJSON(&raw); err != nil {
		badRequest(c, err)
		return carbonaccounting.UtilityLookupItem{}, false
	}
	if _, found := raw["uuid"]; !found && c.Param("uuid") != "" {
		raw["uuid"] = c.Param("uuid")
	}
	lookup, err := carbonaccounting.DecodeLookup(raw)
	if err != nil {
		badRequest(c, err)
		return lookup, false
	}
	return lookup, true
}
