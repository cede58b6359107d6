// Package http is the thin transport adapter: it registers each analysis
// operation as an endpoint and marshals reports to JSON. No analysis logic
// lives here.
package http

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"glyco"
	"glyco/pkg/readings"
)

type HttpServer struct {
	Service *glyco.Service
	Addr    string
}

func New(svc *glyco.Service, addr string) *HttpServer {
	return &HttpServer{Service: svc, Addr: addr}
}

func (s *HttpServer) Run() error {
	r := gin.Default()

	r.GET("/current", func(c *gin.Context) {
		rep, err := s.Service.CurrentGlucose(c.Request.Context())
		respond(c, rep, err)
	})

	r.GET("/status", func(c *gin.Context) {
		var q struct {
			Minutes int `form:"minutes"`
		}
		if err := c.ShouldBindQuery(&q); err != nil {
			c.String(http.StatusBadRequest, "expected integer minutes")
			return
		}
		rep, err := s.Service.StatusSummary(c.Request.Context(), q.Minutes)
		respond(c, rep, err)
	})

	r.POST("/alerts/check", func(c *gin.Context) {
		p, ok := bindParams(c)
		if !ok {
			return
		}
		rep, err := s.Service.CheckAlerts(c.Request.Context(), p)
		respond(c, rep, err)
	})

	type operation func(c *gin.Context, p glyco.Params) (interface{}, error)
	ops := map[string]operation{
		"/readings": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.Readings(c.Request.Context(), p)
		},
		"/statistics": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.Statistics(c.Request.Context(), p)
		},
		"/episodes": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.DetectEpisodes(c.Request.Context(), p)
		},
		"/episodes/details": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.EpisodeDetails(c.Request.Context(), p)
		},
		"/timeblocks": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.TimeBlocks(c.Request.Context(), p)
		},
		"/export": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.Export(c.Request.Context(), p)
		},
		"/agp": func(c *gin.Context, p glyco.Params) (interface{}, error) {
			return s.Service.AGPReport(c.Request.Context(), p)
		},
	}

	for path, op := range ops {
		op := op
		r.POST(path, func(c *gin.Context) {
			p, ok := bindParams(c)
			if !ok {
				return
			}
			rep, err := op(c, p)
			respond(c, rep, err)
		})
	}

	return r.Run(s.Addr)
}

func bindParams(c *gin.Context) (glyco.Params, bool) {
	var p glyco.Params
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&p); err != nil {
			c.String(http.StatusBadRequest, "malformed request body: %v", err)
			return p, false
		}
	}
	return p, true
}

func respond(c *gin.Context, rep interface{}, err error) {
	if err != nil {
		if errors.Is(err, readings.ErrValidation) {
			c.String(http.StatusBadRequest, "invalid reading batch: %v", err)
			return
		}
		c.String(http.StatusInternalServerError, "something went wrong: %v", err)
		return
	}
	c.JSON(http.StatusOK, rep)
}
