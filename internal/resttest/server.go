package resttest

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/tutasdk/client-go/internal/rest"
)

// Handler serves the Backend over HTTP so that the net/http transport can
// be exercised end to end.
func (b *Backend) Handler() http.Handler {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(gin.Recovery())

	h := &handler{backend: b}
	r.GET("/rest/:app/:type/:id", h.forward)
	r.GET("/rest/:app/:type/:id/:elem", h.forward)
	r.POST("/rest/:app/:type", h.forward)
	r.POST("/rest/:app/:type/:id", h.forward)
	r.PUT("/rest/:app/:type/:id", h.forward)
	r.PUT("/rest/:app/:type/:id/:elem", h.forward)
	r.DELETE("/rest/:app/:type/:id", h.forward)
	r.DELETE("/rest/:app/:type/:id/:elem", h.forward)

	return r
}

type handler struct {
	backend *Backend
}

func (h *handler) forward(c *gin.Context) {
	var body []byte
	if c.Request.Body != nil {
		data, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(data) > 0 {
			body = data
		}
	}

	headers := make(map[string]string, len(c.Request.Header))
	for name := range c.Request.Header {
		headers[name] = c.GetHeader(name)
	}

	resp, err := h.backend.Request(c.Request.Context(), c.Request.URL.RequestURI(), rest.Method(c.Request.Method), rest.Options{
		Body:    body,
		Headers: headers,
	})
	if err != nil {
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	for name, value := range resp.Headers {
		c.Header(name, value)
	}
	if len(resp.Body) == 0 {
		c.Status(resp.Status)
		return
	}
	c.Data(resp.Status, "application/json", resp.Body)
}
