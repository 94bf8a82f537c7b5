package savesvc

import (
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/milk9111/tycoon/profile"
	"github.com/rs/zerolog"
)

const maxBody = 1 << 20

type Handler struct {
	repo *Repository
	log  zerolog.Logger
}

func NewHandler(repo *Repository, log zerolog.Logger) *Handler {
	return &Handler{repo: repo, log: log}
}

func (h *Handler) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), h.requestLog())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	profiles := r.Group("/profiles")
	{
		profiles.POST("", h.create)
		profiles.GET("/:id", h.get)
		profiles.PUT("/:id", h.put)
	}
	return r
}

func (h *Handler) requestLog() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()
		h.log.Debug().
			Str("method", c.Request.Method).
			Str("path", c.FullPath()).
			Int("status", c.Writer.Status()).
			Msg("request")
	}
}

func (h *Handler) create(c *gin.Context) {
	p := profile.Default()
	p.ID = uuid.NewString()
	data, err := profile.Encode(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}
	if _, err := h.repo.Put(c.Request.Context(), p.ID, string(data)); err != nil {
		h.log.Error().Err(err).Msg("create profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"id": p.ID})
}

func (h *Handler) get(c *gin.Context) {
	doc, err := h.repo.Get(c.Request.Context(), c.Param("id"))
	if errors.Is(err, ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Msg("get profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "load failed"})
		return
	}
	c.Data(http.StatusOK, "application/json", []byte(doc.Data))
}

func (h *Handler) put(c *gin.Context) {
	id := c.Param("id")
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBody+1))
	if err != nil || len(body) > maxBody {
		c.JSON(http.StatusBadRequest, gin.H{"error": "body too large"})
		return
	}
	p, err := profile.Decode(body)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid profile"})
		return
	}
	p.ID = id
	data, err := profile.Encode(p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "encode failed"})
		return
	}
	doc, err := h.repo.Put(c.Request.Context(), id, string(data))
	if err != nil {
		h.log.Error().Err(err).Str("id", id).Msg("put profile")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "store failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"id": doc.ID, "updated_at": doc.UpdatedAt})
}
