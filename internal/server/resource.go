package server

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"manager/internal/models"
)

// resource serves the CRUD routes of one entity kind. A nil operation leaves its
// route unregistered.
type resource[T any, In any] struct {
	s    *Server
	path string
	// key names the single item in JSON responses.
	key string

	list   func(ctx context.Context, q models.ListQuery) (models.Page[T], error)
	get    func(ctx context.Context, id int64) (T, error)
	create func(ctx context.Context, in In) (T, error)
	update func(ctx context.Context, id int64, in In) (T, error)
	remove func(ctx context.Context, id int64) error
}

func (r resource[T, In]) mount(g *gin.RouterGroup) {
	group := g.Group(r.path)
	if r.list != nil {
		group.GET("", r.handleList)
	}
	if r.create != nil {
		group.POST("", r.handleCreate)
	}
	if r.get != nil {
		group.GET(":id", r.handleGet)
	}
	if r.update != nil {
		group.PUT(":id", r.handleUpdate)
	}
	if r.remove != nil {
		group.DELETE(":id", r.handleDelete)
	}
}

func (r resource[T, In]) handleList(c *gin.Context) {
	page, err := r.list(c.Request.Context(), r.s.listQuery(c))
	if err != nil {
		r.s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, page)
}

func (r resource[T, In]) handleGet(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	item, err := r.get(c.Request.Context(), id)
	if err != nil {
		r.s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{r.key: item})
}

func (r resource[T, In]) handleCreate(c *gin.Context) {
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		r.s.respondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := r.create(c.Request.Context(), in)
	if err != nil {
		r.s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusCreated, gin.H{r.key: item})
}

func (r resource[T, In]) handleUpdate(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	var in In
	if err := c.ShouldBindJSON(&in); err != nil {
		r.s.respondError(c, http.StatusBadRequest, err)
		return
	}
	item, err := r.update(c.Request.Context(), id, in)
	if err != nil {
		r.s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{r.key: item})
}

func (r resource[T, In]) handleDelete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := r.remove(c.Request.Context(), id); err != nil {
		r.s.fail(c, err)
		return
	}
	respondSuccess(c, http.StatusOK, gin.H{"status": "deleted"})
}
