// Package handler exposes the caller's notes over HTTP.
package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"

	identitydomain "notesmk/backend/internal/identity/domain"
	identityservice "notesmk/backend/internal/identity/service"
	"notesmk/backend/internal/note/domain"
	"notesmk/backend/internal/server/httperr"
	"notesmk/backend/internal/server/middleware"
)

// Notes is the subset of service.Guard the handler calls.
type Notes interface {
	List(ctx context.Context, who identitydomain.Identity) ([]*domain.Note, error)
	Create(ctx context.Context, who identitydomain.Identity, title, content string) (*domain.Note, error)
	Update(ctx context.Context, who identitydomain.Identity, id, title, content string) (*domain.Note, error)
	Delete(ctx context.Context, who identitydomain.Identity, id string) error
}

// Handler serves /notes routes. Every route runs behind the session gate.
type Handler struct {
	notes Notes
}

// New returns a Handler.
func New(notes Notes) *Handler {
	return &Handler{notes: notes}
}

// Register mounts the note routes on r behind gate.
func (h *Handler) Register(r fiber.Router, gate fiber.Handler) {
	g := r.Group("/notes", gate)
	g.Get("/", h.List)
	g.Post("/createNote", h.Create)
	g.Put("/updateNote/:id", h.Update)
	g.Delete("/:id", h.Delete)
}

type noteRequest struct {
	Title   string `json:"title"`
	Content string `json:"content"`
}

type noteView struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Content   string    `json:"content"`
	Seq       int64     `json:"seq"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func viewOf(n *domain.Note) noteView {
	return noteView{ID: n.ID, Title: n.Title, Content: n.Content, Seq: n.Seq, CreatedAt: n.CreatedAt, UpdatedAt: n.UpdatedAt}
}

func caller(c fiber.Ctx) (identitydomain.Identity, error) {
	who, ok := middleware.IdentityFrom(c)
	if !ok {
		return identitydomain.Identity{}, identityservice.ErrAuthRequired
	}
	return who, nil
}

// noteID copies the :id param. Fiber reuses the request buffer the param points into, and the id
// outlives the handler in recorded events.
func noteID(c fiber.Ctx) string {
	return strings.Clone(c.Params("id"))
}

// List returns the caller's profile summary and notes.
func (h *Handler) List(c fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	notes, err := h.notes.List(c.Context(), who)
	if err != nil {
		return err
	}
	views := make([]noteView, 0, len(notes))
	for _, n := range notes {
		views = append(views, viewOf(n))
	}
	return c.JSON(fiber.Map{
		"user":  fiber.Map{"name": who.Name, "email": who.Email},
		"notes": views,
	})
}

// Create stores a new note for the caller.
func (h *Handler) Create(c fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	n, err := h.notes.Create(c.Context(), who, req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(viewOf(n))
}

// Update replaces title and content of one of the caller's notes.
func (h *Handler) Update(c fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	var req noteRequest
	if err := c.Bind().Body(&req); err != nil {
		return httperr.ErrBadRequest
	}
	n, err := h.notes.Update(c.Context(), who, noteID(c), req.Title, req.Content)
	if err != nil {
		return err
	}
	return c.JSON(viewOf(n))
}

// Delete removes one of the caller's notes.
func (h *Handler) Delete(c fiber.Ctx) error {
	who, err := caller(c)
	if err != nil {
		return err
	}
	if err := h.notes.Delete(c.Context(), who, noteID(c)); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"success": true, "message": "Note deleted successfully"})
}
