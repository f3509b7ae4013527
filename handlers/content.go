package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"sahaya-donation-api/database"
	"sahaya-donation-api/models"
	"sahaya-donation-api/utils"
)

// ContentStore é o contrato de persistência das entidades de conteúdo
type ContentStore interface {
	GetBlogs(ctx context.Context, publishedOnly bool) ([]models.Blog, error)
	GetBlogByID(ctx context.Context, id string) (*models.Blog, error)
	CreateBlog(ctx context.Context, b *models.Blog) error
	UpdateBlog(ctx context.Context, b *models.Blog) error
	DeleteBlog(ctx context.Context, id string) error

	GetEvents(ctx context.Context) ([]models.Event, error)
	GetEventByID(ctx context.Context, id string) (*models.Event, error)
	CreateEvent(ctx context.Context, e *models.Event) error
	UpdateEvent(ctx context.Context, e *models.Event) error
	DeleteEvent(ctx context.Context, id string) error

	GetProjects(ctx context.Context) ([]models.Project, error)
	GetProjectByID(ctx context.Context, id string) (*models.Project, error)
	CreateProject(ctx context.Context, p *models.Project) error
	UpdateProject(ctx context.Context, p *models.Project) error
	DeleteProject(ctx context.Context, id string) error

	GetGalleryItems(ctx context.Context) ([]models.GalleryItem, error)
	CreateGalleryItem(ctx context.Context, g *models.GalleryItem) error
	DeleteGalleryItem(ctx context.Context, id string) error

	GetTeamMembers(ctx context.Context) ([]models.TeamMember, error)
	CreateTeamMember(ctx context.Context, m *models.TeamMember) error
	UpdateTeamMember(ctx context.Context, m *models.TeamMember) error
	DeleteTeamMember(ctx context.Context, id string) error
}

// ContentHandler atende as páginas públicas do site (blogs, eventos,
// projetos, galeria, equipe) e o CRUD correspondente do painel admin
type ContentHandler struct {
	db ContentStore
}

func NewContentHandler(db ContentStore) *ContentHandler {
	return &ContentHandler{db: db}
}

func respondDBError(w http.ResponseWriter, err error, what string) {
	if errors.Is(err, database.ErrNotFound) {
		utils.SendErrorResponse(w, http.StatusNotFound, what+" not found")
		return
	}
	log.Printf("Database error on %s: %v", what, err)
	utils.SendErrorResponse(w, http.StatusInternalServerError, "Database error")
}

// --- Blogs ---

// ListBlogs atende o site público: apenas posts publicados
func (h *ContentHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.db.GetBlogs(r.Context(), true)
	if err != nil {
		respondDBError(w, err, "blogs")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: blogs})
}

// AdminListBlogs atende o painel: inclui rascunhos não publicados.
// Exposto apenas atrás do middleware de autenticação.
func (h *ContentHandler) AdminListBlogs(w http.ResponseWriter, r *http.Request) {
	blogs, err := h.db.GetBlogs(r.Context(), false)
	if err != nil {
		respondDBError(w, err, "blogs")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: blogs})
}

// GetBlog atende o site público. Um rascunho não publicado responde 404
// como se não existisse.
func (h *ContentHandler) GetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := h.db.GetBlogByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDBError(w, err, "blog")
		return
	}
	if !blog.Published {
		respondDBError(w, database.ErrNotFound, "blog")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: blog})
}

// AdminGetBlog retorna o post sem o filtro de publicação, para edição
func (h *ContentHandler) AdminGetBlog(w http.ResponseWriter, r *http.Request) {
	blog, err := h.db.GetBlogByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDBError(w, err, "blog")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: blog})
}

func (h *ContentHandler) CreateBlog(w http.ResponseWriter, r *http.Request) {
	var blog models.Blog
	if err := json.NewDecoder(r.Body).Decode(&blog); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if blog.Title == "" || blog.Content == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Title and content are required")
		return
	}

	blog.ID = uuid.New().String()
	blog.CreatedAt = time.Now()
	blog.UpdatedAt = blog.CreatedAt

	if err := h.db.CreateBlog(r.Context(), &blog); err != nil {
		respondDBError(w, err, "blog")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Blog created", Data: blog})
}

func (h *ContentHandler) UpdateBlog(w http.ResponseWriter, r *http.Request) {
	var blog models.Blog
	if err := json.NewDecoder(r.Body).Decode(&blog); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	blog.ID = mux.Vars(r)["id"]
	blog.UpdatedAt = time.Now()

	if err := h.db.UpdateBlog(r.Context(), &blog); err != nil {
		respondDBError(w, err, "blog")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Blog updated", Data: blog})
}

func (h *ContentHandler) DeleteBlog(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteBlog(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondDBError(w, err, "blog")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Blog deleted"})
}

// --- Events ---

func (h *ContentHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.db.GetEvents(r.Context())
	if err != nil {
		respondDBError(w, err, "events")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: events})
}

func (h *ContentHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	event, err := h.db.GetEventByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDBError(w, err, "event")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: event})
}

func (h *ContentHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if event.Title == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Title is required")
		return
	}

	event.ID = uuid.New().String()
	event.CreatedAt = time.Now()

	if err := h.db.CreateEvent(r.Context(), &event); err != nil {
		respondDBError(w, err, "event")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Event created", Data: event})
}

func (h *ContentHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var event models.Event
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	event.ID = mux.Vars(r)["id"]

	if err := h.db.UpdateEvent(r.Context(), &event); err != nil {
		respondDBError(w, err, "event")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Event updated", Data: event})
}

func (h *ContentHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteEvent(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondDBError(w, err, "event")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Event deleted"})
}

// --- Projects ---

func (h *ContentHandler) ListProjects(w http.ResponseWriter, r *http.Request) {
	projects, err := h.db.GetProjects(r.Context())
	if err != nil {
		respondDBError(w, err, "projects")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: projects})
}

func (h *ContentHandler) GetProject(w http.ResponseWriter, r *http.Request) {
	project, err := h.db.GetProjectByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDBError(w, err, "project")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: project})
}

func (h *ContentHandler) CreateProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if project.Title == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Title is required")
		return
	}
	if project.Status == "" {
		project.Status = "ongoing"
	}

	project.ID = uuid.New().String()
	project.CreatedAt = time.Now()

	if err := h.db.CreateProject(r.Context(), &project); err != nil {
		respondDBError(w, err, "project")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Project created", Data: project})
}

func (h *ContentHandler) UpdateProject(w http.ResponseWriter, r *http.Request) {
	var project models.Project
	if err := json.NewDecoder(r.Body).Decode(&project); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	project.ID = mux.Vars(r)["id"]

	if err := h.db.UpdateProject(r.Context(), &project); err != nil {
		respondDBError(w, err, "project")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Project updated", Data: project})
}

func (h *ContentHandler) DeleteProject(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteProject(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondDBError(w, err, "project")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Project deleted"})
}

// --- Gallery ---

func (h *ContentHandler) ListGallery(w http.ResponseWriter, r *http.Request) {
	items, err := h.db.GetGalleryItems(r.Context())
	if err != nil {
		respondDBError(w, err, "gallery")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: items})
}

func (h *ContentHandler) CreateGalleryItem(w http.ResponseWriter, r *http.Request) {
	var item models.GalleryItem
	if err := json.NewDecoder(r.Body).Decode(&item); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if item.MediaURL == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Media URL is required")
		return
	}
	if item.MediaType != "video" {
		item.MediaType = "image"
	}

	item.ID = uuid.New().String()
	item.CreatedAt = time.Now()

	if err := h.db.CreateGalleryItem(r.Context(), &item); err != nil {
		respondDBError(w, err, "gallery item")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Gallery item created", Data: item})
}

func (h *ContentHandler) DeleteGalleryItem(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteGalleryItem(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondDBError(w, err, "gallery item")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Gallery item deleted"})
}

// --- Team ---

func (h *ContentHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	members, err := h.db.GetTeamMembers(r.Context())
	if err != nil {
		respondDBError(w, err, "team")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: members})
}

func (h *ContentHandler) CreateTeamMember(w http.ResponseWriter, r *http.Request) {
	var member models.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if member.Name == "" {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Name is required")
		return
	}

	member.ID = uuid.New().String()
	member.CreatedAt = time.Now()

	if err := h.db.CreateTeamMember(r.Context(), &member); err != nil {
		respondDBError(w, err, "team member")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Team member created", Data: member})
}

func (h *ContentHandler) UpdateTeamMember(w http.ResponseWriter, r *http.Request) {
	var member models.TeamMember
	if err := json.NewDecoder(r.Body).Decode(&member); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	member.ID = mux.Vars(r)["id"]

	if err := h.db.UpdateTeamMember(r.Context(), &member); err != nil {
		respondDBError(w, err, "team member")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Team member updated", Data: member})
}

func (h *ContentHandler) DeleteTeamMember(w http.ResponseWriter, r *http.Request) {
	if err := h.db.DeleteTeamMember(r.Context(), mux.Vars(r)["id"]); err != nil {
		respondDBError(w, err, "team member")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Message: "Team member deleted"})
}
