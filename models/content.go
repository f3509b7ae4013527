package models

import "time"

// Blog representa um artigo publicado no site da fundação
type Blog struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Author    string    `json:"author"`
	Content   string    `json:"content"`
	ImageURL  string    `json:"image_url"`
	Published bool      `json:"published"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Event representa um evento da fundação
type Event struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	ImageURL    string    `json:"image_url"`
	StartsAt    time.Time `json:"starts_at"`
	EndsAt      time.Time `json:"ends_at"`
	CreatedAt   time.Time `json:"created_at"`
}

// Project representa um projeto social em andamento ou concluído
type Project struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ImageURL    string    `json:"image_url"`
	Status      string    `json:"status"` // "ongoing" ou "completed"
	CreatedAt   time.Time `json:"created_at"`
}

// GalleryItem representa uma foto ou vídeo da galeria
type GalleryItem struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	MediaURL  string    `json:"media_url"`
	MediaType string    `json:"media_type"` // "image" ou "video"
	CreatedAt time.Time `json:"created_at"`
}

// TeamMember representa um integrante da equipe exibido no site
type TeamMember struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Role      string    `json:"role"`
	Bio       string    `json:"bio"`
	PhotoURL  string    `json:"photo_url"`
	CreatedAt time.Time `json:"created_at"`
}

// ContactMessage representa uma mensagem enviada pelo formulário de contato
type ContactMessage struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Subject   string    `json:"subject"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
