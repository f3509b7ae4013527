package handlers

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/google/uuid"

	"sahaya-donation-api/models"
	"sahaya-donation-api/queue"
	"sahaya-donation-api/utils"
)

// ContactStore persiste mensagens do formulário de contato
type ContactStore interface {
	SaveContactMessage(ctx context.Context, m *models.ContactMessage) error
}

type ContactHandler struct {
	db    ContactStore
	queue ReceiptQueue
}

func NewContactHandler(db ContactStore, q ReceiptQueue) *ContactHandler {
	return &ContactHandler{db: db, queue: q}
}

// SubmitMessage grava a mensagem de contato e enfileira a notificação
// para a equipe
func (h *ContactHandler) SubmitMessage(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Name    string `json:"name"`
		Email   string `json:"email"`
		Subject string `json:"subject"`
		Message string `json:"message"`
	}

	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("Error decoding contact request: %v", err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	fieldErrors := make(map[string]string)
	if req.Name == "" {
		fieldErrors["name"] = "This field is required"
	}
	if req.Email == "" {
		fieldErrors["email"] = "This field is required"
	}
	if req.Message == "" {
		fieldErrors["message"] = "This field is required"
	}
	if len(fieldErrors) > 0 {
		utils.SendValidationErrors(w, fieldErrors)
		return
	}

	message := &models.ContactMessage{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Email:     req.Email,
		Subject:   req.Subject,
		Message:   req.Message,
		CreatedAt: time.Now(),
	}

	if err := h.db.SaveContactMessage(r.Context(), message); err != nil {
		log.Printf("Error saving contact message: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to save message")
		return
	}

	if h.queue != nil {
		jobData := map[string]interface{}{
			"name":    req.Name,
			"email":   req.Email,
			"subject": req.Subject,
			"message": req.Message,
		}
		if err := h.queue.Enqueue(r.Context(), queue.JobTypeContactNotification, jobData); err != nil {
			log.Printf("Failed to enqueue contact notification: %v", err)
		}
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Message received. We will get back to you soon.",
	})
}
