package handlers

import (
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"sahaya-donation-api/database"
	"sahaya-donation-api/models"
	"sahaya-donation-api/utils"
)

// PaymentsHandler lista os registros de doação para o painel admin.
// A conciliação com o pagamento UPI em si é manual: este sistema não
// observa a conclusão do pagamento.
type PaymentsHandler struct {
	db *database.Connection
}

func NewPaymentsHandler(db *database.Connection) *PaymentsHandler {
	return &PaymentsHandler{db: db}
}

func (h *PaymentsHandler) ListDonations(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
	offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
	if offset < 0 {
		offset = 0
	}

	donations, total, err := h.db.GetDonations(r.Context(), limit, offset)
	if err != nil {
		respondDBError(w, err, "donations")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data: map[string]interface{}{
			"donations": donations,
			"total":     total,
		},
	})
}

func (h *PaymentsHandler) GetDonation(w http.ResponseWriter, r *http.Request) {
	donation, err := h.db.GetDonationByID(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		respondDBError(w, err, "donation")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{Status: "success", Data: donation})
}
