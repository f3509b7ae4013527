package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/sessions"

	"sahaya-donation-api/config"
	"sahaya-donation-api/models"
	"sahaya-donation-api/queue"
	"sahaya-donation-api/services/flow"
	"sahaya-donation-api/services/upi"
	"sahaya-donation-api/services/verification"
	"sahaya-donation-api/utils"
)

const flowSessionName = "donation-session"

// ReceiptQueue enfileira o envio do recibo após a gravação da doação
type ReceiptQueue interface {
	Enqueue(ctx context.Context, jobType queue.JobType, data map[string]interface{}) error
}

// DonationHandler expõe o fluxo de doação em quatro etapas. O estado do
// fluxo vive em memória, amarrado ao cookie de sessão do doador.
type DonationHandler struct {
	store         *sessions.CookieStore
	flows         *flow.Store
	controller    *flow.Controller
	queue         ReceiptQueue
	qr            *upi.Generator
	captchaSecret string
}

func NewDonationHandler(cfg *config.Config, flows *flow.Store, controller *flow.Controller, q ReceiptQueue) *DonationHandler {
	store := sessions.NewCookieStore([]byte(cfg.Session.Secret))
	store.Options = &sessions.Options{
		Path:     "/",
		Domain:   cfg.Session.Domain,
		MaxAge:   cfg.Session.MaxAge,
		Secure:   true,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	}

	return &DonationHandler{
		store:         store,
		flows:         flows,
		controller:    controller,
		queue:         q,
		qr:            upi.NewGenerator(cfg.UPI.PayeeVPA, cfg.UPI.PayeeName),
		captchaSecret: cfg.Captcha.Secret,
	}
}

// flowSession resolve o ID do fluxo a partir do cookie de sessão,
// criando um novo quando necessário
func (h *DonationHandler) flowSession(w http.ResponseWriter, r *http.Request) (*flow.Session, error) {
	session, err := h.store.Get(r, flowSessionName)
	if err != nil {
		// Cookie corrompido ou chave rotacionada: começa uma sessão nova
		session, err = h.store.New(r, flowSessionName)
		if err != nil {
			return nil, err
		}
	}

	flowID, ok := session.Values["flow_id"].(string)
	if !ok || flowID == "" {
		flowID = utils.GenerateRandomString(32)
		session.Values["flow_id"] = flowID
		if err := session.Save(r, w); err != nil {
			return nil, err
		}
	}

	return h.flows.Get(flowID), nil
}

// StartPhoneVerification inicia o fluxo: checa o captcha, valida a
// plausibilidade do número e pede a emissão do desafio ao provedor
func (h *DonationHandler) StartPhoneVerification(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	sess, err := h.flowSession(w, r)
	if err != nil {
		log.Printf("[RequestID: %s] Error resolving flow session: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req models.PhoneVerificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Printf("[RequestID: %s] Invalid request body: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateHCaptcha(h.captchaSecret, req.CaptchaToken); err != nil {
		log.Printf("[RequestID: %s] Captcha verification failed: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusBadRequest, verification.UserMessage(verification.ErrProofFailed))
		return
	}

	if err := h.controller.StartPhoneVerification(r.Context(), sess, req.PhoneNumber, req.CountryCode, req.CaptchaToken); err != nil {
		log.Printf("[RequestID: %s] Phone verification failed: %v", requestID, err)
		status, message := flowErrorResponse(err)
		utils.SendErrorResponse(w, status, message)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Verification code sent",
		Data:    h.controller.Snapshot(sess),
	})
}

// ConfirmOtp confirma o código digitado contra o desafio pendente
func (h *DonationHandler) ConfirmOtp(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	sess, err := h.flowSession(w, r)
	if err != nil {
		log.Printf("[RequestID: %s] Error resolving flow session: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req models.OtpConfirmationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := h.controller.ConfirmCode(r.Context(), sess, req.Code); err != nil {
		log.Printf("[RequestID: %s] OTP confirmation failed: %v", requestID, err)
		status, message := flowErrorResponse(err)
		utils.SendErrorResponse(w, status, message)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Phone number verified",
		Data:    h.controller.Snapshot(sess),
	})
}

// ResendCode reenvia o código respeitando o cooldown de 60 segundos
func (h *DonationHandler) ResendCode(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	sess, err := h.flowSession(w, r)
	if err != nil {
		log.Printf("[RequestID: %s] Error resolving flow session: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var req models.ResendCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if err := validateHCaptcha(h.captchaSecret, req.CaptchaToken); err != nil {
		log.Printf("[RequestID: %s] Captcha verification failed on resend: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusBadRequest, verification.UserMessage(verification.ErrProofFailed))
		return
	}

	if err := h.controller.ResendCode(r.Context(), sess, req.CaptchaToken); err != nil {
		log.Printf("[RequestID: %s] Resend failed: %v", requestID, err)
		status, message := flowErrorResponse(err)
		utils.SendErrorResponse(w, status, message)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Verification code resent",
		Data:    h.controller.Snapshot(sess),
	})
}

// SubmitPayment valida e grava os dados da doação. A gravação precisa ter
// sucesso para o fluxo avançar; só então o recibo é enfileirado.
func (h *DonationHandler) SubmitPayment(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()

	sess, err := h.flowSession(w, r)
	if err != nil {
		log.Printf("[RequestID: %s] Error resolving flow session: %v", requestID, err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	var details models.PaymentDetails
	if err := json.NewDecoder(r.Body).Decode(&details); err != nil {
		utils.SendErrorResponse(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if fieldErrors := details.Validate(); len(fieldErrors) > 0 {
		utils.SendValidationErrors(w, fieldErrors)
		return
	}

	donationID, err := h.controller.SubmitPayment(r.Context(), sess, details)
	if err != nil {
		log.Printf("[RequestID: %s] Payment submission failed: %v", requestID, err)
		status, message := flowErrorResponse(err)
		utils.SendErrorResponse(w, status, message)
		return
	}

	log.Printf("[RequestID: %s] Donation %s recorded", requestID, donationID)

	if h.queue != nil {
		jobData := map[string]interface{}{
			"donation_id": donationID,
			"email":       details.Email,
			"name":        details.FullName,
			"amount":      details.Amount,
		}
		if err := h.queue.Enqueue(r.Context(), queue.JobTypeSendReceipt, jobData); err != nil {
			// O recibo é melhor esforço: a doação já está gravada
			log.Printf("[RequestID: %s] Failed to enqueue receipt email: %v", requestID, err)
		}
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status:  "success",
		Message: "Donation recorded",
		Data:    h.controller.Snapshot(sess),
	})
}

// Back retrocede uma etapa do fluxo
func (h *DonationHandler) Back(w http.ResponseWriter, r *http.Request) {
	sess, err := h.flowSession(w, r)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	if err := h.controller.Back(sess); err != nil {
		status, message := flowErrorResponse(err)
		utils.SendErrorResponse(w, status, message)
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.controller.Snapshot(sess),
	})
}

// State retorna o snapshot do fluxo para o cliente re-renderizar
func (h *DonationHandler) State(w http.ResponseWriter, r *http.Request) {
	sess, err := h.flowSession(w, r)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	utils.SendSuccessResponse(w, models.APIResponse{
		Status: "success",
		Data:   h.controller.Snapshot(sess),
	})
}

// PaymentQR serve o QR code UPI da etapa final. Disponível apenas em
// PAYMENT_DISPLAY; o pagamento em si acontece fora do sistema.
func (h *DonationHandler) PaymentQR(w http.ResponseWriter, r *http.Request) {
	sess, err := h.flowSession(w, r)
	if err != nil {
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Internal server error")
		return
	}

	snapshot := h.controller.Snapshot(sess)
	if snapshot.Step != models.StepPaymentDisplay {
		utils.SendErrorResponse(w, http.StatusConflict, "Payment QR is only available after payment details are submitted")
		return
	}

	amount := h.controller.DonationAmount(sess)
	png, err := h.qr.QRPNG(amount, snapshot.DonationID)
	if err != nil {
		log.Printf("Error generating payment QR: %v", err)
		utils.SendErrorResponse(w, http.StatusInternalServerError, "Failed to generate payment QR")
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(png)
}

// flowErrorResponse mapeia os erros do fluxo e do provedor para o status
// HTTP e a mensagem exibida ao doador
func flowErrorResponse(err error) (int, string) {
	switch {
	case errors.Is(err, flow.ErrPhoneTooShort):
		return http.StatusBadRequest, "Please enter a valid phone number with at least 10 digits."
	case errors.Is(err, flow.ErrInvalidCode):
		return http.StatusBadRequest, "Please enter the 6-digit code sent to your phone."
	case errors.Is(err, flow.ErrNoChallenge):
		return http.StatusConflict, "No verification in progress. Please verify your phone number first."
	case errors.Is(err, flow.ErrInvalidDetails):
		return http.StatusBadRequest, "Payment details failed validation."
	case errors.Is(err, flow.ErrInvalidTransition):
		return http.StatusConflict, "This action is not available at the current step."
	case errors.Is(err, flow.ErrTerminalStep):
		return http.StatusConflict, "The donation flow is already complete."
	case errors.Is(err, flow.ErrResendCooldown):
		return http.StatusTooManyRequests, "Please wait before requesting a new code."
	case errors.Is(err, flow.ErrResendInFlight):
		return http.StatusConflict, "A code is already being sent."
	case errors.Is(err, verification.ErrQuotaExceeded):
		return http.StatusTooManyRequests, verification.UserMessage(err)
	case errors.Is(err, verification.ErrInvalidNumber),
		errors.Is(err, verification.ErrProofFailed),
		errors.Is(err, verification.ErrCodeMismatch):
		return http.StatusBadRequest, verification.UserMessage(err)
	case errors.Is(err, verification.ErrProvider):
		return http.StatusBadGateway, verification.UserMessage(err)
	default:
		return http.StatusInternalServerError, "Internal server error"
	}
}
