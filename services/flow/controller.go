package flow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"sahaya-donation-api/models"
	"sahaya-donation-api/utils"
)

const (
	// ResendCooldown é a janela mínima entre envios de código
	ResendCooldown = 60 * time.Second

	// MinPhoneDigits é a checagem de plausibilidade do número: apenas
	// comprimento, não é validação E.164 completa
	MinPhoneDigits = 10

	OtpLength = 6
)

var (
	ErrPhoneTooShort     = errors.New("phone number must have at least 10 digits")
	ErrInvalidCode       = errors.New("verification code must have exactly 6 digits")
	ErrNoChallenge       = errors.New("no pending verification challenge")
	ErrInvalidDetails    = errors.New("payment details failed validation")
	ErrInvalidTransition = errors.New("operation not allowed in the current step")
	ErrTerminalStep      = errors.New("payment display is the final step")
	ErrResendCooldown    = errors.New("resend is still cooling down")
	ErrResendInFlight    = errors.New("a resend request is already in flight")
)

// Verifier é o contrato com o provedor externo de verificação por SMS
type Verifier interface {
	SendCode(ctx context.Context, phoneNumber, proof string) (string, error)
	CheckCode(ctx context.Context, challengeID, code string) (string, error)
}

// DonationStore persiste o registro da doação após o formulário de pagamento
type DonationStore interface {
	SaveDonation(ctx context.Context, record *models.DonationRecord) error
}

// Controller sequencia o doador pelas quatro etapas do fluxo:
// PHONE_VERIFICATION -> OTP_VERIFICATION -> PAYMENT_FORM -> PAYMENT_DISPLAY.
// Avanço estritamente linear; retorno suportado de OTP para PHONE e de
// PAYMENT_FORM para OTP; PAYMENT_DISPLAY é terminal. O Controller é o único
// escritor do estado do fluxo.
type Controller struct {
	verifier  Verifier
	donations DonationStore
	now       func() time.Time
}

func NewController(verifier Verifier, donations DonationStore) *Controller {
	return &Controller{
		verifier:  verifier,
		donations: donations,
		now:       time.Now,
	}
}

// StartPhoneVerification valida a plausibilidade do número e solicita um
// desafio ao provedor. A checagem de comprimento acontece antes de qualquer
// chamada externa. Em caso de sucesso o fluxo avança para OTP_VERIFICATION.
func (c *Controller) StartPhoneVerification(ctx context.Context, sess *Session, phoneNumber, countryCode, proof string) error {
	sess.mu.Lock()
	if sess.Step != models.StepPhoneVerification {
		sess.mu.Unlock()
		return ErrInvalidTransition
	}

	digits := utils.DigitsOnly(phoneNumber)
	if len(digits) < MinPhoneDigits {
		sess.mu.Unlock()
		return ErrPhoneTooShort
	}

	if countryCode == "" {
		countryCode = "+91"
	}
	e164 := countryCode + digits
	sess.mu.Unlock()

	challengeID, err := c.verifier.SendCode(ctx, e164, proof)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// O fluxo pode ter avançado enquanto a chamada ao provedor estava em
	// andamento; um resultado obsoleto não pode sobrescrever o estado atual
	if sess.Step != models.StepPhoneVerification {
		return ErrInvalidTransition
	}
	sess.PhoneNumber = e164
	sess.CountryCode = countryCode
	sess.ChallengeID = challengeID
	sess.LastSentAt = c.now()
	sess.Step = models.StepOtpVerification
	return nil
}

// ConfirmCode submete o código digitado contra o desafio pendente. Caracteres
// não numéricos são descartados antes da checagem de comprimento. Um código
// errado mantém o fluxo em OTP_VERIFICATION com o mesmo desafio, permitindo
// nova tentativa.
func (c *Controller) ConfirmCode(ctx context.Context, sess *Session, code string) error {
	sess.mu.Lock()
	if sess.Step != models.StepOtpVerification {
		sess.mu.Unlock()
		return ErrInvalidTransition
	}

	digits := utils.DigitsOnly(code)
	if len(digits) != OtpLength {
		sess.mu.Unlock()
		return ErrInvalidCode
	}

	if sess.ChallengeID == "" {
		sess.mu.Unlock()
		return ErrNoChallenge
	}
	challengeID := sess.ChallengeID
	sess.mu.Unlock()

	proof, err := c.verifier.CheckCode(ctx, challengeID, digits)
	if err != nil {
		return err
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// Um Back ou reenvio concorrente invalida o desafio que acabou de ser
	// confirmado: a confirmação vale apenas para o desafio que a originou
	if sess.Step != models.StepOtpVerification || sess.ChallengeID != challengeID {
		return ErrNoChallenge
	}
	sess.SessionProof = proof
	sess.ChallengeID = ""
	sess.Step = models.StepPaymentForm
	return nil
}

// ResendCode emite um novo desafio para o número já informado. Recusado
// enquanto o cooldown não zera ou enquanto outro reenvio está em andamento.
// O desafio anterior é substituído e simplesmente descartado.
func (c *Controller) ResendCode(ctx context.Context, sess *Session, proof string) error {
	sess.mu.Lock()
	if sess.Step != models.StepOtpVerification {
		sess.mu.Unlock()
		return ErrInvalidTransition
	}
	if sess.resendInFlight {
		sess.mu.Unlock()
		return ErrResendInFlight
	}
	if c.resendRemaining(sess) > 0 {
		sess.mu.Unlock()
		return ErrResendCooldown
	}
	phone := sess.PhoneNumber
	sess.resendInFlight = true
	sess.mu.Unlock()

	challengeID, err := c.verifier.SendCode(ctx, phone, proof)

	sess.mu.Lock()
	defer sess.mu.Unlock()
	sess.resendInFlight = false
	if err != nil {
		return err
	}
	// Se o doador voltou para a etapa de telefone durante o envio, o novo
	// desafio é descartado em vez de replantado na sessão
	if sess.Step != models.StepOtpVerification {
		return ErrInvalidTransition
	}
	sess.ChallengeID = challengeID
	sess.LastSentAt = c.now()
	return nil
}

// SubmitPayment valida e persiste os dados da doação. Uma falha de
// persistência BLOQUEIA a transição: o fluxo permanece em PAYMENT_FORM e o
// doador pode reenviar. Só com o registro gravado o fluxo avança para
// PAYMENT_DISPLAY.
func (c *Controller) SubmitPayment(ctx context.Context, sess *Session, details models.PaymentDetails) (string, error) {
	sess.mu.Lock()
	if sess.Step != models.StepPaymentForm {
		sess.mu.Unlock()
		return "", ErrInvalidTransition
	}

	if len(details.Validate()) > 0 {
		sess.mu.Unlock()
		return "", ErrInvalidDetails
	}
	phone := sess.PhoneNumber
	sess.mu.Unlock()

	record := &models.DonationRecord{
		ID:             uuid.New().String(),
		PhoneNumber:    phone,
		FullName:       details.FullName,
		Email:          details.Email,
		BillingAddress: details.BillingAddress,
		Street:         details.Street,
		City:           details.City,
		State:          details.State,
		Zip:            details.Zip,
		Country:        details.Country,
		Pan:            details.Pan,
		Amount:         details.Amount,
		CreatedAt:      c.now(),
	}

	if err := c.donations.SaveDonation(ctx, record); err != nil {
		return "", fmt.Errorf("failed to save donation: %v", err)
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()
	// Back concorrente durante a gravação: o registro existe no banco, mas o
	// fluxo não avança a partir de uma etapa que o doador já deixou
	if sess.Step != models.StepPaymentForm {
		return "", ErrInvalidTransition
	}
	sess.PaymentDetails = &details
	sess.DonationID = record.ID
	sess.Step = models.StepPaymentDisplay
	return record.ID, nil
}

// Back retrocede uma etapa, limpando apenas o que é específico da etapa que
// está sendo deixada. Sair de OTP descarta o desafio pendente; o número de
// telefone é mantido porque a etapa de OTP o exibe no prompt.
func (c *Controller) Back(sess *Session) error {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	switch sess.Step {
	case models.StepOtpVerification:
		sess.ChallengeID = ""
		sess.LastSentAt = time.Time{}
		sess.Step = models.StepPhoneVerification
		return nil
	case models.StepPaymentForm:
		sess.Step = models.StepOtpVerification
		return nil
	case models.StepPaymentDisplay:
		return ErrTerminalStep
	default:
		return ErrInvalidTransition
	}
}

// Snapshot retorna o estado exibível do fluxo
func (c *Controller) Snapshot(sess *Session) models.FlowStateResponse {
	sess.mu.Lock()
	defer sess.mu.Unlock()

	return models.FlowStateResponse{
		Step:           sess.Step,
		Progress:       sess.Step.Progress(),
		PhoneMasked:    utils.MaskPhone(sess.PhoneNumber),
		ResendCooldown: c.resendRemaining(sess),
		DonationID:     sess.DonationID,
	}
}

// DonationAmount retorna o valor informado no formulário de pagamento,
// vazio enquanto a etapa de pagamento não foi concluída
func (c *Controller) DonationAmount(sess *Session) string {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	if sess.PaymentDetails == nil {
		return ""
	}
	return sess.PaymentDetails.Amount
}

// ResendRemaining retorna os segundos restantes do cooldown de reenvio
func (c *Controller) ResendRemaining(sess *Session) int {
	sess.mu.Lock()
	defer sess.mu.Unlock()
	return c.resendRemaining(sess)
}

// resendRemaining exige sess.mu. Arredonda para cima: o reenvio habilita
// exatamente quando o restante chega a zero.
func (c *Controller) resendRemaining(sess *Session) int {
	if sess.LastSentAt.IsZero() {
		return 0
	}

	elapsed := c.now().Sub(sess.LastSentAt)
	if elapsed >= ResendCooldown {
		return 0
	}

	remaining := ResendCooldown - elapsed
	return int((remaining + time.Second - 1) / time.Second)
}
