package models

// FlowStep identifica a etapa atual do fluxo de doação
type FlowStep string

const (
	StepPhoneVerification FlowStep = "PHONE_VERIFICATION"
	StepOtpVerification   FlowStep = "OTP_VERIFICATION"
	StepPaymentForm       FlowStep = "PAYMENT_FORM"
	StepPaymentDisplay    FlowStep = "PAYMENT_DISPLAY"
)

// Progress retorna o percentual fixo exibido para cada etapa
func (s FlowStep) Progress() int {
	switch s {
	case StepPhoneVerification:
		return 20
	case StepOtpVerification:
		return 50
	case StepPaymentForm:
		return 75
	case StepPaymentDisplay:
		return 85
	default:
		return 0
	}
}

// FlowStateResponse é o snapshot do fluxo retornado em GET /api/donation/state
type FlowStateResponse struct {
	Step           FlowStep `json:"step"`
	Progress       int      `json:"progress"`
	PhoneMasked    string   `json:"phone_masked,omitempty"`
	ResendCooldown int      `json:"resend_cooldown"`
	DonationID     string   `json:"donation_id,omitempty"`
}

// PhoneVerificationRequest inicia o fluxo de doação
type PhoneVerificationRequest struct {
	PhoneNumber  string `json:"phoneNumber"`
	CountryCode  string `json:"countryCode"`
	CaptchaToken string `json:"captchaToken,omitempty"`
}

// OtpConfirmationRequest confirma o código enviado por SMS
type OtpConfirmationRequest struct {
	Code string `json:"code"`
}

// ResendCodeRequest solicita o reenvio do código
type ResendCodeRequest struct {
	CaptchaToken string `json:"captchaToken,omitempty"`
}
