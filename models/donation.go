package models

import (
	"regexp"
	"time"
)

var emailPattern = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)

// PaymentDetails representa os dados de cobrança enviados pelo doador.
// Os nomes dos campos JSON seguem o contrato do backend de doações.
type PaymentDetails struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	BillingAddress string `json:"billingAddress"`
	Street         string `json:"street"`
	City           string `json:"city"`
	State          string `json:"state"`
	Zip            string `json:"zip"`
	Country        string `json:"country"`
	Pan            string `json:"pan,omitempty"`
	Amount         string `json:"amount"`
}

// Validate aplica as regras declarativas do formulário: nove campos
// obrigatórios (PAN é opcional) e formato de email. Os valores são
// encaminhados sem normalização, exatamente como recebidos.
func (p *PaymentDetails) Validate() map[string]string {
	errors := make(map[string]string)

	required := map[string]string{
		"fullName":       p.FullName,
		"email":          p.Email,
		"billingAddress": p.BillingAddress,
		"street":         p.Street,
		"city":           p.City,
		"state":          p.State,
		"zip":            p.Zip,
		"country":        p.Country,
		"amount":         p.Amount,
	}

	for field, value := range required {
		if value == "" {
			errors[field] = "This field is required"
		}
	}

	if p.Email != "" && !emailPattern.MatchString(p.Email) {
		errors["email"] = "Invalid email address"
	}

	return errors
}

// DonationRecord é o registro persistido após o envio do formulário de pagamento
type DonationRecord struct {
	ID             string    `json:"id"`
	PhoneNumber    string    `json:"phone_number"`
	FullName       string    `json:"fullName"`
	Email          string    `json:"email"`
	BillingAddress string    `json:"billingAddress"`
	Street         string    `json:"street"`
	City           string    `json:"city"`
	State          string    `json:"state"`
	Zip            string    `json:"zip"`
	Country        string    `json:"country"`
	Pan            string    `json:"pan,omitempty"`
	Amount         string    `json:"amount"`
	CreatedAt      time.Time `json:"created_at"`
}
