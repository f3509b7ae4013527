package upi

import (
	"errors"
	"net/url"

	qrcode "github.com/skip2/go-qrcode"
)

const defaultQRSize = 320

var ErrMissingPayee = errors.New("upi payee vpa is not configured")

// Generator monta o artefato de pagamento exibido na etapa final do fluxo:
// um QR code com a URI UPI da fundação. O sistema não observa a conclusão
// do pagamento; a reconciliação é manual, feita pela equipe.
type Generator struct {
	payeeVPA  string
	payeeName string
}

func NewGenerator(payeeVPA, payeeName string) *Generator {
	return &Generator{
		payeeVPA:  payeeVPA,
		payeeName: payeeName,
	}
}

// BuildURI monta a URI upi://pay para o valor doado. O valor é repassado
// como recebido no formulário, sem normalização.
func (g *Generator) BuildURI(amount, reference string) (string, error) {
	if g.payeeVPA == "" {
		return "", ErrMissingPayee
	}

	params := url.Values{}
	params.Set("pa", g.payeeVPA)
	params.Set("pn", g.payeeName)
	params.Set("cu", "INR")
	if amount != "" {
		params.Set("am", amount)
	}
	if reference != "" {
		params.Set("tn", "Donation "+reference)
	}

	return "upi://pay?" + params.Encode(), nil
}

// QRPNG renderiza a URI como um PNG de QR code
func (g *Generator) QRPNG(amount, reference string) ([]byte, error) {
	uri, err := g.BuildURI(amount, reference)
	if err != nil {
		return nil, err
	}
	return qrcode.Encode(uri, qrcode.Medium, defaultQRSize)
}
