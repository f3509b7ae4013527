package verification

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

const RequestTimeout = 15 * time.Second

// Códigos de erro retornados pelo provedor de verificação por SMS
const (
	codeInvalidNumber = "invalid-number"
	codeQuotaExceeded = "quota-exceeded"
	codeProofFailed   = "proof-failed"
)

var (
	ErrInvalidNumber = errors.New("phone number rejected by provider")
	ErrQuotaExceeded = errors.New("sms quota exceeded")
	ErrProofFailed   = errors.New("anti-automation proof rejected")
	ErrCodeMismatch  = errors.New("verification code does not match")
	ErrProvider      = errors.New("verification provider error")
)

// Client é o cliente HTTP do provedor externo de verificação de telefone.
// O provedor emite um desafio (código enviado por SMS) e depois confirma
// o código digitado pelo doador contra esse desafio.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
}

func NewClient(baseURL, apiKey string) *Client {
	transport := &http.Transport{
		MaxIdleConns:        50,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		client: &http.Client{
			Timeout:   RequestTimeout,
			Transport: transport,
		},
	}
}

type challengeRequest struct {
	PhoneNumber         string `json:"phoneNumber"`
	AntiAutomationProof string `json:"antiAutomationProof,omitempty"`
}

type challengeResponse struct {
	ChallengeHandle string `json:"challengeHandle"`
}

type confirmRequest struct {
	ChallengeHandle string `json:"challengeHandle"`
	Code            string `json:"code"`
}

type confirmResponse struct {
	Confirmed    bool   `json:"confirmed"`
	SessionProof string `json:"sessionProof"`
}

type providerError struct {
	Error struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// SendCode solicita a emissão de um novo desafio para o número informado.
// Cada chamada bem-sucedida cria um desafio novo; o anterior é simplesmente
// descartado pelo chamador.
func (c *Client) SendCode(ctx context.Context, phoneNumber, proof string) (string, error) {
	var resp challengeResponse
	err := c.post(ctx, "/v1/challenges", challengeRequest{
		PhoneNumber:         phoneNumber,
		AntiAutomationProof: proof,
	}, &resp)
	if err != nil {
		return "", err
	}

	if resp.ChallengeHandle == "" {
		return "", fmt.Errorf("%w: empty challenge handle", ErrProvider)
	}

	return resp.ChallengeHandle, nil
}

// CheckCode submete o código digitado contra um desafio pendente. Um código
// errado retorna ErrCodeMismatch e NÃO invalida o desafio: o doador pode
// tentar de novo contra o mesmo handle.
func (c *Client) CheckCode(ctx context.Context, challengeHandle, code string) (string, error) {
	var resp confirmResponse
	err := c.post(ctx, "/v1/challenges/confirm", confirmRequest{
		ChallengeHandle: challengeHandle,
		Code:            code,
	}, &resp)
	if err != nil {
		return "", err
	}

	if !resp.Confirmed {
		return "", ErrCodeMismatch
	}

	return resp.SessionProof, nil
}

func (c *Client) post(ctx context.Context, path string, payload, out interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %v", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProvider, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("%w: failed to read response: %v", ErrProvider, err)
	}

	if resp.StatusCode >= 400 {
		return c.mapError(data, resp.StatusCode)
	}

	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("%w: failed to parse response: %v", ErrProvider, err)
	}

	return nil
}

// mapError traduz o código de erro do provedor para os erros sentinela.
// Códigos desconhecidos caem no erro genérico do provedor.
func (c *Client) mapError(data []byte, status int) error {
	var perr providerError
	if err := json.Unmarshal(data, &perr); err != nil {
		return fmt.Errorf("%w: status %d", ErrProvider, status)
	}

	switch perr.Error.Code {
	case codeInvalidNumber:
		return ErrInvalidNumber
	case codeQuotaExceeded:
		return ErrQuotaExceeded
	case codeProofFailed:
		return ErrProofFailed
	default:
		return fmt.Errorf("%w: %s (status %d)", ErrProvider, perr.Error.Code, status)
	}
}

// UserMessage mapeia os erros do provedor para as mensagens exibidas ao
// doador. Qualquer erro fora da taxonomia cai na mensagem genérica.
func UserMessage(err error) string {
	switch {
	case errors.Is(err, ErrInvalidNumber):
		return "This phone number could not be verified. Please check the number and try again."
	case errors.Is(err, ErrQuotaExceeded):
		return "Too many verification attempts. Please try again later."
	case errors.Is(err, ErrProofFailed):
		return "Human verification failed. Please try again."
	case errors.Is(err, ErrCodeMismatch):
		return "The code you entered is incorrect. Please try again."
	default:
		return "Failed to send verification code. Please try again."
	}
}
