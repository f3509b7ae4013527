package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
)

const hcaptchaVerifyURL = "https://hcaptcha.com/siteverify"

type HCaptchaResponse struct {
	Success     bool     `json:"success"`
	ErrorCodes  []string `json:"error-codes"`
	ChallengeTS string   `json:"challenge_ts"`
	Hostname    string   `json:"hostname"`
}

// validateHCaptcha verifica o token anti-automação antes de qualquer envio
// de SMS. Cada token é de uso único: o widget precisa ser recriado a cada
// nova tentativa. Com o secret vazio a checagem fica desabilitada (dev).
func validateHCaptcha(secret, token string) error {
	if secret == "" {
		return nil
	}

	if token == "" {
		return fmt.Errorf("no captcha token provided")
	}

	data := url.Values{}
	data.Set("secret", secret)
	data.Set("response", token)

	client := &http.Client{}
	resp, err := client.PostForm(hcaptchaVerifyURL, data)
	if err != nil {
		return fmt.Errorf("failed to contact hCaptcha server: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read hCaptcha response: %v", err)
	}

	var result HCaptchaResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse hCaptcha response: %v", err)
	}

	if !result.Success {
		errorMsg := "hCaptcha validation failed"
		if len(result.ErrorCodes) > 0 {
			if result.ErrorCodes[0] == "already-seen-response" {
				log.Printf("Warning: hCaptcha token reuse attempted: %v", result.ErrorCodes)
			}
			errorMsg = fmt.Sprintf("%s: %s", errorMsg, strings.Join(result.ErrorCodes, ", "))
		}
		return fmt.Errorf(errorMsg)
	}

	return nil
}
