package verification

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newProviderServer(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *Client) {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return server, NewClient(server.URL, "test-key")
}

func writeProviderError(w http.ResponseWriter, status int, code string) {
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"error": map[string]string{"code": code},
	})
}

func TestSendCodeReturnsChallengeHandle(t *testing.T) {
	var gotAuth string
	var gotBody challengeRequest

	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/challenges", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(challengeResponse{ChallengeHandle: "ch-42"})
	})

	handle, err := client.SendCode(context.Background(), "+919999999999", "proof-token")
	require.NoError(t, err)
	assert.Equal(t, "ch-42", handle)
	assert.Equal(t, "Bearer test-key", gotAuth)
	assert.Equal(t, "+919999999999", gotBody.PhoneNumber)
	assert.Equal(t, "proof-token", gotBody.AntiAutomationProof)
}

func TestSendCodeErrorTaxonomy(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		code    string
		wantErr error
	}{
		{"invalid number", http.StatusBadRequest, "invalid-number", ErrInvalidNumber},
		{"quota exceeded", http.StatusTooManyRequests, "quota-exceeded", ErrQuotaExceeded},
		{"proof failed", http.StatusBadRequest, "proof-failed", ErrProofFailed},
		{"unknown code falls back to generic", http.StatusBadRequest, "something-else", ErrProvider},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeProviderError(w, tt.status, tt.code)
			})

			_, err := client.SendCode(context.Background(), "+919999999999", "")
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestSendCodeUnparsableErrorBody(t *testing.T) {
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("<html>bad gateway</html>"))
	})

	_, err := client.SendCode(context.Background(), "+919999999999", "")
	assert.ErrorIs(t, err, ErrProvider)
}

func TestCheckCodeConfirmed(t *testing.T) {
	var gotBody confirmRequest

	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/challenges/confirm", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(confirmResponse{Confirmed: true, SessionProof: "sp-1"})
	})

	proof, err := client.CheckCode(context.Background(), "ch-42", "123456")
	require.NoError(t, err)
	assert.Equal(t, "sp-1", proof)
	assert.Equal(t, "ch-42", gotBody.ChallengeHandle)
	assert.Equal(t, "123456", gotBody.Code)
}

func TestCheckCodeMismatch(t *testing.T) {
	_, client := newProviderServer(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(confirmResponse{Confirmed: false})
	})

	_, err := client.CheckCode(context.Background(), "ch-42", "000000")
	assert.ErrorIs(t, err, ErrCodeMismatch)
}

func TestUserMessageMapping(t *testing.T) {
	assert.Contains(t, UserMessage(ErrInvalidNumber), "phone number")
	assert.Contains(t, UserMessage(ErrQuotaExceeded), "Too many")
	assert.Contains(t, UserMessage(ErrProofFailed), "Human verification")
	assert.Contains(t, UserMessage(ErrCodeMismatch), "incorrect")
	assert.Equal(t, "Failed to send verification code. Please try again.", UserMessage(ErrProvider))
}
