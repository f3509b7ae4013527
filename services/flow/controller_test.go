package flow

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"sahaya-donation-api/models"
	"sahaya-donation-api/services/verification"
)

type fakeVerifier struct {
	sendCalls     int
	checkCalls    int
	nextChallenge string
	sendErr       error
	acceptedCode  string
	lastPhone     string
	lastChallenge string
}

func (f *fakeVerifier) SendCode(ctx context.Context, phoneNumber, proof string) (string, error) {
	f.sendCalls++
	f.lastPhone = phoneNumber
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.nextChallenge, nil
}

func (f *fakeVerifier) CheckCode(ctx context.Context, challengeID, code string) (string, error) {
	f.checkCalls++
	f.lastChallenge = challengeID
	if code != f.acceptedCode {
		return "", verification.ErrCodeMismatch
	}
	return "session-proof", nil
}

type fakeDonations struct {
	saved   []*models.DonationRecord
	saveErr error
}

func (f *fakeDonations) SaveDonation(ctx context.Context, record *models.DonationRecord) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saved = append(f.saved, record)
	return nil
}

func validDetails() models.PaymentDetails {
	return models.PaymentDetails{
		FullName:       "Asha Rao",
		Email:          "asha@example.com",
		BillingAddress: "Flat 4B, Lotus Residency",
		Street:         "MG Road",
		City:           "Bengaluru",
		State:          "Karnataka",
		Zip:            "560001",
		Country:        "India",
		Amount:         "1500",
	}
}

func newTestController() (*Controller, *fakeVerifier, *fakeDonations) {
	verifier := &fakeVerifier{nextChallenge: "challenge-1", acceptedCode: "123456"}
	donations := &fakeDonations{}
	return NewController(verifier, donations), verifier, donations
}

func newTestSession() *Session {
	return &Session{Step: models.StepPhoneVerification}
}

func TestHappyPathEndToEnd(t *testing.T) {
	c, verifier, donations := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", "proof"))
	assert.Equal(t, "+919999999999", verifier.lastPhone)
	assert.Equal(t, models.StepOtpVerification, sess.Step)
	assert.Equal(t, "challenge-1", sess.ChallengeID)

	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))
	assert.Equal(t, models.StepPaymentForm, sess.Step)
	assert.Equal(t, "+919999999999", sess.PhoneNumber, "phone number carries forward")
	assert.Empty(t, sess.ChallengeID, "challenge is cleared on successful confirmation")
	assert.Equal(t, "session-proof", sess.SessionProof)

	donationID, err := c.SubmitPayment(ctx, sess, validDetails())
	require.NoError(t, err)
	assert.NotEmpty(t, donationID)
	assert.Equal(t, models.StepPaymentDisplay, sess.Step)

	require.Len(t, donations.saved, 1)
	assert.Equal(t, "+919999999999", donations.saved[0].PhoneNumber)
	assert.Equal(t, "1500", donations.saved[0].Amount)
}

func TestShortPhoneBlockedBeforeProviderCall(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()

	err := c.StartPhoneVerification(context.Background(), sess, "12345", "+91", "")
	assert.ErrorIs(t, err, ErrPhoneTooShort)
	assert.Equal(t, 0, verifier.sendCalls, "no challenge request may be sent")
	assert.Equal(t, models.StepPhoneVerification, sess.Step)
}

func TestPhoneNonDigitsIgnoredForLengthCheck(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()

	require.NoError(t, c.StartPhoneVerification(context.Background(), sess, "99-999 99999", "+91", ""))
	assert.Equal(t, "+919999999999", verifier.lastPhone)
}

func TestOtpNonDigitsStrippedBeforeLengthCheck(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))

	// Seis dígitos com lixo intercalado ainda são aceitos
	require.NoError(t, c.ConfirmCode(ctx, sess, " 12-34 56 "))
	assert.Equal(t, models.StepPaymentForm, sess.Step)

	sess2 := newTestSession()
	require.NoError(t, c.StartPhoneVerification(ctx, sess2, "9999999999", "+91", ""))
	err := c.ConfirmCode(ctx, sess2, "12x34")
	assert.ErrorIs(t, err, ErrInvalidCode)
	assert.Equal(t, 1, verifier.checkCalls, "short codes never reach the provider")
}

func TestWrongCodeKeepsChallengeAndAllowsRetry(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))

	err := c.ConfirmCode(ctx, sess, "000000")
	assert.ErrorIs(t, err, verification.ErrCodeMismatch)
	assert.Equal(t, models.StepOtpVerification, sess.Step, "state stays in OTP verification")
	assert.Equal(t, "challenge-1", sess.ChallengeID, "challenge is kept on failure")

	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))
	assert.Equal(t, models.StepPaymentForm, sess.Step)
	assert.Equal(t, "challenge-1", verifier.lastChallenge, "retry goes against the same challenge")
}

func TestBackFromOtpClearsChallenge(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.NoError(t, c.Back(sess))

	assert.Equal(t, models.StepPhoneVerification, sess.Step)
	assert.Empty(t, sess.ChallengeID)
	assert.Equal(t, "+919999999999", sess.PhoneNumber, "phone number is kept")

	// Sem novo desafio a confirmação é inalcançável
	err := c.ConfirmCode(ctx, sess, "123456")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestBackFromPaymentFormReturnsToOtp(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))
	require.NoError(t, c.Back(sess))

	assert.Equal(t, models.StepOtpVerification, sess.Step)
}

func TestPaymentDisplayIsTerminal(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))
	_, err := c.SubmitPayment(ctx, sess, validDetails())
	require.NoError(t, err)

	err = c.Back(sess)
	assert.ErrorIs(t, err, ErrTerminalStep)
	assert.Equal(t, models.StepPaymentDisplay, sess.Step)
}

func TestResendCooldownBoundary(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.Equal(t, 1, verifier.sendCalls)

	// Com 1 segundo restante o reenvio ainda é recusado
	c.now = func() time.Time { return base.Add(59 * time.Second) }
	assert.Equal(t, 1, c.ResendRemaining(sess))
	err := c.ResendCode(ctx, sess, "")
	assert.ErrorIs(t, err, ErrResendCooldown)
	assert.Equal(t, 1, verifier.sendCalls)

	// Exatamente em zero o reenvio habilita
	c.now = func() time.Time { return base.Add(60 * time.Second) }
	assert.Equal(t, 0, c.ResendRemaining(sess))
	verifier.nextChallenge = "challenge-2"
	require.NoError(t, c.ResendCode(ctx, sess, ""))
	assert.Equal(t, 2, verifier.sendCalls)
	assert.Equal(t, "challenge-2", sess.ChallengeID, "resend replaces the old challenge")
}

func TestResendOnlyAllowedInOtpStep(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()

	err := c.ResendCode(context.Background(), sess, "")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestResendFailureKeepsOldChallenge(t *testing.T) {
	c, verifier, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return base }

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))

	c.now = func() time.Time { return base.Add(61 * time.Second) }
	verifier.sendErr = verification.ErrQuotaExceeded
	err := c.ResendCode(ctx, sess, "")
	assert.ErrorIs(t, err, verification.ErrQuotaExceeded)
	assert.Equal(t, "challenge-1", sess.ChallengeID)
}

func TestSubmitBlockedWhenPersistenceFails(t *testing.T) {
	c, _, donations := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))

	donations.saveErr = errors.New("connection refused")
	_, err := c.SubmitPayment(ctx, sess, validDetails())
	require.Error(t, err)
	assert.Equal(t, models.StepPaymentForm, sess.Step, "persistence failure blocks the transition")
	assert.Empty(t, sess.DonationID)

	// O reenvio do formulário tenta de novo e então avança
	donations.saveErr = nil
	donationID, err := c.SubmitPayment(ctx, sess, validDetails())
	require.NoError(t, err)
	assert.NotEmpty(t, donationID)
	assert.Equal(t, models.StepPaymentDisplay, sess.Step)
}

func TestSubmitRejectsInvalidDetails(t *testing.T) {
	c, _, donations := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))

	details := validDetails()
	details.Email = ""
	_, err := c.SubmitPayment(ctx, sess, details)
	assert.ErrorIs(t, err, ErrInvalidDetails)
	assert.Empty(t, donations.saved, "no persistence attempt for invalid details")
	assert.Equal(t, models.StepPaymentForm, sess.Step)
}

func TestSubmitRequiresPaymentFormStep(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()

	_, err := c.SubmitPayment(context.Background(), sess, validDetails())
	assert.ErrorIs(t, err, ErrInvalidTransition)
}

func TestSnapshotProgressPerStep(t *testing.T) {
	c, _, _ := newTestController()
	sess := newTestSession()
	ctx := context.Background()

	assert.Equal(t, 20, c.Snapshot(sess).Progress)

	require.NoError(t, c.StartPhoneVerification(ctx, sess, "9999999999", "+91", ""))
	assert.Equal(t, 50, c.Snapshot(sess).Progress)

	require.NoError(t, c.ConfirmCode(ctx, sess, "123456"))
	assert.Equal(t, 75, c.Snapshot(sess).Progress)

	_, err := c.SubmitPayment(ctx, sess, validDetails())
	require.NoError(t, err)

	snapshot := c.Snapshot(sess)
	assert.Equal(t, 85, snapshot.Progress)
	assert.Equal(t, "********9999", snapshot.PhoneMasked)
	assert.NotEmpty(t, snapshot.DonationID)
}

// blockingVerifier segura as chamadas ao provedor até release ser fechado,
// permitindo intercalar operações do fluxo com uma chamada em andamento
type blockingVerifier struct {
	started   chan struct{}
	release   chan struct{}
	challenge string
	sendErr   error
}

func newBlockingVerifier(challenge string) *blockingVerifier {
	return &blockingVerifier{
		started:   make(chan struct{}, 2),
		release:   make(chan struct{}),
		challenge: challenge,
	}
}

func (f *blockingVerifier) SendCode(ctx context.Context, phoneNumber, proof string) (string, error) {
	f.started <- struct{}{}
	<-f.release
	if f.sendErr != nil {
		return "", f.sendErr
	}
	return f.challenge, nil
}

func (f *blockingVerifier) CheckCode(ctx context.Context, challengeID, code string) (string, error) {
	f.started <- struct{}{}
	<-f.release
	return "session-proof", nil
}

type blockingDonations struct {
	started chan struct{}
	release chan struct{}
	saved   []*models.DonationRecord
}

func newBlockingDonations() *blockingDonations {
	return &blockingDonations{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
	}
}

func (f *blockingDonations) SaveDonation(ctx context.Context, record *models.DonationRecord) error {
	f.started <- struct{}{}
	<-f.release
	f.saved = append(f.saved, record)
	return nil
}

func TestStaleConfirmDiscardedAfterBack(t *testing.T) {
	verifier := newBlockingVerifier("challenge-1")
	c := NewController(verifier, &fakeDonations{})
	sess := &Session{
		Step:        models.StepOtpVerification,
		PhoneNumber: "+919999999999",
		ChallengeID: "challenge-1",
	}

	done := make(chan error, 1)
	go func() {
		done <- c.ConfirmCode(context.Background(), sess, "123456")
	}()
	<-verifier.started

	// O doador volta para a etapa de telefone enquanto a checagem está em
	// andamento; a confirmação que chega depois pertence a um desafio morto
	require.NoError(t, c.Back(sess))
	close(verifier.release)

	err := <-done
	assert.ErrorIs(t, err, ErrNoChallenge)
	assert.Equal(t, models.StepPhoneVerification, sess.Step)
	assert.Empty(t, sess.SessionProof, "stale confirmation must not verify the session")
}

func TestStaleConfirmDiscardedWhenChallengeReplaced(t *testing.T) {
	verifier := newBlockingVerifier("challenge-1")
	c := NewController(verifier, &fakeDonations{})
	sess := &Session{
		Step:        models.StepOtpVerification,
		PhoneNumber: "+919999999999",
		ChallengeID: "challenge-1",
	}

	done := make(chan error, 1)
	go func() {
		done <- c.ConfirmCode(context.Background(), sess, "123456")
	}()
	<-verifier.started

	// Um reenvio concluído durante a checagem substitui o desafio
	sess.mu.Lock()
	sess.ChallengeID = "challenge-2"
	sess.mu.Unlock()
	close(verifier.release)

	err := <-done
	assert.ErrorIs(t, err, ErrNoChallenge)
	assert.Equal(t, models.StepOtpVerification, sess.Step)
	assert.Equal(t, "challenge-2", sess.ChallengeID, "the replacement challenge stays pending")
}

func TestStaleResendDiscardedAfterBack(t *testing.T) {
	verifier := newBlockingVerifier("challenge-2")
	c := NewController(verifier, &fakeDonations{})
	sess := &Session{
		Step:        models.StepOtpVerification,
		PhoneNumber: "+919999999999",
		ChallengeID: "challenge-1",
	}

	done := make(chan error, 1)
	go func() {
		done <- c.ResendCode(context.Background(), sess, "")
	}()
	<-verifier.started

	require.NoError(t, c.Back(sess))
	close(verifier.release)

	err := <-done
	assert.ErrorIs(t, err, ErrInvalidTransition)
	assert.Equal(t, models.StepPhoneVerification, sess.Step)
	assert.Empty(t, sess.ChallengeID, "a stale resend must not replant a challenge")
}

func TestStaleSubmitDiscardedAfterBack(t *testing.T) {
	donations := newBlockingDonations()
	c := NewController(&fakeVerifier{}, donations)
	sess := &Session{
		Step:        models.StepPaymentForm,
		PhoneNumber: "+919999999999",
	}

	type result struct {
		id  string
		err error
	}
	done := make(chan result, 1)
	go func() {
		id, err := c.SubmitPayment(context.Background(), sess, validDetails())
		done <- result{id, err}
	}()
	<-donations.started

	require.NoError(t, c.Back(sess))
	close(donations.release)

	res := <-done
	assert.ErrorIs(t, res.err, ErrInvalidTransition)
	assert.Empty(t, res.id)
	assert.Equal(t, models.StepOtpVerification, sess.Step)
	assert.Empty(t, sess.DonationID)
	// O registro já foi gravado; só a transição do fluxo é descartada
	assert.Len(t, donations.saved, 1)
}

func TestConcurrentPhoneStartsSingleWinner(t *testing.T) {
	verifier := newBlockingVerifier("challenge-1")
	c := NewController(verifier, &fakeDonations{})
	sess := newTestSession()

	done := make(chan error, 2)
	for i := 0; i < 2; i++ {
		go func() {
			done <- c.StartPhoneVerification(context.Background(), sess, "9999999999", "+91", "")
		}()
	}
	<-verifier.started
	<-verifier.started
	close(verifier.release)

	first, second := <-done, <-done
	errs := []error{first, second}
	winners := 0
	for _, err := range errs {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrInvalidTransition)
		}
	}
	assert.Equal(t, 1, winners, "exactly one start may advance the flow")
	assert.Equal(t, models.StepOtpVerification, sess.Step)
	assert.Equal(t, "challenge-1", sess.ChallengeID)
}

func TestResendRefusedWhileSendInFlight(t *testing.T) {
	verifier := newBlockingVerifier("challenge-2")
	c := NewController(verifier, &fakeDonations{})
	sess := &Session{
		Step:        models.StepOtpVerification,
		PhoneNumber: "+919999999999",
		ChallengeID: "challenge-1",
	}

	done := make(chan error, 1)
	go func() {
		done <- c.ResendCode(context.Background(), sess, "")
	}()
	<-verifier.started

	err := c.ResendCode(context.Background(), sess, "")
	assert.ErrorIs(t, err, ErrResendInFlight)
	assert.Empty(t, verifier.started, "the refused resend must not reach the provider")

	close(verifier.release)
	require.NoError(t, <-done)
	assert.Equal(t, "challenge-2", sess.ChallengeID)

	// A flag foi liberada: a próxima recusa vem do cooldown, não do envio
	// em andamento
	err = c.ResendCode(context.Background(), sess, "")
	assert.ErrorIs(t, err, ErrResendCooldown)
}

func TestResendInFlightFlagReleasedAfterSendError(t *testing.T) {
	verifier := newBlockingVerifier("")
	verifier.sendErr = errors.New("provider unavailable")
	c := NewController(verifier, &fakeDonations{})
	sess := &Session{
		Step:        models.StepOtpVerification,
		PhoneNumber: "+919999999999",
		ChallengeID: "challenge-1",
	}

	done := make(chan error, 1)
	go func() {
		done <- c.ResendCode(context.Background(), sess, "")
	}()
	<-verifier.started
	close(verifier.release)
	assert.Error(t, <-done)

	// O envio falhou sem atualizar LastSentAt; um novo reenvio passa pela
	// checagem de in-flight e chega ao provedor
	verifier.release = make(chan struct{})
	retry := make(chan error, 1)
	go func() {
		retry <- c.ResendCode(context.Background(), sess, "")
	}()
	<-verifier.started
	close(verifier.release)
	assert.NotErrorIs(t, <-retry, ErrResendInFlight)
}
