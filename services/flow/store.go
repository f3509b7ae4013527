package flow

import (
	"sync"
	"time"

	"sahaya-donation-api/models"
)

const (
	// SessionTTL derruba fluxos abandonados; o desafio pendente expira
	// sozinho no provedor, então não há recurso externo a liberar.
	SessionTTL      = 30 * time.Minute
	cleanupInterval = 5 * time.Minute
)

// Session é o estado de um fluxo de doação, escopado à sessão do navegador.
// Todo acesso passa pelo Controller, que serializa as mutações com o mutex
// da própria sessão (um único escritor por sessão).
type Session struct {
	mu sync.Mutex

	Step           models.FlowStep
	PhoneNumber    string
	CountryCode    string
	ChallengeID    string
	SessionProof   string
	PaymentDetails *models.PaymentDetails
	DonationID     string

	LastSentAt     time.Time
	resendInFlight bool

	lastActiveAt time.Time
}

// Store guarda os fluxos ativos em memória, indexados pelo ID da sessão.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session
	ttl      time.Duration
	stop     chan struct{}
	stopOnce sync.Once
}

func NewStore() *Store {
	s := &Store{
		sessions: make(map[string]*Session),
		ttl:      SessionTTL,
		stop:     make(chan struct{}),
	}

	go s.cleanupLoop()

	return s
}

// Get retorna o fluxo da sessão, criando um novo na etapa inicial se
// não existir ou se o anterior tiver expirado.
func (s *Store) Get(sessionID string) *Session {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok || time.Since(sess.lastActiveAt) > s.ttl {
		sess = &Session{
			Step:         models.StepPhoneVerification,
			lastActiveAt: time.Now(),
		}
		s.sessions[sessionID] = sess
		return sess
	}

	sess.lastActiveAt = time.Now()
	return sess
}

// Delete descarta o fluxo da sessão
func (s *Store) Delete(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}

// Len retorna o número de fluxos ativos
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Stop encerra a goroutine de limpeza
func (s *Store) Stop() {
	s.stopOnce.Do(func() {
		close(s.stop)
	})
}

func (s *Store) cleanupLoop() {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-s.stop:
			return
		case <-ticker.C:
			s.removeExpired()
		}
	}
}

func (s *Store) removeExpired() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for id, sess := range s.sessions {
		if now.Sub(sess.lastActiveAt) > s.ttl {
			delete(s.sessions, id)
		}
	}
}
