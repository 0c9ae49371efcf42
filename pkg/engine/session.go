package engine

import (
	"github.com/google/uuid"

	"storemy/pkg/logging"
	"storemy/pkg/txn"
)

// Session is one client's handle onto an Engine: an identity and, once
// something actually writes, a transaction. The transaction is created
// lazily on first use rather than at session creation, matching the
// original engine's lifecycle: a session that only reads never needs one.
type Session struct {
	id uuid.UUID
	tx *txn.SimpleTransaction
}

// NewSession creates a session with a freshly generated id and no
// transaction yet.
func NewSession() *Session {
	return &Session{id: uuid.New()}
}

func (s *Session) ID() uuid.UUID { return s.id }

// Tx returns this session's transaction, creating one on first call.
func (s *Session) Tx() *txn.SimpleTransaction {
	if s.tx == nil {
		s.tx = txn.New()
		logging.WithTx(s.id).Debug("transaction started")
	}
	return s.tx
}

// EndTransaction drops this session's transaction, whether or not it was
// ever created. The caller is responsible for having already committed or
// rolled back every pending RID first; Session does not do that itself.
func (s *Session) EndTransaction() {
	if s.tx != nil {
		logging.WithTx(s.id).Debug("transaction ended")
	}
	s.tx = nil
}
