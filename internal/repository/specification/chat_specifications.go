package specification

import (
	"strings"

	"gorm.io/gorm"
)

// BySessionKey matches the opaque client-generated session id. Historical
// rows were written with stray leading whitespace by an earlier workflow
// version, so the column is compared trimmed. New ids are normalized at
// ingress; the TRIM covers the legacy data until it is cleaned up.
type BySessionKey struct {
	SessionId string
}

func (s BySessionKey) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("TRIM(session_id) = ?", strings.TrimSpace(s.SessionId))
}
