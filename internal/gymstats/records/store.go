package records

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// CollectionStore persists whole collections of sessions. Sessions are
// never edited in place; a collection is saved or deleted as a unit.
type CollectionStore interface {
	Load(ctx context.Context, collection string) ([]Session, error)
	Save(ctx context.Context, collection string, sessions []Session) error
	Delete(ctx context.Context, collection string) error
	Collections(ctx context.Context) ([]string, error)
}

// PrepareForSave validates the sessions, assigns missing IDs and date labels,
// and returns a copy sorted by timestamp.
func PrepareForSave(sessions []Session) ([]Session, error) {
	prepared := make([]Session, len(sessions))
	copy(prepared, sessions)

	for i := range prepared {
		s := &prepared[i]
		if err := s.Validate(); err != nil {
			return nil, fmt.Errorf("session %d: %w", i, err)
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		if s.Kind == "" {
			s.Kind = KindOther
			if len(s.Sets) > 0 {
				s.Kind = KindStrength
			}
		}
		if s.Date == "" {
			s.Date = DateLabel(s.Timestamp)
		}
	}

	sort.SliceStable(prepared, func(i, j int) bool {
		return prepared[i].Timestamp < prepared[j].Timestamp
	})

	return prepared, nil
}

func marshalSessions(sessions []Session) ([]byte, error) {
	if sessions == nil {
		sessions = []Session{}
	}
	payload, err := json.Marshal(sessions)
	if err != nil {
		return nil, fmt.Errorf("marshal sessions: %w", err)
	}
	return payload, nil
}

func unmarshalSessions(payload []byte) ([]Session, error) {
	var sessions []Session
	if err := json.Unmarshal(payload, &sessions); err != nil {
		return nil, fmt.Errorf("unmarshal sessions: %w", err)
	}
	if sessions == nil {
		sessions = []Session{}
	}
	return sessions, nil
}
