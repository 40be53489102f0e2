package sportmonks

import (
	"bytes"
	"strconv"
	"strings"

	sonic "github.com/bytedance/sonic"
)

type fixtureEnvelope struct {
	Data fixtureDetails `json:"data"`
}

type fixtureDetails struct {
	ID           int64                  `json:"id"`
	StateID      int64                  `json:"state_id"`
	ResultInfo   string                 `json:"result_info"`
	Participants []fixtureParticipant   `json:"participants"`
	Scores       []fixtureScoreItem     `json:"scores"`
	Events       []fixtureEventItem     `json:"events"`
	State        relation[fixtureState] `json:"state"`
}

type fixtureState struct {
	ID            int64  `json:"id"`
	State         string `json:"state"`
	DeveloperName string `json:"developer_name"`
}

type fixtureParticipant struct {
	ID   int64                  `json:"id"`
	Name string                 `json:"name"`
	Meta fixtureParticipantMeta `json:"meta"`
}

type fixtureParticipantMeta struct {
	Location string `json:"location"`
}

type fixtureScoreItem struct {
	ParticipantID int64          `json:"participant_id"`
	Description   string         `json:"description"`
	Score         map[string]any `json:"score"`
}

func (f fixtureScoreItem) numericScore() (int, bool) {
	for _, key := range []string{"goals", "score", "value", "total"} {
		candidate, ok := f.Score[key]
		if !ok || candidate == nil {
			continue
		}
		if score, ok := asInt(candidate); ok && score >= 0 {
			return score, true
		}
	}
	return 0, false
}

type fixtureEventItem struct {
	ID            int64               `json:"id"`
	ParticipantID int64               `json:"participant_id"`
	TypeID        int64               `json:"type_id"`
	PlayerID      int64               `json:"player_id"`
	PlayerName    string              `json:"player_name"`
	Minute        *int                `json:"minute"`
	Type          relation[eventType] `json:"type"`
}

func (f fixtureEventItem) typeName() string {
	if f.Type.Set {
		if name := strings.TrimSpace(f.Type.Data.DeveloperName); name != "" {
			return strings.ToUpper(name)
		}
		if name := strings.TrimSpace(f.Type.Data.Code); name != "" {
			return strings.ToUpper(name)
		}
	}
	return ""
}

type eventType struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	Code          string `json:"code"`
	DeveloperName string `json:"developer_name"`
}

// relation decodes an include that arrives either bare or wrapped in {"data": ...}.
type relation[T any] struct {
	Data T
	Set  bool
}

func (r *relation[T]) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		r.Set = false
		return nil
	}

	var wrapped struct {
		Data *T `json:"data"`
	}
	if err := sonic.Unmarshal(trimmed, &wrapped); err == nil && wrapped.Data != nil {
		r.Data = *wrapped.Data
		r.Set = true
		return nil
	}

	var direct T
	if err := sonic.Unmarshal(trimmed, &direct); err != nil {
		return err
	}
	r.Data = direct
	r.Set = true
	return nil
}

func asInt(value any) (int, bool) {
	switch typed := value.(type) {
	case float64:
		return int(typed), true
	case int:
		return typed, true
	case int64:
		return int(typed), true
	case string:
		parsed, err := strconv.Atoi(strings.TrimSpace(typed))
		if err != nil {
			return 0, false
		}
		return parsed, true
	default:
		return 0, false
	}
}
