package match

import "time"

// End reasons reported in a Summary.
const (
	ReasonCompleted = "completed" // all pairs were matched
	ReasonForfeit   = "forfeit"   // everyone but one player left or timed out
)

// PlayerResult is one participant's line in a terminal game summary.
type PlayerResult struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Turns      int    `json:"turns"`
	PairsFound int    `json:"pairs_found"`
	Forfeited  bool   `json:"forfeited"`
}

// Summary is the terminal result of a session. It is emitted to clients and
// handed to the result publisher; durable storage is the consumer's concern.
type Summary struct {
	SessionID  int64          `json:"session_id"`
	Reason     string         `json:"reason"`
	WinnerID   string         `json:"winner_id"`
	WinnerName string         `json:"winner_name"`
	TotalMoves int            `json:"total_moves"`
	StartedAt  time.Time      `json:"started_at,omitempty"`
	EndedAt    time.Time      `json:"ended_at"`
	Players    []PlayerResult `json:"players"`
}

// Summarize builds the terminal summary for a session that just ended.
func Summarize(s *Session, winner *Participant, reason string) *Summary {
	sum := &Summary{
		SessionID:  s.ID,
		Reason:     reason,
		TotalMoves: s.TotalMoves,
		StartedAt:  s.StartedAt,
		EndedAt:    time.Now(),
	}
	if winner != nil {
		sum.WinnerID = winner.UserID
		sum.WinnerName = winner.Name
	}
	for _, p := range s.Participants {
		sum.Players = append(sum.Players, PlayerResult{
			UserID:     p.UserID,
			Name:       p.Name,
			Turns:      p.Turns,
			PairsFound: p.PairsFound,
			Forfeited:  p.Inactive,
		})
	}
	return sum
}
