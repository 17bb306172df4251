package assist

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/rxl895/BrainWave/internal/domain"
)

// ContextSource supplies the group context for a prompt.
type ContextSource interface {
	LoadRecentMessages(ctx context.Context, groupID domain.GroupID, limit int) ([]domain.Message, error)
}

// FileSource supplies the group's shared file listing.
type FileSource interface {
	List(ctx context.Context, groupID domain.GroupID) ([]domain.FileAsset, error)
}

// Assistant wires the completion client to the group's messages and files.
type Assistant struct {
	ai    *Client
	msgs  ContextSource
	files FileSource
}

func NewAssistant(ai *Client, msgs ContextSource, files FileSource) *Assistant {
	return &Assistant{ai: ai, msgs: msgs, files: files}
}

// Ask gathers context and generates a response. Context fetch failures are
// tolerated; the prompt simply carries less context.
func (a *Assistant) Ask(ctx context.Context, groupID domain.GroupID, prompt, requestType string) string {
	msgs, err := a.msgs.LoadRecentMessages(ctx, groupID, 100)
	if err != nil {
		log.Error().Err(err).Str("module", "assist").Str("group", string(groupID)).Msg("context messages unavailable")
	}
	var files []domain.FileAsset
	if a.files != nil {
		files, err = a.files.List(ctx, groupID)
		if err != nil {
			log.Error().Err(err).Str("module", "assist").Str("group", string(groupID)).Msg("context files unavailable")
		}
	}
	return a.ai.GenerateResponse(ctx, prompt, requestType, msgs, files)
}
