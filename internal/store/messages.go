package store

import (
	"context"
	"fmt"

	"github.com/rxl895/BrainWave/internal/domain"
)

// Typed row helpers used by the chat and access layers.

// LoadMessages returns the group's messages ascending by creation time.
func (c *Client) LoadMessages(ctx context.Context, groupID domain.GroupID) ([]domain.Message, error) {
	var out []domain.Message
	err := c.From("messages").
		Eq("group_id", string(groupID)).
		Order("created_at", true).
		Select(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// LoadRecentMessages returns the newest messages first, capped at limit.
func (c *Client) LoadRecentMessages(ctx context.Context, groupID domain.GroupID, limit int) ([]domain.Message, error) {
	var out []domain.Message
	err := c.From("messages").
		Eq("group_id", string(groupID)).
		Order("created_at", false).
		Limit(limit).
		Select(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMessage persists a message and returns the server representation,
// which carries the authoritative id and timestamp.
func (c *Client) InsertMessage(ctx context.Context, m domain.Message) (domain.Message, error) {
	row := map[string]any{
		"group_id":  m.GroupID,
		"sender_id": m.SenderID,
		"content":   m.Content,
	}
	if m.IsFile {
		row["is_file"] = true
		row["file_path"] = m.FilePath
	}
	var created []domain.Message
	if err := c.From("messages").Insert(ctx, row, &created); err != nil {
		return domain.Message{}, err
	}
	if len(created) == 0 {
		return domain.Message{}, fmt.Errorf("%w: insert returned no representation", domain.ErrPersistence)
	}
	return created[0], nil
}

// DeleteMessage removes one message row by id.
func (c *Client) DeleteMessage(ctx context.Context, id domain.MessageID) error {
	return c.From("messages").Eq("id", string(id)).Delete(ctx)
}

// LoadGroup fetches one group by id.
func (c *Client) LoadGroup(ctx context.Context, id domain.GroupID) (*domain.Group, error) {
	var g domain.Group
	err := c.From("study_groups").Eq("id", string(id)).Single().Select(ctx, &g)
	if err != nil {
		return nil, err
	}
	return &g, nil
}

// LoadMemberships fetches all membership rows of a group.
func (c *Client) LoadMemberships(ctx context.Context, groupID domain.GroupID) ([]domain.Membership, error) {
	var out []domain.Membership
	err := c.From("study_group_members").
		Eq("study_group_id", string(groupID)).
		Select(ctx, &out)
	if err != nil {
		return nil, err
	}
	return out, nil
}

// InsertMembership writes one membership row.
func (c *Client) InsertMembership(ctx context.Context, m domain.Membership) error {
	row := map[string]any{
		"study_group_id": m.GroupID,
		"user_id":        m.UserID,
		"role":           m.Role,
	}
	return c.From("study_group_members").Insert(ctx, row, nil)
}

// DeleteMembership removes a user's membership row from a group.
func (c *Client) DeleteMembership(ctx context.Context, groupID domain.GroupID, userID domain.UserID) error {
	return c.From("study_group_members").
		Eq("study_group_id", string(groupID)).
		Eq("user_id", string(userID)).
		Delete(ctx)
}
