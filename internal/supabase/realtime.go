package supabase

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/supabase-community/supabase-go"
)

const uploadEventsTable = "upload_events"

// RealtimeClient publishes upload progress by inserting into upload_events through
// PostgREST. Supabase Realtime streams those inserts to clients subscribed to the
// row's channel.
type RealtimeClient struct {
	client *supabase.Client
}

func NewRealtimeClient(client *supabase.Client) *RealtimeClient {
	return &RealtimeClient{
		client: client,
	}
}

type uploadEventRow struct {
	UserID   string                 `json:"user_id"`
	UploadID string                 `json:"upload_id"`
	Channel  string                 `json:"channel"`
	Event    string                 `json:"event"`
	Payload  map[string]interface{} `json:"payload"`
}

func (r *RealtimeClient) PublishUploadEvent(ctx context.Context, userID string, uploadID uuid.UUID, event string, payload map[string]interface{}) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	row := uploadEventRow{
		UserID:   userID,
		UploadID: uploadID.String(),
		Channel:  UploadChannel(uploadID),
		Event:    event,
		Payload:  payload,
	}
	if _, _, err := r.client.From(uploadEventsTable).Insert(row, false, "", "minimal", "").Execute(); err != nil {
		return fmt.Errorf("failed to publish %s on %s: %w", event, row.Channel, err)
	}
	return nil
}

func UploadChannel(uploadID uuid.UUID) string {
	return fmt.Sprintf("upload:%s", uploadID.String())
}
