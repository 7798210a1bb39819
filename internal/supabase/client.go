package supabase

import (
	"fmt"

	"github.com/supabase-community/supabase-go"
	"layertext-backend/internal/config"
)

// Client is the service-role Supabase client. It bypasses row level security, so
// it never leaves the backend.
type Client struct {
	Supabase *supabase.Client
	Config   *config.Config
}

func NewClient(cfg *config.Config) (*Client, error) {
	client, err := supabase.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceRoleKey, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create supabase client: %w", err)
	}

	return &Client{
		Supabase: client,
		Config:   cfg,
	}, nil
}
