package fakes

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
)

// Remover is a BackgroundRemover returning ResultURL, or Err when set. Hook, when
// set, runs before the answer and may block on ctx.
type Remover struct {
	ResultURL string
	Err       error
	Hook      func(ctx context.Context)

	calls atomic.Int32
}

func (r *Remover) RemoveBackground(ctx context.Context, sourceImageURL string) (string, error) {
	r.calls.Add(1)
	if r.Hook != nil {
		r.Hook(ctx)
	}
	if r.Err != nil {
		return "", r.Err
	}
	if r.ResultURL != "" {
		return r.ResultURL, nil
	}
	return "https://fal.media/files/result.png", nil
}

func (r *Remover) Calls() int {
	return int(r.calls.Load())
}

type Event struct {
	UserID   string
	UploadID uuid.UUID
	Name     string
	Payload  map[string]interface{}
}

// Publisher records every upload event it receives.
type Publisher struct {
	Err error

	mu     sync.Mutex
	events []Event
}

func (p *Publisher) PublishUploadEvent(ctx context.Context, userID string, uploadID uuid.UUID, event string, payload map[string]interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, Event{UserID: userID, UploadID: uploadID, Name: event, Payload: payload})
	return p.Err
}

func (p *Publisher) Names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	names := make([]string, 0, len(p.events))
	for _, e := range p.events {
		names = append(names, e.Name)
	}
	return names
}

// ObjectStorage keeps objects in memory and refuses to overwrite, like the bucket
// client with upsert off.
type ObjectStorage struct {
	FailUpload error

	mu      sync.Mutex
	objects map[string][]byte
}

func NewObjectStorage() *ObjectStorage {
	return &ObjectStorage{objects: make(map[string][]byte)}
}

func (o *ObjectStorage) UploadFile(storagePath string, data []byte, contentType string) (string, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.FailUpload != nil {
		return "", o.FailUpload
	}
	if _, ok := o.objects[storagePath]; ok {
		return "", fmt.Errorf("object %s already exists", storagePath)
	}
	o.objects[storagePath] = data
	return "https://storage.test/object/public/images/" + storagePath, nil
}

func (o *ObjectStorage) DeleteFile(storagePath string) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, ok := o.objects[storagePath]; !ok {
		return errors.New("object not found")
	}
	delete(o.objects, storagePath)
	return nil
}

func (o *ObjectStorage) Paths() []string {
	o.mu.Lock()
	defer o.mu.Unlock()
	paths := make([]string, 0, len(o.objects))
	for p := range o.objects {
		paths = append(paths, p)
	}
	return paths
}

// Checkout is a CheckoutCreator that hands out a fixed session.
type Checkout struct {
	Err error

	mu    sync.Mutex
	Users []string
}

func (c *Checkout) CreateCheckoutSession(ctx context.Context, userID, customerEmail string) (string, string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return "", "", c.Err
	}
	c.Users = append(c.Users, userID)
	return "cs_test_123", "https://checkout.stripe.com/c/pay/cs_test_123", nil
}
