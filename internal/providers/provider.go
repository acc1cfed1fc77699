package providers

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"wadispatch/internal/domain"
	"wadispatch/internal/providers/greenapi"
	"wadispatch/internal/providers/ultramsg"
)

// Sender is the WhatsApp gateway capability the engine consumes. The "to"
// argument is the normalized international number (digits only); each client
// owns its wire-level address form. GetContactName returns "" when the
// gateway has no name for the number.
type Sender interface {
	SendText(ctx context.Context, to, text string) (providerMessageID string, err error)
	SendMedia(ctx context.Context, to, mediaURL, filename, caption string) (providerMessageID string, err error)
	GetContactName(ctx context.Context, to string) (string, error)
}

const (
	TagGreenAPI = "greenapi"
	TagUltraMsg = "ultramsg"
)

var ErrUnknownProvider = errors.New("unknown provider")

// New builds the gateway client for an account, keyed by its provider tag.
func New(a domain.Account, httpClient *http.Client) (Sender, error) {
	switch a.Provider {
	case TagGreenAPI:
		return &greenapi.Client{
			IDInstance: a.InstanceID,
			APIToken:   a.APIToken,
			HTTP:       httpClient,
		}, nil
	case TagUltraMsg:
		return &ultramsg.Client{
			InstanceID: a.InstanceID,
			Token:      a.APIToken,
			HTTP:       httpClient,
		}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownProvider, a.Provider)
	}
}
