package notification

import (
	"context"
	"fmt"
	"io"
	"log"
	"slices"
	"time"

	shoutrrr "github.com/nicholas-fedor/shoutrrr"
	router "github.com/nicholas-fedor/shoutrrr/pkg/router"
	stypes "github.com/nicholas-fedor/shoutrrr/pkg/types"

	"github.com/tphakala/birdwatch-go/internal/errors"
)

// ShoutrrrProvider pushes notifications through nicholas-fedor/shoutrrr.
// A single sender serves all configured service URLs.
type ShoutrrrProvider struct {
	urls   []string
	sender *router.ServiceRouter
}

// NewShoutrrrProvider builds a provider from shoutrrr service URLs,
// validating them by constructing the sender up front.
func NewShoutrrrProvider(urls []string, timeout time.Duration) (*ShoutrrrProvider, error) {
	if len(urls) == 0 {
		return nil, errors.Newf("at least one notification URL is required").
			Component("notification").
			Category(errors.CategoryConfiguration).
			Build()
	}

	sender, err := shoutrrr.CreateSender(urls...)
	if err != nil {
		return nil, errors.New(err).
			Component("notification").
			Category(errors.CategoryConfiguration).
			Context("operation", "create_sender").
			Build()
	}
	if timeout > 0 {
		sender.Timeout = timeout
	}
	sender.SetLogger(log.New(io.Discard, "", 0))

	return &ShoutrrrProvider{
		urls:   slices.Clone(urls),
		sender: sender,
	}, nil
}

// Name returns the provider identifier
func (s *ShoutrrrProvider) Name() string { return "shoutrrr" }

// Send delivers the notification to every configured service URL
func (s *ShoutrrrProvider) Send(ctx context.Context, n *Notification) error {
	if s.sender == nil {
		return fmt.Errorf("shoutrrr sender not initialized")
	}
	_ = ctx // the router applies its own timeout

	params := stypes.Params{}
	if n.Title != "" {
		params.SetTitle(n.Title)
	}

	errs := s.sender.Send(n.Message, &params)
	for _, e := range errs {
		if e != nil {
			return errors.New(e).
				Component("notification").
				Category(errors.CategoryNetwork).
				Context("operation", "push_send").
				Build()
		}
	}
	return nil
}
