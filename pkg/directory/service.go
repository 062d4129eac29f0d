package directory

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/poolctl/cognito-admin/pkg/cognito"
	"github.com/poolctl/cognito-admin/pkg/lifecycle"
)

// mfaStatusConcurrency bounds the parallel per-user MFA reads during listing.
const mfaStatusConcurrency = 8

// Service lists and searches users for the directory table. Pure read-side:
// all mutations go through the lifecycle service.
type Service struct {
	idp       cognito.Client
	lifecycle *lifecycle.Service
}

// NewService creates a directory view service.
func NewService(idp cognito.Client, lc *lifecycle.Service) *Service {
	return &Service{idp: idp, lifecycle: lc}
}

// Entry is one row of the directory: the user plus their MFA status.
type Entry struct {
	cognito.User
	MFA lifecycle.MFAStatus `json:"mfa"`
}

// Search lists users, narrowed by the search term: terms containing @ match
// the email attribute, anything else matches the username.
func (s *Service) Search(ctx context.Context, term string) ([]cognito.User, error) {
	filter := ""
	if term != "" {
		if strings.Contains(term, "@") {
			filter = fmt.Sprintf("email = %q", term)
		} else {
			filter = fmt.Sprintf("username = %q", term)
		}
	}

	users, err := s.idp.ListUsers(ctx, filter)
	if err != nil {
		return nil, err
	}

	sort.Slice(users, func(i, j int) bool {
		return users[i].Email < users[j].Email
	})
	return users, nil
}

// WithMFAStatus decorates users with their MFA status. Each status is an
// independent read, so the lookups run concurrently.
func (s *Service) WithMFAStatus(ctx context.Context, users []cognito.User, poolMode string) ([]Entry, error) {
	entries := make([]Entry, len(users))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(mfaStatusConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			entries[i] = Entry{
				User: user,
				MFA:  s.lifecycle.UserMFAStatus(gctx, user.Username, poolMode),
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}
