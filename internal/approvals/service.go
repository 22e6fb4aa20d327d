package approvals

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/kestrelpay/kestrel/internal/clients/wallet"
	"github.com/kestrelpay/kestrel/internal/common"
	"github.com/kestrelpay/kestrel/internal/interfaces"
	"github.com/kestrelpay/kestrel/internal/models"
	"github.com/kestrelpay/kestrel/internal/settings"
)

// GenericErrorMessage is shown inline when a user-initiated action fails
// with anything other than a typed backend error.
const GenericErrorMessage = "Something went wrong. Please try again."

// Service performs user-initiated approval transitions. Unlike background
// polling, these errors are surfaced to the caller for inline display.
type Service struct {
	client   interfaces.BackendClient
	settings *settings.Service
	logger   *common.Logger
}

// NewService creates an approvals service.
func NewService(client interfaces.BackendClient, settingsSvc *settings.Service, logger *common.Logger) *Service {
	return &Service{
		client:   client,
		settings: settingsSvc,
		logger:   logger,
	}
}

// Approve accepts a pending funds-pull pre-approval.
func (s *Service) Approve(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.ApprovalPending, models.ApprovalValid)
}

// Reject declines a pending funds-pull pre-approval.
func (s *Service) Reject(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.ApprovalPending, models.ApprovalRejected)
}

// Revoke withdraws a previously granted approval.
func (s *Service) Revoke(ctx context.Context, id string) error {
	return s.transition(ctx, id, models.ApprovalValid, models.ApprovalRevoked)
}

func (s *Service) transition(ctx context.Context, id string, from, to models.ApprovalStatus) error {
	current, ok := s.find(id)
	if !ok {
		return fmt.Errorf("approval '%s' not found", id)
	}
	if current.Status != from {
		return fmt.Errorf("cannot move approval '%s' from %s to %s", id, current.Status, to)
	}
	if from == models.ApprovalValid && current.Scope.Expired(time.Now()) {
		return fmt.Errorf("approval '%s' has expired", id)
	}

	if err := s.client.UpdateApprovalStatus(ctx, id, to); err != nil {
		if s.settings.HandleUnauthorized(ctx, err) {
			return err
		}
		s.logger.Warn().Err(err).Str("approval", id).Str("status", string(to)).Msg("Approval update failed")
		return err
	}

	s.logger.Info().Str("approval", id).Str("status", string(to)).Msg("Approval updated")

	// Re-fetch so the published classification reflects the transition.
	if err := s.settings.RefreshApprovals(ctx); err != nil {
		s.logger.Warn().Err(err).Msg("Approvals refresh after update failed")
	}
	return nil
}

func (s *Service) find(id string) (models.Approval, bool) {
	for _, a := range s.settings.Container().Snapshot().Approvals {
		if a.ID == id {
			return a, true
		}
	}
	return models.Approval{}, false
}

// Classified returns the current approvals partitioned for display.
func (s *Service) Classified(now time.Time) Buckets {
	return Classify(s.settings.Container().Snapshot().Approvals, now)
}

// InlineMessage maps an error from a user-initiated action to the text shown
// inline: the backend-provided message for typed API errors, a generic
// internal-error message for everything else.
func InlineMessage(err error) string {
	var apiErr *wallet.APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	return GenericErrorMessage
}
