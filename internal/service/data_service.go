package service

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"bucketwise/internal/blob"
	"bucketwise/internal/store"
)

// DataService handles account-wide destructive operations.
type DataService struct {
	store store.Store
	blobs blob.Store
	log   zerolog.Logger
}

func NewDataService(s store.Store, b blob.Store, log zerolog.Logger) *DataService {
	return &DataService{store: s, blobs: b, log: log}
}

// PurgeResult reports what an account wipe removed.
type PurgeResult struct {
	Deleted store.PurgeCounts `json:"deleted"`
	Message string            `json:"message"`
}

// DeleteAll wipes everything the user owns: every record, locked months
// included, plus all stored upload files. There is no undo, so the caller
// must send the confirmation phrase verbatim.
func (s *DataService) DeleteAll(ctx context.Context, userID, confirmation string) (*PurgeResult, error) {
	if confirmation != deleteConfirmation {
		return nil, validationf("safety check: set confirmation to %q to proceed", deleteConfirmation)
	}

	counts, err := s.store.PurgeUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("purge user data: %w", err)
	}

	// Stored files are best effort: the records are already gone, and an
	// orphaned object is harmless next to a half-wiped account.
	for _, prefix := range []string{
		fmt.Sprintf("uploads/raw/%s/", userID),
		fmt.Sprintf("uploads/normalized/%s/", userID),
		fmt.Sprintf("uploads/paystubs/%s/", userID),
	} {
		if err := s.blobs.DeletePrefix(ctx, prefix); err != nil {
			s.log.Warn().Err(err).Str("prefix", prefix).Msg("failed to delete stored uploads")
		}
	}

	s.log.Info().
		Int("transactions", counts.Transactions).
		Int("paystubs", counts.Paystubs).
		Msg("all user data deleted")
	return &PurgeResult{Deleted: counts, Message: "All data deleted."}, nil
}
