package storage

import (
	"context"

	"github.com/iudanet/tripsync/pkg/api"
)

//go:generate moq -out changelog_mock.go . ChangeLog

// ChangeLog is a durable append-only feed of cross-instance change messages
// Every process that opens the same database reads the same feed
type ChangeLog interface {
	// AppendChange adds a message to the channel feed and returns its sequence number
	AppendChange(ctx context.Context, channel string, change api.DataChange) (uint64, error)

	// ChangesSince returns messages with a sequence number greater than after, oldest first
	ChangesSince(ctx context.Context, channel string, after uint64) ([]LoggedChange, error)

	// LastChangeSeq returns the sequence number of the newest message, 0 for an empty feed
	LastChangeSeq(ctx context.Context, channel string) (uint64, error)
}

// LoggedChange is a message read back from the feed
type LoggedChange struct {
	Change api.DataChange
	Seq    uint64
}
