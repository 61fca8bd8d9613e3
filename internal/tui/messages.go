package tui

import (
	"time"

	"github.com/mobil-koeln/tickets/internal/models"
)

// snapshotMsg carries a full collection pushed by the mirror.
type snapshotMsg struct {
	tickets models.Collection
}

// mirrorErrMsg reports that the mirror subscription failed.
type mirrorErrMsg struct {
	message string
}

// createdMsg, updatedMsg and deletedMsg carry mutation results.
// seq is used for stale-result detection.
type createdMsg struct {
	seq int
	id  string
	err error
}

type updatedMsg struct {
	seq int
	id  string
	err error
}

type deletedMsg struct {
	seq int
	id  string
	err error
}

// noticeExpiredMsg clears the notice it was scheduled for.
type noticeExpiredMsg struct {
	seq int
}

// clockTickMsg re-renders the humanized sync time.
type clockTickMsg time.Time
