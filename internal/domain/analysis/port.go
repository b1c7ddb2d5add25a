package analysis

import "context"

// Completer sends a transcript to the chat-completion service and returns the raw reply text.
type Completer interface {
	Complete(ctx context.Context, transcript string) (string, error)
}

// LogStore is the append-only analysis log.
type LogStore interface {
	Append(ctx context.Context, e Entry) (string, error)
}

// Repository mirrors analyses into a queryable store
type Repository interface {
	Save(ctx context.Context, r *Record) error
	Paginate(ctx context.Context, page, pageSize int) ([]*Record, error)
}

// Archiver copies a log file to remote storage and returns where it landed.
type Archiver interface {
	Archive(ctx context.Context, localPath string) (string, error)
}
