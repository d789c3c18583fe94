package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	incidentspg "github.com/bissquit/asset-desk/internal/incidents/postgres"
	inventorypg "github.com/bissquit/asset-desk/internal/inventory/postgres"
	"github.com/bissquit/asset-desk/internal/pkg/postgres"
	"github.com/bissquit/asset-desk/internal/source"
	"github.com/bissquit/asset-desk/internal/source/file"
	"github.com/bissquit/asset-desk/internal/source/firestore"
	userspg "github.com/bissquit/asset-desk/internal/users/postgres"
)

var errNoSource = errors.New("one of --file, --firestore-project or --database-url is required")

type sourceOptions struct {
	file              string
	firestoreProject  string
	firestoreDatabase string
	readyTimeout      time.Duration
	databaseURL       string
}

func (o sourceOptions) validate() error {
	n := 0
	for _, s := range []string{o.file, o.firestoreProject, o.databaseURL} {
		if s != "" {
			n++
		}
	}
	switch n {
	case 0:
		return errNoSource
	case 1:
		return nil
	default:
		return errors.New("--file, --firestore-project and --database-url are mutually exclusive")
	}
}

// open returns a reader for the selected source and a function releasing it.
func (o sourceOptions) open(ctx context.Context) (source.Reader, func(), error) {
	if err := o.validate(); err != nil {
		return nil, nil, err
	}

	switch {
	case o.file != "":
		return file.NewReader(o.file), func() {}, nil
	case o.firestoreProject != "":
		return o.openFirestore(ctx)
	default:
		return o.openPostgres(ctx)
	}
}

func (o sourceOptions) openFirestore(ctx context.Context) (source.Reader, func(), error) {
	mirror, err := firestore.New(ctx, firestore.Config{
		ProjectID:  o.firestoreProject,
		DatabaseID: o.firestoreDatabase,
	})
	if err != nil {
		return nil, nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	done := make(chan error, 1)
	go func() { done <- mirror.Run(runCtx) }()

	closeFn := func() {
		cancel()
		if err := <-done; err != nil {
			slog.Warn("firestore listener stopped", "error", err)
		}
		if err := mirror.Close(); err != nil {
			slog.Warn("failed to close firestore client", "error", err)
		}
	}

	waitCtx, waitCancel := context.WithTimeout(ctx, o.readyTimeout)
	defer waitCancel()
	if err := mirror.WaitReady(waitCtx); err != nil {
		closeFn()
		return nil, nil, fmt.Errorf("wait for firestore snapshot: %w", err)
	}

	return mirror, closeFn, nil
}

func (o sourceOptions) openPostgres(ctx context.Context) (source.Reader, func(), error) {
	pool, err := postgres.Connect(ctx, postgres.Config{
		URL:             o.databaseURL,
		MaxOpenConns:    4,
		MaxIdleConns:    1,
		ConnMaxLifetime: time.Minute,
		ConnectAttempts: 1,
	})
	if err != nil {
		return nil, nil, err
	}

	reader := source.NewRepositoryReader(
		inventorypg.NewRepository(pool),
		incidentspg.NewRepository(pool),
		userspg.NewRepository(pool),
	)
	return reader, pool.Close, nil
}
