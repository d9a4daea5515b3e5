package usecase

import (
	"archive/zip"
	"context"
	"fmt"
	"time"

	sonic "github.com/bytedance/sonic"
	"github.com/jonboulle/clockwork"
	"github.com/riskibarqy/starleague-draft/internal/domain/draft"
	"github.com/riskibarqy/starleague-draft/internal/platform/logging"
	"github.com/sourcegraph/conc/pool"
	"github.com/valyala/bytebufferpool"
)

const restoreGuide = `# Restoring a draft backup

This archive holds the five documents that make up one draft:
session.json, teams.json, players.json, events.json and audit.json.

File store (STORE_DRIVER=file):

1. Stop the API.
2. Copy the five .json files into DATA_DIR, replacing the existing ones.
3. Start the API. The draft resumes exactly where the backup was taken.

Postgres store (STORE_DRIVER=postgres):

1. Stop the API.
2. For each file, upsert one row into draft_documents with
   draft_id = DRAFT_ID, name = the file name without .json, body = the file content.
3. Start the API.

A live draft restored after its pick deadline will skip the team on the clock
on the first request.
`

// ExportArchive is a zip backup ready to be served as a download.
type ExportArchive struct {
	FileName string
	Body     []byte
}

type ExportService struct {
	uow    draft.UnitOfWork
	clock  clockwork.Clock
	timer  pickTimer
	logger *logging.Logger
}

// NewExportService builds the backup exporter. notifier is optional and only
// receives timeout skips applied right before an export.
func NewExportService(uow draft.UnitOfWork, clock clockwork.Clock, notifier draft.Notifier, logger *logging.Logger) *ExportService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &ExportService{
		uow:    uow,
		clock:  clock,
		timer:  pickTimer{uow: uow, clock: clock, notifier: notifier, logger: logger},
		logger: logger,
	}
}

type exportDocument struct {
	name  string
	value any
	body  []byte
}

// Export snapshots every document under one shared lock and zips them.
func (s *ExportService) Export(ctx context.Context) (ExportArchive, error) {
	ctx, span := startUsecaseSpan(ctx, "usecase.ExportService.Export")
	defer span.End()

	if err := s.timer.expire(ctx); err != nil {
		return ExportArchive{}, err
	}

	var docs []*exportDocument
	err := s.uow.View(ctx, func(ctx context.Context, repo draft.Repository) error {
		session, err := loadSession(ctx, repo)
		if err != nil {
			return err
		}
		teams, err := repo.GetTeams(ctx)
		if err != nil {
			return fmt.Errorf("load teams: %w", err)
		}
		players, err := repo.GetPlayers(ctx)
		if err != nil {
			return fmt.Errorf("load players: %w", err)
		}
		events, err := repo.GetEvents(ctx)
		if err != nil {
			return fmt.Errorf("load events: %w", err)
		}
		audit, err := repo.GetAudit(ctx)
		if err != nil {
			return fmt.Errorf("load audit: %w", err)
		}

		docs = []*exportDocument{
			{name: "session.json", value: session},
			{name: "teams.json", value: nonNilSlice(teams)},
			{name: "players.json", value: nonNilSlice(players)},
			{name: "events.json", value: nonNilSlice(events)},
			{name: "audit.json", value: nonNilSlice(audit)},
		}
		return nil
	})
	if err != nil {
		return ExportArchive{}, err
	}

	p := pool.New().WithContext(ctx).WithCancelOnError()
	for _, doc := range docs {
		p.Go(func(context.Context) error {
			body, err := sonic.ConfigStd.MarshalIndent(doc.value, "", "  ")
			if err != nil {
				return fmt.Errorf("encode %s: %w", doc.name, err)
			}
			doc.body = body
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return ExportArchive{}, err
	}

	now := s.clock.Now().UTC()
	body, err := zipDocuments(docs, now)
	if err != nil {
		return ExportArchive{}, err
	}

	s.logger.InfoContext(ctx, "draft exported", "bytes", len(body))
	return ExportArchive{
		FileName: "starleague-draft-" + now.Format("20060102T150405Z") + ".zip",
		Body:     body,
	}, nil
}

func zipDocuments(docs []*exportDocument, modified time.Time) ([]byte, error) {
	buf := bytebufferpool.Get()
	defer bytebufferpool.Put(buf)

	zw := zip.NewWriter(buf)
	write := func(name string, body []byte) error {
		w, err := zw.CreateHeader(&zip.FileHeader{
			Name:     name,
			Method:   zip.Deflate,
			Modified: modified,
		})
		if err != nil {
			return fmt.Errorf("create %s in archive: %w", name, err)
		}
		if _, err := w.Write(body); err != nil {
			return fmt.Errorf("write %s to archive: %w", name, err)
		}
		return nil
	}

	for _, doc := range docs {
		if err := write(doc.name, doc.body); err != nil {
			return nil, err
		}
	}
	if err := write("RESTORE.md", []byte(restoreGuide)); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("close archive: %w", err)
	}

	return append([]byte(nil), buf.B...), nil
}

func nonNilSlice[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
