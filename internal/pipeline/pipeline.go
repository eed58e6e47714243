package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"anonpipe/internal/config"
	"anonpipe/internal/logging"
	"anonpipe/internal/records"
	"anonpipe/internal/services/idis"
)

// Pipeline ties the stage folders, the correlation records, and the
// anonymization engine together. One instance owns the whole stage tree;
// the daemon lock guarantees no second instance runs against it.
type Pipeline struct {
	streams  []config.Stream
	incoming *CoolDown
	pending  *Stage
	finished *CoolDown
	errored  *Stage
	trash    *Trash

	conn    idis.Connection
	records *records.Store
	logger  *slog.Logger
}

// New builds a pipeline from configuration.
func New(cfg *config.Config, conn idis.Connection, store *records.Store, logger *slog.Logger) *Pipeline {
	names := make([]string, 0, len(cfg.Streams))
	for _, stream := range cfg.Streams {
		names = append(names, stream.Name)
	}
	root := cfg.StagesDir()
	return &Pipeline{
		streams:  cfg.Streams,
		incoming: NewCoolDown(NewStage(StageIncoming, root, names), cfg.IncomingCoolDown()),
		pending:  NewStage(StagePending, root, names),
		finished: NewCoolDown(NewStage(StageFinished, root, names), cfg.FinishedCoolDown()),
		errored:  NewStage(StageErrored, root, names),
		trash:    NewTrash(NewStage(StageTrash, root, names)),
		conn:     conn,
		records:  store,
		logger:   logging.NewComponentLogger(logger, "pipeline"),
	}
}

// Incoming exposes the intake stage, where users drop files.
func (p *Pipeline) Incoming() *Stage { return p.incoming.Stage }

// Pending exposes the stage holding files awaiting or undergoing
// anonymization.
func (p *Pipeline) Pending() *Stage { return p.pending }

// Finished exposes the stage retaining successfully processed files.
func (p *Pipeline) Finished() *Stage { return p.finished.Stage }

// Errored exposes the dead-letter stage.
func (p *Pipeline) Errored() *Stage { return p.errored }

// Stages returns every stage in flow order.
func (p *Pipeline) Stages() []*Stage {
	return []*Stage{p.incoming.Stage, p.pending, p.finished.Stage, p.errored, p.trash.Stage}
}

// EnsurePaths creates every stage and stream folder the flow needs.
func (p *Pipeline) EnsurePaths() error {
	for _, stage := range p.Stages() {
		if err := stage.EnsurePaths(); err != nil {
			return err
		}
	}
	return nil
}

// RunOnce performs one full tick: advance cooled intake files, submit fresh
// pending files, reconcile open submissions against the engine, retire cooled
// finished files, and empty the trash. Every step re-reads disk state, so a
// tick after a crash picks up exactly where the flow stands.
func (p *Pipeline) RunOnce(ctx context.Context) error {
	if err := p.EnsurePaths(); err != nil {
		return err
	}
	if err := p.advanceIncoming(); err != nil {
		return err
	}
	if err := p.submitNew(ctx); err != nil {
		return err
	}
	if err := p.reconcile(ctx); err != nil {
		return err
	}
	if err := p.retireFinished(); err != nil {
		return err
	}
	removed, err := p.trash.Empty()
	if err != nil {
		return err
	}
	if removed > 0 {
		p.logger.Info("emptied trash", logging.Int("files", removed))
	}
	return nil
}

// advanceIncoming moves files that have sat untouched in the intake long
// enough into pending. The dwell keeps us from grabbing a file that is still
// being written.
func (p *Pipeline) advanceIncoming() error {
	cooled, err := p.incoming.CooledFiles()
	if err != nil {
		return err
	}
	for _, file := range cooled {
		if err := p.pending.Accept(file); err != nil {
			return err
		}
	}
	if len(cooled) > 0 {
		p.logger.Info("advanced incoming files",
			logging.Int("files", len(cooled)),
			logging.String(logging.FieldStage, StagePending))
	}
	return nil
}

// submitNew submits each stream's not-yet-submitted pending files as one
// batch. A failed submission moves the batch to errored and is logged; it is
// never retried silently, an operator has to put the files back.
func (p *Pipeline) submitNew(ctx context.Context) error {
	submitted, err := p.records.SubmittedPaths(ctx)
	if err != nil {
		return err
	}

	for _, stream := range p.streams {
		files, err := p.pending.Files(stream.Name)
		if err != nil {
			return err
		}
		var fresh []File
		for _, file := range files {
			if _, open := submitted[file.Path]; !open {
				fresh = append(fresh, file)
			}
		}
		if len(fresh) == 0 {
			continue
		}

		paths := make([]string, len(fresh))
		for i, file := range fresh {
			paths[i] = file.Path
		}

		correlationID, err := p.conn.Submit(ctx, paths, stream.Profile, stream.OutputFolder)
		if err != nil {
			p.logger.Error("submission failed, moving batch to errored",
				logging.String(logging.FieldStream, stream.Name),
				logging.Int("files", len(fresh)),
				logging.Error(err))
			if moveErr := p.moveAll(fresh, p.errored); moveErr != nil {
				return moveErr
			}
			continue
		}

		if _, err := p.records.Add(ctx, correlationID, stream.Name, paths); err != nil {
			return fmt.Errorf("record submission %s: %w", correlationID, err)
		}
		p.logger.Info("submitted batch",
			logging.String(logging.FieldStream, stream.Name),
			logging.String(logging.FieldCorrelationID, correlationID),
			logging.Int("files", len(fresh)))
	}
	return nil
}

// reconcile polls the engine for every open submission and routes the
// covered files accordingly: done to finished, failed to errored. Pending
// submissions stay open for the next tick.
func (p *Pipeline) reconcile(ctx context.Context) error {
	open, err := p.records.Pending(ctx)
	if err != nil {
		return err
	}
	for _, record := range open {
		status, err := p.conn.Status(ctx, record.CorrelationID)
		if err != nil {
			p.logger.Warn("status query failed, will retry next tick",
				logging.String(logging.FieldCorrelationID, record.CorrelationID),
				logging.Error(err))
			continue
		}

		switch status.State {
		case idis.StateDone:
			if err := p.moveRecordFiles(record, p.finished.Stage); err != nil {
				return err
			}
			if err := p.records.Resolve(ctx, record.ID, records.StatusDone, ""); err != nil {
				return err
			}
			p.logger.Info("submission finished",
				logging.String(logging.FieldStream, record.Stream),
				logging.String(logging.FieldCorrelationID, record.CorrelationID))
		case idis.StateFailed:
			if err := p.moveRecordFiles(record, p.errored); err != nil {
				return err
			}
			if err := p.records.Resolve(ctx, record.ID, records.StatusFailed, status.Message); err != nil {
				return err
			}
			p.logger.Error("submission failed",
				logging.String(logging.FieldStream, record.Stream),
				logging.String(logging.FieldCorrelationID, record.CorrelationID),
				logging.String(logging.FieldErrorHint, status.Message))
		case idis.StatePending:
			// Still running, check again next tick.
		}
	}
	return nil
}

// retireFinished moves finished files past their retention period into the
// trash.
func (p *Pipeline) retireFinished() error {
	cooled, err := p.finished.CooledFiles()
	if err != nil {
		return err
	}
	for _, file := range cooled {
		if err := p.trash.Accept(file); err != nil {
			return err
		}
	}
	if len(cooled) > 0 {
		p.logger.Info("retired finished files",
			logging.Int("files", len(cooled)),
			logging.String(logging.FieldStage, StageTrash))
	}
	return nil
}

func (p *Pipeline) moveAll(files []File, destination *Stage) error {
	for _, file := range files {
		if err := destination.Accept(file); err != nil {
			return err
		}
	}
	return nil
}

// moveRecordFiles moves the files a record covers out of pending. A path
// that is already gone was moved before a crash interrupted the previous
// tick; skipping it makes the recovery tick converge.
func (p *Pipeline) moveRecordFiles(record *records.Record, destination *Stage) error {
	for _, path := range record.Paths {
		if _, err := os.Stat(path); err != nil {
			if os.IsNotExist(err) {
				p.logger.Warn("recorded file already moved",
					logging.String("path", path),
					logging.String(logging.FieldCorrelationID, record.CorrelationID))
				continue
			}
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if err := destination.Accept(File{Stream: record.Stream, Path: path}); err != nil {
			return err
		}
	}
	return nil
}
