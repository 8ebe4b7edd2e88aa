// Package batch orchestrates one tearing step: fan a slice of the document
// out to extraction workers, merge what they produce into the knowledge tree,
// and advance the cursor. The step is atomic: a failed batch leaves the document
// exactly where the last successful one did.
package batch

import (
	"context"
	"sync"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/eduflow/eduflow-cli/internal/chunker"
	"github.com/eduflow/eduflow-cli/internal/doctype"
	"github.com/eduflow/eduflow-cli/internal/extract"
	"github.com/eduflow/eduflow-cli/internal/learnctx"
	"github.com/eduflow/eduflow-cli/internal/model"
	"github.com/eduflow/eduflow-cli/internal/prompt"
	"github.com/eduflow/eduflow-cli/internal/sidecar"
	"github.com/eduflow/eduflow-cli/internal/statehub"
	"github.com/eduflow/eduflow-cli/internal/store"
	"github.com/eduflow/eduflow-cli/pkg/llm"
)

const maxWorkers = 2

// Persister saves a sidecar after a committed batch.
type Persister interface {
	Save(f *sidecar.File) error
}

// Processor runs batches against one document at a time.
type Processor struct {
	Chunks    *chunker.Chunker
	Client    llm.Client
	Model     string
	MaxTokens int
	Target    int // knowledge points requested per unit
	Workers   int

	// Optional collaborators; all best-effort after commit.
	Hub     *statehub.Hub
	Library store.Store
	Persist Persister
}

type workerResult struct {
	newOffset int
	ext       extract.Extraction
	points    []model.KnowledgePoint
}

// RunBatch processes the next batch of f. On success the sidecar state is
// advanced and committed; on failure it is left at the previous commit with
// status back to pending.
func (p *Processor) RunBatch(ctx context.Context, f *sidecar.File) error {
	if f.ProcessedOffset >= f.TotalSize {
		f.App.Status = model.StatusDone
		f.App.HasMore = false
		p.afterCommit(ctx, f)
		return nil
	}

	src, err := f.Source()
	if err != nil {
		return err
	}

	f.App.Status = model.StatusProcessing
	f.App.BatchProducedCount = 0
	p.notify(f)

	results, archetype, err := p.runWorkers(ctx, f, src)
	if err != nil {
		f.App.Status = model.StatusPending
		f.App.BatchProducedCount = 0
		p.notify(f)
		return eris.Wrapf(err, "batch: document %s batch %d", f.App.ID, f.App.BatchIndex+1)
	}

	p.commit(f, results, archetype)
	p.afterCommit(ctx, f)
	return nil
}

// runWorkers dispatches up to Workers concurrent extraction calls over
// provisionally precomputed offsets. Only the first worker sees the pending
// fragment; later workers run on unrelated slices of the document.
func (p *Processor) runWorkers(ctx context.Context, f *sidecar.File, src chunker.Source) ([]workerResult, model.Archetype, error) {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > maxWorkers {
		workers = maxWorkers
	}

	// Provisional start offsets. Text workers may snap to an earlier
	// boundary than predicted and overlap slightly; the max-offset commit
	// keeps the cursor monotonic regardless.
	starts := []int{f.ProcessedOffset}
	for len(starts) < workers {
		next := p.Chunks.ProvisionalOffset(src, starts[len(starts)-1])
		if next >= f.TotalSize {
			break
		}
		starts = append(starts, next)
	}

	results := make([]workerResult, len(starts))
	var classifyMu sync.Mutex
	archetype := f.App.LearningContext.DocumentType

	g, gctx := errgroup.WithContext(ctx)
	for i, start := range starts {
		g.Go(func() error {
			unit, err := p.Chunks.NextUnit(gctx, src, start)
			if err != nil {
				return err
			}
			if unit == nil {
				results[i] = workerResult{newOffset: start}
				return nil
			}

			classifyMu.Lock()
			if archetype == "" {
				archetype = doctype.Classify(unit.Content, f.OriginalFileName)
				zap.L().Info("batch: document classified",
					zap.String("document", f.App.ID),
					zap.String("archetype", string(archetype)),
				)
			}
			workerType := archetype
			classifyMu.Unlock()

			workerCtx := f.App.LearningContext
			if i > 0 {
				workerCtx.Pending.Fragment = ""
			}

			out, err := p.Client.Chat(gctx, llm.ChatRequest{
				Model:     p.Model,
				MaxTokens: p.MaxTokens,
				Messages: []llm.Message{
					{Role: "system", Content: prompt.System},
					{Role: "user", Content: prompt.Build(p.Target, workerType, workerCtx) +
						"\n\n[文件名]\n" + f.OriginalFileName +
						"\n\n[待处理文本开始]\n" + unit.Content + "\n[待处理文本结束]"},
				},
			})
			if err != nil {
				return err
			}

			res := extract.ParseObject(out)
			if !res.OK {
				// Zero yield, not a batch failure: the chunk is consumed
				// and the cursor still advances.
				zap.L().Warn("batch: unparseable model output",
					zap.String("document", f.App.ID),
					zap.Int("worker", i),
					zap.Int("responseChars", len(out)),
				)
				results[i] = workerResult{newOffset: unit.NewOffset}
				return nil
			}

			ext := extract.Normalize(res.Data)
			zap.L().Debug("batch: worker extracted",
				zap.Int("worker", i),
				zap.String("parseMethod", res.Method),
				zap.Int("points", len(ext.KnowledgePoints)),
			)

			results[i] = workerResult{
				newOffset: unit.NewOffset,
				ext:       ext,
				points:    extract.RemapWorker(i, ext.KnowledgePoints),
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, "", err
	}
	return results, archetype, nil
}

// commit folds worker results into the sidecar in worker order: batch-level
// ID remap, answer matching against the whole tree, context update, merge,
// cursor advance.
func (p *Processor) commit(f *sidecar.File, results []workerResult, archetype model.Archetype) {
	batchIndex := f.App.BatchIndex + 1

	finalOffset := f.ProcessedOffset
	var allNew []model.KnowledgePoint
	var reported []model.ReportedAnswer
	var fragment, pathChange string
	var region model.Region

	for _, r := range results {
		if r.newOffset > finalOffset {
			finalOffset = r.newOffset
		}
		allNew = append(allNew, r.points...)
		reported = append(reported, r.ext.MatchedAnswers...)
		if r.ext.FragmentSet && r.ext.Fragment != "" {
			fragment = r.ext.Fragment
		}
		if r.ext.PathChange != "" {
			pathChange = r.ext.PathChange
		}
		if r.ext.RegionType != "" {
			region = r.ext.RegionType
		}
	}

	remapped := extract.RemapBatch(batchIndex, allNew)

	matched := learnctx.MatchAnswers(f.App.KnowledgePoints, remapped, reported, f.App.LearningContext)

	newCtx := learnctx.Apply(matched.Context, learnctx.Update{
		PathChange:   pathChange,
		Fragment:     &fragment, // consumed fragment cleared unless a new one was reported
		RegionType:   region,
		DocumentType: archetype,
		NewKnowledge: matched.New,
	})

	done := finalOffset >= f.TotalSize
	if done {
		newCtx = learnctx.Finalize(newCtx)
	}

	f.ProcessedOffset = finalOffset
	f.App.ContentCursor = finalOffset
	f.App.HasMore = !done
	f.App.BatchIndex = batchIndex
	f.App.BatchProducedCount = len(matched.New)
	f.App.KnowledgePoints = append(matched.Existing, matched.New...)
	f.App.LearningContext = newCtx
	if done {
		f.App.Status = model.StatusDone
	} else {
		f.App.Status = model.StatusPending
	}

	zap.L().Info("batch: committed",
		zap.String("document", f.App.ID),
		zap.Int("batch", batchIndex),
		zap.Int("produced", len(matched.New)),
		zap.Int("cursor", finalOffset),
		zap.Int("total", f.TotalSize),
		zap.Bool("done", done),
	)
}

// afterCommit runs the best-effort side effects: sidecar save, library
// update, state broadcast. Failures are logged, never propagated; the
// in-memory commit already happened.
func (p *Processor) afterCommit(ctx context.Context, f *sidecar.File) {
	if p.Persist != nil {
		if err := p.Persist.Save(f); err != nil {
			zap.L().Error("batch: sidecar save failed",
				zap.String("document", f.App.ID),
				zap.Error(err),
			)
		}
	}
	if p.Library != nil {
		err := p.Library.UpdateProgress(ctx, f.App.ID, f.App.Status, f.ProcessedOffset, len(f.App.KnowledgePoints))
		if err != nil {
			zap.L().Error("batch: library update failed",
				zap.String("document", f.App.ID),
				zap.Error(err),
			)
		}
	}
	p.notify(f)
}

func (p *Processor) notify(f *sidecar.File) {
	if p.Hub != nil {
		p.Hub.Put(f.App)
	}
}
