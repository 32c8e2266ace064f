// Package replay feeds stored webhook payloads through the same pipeline the
// HTTP server uses, for local debugging of classification and agent runs.
package replay

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/samber/lo"

	"basegraph.app/coplie/internal/domain"
	"basegraph.app/coplie/internal/service"
	"basegraph.app/coplie/internal/template"
)

type Entry struct {
	Source  string
	Outcome *domain.ProcessingOutcome
}

type Replayer struct {
	webhooks service.WebhookService
	signer   *service.SignatureVerifier
	renderer *template.Renderer
	now      func() time.Time
}

// New creates a replayer. When signer is non-nil every payload is signed
// with it before processing, so a server-side secret can stay configured.
func New(webhooks service.WebhookService, signer *service.SignatureVerifier) *Replayer {
	return &Replayer{
		webhooks: webhooks,
		signer:   signer,
		renderer: template.Default(),
		now:      time.Now,
	}
}

func (r *Replayer) Replay(ctx context.Context, source string, body []byte) Entry {
	var signature string
	if r.signer != nil {
		signature = r.signer.Sign(body)
	}
	return Entry{
		Source:  source,
		Outcome: r.webhooks.Process(ctx, body, signature),
	}
}

// ReplayFiles replays each file in order. A file that cannot be read stops
// the run.
func (r *Replayer) ReplayFiles(ctx context.Context, paths []string) ([]Entry, error) {
	entries := make([]Entry, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return entries, err
		}

		body, err := os.ReadFile(path)
		if err != nil {
			return entries, fmt.Errorf("reading payload %s: %w", path, err)
		}

		entry := r.Replay(ctx, filepath.Base(path), body)
		slog.DebugContext(ctx, "payload replayed", "source", entry.Source, "success", entry.Outcome.Success)
		entries = append(entries, entry)
	}
	return entries, nil
}

// Result renders one entry: agent output for dispatched issues, the JSON
// response body otherwise.
func (r *Replayer) Result(e Entry) string {
	if e.Outcome.AgentResult != nil {
		return r.webhooks.FormatAgentResult(e.Outcome)
	}
	return r.webhooks.FormatResponse(e.Outcome)
}

// Summary renders the summary-report for a batch of entries.
func (r *Replayer) Summary(entries []Entry, start, end time.Time) string {
	successful := lo.CountBy(entries, func(e Entry) bool { return e.Outcome.Success })

	details := lo.Map(entries, func(e Entry, _ int) string {
		return "- `" + e.Source + "`: " + describe(e.Outcome)
	})

	return r.renderer.Render(template.SummaryReport, map[string]any{
		"startDate":      domain.FormatTimestamp(start),
		"endDate":        domain.FormatTimestamp(end),
		"totalProcessed": len(entries),
		"successful":     successful,
		"failed":         len(entries) - successful,
		"details":        strings.Join(details, "\n"),
		"timestamp":      domain.FormatTimestamp(r.now()),
	})
}

func describe(o *domain.ProcessingOutcome) string {
	issue := lo.CoalesceOrEmpty(o.IssueIdentifier, "no issue")
	switch {
	case o.Ignored():
		return issue + " ignored"
	case o.Success:
		return fmt.Sprintf("%s dispatched to %s", issue, o.AgentID)
	default:
		return fmt.Sprintf("%s failed (%s): %s", issue, o.ErrorKind, o.Error)
	}
}
