package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"smart-home-assistant/internal/domain"
	"smart-home-assistant/internal/executor"
)

const notifyTimeout = 10 * time.Second

// CommandReply is what a caller gets back for one submitted command.
type CommandReply struct {
	TurnID              string
	Text                string
	Success             bool
	DetectedLanguage    domain.Language
	TranslationDegraded bool
	ErrorKind           domain.ErrorKind
}

type SystemStatus struct {
	TotalDevices int
	PoweredOn    int
	Offline      int
	ByCategory   map[domain.Category]int
}

// Assistant runs the command pipeline: detect language, translate to
// English, resolve intent, execute, render the reply.
type Assistant struct {
	language LanguageService
	resolver IntentResolver
	executor CommandExecutor
	renderer ResponseRenderer
	devices  executor.Devices
	notifier Notifier
	history  *turnLog
	logger   *slog.Logger

	now           func() time.Time
	notifications sync.WaitGroup
}

func NewAssistant(
	language LanguageService,
	resolver IntentResolver,
	exec CommandExecutor,
	renderer ResponseRenderer,
	devices executor.Devices,
	notifier Notifier,
	maxHistory int,
	logger *slog.Logger,
) *Assistant {
	if notifier == nil {
		notifier = &NoopNotifier{}
	}
	return &Assistant{
		language: language,
		resolver: resolver,
		executor: exec,
		renderer: renderer,
		devices:  devices,
		notifier: notifier,
		history:  newTurnLog(maxHistory),
		logger:   logger,
		now:      time.Now,
	}
}

// SubmitCommand handles one command end to end. Every failure is reported
// as a normal reply with Success=false. hint may be "auto", "en" or "fa".
func (a *Assistant) SubmitCommand(ctx context.Context, text, hint string) CommandReply {
	turnID := uuid.NewString()
	logger := a.logger.With("turn_id", turnID)
	text = strings.TrimSpace(text)
	logger.Info("command received", "stage", "received", "text", text)

	lang, ok := domain.ParseLanguage(hint)
	if !ok {
		lang = a.language.Detect(text)
	}
	logger.Debug("language detected", "stage", "language_detected", "language", lang)

	reply := CommandReply{TurnID: turnID, DetectedLanguage: lang}
	defer func() {
		a.record(text, reply)
	}()

	if text == "" {
		a.respondError(ctx, logger, &reply, &domain.IntentError{Kind: domain.KindUnactionable, Message: "🤔 I didn't catch a command"})
		return reply
	}

	english := text
	if lang == domain.LanguagePersian {
		t := a.language.ToEnglish(ctx, text)
		english = t.Text
		reply.TranslationDegraded = t.Degraded()
		logger.Info("command translated", "stage", "translated", "method", t.Method, "english", english, "degraded", reply.TranslationDegraded)
	}

	req, err := a.resolver.Resolve(ctx, english, a.devices.List(""))
	if err != nil {
		logger.Info("intent not resolved", "stage", "intent_resolved", "kind", domain.KindOf(err), "error", err)
		a.respondError(ctx, logger, &reply, err)
		return reply
	}
	logger.Info("intent resolved", "stage", "intent_resolved", "request", req.String())

	result := a.executor.Execute(req, a.devices)
	logger.Info("command executed", "stage", "executed", "success", result.Success, "affected", result.AffectedDeviceIDs, "kind", result.ErrorKind)

	rendered := a.renderer.RenderResult(ctx, result, lang)
	reply.Text = rendered.Text
	reply.Success = result.Success
	reply.ErrorKind = result.ErrorKind
	reply.TranslationDegraded = reply.TranslationDegraded || rendered.Degraded
	logger.Info("reply rendered", "stage", "responded", "success", reply.Success, "degraded", reply.TranslationDegraded)

	if req.Action.Mutating() {
		a.notify(rendered.English)
	}
	return reply
}

func (a *Assistant) respondError(ctx context.Context, logger *slog.Logger, reply *CommandReply, err error) {
	rendered := a.renderer.RenderError(ctx, err, reply.DetectedLanguage)
	reply.Text = rendered.Text
	reply.Success = false
	reply.ErrorKind = domain.KindOf(err)
	reply.TranslationDegraded = reply.TranslationDegraded || rendered.Degraded
	logger.Info("reply rendered", "stage", "responded", "success", false, "kind", reply.ErrorKind)
}

func (a *Assistant) record(input string, reply CommandReply) {
	a.history.add(domain.ConversationTurn{
		ID:               reply.TurnID,
		InputText:        input,
		DetectedLanguage: reply.DetectedLanguage,
		ResponseText:     reply.Text,
		Success:          reply.Success,
		Timestamp:        a.now(),
	})
}

// notify delivers asynchronously so a slow notification service never holds
// up the reply.
func (a *Assistant) notify(message string) {
	if message == "" {
		return
	}
	a.notifications.Add(1)
	go func() {
		defer a.notifications.Done()
		ctx, cancel := context.WithTimeout(context.Background(), notifyTimeout)
		defer cancel()
		if err := a.notifier.Notify(ctx, message); err != nil {
			a.logger.Error("notifying result", "error", err)
		}
	}()
}

// ListDevices returns snapshots in registration order. An empty category
// lists every device.
func (a *Assistant) ListDevices(category domain.Category) []domain.Device {
	return a.devices.List(category)
}

func (a *Assistant) Device(id string) (domain.Device, error) {
	return a.devices.Get(id)
}

// ToggleDevice flips a device's power without going through intent
// resolution.
func (a *Assistant) ToggleDevice(id string) domain.ActionResult {
	result := a.executor.Execute(domain.ActionRequest{
		Selector: domain.SelectDevice(id),
		Action:   domain.ActionToggle,
	}, a.devices)

	a.logger.Info("device toggled", "device_id", id, "success", result.Success)
	if result.Success {
		a.notify(result.RenderedSummary)
	}
	return result
}

// History returns the recent turns, oldest first.
func (a *Assistant) History() []domain.ConversationTurn {
	return a.history.list()
}

func (a *Assistant) Status() SystemStatus {
	devices := a.devices.List("")
	status := SystemStatus{
		TotalDevices: len(devices),
		ByCategory:   make(map[domain.Category]int, len(domain.Categories)),
	}
	for _, d := range devices {
		status.ByCategory[d.Category]++
		if d.Power {
			status.PoweredOn++
		}
		if !d.Online {
			status.Offline++
		}
	}
	return status
}

// StatusReport renders the grouped status board of every device.
func (a *Assistant) StatusReport() string {
	result := a.executor.Execute(domain.ActionRequest{
		Selector: domain.SelectAll(""),
		Action:   domain.ActionStatus,
	}, a.devices)
	if !result.Success {
		return domain.Explain(result.Err)
	}
	return result.RenderedSummary
}

// Listen feeds transcripts from a voice source into the pipeline until the
// context is cancelled, replying to each one.
func (a *Assistant) Listen(ctx context.Context, src TranscriptSource) error {
	a.logger.Info("starting voice source", "source", src.Name())
	if err := src.Start(ctx); err != nil {
		return fmt.Errorf("starting voice source: %w", err)
	}
	defer src.Stop()

	for {
		t, err := src.Next(ctx)
		if err != nil {
			if ctx.Err() != nil || errors.Is(err, context.Canceled) {
				return ctx.Err()
			}
			a.logger.Error("reading transcript", "source", src.Name(), "error", err)
			continue
		}

		reply := a.SubmitCommand(ctx, t.Text, "auto")
		if err := src.Reply(ctx, t, reply.Text); err != nil {
			a.logger.Error("writing voice reply", "transcript", t.ID, "error", err)
		}
	}
}

// Shutdown turns every device off and waits for pending notifications.
func (a *Assistant) Shutdown(ctx context.Context) domain.ActionResult {
	result := a.executor.Execute(domain.ActionRequest{
		Selector: domain.SelectAll(""),
		Action:   domain.ActionPowerOff,
	}, a.devices)
	a.logger.Info("all devices turned off", "affected", len(result.AffectedDeviceIDs))

	done := make(chan struct{})
	go func() {
		a.notifications.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		a.logger.Warn("shutdown before notifications finished", "error", ctx.Err())
	}
	return result
}
