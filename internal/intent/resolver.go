// Package intent turns an English command into an ActionRequest by asking
// an LLM to call one of a fixed set of functions, then resolving the
// call's device description against a registry snapshot.
package intent

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"smart-home-assistant/internal/capability"
	"smart-home-assistant/internal/domain"
)

type Resolver struct {
	llm     FunctionCaller
	schema  *capability.Schema
	timeout time.Duration
	logger  *slog.Logger
}

func NewResolver(llm FunctionCaller, schema *capability.Schema, timeout time.Duration, logger *slog.Logger) *Resolver {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Resolver{
		llm:     llm,
		schema:  schema,
		timeout: timeout,
		logger:  logger,
	}
}

// Resolve asks the model for a function call and maps it to an action.
// It only reads the snapshot. Errors are *domain.IntentError,
// *domain.ValidationError or *domain.NotFoundError.
func (r *Resolver) Resolve(ctx context.Context, text string, snapshot []domain.Device) (domain.ActionRequest, error) {
	prompt := Prompt{
		System:    systemPrompt(r.schema, snapshot),
		User:      text,
		Functions: Functions(snapshot),
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	start := time.Now()
	reply, err := r.llm.CallFunction(ctx, prompt)
	if err != nil {
		r.logger.Error("llm call failed", "error", err, "elapsed", time.Since(start))
		return domain.ActionRequest{}, &domain.IntentError{
			Kind:    domain.KindServiceUnavailable,
			Message: "language model unavailable",
			Err:     err,
		}
	}

	switch rep := reply.(type) {
	case FunctionCall:
		r.logger.Info("llm function call", "function", rep.Name, "args", rep.Args)
		return r.fromCall(text, rep, snapshot)
	case FreeText:
		r.logger.Info("llm replied without a function call", "text", rep.Text)
		return domain.ActionRequest{}, &domain.IntentError{Kind: domain.KindUnactionable, Message: strings.TrimSpace(rep.Text)}
	default:
		return domain.ActionRequest{}, &domain.IntentError{Kind: domain.KindUnactionable}
	}
}

func (r *Resolver) fromCall(text string, call FunctionCall, snapshot []domain.Device) (domain.ActionRequest, error) {
	switch call.Name {
	case FuncTime:
		return domain.ActionRequest{Selector: domain.SelectAll(""), Action: domain.ActionTime}, nil
	case FuncDeviceStatus:
		return r.statusRequest(text, argString(call.Args, "device"), snapshot)
	case FuncControlDevice:
		return r.controlRequest(text, call.Args, snapshot)
	}
	return domain.ActionRequest{}, &domain.IntentError{
		Kind:    domain.KindUnactionable,
		Message: fmt.Sprintf("🤔 I can't do %q", call.Name),
	}
}

func (r *Resolver) controlRequest(text string, args map[string]any, snapshot []domain.Device) (domain.ActionRequest, error) {
	deviceType := strings.ToLower(argString(args, "device_type"))
	location := argString(args, "location")
	action := strings.ToLower(argString(args, "action"))
	value := argString(args, "value")

	req := domain.ActionRequest{}
	switch action {
	case "on":
		req.Action = domain.ActionPowerOn
	case "off":
		req.Action = domain.ActionPowerOff
	case "toggle":
		req.Action = domain.ActionToggle
	case "":
		return req, &domain.IntentError{Kind: domain.KindUnactionable, Message: "🤔 What should I do with the device?"}
	default:
		if value == "" {
			return req, &domain.ValidationError{Field: action, Reason: domain.ReasonMissing}
		}
		req.Action = domain.ActionSetAttribute
		req.Parameters = map[string]any{action: value}
	}

	var (
		category domain.Category
		batch    bool
	)
	switch deviceType {
	case deviceTypeAllDevices:
		if req.Action != domain.ActionPowerOff {
			return req, &domain.ValidationError{Field: "action", Reason: domain.ReasonUnsupported, Value: action, Allowed: "off"}
		}
		batch = true
	case deviceTypeAllLamps:
		category, batch = domain.CategoryLamp, true
	default:
		c, ok := domain.ParseCategory(deviceType)
		if !ok {
			return req, &domain.IntentError{Kind: domain.KindUnactionable, Message: fmt.Sprintf("🤔 I don't know any %q devices", deviceType)}
		}
		category = c
	}

	// Parameters are checked against the category before any device is
	// picked, so an invalid value is reported even when the target is
	// ambiguous.
	if req.Action == domain.ActionSetAttribute {
		if _, err := r.schema.Validate(category, req.Action, req.Parameters); err != nil {
			return req, err
		}
	}

	if batch {
		location = "all"
	}

	sel, err := selectTarget(text, category, location, snapshot)
	if err != nil {
		return req, err
	}
	req.Selector = sel
	return req, nil
}

func (r *Resolver) statusRequest(text, device string, snapshot []domain.Device) (domain.ActionRequest, error) {
	req := domain.ActionRequest{Action: domain.ActionStatus, Selector: domain.SelectAll("")}

	query := strings.ToLower(strings.TrimSpace(device))
	if query == "" || query == "all" {
		return req, nil
	}
	if c, ok := domain.ParseCategory(query); ok {
		req.Selector = domain.SelectAll(c)
		return req, nil
	}

	var matches []domain.Device
	for _, d := range snapshot {
		if d.ID == query || strings.Contains(strings.ToLower(d.Name), query) {
			matches = append(matches, d)
		}
	}
	switch len(matches) {
	case 0:
		return req, &domain.NotFoundError{ID: device}
	case 1:
		req.Selector = domain.SelectDevice(matches[0].ID)
		return req, nil
	}
	return req, ambiguous(matches)
}

// selectTarget picks the device a command refers to. An exact location
// match wins; several remaining matches become a batch only when the
// phrasing is explicitly plural and covers the whole category.
func selectTarget(text string, category domain.Category, location string, snapshot []domain.Device) (domain.Selector, error) {
	var candidates []domain.Device
	for _, d := range snapshot {
		if category == "" || d.Category == category {
			candidates = append(candidates, d)
		}
	}
	if len(candidates) == 0 {
		return domain.Selector{}, &domain.NotFoundError{ID: domain.SelectAll(category).String()}
	}

	loc := strings.ToLower(strings.TrimSpace(location))
	matches := candidates
	if loc != "" && loc != "all" {
		matches = matchLocation(candidates, loc)
		if len(matches) == 0 {
			return domain.Selector{}, &domain.NotFoundError{ID: domain.DeviceID(location, category)}
		}
	}

	if len(matches) == 1 {
		return domain.SelectDevice(matches[0].ID), nil
	}

	if len(matches) == len(candidates) && IsBatchPhrase(text) {
		return domain.SelectAll(category), nil
	}

	return domain.Selector{}, ambiguous(matches)
}

func matchLocation(candidates []domain.Device, loc string) []domain.Device {
	var exact, partial []domain.Device
	for _, d := range candidates {
		dl := strings.ToLower(d.Location)
		switch {
		case dl == loc || d.ID == loc || strings.ToLower(d.Name) == loc:
			exact = append(exact, d)
		case strings.Contains(dl, loc):
			partial = append(partial, d)
		}
	}
	if len(exact) > 0 {
		return exact
	}
	return partial
}

var batchPhrase = regexp.MustCompile(`(?i)\b(all|every|everything|both|lamps|lights|acs|air conditioners|tvs|televisions|devices)\b`)

// IsBatchPhrase reports explicit plural or batch wording such as "all lamps".
func IsBatchPhrase(text string) bool {
	return batchPhrase.MatchString(text)
}

func ambiguous(matches []domain.Device) error {
	names := make([]string, len(matches))
	for i, d := range matches {
		names[i] = d.Name
	}
	return &domain.IntentError{
		Kind:       domain.KindAmbiguous,
		Message:    "more than one device matches",
		Candidates: names,
	}
}

func argString(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return strings.TrimSpace(s)
	}
	return fmt.Sprint(v)
}
