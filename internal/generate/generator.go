// Package generate orchestrates the generation pipeline: quota and access
// checks, manifest freshness, prompt assembly, the model call with one
// feedback retry, deterministic repair, and history.
package generate

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/timberland/blocksmith/internal/assembler"
	"github.com/timberland/blocksmith/internal/config"
	"github.com/timberland/blocksmith/internal/history"
	"github.com/timberland/blocksmith/internal/llm"
	"github.com/timberland/blocksmith/internal/manifest"
	"github.com/timberland/blocksmith/internal/markup"
	"github.com/timberland/blocksmith/internal/media"
	"github.com/timberland/blocksmith/internal/prompt"
	"github.com/timberland/blocksmith/internal/ratelimit"
	"github.com/timberland/blocksmith/internal/validator"
)

// Request describes one generation call.
type Request struct {
	Caller      string   `json:"caller"`
	CallerRoles []string `json:"caller_roles"`
	Prompt      string   `json:"prompt"`
	PostType    string   `json:"post_type"`
	PostID      *int64   `json:"post_id,omitempty"`
	UsePatterns []string `json:"use_patterns,omitempty"`
	Model       string   `json:"model,omitempty"`
}

// Result is a finished generation.
type Result struct {
	Markup       string           `json:"markup"`
	Validation   validator.Result `json:"validation"`
	Model        string           `json:"model"`
	InputTokens  int              `json:"input_tokens"`
	OutputTokens int              `json:"output_tokens"`
	StopReason   string           `json:"stop_reason"`
}

// StructureResult is the outcome of the structure step: a validated block
// tree plus the layout plan that produced it.
type StructureResult struct {
	Tree          *assembler.Tree       `json:"tree"`
	Decomposition *prompt.Decomposition `json:"decomposition,omitempty"`
	UsePatterns   []string              `json:"use_patterns,omitempty"`
	Model         string                `json:"model"`
	InputTokens   int                   `json:"input_tokens"`
	OutputTokens  int                   `json:"output_tokens"`
}

// Generator runs the pipeline. History is optional; everything else is
// required.
type Generator struct {
	cfg     config.Config
	version string
	store   *manifest.Store
	limiter *ratelimit.Limiter
	factory llm.ClientProvider
	media   media.Resolver
	history *history.Store
}

func New(cfg config.Config, version string, store *manifest.Store, limiter *ratelimit.Limiter, factory llm.ClientProvider, res media.Resolver, hist *history.Store) *Generator {
	if res == nil {
		res = media.Nop{}
	}
	return &Generator{
		cfg:     cfg,
		version: version,
		store:   store,
		limiter: limiter,
		factory: factory,
		media:   res,
		history: hist,
	}
}

// Generate produces block markup for a prompt in a single model call with
// one validation-feedback retry.
func (g *Generator) Generate(ctx context.Context, req Request) (*Result, error) {
	m, err := g.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	prior := collectPriorImages(m, req.UsePatterns)

	builder := prompt.NewBuilder(m, g.cfg.Generation.CustomInstructions)
	systemPrompt := builder.Build(req.Prompt, req.PostType, req.UsePatterns)

	client, err := g.factory.Client(req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := client.Generate(ctx, systemPrompt, req.Prompt)
	if err != nil {
		return nil, err
	}
	g.limiter.Record(req.Caller)

	v := validator.New(m)
	val := v.Validate(resp.Content)

	// One retry with the validation errors as feedback. The retry is kept
	// only when it is strictly better.
	if !val.Valid && len(val.Errors) > 0 {
		retryResp, retryErr := client.GenerateWithRetry(ctx, systemPrompt, req.Prompt, val.Errors)
		if retryErr != nil {
			log.Warn().Err(retryErr).Msg("generate: retry call failed, keeping first attempt")
		} else {
			retryVal := v.Validate(retryResp.Content)
			if betterOf(val, retryVal) {
				retryResp.InputTokens += resp.InputTokens
				retryResp.OutputTokens += resp.OutputTokens
				resp = retryResp
				val = retryVal
			}
		}
	}

	clean := markup.StripFences(resp.Content)
	rep := newRepairer(m, g.media, prior, req.Prompt, g.imageryKeywords())
	clean = rep.Repair(ctx, clean)

	// Re-check attributes only: repair rewrites JSON islands but never
	// block structure, so the earlier block count stands.
	final := v.ValidateAttributes(clean, val.BlockCount)

	res := &Result{
		Markup:       clean,
		Validation:   final,
		Model:        resp.Model,
		InputTokens:  resp.InputTokens,
		OutputTokens: resp.OutputTokens,
		StopReason:   resp.StopReason,
	}
	g.saveHistory(req, res)
	return res, nil
}

// GenerateStructure runs the planning and structure steps: decompose the
// prompt, then ask the model for a JSON block tree.
func (g *Generator) GenerateStructure(ctx context.Context, req Request) (*StructureResult, error) {
	m, err := g.admit(ctx, req)
	if err != nil {
		return nil, err
	}

	dec := prompt.NewDecomposer(g.factory).Decompose(ctx, req.Prompt, m)

	usePatterns := req.UsePatterns
	if len(usePatterns) == 0 {
		usePatterns = dec.SuggestedPatternIDs
	}

	systemPrompt := prompt.NewStructureBuilder(m).Build(req.Prompt, dec, usePatterns)

	client, err := g.factory.Client(req.Model)
	if err != nil {
		return nil, err
	}

	resp, err := client.Generate(ctx, systemPrompt, req.Prompt)
	if err != nil {
		return nil, err
	}
	g.limiter.Record(req.Caller)

	tree, parseErr := assembler.ParseTree(resp.Content)
	if parseErr != nil {
		retryResp, retryErr := client.GenerateWithRetry(ctx, systemPrompt, req.Prompt, []string{parseErr.Error()})
		if retryErr != nil {
			return nil, parseErr
		}
		tree, parseErr = assembler.ParseTree(retryResp.Content)
		if parseErr != nil {
			return nil, parseErr
		}
		retryResp.InputTokens += resp.InputTokens
		retryResp.OutputTokens += resp.OutputTokens
		resp = retryResp
	}

	return &StructureResult{
		Tree:          tree,
		Decomposition: dec,
		UsePatterns:   usePatterns,
		Model:         resp.Model,
		InputTokens:   resp.InputTokens,
		OutputTokens:  resp.OutputTokens,
	}, nil
}

// AssembleTree compiles a block tree into markup and validates it. No
// model call is involved, so neither quota nor access applies.
func (g *Generator) AssembleTree(ctx context.Context, tree *assembler.Tree) (*Result, error) {
	m, err := g.freshManifest()
	if err != nil {
		return nil, err
	}

	out, err := assembler.New(m, g.media).Assemble(ctx, tree)
	if err != nil {
		return nil, err
	}

	return &Result{
		Markup:     out,
		Validation: validator.New(m).Validate(out),
	}, nil
}

// betterOf reports whether the retry result should replace the first
// attempt: it must be valid outright or carry strictly fewer errors.
func betterOf(first, retry validator.Result) bool {
	return retry.Valid || len(retry.Errors) < len(first.Errors)
}

// admit runs quota, access, and manifest freshness checks.
func (g *Generator) admit(_ context.Context, req Request) (*manifest.Manifest, error) {
	if err := g.limiter.Check(req.Caller); err != nil {
		return nil, err
	}
	if !g.callerAllowed(req.CallerRoles) {
		return nil, llm.NewError(llm.KindAccess, "You do not have permission to generate content.")
	}
	return g.freshManifest()
}

// freshManifest returns the cached manifest, rebuilding when it predates
// the current version or lacks field type data.
func (g *Generator) freshManifest() (*manifest.Manifest, error) {
	m, err := g.store.Get()
	if err != nil {
		return nil, err
	}
	if m.Version != g.version || !m.HasFieldTypes() {
		log.Info().Str("have", m.Version).Str("want", g.version).Msg("generate: manifest stale, rebuilding")
		return g.store.Regenerate()
	}
	return m, nil
}

func (g *Generator) callerAllowed(roles []string) bool {
	allowed := g.cfg.Generation.AllowedRoles
	if len(allowed) == 0 {
		allowed = []string{"administrator", "editor"}
	}
	for _, r := range roles {
		for _, a := range allowed {
			if r == a {
				return true
			}
		}
	}
	return false
}

func (g *Generator) imageryKeywords() []string {
	if len(g.cfg.Generation.ImageryKeywords) > 0 {
		return g.cfg.Generation.ImageryKeywords
	}
	return config.DefaultImageryKeywords
}

// saveHistory records the generation without blocking the response.
func (g *Generator) saveHistory(req Request, res *Result) {
	if g.history == nil {
		return
	}
	valJSON, err := json.Marshal(res.Validation)
	if err != nil {
		valJSON = []byte("{}")
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if _, err := g.history.Save(ctx, history.Record{
			Caller:       req.Caller,
			Prompt:       req.Prompt,
			Markup:       res.Markup,
			PostID:       req.PostID,
			PostType:     req.PostType,
			Model:        res.Model,
			InputTokens:  res.InputTokens,
			OutputTokens: res.OutputTokens,
			StopReason:   res.StopReason,
			Validation:   valJSON,
		}); err != nil {
			log.Warn().Err(err).Msg("generate: history save failed")
		}
	}()
}
