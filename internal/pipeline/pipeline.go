// Package pipeline orchestrates one natural language question through
// language detection, schema fetch, LLM SQL generation, the SQL firewall,
// execution, and answer formatting. Stages run in a fixed order and a stage
// failure short-circuits straight to answer formatting, which always runs so
// the caller gets a user-facing message either way.
package pipeline

import (
	"context"
	"errors"
	"io"
	"fmt"
	"log/slog"
	"time"

	"github.com/askdb/askdb/internal/database"
	"github.com/askdb/askdb/internal/llm"
	"github.com/askdb/askdb/internal/observability"
	"github.com/askdb/askdb/internal/schema"
	"github.com/askdb/askdb/internal/security"
)

const (
	StageLanguageDetection  = "language_detection"
	StageSchemaFetch        = "schema_fetch"
	StageIntentAnalysis     = "intent_analysis"
	StageSQLGeneration      = "sql_generation"
	StageSecurityValidation = "security_validation"
	StageSanitization       = "sanitization"
	StageExecution          = "execution"
	StageAnswerFormatting   = "answer_formatting"
)

// SchemaProvider yields the current schema snapshot for prompt context.
type SchemaProvider interface {
	GetSchema(ctx context.Context) *schema.Snapshot
}

type Config struct {
	LLMTimeout   time.Duration
	QueryTimeout time.Duration
}

type Pipeline struct {
	schemas      SchemaProvider
	llm          llm.Client
	db           database.Executor
	logger       *slog.Logger
	llmTimeout   time.Duration
	queryTimeout time.Duration
}

// Result is the outcome of one pipeline run. Answer is always populated,
// with an error message when Err is set.
type Result struct {
	Question     string
	Language     Language
	Intent       string
	GeneratedSQL string
	SafeSQL      string
	RowCount     int
	Answer       string
	Err          *StageError

	schemaContext string
	rows          []map[string]any
}

func New(schemas SchemaProvider, llmClient llm.Client, db database.Executor, logger *slog.Logger, cfg Config) *Pipeline {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	llmTimeout := cfg.LLMTimeout
	if llmTimeout <= 0 {
		llmTimeout = 30 * time.Second
	}
	queryTimeout := cfg.QueryTimeout
	if queryTimeout <= 0 {
		queryTimeout = 15 * time.Second
	}
	return &Pipeline{
		schemas:      schemas,
		llm:          llmClient,
		db:           db,
		logger:       logger,
		llmTimeout:   llmTimeout,
		queryTimeout: queryTimeout,
	}
}

// Run executes the full stage sequence for one question. There are no
// retries; the first stage failure is the run's terminal error.
func (p *Pipeline) Run(ctx context.Context, question string) Result {
	result := Result{Question: question}

	logger := p.logger
	if requestID := observability.RequestIDFromContext(ctx); requestID != "" {
		logger = logger.With(slog.String("request_id", requestID))
	}

	steps := []struct {
		stage string
		fn    func(context.Context, *Result) *StageError
	}{
		{StageLanguageDetection, p.detectLanguage},
		{StageSchemaFetch, p.fetchSchemaContext},
		{StageIntentAnalysis, p.analyzeIntent},
		{StageSQLGeneration, p.generateSQL},
		{StageSecurityValidation, p.validateSQL},
		{StageSanitization, p.sanitizeSQL},
		{StageExecution, p.executeSQL},
	}

	for _, step := range steps {
		start := time.Now()
		err := step.fn(ctx, &result)
		observability.ObserveStage(step.stage, time.Since(start))
		if err != nil {
			result.Err = err
			logger.Warn("pipeline stage failed",
				"stage", err.Stage,
				"kind", string(err.Kind),
				"reason", err.Reason,
				"error", err.Error())
			break
		}
	}

	start := time.Now()
	p.formatAnswer(ctx, &result)
	observability.ObserveStage(StageAnswerFormatting, time.Since(start))

	observability.ObservePipelineResult(result.Err == nil)
	logger.Info("pipeline run finished",
		"language", string(result.Language),
		"rows", result.RowCount,
		"ok", result.Err == nil)
	return result
}

func (p *Pipeline) detectLanguage(_ context.Context, result *Result) *StageError {
	result.Language = DetectLanguage(result.Question)
	return nil
}

func (p *Pipeline) fetchSchemaContext(ctx context.Context, result *Result) *StageError {
	snapshot := p.schemas.GetSchema(ctx)
	if snapshot == nil || snapshot.AllFailed() {
		return &StageError{
			Stage:   StageSchemaFetch,
			Kind:    KindSchemaFetch,
			Message: "schema discovery failed for every allowed table",
		}
	}
	result.schemaContext = snapshot.PromptContext()
	return nil
}

func (p *Pipeline) analyzeIntent(ctx context.Context, result *Result) *StageError {
	callCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	prompt := buildIntentPrompt(result.Question, result.schemaContext, result.Language)
	intent, err := p.llm.Generate(callCtx, prompt)
	if err != nil {
		return stageFailure(StageIntentAnalysis, KindIntent, err)
	}
	result.Intent = intent
	return nil
}

func (p *Pipeline) generateSQL(ctx context.Context, result *Result) *StageError {
	callCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	prompt := buildSQLPrompt(result.Question, result.schemaContext, result.Intent, result.Language)
	raw, err := p.llm.Generate(callCtx, prompt)
	if err != nil {
		return stageFailure(StageSQLGeneration, KindSQLGeneration, err)
	}
	sql := llm.CleanSQL(raw)
	if sql == "" {
		return &StageError{
			Stage:   StageSQLGeneration,
			Kind:    KindSQLGeneration,
			Message: "model returned empty SQL",
		}
	}
	result.GeneratedSQL = sql
	return nil
}

func (p *Pipeline) validateSQL(_ context.Context, result *Result) *StageError {
	verdict := security.Validate(result.GeneratedSQL)
	observability.ObserveValidation(verdict.IsValid, verdict.BlockedReason)
	if !verdict.IsValid {
		return &StageError{
			Stage:   StageSecurityValidation,
			Kind:    KindBlocked,
			Reason:  verdict.BlockedReason,
			Message: verdict.ErrorMessage,
		}
	}
	return nil
}

func (p *Pipeline) sanitizeSQL(_ context.Context, result *Result) *StageError {
	result.SafeSQL = security.Sanitize(result.GeneratedSQL)
	return nil
}

func (p *Pipeline) executeSQL(ctx context.Context, result *Result) *StageError {
	callCtx, cancel := context.WithTimeout(ctx, p.queryTimeout)
	defer cancel()

	dbResult, err := p.db.ExecuteSelect(callCtx, result.SafeSQL)
	if err != nil {
		return stageFailure(StageExecution, KindExecution, err)
	}
	result.RowCount = len(dbResult.Rows)
	result.rows = dbResult.Maps()
	return nil
}

// formatAnswer always produces a user-facing Answer, even for failed runs.
func (p *Pipeline) formatAnswer(ctx context.Context, result *Result) {
	if result.Err != nil {
		result.Answer = errorMessage(result.Language, result.Err.userDetail())
		return
	}
	if len(result.rows) == 0 {
		result.Answer = emptyResultMessage(result.Language)
		return
	}

	callCtx, cancel := context.WithTimeout(ctx, p.llmTimeout)
	defer cancel()

	answer, err := p.llm.Generate(callCtx, buildAnswerPrompt(result.Question, result.rows, result.Language))
	if err != nil {
		result.Err = stageFailure(StageAnswerFormatting, KindAnswer, err)
		result.Answer = errorMessage(result.Language, result.Err.userDetail())
		return
	}
	if len(result.rows) > maxAnswerRows {
		answer += truncationNote(result.Language, len(result.rows))
	}
	result.Answer = answer
}

// userDetail is the stage failure description surfaced to the end user.
func (e *StageError) userDetail() string {
	if e.Message != "" {
		return e.Message
	}
	if e.Err != nil {
		return fmt.Sprintf("%s (%v)", e.Kind, e.Err)
	}
	return string(e.Kind)
}

func stageFailure(stage string, kind ErrorKind, err error) *StageError {
	if errors.Is(err, context.DeadlineExceeded) {
		kind = KindTimeout
	}
	return &StageError{Stage: stage, Kind: kind, Err: err}
}
