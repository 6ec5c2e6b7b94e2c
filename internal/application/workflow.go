package application

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Patocuak64/dentalsmart-client/internal/domain"
	"github.com/Patocuak64/dentalsmart-client/internal/ports"
)

const serviceName = "dentalsmart-client"

// Workflow sequences the upload → analyze → save wizard for a single
// user: credential submission, file selection, analysis request, result
// display, and the optional save-to-history request. All state mutation
// happens under one lock; network calls run outside it and their
// results are applied only if the workflow was not reset meanwhile.
type Workflow struct {
	cfg     Config
	backend ports.DetectionBackend
	store   ports.KeyValueStore
	history ports.HistoryCache
	tokens  ports.TokenInspector
	nowFn   func() time.Time

	mu          sync.Mutex
	gen         uint64
	step        Step
	session     domain.Session
	runID       uuid.UUID
	filename    string
	image       []byte
	result      *domain.AnalysisResult
	lastError   string
	loading     bool
	saving      bool
	lastSavedAt time.Time
	listeners   []func(Event)
}

type Dependencies struct {
	Config  Config
	Backend ports.DetectionBackend
	Store   ports.KeyValueStore
	History ports.HistoryCache
	Tokens  ports.TokenInspector
}

func NewWorkflow(deps Dependencies) *Workflow {
	cfg := deps.Config
	if cfg.Confidence <= 0 {
		cfg.Confidence = DefaultConfidence
	}
	return &Workflow{
		cfg:     cfg,
		backend: deps.Backend,
		store:   deps.Store,
		history: deps.History,
		tokens:  deps.Tokens,
		nowFn:   time.Now,
		step:    StepUnauthenticated,
	}
}

func workflowLogger() *slog.Logger {
	return slog.Default().With(
		"service", serviceName,
		"module", "application",
		"layer", "application",
	)
}

// Resume restores a persisted session from the key-value store. A token
// whose readable expiry has already passed is cleared instead of being
// presented to the backend.
func (w *Workflow) Resume(ctx context.Context) (domain.Session, error) {
	token, err := w.store.Get(ctx, ports.KeyToken)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read persisted token: %w", err)
	}
	if token == "" {
		return domain.Session{}, nil
	}
	email, err := w.store.Get(ctx, ports.KeyUserEmail)
	if err != nil {
		return domain.Session{}, fmt.Errorf("read persisted email: %w", err)
	}

	if w.tokens != nil {
		if expiry, ok := w.tokens.Expiry(token); ok && !expiry.After(w.nowFn()) {
			_ = w.store.Remove(ctx, ports.KeyToken)
			_ = w.store.Remove(ctx, ports.KeyUserEmail)
			workflowLogger().InfoContext(ctx, "persisted session expired",
				"operation", "resume",
				"outcome", "expired",
				"email", email,
			)
			return domain.Session{}, domain.ErrSessionExpired
		}
	}

	session := domain.Session{Token: token, Email: email}
	w.mu.Lock()
	w.session = session
	w.step = StepUpload
	w.mu.Unlock()

	workflowLogger().InfoContext(ctx, "session resumed",
		"operation", "resume",
		"outcome", "success",
		"email", email,
	)
	return session, nil
}

// Login validates the address and password locally, then exchanges the
// credentials for a bearer token. On success the session is persisted
// and the upload step unlocks; on failure the workflow stays
// unauthenticated with the backend's message recorded.
func (w *Workflow) Login(ctx context.Context, email, password string) (domain.Session, error) {
	if err := w.acquireBusy(busyLoading); err != nil {
		return domain.Session{}, err
	}
	defer w.releaseBusy(busyLoading)

	verdict := domain.ValidateEmail(email)
	if !verdict.Valid {
		return domain.Session{}, w.fail(ctx, "login", fmt.Errorf("%w: %s", domain.ErrInvalidInput, verdict.Err))
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.Session{}, w.fail(ctx, "login", err)
	}

	return w.finishLogin(ctx, "login", verdict.Normalized, password)
}

// Register creates the account and immediately performs the same login
// flow with the same credentials. A failure at either step aborts and
// the wrapped error names the step that failed.
func (w *Workflow) Register(ctx context.Context, email, password string) (domain.Session, error) {
	if err := w.acquireBusy(busyLoading); err != nil {
		return domain.Session{}, err
	}
	defer w.releaseBusy(busyLoading)

	verdict := domain.ValidateEmail(email)
	if !verdict.Valid {
		return domain.Session{}, w.fail(ctx, "register", fmt.Errorf("%w: %s", domain.ErrInvalidInput, verdict.Err))
	}
	if err := domain.ValidatePassword(password); err != nil {
		return domain.Session{}, w.fail(ctx, "register", err)
	}

	if err := w.backend.Register(ctx, verdict.Normalized, password); err != nil {
		return domain.Session{}, w.fail(ctx, "register", fmt.Errorf("register: %w", err))
	}

	session, err := w.finishLogin(ctx, "register", verdict.Normalized, password)
	if err != nil {
		return domain.Session{}, fmt.Errorf("login after register: %w", err)
	}
	return session, nil
}

// finishLogin is the shared tail of Login and Register: token exchange,
// state transition, persistence, event emission. The caller holds the
// busy flag and has already validated the credentials.
func (w *Workflow) finishLogin(ctx context.Context, operation, email, password string) (domain.Session, error) {
	res, err := w.backend.Login(ctx, email, password)
	if err != nil {
		return domain.Session{}, w.fail(ctx, operation, err)
	}

	session := domain.Session{Token: res.AccessToken, Email: email}
	w.mu.Lock()
	w.session = session
	w.step = StepUpload
	w.lastError = ""
	w.mu.Unlock()

	if err := w.store.Set(ctx, ports.KeyToken, session.Token); err != nil {
		workflowLogger().WarnContext(ctx, "persist token failed",
			"operation", operation, "outcome", "warning", "error", err.Error())
	}
	if err := w.store.Set(ctx, ports.KeyUserEmail, session.Email); err != nil {
		workflowLogger().WarnContext(ctx, "persist email failed",
			"operation", operation, "outcome", "warning", "error", err.Error())
	}

	workflowLogger().InfoContext(ctx, "session established",
		"operation", operation,
		"outcome", "success",
		"email", session.Email,
	)
	w.emit(Event{Kind: EventLoggedIn, Email: session.Email, At: w.nowFn()})
	return session, nil
}

// AttachImage selects the radiograph for this run and moves the wizard
// to the upload step. Any previous result and error are cleared.
func (w *Workflow) AttachImage(filename string, image []byte) error {
	if len(image) == 0 {
		return fmt.Errorf("%w: image is empty", domain.ErrInvalidInput)
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading || w.saving {
		return domain.ErrBusy
	}
	w.runID = uuid.New()
	w.filename = filename
	w.image = image
	w.result = nil
	w.lastError = ""
	w.step = StepUpload
	return nil
}

// Analyze submits the attached image to the detection backend. With no
// image attached it fails fast without a network call. The call goes to
// the authenticated endpoint when a token is held, otherwise to the
// public one.
func (w *Workflow) Analyze(ctx context.Context) (*domain.AnalysisResult, error) {
	w.mu.Lock()
	if w.loading || w.saving {
		w.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if len(w.image) == 0 {
		w.lastError = domain.ErrNoImage.Error()
		w.mu.Unlock()
		return nil, domain.ErrNoImage
	}
	w.loading = true
	w.step = StepAnalyzing
	gen := w.gen
	runID := w.runID
	params := ports.AnalyzeParams{
		Filename:   w.filename,
		Image:      w.image,
		Confidence: w.cfg.Confidence,
		Token:      w.session.Token,
	}
	w.mu.Unlock()

	result, err := w.backend.Analyze(ctx, params)

	w.mu.Lock()
	w.loading = false
	if w.gen != gen {
		w.mu.Unlock()
		return nil, domain.ErrStaleRun
	}
	if err != nil {
		w.step = StepUpload
		w.lastError = err.Error()
		w.mu.Unlock()
		workflowLogger().WarnContext(ctx, "analysis failed",
			"operation", "analyze",
			"outcome", "failure",
			"run_id", runID.String(),
			"error", err.Error(),
		)
		return nil, err
	}
	w.result = &result
	w.step = StepResults
	w.lastError = ""
	w.mu.Unlock()

	workflowLogger().InfoContext(ctx, "analysis completed",
		"operation", "analyze",
		"outcome", "success",
		"run_id", runID.String(),
		"detections", result.Summary.Total,
	)
	return &result, nil
}

// SaveToHistory reissues the analyze call with the persist flag set;
// the backend computes and saves atomically. Requires a session token;
// without one the transition is rejected locally. Success records a
// strictly increasing last-saved timestamp and emits EventHistorySaved.
func (w *Workflow) SaveToHistory(ctx context.Context) (*domain.AnalysisResult, error) {
	w.mu.Lock()
	if w.loading || w.saving {
		w.mu.Unlock()
		return nil, domain.ErrBusy
	}
	if !w.session.Authenticated() {
		w.lastError = domain.ErrNotLoggedIn.Error()
		w.mu.Unlock()
		return nil, domain.ErrNotLoggedIn
	}
	if len(w.image) == 0 {
		w.lastError = domain.ErrNoImage.Error()
		w.mu.Unlock()
		return nil, domain.ErrNoImage
	}
	w.saving = true
	w.step = StepSaving
	gen := w.gen
	runID := w.runID
	params := ports.AnalyzeParams{
		Filename:   w.filename,
		Image:      w.image,
		Confidence: w.cfg.Confidence,
		Persist:    true,
		Token:      w.session.Token,
	}
	w.mu.Unlock()

	result, err := w.backend.Analyze(ctx, params)

	w.mu.Lock()
	w.saving = false
	if w.gen != gen {
		w.mu.Unlock()
		return nil, domain.ErrStaleRun
	}
	if err != nil {
		w.step = StepResults
		w.lastError = err.Error()
		w.mu.Unlock()
		workflowLogger().WarnContext(ctx, "save failed",
			"operation", "save",
			"outcome", "failure",
			"run_id", runID.String(),
			"error", err.Error(),
		)
		return nil, err
	}
	w.result = &result
	w.step = StepDone
	w.lastError = ""
	savedAt := w.nowFn()
	if !savedAt.After(w.lastSavedAt) {
		savedAt = w.lastSavedAt.Add(time.Nanosecond)
	}
	w.lastSavedAt = savedAt
	email := w.session.Email
	w.mu.Unlock()

	workflowLogger().InfoContext(ctx, "analysis saved to history",
		"operation", "save",
		"outcome", "success",
		"run_id", runID.String(),
		"email", email,
	)
	w.emit(Event{Kind: EventHistorySaved, Email: email, At: savedAt})
	return &result, nil
}

// StartNew clears the file, result and error state and returns to the
// upload step for the next radiograph. The session is untouched.
func (w *Workflow) StartNew() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading || w.saving {
		return domain.ErrBusy
	}
	w.resetAnalysisLocked()
	if w.session.Authenticated() {
		w.step = StepUpload
	} else {
		w.step = StepUnauthenticated
	}
	return nil
}

// Logout destroys the session from any state: in-memory state, the
// persisted token and email, and all analysis state are cleared. An
// in-flight request's late result is discarded via the generation bump.
func (w *Workflow) Logout(ctx context.Context) error {
	w.mu.Lock()
	email := w.session.Email
	w.session = domain.Session{}
	w.resetAnalysisLocked()
	w.step = StepUnauthenticated
	w.mu.Unlock()

	if err := w.store.Remove(ctx, ports.KeyToken); err != nil {
		workflowLogger().WarnContext(ctx, "remove persisted token failed",
			"operation", "logout", "outcome", "warning", "error", err.Error())
	}
	if err := w.store.Remove(ctx, ports.KeyUserEmail); err != nil {
		workflowLogger().WarnContext(ctx, "remove persisted email failed",
			"operation", "logout", "outcome", "warning", "error", err.Error())
	}

	workflowLogger().InfoContext(ctx, "session destroyed",
		"operation", "logout",
		"outcome", "success",
		"email", email,
	)
	w.emit(Event{Kind: EventLoggedOut, Email: email, At: w.nowFn()})
	return nil
}

// History lists the user's saved analyses. On success the local cache
// is refreshed; when the backend is unreachable a non-empty cached copy
// is served instead, marked stale.
func (w *Workflow) History(ctx context.Context) (HistoryResult, error) {
	w.mu.Lock()
	session := w.session
	w.mu.Unlock()
	if !session.Authenticated() {
		w.mu.Lock()
		w.lastError = domain.ErrNotLoggedIn.Error()
		w.mu.Unlock()
		return HistoryResult{}, domain.ErrNotLoggedIn
	}

	analyses, err := w.backend.ListAnalyses(ctx, session.Token)
	if err != nil {
		if w.history != nil {
			cached, cacheErr := w.history.List(ctx, session.Email)
			if cacheErr == nil && len(cached) > 0 {
				workflowLogger().WarnContext(ctx, "serving cached history",
					"operation", "history",
					"outcome", "stale",
					"error", err.Error(),
					"cached", len(cached),
				)
				return HistoryResult{Analyses: cached, Stale: true}, nil
			}
		}
		return HistoryResult{}, w.fail(ctx, "history", err)
	}

	if w.history != nil {
		if cacheErr := w.history.Replace(ctx, session.Email, analyses); cacheErr != nil {
			workflowLogger().WarnContext(ctx, "refresh history cache failed",
				"operation", "history", "outcome", "warning", "error", cacheErr.Error())
		}
	}
	return HistoryResult{Analyses: analyses}, nil
}

// Models lists the detection models the backend can serve, with their
// comparison metrics. Requires no authentication.
func (w *Workflow) Models(ctx context.Context) ([]domain.ModelInfo, error) {
	models, err := w.backend.ListModels(ctx)
	if err != nil {
		return nil, w.fail(ctx, "models", err)
	}
	return models, nil
}

// Snapshot returns an observer's view of the current state.
func (w *Workflow) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return Snapshot{
		Step:          w.step,
		Authenticated: w.session.Authenticated(),
		Email:         w.session.Email,
		Filename:      w.filename,
		Loading:       w.loading,
		Saving:        w.saving,
		LastError:     w.lastError,
		LastSavedAt:   w.lastSavedAt,
		Result:        w.result,
	}
}

// Session returns the current session value.
func (w *Workflow) Session() domain.Session {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.session
}

func (w *Workflow) resetAnalysisLocked() {
	w.gen++
	w.runID = uuid.Nil
	w.filename = ""
	w.image = nil
	w.result = nil
	w.lastError = ""
}

type busyFlag int

const (
	busyLoading busyFlag = iota
	busySaving
)

// acquireBusy takes the requested busy flag or rejects with ErrBusy if
// any request is already outstanding. Every acquire is paired with a
// deferred release so failures cannot leave the workflow stuck busy.
func (w *Workflow) acquireBusy(flag busyFlag) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.loading || w.saving {
		return domain.ErrBusy
	}
	switch flag {
	case busyLoading:
		w.loading = true
	case busySaving:
		w.saving = true
	}
	return nil
}

func (w *Workflow) releaseBusy(flag busyFlag) {
	w.mu.Lock()
	defer w.mu.Unlock()
	switch flag {
	case busyLoading:
		w.loading = false
	case busySaving:
		w.saving = false
	}
}

// fail records the error as the user-visible workflow error and returns
// it unchanged for the caller's typed handling.
func (w *Workflow) fail(ctx context.Context, operation string, err error) error {
	w.mu.Lock()
	w.lastError = err.Error()
	w.mu.Unlock()
	workflowLogger().WarnContext(ctx, "workflow operation failed",
		"operation", operation,
		"outcome", "failure",
		"error", err.Error(),
	)
	return err
}
