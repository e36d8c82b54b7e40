package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/sproutlearn/sprout/internal/adapter"
	"github.com/sproutlearn/sprout/internal/api"
	"github.com/sproutlearn/sprout/internal/content"
	"github.com/sproutlearn/sprout/internal/domain"
	"github.com/sproutlearn/sprout/internal/quiz"
	"github.com/sproutlearn/sprout/internal/reconcile"
	"github.com/sproutlearn/sprout/internal/search"
	"github.com/sproutlearn/sprout/internal/store"
)

// Version is set at build time via -ldflags
var Version = "dev"

func main() {
	var showVersion bool
	flag.BoolVar(&showVersion, "v", false, "print version")
	flag.BoolVar(&showVersion, "version", false, "print version")
	flag.Parse()

	if showVersion {
		fmt.Printf("sprout %s\n", Version)
		return
	}

	if err := run(flag.Args()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app bundles the wired services for command dispatch.
type app struct {
	cfg        *adapter.Config
	logger     *slog.Logger
	store      *store.Store
	client     *api.Client
	content    *content.Service
	reconciler *reconcile.Reconciler
}

func run(args []string) error {
	cfg, err := adapter.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := adapter.SetupLogger(&cfg.Logging)
	if err != nil {
		// Fall back to null logger if file logging fails
		logger = adapter.NullLogger()
	}
	slog.SetDefault(logger)

	logger.Info("starting sprout", "version", Version)

	if !cfg.IsConfigured() {
		return runSetupFlow(cfg, logger)
	}

	st, err := store.NewStore(cfg.Cache.Dir, cfg.Server.URL)
	if err != nil {
		if !errors.Is(err, domain.ErrStorageUnavailable) {
			return err
		}
		// Memory-only session: everything works, nothing persists.
		fmt.Println(warnStyle.Render("! Local storage unavailable; progress will not survive this session."))
		logger.Warn("running memory-only", "error", err)
	}
	defer st.Close()

	client := api.NewClient(cfg.Server.URL, logger)

	// Make sure the local profile exists before any command runs.
	if _, err := st.Profile(cfg.Device.ID); errors.Is(err, domain.ErrProfileNotFound) {
		profile := domain.NewDeviceProfile(cfg.Device.ID, cfg.Device.AvatarID, timeNow())
		if err := st.SaveProfile(profile); err != nil {
			return err
		}
	}

	reconciler := reconcile.NewReconciler(st, client, logger)
	if cfg.Sync.DebounceSeconds > 0 {
		reconciler.SetDebounce(secondsToDuration(cfg.Sync.DebounceSeconds))
	}
	defer reconciler.Stop()

	a := &app{
		cfg:        cfg,
		logger:     logger,
		store:      st,
		client:     client,
		content:    content.NewService(st, client, logger),
		reconciler: reconciler,
	}

	cmd := "status"
	if len(args) > 0 {
		cmd = args[0]
		args = args[1:]
	}

	ctx := context.Background()
	switch cmd {
	case "status":
		return a.cmdStatus(ctx)
	case "sync":
		return a.cmdSync(ctx)
	case "subjects":
		return a.cmdSubjects(ctx)
	case "levels":
		if len(args) < 1 {
			return fmt.Errorf("usage: sprout levels <subject-slug>")
		}
		return a.cmdLevels(ctx, args[0])
	case "play":
		if len(args) < 1 {
			return fmt.Errorf("usage: sprout play <level-id>")
		}
		id, err := strconv.Atoi(args[0])
		if err != nil {
			return fmt.Errorf("invalid level id %q", args[0])
		}
		return a.cmdPlay(ctx, id)
	case "search":
		if len(args) < 1 {
			return fmt.Errorf("usage: sprout search <query>")
		}
		return a.cmdSearch(ctx, strings.Join(args, " "))
	case "badges":
		return a.cmdBadges(ctx)
	case "leaderboard":
		return a.cmdLeaderboard(ctx)
	case "prefetch":
		return a.cmdPrefetch(ctx)
	case "refresh":
		a.content.Refresh()
		fmt.Println(okStyle.Render("✓ Content cache cleared."))
		return nil
	default:
		return fmt.Errorf("unknown command %q", cmd)
	}
}

// === Commands ===

func (a *app) cmdStatus(ctx context.Context) error {
	profile, err := a.store.Profile(a.cfg.Device.ID)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Sprout"))
	fmt.Printf("Device:      %s\n", profile.DeviceID)
	fmt.Printf("Points:      %d\n", profile.TotalPoints())
	fmt.Printf("Levels done: %d\n", profile.CompletedLevels())
	fmt.Printf("Version:     %d\n", profile.Version)

	pending := profile.UnsyncedEntries()
	if len(pending) == 0 {
		fmt.Println(okStyle.Render("✓ All progress synced."))
	} else {
		fmt.Println(warnStyle.Render(fmt.Sprintf("! %d unsynced entries.", len(pending))))
	}

	if err := a.client.Ping(ctx); err != nil {
		fmt.Println(warnStyle.Render("! Server unreachable; playing offline."))
	} else {
		fmt.Println(okStyle.Render("✓ Server reachable."))
	}
	return nil
}

func (a *app) cmdSync(ctx context.Context) error {
	result, err := a.reconciler.Sync(ctx, a.cfg.Device.ID)
	if err != nil {
		return err
	}

	switch {
	case result.Offline:
		fmt.Println(warnStyle.Render("! Server unreachable; progress kept locally for later."))
	case result.Skipped:
		fmt.Println(okStyle.Render("✓ Nothing to sync."))
	default:
		msg := fmt.Sprintf("✓ Synced %d entries (version %d)", result.Pushed, result.Version)
		if result.Conflicts > 0 {
			msg += fmt.Sprintf(", %d conflicts merged", result.Conflicts)
		}
		fmt.Println(okStyle.Render(msg + "."))
	}
	return nil
}

func (a *app) cmdSubjects(ctx context.Context) error {
	subjects, err := a.content.Subjects(ctx)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Subjects"))
	for _, s := range subjects {
		fmt.Printf("  %-20s %s (%d levels)\n", s.Slug, s.ThemeTitle(), s.LevelCount)
	}
	return nil
}

func (a *app) cmdLevels(ctx context.Context, input string) error {
	subjects, err := a.content.Subjects(ctx)
	if err != nil {
		return err
	}
	// Forgive loose input: "sci" or "Math" finds the right subject.
	slug, ok := search.ResolveSubject(input, subjects)
	if !ok {
		return fmt.Errorf("no subject matches %q", input)
	}
	subject, err := a.content.Subject(ctx, slug)
	if err != nil {
		return err
	}
	levels, err := a.content.Levels(ctx, slug)
	if err != nil {
		return err
	}
	profile, err := a.store.Profile(a.cfg.Device.ID)
	if err != nil {
		return err
	}

	unlocked := domain.UnlockStates(levels, profile)

	fmt.Println(titleStyle.Render(subject.ThemeTitle()))
	for _, lvl := range levels {
		marker := lockedMark
		if unlocked[lvl.ID] {
			marker = openMark
		}
		line := fmt.Sprintf("%s [%d] %s", marker, lvl.ID, lvl.DisplayTitle())
		if entry, ok := profile.Entry(lvl.ID); ok {
			line += fmt.Sprintf("  best %d%%, %d attempts", entry.Score, entry.Attempts)
		}
		fmt.Println(line)
	}
	return nil
}

func (a *app) cmdPlay(ctx context.Context, levelID int) error {
	level, err := a.content.Level(ctx, levelID)
	if err != nil {
		return err
	}
	if !level.HasQuestions() {
		return fmt.Errorf("level %d has no questions", levelID)
	}

	fmt.Println(titleStyle.Render(level.DisplayTitle()))
	fmt.Println(storyStyle.Render(level.StoryText))
	fmt.Println()

	session := quiz.NewSession(level)
	reader := bufio.NewReader(os.Stdin)

	for {
		q, ok := session.CurrentQuestion()
		if !ok {
			break
		}
		answer, err := promptAnswer(reader, q)
		if err != nil {
			return err
		}
		res, _ := session.Answer(answer)
		if res.Correct {
			fmt.Println(okStyle.Render(fmt.Sprintf("✓ Correct! +%d points", res.PointsEarned)))
		} else {
			fmt.Println(warnStyle.Render("✗ Not quite."))
		}
		if q.Explanation != "" {
			fmt.Println("  " + q.Explanation)
		}
		fmt.Println()
	}

	entry := session.Finish()
	profile, err := a.store.UpsertProgress(a.cfg.Device.ID, entry)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render(fmt.Sprintf("Score: %d%%", session.Score())))
	if session.Passed() {
		fmt.Println(okStyle.Render("✓ Level passed!"))
	} else {
		fmt.Println(warnStyle.Render(fmt.Sprintf("Keep trying! You need %d%% to pass.", level.MinScoreToPass)))
	}
	fmt.Printf("Total points: %d\n", profile.TotalPoints())

	// Report the completion and push progress before the process exits;
	// the debounced trigger is for long-lived UIs.
	if session.Passed() {
		_ = a.client.PushEvents(ctx, a.cfg.Device.ID, []domain.SyncEvent{{
			Type: domain.EventLevelCompleted,
			Data: map[string]any{"level_id": level.ID, "score": session.Score()},
		}})
	}
	return a.cmdSync(ctx)
}

func (a *app) cmdSearch(ctx context.Context, query string) error {
	subjects, err := a.content.Subjects(ctx)
	if err != nil {
		return err
	}
	levelsBySubject := make(map[string][]domain.Level, len(subjects))
	for _, s := range subjects {
		levels, err := a.content.Levels(ctx, s.Slug)
		if err != nil {
			a.logger.Warn("skipping subject in search", "subject", s.Slug, "error", err)
			continue
		}
		levelsBySubject[s.Slug] = levels
	}

	svc := search.NewService(a.logger)
	svc.Rebuild(subjects, levelsBySubject)

	results := svc.Find(query)
	if len(results) == 0 {
		fmt.Println("No matches.")
		return nil
	}
	for _, r := range results {
		switch r.Kind {
		case search.KindSubject:
			fmt.Printf("subject  %s\n", r.Title)
		case search.KindLevel:
			fmt.Printf("level    [%d] %s (%s)\n", r.LevelID, r.Title, r.SubjectSlug)
		}
	}
	return nil
}

func (a *app) cmdBadges(ctx context.Context) error {
	badges, err := a.content.Badges(ctx)
	if err != nil {
		return err
	}

	fmt.Println(titleStyle.Render("Badges"))
	for _, b := range badges {
		stars := strings.Repeat("★", b.RarityLevel)
		fmt.Printf("  %-15s %-5s %s (+%d pts)\n", b.Name, stars, b.Description, b.PointsReward)
	}
	return nil
}

func (a *app) cmdLeaderboard(ctx context.Context) error {
	entries, err := a.content.Leaderboard(ctx, 10)
	if err != nil {
		if errors.Is(err, domain.ErrServerUnreachable) {
			fmt.Println(warnStyle.Render("! Leaderboard needs a server connection."))
			return nil
		}
		return err
	}

	fmt.Println(titleStyle.Render("Leaderboard"))
	for i, e := range entries {
		fmt.Printf("%2d. %-22s %5d pts  %d levels\n", i+1, e.AvatarName, e.TotalPoints, e.LevelsCompleted)
	}
	return nil
}

func (a *app) cmdPrefetch(ctx context.Context) error {
	progressCh := make(chan content.PrefetchProgress)
	go a.content.Prefetch(ctx, progressCh)

	for p := range progressCh {
		if p.Error != nil {
			return fmt.Errorf("prefetch failed at %s: %w", p.Stage, p.Error)
		}
		if p.Subject != "" {
			fmt.Printf("\r%s: %d/%d levels cached    ", p.Subject, p.Loaded, p.Total)
		}
		if p.Done {
			fmt.Println()
			fmt.Println(okStyle.Render("✓ All content cached for offline play."))
		}
	}
	return nil
}

// === Question prompting ===

func promptAnswer(reader *bufio.Reader, q domain.Question) (json.RawMessage, error) {
	fmt.Println(questionStyle.Render(q.Title))

	switch q.Type {
	case domain.QuestionTrueFalse:
		for {
			fmt.Print("  true or false? (t/f): ")
			input, err := readLine(reader)
			if err != nil {
				return nil, err
			}
			switch strings.ToLower(input) {
			case "t", "true", "y", "yes":
				return json.RawMessage("true"), nil
			case "f", "false", "n", "no":
				return json.RawMessage("false"), nil
			}
		}

	case domain.QuestionFillBlank:
		if opts := payloadStrings(q.Payload, "options"); len(opts) > 0 {
			fmt.Printf("  (options: %s)\n", strings.Join(opts, ", "))
		}
		fmt.Print("  your answer: ")
		input, err := readLine(reader)
		if err != nil {
			return nil, err
		}
		return json.Marshal(input)

	case domain.QuestionDragDrop:
		items := payloadStrings(q.Payload, "items")
		targets := payloadStrings(q.Payload, "targets")
		for i, t := range targets {
			fmt.Printf("  %d) %s\n", i+1, t)
		}
		var pairs [][]int
		for i, item := range items {
			n, err := promptChoice(reader, fmt.Sprintf("where does %q go", item), len(targets))
			if err != nil {
				return nil, err
			}
			pairs = append(pairs, []int{i, n - 1})
		}
		return json.Marshal(pairs)

	default:
		// Choice questions: multiple_choice, image_choice, audio_choice.
		choices := q.Choices()
		if len(choices) == 0 {
			choices = payloadStrings(q.Payload, "images")
		}
		for i, c := range choices {
			fmt.Printf("  %d) %s\n", i+1, c)
		}
		n, err := promptChoice(reader, "your choice", len(choices))
		if err != nil {
			return nil, err
		}
		return json.Marshal([]int{n - 1})
	}
}

func promptChoice(reader *bufio.Reader, prompt string, max int) (int, error) {
	for {
		fmt.Printf("  %s (1-%d): ", prompt, max)
		input, err := readLine(reader)
		if err != nil {
			return 0, err
		}
		if n, err := strconv.Atoi(input); err == nil && n >= 1 && n <= max {
			return n, nil
		}
	}
}

func readLine(reader *bufio.Reader) (string, error) {
	input, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read input: %w", err)
	}
	return strings.TrimSpace(input), nil
}

func payloadStrings(payload map[string]any, key string) []string {
	raw, ok := payload[key].([]any)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, v := range raw {
		if s, ok := v.(string); ok {
			out = append(out, s)
		}
	}
	return out
}
