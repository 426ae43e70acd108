package cli

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"tq/internal/query"
	"tq/internal/task"

	"github.com/fsnotify/fsnotify"
	"github.com/peterh/liner"
)

const replHistoryFile = ".tq_history"

// cmdRepl runs the interactive query shell. One input line is one query;
// semicolons separate instructions ("not done; sort by due; limit 5").
// The tasks file is watched and reloaded before the next query after it
// changes on disk.
func cmdRepl(_ io.Reader, o *IO, cfg task.Config, args []string) error {
	if hasHelpFlag(args) {
		printReplHelp(o)

		return nil
	}

	now := time.Now()

	sess, err := newSession(cfg, now)
	if err != nil {
		return err
	}

	var dirty atomic.Bool

	watcher, err := watchTasksFile(cfg.TasksFileAbs, &dirty)
	if err != nil {
		o.Warn("cannot watch tasks file", "edits on disk need a manual :reload")
	} else {
		defer func() { _ = watcher.Close() }()
	}

	line := liner.NewLiner()
	defer func() { _ = line.Close() }()

	line.SetCtrlCAborts(true)

	historyPath := filepath.Join(cfg.EffectiveCwd, replHistoryFile)
	if f, histErr := os.Open(historyPath); histErr == nil {
		_, _ = line.ReadHistory(f)
		_ = f.Close()
	}

	o.Println("tq repl - one query per line, ';' separates instructions, :help for commands")

	for {
		input, promptErr := line.Prompt("tq> ")
		if promptErr != nil {
			if errors.Is(promptErr, liner.ErrPromptAborted) || errors.Is(promptErr, io.EOF) {
				break
			}

			return promptErr
		}

		input = strings.TrimSpace(input)
		if input == "" {
			continue
		}

		line.AppendHistory(input)

		if isReplCommand(input) {
			if done := replCommand(o, sess, input); done {
				break
			}

			continue
		}

		if dirty.Swap(false) {
			if reloadErr := sess.reload(); reloadErr != nil {
				o.ErrPrintln("error:", reloadErr)

				continue
			}

			o.Println("(tasks file changed, reloaded)")
		}

		runReplQuery(o, sess, input)
	}

	if f, histErr := os.Create(historyPath); histErr == nil {
		_, _ = line.WriteHistory(f)
		_ = f.Close()
	}

	return nil
}

func isReplCommand(input string) bool {
	return strings.HasPrefix(input, ":") || input == "exit" || input == "quit"
}

// replCommand handles ":" commands. Returns true when the repl should exit.
func replCommand(o *IO, sess *session, input string) bool {
	switch input {
	case ":q", ":quit", "exit", "quit":
		return true
	case ":reload":
		if err := sess.reload(); err != nil {
			o.ErrPrintln("error:", err)

			return false
		}

		o.Println("reloaded", sess.repo.Len(), "tasks")
	case ":help":
		printReplHelp(o)
	default:
		if strings.HasPrefix(input, ":") {
			o.ErrPrintln("error: unknown command:", input, "(:help lists commands)")
		}
	}

	return false
}

func runReplQuery(o *IO, sess *session, input string) {
	text := strings.ReplaceAll(input, ";", "\n")
	now := time.Now()

	q, err := query.Parse(text, now, nil)
	if err != nil {
		o.ErrPrintln("error:", err)

		return
	}

	result, err := sess.engine.Execute(q, now)
	if err != nil {
		o.ErrPrintln("error:", err)

		return
	}

	printResult(o, result)
}

// watchTasksFile watches the directory containing the tasks file
// (editors replace files, so watching the file itself misses renames)
// and flips dirty when the file is written, created or renamed into place.
func watchTasksFile(path string, dirty *atomic.Bool) (*fsnotify.Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	if addErr := watcher.Add(filepath.Dir(path)); addErr != nil {
		_ = watcher.Close()

		return nil, addErr
	}

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}

				if event.Name == path && event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
					dirty.Store(true)
				}
			case _, ok := <-watcher.Errors:
				if !ok {
					return
				}
			}
		}
	}()

	return watcher, nil
}

func printReplHelp(o *IO) {
	o.Println("Usage: tq repl")
	o.Println("")
	o.Println("Interactive query shell. Enter one query per line; semicolons")
	o.Println("separate instructions, e.g.:")
	o.Println("")
	o.Println("  not done AND priority is high; sort by due; limit 5")
	o.Println("")
	o.Println("Commands:")
	o.Println("  :reload   Re-read the tasks file")
	o.Println("  :help     Show this help")
	o.Println("  :q        Exit (also quit, exit, Ctrl-D)")
}
