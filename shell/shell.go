// Package shell is an interactive Push Fight console: play against the
// engine, inspect its plans and run self-play.
package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/logrusorgru/aurora"
	"github.com/rs/zerolog/log"

	"github.com/ben-axnick/PFCloneLogic/board"
	"github.com/ben-axnick/PFCloneLogic/bot"
	"github.com/ben-axnick/PFCloneLogic/config"
	"github.com/ben-axnick/PFCloneLogic/game"
	"github.com/ben-axnick/PFCloneLogic/turnplayer"
)

type Response struct {
	message string
}

func msg(message string) *Response {
	return &Response{message: message}
}

type ShellController struct {
	l      *readline.Instance
	out    io.Writer
	config *config.Config
	colour bool

	game   *game.Game
	engine *turnplayer.Engine
	// botSides are the sides the engine plays without being asked.
	botSides [2]bool
	plan     *turnplayer.Plan

	// remote plans turns on a plan service instead of the local engine.
	remote *bot.Client
}

func filterInput(r rune) (rune, bool) {
	switch r {
	// block CtrlZ feature
	case readline.CharCtrlZ:
		return r, false
	}
	return r, true
}

func writeln(msg string, w io.Writer) {
	io.WriteString(w, msg)
	io.WriteString(w, "\n")
}

func NewShellController(cfg *config.Config) *ShellController {
	sc := newController(cfg, os.Stderr)
	l, err := readline.NewEx(&readline.Config{
		Prompt:          "\033[31mpushfight>\033[0m ",
		HistoryFile:     "/tmp/pushfight-readline.tmp",
		EOFPrompt:       "exit",
		InterruptPrompt: "^C",
		AutoComplete:    NewShellCompleter(sc),

		HistorySearchFold:   true,
		FuncFilterInputRune: filterInput,
	})
	if err != nil {
		panic(err)
	}
	sc.l = l
	sc.out = l.Stderr()
	sc.colour = true
	return sc
}

func newController(cfg *config.Config, out io.Writer) *ShellController {
	return &ShellController{config: cfg, out: out}
}

// SetRemote makes the shell ask a plan service for the engine's turns.
func (sc *ShellController) SetRemote(c *bot.Client) { sc.remote = c }

func (sc *ShellController) showMessage(msg string) {
	writeln(msg, sc.out)
}

func (sc *ShellController) showError(err error) {
	if sc.colour {
		sc.showMessage(aurora.Red("Error: " + err.Error()).String())
		return
	}
	sc.showMessage("Error: " + err.Error())
}

func (sc *ShellController) Close() {
	if sc.engine != nil {
		sc.engine.Close()
		sc.engine = nil
	}
}

func (sc *ShellController) IsPlaying() bool {
	return sc.game != nil && sc.game.Playing() && sc.game.Phase() != game.PhaseEnded
}

func (sc *ShellController) IsBotOnTurn() bool {
	return sc.IsPlaying() && sc.botSides[sc.game.TurnPlayer()]
}

func (sc *ShellController) display() string {
	return sc.game.ToDisplayText(sc.colour)
}

// botTurns lets the engine play for as long as it is on turn.
func (sc *ShellController) botTurns(ctx context.Context) {
	for sc.IsBotOnTurn() {
		resp, err := sc.aiplay(ctx)
		if err != nil {
			sc.showError(err)
			sc.botSides[sc.game.TurnPlayer()] = false
			return
		}
		sc.showMessage(resp.message)
	}
}

func (sc *ShellController) handle(ctx context.Context, line string) (*Response, error) {
	cmd, err := extractFields(line)
	if err != nil {
		return nil, err
	}
	switch cmd.cmd {
	case "help":
		if cmd.args == nil {
			return usage()
		}
		return usageTopic(cmd.args[0])
	case "new":
		return sc.newGame(cmd)
	case "load":
		return sc.load(cmd)
	case "show", "s":
		return sc.show()
	case "place":
		return sc.place(cmd)
	case "move", "push", "skip":
		return sc.act(cmd)
	case "moves", "pushes":
		return sc.targets(cmd)
	case "plan":
		return sc.planTurn(ctx)
	case "next":
		return sc.next()
	case "aiplay", "ai":
		return sc.aiplay(ctx)
	case "bot":
		return sc.setBot(cmd)
	case "history":
		return sc.history()
	case "set":
		return sc.set(cmd)
	case "autoplay":
		return sc.autoplay(ctx, cmd)
	default:
		msg := fmt.Sprintf("command %v not found", strconv.Quote(cmd.cmd))
		log.Info().Msg(msg)
		return nil, errors.New(msg)
	}
}

func (sc *ShellController) Loop(ctx context.Context, sig chan os.Signal) {
	defer sc.l.Close()
	defer sc.Close()

	for {
		sc.botTurns(ctx)

		line, err := sc.l.Readline()
		if err == readline.ErrInterrupt {
			if len(line) == 0 {
				sig <- syscall.SIGINT
				break
			} else {
				continue
			}
		} else if err == io.EOF {
			sig <- syscall.SIGINT
			break
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if line == "exit" || line == "bye" {
			sig <- syscall.SIGINT
			break
		}
		resp, err := sc.handle(ctx, line)
		if err != nil {
			sc.showError(err)
		} else if resp != nil {
			sc.showMessage(resp.message)
		}
	}
	log.Debug().Msgf("Exiting readline loop...")
}

func parseSides(s string) ([2]bool, error) {
	switch strings.ToLower(s) {
	case "both":
		return [2]bool{true, true}, nil
	case "none", "off":
		return [2]bool{}, nil
	}
	p, err := board.ParsePlayer(s)
	if err != nil || p == board.NoPlayer {
		return [2]bool{}, fmt.Errorf("unknown side %q", s)
	}
	var sides [2]bool
	sides[p] = true
	return sides, nil
}
