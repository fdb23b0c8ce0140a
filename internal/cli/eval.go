package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"unicode"

	"github.com/spf13/cobra"
	"github.com/vk/nodeflowgo/internal/app"
	"github.com/vk/nodeflowgo/internal/engine"
	"github.com/vk/nodeflowgo/internal/value"
)

// evalStep is one script line: values to set, then a tick of dt
// milliseconds and a pass.
type evalStep struct {
	dt   float64
	sets []assignment
}

type assignment struct {
	node string
	v    value.Value
}

// parseScript reads lines of the form
//
//	<dt_ms> [node=value ...]
//
// Blank lines and lines starting with # are skipped. Values that parse as
// 32-bit integers are Int, other numbers Double, and Go-quoted text
// String. A quoted string may contain spaces.
func parseScript(r io.Reader) ([]evalStep, error) {
	var steps []evalStep
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		head, rest := nextField(text)
		dt, err := strconv.ParseFloat(head, 64)
		if err != nil {
			return nil, fmt.Errorf("line %d: bad dt %q", line, head)
		}
		sets, err := parseAssignments(rest)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		steps = append(steps, evalStep{dt: dt, sets: sets})
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("failed to read script: %w", err)
	}
	return steps, nil
}

// nextField splits the first whitespace-delimited field off s.
func nextField(s string) (field, rest string) {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	i := strings.IndexFunc(s, unicode.IsSpace)
	if i < 0 {
		return s, ""
	}
	return s[:i], s[i:]
}

// parseAssignments reads the node=value pairs of one line. A quoted value
// runs to its closing quote and may contain spaces.
func parseAssignments(rest string) ([]assignment, error) {
	var sets []assignment
	for {
		rest = strings.TrimLeftFunc(rest, unicode.IsSpace)
		if rest == "" {
			return sets, nil
		}
		field, _ := nextField(rest)
		id, after, ok := strings.Cut(rest, "=")
		if !ok || id == "" || strings.IndexFunc(id, unicode.IsSpace) >= 0 {
			return nil, fmt.Errorf("want node=value, got %q", field)
		}

		raw, tail := nextField(after)
		if strings.HasPrefix(after, `"`) {
			q, err := strconv.QuotedPrefix(after)
			if err != nil {
				return nil, fmt.Errorf("bad string %s", raw)
			}
			raw, tail = q, after[len(q):]
			if tail != "" && !unicode.IsSpace(rune(tail[0])) {
				return nil, fmt.Errorf("want whitespace after %s", q)
			}
		}
		if raw == "" || after != strings.TrimLeftFunc(after, unicode.IsSpace) {
			return nil, fmt.Errorf("want node=value, got %q", field)
		}

		v, err := parseValue(raw)
		if err != nil {
			return nil, err
		}
		sets = append(sets, assignment{node: id, v: v})
		rest = tail
	}
}

func parseValue(raw string) (value.Value, error) {
	if i, err := strconv.ParseInt(raw, 10, 32); err == nil {
		return value.IntValue(int32(i)), nil
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return value.DoubleValue(f), nil
	}
	if strings.HasPrefix(raw, `"`) {
		s, err := strconv.Unquote(raw)
		if err != nil {
			return value.Value{}, fmt.Errorf("bad string %s", raw)
		}
		return value.StringValue(s), nil
	}
	return value.Value{}, fmt.Errorf("bad value %q: want a number or a quoted string", raw)
}

func formatOutputs(w io.Writer, step int, gen uint64, outs []engine.NodeOutput) {
	var b strings.Builder
	fmt.Fprintf(&b, "[%d] gen=%d", step, gen)
	for _, o := range outs {
		fmt.Fprintf(&b, " %s.%s=%s", o.NodeID, o.PortID, o.Value)
	}
	fmt.Fprintln(w, b.String())
}

func newEvalCommand(g *globalFlags) *cobra.Command {
	var (
		script      string
		steps       int
		dt          float64
		propagation string
	)
	cmd := &cobra.Command{
		Use:   "eval GRAPH",
		Short: "Evaluate a graph against a scripted sequence of steps",
		Long: `eval loads GRAPH, runs its first pass and prints every primary output. It
then runs the steps of --script (a file, or - for stdin) followed by --steps
idle steps of --dt milliseconds, printing the outputs each step changed.

Script lines are "<dt_ms> [node=value ...]"; # starts a comment.`,
		Args: usageArgs(cobra.ExactArgs(1)),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, _ := g.commandContext(cmd)
			mode, err := engine.ParsePropagationMode(propagation)
			if err != nil {
				return usageError("%v", err)
			}
			if steps < 0 {
				return usageError("--steps must not be negative")
			}

			var plan []evalStep
			if script != "" {
				r := cmd.InOrStdin()
				if script != "-" {
					f, err := os.Open(script)
					if err != nil {
						return err
					}
					defer f.Close()
					r = f
				}
				if plan, err = parseScript(r); err != nil {
					return usageError("%v", err)
				}
			}
			for range steps {
				plan = append(plan, evalStep{dt: dt})
			}

			doc, err := app.LoadDocument(ctx, args[0])
			if err != nil {
				return err
			}
			e := engine.New(engine.WithPropagation(mode))
			if err := e.Load(ctx, doc); err != nil {
				return err
			}
			if err := e.Evaluate(); err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			formatOutputs(out, 0, e.Generation(), e.PrimaryOutputs())

			for i, s := range plan {
				since := e.BeginSnapshot()
				for _, a := range s.sets {
					if err := e.SetNodeValue(a.node, a.v); err != nil {
						return fmt.Errorf("step %d: %w", i+1, err)
					}
				}
				if err := e.Tick(s.dt); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				if err := e.Evaluate(); err != nil {
					return fmt.Errorf("step %d: %w", i+1, err)
				}
				formatOutputs(out, i+1, e.Generation(), e.OutputsChangedSince(since))
			}
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVarP(&script, "script", "s", "", "Step script file, or - for stdin.")
	f.IntVarP(&steps, "steps", "n", 0, "Idle steps to run after the script.")
	f.Float64Var(&dt, "dt", 16, "Milliseconds per idle step.")
	f.StringVar(&propagation, "propagation", "all", "Which output changes wake dependents: all or primary.")
	return cmd
}
