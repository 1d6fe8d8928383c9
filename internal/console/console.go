// Package console is a line-oriented editor for the session graph. Each
// input line is one command, parsed with cobra:
//
//	add A B C      add nodes
//	rm A           remove a node and its edges
//	edge A B       toggle the edge A -> B
//	run [--wait]   start an enumeration
//	stop           soft stop, keeps results found so far
//	reset          hard reset, discards results
//	clear          reset and remove every node
//	wait           block until the current run ends
//	show           print the current frame as text
//	dot            print the graph as Graphviz DOT
//	quit           leave the console
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"
	"github.com/vk/toposcope/internal/ctxlog"
	"github.com/vk/toposcope/internal/graph"
	"github.com/vk/toposcope/internal/render"
	"github.com/vk/toposcope/internal/session"
)

// Prompt is written before every line read by Serve.
const Prompt = "> "

// Console executes commands against one session.
type Console struct {
	sess *session.Session
	out  io.Writer
	quit bool
}

// New creates a Console that writes its replies to out.
func New(sess *session.Session, out io.Writer) *Console {
	return &Console{sess: sess, out: out}
}

// Exec runs a single command line. It reports whether the console should
// stop reading. Blank lines and lines starting with # are ignored.
func (c *Console) Exec(ctx context.Context, line string) (bool, error) {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return false, nil
	}

	root := c.newRootCmd()
	root.SetArgs(fields)
	if err := root.ExecuteContext(ctx); err != nil {
		return false, err
	}
	return c.quit, nil
}

// Serve reads commands from in until EOF, a quit command or ctx is done.
// Command errors are reported to the output and do not end the loop.
func (c *Console) Serve(ctx context.Context, in io.Reader) error {
	logger := ctxlog.FromContext(ctx)
	logger.Debug("Console started.")
	defer logger.Debug("Console finished.")

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		fmt.Fprint(c.out, Prompt)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case line, ok := <-lines:
			if !ok {
				fmt.Fprintln(c.out)
				select {
				case err := <-readErr:
					return err
				default:
					return nil
				}
			}
			quit, err := c.Exec(ctx, line)
			if err != nil {
				fmt.Fprintf(c.out, "error: %v\n", err)
				continue
			}
			if quit {
				return nil
			}
		}
	}
}

func (c *Console) newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "toposcope",
		Short:         "Edit the graph and watch its topological orderings being enumerated",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.CompletionOptions.DisableDefaultCmd = true
	root.SetOut(c.out)
	root.SetErr(c.out)

	root.AddCommand(
		c.newAddCmd(),
		c.newRmCmd(),
		c.newEdgeCmd(),
		c.newRunCmd(),
		c.newStopCmd(),
		c.newResetCmd(),
		c.newClearCmd(),
		c.newWaitCmd(),
		c.newShowCmd(),
		c.newDotCmd(),
		c.newQuitCmd(),
	)
	return root
}

// lookup resolves a label or fails with graph.ErrUnknownNode.
func (c *Console) lookup(label string) (*graph.Node, error) {
	n, ok := c.sess.Lookup(label)
	if !ok {
		return nil, fmt.Errorf("%w: %q", graph.ErrUnknownNode, label)
	}
	return n, nil
}

func (c *Console) newAddCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "add <label>...",
		Args:  cobra.MinimumNArgs(1),
		Short: "Add one or more nodes",
		RunE: func(cmd *cobra.Command, args []string) error {
			var errs []error
			for _, label := range args {
				if _, err := c.sess.AddNode(cmd.Context(), label); err != nil {
					errs = append(errs, err)
					continue
				}
				fmt.Fprintf(c.out, "added %s\n", label)
			}
			return errors.Join(errs...)
		},
	}
}

func (c *Console) newRmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "rm <label>",
		Args:  cobra.ExactArgs(1),
		Short: "Remove a node and every edge touching it",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := c.lookup(args[0])
			if err != nil {
				return err
			}
			if err := c.sess.RemoveNode(cmd.Context(), n); err != nil {
				return err
			}
			fmt.Fprintf(c.out, "removed %s\n", args[0])
			return nil
		},
	}
}

func (c *Console) newEdgeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "edge <from> <to>",
		Args:  cobra.ExactArgs(2),
		Short: "Toggle the directed edge from -> to",
		RunE: func(cmd *cobra.Command, args []string) error {
			from, err := c.lookup(args[0])
			if err != nil {
				return err
			}
			to, err := c.lookup(args[1])
			if err != nil {
				return err
			}
			present, err := c.sess.ToggleEdge(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			verb := "removed"
			if present {
				verb = "added"
			}
			fmt.Fprintf(c.out, "%s edge %s -> %s\n", verb, args[0], args[1])
			return nil
		},
	}
}

func (c *Console) newRunCmd() *cobra.Command {
	var wait bool
	cmd := &cobra.Command{
		Use:   "run",
		Args:  cobra.NoArgs,
		Short: "Start enumerating every topological ordering",
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := c.sess.RunEnumeration(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(c.out, "started run %s\n", id)
			if !wait {
				return nil
			}
			return c.waitAndSummarise(cmd.Context())
		},
	}
	cmd.Flags().BoolVarP(&wait, "wait", "w", false, "Block until the run ends and print the orderings")
	return cmd
}

func (c *Console) newStopCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stop",
		Args:  cobra.NoArgs,
		Short: "Stop the run at its next step and keep the orderings found so far",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.sess.RequestSoftStop()
			fmt.Fprintln(c.out, "stop requested")
			return nil
		},
	}
}

func (c *Console) newResetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Args:  cobra.NoArgs,
		Short: "Abort the run immediately and discard its orderings",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.sess.HardReset()
			fmt.Fprintln(c.out, "reset")
			return nil
		},
	}
}

func (c *Console) newClearCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Args:  cobra.NoArgs,
		Short: "Reset and remove every node",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.sess.Clear(cmd.Context())
			fmt.Fprintln(c.out, "cleared")
			return nil
		},
	}
}

func (c *Console) newWaitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "wait",
		Args:  cobra.NoArgs,
		Short: "Block until the current run ends and print the orderings",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.waitAndSummarise(cmd.Context())
		},
	}
}

func (c *Console) waitAndSummarise(ctx context.Context) error {
	if err := c.sess.Wait(ctx); err != nil {
		return err
	}
	results := c.sess.Results()
	fmt.Fprintf(c.out, "%d ordering(s)\n", len(results))
	for i, r := range results {
		fmt.Fprintf(c.out, "%4d. %s\n", i+1, strings.Join(r, " "))
	}
	return nil
}

func (c *Console) newShowCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Args:  cobra.NoArgs,
		Short: "Print the graph and the latest search state",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render.Text(c.out, c.sess.Layout(), c.sess.LatestSnapshot())
		},
	}
}

func (c *Console) newDotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "dot",
		Args:  cobra.NoArgs,
		Short: "Print the graph in Graphviz DOT format",
		RunE: func(cmd *cobra.Command, args []string) error {
			return render.DOT(c.out, c.sess.Layout(), c.sess.LatestSnapshot())
		},
	}
}

func (c *Console) newQuitCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "quit",
		Aliases: []string{"exit"},
		Args:    cobra.NoArgs,
		Short:   "Leave the console",
		RunE: func(cmd *cobra.Command, args []string) error {
			c.quit = true
			return nil
		},
	}
}
