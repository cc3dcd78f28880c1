// Watch command for the traitctl CLI.
package main

import (
	"bytes"
	"fmt"
	"io"
	"slices"
	"sync"

	"github.com/spf13/cobra"

	"github.com/mesh-intelligence/traitkit/internal/configure"
	"github.com/mesh-intelligence/traitkit/pkg/traits"
)

func newWatchCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "watch [class]",
		Short: "Re-apply the config file whenever it changes",
		Long: `Watch prints the effective values, then re-applies the config file on
every change and reports each changed trait. An invalid edit is rejected and
the previous values stay in effect.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			classes, err := selectClasses(args)
			if err != nil {
				return err
			}
			v, objs, err := c.configuredObjects()
			if err != nil {
				return err
			}

			out := &lockedWriter{w: cmd.OutOrStdout()}
			values, err := collectValues(objs, classes)
			if err != nil {
				return err
			}
			var b bytes.Buffer
			writeText(&b, values)
			out.Write(b.Bytes())

			for _, obj := range objs {
				if !slices.Contains(classes, obj.Class()) {
					continue
				}
				obj.Observe(func(rec traits.ChangeRecord) error {
					cls := rec.Owner.Class()
					fmt.Fprintf(out, "changed %s.%s: %s -> %s\n", cls.Name(), rec.Name,
						formatValue(cls, rec.Name, rec.Old), formatValue(cls, rec.Name, rec.New))
					return nil
				}, nil, traits.KindChange)
			}

			r := configure.NewReloader(v, c.logger, objs...)
			r.Watch(func(err error) {
				if err != nil {
					fmt.Fprintf(out, "rejected: %v\n", err)
				}
			})
			fmt.Fprintf(out, "watching %s\n", v.ConfigFileUsed())

			<-cmd.Context().Done()
			return nil
		},
	}
}

// lockedWriter serializes writes from the watcher goroutine and the command.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (l *lockedWriter) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.w.Write(p)
}
