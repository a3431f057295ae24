// Command ninepd serves an in-memory 9P2000/9P2000.u file tree over the
// network (spec.md §6's reference server, d9s).
package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"go9p.dev/ninep/srv"
	"go9p.dev/ninep/vfs"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "ninepd",
		Short: "serve an in-memory 9P2000/9P2000.u file tree",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(configPath)
			if err != nil {
				return err
			}

			log := logrus.New()
			if lvl, err := logrus.ParseLevel(cfg.Log.Level); err == nil {
				log.SetLevel(lvl)
			}

			tree := vfs.NewTree(cfg.Tree.RootUid, cfg.Tree.RootGid)
			s := &srv.Server[*vfs.Handle]{
				Fsys: vfs.New(tree),
				Log:  log,
			}

			ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer cancel()

			log.WithField("addr", cfg.Listen.Addr).Info("ninepd: listening")
			return listenAndServe(ctx, s, cfg.Listen.Network, cfg.Listen.Addr)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to a TOML config file")
	return cmd
}
