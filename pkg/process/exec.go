// Copyright (C) 2018 Storj Labs, Inc.
// See LICENSE for copying information.

package process

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	homedir "github.com/mitchellh/go-homedir"
	"github.com/spacemonkeygo/monkit/v3"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/zeebo/errs"
	"go.uber.org/zap"

	"storj.io/common/cfgstruct"
)

// EnvPrefix is the prefix of the environment variables overriding flags.
const EnvPrefix = "graphstore"

var mon = monkit.Package()

func defaultConfigPath(name string) string {
	if name == "" {
		name = filepath.Base(os.Args[0])
	}
	path := filepath.Join(".graphstore", fmt.Sprintf("%s.yaml", name))
	home, err := homedir.Dir()
	if err != nil {
		log.Println(err)
		return path
	}
	return filepath.Join(home, path)
}

// Bind binds the fields of config to flags of cmd.
func Bind(cmd *cobra.Command, config interface{}, opts ...cfgstruct.BindOpt) {
	cfgstruct.Bind(cmd.Flags(), config, opts...)
}

// Exec runs cmd with the process arguments and exits on failure.
func Exec(cmd *cobra.Command) {
	Must(ExecArgs(cmd, os.Args[1:]))
}

// ExecArgs runs cmd with args. Before a command runs, flags that were not
// given on the command line are loaded from the environment and the config
// file, and the global logger is replaced with one configured by the log flags.
func ExecArgs(cmd *cobra.Command, args []string) error {
	cmd.PersistentFlags().AddGoFlagSet(flag.CommandLine)
	if cmd.PersistentFlags().Lookup("config") == nil {
		cmd.PersistentFlags().String("config", defaultConfigPath(cmd.Name()), "config file")
	}
	wrap(cmd)

	if args == nil {
		args = []string{}
	}
	cmd.SetArgs(args)
	return cmd.Execute()
}

func wrap(cmd *cobra.Command) {
	for _, sub := range cmd.Commands() {
		wrap(sub)
	}

	run := cmd.RunE
	if run == nil {
		return
	}
	cmd.RunE = func(cmd *cobra.Command, args []string) (err error) {
		ctx := context.Background()
		defer mon.TaskNamed("root")(&ctx)(&err)

		vip, err := Viper(cmd)
		if err != nil {
			return err
		}
		if err := loadFlags(cmd.Flags(), vip); err != nil {
			return err
		}

		logger, err := NewLogger()
		if err != nil {
			return err
		}
		defer func() { _ = logger.Sync() }()
		defer zap.ReplaceGlobals(logger)()
		defer zap.RedirectStdLog(logger)()

		if err := initDebug(logger.Named("debug"), monkit.Default); err != nil {
			logger.Error("Failed to start debug endpoints", zap.Error(err))
		}

		return run(cmd, args)
	}
}

// Viper returns a viper instance reading the flags of cmd from the
// environment and the config file.
func Viper(cmd *cobra.Command) (*viper.Viper, error) {
	vip := viper.New()
	if err := vip.BindPFlags(cmd.Flags()); err != nil {
		return nil, Error.Wrap(err)
	}

	vip.SetEnvPrefix(EnvPrefix)
	vip.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	vip.AutomaticEnv()

	if f := cmd.Flags().Lookup("config"); f != nil && f.Value.String() != "" {
		vip.SetConfigFile(f.Value.String())
		if err := vip.ReadInConfig(); err != nil {
			// the default config file is optional
			if f.Changed || !errors.Is(err, fs.ErrNotExist) {
				return nil, Error.Wrap(err)
			}
		}
	}
	return vip, nil
}

// loadFlags sets the flags that were not given on the command line from vip.
func loadFlags(flags *pflag.FlagSet, vip *viper.Viper) error {
	var group errs.Group
	flags.VisitAll(func(f *pflag.Flag) {
		if f.Changed || !vip.IsSet(f.Name) {
			return
		}
		if err := flags.Set(f.Name, vip.GetString(f.Name)); err != nil {
			group.Add(Error.New("invalid value for %q: %v", f.Name, err))
		}
	})
	return group.Err()
}

// Ctx returns the context of cmd, canceled on interrupt or termination.
func Ctx(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	return signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
}

// Must checks for errors.
func Must(err error) {
	if err != nil {
		log.Fatal(err)
	}
}
