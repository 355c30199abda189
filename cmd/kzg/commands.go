package main

import (
	"crypto/rand"
	"encoding/hex"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/xerrors"

	"github.com/apollozkp/go-kzg/msm"
	"github.com/apollozkp/go-kzg/setup"
)

func setupCommand(logger *zap.Logger) *cobra.Command {
	var (
		size       int
		seedHex    string
		out        string
		compressed bool
	)
	cmd := &cobra.Command{
		Use:   "setup",
		Short: "Generate a trusted setup file (insecure, development only)",
		Long: "Generates powers of a secret scalar on G1 and G2 and writes them to disk.\n" +
			"The secret is derived from the seed on this machine, so the output offers\n" +
			"no ceremony security. Use it for development and testing only.",
		RunE: func(cmd *cobra.Command, args []string) error {
			var secret [32]byte
			if seedHex == "" {
				if _, err := rand.Read(secret[:]); err != nil {
					return xerrors.Errorf("draw random seed: %w", err)
				}
			} else {
				seed, err := hex.DecodeString(seedHex)
				if err != nil {
					return xerrors.Errorf("decode seed: %w", err)
				}
				copy(secret[:], seed)
			}
			logger.Info("generating trusted setup", zap.Int("size", size))
			s := setup.Generate(size, secret)
			if err := s.SaveFile(out, compressed); err != nil {
				return err
			}
			logger.Info("trusted setup written",
				zap.String("path", out),
				zap.Bool("compressed", compressed))
			return nil
		},
	}
	cmd.Flags().IntVar(&size, "size", 4096, "number of powers to generate")
	cmd.Flags().StringVar(&seedHex, "seed", "", "hex seed for the secret (random when empty)")
	cmd.Flags().StringVar(&out, "out", "setup.bin", "output path")
	cmd.Flags().BoolVar(&compressed, "compressed", true, "store points compressed")
	return cmd
}

func precomputeCommand(logger *zap.Logger) *cobra.Command {
	var (
		setupPath  string
		out        string
		compressed bool
	)
	cmd := &cobra.Command{
		Use:   "precompute",
		Short: "Build a BGMW multiplication table from a trusted setup",
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := setup.LoadFile(setupPath, compressed)
			if err != nil {
				return err
			}
			logger.Info("building table", zap.Int("points", len(s.G1)))
			table, err := msm.NewTable(s.G1)
			if err != nil {
				return err
			}
			if err := table.WriteFile(out, compressed); err != nil {
				return err
			}
			w := table.Window()
			logger.Info("table written",
				zap.String("path", out),
				zap.Int("width", w.Width),
				zap.Bool("tiled", w.Tiled()),
				zap.Int("rows", table.Rows()))
			return nil
		},
	}
	cmd.Flags().StringVar(&setupPath, "setup", "setup.bin", "trusted setup path")
	cmd.Flags().StringVar(&out, "out", "table.bin", "output path")
	cmd.Flags().BoolVar(&compressed, "compressed", true, "point encoding of both files")
	return cmd
}

func inspectCommand(logger *zap.Logger) *cobra.Command {
	var tablePath string
	cmd := &cobra.Command{
		Use:   "inspect",
		Short: "Print the header of a precomputation table",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(tablePath)
			if err != nil {
				return xerrors.Errorf("open table: %w", err)
			}
			defer f.Close()
			window, numPoints, h, err := msm.ReadTableHeader(f)
			if err != nil {
				return err
			}
			logger.Info("table header",
				zap.String("path", tablePath),
				zap.Int("width", window.Width),
				zap.Bool("tiled", window.Tiled()),
				zap.Int("nx", window.NX),
				zap.Int("ny", window.NY),
				zap.Int("points", numPoints),
				zap.Int("rows", h))
			return nil
		},
	}
	cmd.Flags().StringVar(&tablePath, "table", "table.bin", "table path")
	return cmd
}
