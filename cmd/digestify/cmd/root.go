package cmd

import (
	"encoding/hex"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/zonemd/digestify/pkg/config"
	"github.com/zonemd/digestify/pkg/zone"
	"github.com/zonemd/digestify/pkg/zonemd"
)

var anyFailed bool

// rootCmd represents the digestify command
var rootCmd = &cobra.Command{
	Use:   "digestify [flags] zonefile ...",
	Short: "Create and verify ZONEMD digests in zone files",
	Long: `digestify computes a ZONEMD digest over every record in a zone and
writes the result to <zonefile>.zonemd, or, with --check, verifies the
digest a zone file already carries.`,
	Args:         cobra.MinimumNArgs(1),
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.NewConfig(
			viper.GetBool("check"),
			viper.GetBool("generic"),
			viper.GetBool("placeholder"),
			viper.GetString("algorithm"),
			viper.GetString("origin"),
			args,
		)
		if err != nil {
			return err
		}
		anyFailed = RunBatch(cmd.OutOrStdout(), cfg)
		return nil
	},
}

func init() {
	rootCmd.Flags().BoolP("check", "c", false, "check ZONEMD in zone file")
	rootCmd.Flags().StringP("algorithm", "a", "sha384", "digest algorithm to use (sha384 or sha512)")
	rootCmd.Flags().BoolP("generic", "g", false, "treat ZONEMD as an unknown type (RFC 3597)")
	rootCmd.Flags().BoolP("placeholder", "p", false, "output a placeholder digest, skip the update step")
	rootCmd.Flags().StringP("origin", "o", ".", "zone origin")

	viper.SetEnvPrefix("digestify")
	viper.AutomaticEnv()
	if err := viper.BindPFlags(rootCmd.Flags()); err != nil {
		log.Fatal(err)
	}
}

// Execute runs the root command. The process exits 1 if any input
// file failed to generate or validate.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
	if anyFailed {
		os.Exit(1)
	}
}

// RunBatch processes every file in the config and reports whether any
// of them failed. One file's failure never stops the rest of the
// batch.
func RunBatch(w io.Writer, cfg *config.Config) bool {
	failed := false
	for _, file := range cfg.Files {
		ok, err := runFile(w, cfg, file)
		if err != nil {
			log.WithField("file", file).Error(err)
			failed = true
			continue
		}
		if !ok {
			failed = true
		}
	}
	return failed
}

func runFile(w io.Writer, cfg *config.Config, file string) (bool, error) {
	z, err := zone.Load(file, cfg.Origin, zonemd.NewRegistry())
	if err != nil {
		return false, err
	}
	if cfg.Check {
		ok, reason, err := zonemd.Validate(z)
		if err != nil {
			return false, err
		}
		if !ok {
			fmt.Fprintf(w, "%s does NOT have a valid digest: %s\n", file, reason)
			return false, nil
		}
		fmt.Fprintf(w, "%s has a valid digest\n", file)
		return true, nil
	}

	rec, err := zonemd.Add(z, cfg.Code, 0)
	if err != nil {
		return false, err
	}
	if !cfg.Placeholder {
		rec, err = zonemd.Update(z, cfg.Code)
		if err != nil {
			return false, err
		}
	}
	out := file + ".zonemd"
	if err := z.Save(out, cfg.Generic); err != nil {
		return false, err
	}
	fmt.Fprintf(w, "Wrote ZONEMD digest %s to %s\n", hex.EncodeToString(rec.Digest), out)
	return true, nil
}
